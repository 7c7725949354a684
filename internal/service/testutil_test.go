package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dujiao-next/cartflow/internal/constants"
	"github.com/dujiao-next/cartflow/internal/models"
	"github.com/dujiao-next/cartflow/internal/queue"
	"github.com/dujiao-next/cartflow/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/spf13/afero"
	"gorm.io/gorm"
)

func newSQLiteStore(t *testing.T) repository.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return repository.NewGormStore(db, constants.StoreDriverSQLite)
}

func newFileStore(t *testing.T) repository.Store {
	t.Helper()
	store, err := repository.NewFileStore(afero.NewMemMapFs(), "/data")
	if err != nil {
		t.Fatalf("open file store failed: %v", err)
	}
	return store
}

func runOnStores(t *testing.T, fn func(t *testing.T, store repository.Store)) {
	t.Helper()
	for _, backend := range []struct {
		name  string
		setup func(t *testing.T) repository.Store
	}{
		{name: constants.StoreDriverFile, setup: newFileStore},
		{name: constants.StoreDriverSQLite, setup: newSQLiteStore},
	} {
		t.Run(backend.name, func(t *testing.T) {
			fn(t, backend.setup(t))
		})
	}
}

// recordingQueue 记录推送的任务
type recordingQueue struct {
	mu       sync.Mutex
	events   []queue.OrderEventPayload
	recovers []string
}

func (q *recordingQueue) EnqueueOrderEvent(_ context.Context, payload queue.OrderEventPayload) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, payload)
	return nil
}

func (q *recordingQueue) EnqueuePlacementRecover(_ context.Context, payload queue.PlacementRecoverPayload, _ time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.recovers = append(q.recovers, payload.OrderID)
	return nil
}

func (q *recordingQueue) eventsOf(kind string) []queue.OrderEventPayload {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []queue.OrderEventPayload
	for _, e := range q.events {
		if e.Event == kind {
			out = append(out, e)
		}
	}
	return out
}

// failingClearStore 模拟下单第二阶段失败
type failingClearStore struct {
	repository.Store
}

func (s failingClearStore) Cart() repository.CartRepository {
	return failingClearCart{CartRepository: s.Store.Cart()}
}

type failingClearCart struct {
	repository.CartRepository
}

func (failingClearCart) DeleteByOrder(context.Context, string) (int64, error) {
	return 0, errors.New("disk full")
}

type services struct {
	products *ProductService
	cart     *CartService
	orders   *OrderService
	queue    *recordingQueue
}

func newServices(store repository.Store) services {
	q := &recordingQueue{}
	return services{
		products: NewProductService(store),
		cart:     NewCartService(store),
		orders:   NewOrderService(store, q, time.Second),
		queue:    q,
	}
}

func intPtr(v int) *int { return &v }

func moneyPtr(v float64) *models.Money {
	m := models.NewMoneyFromFloat(v)
	return &m
}

func mustCreateProduct(t *testing.T, svc *ProductService, id string, price float64, stock int) *models.Product {
	t.Helper()
	product, err := svc.Create(context.Background(), CreateProductInput{
		ID:          id,
		Name:        "product " + id,
		Description: "desc",
		Price:       moneyPtr(price),
		Stock:       intPtr(stock),
		ImageURL:    "http://img/" + id,
	})
	if err != nil {
		t.Fatalf("create product %s failed: %v", id, err)
	}
	return product
}

// interleavingStore 事务内读取购物车快照后再加购一次，模拟快照与标记之间提交的并发请求
type interleavingStore struct {
	repository.Store
	productID string
	remaining int
}

func (s *interleavingStore) Transaction(ctx context.Context, fn repository.TxFunc) error {
	return s.Store.Transaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return fn(ctx, interleavingTx{Store: tx, parent: s})
	})
}

type interleavingTx struct {
	repository.Store
	parent *interleavingStore
}

func (t interleavingTx) Cart() repository.CartRepository {
	return interleavingCart{CartRepository: t.Store.Cart(), parent: t.parent}
}

type interleavingCart struct {
	repository.CartRepository
	parent *interleavingStore
}

func (c interleavingCart) List(ctx context.Context) ([]models.CartItem, error) {
	items, err := c.CartRepository.List(ctx)
	if err != nil || c.parent.remaining == 0 {
		return items, err
	}
	c.parent.remaining--
	if _, err := c.CartRepository.Upsert(ctx, c.parent.productID, 1, models.NewMoneyFromFloat(10)); err != nil {
		return nil, err
	}
	return items, nil
}
