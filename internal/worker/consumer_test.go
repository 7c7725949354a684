package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/dujiao-next/cartflow/internal/config"
	"github.com/dujiao-next/cartflow/internal/constants"
	"github.com/dujiao-next/cartflow/internal/models"
	"github.com/dujiao-next/cartflow/internal/provider"
	"github.com/dujiao-next/cartflow/internal/queue"
	"github.com/dujiao-next/cartflow/internal/repository"

	"github.com/hibiken/asynq"
	"github.com/spf13/afero"
)

func newTestConsumer(t *testing.T) (*Consumer, repository.Store) {
	t.Helper()
	store, err := repository.NewFileStore(afero.NewMemMapFs(), "/data")
	if err != nil {
		t.Fatalf("open file store failed: %v", err)
	}
	return NewConsumer(provider.NewContainer(config.Defaults(), store)), store
}

func TestHandlePlacementRecoverCompletesExistingOrder(t *testing.T) {
	consumer, store := newTestConsumer(t)
	ctx := context.Background()
	_ = store.Orders().Create(ctx, &models.Order{ID: "o1", Date: "2024-01-01", Address: "X", Status: constants.OrderStatusPending})
	_, _ = store.Cart().Upsert(ctx, "1", 1, models.NewMoneyFromFloat(10))
	_, _ = attachPending(ctx, store.Cart(), "o1")

	task, _ := queue.NewPlacementRecoverTask(queue.PlacementRecoverPayload{OrderID: "o1"})
	if err := consumer.handlePlacementRecover(ctx, task); err != nil {
		t.Fatalf("handle recover failed: %v", err)
	}
	items, _ := store.Cart().List(ctx)
	if len(items) != 0 {
		t.Fatalf("staged items should be removed, got %d", len(items))
	}
}

func TestHandlePlacementRecoverRestoresOrphans(t *testing.T) {
	consumer, store := newTestConsumer(t)
	ctx := context.Background()
	_, _ = store.Cart().Upsert(ctx, "1", 2, models.NewMoneyFromFloat(10))
	_, _ = attachPending(ctx, store.Cart(), "ghost")

	task, _ := queue.NewPlacementRecoverTask(queue.PlacementRecoverPayload{OrderID: "ghost"})
	if err := consumer.handlePlacementRecover(ctx, task); err != nil {
		t.Fatalf("handle recover failed: %v", err)
	}
	items, _ := store.Cart().List(ctx)
	if len(items) != 1 || !items[0].Pending() {
		t.Fatalf("orphaned item should return to cart, got %+v", items)
	}
}

func TestHandlersSkipRetryOnInvalidPayload(t *testing.T) {
	consumer, _ := newTestConsumer(t)
	ctx := context.Background()
	bad := asynq.NewTask(queue.TaskOrderPlacementRecover, []byte(`{}`))
	if err := consumer.handlePlacementRecover(ctx, bad); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("invalid recover payload want SkipRetry got %v", err)
	}
	badEvent := asynq.NewTask(queue.TaskOrderEvent, []byte(`oops`))
	if err := consumer.handleOrderEvent(ctx, badEvent); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("invalid event payload want SkipRetry got %v", err)
	}
	event, _ := queue.NewOrderEventTask(queue.OrderEventPayload{OrderID: "o1", Event: constants.OrderEventPlaced})
	if err := consumer.handleOrderEvent(ctx, event); err != nil {
		t.Fatalf("valid event failed: %v", err)
	}
}

func TestNewServiceRequiresEnabledQueue(t *testing.T) {
	consumer, _ := newTestConsumer(t)
	if _, err := NewService(&config.QueueConfig{Enabled: false}, config.OrderConfig{}, consumer); err == nil {
		t.Fatalf("disabled queue should not build a worker")
	}
}

// attachPending 把当前全部未暂存项标记到订单
func attachPending(ctx context.Context, cart repository.CartRepository, orderID string) (int64, error) {
	items, err := cart.List(ctx)
	if err != nil {
		return 0, err
	}
	return cart.AttachOrder(ctx, orderID, items)
}
