package repository

import (
	"context"
	"errors"

	"github.com/dujiao-next/cartflow/internal/models"
)

// ErrDuplicateKey 主键冲突
var ErrDuplicateKey = errors.New("repository: duplicate key")

// ErrQuantityOverflow 累加后数量超出 int 范围
var ErrQuantityOverflow = errors.New("repository: quantity overflow")

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	List(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) (int64, error)
}

// CartRepository 购物车数据访问接口
type CartRepository interface {
	List(ctx context.Context) ([]models.CartItem, error)
	// Upsert 仅合并未暂存的项：同商品累加数量与小计，否则追加
	Upsert(ctx context.Context, productID string, quantity int, unitPrice models.Money) (*models.CartItem, error)
	// AttachOrder 将快照中的未暂存项标记到订单；只标记商品与数量仍与快照一致的项
	AttachOrder(ctx context.Context, orderID string, snapshot []models.CartItem) (int64, error)
	// DetachOrder 取消订单标记，项回到购物车
	DetachOrder(ctx context.Context, orderID string) (int64, error)
	DeleteByOrder(ctx context.Context, orderID string) (int64, error)
	Clear(ctx context.Context) (int64, error)
}

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	List(ctx context.Context) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	UpdateStatus(ctx context.Context, id string, status string) (int64, error)
	// UpdateLines 覆盖写入订单行状态
	UpdateLines(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id string) (int64, error)
}

// SequenceRepository 序列数据访问接口
type SequenceRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}

// TxFunc 事务回调，ctx 与 tx 必须一起使用
type TxFunc func(ctx context.Context, tx Store) error

// Store 三类集合的统一存储
type Store interface {
	Products() ProductRepository
	Cart() CartRepository
	Orders() OrderRepository
	Sequences() SequenceRepository
	// Transaction 回调内的写入要么全部提交，要么全部丢弃
	Transaction(ctx context.Context, fn TxFunc) error
	Driver() string
	Close(ctx context.Context) error
}
