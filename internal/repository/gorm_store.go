package repository

import (
	"context"

	"gorm.io/gorm"
)

// GormStore GORM 实现（sqlite/postgres）
type GormStore struct {
	db        *gorm.DB
	driver    string
	products  *GormProductRepository
	cart      *GormCartRepository
	orders    *GormOrderRepository
	sequences *GormSequenceRepository
}

// NewGormStore 创建 GORM 存储
func NewGormStore(db *gorm.DB, driver string) *GormStore {
	return &GormStore{
		db:        db,
		driver:    driver,
		products:  NewProductRepository(db),
		cart:      NewCartRepository(db),
		orders:    NewOrderRepository(db),
		sequences: NewSequenceRepository(db),
	}
}

// WithTx 绑定事务
func (s *GormStore) WithTx(tx *gorm.DB) *GormStore {
	if tx == nil {
		return s
	}
	return &GormStore{
		db:        tx,
		driver:    s.driver,
		products:  s.products.WithTx(tx),
		cart:      s.cart.WithTx(tx),
		orders:    s.orders.WithTx(tx),
		sequences: s.sequences.WithTx(tx),
	}
}

// Products 商品仓库
func (s *GormStore) Products() ProductRepository { return s.products }

// Cart 购物车仓库
func (s *GormStore) Cart() CartRepository { return s.cart }

// Orders 订单仓库
func (s *GormStore) Orders() OrderRepository { return s.orders }

// Sequences 序列仓库
func (s *GormStore) Sequences() SequenceRepository { return s.sequences }

// Driver 驱动名称
func (s *GormStore) Driver() string { return s.driver }

// Transaction 执行数据库事务
func (s *GormStore) Transaction(ctx context.Context, fn TxFunc) error {
	if fn == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, s.WithTx(tx))
	})
}

// Close 关闭连接
func (s *GormStore) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
