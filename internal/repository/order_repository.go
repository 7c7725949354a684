package repository

import (
	"context"
	"errors"

	"github.com/dujiao-next/cartflow/internal/models"

	"gorm.io/gorm"
)

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

func (r *GormOrderRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id asc")
	})
}

// List 订单列表
func (r *GormOrderRepository) List(ctx context.Context) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	if err := r.withItems(ctx).Order("created_at asc, id asc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.withItems(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// Create 创建订单与订单行
func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return translateGormError(r.db.WithContext(ctx).Create(order).Error)
}

// UpdateStatus 仅更新订单状态
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id string, status string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	return result.RowsAffected, result.Error
}

// UpdateLines 写回订单行状态
func (r *GormOrderRepository) UpdateLines(ctx context.Context, order *models.Order) error {
	if order == nil {
		return nil
	}
	db := r.db.WithContext(ctx)
	for _, line := range order.Items {
		if err := db.Model(&models.OrderLine{}).
			Where("order_id = ? AND product_id = ?", order.ID, line.ProductID).
			Update("state", line.State).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete 删除订单及订单行
func (r *GormOrderRepository) Delete(ctx context.Context, id string) (int64, error) {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", id).Delete(&models.OrderLine{}).Error; err != nil {
		return 0, err
	}
	result := db.Where("id = ?", id).Delete(&models.Order{})
	return result.RowsAffected, result.Error
}
