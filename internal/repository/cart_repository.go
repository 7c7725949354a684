package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dujiao-next/cartflow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db   *gorm.DB
	lock bool // 事务内读取时加行锁
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx, lock: true}
}

// List 获取购物车项
func (r *GormCartRepository) List(ctx context.Context) ([]models.CartItem, error) {
	query := r.db.WithContext(ctx)
	if r.lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	items := make([]models.CartItem, 0)
	if err := query.Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Upsert 添加或累加购物车项
func (r *GormCartRepository) Upsert(ctx context.Context, productID string, quantity int, unitPrice models.Money) (*models.CartItem, error) {
	db := r.db.WithContext(ctx)
	now := time.Now()
	subtotal := unitPrice.Mul(quantity)

	var existing models.CartItem
	err := db.Where("product_id = ? AND order_id = ?", productID, "").First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		item := &models.CartItem{
			ProductID: productID,
			Quantity:  quantity,
			LineTotal: subtotal,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := db.Create(item).Error; err != nil {
			return nil, err
		}
		return item, nil
	}
	if err != nil {
		return nil, err
	}

	total, ok := models.AddQuantity(existing.Quantity, quantity)
	if !ok {
		return nil, ErrQuantityOverflow
	}
	existing.Quantity = total
	existing.LineTotal = existing.LineTotal.Add(subtotal)
	existing.UpdatedAt = now
	updates := map[string]interface{}{
		"quantity":   existing.Quantity,
		"line_total": existing.LineTotal,
		"updated_at": now,
	}
	if err := db.Model(&models.CartItem{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// AttachOrder 按快照行标记到订单，行已被修改时跳过
func (r *GormCartRepository) AttachOrder(ctx context.Context, orderID string, snapshot []models.CartItem) (int64, error) {
	if orderID == "" {
		return 0, nil
	}
	db := r.db.WithContext(ctx)
	now := time.Now()
	var affected int64
	for _, item := range snapshot {
		if !item.Pending() {
			continue
		}
		result := db.Model(&models.CartItem{}).
			Where("id = ? AND order_id = ? AND quantity = ?", item.ID, "", item.Quantity).
			Updates(map[string]interface{}{"order_id": orderID, "updated_at": now})
		if result.Error != nil {
			return affected, result.Error
		}
		affected += result.RowsAffected
	}
	return affected, nil
}

// DetachOrder 移除订单标记，遇到同商品的未暂存项时合并
func (r *GormCartRepository) DetachOrder(ctx context.Context, orderID string) (int64, error) {
	if orderID == "" {
		return 0, nil
	}
	db := r.db.WithContext(ctx)
	var tagged []models.CartItem
	if err := db.Where("order_id = ?", orderID).Order("id asc").Find(&tagged).Error; err != nil {
		return 0, err
	}
	now := time.Now()
	var affected int64
	for _, item := range tagged {
		var pending models.CartItem
		err := db.Where("product_id = ? AND order_id = ?", item.ProductID, "").First(&pending).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := db.Model(&models.CartItem{}).Where("id = ?", item.ID).
				Updates(map[string]interface{}{"order_id": "", "updated_at": now}).Error; err != nil {
				return affected, err
			}
		case err != nil:
			return affected, err
		default:
			total, ok := models.AddQuantity(pending.Quantity, item.Quantity)
			if !ok {
				return affected, ErrQuantityOverflow
			}
			updates := map[string]interface{}{
				"quantity":   total,
				"line_total": pending.LineTotal.Add(item.LineTotal),
				"updated_at": now,
			}
			if err := db.Model(&models.CartItem{}).Where("id = ?", pending.ID).Updates(updates).Error; err != nil {
				return affected, err
			}
			if err := db.Where("id = ?", item.ID).Delete(&models.CartItem{}).Error; err != nil {
				return affected, err
			}
		}
		affected++
	}
	return affected, nil
}

// DeleteByOrder 删除已暂存到订单的项
func (r *GormCartRepository) DeleteByOrder(ctx context.Context, orderID string) (int64, error) {
	if orderID == "" {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}

// Clear 清空购物车
func (r *GormCartRepository) Clear(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}
