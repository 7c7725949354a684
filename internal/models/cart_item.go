package models

import (
	"math"
	"time"
)

// CartItem 购物车项
//
// OrderID 非空表示该项已被暂存到对应订单、等待清理（下单两阶段提交的标记）。
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"-" bson:"-"`                                                                                    // 主键
	ProductID string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_cart_product_order" json:"productId" bson:"productId"`                  // 商品ID
	OrderID   string    `gorm:"type:varchar(64);not null;default:'';uniqueIndex:idx_cart_product_order" json:"orderId,omitempty" bson:"orderId"` // 关联订单ID
	Quantity  int       `gorm:"not null" json:"quantity" bson:"quantity"`                                                                        // 累计数量
	LineTotal Money     `gorm:"type:decimal(20,2);not null;default:0" json:"lineTotal" bson:"lineTotal"`                                         // 小计
	CreatedAt time.Time `gorm:"index" json:"createdAt" bson:"createdAt"`                                                                         // 创建时间
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`                                                                                      // 更新时间
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}

// Pending 是否为尚未暂存到订单的购物车项
func (i CartItem) Pending() bool {
	return i.OrderID == ""
}

// AddQuantity 累加数量，结果超出 int 范围时返回 false
func AddQuantity(current, delta int) (int, bool) {
	if delta > 0 && current > math.MaxInt-delta {
		return current, false
	}
	if delta < 0 && current < math.MinInt-delta {
		return current, false
	}
	return current + delta, true
}
