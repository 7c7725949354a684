package models

import "github.com/dujiao-next/cartflow/internal/constants"

// OrderLine 订单行（购物车项快照）
type OrderLine struct {
	ID        uint   `gorm:"primarykey" json:"-" bson:"-"`                                            // 主键
	OrderID   string `gorm:"type:varchar(64);index;not null" json:"-" bson:"-"`                       // 订单ID
	ProductID string `gorm:"type:varchar(64);not null" json:"productId" bson:"productId"`             // 商品ID
	Quantity  int    `gorm:"not null" json:"quantity" bson:"quantity"`                                // 数量
	LineTotal Money  `gorm:"type:decimal(20,2);not null;default:0" json:"lineTotal" bson:"lineTotal"` // 小计
	State     string `gorm:"type:varchar(20);not null;default:'active'" json:"state" bson:"state"`    // 行状态（active/cancelled）
}

// TableName 指定表名
func (OrderLine) TableName() string {
	return "order_lines"
}

// Active 行是否有效
func (l OrderLine) Active() bool {
	return l.State == "" || l.State == constants.OrderLineStateActive
}

// Cancel 将行从 active 迁移到 cancelled，已取消的行返回 false
func (l *OrderLine) Cancel() bool {
	if l == nil || !l.Active() {
		return false
	}
	l.State = constants.OrderLineStateCancelled
	return true
}
