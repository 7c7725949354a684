package models

import "time"

// Order 订单表
//
// TotalCost 在下单时按购物车快照计算，之后不再重算（包括行取消之后）。
type Order struct {
	ID        string      `gorm:"primaryKey;type:varchar(64)" json:"id" bson:"_id"`                        // 订单ID（调用方指定）
	Date      string      `gorm:"type:varchar(64);not null" json:"date" bson:"date"`                       // 下单日期
	Address   string      `gorm:"type:text;not null" json:"address" bson:"address"`                        // 收货地址
	Status    string      `gorm:"type:varchar(20);index;not null" json:"status" bson:"status"`             // 订单状态
	TotalCost Money       `gorm:"type:decimal(20,2);not null;default:0" json:"totalCost" bson:"totalCost"` // 总金额
	CreatedAt time.Time   `gorm:"index" json:"createdAt" bson:"createdAt"`                                 // 创建时间
	Items     []OrderLine `gorm:"foreignKey:OrderID;references:ID" json:"items" bson:"items"`              // 购物车快照
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// Clone 深拷贝订单（含订单行）
func (o Order) Clone() Order {
	cloned := o
	if o.Items != nil {
		cloned.Items = make([]OrderLine, len(o.Items))
		copy(cloned.Items, o.Items)
	}
	return cloned
}

// FindLine 按商品ID查找订单行
func (o *Order) FindLine(productID string) *OrderLine {
	if o == nil {
		return nil
	}
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			return &o.Items[i]
		}
	}
	return nil
}
