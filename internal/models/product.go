package models

import "time"

// Product 商品表
type Product struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id" bson:"_id"`                // 商品ID（调用方指定或序列生成）
	Name        string    `gorm:"type:varchar(255);not null" json:"name" bson:"name"`              // 名称
	Description string    `gorm:"type:text;not null" json:"description" bson:"description"`        // 描述
	Price       Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price" bson:"price"` // 单价
	Stock       int       `gorm:"not null;default:0" json:"stock" bson:"stock"`                    // 库存（只读校验，不扣减）
	ImageURL    string    `gorm:"type:varchar(1024);not null" json:"imageUrl" bson:"imageUrl"`     // 图片地址
	CreatedAt   time.Time `gorm:"index" json:"createdAt" bson:"createdAt"`                         // 创建时间
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`                                      // 更新时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
