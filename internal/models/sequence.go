package models

// Sequence 单调递增序列（用于生成商品ID，删除后不复用）
type Sequence struct {
	Name  string `gorm:"primaryKey;type:varchar(64)" json:"name" bson:"_id"`
	Value int64  `gorm:"not null;default:0" json:"value" bson:"value"`
}

// TableName 指定表名
func (Sequence) TableName() string {
	return "sequences"
}
