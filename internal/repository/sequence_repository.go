package repository

import (
	"context"

	"github.com/dujiao-next/cartflow/internal/models"

	"gorm.io/gorm"
)

// GormSequenceRepository GORM 实现
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewSequenceRepository 创建序列仓库
func NewSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSequenceRepository) WithTx(tx *gorm.DB) *GormSequenceRepository {
	if tx == nil {
		return r
	}
	return &GormSequenceRepository{db: tx}
}

// Next 递增并返回序列值
func (r *GormSequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	db := r.db.WithContext(ctx)
	result := db.Model(&models.Sequence{}).Where("name = ?", name).Update("value", gorm.Expr("value + ?", 1))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		seq := models.Sequence{Name: name, Value: 1}
		if err := db.Create(&seq).Error; err != nil {
			return 0, err
		}
		return seq.Value, nil
	}
	var seq models.Sequence
	if err := db.Where("name = ?", name).First(&seq).Error; err != nil {
		return 0, err
	}
	return seq.Value, nil
}
