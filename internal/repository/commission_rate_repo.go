// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/escortdollars/affiliate-backend/internal/models"
)

// CommissionRateRepository 佣金比例配置仓储
type CommissionRateRepository struct {
	db *gorm.DB
}

// NewCommissionRateRepository 创建佣金比例配置仓储
func NewCommissionRateRepository(db *gorm.DB) *CommissionRateRepository {
	return &CommissionRateRepository{db: db}
}

// Upsert 创建或更新佣金比例配置
// 按 (ambassador_id, target_type) 唯一键合并
func (r *CommissionRateRepository) Upsert(ctx context.Context, rate *models.CommissionRate) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ambassador_id"}, {Name: "target_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"rate", "updated_at"}),
		}).
		Create(rate).Error
}

// GetByAmbassadorAndTarget 获取大使对指定目标类型的比例配置
func (r *CommissionRateRepository) GetByAmbassadorAndTarget(ctx context.Context, ambassadorID int64, targetType string) (*models.CommissionRate, error) {
	var rate models.CommissionRate
	err := r.db.WithContext(ctx).
		Where("ambassador_id = ? AND target_type = ?", ambassadorID, targetType).
		First(&rate).Error
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// ListByAmbassadorID 获取大使的全部比例配置
func (r *CommissionRateRepository) ListByAmbassadorID(ctx context.Context, ambassadorID int64) ([]*models.CommissionRate, error) {
	var rates []*models.CommissionRate
	err := r.db.WithContext(ctx).
		Where("ambassador_id = ?", ambassadorID).
		Order("target_type").
		Find(&rates).Error
	return rates, err
}

// Delete 删除比例配置
func (r *CommissionRateRepository) Delete(ctx context.Context, ambassadorID int64, targetType string) error {
	return r.db.WithContext(ctx).
		Where("ambassador_id = ? AND target_type = ?", ambassadorID, targetType).
		Delete(&models.CommissionRate{}).Error
}
