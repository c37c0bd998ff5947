// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/escortdollars/affiliate-backend/internal/models"
)

// StatisticsRepository 大使每日统计仓储
type StatisticsRepository struct {
	db *gorm.DB
}

// NewStatisticsRepository 创建统计仓储
func NewStatisticsRepository(db *gorm.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

// Upsert 写入每日统计，按 (user_id, stat_date) 唯一键合并
func (r *StatisticsRepository) Upsert(ctx context.Context, stats *models.UserStatistics) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "stat_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"total_earnings", "total_referrals", "total_transactions", "updated_at"}),
		}).
		Create(stats).Error
}

// GetByUserAndDate 获取用户指定日期的统计
func (r *StatisticsRepository) GetByUserAndDate(ctx context.Context, userID int64, date time.Time) (*models.UserStatistics, error) {
	var stats models.UserStatistics
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND stat_date = ?", userID, date).
		First(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListByUserID 获取用户的统计列表
func (r *StatisticsRepository) ListByUserID(ctx context.Context, userID int64, offset, limit int) ([]*models.UserStatistics, int64, error) {
	var list []*models.UserStatistics
	var total int64

	query := r.db.WithContext(ctx).Model(&models.UserStatistics{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("stat_date DESC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}

	return list, total, nil
}
