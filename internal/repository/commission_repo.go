// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/escortdollars/affiliate-backend/internal/models"
)

// CommissionRepository 佣金仓储
type CommissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository 创建佣金仓储
func NewCommissionRepository(db *gorm.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

// Create 创建佣金记录
func (r *CommissionRepository) Create(ctx context.Context, commission *models.Commission) error {
	return r.db.WithContext(ctx).Create(commission).Error
}

// GetByID 根据 ID 获取佣金记录
func (r *CommissionRepository) GetByID(ctx context.Context, id int64) (*models.Commission, error) {
	var commission models.Commission
	err := r.db.WithContext(ctx).First(&commission, id).Error
	if err != nil {
		return nil, err
	}
	return &commission, nil
}

// GetByIDWithRelations 根据 ID 获取佣金记录（包含关联）
func (r *CommissionRepository) GetByIDWithRelations(ctx context.Context, id int64) (*models.Commission, error) {
	var commission models.Commission
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Referral").
		Preload("Referral.Referred").
		Preload("Transaction").
		First(&commission, id).Error
	if err != nil {
		return nil, err
	}
	return &commission, nil
}

// GetByIDForUpdate 根据 ID 获取佣金记录并加行锁
// 必须在事务中调用
func (r *CommissionRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*models.Commission, error) {
	var commission models.Commission
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&commission, id).Error
	if err != nil {
		return nil, err
	}
	return &commission, nil
}

// GetByIDs 批量获取佣金记录
func (r *CommissionRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.Commission, error) {
	var commissions []*models.Commission
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&commissions).Error
	return commissions, err
}

// ListByUserID 获取用户的佣金记录列表
func (r *CommissionRepository) ListByUserID(ctx context.Context, userID int64, offset, limit int, filters map[string]interface{}) ([]*models.Commission, int64, error) {
	var commissions []*models.Commission
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Commission{}).Where("user_id = ?", userID)

	// 应用过滤条件
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if commissionType, ok := filters["commission_type"].(string); ok && commissionType != "" {
		query = query.Where("commission_type = ?", commissionType)
	}
	if startTime, ok := filters["start_time"].(time.Time); ok {
		query = query.Where("created_at >= ?", startTime)
	}
	if endTime, ok := filters["end_time"].(time.Time); ok {
		query = query.Where("created_at <= ?", endTime)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Referral").
		Preload("Referral.Referred").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&commissions).Error; err != nil {
		return nil, 0, err
	}

	return commissions, total, nil
}

// ListAllByUserID 获取用户的全部佣金记录（导出用）
func (r *CommissionRepository) ListAllByUserID(ctx context.Context, userID int64) ([]*models.Commission, error) {
	var commissions []*models.Commission
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&commissions).Error
	return commissions, err
}

// List 获取佣金记录列表（管理端）
func (r *CommissionRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Commission, int64, error) {
	var commissions []*models.Commission
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Commission{})

	if userID, ok := filters["user_id"].(int64); ok && userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("User").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&commissions).Error; err != nil {
		return nil, 0, err
	}

	return commissions, total, nil
}

// SumByUserID 统计用户指定状态的佣金总额
func (r *CommissionRepository) SumByUserID(ctx context.Context, userID int64, status *string) (float64, error) {
	var sum float64
	query := r.db.WithContext(ctx).Model(&models.Commission{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID)

	if status != nil {
		query = query.Where("status = ?", *status)
	}

	err := query.Scan(&sum).Error
	return sum, err
}

// SumByUserIDBetween 统计用户指定时间区间内的佣金总额
func (r *CommissionRepository) SumByUserIDBetween(ctx context.Context, userID int64, start, end time.Time) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).Model(&models.Commission{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, start, end).
		Scan(&sum).Error
	return sum, err
}

// CountByUserID 统计用户的佣金记录数
func (r *CommissionRepository) CountByUserID(ctx context.Context, userID int64, status *string) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Commission{}).
		Where("user_id = ?", userID)

	if status != nil {
		query = query.Where("status = ?", *status)
	}

	err := query.Count(&count).Error
	return count, err
}

// ExistsByTransactionID 检查某笔交易是否已生成佣金
func (r *CommissionRepository) ExistsByTransactionID(ctx context.Context, transactionID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Commission{}).
		Where("transaction_id = ?", transactionID).
		Count(&count).Error
	return count > 0, err
}

// GetStatsByUserID 获取用户佣金统计
func (r *CommissionRepository) GetStatsByUserID(ctx context.Context, userID int64) (*models.CommissionStats, error) {
	var stats models.CommissionStats
	err := r.db.WithContext(ctx).Model(&models.Commission{}).
		Select(`
			COALESCE(SUM(amount), 0) as total_amount,
			COALESCE(SUM(CASE WHEN status = 'pending' THEN amount ELSE 0 END), 0) as pending_amount,
			COALESCE(SUM(CASE WHEN status = 'approved' THEN amount ELSE 0 END), 0) as approved_amount,
			COALESCE(SUM(CASE WHEN status = 'paid' THEN amount ELSE 0 END), 0) as paid_amount,
			COALESCE(SUM(CASE WHEN status = 'rejected' THEN amount ELSE 0 END), 0) as rejected_amount,
			COUNT(*) as total_count
		`).
		Where("user_id = ?", userID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
