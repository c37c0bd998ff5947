// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/escortdollars/affiliate-backend/internal/models"
)

// ReferralRepository 推荐关系仓储
type ReferralRepository struct {
	db *gorm.DB
}

// NewReferralRepository 创建推荐关系仓储
func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// Create 创建推荐关系
func (r *ReferralRepository) Create(ctx context.Context, referral *models.Referral) error {
	return r.db.WithContext(ctx).Create(referral).Error
}

// GetByID 根据 ID 获取推荐关系
func (r *ReferralRepository) GetByID(ctx context.Context, id int64) (*models.Referral, error) {
	var referral models.Referral
	err := r.db.WithContext(ctx).First(&referral, id).Error
	if err != nil {
		return nil, err
	}
	return &referral, nil
}

// GetByReferredID 获取某个被推荐用户的推荐关系
// 每个用户最多只有一个推荐人
func (r *ReferralRepository) GetByReferredID(ctx context.Context, referredID int64) (*models.Referral, error) {
	var referral models.Referral
	err := r.db.WithContext(ctx).Where("referred_id = ?", referredID).First(&referral).Error
	if err != nil {
		return nil, err
	}
	return &referral, nil
}

// ExistsPair 检查推荐关系是否已存在
func (r *ReferralRepository) ExistsPair(ctx context.Context, referrerID, referredID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("referrer_id = ? AND referred_id = ?", referrerID, referredID).
		Count(&count).Error
	return count > 0, err
}

// ListByReferrerID 获取某个推荐人的推荐列表
func (r *ReferralRepository) ListByReferrerID(ctx context.Context, referrerID int64, offset, limit int) ([]*models.Referral, int64, error) {
	var referrals []*models.Referral
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Referral{}).Where("referrer_id = ?", referrerID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Referred").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&referrals).Error; err != nil {
		return nil, 0, err
	}

	return referrals, total, nil
}

// CountByReferrerID 统计某个推荐人的推荐数量
func (r *ReferralRepository) CountByReferrerID(ctx context.Context, referrerID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("referrer_id = ?", referrerID).
		Count(&count).Error
	return count, err
}

// CountByReferrerIDSince 统计某个推荐人指定时间之后的推荐数量
func (r *ReferralRepository) CountByReferrerIDSince(ctx context.Context, referrerID int64, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("referrer_id = ? AND created_at >= ?", referrerID, since).
		Count(&count).Error
	return count, err
}

// CreateClick 记录推广链接点击
func (r *ReferralRepository) CreateClick(ctx context.Context, click *models.ReferralClick) error {
	return r.db.WithContext(ctx).Create(click).Error
}

// CountClicksByCode 统计推荐码的点击次数
func (r *ReferralRepository) CountClicksByCode(ctx context.Context, code string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ReferralClick{}).
		Where("referral_code = ?", code).
		Count(&count).Error
	return count, err
}

// DeleteClicksBefore 清理指定时间之前的点击记录
func (r *ReferralRepository) DeleteClicksBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", before).
		Delete(&models.ReferralClick{})
	return result.RowsAffected, result.Error
}
