// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/escortdollars/affiliate-backend/internal/models"
)

// BannerRepository 横幅仓储
type BannerRepository struct {
	db *gorm.DB
}

// NewBannerRepository 创建横幅仓储
func NewBannerRepository(db *gorm.DB) *BannerRepository {
	return &BannerRepository{db: db}
}

// Create 创建横幅
func (r *BannerRepository) Create(ctx context.Context, banner *models.Banner) error {
	return r.db.WithContext(ctx).Create(banner).Error
}

// GetByID 根据 ID 获取横幅
func (r *BannerRepository) GetByID(ctx context.Context, id int64) (*models.Banner, error) {
	var banner models.Banner
	err := r.db.WithContext(ctx).First(&banner, id).Error
	if err != nil {
		return nil, err
	}
	return &banner, nil
}

// GetByIDWithSite 根据 ID 获取横幅（包含所属站点）
func (r *BannerRepository) GetByIDWithSite(ctx context.Context, id int64) (*models.Banner, error) {
	var banner models.Banner
	err := r.db.WithContext(ctx).Preload("WhiteLabel").First(&banner, id).Error
	if err != nil {
		return nil, err
	}
	return &banner, nil
}

// ListByWhiteLabelID 获取站点的横幅列表
func (r *BannerRepository) ListByWhiteLabelID(ctx context.Context, whiteLabelID int64) ([]*models.Banner, error) {
	var banners []*models.Banner
	err := r.db.WithContext(ctx).
		Where("white_label_id = ?", whiteLabelID).
		Order("id DESC").
		Find(&banners).Error
	return banners, err
}

// CountPersonalBySite 统计站点的个人横幅数量
func (r *BannerRepository) CountPersonalBySite(ctx context.Context, whiteLabelID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Banner{}).
		Where("white_label_id = ? AND banner_type = ?", whiteLabelID, models.BannerTypePersonal).
		Count(&count).Error
	return count, err
}

// Update 更新横幅
func (r *BannerRepository) Update(ctx context.Context, banner *models.Banner) error {
	return r.db.WithContext(ctx).Save(banner).Error
}

// Delete 删除横幅
func (r *BannerRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Banner{}, id).Error
}

// IncrementViews 累加展示次数
func (r *BannerRepository) IncrementViews(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&models.Banner{}).
		Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).
		Error
}

// IncrementClicks 累加点击次数
func (r *BannerRepository) IncrementClicks(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&models.Banner{}).
		Where("id = ?", id).
		UpdateColumn("clicks_count", gorm.Expr("clicks_count + 1")).
		Error
}
