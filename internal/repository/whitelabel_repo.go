// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/escortdollars/affiliate-backend/internal/models"
)

// WhiteLabelRepository 白标站点仓储
type WhiteLabelRepository struct {
	db *gorm.DB
}

// NewWhiteLabelRepository 创建白标站点仓储
func NewWhiteLabelRepository(db *gorm.DB) *WhiteLabelRepository {
	return &WhiteLabelRepository{db: db}
}

// Create 创建白标站点
func (r *WhiteLabelRepository) Create(ctx context.Context, wl *models.WhiteLabel) error {
	return r.db.WithContext(ctx).Create(wl).Error
}

// GetByID 根据 ID 获取白标站点
func (r *WhiteLabelRepository) GetByID(ctx context.Context, id int64) (*models.WhiteLabel, error) {
	var wl models.WhiteLabel
	err := r.db.WithContext(ctx).First(&wl, id).Error
	if err != nil {
		return nil, err
	}
	return &wl, nil
}

// GetByIDWithBanners 根据 ID 获取白标站点（包含横幅）
func (r *WhiteLabelRepository) GetByIDWithBanners(ctx context.Context, id int64) (*models.WhiteLabel, error) {
	var wl models.WhiteLabel
	err := r.db.WithContext(ctx).
		Preload("Banners", "is_active = ?", true).
		First(&wl, id).Error
	if err != nil {
		return nil, err
	}
	return &wl, nil
}

// GetByDomain 根据域名获取白标站点
func (r *WhiteLabelRepository) GetByDomain(ctx context.Context, domain string) (*models.WhiteLabel, error) {
	var wl models.WhiteLabel
	err := r.db.WithContext(ctx).Where("domain = ?", domain).First(&wl).Error
	if err != nil {
		return nil, err
	}
	return &wl, nil
}

// GetActiveByDomain 根据域名或自定义域名获取启用中的白标站点
func (r *WhiteLabelRepository) GetActiveByDomain(ctx context.Context, domain string) (*models.WhiteLabel, error) {
	var wl models.WhiteLabel
	err := r.db.WithContext(ctx).
		Where("(domain = ? OR custom_domain = ?) AND is_active = ?", domain, domain, true).
		First(&wl).Error
	if err != nil {
		return nil, err
	}
	return &wl, nil
}

// CountByAmbassadorID 统计大使的白标站点数量
func (r *WhiteLabelRepository) CountByAmbassadorID(ctx context.Context, ambassadorID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WhiteLabel{}).
		Where("ambassador_id = ?", ambassadorID).
		Count(&count).Error
	return count, err
}

// ListByAmbassadorID 获取大使的白标站点列表
func (r *WhiteLabelRepository) ListByAmbassadorID(ctx context.Context, ambassadorID int64) ([]*models.WhiteLabel, error) {
	var sites []*models.WhiteLabel
	err := r.db.WithContext(ctx).
		Where("ambassador_id = ?", ambassadorID).
		Order("id DESC").
		Find(&sites).Error
	return sites, err
}

// List 获取白标站点列表（管理端）
func (r *WhiteLabelRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.WhiteLabel, int64, error) {
	var sites []*models.WhiteLabel
	var total int64

	query := r.db.WithContext(ctx).Model(&models.WhiteLabel{})

	if ambassadorID, ok := filters["ambassador_id"].(int64); ok && ambassadorID > 0 {
		query = query.Where("ambassador_id = ?", ambassadorID)
	}
	if isActive, ok := filters["is_active"].(bool); ok {
		query = query.Where("is_active = ?", isActive)
	}
	if dnsVerified, ok := filters["dns_verified"].(bool); ok {
		query = query.Where("dns_verified = ?", dnsVerified)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Ambassador").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&sites).Error; err != nil {
		return nil, 0, err
	}

	return sites, total, nil
}

// Update 更新白标站点
func (r *WhiteLabelRepository) Update(ctx context.Context, wl *models.WhiteLabel) error {
	return r.db.WithContext(ctx).Save(wl).Error
}

// UpdateFields 更新指定字段
func (r *WhiteLabelRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.WhiteLabel{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 删除白标站点
func (r *WhiteLabelRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.WhiteLabel{}, id).Error
}

// ExistsByDomain 检查域名是否已被使用
func (r *WhiteLabelRepository) ExistsByDomain(ctx context.Context, domain string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WhiteLabel{}).
		Where("domain = ? OR custom_domain = ?", domain, domain).
		Count(&count).Error
	return count > 0, err
}
