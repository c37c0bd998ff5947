// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/escortdollars/affiliate-backend/internal/models"
)

// VerificationCodeRepository 验证码仓储
type VerificationCodeRepository struct {
	db *gorm.DB
}

// NewVerificationCodeRepository 创建验证码仓储
func NewVerificationCodeRepository(db *gorm.DB) *VerificationCodeRepository {
	return &VerificationCodeRepository{db: db}
}

// Create 创建验证码
func (r *VerificationCodeRepository) Create(ctx context.Context, code *models.VerificationCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

// GetByCode 根据验证码获取记录
func (r *VerificationCodeRepository) GetByCode(ctx context.Context, code, purpose string) (*models.VerificationCode, error) {
	var vc models.VerificationCode
	err := r.db.WithContext(ctx).
		Where("code = ? AND purpose = ?", code, purpose).
		First(&vc).Error
	if err != nil {
		return nil, err
	}
	return &vc, nil
}

// MarkUsed 标记验证码已使用
func (r *VerificationCodeRepository) MarkUsed(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&models.VerificationCode{}).
		Where("id = ?", id).
		Update("used_at", time.Now()).Error
}

// DeleteExpired 清理已过期的验证码
func (r *VerificationCodeRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&models.VerificationCode{})
	return result.RowsAffected, result.Error
}
