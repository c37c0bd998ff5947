// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/escortdollars/affiliate-backend/internal/models"
)

// TransactionRepository 交易仓储
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository 创建交易仓储
func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create 创建交易记录
func (r *TransactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

// GetByID 根据 ID 获取交易记录
func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.WithContext(ctx).First(&transaction, id).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// GetByPaymentID 根据网关交易号获取交易记录
func (r *TransactionRepository) GetByPaymentID(ctx context.Context, paymentID string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&transaction).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// ExistsByPaymentID 检查网关交易号是否已存在
func (r *TransactionRepository) ExistsByPaymentID(ctx context.Context, paymentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("payment_id = ?", paymentID).
		Count(&count).Error
	return count > 0, err
}

// UpdateStatus 更新交易状态
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	fields := map[string]interface{}{"status": status}
	if status == models.TransactionStatusCompleted {
		fields["completed_at"] = time.Now()
	}
	return r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// ListByUserID 获取用户的交易列表
func (r *TransactionRepository) ListByUserID(ctx context.Context, userID int64, offset, limit int) ([]*models.Transaction, int64, error) {
	var transactions []*models.Transaction
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&transactions).Error; err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

// CountByUserIDSince 统计用户指定时间之后完成的交易数
func (r *TransactionRepository) CountByUserIDSince(ctx context.Context, userID int64, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("user_id = ? AND status = ? AND created_at >= ?", userID, models.TransactionStatusCompleted, since).
		Count(&count).Error
	return count, err
}
