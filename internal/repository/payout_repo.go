// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/escortdollars/affiliate-backend/internal/models"
)

// PayoutRepository 结算单仓储
type PayoutRepository struct {
	db *gorm.DB
}

// NewPayoutRepository 创建结算单仓储
func NewPayoutRepository(db *gorm.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

// Create 创建结算单（含关联佣金）
func (r *PayoutRepository) Create(ctx context.Context, payout *models.Payout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

// GetByID 根据 ID 获取结算单
func (r *PayoutRepository) GetByID(ctx context.Context, id int64) (*models.Payout, error) {
	var payout models.Payout
	err := r.db.WithContext(ctx).First(&payout, id).Error
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

// GetByIDWithCommissions 根据 ID 获取结算单（包含佣金）
func (r *PayoutRepository) GetByIDWithCommissions(ctx context.Context, id int64) (*models.Payout, error) {
	var payout models.Payout
	err := r.db.WithContext(ctx).
		Preload("Commissions").
		First(&payout, id).Error
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

// GetByIDForUpdate 根据 ID 获取结算单并加行锁
// 必须在事务中调用
func (r *PayoutRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*models.Payout, error) {
	var payout models.Payout
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&payout, id).Error
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

// GetByBatchNo 根据批次号获取结算单
func (r *PayoutRepository) GetByBatchNo(ctx context.Context, batchNo string) (*models.Payout, error) {
	var payout models.Payout
	err := r.db.WithContext(ctx).Where("batch_no = ?", batchNo).First(&payout).Error
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

// GetByWithdrawalID 根据网关提现单号获取结算单
func (r *PayoutRepository) GetByWithdrawalID(ctx context.Context, withdrawalID string) (*models.Payout, error) {
	var payout models.Payout
	err := r.db.WithContext(ctx).Where("withdrawal_id = ?", withdrawalID).First(&payout).Error
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

// ListByAmbassadorID 获取大使的结算单列表
func (r *PayoutRepository) ListByAmbassadorID(ctx context.Context, ambassadorID int64, offset, limit int) ([]*models.Payout, int64, error) {
	var payouts []*models.Payout
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Payout{}).Where("ambassador_id = ?", ambassadorID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&payouts).Error; err != nil {
		return nil, 0, err
	}

	return payouts, total, nil
}

// List 获取结算单列表（管理端）
func (r *PayoutRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Payout, int64, error) {
	var payouts []*models.Payout
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Payout{})

	if ambassadorID, ok := filters["ambassador_id"].(int64); ok && ambassadorID > 0 {
		query = query.Where("ambassador_id = ?", ambassadorID)
	}
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if method, ok := filters["method"].(string); ok && method != "" {
		query = query.Where("method = ?", method)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Ambassador").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&payouts).Error; err != nil {
		return nil, 0, err
	}

	return payouts, total, nil
}

// ListByStatus 获取指定状态的结算单
func (r *PayoutRepository) ListByStatus(ctx context.Context, status string) ([]*models.Payout, error) {
	var payouts []*models.Payout
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("id").
		Find(&payouts).Error
	return payouts, err
}

// CountLiveByCommissionIDs 统计佣金中已加入未终结结算单的数量
// 未终结指 pending/processing/completed，failed 的结算单不占用佣金
func (r *PayoutRepository) CountLiveByCommissionIDs(ctx context.Context, commissionIDs []int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("payout_commissions").
		Joins("JOIN payouts ON payouts.id = payout_commissions.payout_id").
		Where("payout_commissions.commission_id IN ? AND payouts.status <> ?", commissionIDs, models.PayoutStatusFailed).
		Count(&count).Error
	return count, err
}
