// Package admin 管理端服务
package admin

import (
	"context"

	"gorm.io/gorm"

	"github.com/escortdollars/affiliate-backend/internal/common/errors"
	"github.com/escortdollars/affiliate-backend/internal/common/utils"
	"github.com/escortdollars/affiliate-backend/internal/models"
	"github.com/escortdollars/affiliate-backend/internal/repository"
)

// AdminService 管理端聚合服务
type AdminService struct {
	db           *gorm.DB
	auditLogRepo *repository.AuditLogRepository
}

// NewAdminService 创建管理端聚合服务
func NewAdminService(db *gorm.DB, auditLogRepo *repository.AuditLogRepository) *AdminService {
	return &AdminService{
		db:           db,
		auditLogRepo: auditLogRepo,
	}
}

// Dashboard 平台运营总览
type Dashboard struct {
	TotalUsers        int64   `json:"total_users"`
	TotalAmbassadors  int64   `json:"total_ambassadors"`
	TotalReferrals    int64   `json:"total_referrals"`
	TotalWhiteLabels  int64   `json:"total_white_labels"`
	PendingCommission float64 `json:"pending_commission"`
	PaidCommission    float64 `json:"paid_commission"`
	PendingPayouts    int64   `json:"pending_payouts"`
	CompletedPayouts  float64 `json:"completed_payouts"`
}

// GetDashboard 获取平台运营总览
func (s *AdminService) GetDashboard(ctx context.Context) (*Dashboard, error) {
	db := s.db.WithContext(ctx)
	dashboard := &Dashboard{}

	if err := db.Model(&models.User{}).Count(&dashboard.TotalUsers).Error; err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if err := db.Model(&models.User{}).
		Where("user_type = ?", models.UserTypeAmbassador).
		Count(&dashboard.TotalAmbassadors).Error; err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if err := db.Model(&models.Referral{}).Count(&dashboard.TotalReferrals).Error; err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if err := db.Model(&models.WhiteLabel{}).Count(&dashboard.TotalWhiteLabels).Error; err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	var pending, paid float64
	if err := db.Model(&models.Commission{}).
		Where("status = ?", models.CommissionStatusPending).
		Select("COALESCE(SUM(amount), 0)").Scan(&pending).Error; err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if err := db.Model(&models.Commission{}).
		Where("status = ?", models.CommissionStatusPaid).
		Select("COALESCE(SUM(amount), 0)").Scan(&paid).Error; err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	dashboard.PendingCommission = utils.Round2(pending)
	dashboard.PaidCommission = utils.Round2(paid)

	if err := db.Model(&models.Payout{}).
		Where("status = ?", models.PayoutStatusPending).
		Count(&dashboard.PendingPayouts).Error; err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	var completed float64
	if err := db.Model(&models.Payout{}).
		Where("status = ?", models.PayoutStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").Scan(&completed).Error; err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	dashboard.CompletedPayouts = utils.Round2(completed)

	return dashboard, nil
}

// ListAuditLogs 获取审计日志列表
func (s *AdminService) ListAuditLogs(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.AuditLog, int64, error) {
	logs, total, err := s.auditLogRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return logs, total, nil
}
