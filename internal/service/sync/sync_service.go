// Package sync 将核心数据尽力镜像到 Supabase
package sync

import (
	"context"

	"go.uber.org/zap"

	"github.com/escortdollars/affiliate-backend/internal/common/logger"
	"github.com/escortdollars/affiliate-backend/internal/common/utils"
	"github.com/escortdollars/affiliate-backend/internal/models"
	"github.com/escortdollars/affiliate-backend/pkg/supabase"
)

// 镜像表名
const (
	TableCommissions  = "commissions"
	TableTransactions = "transactions"
	TableAmbassadors  = "ambassador_stats"
	TableWhiteLabels  = "white_labels"
)

// SyncService Supabase 镜像同步服务
// 镜像是只读副本，任何失败只记日志，绝不影响主流程
type SyncService struct {
	mirror supabase.Mirror
}

// NewSyncService 创建镜像同步服务，mirror 为 nil 时同步全部跳过
func NewSyncService(mirror supabase.Mirror) *SyncService {
	return &SyncService{mirror: mirror}
}

// Enabled 镜像同步是否启用
func (s *SyncService) Enabled() bool {
	return s.mirror != nil
}

// SyncCommission 镜像佣金记录
func (s *SyncService) SyncCommission(ctx context.Context, commission *models.Commission) {
	if s.mirror == nil {
		return
	}

	row := map[string]interface{}{
		"id":              commission.ID,
		"user_id":         commission.UserID,
		"commission_type": commission.CommissionType,
		"gross_amount":    commission.GrossAmount,
		"rate":            commission.Rate,
		"amount":          commission.Amount,
		"status":          commission.Status,
		"created_at":      commission.CreatedAt,
	}
	if err := s.mirror.Upsert(ctx, TableCommissions, "id", row); err != nil {
		logger.Warn("佣金镜像同步失败",
			zap.Int64("commission_id", commission.ID),
			zap.Error(err))
	}
}

// SyncTransaction 镜像支付交易记录
func (s *SyncService) SyncTransaction(ctx context.Context, transaction *models.Transaction) {
	if s.mirror == nil {
		return
	}

	row := map[string]interface{}{
		"id":         transaction.ID,
		"user_id":    transaction.UserID,
		"payment_id": transaction.PaymentID,
		"gateway":    transaction.Gateway,
		"amount":     transaction.Amount,
		"currency":   transaction.Currency,
		"status":     transaction.Status,
		"created_at": transaction.CreatedAt,
	}
	if transaction.CompletedAt != nil {
		row["completed_at"] = *transaction.CompletedAt
	}
	if err := s.mirror.Upsert(ctx, TableTransactions, "id", row); err != nil {
		logger.Warn("交易镜像同步失败",
			zap.Int64("transaction_id", transaction.ID),
			zap.Error(err))
	}
}

// SyncAmbassadorStats 镜像大使汇总数据
func (s *SyncService) SyncAmbassadorStats(ctx context.Context, user *models.User) {
	if s.mirror == nil {
		return
	}

	row := map[string]interface{}{
		"user_id":            user.ID,
		"username":           user.Username,
		"referral_code":      user.ReferralCode,
		"total_earned":       utils.Round2(user.TotalCommissionEarned),
		"pending_commission": utils.Round2(user.PendingCommission),
		"is_active":          user.IsActive,
	}
	if err := s.mirror.Upsert(ctx, TableAmbassadors, "user_id", row); err != nil {
		logger.Warn("大使数据镜像同步失败",
			zap.Int64("user_id", user.ID),
			zap.Error(err))
	}
}

// SyncWhiteLabel 镜像白标站点
func (s *SyncService) SyncWhiteLabel(ctx context.Context, site *models.WhiteLabel) {
	if s.mirror == nil {
		return
	}

	row := map[string]interface{}{
		"id":            site.ID,
		"ambassador_id": site.AmbassadorID,
		"name":          site.Name,
		"domain":        site.Domain,
		"dns_verified":  site.DNSVerified,
		"is_active":     site.IsActive,
	}
	if site.CustomDomain != nil {
		row["custom_domain"] = *site.CustomDomain
	}
	if err := s.mirror.Upsert(ctx, TableWhiteLabels, "id", row); err != nil {
		logger.Warn("白标站点镜像同步失败",
			zap.Int64("white_label_id", site.ID),
			zap.Error(err))
	}
}
