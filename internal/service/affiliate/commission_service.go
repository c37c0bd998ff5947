// Package affiliate 推荐与佣金服务
package affiliate

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"

	"github.com/escortdollars/affiliate-backend/internal/common/config"
	"github.com/escortdollars/affiliate-backend/internal/common/errors"
	"github.com/escortdollars/affiliate-backend/internal/common/metrics"
	"github.com/escortdollars/affiliate-backend/internal/common/utils"
	"github.com/escortdollars/affiliate-backend/internal/models"
	"github.com/escortdollars/affiliate-backend/internal/repository"
)

// DefaultSignupBonus 注册奖励金额（欧元）
const DefaultSignupBonus = 5.0

// CommissionNotifier 佣金事件通知钩子（尽力而为）
type CommissionNotifier interface {
	NotifyCommissionEarned(ctx context.Context, commission *models.Commission)
	NotifyCommissionApproved(ctx context.Context, commission *models.Commission)
}

// CommissionMirror 佣金镜像同步钩子（尽力而为）
type CommissionMirror interface {
	SyncCommission(ctx context.Context, commission *models.Commission)
}

// CommissionService 佣金服务
type CommissionService struct {
	db             *gorm.DB
	commissionRepo *repository.CommissionRepository
	rateRepo       *repository.CommissionRateRepository
	referralRepo   *repository.ReferralRepository
	userRepo       *repository.UserRepository
	cfg            *config.AffiliateConfig
	notifier       CommissionNotifier
	mirror         CommissionMirror
}

// NewCommissionService 创建佣金服务
func NewCommissionService(
	db *gorm.DB,
	commissionRepo *repository.CommissionRepository,
	rateRepo *repository.CommissionRateRepository,
	referralRepo *repository.ReferralRepository,
	userRepo *repository.UserRepository,
	cfg *config.AffiliateConfig,
) *CommissionService {
	return &CommissionService{
		db:             db,
		commissionRepo: commissionRepo,
		rateRepo:       rateRepo,
		referralRepo:   referralRepo,
		userRepo:       userRepo,
		cfg:            cfg,
	}
}

// SetNotifier 设置通知钩子
func (s *CommissionService) SetNotifier(notifier CommissionNotifier) {
	s.notifier = notifier
}

// SetMirror 设置镜像同步钩子
func (s *CommissionService) SetMirror(mirror CommissionMirror) {
	s.mirror = mirror
}

// ResolveRate 解析推荐人对目标类型的佣金比例
// 个性化配置优先，否则使用默认比例表
func (s *CommissionService) ResolveRate(ctx context.Context, referrerID int64, targetType string) (float64, error) {
	rate, err := s.rateRepo.GetByAmbassadorAndTarget(ctx, referrerID, targetType)
	if err == nil {
		return rate.Rate, nil
	}
	if err != gorm.ErrRecordNotFound {
		return 0, errors.ErrDatabaseError.WithError(err)
	}

	if targetType == models.RateTargetAmbassador {
		return s.cfg.AmbassadorRate, nil
	}
	return s.cfg.EscortRate, nil
}

// rateTargetFor 被推荐用户类型对应的比例目标类型
func rateTargetFor(userType string) string {
	if userType == models.UserTypeAmbassador {
		return models.RateTargetAmbassador
	}
	return models.RateTargetEscort
}

// CreateFromTransaction 根据交易生成佣金
// 佣金写入与推荐人余额累加在同一事务内完成
func (s *CommissionService) CreateFromTransaction(ctx context.Context, referredUserID int64, transactionID *int64, grossAmount float64, commissionType string) (*models.Commission, error) {
	if grossAmount <= 0 {
		return nil, errors.ErrInvalidParams
	}

	referral, err := s.referralRepo.GetByReferredID(ctx, referredUserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrNoReferralForUser
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if transactionID != nil {
		exists, err := s.commissionRepo.ExistsByTransactionID(ctx, *transactionID)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		if exists {
			return nil, errors.ErrTransactionExists
		}
	}

	referred, err := s.userRepo.GetByID(ctx, referredUserID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	rate, err := s.ResolveRate(ctx, referral.ReferrerID, rateTargetFor(referred.UserType))
	if err != nil {
		return nil, err
	}
	amount := utils.Round2(grossAmount * rate / 100)

	commission := &models.Commission{
		UserID:         referral.ReferrerID,
		ReferralID:     &referral.ID,
		TransactionID:  transactionID,
		CommissionType: commissionType,
		GrossAmount:    grossAmount,
		Rate:           rate,
		Amount:         amount,
		Status:         models.CommissionStatusPending,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(commission).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", referral.ReferrerID).
			Updates(map[string]interface{}{
				"pending_commission":      gorm.Expr("pending_commission + ?", amount),
				"total_commission_earned": gorm.Expr("total_commission_earned + ?", amount),
			}).Error
	})
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if s.notifier != nil {
		s.notifier.NotifyCommissionEarned(ctx, commission)
	}
	if s.mirror != nil {
		s.mirror.SyncCommission(ctx, commission)
	}
	metrics.GetMetrics().RecordCommission(commissionType, commission.Status)

	return commission, nil
}

// CreateSignupBonus 创建注册奖励佣金
// 在注册事务内调用，复用同一个事务句柄
func (s *CommissionService) CreateSignupBonus(ctx context.Context, tx *gorm.DB, referral *models.Referral) error {
	commission := &models.Commission{
		UserID:         referral.ReferrerID,
		ReferralID:     &referral.ID,
		CommissionType: models.CommissionTypeSignup,
		GrossAmount:    0,
		Rate:           0,
		Amount:         DefaultSignupBonus,
		Status:         models.CommissionStatusPending,
	}
	if err := tx.WithContext(ctx).Create(commission).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", referral.ReferrerID).
		Updates(map[string]interface{}{
			"pending_commission":      gorm.Expr("pending_commission + ?", commission.Amount),
			"total_commission_earned": gorm.Expr("total_commission_earned + ?", commission.Amount),
		}).Error
}

// Approve 审核通过佣金（pending → approved）
func (s *CommissionService) Approve(ctx context.Context, id int64) (*models.Commission, error) {
	var commission *models.Commission
	err := s.db.Transaction(func(tx *gorm.DB) error {
		c, err := s.commissionRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrCommissionNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		if c.Status != models.CommissionStatusPending {
			return errors.ErrCommissionNotPending
		}

		now := time.Now()
		if err := tx.Model(&models.Commission{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":      models.CommissionStatusApproved,
				"approved_at": now,
			}).Error; err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		c.Status = models.CommissionStatusApproved
		c.ApprovedAt = &now
		commission = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyCommissionApproved(ctx, commission)
	}
	if s.mirror != nil {
		s.mirror.SyncCommission(ctx, commission)
	}

	return commission, nil
}

// MarkPaid 标记佣金已支付（approved → paid）
// 从推荐人待结余额中扣减
func (s *CommissionService) MarkPaid(ctx context.Context, id int64) (*models.Commission, error) {
	var commission *models.Commission
	err := s.db.Transaction(func(tx *gorm.DB) error {
		c, err := s.commissionRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrCommissionNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		if c.Status != models.CommissionStatusApproved {
			return errors.ErrCommissionNotApproved
		}

		now := time.Now()
		if err := tx.Model(&models.Commission{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":  models.CommissionStatusPaid,
				"paid_at": now,
			}).Error; err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", c.UserID).
			Update("pending_commission", gorm.Expr("pending_commission - ?", c.Amount)).Error; err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		c.Status = models.CommissionStatusPaid
		c.PaidAt = &now
		commission = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.mirror != nil {
		s.mirror.SyncCommission(ctx, commission)
	}

	return commission, nil
}

// Reject 拒绝佣金（pending|approved → rejected）
// 回冲推荐人的待结余额与累计收益
func (s *CommissionService) Reject(ctx context.Context, id int64) (*models.Commission, error) {
	var commission *models.Commission
	err := s.db.Transaction(func(tx *gorm.DB) error {
		c, err := s.commissionRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrCommissionNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		if c.Status != models.CommissionStatusPending && c.Status != models.CommissionStatusApproved {
			return errors.ErrCommissionFinalized
		}

		now := time.Now()
		if err := tx.Model(&models.Commission{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":      models.CommissionStatusRejected,
				"rejected_at": now,
			}).Error; err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", c.UserID).
			Updates(map[string]interface{}{
				"pending_commission":      gorm.Expr("pending_commission - ?", c.Amount),
				"total_commission_earned": gorm.Expr("total_commission_earned - ?", c.Amount),
			}).Error; err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		c.Status = models.CommissionStatusRejected
		c.RejectedAt = &now
		commission = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.mirror != nil {
		s.mirror.SyncCommission(ctx, commission)
	}

	return commission, nil
}

// GetByID 获取佣金记录
func (s *CommissionService) GetByID(ctx context.Context, id int64) (*models.Commission, error) {
	commission, err := s.commissionRepo.GetByIDWithRelations(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCommissionNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return commission, nil
}

// ListByUser 获取用户的佣金列表
func (s *CommissionService) ListByUser(ctx context.Context, userID int64, offset, limit int, filters map[string]interface{}) ([]*models.Commission, int64, error) {
	return s.commissionRepo.ListByUserID(ctx, userID, offset, limit, filters)
}

// List 获取佣金列表（管理端）
func (s *CommissionService) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Commission, int64, error) {
	return s.commissionRepo.List(ctx, offset, limit, filters)
}

// GetStats 获取用户佣金统计
func (s *CommissionService) GetStats(ctx context.Context, userID int64) (*models.CommissionStats, error) {
	return s.commissionRepo.GetStatsByUserID(ctx, userID)
}

// ExportCSV 导出用户的全部佣金记录
func (s *CommissionService) ExportCSV(ctx context.Context, userID int64, w io.Writer) error {
	commissions, err := s.commissionRepo.ListAllByUserID(ctx, userID)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	writer := csv.NewWriter(w)
	header := []string{"id", "type", "gross_amount", "rate", "amount", "status", "created_at", "paid_at"}
	if err := writer.Write(header); err != nil {
		return errors.ErrInternalError.WithError(err)
	}

	for _, c := range commissions {
		paidAt := ""
		if c.PaidAt != nil {
			paidAt = c.PaidAt.Format(time.RFC3339)
		}
		record := []string{
			fmt.Sprintf("%d", c.ID),
			c.CommissionType,
			utils.FormatMoney(c.GrossAmount),
			fmt.Sprintf("%.2f", c.Rate),
			utils.FormatMoney(c.Amount),
			c.Status,
			c.CreatedAt.Format(time.RFC3339),
			paidAt,
		}
		if err := writer.Write(record); err != nil {
			return errors.ErrInternalError.WithError(err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.ErrInternalError.WithError(err)
	}
	return nil
}
