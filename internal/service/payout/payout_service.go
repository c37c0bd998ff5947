// Package payout 佣金结算服务
package payout

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/escortdollars/affiliate-backend/internal/common/config"
	"github.com/escortdollars/affiliate-backend/internal/common/errors"
	"github.com/escortdollars/affiliate-backend/internal/common/logger"
	"github.com/escortdollars/affiliate-backend/internal/common/metrics"
	"github.com/escortdollars/affiliate-backend/internal/common/utils"
	"github.com/escortdollars/affiliate-backend/internal/models"
	"github.com/escortdollars/affiliate-backend/internal/repository"
	"github.com/escortdollars/affiliate-backend/pkg/coinpayments"
)

// BatchNoPrefix 结算单批次号前缀
const BatchNoPrefix = "P"

// withdrawalCurrencies 结算方式对应的 CoinPayments 币种
var withdrawalCurrencies = map[string]string{
	models.PayoutMethodBTC:  "BTC",
	models.PayoutMethodETH:  "ETH",
	models.PayoutMethodUSDT: "USDT.TRC20",
}

// PayoutNotifier 结算事件通知钩子（尽力而为）
type PayoutNotifier interface {
	NotifyPayoutCompleted(ctx context.Context, payout *models.Payout)
	NotifyPayoutFailed(ctx context.Context, payout *models.Payout)
}

// PayoutService 结算服务
type PayoutService struct {
	db             *gorm.DB
	payoutRepo     *repository.PayoutRepository
	commissionRepo *repository.CommissionRepository
	userRepo       *repository.UserRepository
	gateway        coinpayments.Gateway
	cfg            *config.PayoutConfig
	notifier       PayoutNotifier
}

// NewPayoutService 创建结算服务
func NewPayoutService(
	db *gorm.DB,
	payoutRepo *repository.PayoutRepository,
	commissionRepo *repository.CommissionRepository,
	userRepo *repository.UserRepository,
	gateway coinpayments.Gateway,
	cfg *config.PayoutConfig,
) *PayoutService {
	return &PayoutService{
		db:             db,
		payoutRepo:     payoutRepo,
		commissionRepo: commissionRepo,
		userRepo:       userRepo,
		gateway:        gateway,
		cfg:            cfg,
	}
}

// SetNotifier 设置通知钩子
func (s *PayoutService) SetNotifier(notifier PayoutNotifier) {
	s.notifier = notifier
}

// methodSupported 结算方式是否可用
func (s *PayoutService) methodSupported(method string) bool {
	if _, ok := withdrawalCurrencies[method]; !ok {
		return false
	}
	if len(s.cfg.SupportedMethods) == 0 {
		return true
	}
	return utils.Contains(s.cfg.SupportedMethods, method)
}

// CreateFromCommissions 将已审核佣金打包为结算单
// 佣金必须属于同一大使、状态为 approved、且未加入其他未终结结算单
func (s *PayoutService) CreateFromCommissions(ctx context.Context, ambassadorID int64, commissionIDs []int64, method, walletAddress string) (*models.Payout, error) {
	if !s.methodSupported(method) {
		return nil, errors.ErrPayoutMethodInvalid
	}
	if len(commissionIDs) == 0 {
		return nil, errors.ErrPayoutEmptySelection
	}

	commissions, err := s.commissionRepo.GetByIDs(ctx, commissionIDs)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if len(commissions) != len(commissionIDs) {
		return nil, errors.ErrCommissionNotFound
	}

	total := 0.0
	for _, c := range commissions {
		if c.UserID != ambassadorID {
			return nil, errors.ErrCommissionNotOwned
		}
		if c.Status != models.CommissionStatusApproved {
			return nil, errors.ErrCommissionNotApproved
		}
		total += c.Amount
	}
	total = utils.Round2(total)

	live, err := s.payoutRepo.CountLiveByCommissionIDs(ctx, commissionIDs)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if live > 0 {
		return nil, errors.ErrCommissionInPayout
	}

	if total < s.cfg.MinAmount {
		return nil, errors.ErrPayoutBelowMinimum
	}

	if walletAddress == "" {
		profile, err := s.userRepo.GetProfileByUserID(ctx, ambassadorID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, errors.ErrWalletNotSet
			}
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		wallet := profile.WalletFor(method)
		if wallet == nil || *wallet == "" {
			return nil, errors.ErrWalletNotSet
		}
		walletAddress = *wallet
	}

	payout := &models.Payout{
		BatchNo:       utils.GenerateBatchNo(BatchNoPrefix),
		AmbassadorID:  ambassadorID,
		Amount:        total,
		Method:        method,
		WalletAddress: walletAddress,
		Status:        models.PayoutStatusPending,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payout).Error; err != nil {
			return err
		}
		for _, c := range commissions {
			if err := tx.Exec(
				"INSERT INTO payout_commissions (payout_id, commission_id) VALUES (?, ?)",
				payout.ID, c.ID,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	metrics.GetMetrics().RecordPayout(method, payout.Status)

	return payout, nil
}

// MarkProcessing 开始处理结算单（pending → processing）
// 开启自动提现时同步向网关发起提现请求
func (s *PayoutService) MarkProcessing(ctx context.Context, id int64) (*models.Payout, error) {
	var payout *models.Payout
	err := s.db.Transaction(func(tx *gorm.DB) error {
		p, err := s.payoutRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrPayoutNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		if p.Status != models.PayoutStatusPending {
			return errors.ErrPayoutStatusError
		}

		if err := tx.Model(&models.Payout{}).
			Where("id = ?", id).
			Update("status", models.PayoutStatusProcessing).Error; err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		p.Status = models.PayoutStatusProcessing
		payout = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cfg.AutoWithdraw && s.gateway != nil {
		if err := s.requestWithdrawal(ctx, payout); err != nil {
			logger.Error("提现请求失败",
				zap.Int64("payout_id", payout.ID),
				zap.String("batch_no", payout.BatchNo),
				zap.Error(err))
		}
	}

	return payout, nil
}

// requestWithdrawal 向 CoinPayments 发起提现并记录提现单号
func (s *PayoutService) requestWithdrawal(ctx context.Context, payout *models.Payout) error {
	result, err := s.gateway.CreateWithdrawal(ctx, &coinpayments.CreateWithdrawalRequest{
		Amount:   payout.Amount,
		Currency: withdrawalCurrencies[payout.Method],
		Address:  payout.WalletAddress,
		Note:     fmt.Sprintf("payout %s", payout.BatchNo),
	})
	if err != nil {
		return errors.ErrWithdrawalFailed.WithError(err)
	}

	if err := s.db.WithContext(ctx).Model(&models.Payout{}).
		Where("id = ?", payout.ID).
		Update("withdrawal_id", result.ID).Error; err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	payout.WithdrawalID = &result.ID
	return nil
}

// MarkCompleted 完成结算单（processing → completed）
// 级联将结算单内的佣金标记为已支付并扣减大使待结余额
func (s *PayoutService) MarkCompleted(ctx context.Context, id int64) (*models.Payout, error) {
	var payout *models.Payout
	err := s.db.Transaction(func(tx *gorm.DB) error {
		p, err := s.payoutRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrPayoutNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		if p.Status != models.PayoutStatusProcessing {
			return errors.ErrPayoutStatusError
		}

		now := time.Now()
		if err := tx.Model(&models.Payout{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":       models.PayoutStatusCompleted,
				"completed_at": now,
			}).Error; err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		if err := tx.Model(&models.Commission{}).
			Where("id IN (SELECT commission_id FROM payout_commissions WHERE payout_id = ?)", id).
			Where("status = ?", models.CommissionStatusApproved).
			Updates(map[string]interface{}{
				"status":  models.CommissionStatusPaid,
				"paid_at": now,
			}).Error; err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", p.AmbassadorID).
			Update("pending_commission", gorm.Expr("pending_commission - ?", p.Amount)).Error; err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		p.Status = models.PayoutStatusCompleted
		p.CompletedAt = &now
		payout = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyPayoutCompleted(ctx, payout)
	}
	metrics.GetMetrics().RecordPayout(payout.Method, payout.Status)

	return payout, nil
}

// MarkFailed 标记结算单失败（pending|processing → failed）
// 佣金保持 approved，可重新加入后续结算单
func (s *PayoutService) MarkFailed(ctx context.Context, id int64, reason string) (*models.Payout, error) {
	var payout *models.Payout
	err := s.db.Transaction(func(tx *gorm.DB) error {
		p, err := s.payoutRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrPayoutNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		if p.Status != models.PayoutStatusPending && p.Status != models.PayoutStatusProcessing {
			return errors.ErrPayoutStatusError
		}

		if err := tx.Model(&models.Payout{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":      models.PayoutStatusFailed,
				"fail_reason": reason,
			}).Error; err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		p.Status = models.PayoutStatusFailed
		p.FailReason = &reason
		payout = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyPayoutFailed(ctx, payout)
	}

	return payout, nil
}

// CompleteByWithdrawalID 根据网关提现单号完成结算单
func (s *PayoutService) CompleteByWithdrawalID(ctx context.Context, withdrawalID string) (*models.Payout, error) {
	payout, err := s.payoutRepo.GetByWithdrawalID(ctx, withdrawalID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPayoutNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.MarkCompleted(ctx, payout.ID)
}

// FailByWithdrawalID 根据网关提现单号标记结算单失败
func (s *PayoutService) FailByWithdrawalID(ctx context.Context, withdrawalID, reason string) (*models.Payout, error) {
	payout, err := s.payoutRepo.GetByWithdrawalID(ctx, withdrawalID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPayoutNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.MarkFailed(ctx, payout.ID, reason)
}

// PollProcessing 轮询处理中的结算单，按网关提现状态收尾
// 供调度器周期调用，单笔失败不中断整轮
func (s *PayoutService) PollProcessing(ctx context.Context) error {
	if s.gateway == nil {
		return nil
	}

	payouts, err := s.payoutRepo.ListByStatus(ctx, models.PayoutStatusProcessing)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	for _, p := range payouts {
		if p.WithdrawalID == nil {
			continue
		}

		info, err := s.gateway.GetWithdrawalInfo(ctx, *p.WithdrawalID)
		if err != nil {
			logger.Error("查询提现状态失败",
				zap.Int64("payout_id", p.ID),
				zap.String("withdrawal_id", *p.WithdrawalID),
				zap.Error(err))
			continue
		}

		switch {
		case info.Status == coinpayments.WithdrawalStatusCompleted:
			if _, err := s.MarkCompleted(ctx, p.ID); err != nil {
				logger.Error("结算单完成失败", zap.Int64("payout_id", p.ID), zap.Error(err))
			}
		case info.Status == coinpayments.WithdrawalStatusFailed:
			if _, err := s.MarkFailed(ctx, p.ID, info.StatusText); err != nil {
				logger.Error("结算单失败标记失败", zap.Int64("payout_id", p.ID), zap.Error(err))
			}
		}
	}

	return nil
}

// GetByID 获取结算单（含佣金）
func (s *PayoutService) GetByID(ctx context.Context, id int64) (*models.Payout, error) {
	payout, err := s.payoutRepo.GetByIDWithCommissions(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPayoutNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return payout, nil
}

// ListByAmbassador 获取大使的结算单列表
func (s *PayoutService) ListByAmbassador(ctx context.Context, ambassadorID int64, offset, limit int) ([]*models.Payout, int64, error) {
	return s.payoutRepo.ListByAmbassadorID(ctx, ambassadorID, offset, limit)
}

// List 获取结算单列表（管理端）
func (s *PayoutService) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Payout, int64, error) {
	return s.payoutRepo.List(ctx, offset, limit, filters)
}
