// Package notification 站内通知与 Telegram 推送
package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/escortdollars/affiliate-backend/internal/common/crypto"
	"github.com/escortdollars/affiliate-backend/internal/common/errors"
	"github.com/escortdollars/affiliate-backend/internal/common/logger"
	"github.com/escortdollars/affiliate-backend/internal/common/metrics"
	"github.com/escortdollars/affiliate-backend/internal/common/utils"
	"github.com/escortdollars/affiliate-backend/internal/models"
	"github.com/escortdollars/affiliate-backend/internal/repository"
	"github.com/escortdollars/affiliate-backend/pkg/telegram"
)

// NotificationService 通知服务
// 先落站内通知，再尽力推送 Telegram，推送失败只记日志
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	userRepo         *repository.UserRepository
	notifier         telegram.Notifier
}

// NewNotificationService 创建通知服务
func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	userRepo *repository.UserRepository,
	notifier telegram.Notifier,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		notifier:         notifier,
	}
}

// Notify 发送通知（站内 + Telegram）
func (s *NotificationService) Notify(ctx context.Context, userID int64, notificationType, title, message, templateKey string, params map[string]string) {
	notification := &models.Notification{
		UserID:           userID,
		Title:            title,
		Message:          message,
		NotificationType: notificationType,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		logger.Error("写入站内通知失败",
			zap.Int64("user_id", userID),
			zap.String("title", title),
			zap.Error(err))
	}

	s.pushTelegram(ctx, userID, templateKey, params)
}

// pushTelegram 按用户偏好语言推送 Telegram 消息
func (s *NotificationService) pushTelegram(ctx context.Context, userID int64, templateKey string, params map[string]string) {
	if s.notifier == nil || templateKey == "" {
		return
	}

	profile, err := s.userRepo.GetProfileByUserID(ctx, userID)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("读取用户资料失败", zap.Int64("user_id", userID), zap.Error(err))
		}
		return
	}
	if profile.TelegramChatID == nil {
		return
	}

	text := telegram.Render(profile.PreferredLanguage, templateKey, params)
	if text == "" {
		return
	}

	if err := s.notifier.SendMessage(ctx, *profile.TelegramChatID, text); err != nil {
		logger.Error("Telegram 推送失败",
			zap.Int64("user_id", userID),
			zap.Int64("chat_id", *profile.TelegramChatID),
			zap.String("template", templateKey),
			zap.Error(err))
		metrics.GetMetrics().RecordTelegramMessage("failed")
		return
	}
	metrics.GetMetrics().RecordTelegramMessage("sent")
}

// SendWelcome 发送激活欢迎通知
func (s *NotificationService) SendWelcome(ctx context.Context, userID int64) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Error("读取用户失败", zap.Int64("user_id", userID), zap.Error(err))
		return
	}

	s.Notify(ctx, userID, models.NotificationTypeSuccess,
		"Account activated",
		fmt.Sprintf("Welcome %s! Your affiliate account is now active.", user.Username),
		telegram.TemplateWelcome,
		map[string]string{
			"username":      user.Username,
			"referral_code": user.ReferralCode,
		})
}

// NotifyCommissionEarned 佣金入账通知
func (s *NotificationService) NotifyCommissionEarned(ctx context.Context, commission *models.Commission) {
	amount := utils.FormatMoney(commission.Amount)
	s.Notify(ctx, commission.UserID, models.NotificationTypeInfo,
		"New commission",
		fmt.Sprintf("You earned a commission of €%s (pending review).", amount),
		telegram.TemplateCommissionEarned,
		map[string]string{"amount": amount})
}

// NotifyCommissionApproved 佣金审核通过通知
func (s *NotificationService) NotifyCommissionApproved(ctx context.Context, commission *models.Commission) {
	amount := utils.FormatMoney(commission.Amount)
	s.Notify(ctx, commission.UserID, models.NotificationTypeSuccess,
		"Commission approved",
		fmt.Sprintf("Your commission of €%s is now available for payout.", amount),
		telegram.TemplateCommissionApproved,
		map[string]string{"amount": amount})
}

// NotifyReferralCreated 新推荐通知
func (s *NotificationService) NotifyReferralCreated(ctx context.Context, referral *models.Referral) {
	s.Notify(ctx, referral.ReferrerID, models.NotificationTypeInfo,
		"New referral",
		"A new user signed up with your referral code.",
		telegram.TemplateReferralCreated,
		map[string]string{"referral_code": referral.ReferralCode})
}

// NotifyPayoutCompleted 结算完成通知
func (s *NotificationService) NotifyPayoutCompleted(ctx context.Context, payout *models.Payout) {
	amount := utils.FormatMoney(payout.Amount)
	wallet := crypto.MaskWallet(payout.WalletAddress)
	s.Notify(ctx, payout.AmbassadorID, models.NotificationTypeSuccess,
		"Payout completed",
		fmt.Sprintf("Payout %s for €%s has been sent via %s to %s.", payout.BatchNo, amount, payout.Method, wallet),
		telegram.TemplatePayoutCompleted,
		map[string]string{
			"batch_no": payout.BatchNo,
			"amount":   amount,
			"method":   payout.Method,
			"wallet":   wallet,
		})
}

// NotifyPayoutFailed 结算失败通知
func (s *NotificationService) NotifyPayoutFailed(ctx context.Context, payout *models.Payout) {
	reason := "unknown"
	if payout.FailReason != nil {
		reason = *payout.FailReason
	}
	s.Notify(ctx, payout.AmbassadorID, models.NotificationTypeError,
		"Payout failed",
		fmt.Sprintf("Payout %s could not be processed: %s", payout.BatchNo, reason),
		telegram.TemplatePayoutFailed,
		map[string]string{
			"batch_no": payout.BatchNo,
			"reason":   reason,
		})
}

// NotifyDomainVerified 自定义域名验证通过通知
func (s *NotificationService) NotifyDomainVerified(ctx context.Context, site *models.WhiteLabel) {
	domain := site.Domain
	if site.CustomDomain != nil {
		domain = *site.CustomDomain
	}
	s.Notify(ctx, site.AmbassadorID, models.NotificationTypeSuccess,
		"Domain verified",
		fmt.Sprintf("Your custom domain %s has been verified.", domain),
		telegram.TemplateDomainVerified,
		map[string]string{"domain": domain})
}

// List 获取用户的通知列表
func (s *NotificationService) List(ctx context.Context, userID int64, offset, limit int, onlyUnread bool) ([]*models.Notification, int64, error) {
	return s.notificationRepo.ListByUserID(ctx, userID, offset, limit, onlyUnread)
}

// UnreadCount 获取未读通知数
func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

// MarkRead 标记通知为已读
func (s *NotificationService) MarkRead(ctx context.Context, id, userID int64) error {
	err := s.notificationRepo.MarkRead(ctx, id, userID)
	if err == gorm.ErrRecordNotFound {
		return errors.ErrNotificationNotFound
	}
	return err
}

// MarkAllRead 标记全部通知为已读
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

// Delete 删除通知
func (s *NotificationService) Delete(ctx context.Context, id, userID int64) error {
	err := s.notificationRepo.Delete(ctx, id, userID)
	if err == gorm.ErrRecordNotFound {
		return errors.ErrNotificationNotFound
	}
	return err
}
