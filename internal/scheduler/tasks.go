// Package scheduler 提供定时任务
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/escortdollars/affiliate-backend/internal/common/logger"
	"github.com/escortdollars/affiliate-backend/internal/repository"
	affiliateService "github.com/escortdollars/affiliate-backend/internal/service/affiliate"
	payoutService "github.com/escortdollars/affiliate-backend/internal/service/payout"
)

// 数据保留期
const (
	ClickRetention        = 90 * 24 * time.Hour
	AuditLogRetention     = 180 * 24 * time.Hour
	NotificationRetention = 90 * 24 * time.Hour
)

// TaskHandler 任务处理器
type TaskHandler struct {
	statsService     *affiliateService.StatsService
	payoutService    *payoutService.PayoutService
	verificationRepo *repository.VerificationCodeRepository
	referralRepo     *repository.ReferralRepository
	auditLogRepo     *repository.AuditLogRepository
	notificationRepo *repository.NotificationRepository
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(
	statsSvc *affiliateService.StatsService,
	payoutSvc *payoutService.PayoutService,
	verificationRepo *repository.VerificationCodeRepository,
	referralRepo *repository.ReferralRepository,
	auditLogRepo *repository.AuditLogRepository,
	notificationRepo *repository.NotificationRepository,
) *TaskHandler {
	return &TaskHandler{
		statsService:     statsSvc,
		payoutService:    payoutSvc,
		verificationRepo: verificationRepo,
		referralRepo:     referralRepo,
		auditLogRepo:     auditLogRepo,
		notificationRepo: notificationRepo,
	}
}

// AggregateDailyStats 汇总前一日大使业绩
func (h *TaskHandler) AggregateDailyStats(ctx context.Context) error {
	yesterday := time.Now().AddDate(0, 0, -1)
	written, err := h.statsService.AggregateDaily(ctx, yesterday)
	if err != nil {
		return err
	}
	logger.Info("大使日统计汇总完成",
		zap.String("date", yesterday.Format("2006-01-02")),
		zap.Int("written", written),
	)
	return nil
}

// PollProcessingPayouts 轮询处理中结算单的提现状态
func (h *TaskHandler) PollProcessingPayouts(ctx context.Context) error {
	return h.payoutService.PollProcessing(ctx)
}

// PurgeExpired 清理过期数据
func (h *TaskHandler) PurgeExpired(ctx context.Context) error {
	now := time.Now()

	codes, err := h.verificationRepo.DeleteExpired(ctx)
	if err != nil {
		return err
	}

	clicks, err := h.referralRepo.DeleteClicksBefore(ctx, now.Add(-ClickRetention))
	if err != nil {
		return err
	}

	auditLogs, err := h.auditLogRepo.DeleteBefore(ctx, now.Add(-AuditLogRetention))
	if err != nil {
		return err
	}

	notifications, err := h.notificationRepo.DeleteReadBefore(ctx, now.Add(-NotificationRetention))
	if err != nil {
		return err
	}

	logger.Info("过期数据清理完成",
		zap.Int64("verification_codes", codes),
		zap.Int64("referral_clicks", clicks),
		zap.Int64("audit_logs", auditLogs),
		zap.Int64("notifications", notifications),
	)
	return nil
}

// SetupTasks 注册所有任务
func SetupTasks(scheduler *Scheduler, handler *TaskHandler) error {
	// 每日 00:10 汇总前一日业绩
	if err := scheduler.AddTask("aggregate_daily_stats", "10 0 * * *", handler.AggregateDailyStats); err != nil {
		return err
	}

	// 每 10 分钟轮询处理中结算单
	if err := scheduler.AddTask("poll_processing_payouts", "@every 10m", handler.PollProcessingPayouts); err != nil {
		return err
	}

	// 每日 03:00 清理过期数据
	if err := scheduler.AddTask("purge_expired", "0 3 * * *", handler.PurgeExpired); err != nil {
		return err
	}

	return nil
}
