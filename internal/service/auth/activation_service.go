// Package auth 提供认证服务
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/escortdollars/affiliate-backend/internal/common/errors"
	"github.com/escortdollars/affiliate-backend/internal/common/utils"
	"github.com/escortdollars/affiliate-backend/internal/models"
	"github.com/escortdollars/affiliate-backend/internal/repository"
)

// redisCmdable 验证码限流所需的 Redis 命令子集
type redisCmdable interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	ExpireAt(ctx context.Context, key string, tm time.Time) *redis.BoolCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// ActivationService 激活/找回密码令牌服务
type ActivationService struct {
	redis         redisCmdable
	codeRepo      *repository.VerificationCodeRepository
	activationTTL time.Duration
	resetTTL      time.Duration
}

// ActivationServiceConfig 令牌服务配置
type ActivationServiceConfig struct {
	ActivationTTL time.Duration
	ResetTTL      time.Duration
}

// DefaultActivationServiceConfig 默认配置
func DefaultActivationServiceConfig() *ActivationServiceConfig {
	return &ActivationServiceConfig{
		ActivationTTL: 48 * time.Hour,
		ResetTTL:      1 * time.Hour,
	}
}

// NewActivationService 创建令牌服务
func NewActivationService(redis redisCmdable, codeRepo *repository.VerificationCodeRepository, cfg *ActivationServiceConfig) *ActivationService {
	if cfg == nil {
		cfg = DefaultActivationServiceConfig()
	}
	return &ActivationService{
		redis:         redis,
		codeRepo:      codeRepo,
		activationTTL: cfg.ActivationTTL,
		resetTTL:      cfg.ResetTTL,
	}
}

// sendLimitKey 生成发送频率限制键
func (s *ActivationService) sendLimitKey(userID int64, purpose string) string {
	return fmt.Sprintf("activation:limit:%s:%d", purpose, userID)
}

// dayLimitKey 生成每日发送限制键
func (s *ActivationService) dayLimitKey(userID int64, purpose string) string {
	return fmt.Sprintf("activation:day:%s:%d", purpose, userID)
}

// Issue 签发令牌并落库
func (s *ActivationService) Issue(ctx context.Context, userID int64, purpose string) (string, error) {
	if s.redis != nil {
		if err := s.checkSendLimits(ctx, userID, purpose); err != nil {
			return "", err
		}
	}

	ttl := s.activationTTL
	if purpose == models.VerificationPurposePasswordReset {
		ttl = s.resetTTL
	}

	code := utils.GenerateHexToken(32)
	vc := &models.VerificationCode{
		UserID:    userID,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.codeRepo.Create(ctx, vc); err != nil {
		return "", errors.ErrDatabaseError.WithError(err)
	}

	if s.redis != nil {
		s.redis.Set(ctx, s.sendLimitKey(userID, purpose), "1", time.Minute)
	}

	return code, nil
}

// checkSendLimits 检查发送频率（1分钟1次，每天最多10次）
func (s *ActivationService) checkSendLimits(ctx context.Context, userID int64, purpose string) error {
	limitKey := s.sendLimitKey(userID, purpose)
	exists, err := s.redis.Exists(ctx, limitKey).Result()
	if err != nil {
		return errors.ErrCacheError.WithError(err)
	}
	if exists > 0 {
		return errors.ErrRateLimitExceed
	}

	dayKey := s.dayLimitKey(userID, purpose)
	dayCount, err := s.redis.Incr(ctx, dayKey).Result()
	if err != nil {
		return errors.ErrCacheError.WithError(err)
	}
	if dayCount == 1 {
		now := time.Now()
		endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
		s.redis.ExpireAt(ctx, dayKey, endOfDay)
	}
	if dayCount > 10 {
		return errors.ErrRateLimitExceed
	}

	return nil
}

// Consume 校验并消费令牌（一次性使用）
func (s *ActivationService) Consume(ctx context.Context, code, purpose string) (*models.VerificationCode, error) {
	vc, err := s.codeRepo.GetByCode(ctx, code, purpose)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrActivationInvalid
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if vc.IsUsed() {
		return nil, errors.ErrActivationInvalid
	}
	if vc.IsExpired() {
		return nil, errors.ErrActivationExpired
	}

	if err := s.codeRepo.MarkUsed(ctx, vc.ID); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	return vc, nil
}
