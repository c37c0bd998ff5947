package affiliate

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/escortdollars/affiliate-backend/internal/common/errors"
	"github.com/escortdollars/affiliate-backend/internal/models"
	"github.com/escortdollars/affiliate-backend/internal/repository"
)

// ReferralNotifier 推荐事件通知钩子（尽力而为）
type ReferralNotifier interface {
	NotifyReferralCreated(ctx context.Context, referral *models.Referral)
}

// ReferralService 推荐关系服务
type ReferralService struct {
	referralRepo *repository.ReferralRepository
	userRepo     *repository.UserRepository
	notifier     ReferralNotifier
}

// NewReferralService 创建推荐关系服务
func NewReferralService(referralRepo *repository.ReferralRepository, userRepo *repository.UserRepository) *ReferralService {
	return &ReferralService{
		referralRepo: referralRepo,
		userRepo:     userRepo,
	}
}

// SetNotifier 设置通知钩子
func (s *ReferralService) SetNotifier(notifier ReferralNotifier) {
	s.notifier = notifier
}

// CreateReferral 建立推荐关系
// 通知失败不影响已写入的关系
func (s *ReferralService) CreateReferral(ctx context.Context, referrerID, referredID int64, code string) (*models.Referral, error) {
	if referrerID == referredID {
		return nil, errors.ErrSelfReferral
	}

	exists, err := s.referralRepo.ExistsPair(ctx, referrerID, referredID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrReferralExists
	}

	referral := &models.Referral{
		ReferrerID:   referrerID,
		ReferredID:   referredID,
		ReferralCode: code,
	}
	if err := s.referralRepo.Create(ctx, referral); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if s.notifier != nil {
		s.notifier.NotifyReferralCreated(ctx, referral)
	}

	return referral, nil
}

// ResolveCode 校验推荐码并返回推荐人
func (s *ReferralService) ResolveCode(ctx context.Context, code string) (*models.User, error) {
	user, err := s.userRepo.GetByReferralCode(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrReferralCodeInvalid
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !user.IsActive || user.Status == models.UserStatusDisabled {
		return nil, errors.ErrReferralCodeInactive
	}
	return user, nil
}

// RecordClick 记录推广链接点击
func (s *ReferralService) RecordClick(ctx context.Context, click *models.ReferralClick) error {
	return s.referralRepo.CreateClick(ctx, click)
}

// ListByReferrer 获取推荐人的推荐列表
func (s *ReferralService) ListByReferrer(ctx context.Context, referrerID int64, offset, limit int) ([]*models.Referral, int64, error) {
	return s.referralRepo.ListByReferrerID(ctx, referrerID, offset, limit)
}

// ReferralStats 推荐统计
type ReferralStats struct {
	TotalReferrals int64 `json:"total_referrals"`
	RecentCount    int64 `json:"recent_count"`
	TotalClicks    int64 `json:"total_clicks"`
}

// GetStats 获取推荐人的推荐统计（近 30 天为近期）
func (s *ReferralService) GetStats(ctx context.Context, referrerID int64) (*ReferralStats, error) {
	user, err := s.userRepo.GetByID(ctx, referrerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	total, err := s.referralRepo.CountByReferrerID(ctx, referrerID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	recent, err := s.referralRepo.CountByReferrerIDSince(ctx, referrerID, time.Now().AddDate(0, 0, -30))
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	clicks, err := s.referralRepo.CountClicksByCode(ctx, user.ReferralCode)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	return &ReferralStats{
		TotalReferrals: total,
		RecentCount:    recent,
		TotalClicks:    clicks,
	}, nil
}
