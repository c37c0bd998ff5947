package affiliate

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/escortdollars/affiliate-backend/internal/common/errors"
	"github.com/escortdollars/affiliate-backend/internal/models"
	"github.com/escortdollars/affiliate-backend/internal/repository"
)

// StatsService 大使统计服务
type StatsService struct {
	db             *gorm.DB
	statsRepo      *repository.StatisticsRepository
	userRepo       *repository.UserRepository
	commissionRepo *repository.CommissionRepository
	referralRepo   *repository.ReferralRepository
}

// NewStatsService 创建统计服务
func NewStatsService(
	db *gorm.DB,
	statsRepo *repository.StatisticsRepository,
	userRepo *repository.UserRepository,
	commissionRepo *repository.CommissionRepository,
	referralRepo *repository.ReferralRepository,
) *StatsService {
	return &StatsService{
		db:             db,
		statsRepo:      statsRepo,
		userRepo:       userRepo,
		commissionRepo: commissionRepo,
		referralRepo:   referralRepo,
	}
}

// AggregateDaily 聚合指定日期的大使统计
// 返回写入的统计条数
func (s *StatsService) AggregateDaily(ctx context.Context, date time.Time) (int, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	ambassadorIDs, err := s.userRepo.ListAmbassadorIDs(ctx)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}

	written := 0
	for _, id := range ambassadorIDs {
		earnings, err := s.commissionRepo.SumByUserIDBetween(ctx, id, dayStart, dayEnd)
		if err != nil {
			return written, errors.ErrDatabaseError.WithError(err)
		}

		var referrals int64
		if err := s.db.WithContext(ctx).Model(&models.Referral{}).
			Where("referrer_id = ? AND created_at >= ? AND created_at < ?", id, dayStart, dayEnd).
			Count(&referrals).Error; err != nil {
			return written, errors.ErrDatabaseError.WithError(err)
		}

		var transactions int64
		if err := s.db.WithContext(ctx).Model(&models.Commission{}).
			Where("user_id = ? AND commission_type = ? AND created_at >= ? AND created_at < ?",
				id, models.CommissionTypeTransaction, dayStart, dayEnd).
			Count(&transactions).Error; err != nil {
			return written, errors.ErrDatabaseError.WithError(err)
		}

		if earnings == 0 && referrals == 0 && transactions == 0 {
			continue
		}

		stats := &models.UserStatistics{
			UserID:            id,
			StatDate:          dayStart,
			TotalEarnings:     earnings,
			TotalReferrals:    referrals,
			TotalTransactions: transactions,
		}
		if err := s.statsRepo.Upsert(ctx, stats); err != nil {
			return written, errors.ErrDatabaseError.WithError(err)
		}
		written++
	}

	return written, nil
}

// AmbassadorOverview 大使总览
type AmbassadorOverview struct {
	Commission *models.CommissionStats `json:"commission"`
	Referrals  *ReferralStats          `json:"referrals"`
	Level      models.AffiliateLevel   `json:"level"`
}

// GetAmbassadorOverview 获取大使总览（佣金、推荐、等级）
func (s *StatsService) GetAmbassadorOverview(ctx context.Context, userID int64, referralSvc *ReferralService) (*AmbassadorOverview, error) {
	commissionStats, err := s.commissionRepo.GetStatsByUserID(ctx, userID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	referralStats, err := referralSvc.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &AmbassadorOverview{
		Commission: commissionStats,
		Referrals:  referralStats,
		Level:      models.LevelForEarnings(commissionStats.TotalAmount),
	}, nil
}

// ListDaily 获取大使的每日统计列表
func (s *StatsService) ListDaily(ctx context.Context, userID int64, offset, limit int) ([]*models.UserStatistics, int64, error) {
	return s.statsRepo.ListByUserID(ctx, userID, offset, limit)
}
