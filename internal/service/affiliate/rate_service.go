package affiliate

import (
	"context"

	"gorm.io/gorm"

	"github.com/escortdollars/affiliate-backend/internal/common/config"
	"github.com/escortdollars/affiliate-backend/internal/common/errors"
	"github.com/escortdollars/affiliate-backend/internal/models"
	"github.com/escortdollars/affiliate-backend/internal/repository"
)

// RateService 佣金比例配置服务
type RateService struct {
	rateRepo *repository.CommissionRateRepository
	userRepo *repository.UserRepository
	cfg      *config.AffiliateConfig
}

// NewRateService 创建佣金比例配置服务
func NewRateService(rateRepo *repository.CommissionRateRepository, userRepo *repository.UserRepository, cfg *config.AffiliateConfig) *RateService {
	return &RateService{
		rateRepo: rateRepo,
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// SetRate 设置大使对目标类型的佣金比例
func (s *RateService) SetRate(ctx context.Context, ambassadorID int64, targetType string, rate float64) (*models.CommissionRate, error) {
	if targetType != models.RateTargetEscort && targetType != models.RateTargetAmbassador {
		return nil, errors.ErrInvalidParams
	}
	if rate < s.cfg.MinCommissionRate || rate > s.cfg.MaxCommissionRate {
		return nil, errors.ErrCommissionRateInvalid
	}

	user, err := s.userRepo.GetByID(ctx, ambassadorID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !user.IsAmbassador() {
		return nil, errors.ErrNotAmbassador
	}

	cr := &models.CommissionRate{
		AmbassadorID: ambassadorID,
		TargetType:   targetType,
		Rate:         rate,
	}
	if err := s.rateRepo.Upsert(ctx, cr); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return cr, nil
}

// ListRates 获取大使的比例配置列表
func (s *RateService) ListRates(ctx context.Context, ambassadorID int64) ([]*models.CommissionRate, error) {
	return s.rateRepo.ListByAmbassadorID(ctx, ambassadorID)
}

// DeleteRate 删除比例配置（回到默认比例）
func (s *RateService) DeleteRate(ctx context.Context, ambassadorID int64, targetType string) error {
	return s.rateRepo.Delete(ctx, ambassadorID, targetType)
}
