// Package external 面向第三方系统的服务端对接
package external

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/escortdollars/affiliate-backend/internal/common/errors"
	"github.com/escortdollars/affiliate-backend/internal/common/utils"
	"github.com/escortdollars/affiliate-backend/internal/models"
	"github.com/escortdollars/affiliate-backend/internal/repository"
)

// ReferralCodeRetries 推荐码生成重试次数
const ReferralCodeRetries = 5

// SignupRewarder 注册奖励钩子
type SignupRewarder interface {
	CreateSignupBonus(ctx context.Context, tx *gorm.DB, referral *models.Referral) error
}

// ExternalService 第三方对接服务
//
// 由主站通过 X-API-Key 调用，负责把站外注册的会员落入推荐关系。
type ExternalService struct {
	db           *gorm.DB
	userRepo     *repository.UserRepository
	referralRepo *repository.ReferralRepository
	rewarder     SignupRewarder
}

// NewExternalService 创建第三方对接服务
func NewExternalService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	referralRepo *repository.ReferralRepository,
) *ExternalService {
	return &ExternalService{
		db:           db,
		userRepo:     userRepo,
		referralRepo: referralRepo,
	}
}

// SetSignupRewarder 设置注册奖励钩子
func (s *ExternalService) SetSignupRewarder(rewarder SignupRewarder) {
	s.rewarder = rewarder
}

// CreateReferralRequest 第三方创建推荐请求
type CreateReferralRequest struct {
	ReferralCode string `json:"referral_code" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Username     string `json:"username,omitempty"`
	Language     string `json:"language,omitempty"`
	SignupBonus  bool   `json:"signup_bonus,omitempty"`
}

// CreateReferralResult 第三方创建推荐结果
type CreateReferralResult struct {
	Referral    *models.Referral `json:"referral"`
	User        *models.User     `json:"user"`
	UserCreated bool             `json:"user_created"`
}

// CreateReferral 登记站外推荐转化
//
// 被推荐用户不存在时按会员身份创建，已存在推荐关系时幂等返回。
func (s *ExternalService) CreateReferral(ctx context.Context, req *CreateReferralRequest) (*CreateReferralResult, error) {
	referrer, err := s.resolveReferrer(ctx, req.ReferralCode)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !utils.ValidateEmail(email) {
		return nil, errors.ErrEmailInvalid
	}

	user, created, err := s.getOrCreateMember(ctx, email, req.Username, req.Language, referrer.ID)
	if err != nil {
		return nil, err
	}

	if user.ID == referrer.ID {
		return nil, errors.ErrSelfReferral
	}

	// 已有推荐关系则幂等返回，不重复计奖
	if existing, err := s.referralRepo.GetByReferredID(ctx, user.ID); err == nil {
		return &CreateReferralResult{Referral: existing, User: user, UserCreated: created}, nil
	} else if err != gorm.ErrRecordNotFound {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	referral := &models.Referral{
		ReferrerID:   referrer.ID,
		ReferredID:   user.ID,
		ReferralCode: referrer.ReferralCode,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(referral).Error; err != nil {
			return err
		}
		if req.SignupBonus && s.rewarder != nil {
			return s.rewarder.CreateSignupBonus(ctx, tx, referral)
		}
		return nil
	})
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	return &CreateReferralResult{Referral: referral, User: user, UserCreated: created}, nil
}

// resolveReferrer 解析并校验推荐码
func (s *ExternalService) resolveReferrer(ctx context.Context, code string) (*models.User, error) {
	referrer, err := s.userRepo.GetByReferralCode(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrReferralCodeInvalid
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !referrer.IsActive || referrer.Status != models.UserStatusActive {
		return nil, errors.ErrReferralCodeInactive
	}
	return referrer, nil
}

// getOrCreateMember 按邮箱查找会员，不存在则创建
func (s *ExternalService) getOrCreateMember(ctx context.Context, email, username, language string, referrerID int64) (*models.User, bool, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return user, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, errors.ErrDatabaseError.WithError(err)
	}

	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}
	if !utils.Contains(models.SupportedLanguages, language) {
		language = models.LanguageEnglish
	}

	referralCode, err := s.generateReferralCode(ctx)
	if err != nil {
		return nil, false, err
	}

	// 站外账号不在本系统登录，密码占位为随机令牌哈希
	hash, err := bcrypt.GenerateFromPassword([]byte(utils.GenerateHexToken(16)), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, errors.ErrInternalError.WithError(err)
	}

	user = &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		UserType:     models.UserTypeMember,
		ReferralCode: referralCode,
		ReferredByID: &referrerID,
		Status:       models.UserStatusActive,
		IsActive:     true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(&models.UserProfile{
			UserID:            user.ID,
			PreferredLanguage: language,
		}).Error
	})
	if err != nil {
		return nil, false, errors.ErrDatabaseError.WithError(err)
	}

	return user, true, nil
}

// generateReferralCode 生成唯一推荐码
func (s *ExternalService) generateReferralCode(ctx context.Context) (string, error) {
	for i := 0; i < ReferralCodeRetries; i++ {
		code := utils.GenerateReferralCode(models.ReferralCodeLength)
		exists, err := s.userRepo.ExistsByReferralCode(ctx, code)
		if err != nil {
			return "", errors.ErrDatabaseError.WithError(err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.ErrOperationFailed
}
