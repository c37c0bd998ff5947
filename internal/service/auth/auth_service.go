package auth

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/escortdollars/affiliate-backend/internal/common/crypto"
	"github.com/escortdollars/affiliate-backend/internal/common/errors"
	"github.com/escortdollars/affiliate-backend/internal/common/jwt"
	"github.com/escortdollars/affiliate-backend/internal/common/logger"
	"github.com/escortdollars/affiliate-backend/internal/common/utils"
	"github.com/escortdollars/affiliate-backend/internal/models"
	"github.com/escortdollars/affiliate-backend/internal/repository"
)

// ReferralCodeRetries 推荐码生成最大重试次数
const ReferralCodeRetries = 5

// SignupRewarder 注册奖励佣金钩子
// 激活事务内调用，失败会回滚整次激活
type SignupRewarder interface {
	CreateSignupBonus(ctx context.Context, tx *gorm.DB, referral *models.Referral) error
}

// WelcomeNotifier 激活成功后的欢迎通知钩子（尽力而为）
type WelcomeNotifier interface {
	SendWelcome(ctx context.Context, userID int64)
}

// AuthService 认证服务
type AuthService struct {
	db             *gorm.DB
	userRepo       *repository.UserRepository
	referralRepo   *repository.ReferralRepository
	jwtManager     *jwt.Manager
	activationSvc  *ActivationService
	signupRewarder SignupRewarder
	welcomeNotify  WelcomeNotifier
	bcryptCost     int
}

// NewAuthService 创建认证服务
func NewAuthService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	referralRepo *repository.ReferralRepository,
	jwtManager *jwt.Manager,
	activationSvc *ActivationService,
	bcryptCost int,
) *AuthService {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		db:            db,
		userRepo:      userRepo,
		referralRepo:  referralRepo,
		jwtManager:    jwtManager,
		activationSvc: activationSvc,
		bcryptCost:    bcryptCost,
	}
}

// SetSignupRewarder 设置注册奖励钩子
func (s *AuthService) SetSignupRewarder(rewarder SignupRewarder) {
	s.signupRewarder = rewarder
}

// SetWelcomeNotifier 设置欢迎通知钩子
func (s *AuthService) SetWelcomeNotifier(notifier WelcomeNotifier) {
	s.welcomeNotify = notifier
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username      string `json:"username" binding:"required,min=3,max=50"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8"`
	UserType      string `json:"user_type" binding:"required,oneof=ambassador escort member"`
	AffiliateCode string `json:"affiliate_code,omitempty"`
	Language      string `json:"language,omitempty"`
}

// RegisterResponse 注册响应
type RegisterResponse struct {
	User           *models.User `json:"user"`
	ActivationCode string       `json:"activation_code,omitempty"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Account  string `json:"account" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	User      *models.User   `json:"user"`
	TokenPair *jwt.TokenPair `json:"token"`
}

// Register 注册用户
// 用户创建后处于未激活状态，需通过激活令牌激活
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	if !utils.ValidateUsername(req.Username) {
		return nil, errors.ErrInvalidParams
	}
	if !utils.ValidateEmail(req.Email) {
		return nil, errors.ErrEmailInvalid
	}

	if exists, err := s.userRepo.ExistsByUsername(ctx, req.Username); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	} else if exists {
		return nil, errors.ErrUsernameExists
	}
	if exists, err := s.userRepo.ExistsByEmail(ctx, req.Email); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	} else if exists {
		return nil, errors.ErrEmailExists
	}

	// 解析推荐人（无效推荐码按无推荐处理）
	var referrer *models.User
	if req.AffiliateCode != "" {
		if u, err := s.userRepo.GetByReferralCode(ctx, req.AffiliateCode); err == nil && u.IsActive {
			referrer = u
		}
	}

	hash, err := crypto.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	referralCode, err := s.generateReferralCode(ctx)
	if err != nil {
		return nil, err
	}

	language := req.Language
	if !utils.Contains(models.SupportedLanguages, language) {
		language = models.LanguageEnglish
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		UserType:     req.UserType,
		ReferralCode: referralCode,
		Status:       models.UserStatusActive,
		IsActive:     false,
	}
	if referrer != nil {
		user.ReferredByID = &referrer.ID
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}

		profile := &models.UserProfile{
			UserID:            user.ID,
			PreferredLanguage: language,
		}
		if err := tx.Create(profile).Error; err != nil {
			return err
		}

		// 注册只记录推荐关系，奖励佣金在账号激活时发放
		if referrer != nil {
			referral := &models.Referral{
				ReferrerID:   referrer.ID,
				ReferredID:   user.ID,
				ReferralCode: referrer.ReferralCode,
			}
			if err := tx.Create(referral).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	code, err := s.activationSvc.Issue(ctx, user.ID, models.VerificationPurposeActivation)
	if err != nil {
		return nil, err
	}

	return &RegisterResponse{User: user, ActivationCode: code}, nil
}

// generateReferralCode 生成唯一推荐码
func (s *AuthService) generateReferralCode(ctx context.Context) (string, error) {
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

// Activate 激活账号
// 激活成功才发放推荐人的注册奖励，未激活的账号不产生任何佣金
func (s *AuthService) Activate(ctx context.Context, code string) (*models.User, error) {
	vc, err := s.activationSvc.Consume(ctx, code, models.VerificationPurposeActivation)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, vc.UserID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	// 同一用户可能持有多个有效令牌，奖励只在首次激活时发放
	firstActivation := !user.IsActive

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("is_active", true).Error; err != nil {
			return err
		}

		if !firstActivation || s.signupRewarder == nil || user.ReferredByID == nil {
			return nil
		}

		referral, err := s.referralRepo.GetByReferredID(ctx, user.ID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		return s.signupRewarder.CreateSignupBonus(ctx, tx, referral)
	})
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	user.IsActive = true

	if s.welcomeNotify != nil {
		s.welcomeNotify.SendWelcome(ctx, user.ID)
	}

	return user, nil
}

// ResendActivation 重新签发激活令牌
func (s *AuthService) ResendActivation(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", errors.ErrUserNotFound
		}
		return "", errors.ErrDatabaseError.WithError(err)
	}
	if user.IsActive {
		return "", errors.ErrOperationFailed
	}

	// 邮箱属敏感信息，日志只记脱敏形式
	logger.Info("重新签发激活令牌",
		zap.Int64("user_id", user.ID),
		zap.String("email", crypto.MaskEmail(email)))

	return s.activationSvc.Issue(ctx, user.ID, models.VerificationPurposeActivation)
}

// Login 登录（用户名或邮箱）
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Account)
	if err == gorm.ErrRecordNotFound {
		user, err = s.userRepo.GetByEmail(ctx, req.Account)
	}
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if !crypto.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, errors.ErrPasswordError
	}
	if user.Status == models.UserStatusDisabled {
		return nil, errors.ErrAccountDisabled
	}
	if !user.IsActive {
		return nil, errors.ErrAccountInactive
	}

	userType := jwt.UserTypeUser
	if user.IsAdministrator() {
		userType = jwt.UserTypeAdmin
	}
	tokenPair, err := s.jwtManager.GenerateTokenPair(user.ID, userType, user.UserType)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	now := time.Now()
	_ = s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{"last_login_at": now})
	user.LastLoginAt = &now

	return &LoginResponse{User: user, TokenPair: tokenPair}, nil
}

// RefreshToken 刷新令牌
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	tokenPair, err := s.jwtManager.RefreshToken(refreshToken)
	if err != nil {
		if err == jwt.ErrTokenExpired {
			return nil, errors.ErrTokenExpired
		}
		return nil, errors.ErrTokenInvalid
	}
	return tokenPair, nil
}

// RequestPasswordReset 申请重置密码
// 为避免枚举账号，邮箱不存在时不返回错误
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", errors.ErrDatabaseError.WithError(err)
	}
	return s.activationSvc.Issue(ctx, user.ID, models.VerificationPurposePasswordReset)
}

// ResetPassword 通过重置令牌修改密码
func (s *AuthService) ResetPassword(ctx context.Context, code, newPassword string) error {
	vc, err := s.activationSvc.Consume(ctx, code, models.VerificationPurposePasswordReset)
	if err != nil {
		return err
	}

	hash, err := crypto.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return errors.ErrInternalError.WithError(err)
	}

	if err := s.userRepo.UpdateFields(ctx, vc.UserID, map[string]interface{}{
		"password_hash": hash,
	}); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// GetUserByID 根据 ID 获取用户
func (s *AuthService) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByIDWithProfile(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return user, nil
}
