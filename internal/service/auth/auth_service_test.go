// Package auth 认证服务单元测试
package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/escortdollars/affiliate-backend/internal/common/errors"
	"github.com/escortdollars/affiliate-backend/internal/common/jwt"
	"github.com/escortdollars/affiliate-backend/internal/models"
	"github.com/escortdollars/affiliate-backend/internal/repository"
)

func setupAuthTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{}, &models.UserProfile{}, &models.Referral{},
		&models.Commission{}, &models.VerificationCode{},
	)
	require.NoError(t, err)

	return db
}

func newTestAuthService(t *testing.T, db *gorm.DB) *AuthService {
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            "test-secret",
		AccessExpireTime:  2 * time.Hour,
		RefreshExpireTime: 24 * time.Hour,
		Issuer:            "affiliate-backend-test",
	})
	activationSvc := NewActivationService(nil, repository.NewVerificationCodeRepository(db), nil)
	return NewAuthService(
		db,
		repository.NewUserRepository(db),
		repository.NewReferralRepository(db),
		jwtManager,
		activationSvc,
		bcrypt.MinCost,
	)
}

func TestAuthService_Register(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newTestAuthService(t, db)
	ctx := context.Background()

	t.Run("注册大使", func(t *testing.T) {
		resp, err := svc.Register(ctx, &RegisterRequest{
			Username: "alice",
			Email:    "alice@example.com",
			Password: "password123",
			UserType: models.UserTypeAmbassador,
			Language: "fr",
		})
		require.NoError(t, err)

		assert.NotZero(t, resp.User.ID)
		assert.False(t, resp.User.IsActive)
		assert.Len(t, resp.User.ReferralCode, models.ReferralCodeLength)
		assert.NotEmpty(t, resp.ActivationCode)

		// 资料在同一事务中创建
		var profile models.UserProfile
		require.NoError(t, db.Where("user_id = ?", resp.User.ID).First(&profile).Error)
		assert.Equal(t, "fr", profile.PreferredLanguage)
	})

	t.Run("用户名重复", func(t *testing.T) {
		_, err := svc.Register(ctx, &RegisterRequest{
			Username: "alice",
			Email:    "alice2@example.com",
			Password: "password123",
			UserType: models.UserTypeMember,
		})
		assert.ErrorIs(t, err, errors.ErrUsernameExists)
	})

	t.Run("邮箱重复", func(t *testing.T) {
		_, err := svc.Register(ctx, &RegisterRequest{
			Username: "alice3",
			Email:    "alice@example.com",
			Password: "password123",
			UserType: models.UserTypeMember,
		})
		assert.ErrorIs(t, err, errors.ErrEmailExists)
	})

	t.Run("无效邮箱", func(t *testing.T) {
		_, err := svc.Register(ctx, &RegisterRequest{
			Username: "bob",
			Email:    "not-an-email",
			Password: "password123",
			UserType: models.UserTypeMember,
		})
		assert.ErrorIs(t, err, errors.ErrEmailInvalid)
	})

	t.Run("不支持的语言回退到英语", func(t *testing.T) {
		resp, err := svc.Register(ctx, &RegisterRequest{
			Username: "carol",
			Email:    "carol@example.com",
			Password: "password123",
			UserType: models.UserTypeEscort,
			Language: "pt",
		})
		require.NoError(t, err)

		var profile models.UserProfile
		require.NoError(t, db.Where("user_id = ?", resp.User.ID).First(&profile).Error)
		assert.Equal(t, models.LanguageEnglish, profile.PreferredLanguage)
	})
}

func TestAuthService_Register_WithReferral(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newTestAuthService(t, db)
	ctx := context.Background()

	// 已激活的推荐人
	referrer := &models.User{
		Username: "amb", Email: "amb@example.com", PasswordHash: "x",
		UserType: models.UserTypeAmbassador, ReferralCode: "AMBCODE1",
		IsActive: true, Status: models.UserStatusActive,
	}
	require.NoError(t, db.Create(referrer).Error)

	t.Run("推荐码建立推荐关系", func(t *testing.T) {
		resp, err := svc.Register(ctx, &RegisterRequest{
			Username:      "newbie",
			Email:         "newbie@example.com",
			Password:      "password123",
			UserType:      models.UserTypeMember,
			AffiliateCode: "AMBCODE1",
		})
		require.NoError(t, err)
		require.NotNil(t, resp.User.ReferredByID)
		assert.Equal(t, referrer.ID, *resp.User.ReferredByID)

		var referral models.Referral
		require.NoError(t, db.Where("referred_id = ?", resp.User.ID).First(&referral).Error)
		assert.Equal(t, referrer.ID, referral.ReferrerID)
		assert.Equal(t, "AMBCODE1", referral.ReferralCode)
	})

	t.Run("无效推荐码按无推荐处理", func(t *testing.T) {
		resp, err := svc.Register(ctx, &RegisterRequest{
			Username:      "orphan",
			Email:         "orphan@example.com",
			Password:      "password123",
			UserType:      models.UserTypeMember,
			AffiliateCode: "NOSUCHCD",
		})
		require.NoError(t, err)
		assert.Nil(t, resp.User.ReferredByID)
	})
}

type stubRewarder struct {
	created []int64
}

func (r *stubRewarder) CreateSignupBonus(ctx context.Context, tx *gorm.DB, referral *models.Referral) error {
	r.created = append(r.created, referral.ReferrerID)
	return tx.Create(&models.Commission{
		UserID:         referral.ReferrerID,
		ReferralID:     &referral.ID,
		CommissionType: models.CommissionTypeSignup,
		Amount:         5,
		Status:         models.CommissionStatusPending,
	}).Error
}

func TestAuthService_SignupBonusOnActivation(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newTestAuthService(t, db)
	rewarder := &stubRewarder{}
	svc.SetSignupRewarder(rewarder)
	ctx := context.Background()

	referrer := &models.User{
		Username: "amb", Email: "amb@example.com", PasswordHash: "x",
		UserType: models.UserTypeAmbassador, ReferralCode: "AMBCODE1",
		IsActive: true, Status: models.UserStatusActive,
	}
	require.NoError(t, db.Create(referrer).Error)

	resp, err := svc.Register(ctx, &RegisterRequest{
		Username:      "buyer",
		Email:         "buyer@example.com",
		Password:      "password123",
		UserType:      models.UserTypeMember,
		AffiliateCode: "AMBCODE1",
	})
	require.NoError(t, err)

	signupCount := func() int64 {
		var count int64
		require.NoError(t, db.Model(&models.Commission{}).
			Where("user_id = ? AND commission_type = ?", referrer.ID, models.CommissionTypeSignup).
			Count(&count).Error)
		return count
	}

	t.Run("激活前不产生任何佣金", func(t *testing.T) {
		assert.Empty(t, rewarder.created)
		assert.Equal(t, int64(0), signupCount())
	})

	// 激活前补发一个令牌，验证多令牌场景不会重复发奖
	secondCode, err := svc.activationSvc.Issue(ctx, resp.User.ID, models.VerificationPurposeActivation)
	require.NoError(t, err)

	t.Run("激活时发放注册奖励", func(t *testing.T) {
		user, err := svc.Activate(ctx, resp.ActivationCode)
		require.NoError(t, err)
		assert.True(t, user.IsActive)

		assert.Equal(t, []int64{referrer.ID}, rewarder.created)
		assert.Equal(t, int64(1), signupCount())
	})

	t.Run("重复激活不重复发奖", func(t *testing.T) {
		user, err := svc.Activate(ctx, secondCode)
		require.NoError(t, err)
		assert.True(t, user.IsActive)

		assert.Equal(t, []int64{referrer.ID}, rewarder.created)
		assert.Equal(t, int64(1), signupCount())
	})

	t.Run("无推荐人的激活不触发钩子", func(t *testing.T) {
		plain, err := svc.Register(ctx, &RegisterRequest{
			Username: "loner",
			Email:    "loner@example.com",
			Password: "password123",
			UserType: models.UserTypeMember,
		})
		require.NoError(t, err)

		_, err = svc.Activate(ctx, plain.ActivationCode)
		require.NoError(t, err)
		assert.Equal(t, []int64{referrer.ID}, rewarder.created)
	})
}

func TestAuthService_ActivateAndLogin(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newTestAuthService(t, db)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &RegisterRequest{
		Username: "dave",
		Email:    "dave@example.com",
		Password: "password123",
		UserType: models.UserTypeAmbassador,
	})
	require.NoError(t, err)

	t.Run("未激活不能登录", func(t *testing.T) {
		_, err := svc.Login(ctx, &LoginRequest{Account: "dave", Password: "password123"})
		assert.ErrorIs(t, err, errors.ErrAccountInactive)
	})

	t.Run("激活账号", func(t *testing.T) {
		user, err := svc.Activate(ctx, resp.ActivationCode)
		require.NoError(t, err)
		assert.True(t, user.IsActive)
	})

	t.Run("激活令牌只能使用一次", func(t *testing.T) {
		_, err := svc.Activate(ctx, resp.ActivationCode)
		assert.ErrorIs(t, err, errors.ErrActivationInvalid)
	})

	t.Run("用户名登录", func(t *testing.T) {
		loginResp, err := svc.Login(ctx, &LoginRequest{Account: "dave", Password: "password123"})
		require.NoError(t, err)
		assert.NotEmpty(t, loginResp.TokenPair.AccessToken)
		assert.NotNil(t, loginResp.User.LastLoginAt)
	})

	t.Run("邮箱登录", func(t *testing.T) {
		loginResp, err := svc.Login(ctx, &LoginRequest{Account: "dave@example.com", Password: "password123"})
		require.NoError(t, err)
		assert.Equal(t, "dave", loginResp.User.Username)
	})

	t.Run("密码错误", func(t *testing.T) {
		_, err := svc.Login(ctx, &LoginRequest{Account: "dave", Password: "wrong"})
		assert.ErrorIs(t, err, errors.ErrPasswordError)
	})

	t.Run("禁用账号不能登录", func(t *testing.T) {
		require.NoError(t, db.Model(&models.User{}).Where("username = ?", "dave").
			Update("status", models.UserStatusDisabled).Error)

		_, err := svc.Login(ctx, &LoginRequest{Account: "dave", Password: "password123"})
		assert.ErrorIs(t, err, errors.ErrAccountDisabled)
	})
}

func TestAuthService_ResendActivation(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newTestAuthService(t, db)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &RegisterRequest{
		Username: "fred",
		Email:    "fred@example.com",
		Password: "password123",
		UserType: models.UserTypeMember,
	})
	require.NoError(t, err)

	t.Run("未激活账号可补发令牌", func(t *testing.T) {
		code, err := svc.ResendActivation(ctx, "fred@example.com")
		require.NoError(t, err)
		require.NotEmpty(t, code)
		assert.NotEqual(t, resp.ActivationCode, code)

		user, err := svc.Activate(ctx, code)
		require.NoError(t, err)
		assert.True(t, user.IsActive)
	})

	t.Run("已激活账号不再补发", func(t *testing.T) {
		_, err := svc.ResendActivation(ctx, "fred@example.com")
		assert.ErrorIs(t, err, errors.ErrOperationFailed)
	})

	t.Run("邮箱不存在", func(t *testing.T) {
		_, err := svc.ResendActivation(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, errors.ErrUserNotFound)
	})
}

func TestAuthService_PasswordReset(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newTestAuthService(t, db)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &RegisterRequest{
		Username: "eve",
		Email:    "eve@example.com",
		Password: "oldpassword",
		UserType: models.UserTypeMember,
	})
	require.NoError(t, err)
	_, err = svc.Activate(ctx, resp.ActivationCode)
	require.NoError(t, err)

	t.Run("重置密码", func(t *testing.T) {
		code, err := svc.RequestPasswordReset(ctx, "eve@example.com")
		require.NoError(t, err)
		require.NotEmpty(t, code)

		require.NoError(t, svc.ResetPassword(ctx, code, "newpassword"))

		_, err = svc.Login(ctx, &LoginRequest{Account: "eve", Password: "oldpassword"})
		assert.ErrorIs(t, err, errors.ErrPasswordError)

		_, err = svc.Login(ctx, &LoginRequest{Account: "eve", Password: "newpassword"})
		assert.NoError(t, err)
	})

	t.Run("邮箱不存在不报错", func(t *testing.T) {
		code, err := svc.RequestPasswordReset(ctx, "ghost@example.com")
		require.NoError(t, err)
		assert.Empty(t, code)
	})

	t.Run("无效令牌", func(t *testing.T) {
		err := svc.ResetPassword(ctx, "bogus", "whatever")
		assert.ErrorIs(t, err, errors.ErrActivationInvalid)
	})
}

func TestActivationService_RateLimit(t *testing.T) {
	db := setupAuthTestDB(t)
	rds, clock := newTestRedisClient(t)
	svc := NewActivationService(rds, repository.NewVerificationCodeRepository(db), nil)
	ctx := context.Background()

	t.Run("一分钟内重复签发被限流", func(t *testing.T) {
		_, err := svc.Issue(ctx, 1, models.VerificationPurposeActivation)
		require.NoError(t, err)

		_, err = svc.Issue(ctx, 1, models.VerificationPurposeActivation)
		assert.ErrorIs(t, err, errors.ErrRateLimitExceed)
	})

	t.Run("超过频率窗口后可再次签发", func(t *testing.T) {
		clock.Advance(2 * time.Minute)

		_, err := svc.Issue(ctx, 1, models.VerificationPurposeActivation)
		assert.NoError(t, err)
	})

	t.Run("不同用途独立限流", func(t *testing.T) {
		_, err := svc.Issue(ctx, 1, models.VerificationPurposePasswordReset)
		assert.NoError(t, err)
	})
}

func TestActivationService_Expiry(t *testing.T) {
	db := setupAuthTestDB(t)
	codeRepo := repository.NewVerificationCodeRepository(db)
	svc := NewActivationService(nil, codeRepo, nil)
	ctx := context.Background()

	code, err := svc.Issue(ctx, 7, models.VerificationPurposeActivation)
	require.NoError(t, err)

	// 直接将令牌改为已过期
	require.NoError(t, db.Model(&models.VerificationCode{}).
		Where("code = ?", code).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	_, err = svc.Consume(ctx, code, models.VerificationPurposeActivation)
	assert.ErrorIs(t, err, errors.ErrActivationExpired)
}
