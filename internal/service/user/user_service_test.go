// Package user 用户资料服务单元测试
package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/escortdollars/affiliate-backend/internal/common/errors"
	"github.com/escortdollars/affiliate-backend/internal/common/utils"
	"github.com/escortdollars/affiliate-backend/internal/models"
	"github.com/escortdollars/affiliate-backend/internal/repository"
)

func setupUserTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.UserProfile{})
	require.NoError(t, err)

	return db
}

func createProfiledUser(t *testing.T, db *gorm.DB, username, password string) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		UserType:     models.UserTypeAmbassador,
		ReferralCode: username,
		IsActive:     true,
		Status:       models.UserStatusActive,
	}
	require.NoError(t, db.Create(user).Error)

	require.NoError(t, db.Create(&models.UserProfile{
		UserID:            user.ID,
		PreferredLanguage: models.LanguageEnglish,
	}).Error)
	return user
}

func TestUserService_UpdateProfile(t *testing.T) {
	db := setupUserTestDB(t)
	svc := NewUserService(db, repository.NewUserRepository(db), bcrypt.MinCost)
	ctx := context.Background()

	user := createProfiledUser(t, db, "PROF0001", "secret123")

	t.Run("更新公司与语言", func(t *testing.T) {
		profile, err := svc.UpdateProfile(ctx, user.ID, &UpdateProfileRequest{
			CompanyName:       utils.StringPtr("Acme Media"),
			Country:           utils.StringPtr("France"),
			PreferredLanguage: utils.StringPtr(models.LanguageFrench),
		})
		require.NoError(t, err)
		assert.Equal(t, "Acme Media", *profile.CompanyName)
		assert.Equal(t, models.LanguageFrench, profile.PreferredLanguage)
	})

	t.Run("不支持的语言", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, user.ID, &UpdateProfileRequest{
			PreferredLanguage: utils.StringPtr("xx"),
		})
		assert.ErrorIs(t, err, errors.ErrInvalidParams)
	})

	t.Run("资料不存在", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, 99999, &UpdateProfileRequest{})
		assert.ErrorIs(t, err, errors.ErrProfileNotFound)
	})
}

func TestUserService_Wallets(t *testing.T) {
	db := setupUserTestDB(t)
	svc := NewUserService(db, repository.NewUserRepository(db), bcrypt.MinCost)
	ctx := context.Background()

	user := createProfiledUser(t, db, "WALL0001", "secret123")

	profile, err := svc.UpdateWallets(ctx, user.ID, &UpdateWalletsRequest{
		WalletBTC:       utils.StringPtr("bc1qwallet"),
		WalletUSDTTRC20: utils.StringPtr("Twallet"),
	})
	require.NoError(t, err)
	assert.Equal(t, "bc1qwallet", *profile.WalletFor(models.PayoutMethodBTC))
	assert.Equal(t, "Twallet", *profile.WalletFor(models.PayoutMethodUSDT))
	assert.Nil(t, profile.WalletFor(models.PayoutMethodETH))
}

func TestUserService_Telegram(t *testing.T) {
	db := setupUserTestDB(t)
	svc := NewUserService(db, repository.NewUserRepository(db), bcrypt.MinCost)
	ctx := context.Background()

	user := createProfiledUser(t, db, "TG000001", "secret123")

	require.NoError(t, svc.BindTelegram(ctx, user.ID, 777001))

	var profile models.UserProfile
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&profile).Error)
	require.NotNil(t, profile.TelegramChatID)
	assert.Equal(t, int64(777001), *profile.TelegramChatID)

	require.NoError(t, svc.UnbindTelegram(ctx, user.ID))
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&profile).Error)
	assert.Nil(t, profile.TelegramChatID)
}

func TestUserService_ChangePassword(t *testing.T) {
	db := setupUserTestDB(t)
	svc := NewUserService(db, repository.NewUserRepository(db), bcrypt.MinCost)
	ctx := context.Background()

	user := createProfiledUser(t, db, "PASS0001", "oldpass123")

	t.Run("旧密码错误", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, "wrongpass", "newpass123")
		assert.ErrorIs(t, err, errors.ErrPasswordError)
	})

	t.Run("修改成功", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(ctx, user.ID, "oldpass123", "newpass123"))

		var u models.User
		require.NoError(t, db.First(&u, user.ID).Error)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("newpass123")))
	})
}

func TestUserService_Admin(t *testing.T) {
	db := setupUserTestDB(t)
	svc := NewUserService(db, repository.NewUserRepository(db), bcrypt.MinCost)
	ctx := context.Background()

	user := createProfiledUser(t, db, "ADMIN001", "secret123")

	t.Run("禁用账号", func(t *testing.T) {
		require.NoError(t, svc.SetStatus(ctx, user.ID, models.UserStatusDisabled))

		var u models.User
		require.NoError(t, db.First(&u, user.ID).Error)
		assert.Equal(t, int8(models.UserStatusDisabled), u.Status)
	})

	t.Run("非法状态", func(t *testing.T) {
		err := svc.SetStatus(ctx, user.ID, 9)
		assert.ErrorIs(t, err, errors.ErrInvalidParams)
	})

	t.Run("调整默认佣金比例", func(t *testing.T) {
		require.NoError(t, svc.SetCommissionRate(ctx, user.ID, 35))

		var u models.User
		require.NoError(t, db.First(&u, user.ID).Error)
		assert.Equal(t, 35.0, u.CommissionRate)

		err := svc.SetCommissionRate(ctx, user.ID, 150)
		assert.ErrorIs(t, err, errors.ErrCommissionRateInvalid)
	})
}
