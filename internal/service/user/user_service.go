// Package user 用户资料服务
package user

import (
	"context"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/escortdollars/affiliate-backend/internal/common/crypto"
	"github.com/escortdollars/affiliate-backend/internal/common/errors"
	"github.com/escortdollars/affiliate-backend/internal/common/utils"
	"github.com/escortdollars/affiliate-backend/internal/models"
	"github.com/escortdollars/affiliate-backend/internal/repository"
)

// UserService 用户资料服务
type UserService struct {
	db         *gorm.DB
	userRepo   *repository.UserRepository
	bcryptCost int
}

// NewUserService 创建用户资料服务
func NewUserService(db *gorm.DB, userRepo *repository.UserRepository, bcryptCost int) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		db:         db,
		userRepo:   userRepo,
		bcryptCost: bcryptCost,
	}
}

// GetProfile 获取用户及资料
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByIDWithProfile(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return user, nil
}

// UpdateProfileRequest 更新资料请求
type UpdateProfileRequest struct {
	CompanyName       *string `json:"company_name,omitempty"`
	VATID             *string `json:"vat_id,omitempty"`
	Website           *string `json:"website,omitempty"`
	Address           *string `json:"address,omitempty"`
	ZipCode           *string `json:"zip_code,omitempty"`
	City              *string `json:"city,omitempty"`
	Country           *string `json:"country,omitempty"`
	PreferredLanguage *string `json:"preferred_language,omitempty"`
}

// UpdateProfile 更新用户资料
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*models.UserProfile, error) {
	profile, err := s.userRepo.GetProfileByUserID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrProfileNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if req.CompanyName != nil {
		profile.CompanyName = req.CompanyName
	}
	if req.VATID != nil {
		profile.VATID = req.VATID
	}
	if req.Website != nil {
		profile.Website = req.Website
	}
	if req.Address != nil {
		profile.Address = req.Address
	}
	if req.ZipCode != nil {
		profile.ZipCode = req.ZipCode
	}
	if req.City != nil {
		profile.City = req.City
	}
	if req.Country != nil {
		profile.Country = req.Country
	}
	if req.PreferredLanguage != nil {
		if !utils.Contains(models.SupportedLanguages, *req.PreferredLanguage) {
			return nil, errors.ErrInvalidParams
		}
		profile.PreferredLanguage = *req.PreferredLanguage
	}

	if err := s.userRepo.UpdateProfile(ctx, profile); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return profile, nil
}

// UpdateWalletsRequest 更新结算钱包请求
type UpdateWalletsRequest struct {
	WalletUSDTTRC20 *string `json:"wallet_usdt_trc20,omitempty"`
	WalletBTC       *string `json:"wallet_btc,omitempty"`
	WalletETHERC20  *string `json:"wallet_eth_erc20,omitempty"`
}

// UpdateWallets 更新结算钱包地址
func (s *UserService) UpdateWallets(ctx context.Context, userID int64, req *UpdateWalletsRequest) (*models.UserProfile, error) {
	profile, err := s.userRepo.GetProfileByUserID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrProfileNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if req.WalletUSDTTRC20 != nil {
		profile.WalletUSDTTRC20 = req.WalletUSDTTRC20
	}
	if req.WalletBTC != nil {
		profile.WalletBTC = req.WalletBTC
	}
	if req.WalletETHERC20 != nil {
		profile.WalletETHERC20 = req.WalletETHERC20
	}

	if err := s.userRepo.UpdateProfile(ctx, profile); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return profile, nil
}

// BindTelegram 绑定 Telegram 会话
func (s *UserService) BindTelegram(ctx context.Context, userID, chatID int64) error {
	profile, err := s.userRepo.GetProfileByUserID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrProfileNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	profile.TelegramChatID = &chatID
	if err := s.userRepo.UpdateProfile(ctx, profile); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// UnbindTelegram 解绑 Telegram
func (s *UserService) UnbindTelegram(ctx context.Context, userID int64) error {
	profile, err := s.userRepo.GetProfileByUserID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrProfileNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	profile.TelegramChatID = nil
	if err := s.db.WithContext(ctx).Model(&models.UserProfile{}).
		Where("id = ?", profile.ID).
		Update("telegram_chat_id", nil).Error; err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// ChangePassword 修改密码
func (s *UserService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrUserNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	if !crypto.VerifyPassword(oldPassword, user.PasswordHash) {
		return errors.ErrPasswordError
	}

	hash, err := crypto.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return errors.ErrInternalError.WithError(err)
	}

	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"password_hash": hash,
	}); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// List 获取用户列表（管理端）
func (s *UserService) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.User, int64, error) {
	return s.userRepo.List(ctx, offset, limit, filters)
}

// SetStatus 启用/禁用账号（管理端）
func (s *UserService) SetStatus(ctx context.Context, userID int64, status int8) error {
	if status != models.UserStatusActive && status != models.UserStatusDisabled {
		return errors.ErrInvalidParams
	}
	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"status": status,
	}); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// SetCommissionRate 调整大使默认佣金比例（管理端）
func (s *UserService) SetCommissionRate(ctx context.Context, userID int64, rate float64) error {
	if rate < 0 || rate > 100 {
		return errors.ErrCommissionRateInvalid
	}
	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"commission_rate": rate,
	}); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}
