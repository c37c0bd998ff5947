// Package models 定义数据模型
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// User 用户模型
type User struct {
	ID                    int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username              string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email                 string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash          string     `gorm:"type:varchar(255);not null" json:"-"`
	UserType              string     `gorm:"type:varchar(20);not null;default:'member'" json:"user_type"`
	ReferralCode          string     `gorm:"type:varchar(20);uniqueIndex;not null" json:"referral_code"`
	ReferredByID          *int64     `gorm:"index" json:"referred_by_id,omitempty"`
	CommissionRate        float64    `gorm:"type:decimal(5,2);not null;default:20" json:"commission_rate"`
	TotalCommissionEarned float64    `gorm:"type:decimal(12,2);not null;default:0" json:"total_commission_earned"`
	PendingCommission     float64    `gorm:"type:decimal(12,2);not null;default:0" json:"pending_commission"`
	IsActive              bool       `gorm:"not null;default:false" json:"is_active"`
	Status                int8       `gorm:"type:smallint;not null;default:1" json:"status"`
	LastLoginAt           *time.Time `json:"last_login_at,omitempty"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	ReferredBy *User        `gorm:"foreignKey:ReferredByID" json:"referred_by,omitempty"`
	Profile    *UserProfile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

// TableName 表名
func (User) TableName() string {
	return "users"
}

// IsAmbassador 是否为大使
func (u *User) IsAmbassador() bool {
	return u.UserType == UserTypeAmbassador
}

// IsEscort 是否为陪护
func (u *User) IsEscort() bool {
	return u.UserType == UserTypeEscort
}

// IsAdministrator 是否为管理员
func (u *User) IsAdministrator() bool {
	return u.UserType == UserTypeAdministrator
}

// UserType 用户类型
const (
	UserTypeAmbassador    = "ambassador"    // 大使（推广人）
	UserTypeEscort        = "escort"        // 陪护
	UserTypeMember        = "member"        // 普通会员
	UserTypeAdministrator = "administrator" // 管理员
)

// UserStatus 用户状态
const (
	UserStatusDisabled = 0 // 禁用
	UserStatusActive   = 1 // 正常
)

// ReferralCodeLength 推荐码长度
const ReferralCodeLength = 8

// UserProfile 用户资料
type UserProfile struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	CompanyName       *string   `gorm:"type:varchar(100)" json:"company_name,omitempty"`
	VATID             *string   `gorm:"type:varchar(50)" json:"vat_id,omitempty"`
	Website           *string   `gorm:"type:varchar(255)" json:"website,omitempty"`
	Address           *string   `gorm:"type:varchar(255)" json:"address,omitempty"`
	ZipCode           *string   `gorm:"type:varchar(20)" json:"zip_code,omitempty"`
	City              *string   `gorm:"type:varchar(100)" json:"city,omitempty"`
	Country           *string   `gorm:"type:varchar(100)" json:"country,omitempty"`
	WalletUSDTTRC20   *string   `gorm:"column:wallet_usdt_trc20;type:varchar(128)" json:"wallet_usdt_trc20,omitempty"`
	WalletBTC         *string   `gorm:"column:wallet_btc;type:varchar(128)" json:"wallet_btc,omitempty"`
	WalletETHERC20    *string   `gorm:"column:wallet_eth_erc20;type:varchar(128)" json:"wallet_eth_erc20,omitempty"`
	PreferredLanguage string    `gorm:"type:varchar(5);not null;default:'en'" json:"preferred_language"`
	TelegramChatID    *int64    `gorm:"index" json:"telegram_chat_id,omitempty"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (UserProfile) TableName() string {
	return "user_profiles"
}

// WalletFor 返回指定结算方式对应的钱包地址
func (p *UserProfile) WalletFor(method string) *string {
	switch method {
	case PayoutMethodBTC:
		return p.WalletBTC
	case PayoutMethodETH:
		return p.WalletETHERC20
	case PayoutMethodUSDT:
		return p.WalletUSDTTRC20
	}
	return nil
}

// Language 通知语言
const (
	LanguageEnglish = "en"
	LanguageFrench  = "fr"
	LanguageRussian = "ru"
	LanguageGerman  = "de"
	LanguageChinese = "zh"
	LanguageSpanish = "es"
	LanguageItalian = "it"
	LanguageArabic  = "ar"
)

// SupportedLanguages 支持的通知语言
var SupportedLanguages = []string{
	LanguageEnglish, LanguageFrench, LanguageRussian, LanguageGerman,
	LanguageChinese, LanguageSpanish, LanguageItalian, LanguageArabic,
}

// VerificationCode 验证码（激活、找回密码）
type VerificationCode struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64      `gorm:"index;not null" json:"user_id"`
	Code      string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Purpose   string     `gorm:"type:varchar(20);not null" json:"purpose"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (VerificationCode) TableName() string {
	return "verification_codes"
}

// IsExpired 验证码是否已过期
func (v *VerificationCode) IsExpired() bool {
	return time.Now().After(v.ExpiresAt)
}

// IsUsed 验证码是否已使用
func (v *VerificationCode) IsUsed() bool {
	return v.UsedAt != nil
}

// VerificationPurpose 验证码用途
const (
	VerificationPurposeActivation    = "activation"     // 账号激活
	VerificationPurposePasswordReset = "password_reset" // 找回密码
)

// JSON 自定义 JSON 类型
type JSON map[string]interface{}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}
