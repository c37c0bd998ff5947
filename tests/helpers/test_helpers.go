// Package helpers 提供测试辅助工具
package helpers

import (
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/escortdollars/affiliate-backend/internal/models"
)

func init() {
	rand.Seed(time.Now().UnixNano())
}

// RandomString 生成随机字符串
func RandomString(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

// RandomEmail 生成随机邮箱
func RandomEmail() string {
	return fmt.Sprintf("user%08d@example.com", rand.Intn(100000000))
}

// RandomReferralCode 生成随机推荐码
func RandomReferralCode() string {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, models.ReferralCodeLength)
	for i := range b {
		b[i] = chars[rand.Intn(len(chars))]
	}
	return string(b)
}

// RandomInt 生成随机整数
func RandomInt(min, max int) int {
	return rand.Intn(max-min+1) + min
}

// RandomFloat 生成随机浮点数
func RandomFloat(min, max float64) float64 {
	return min + rand.Float64()*(max-min)
}

// HashPassword 生成 bcrypt 哈希（测试用最低成本）
func HashPassword(password string) string {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(hash)
}

// NewTestUser 创建指定类型的测试用户
func NewTestUser(userType string) *models.User {
	return &models.User{
		Username:       "user_" + RandomString(8),
		Email:          RandomEmail(),
		PasswordHash:   HashPassword("password123"),
		UserType:       userType,
		ReferralCode:   RandomReferralCode(),
		CommissionRate: 20,
		IsActive:       true,
		Status:         models.UserStatusActive,
	}
}

// NewTestAmbassador 创建测试大使
func NewTestAmbassador() *models.User {
	return NewTestUser(models.UserTypeAmbassador)
}

// NewTestEscort 创建被推荐的测试陪护
func NewTestEscort(referredByID int64) *models.User {
	escort := NewTestUser(models.UserTypeEscort)
	escort.ReferredByID = &referredByID
	return escort
}

// NewTestAdmin 创建测试管理员
func NewTestAdmin() *models.User {
	return NewTestUser(models.UserTypeAdministrator)
}

// NewTestProfile 创建测试用户资料
func NewTestProfile(userID int64, language string) *models.UserProfile {
	wallet := "T" + RandomString(33)
	return &models.UserProfile{
		UserID:            userID,
		PreferredLanguage: language,
		WalletUSDTTRC20:   &wallet,
	}
}

// NewTestReferral 创建测试推荐关系
func NewTestReferral(referrerID, referredID int64, code string) *models.Referral {
	return &models.Referral{
		ReferrerID:   referrerID,
		ReferredID:   referredID,
		ReferralCode: code,
	}
}

// NewTestCommission 创建测试佣金记录
func NewTestCommission(userID int64, amount float64, status string) *models.Commission {
	return &models.Commission{
		UserID:         userID,
		CommissionType: models.CommissionTypeTransaction,
		GrossAmount:    amount * 5,
		Rate:           20,
		Amount:         amount,
		Status:         status,
	}
}

// NewTestTransaction 创建测试支付交易
func NewTestTransaction(userID int64, amount float64) *models.Transaction {
	return &models.Transaction{
		UserID:    userID,
		PaymentID: "txn_" + RandomString(16),
		Gateway:   models.GatewayCoinPayments,
		Amount:    amount,
		Currency:  "EUR",
		Status:    models.TransactionStatusCompleted,
	}
}

// NewTestPayout 创建测试结算单
func NewTestPayout(ambassadorID int64, amount float64, status string) *models.Payout {
	return &models.Payout{
		BatchNo:       fmt.Sprintf("PO%s%06d", time.Now().Format("20060102150405"), rand.Intn(1000000)),
		AmbassadorID:  ambassadorID,
		Amount:        amount,
		Method:        models.PayoutMethodUSDT,
		WalletAddress: "T" + RandomString(33),
		Status:        status,
	}
}

// NewTestWhiteLabel 创建测试白标站点
func NewTestWhiteLabel(ambassadorID int64) *models.WhiteLabel {
	return &models.WhiteLabel{
		AmbassadorID:        ambassadorID,
		Name:                "测试站点" + RandomString(4),
		Domain:              fmt.Sprintf("site-%s.example.com", RandomString(6)),
		DNSVerificationCode: RandomString(32),
		IsActive:            true,
	}
}

// NewTestBanner 创建测试横幅
func NewTestBanner(whiteLabelID int64) *models.Banner {
	imageURL := fmt.Sprintf("https://cdn.example.com/banners/%s.png", RandomString(8))
	return &models.Banner{
		WhiteLabelID: whiteLabelID,
		Title:        "测试横幅" + RandomString(4),
		BannerType:   models.BannerTypePersonal,
		ImageURL:     &imageURL,
		IsActive:     true,
	}
}
