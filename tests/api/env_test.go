//go:build api

// Package api HTTP 接口测试环境
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/escortdollars/affiliate-backend/internal/common/config"
	"github.com/escortdollars/affiliate-backend/internal/common/jwt"
	adminHandler "github.com/escortdollars/affiliate-backend/internal/handler/admin"
	affiliateHandler "github.com/escortdollars/affiliate-backend/internal/handler/affiliate"
	authHandler "github.com/escortdollars/affiliate-backend/internal/handler/auth"
	externalHandler "github.com/escortdollars/affiliate-backend/internal/handler/external"
	notificationHandler "github.com/escortdollars/affiliate-backend/internal/handler/notification"
	payoutHandler "github.com/escortdollars/affiliate-backend/internal/handler/payout"
	webhookHandler "github.com/escortdollars/affiliate-backend/internal/handler/webhook"
	whitelabelHandler "github.com/escortdollars/affiliate-backend/internal/handler/whitelabel"
	"github.com/escortdollars/affiliate-backend/internal/middleware"
	"github.com/escortdollars/affiliate-backend/internal/models"
	"github.com/escortdollars/affiliate-backend/internal/repository"
	adminService "github.com/escortdollars/affiliate-backend/internal/service/admin"
	affiliateService "github.com/escortdollars/affiliate-backend/internal/service/affiliate"
	authService "github.com/escortdollars/affiliate-backend/internal/service/auth"
	externalService "github.com/escortdollars/affiliate-backend/internal/service/external"
	notificationService "github.com/escortdollars/affiliate-backend/internal/service/notification"
	payoutService "github.com/escortdollars/affiliate-backend/internal/service/payout"
	userService "github.com/escortdollars/affiliate-backend/internal/service/user"
	webhookService "github.com/escortdollars/affiliate-backend/internal/service/webhook"
	whitelabelService "github.com/escortdollars/affiliate-backend/internal/service/whitelabel"
	"github.com/escortdollars/affiliate-backend/pkg/coinpayments"
	"github.com/escortdollars/affiliate-backend/tests/helpers"
)

// testAPIKey 对外 API 测试密钥
const testAPIKey = "test-external-api-key"

// testEnv 接口测试环境
type testEnv struct {
	db            *gorm.DB
	router        *gin.Engine
	authSvc       *authService.AuthService
	commissionSvc *affiliateService.CommissionService
	resolver      *helpers.MockTXTResolver
}

// apiResponse 统一响应体
type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.VerificationCode{},
		&models.Referral{},
		&models.ReferralClick{},
		&models.Commission{},
		&models.CommissionRate{},
		&models.Payout{},
		&models.Transaction{},
		&models.WhiteLabel{},
		&models.Banner{},
		&models.Notification{},
		&models.UserStatistics{},
		&models.AuditLog{},
	)
	require.NoError(t, err)

	return db
}

// newTestEnv 装配完整的接口测试环境
func newTestEnv(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)

	db := setupTestDB(t)
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            "test-secret-key",
		AccessExpireTime:  time.Hour,
		RefreshExpireTime: 2 * time.Hour,
		Issuer:            "test",
	})

	affiliateCfg := &config.AffiliateConfig{
		RefParam:           "ref",
		CookieName:         "aff_ref",
		CookieAge:          30,
		EscortRate:         30,
		AmbassadorRate:     10,
		MinCommissionRate:  1,
		MaxCommissionRate:  50,
		MaxWhiteLabels:     3,
		MaxPersonalBanners: 3,
		DNSVerifyPrefix:    "_affiliate-verify",
		DNSVerifyTimeout:   5,
	}
	payoutCfg := &config.PayoutConfig{
		MinAmount:        50,
		SupportedMethods: []string{"btc", "eth", "usdt"},
	}
	cpCfg := &config.CoinPaymentsConfig{IPNSecret: "test-ipn-secret", MerchantID: "test-merchant"}
	stripeCfg := &config.StripeConfig{WebhookSecret: "whsec_test", Tolerance: 300}

	userRepo := repository.NewUserRepository(db)
	verificationRepo := repository.NewVerificationCodeRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	rateRepo := repository.NewCommissionRateRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	whiteLabelRepo := repository.NewWhiteLabelRepository(db)
	bannerRepo := repository.NewBannerRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)

	resolver := &helpers.MockTXTResolver{}

	activationSvc := authService.NewActivationService(redisClient, verificationRepo, nil)
	authSvc := authService.NewAuthService(db, userRepo, referralRepo, jwtManager, activationSvc, 4)
	userSvc := userService.NewUserService(db, userRepo, 4)
	commissionSvc := affiliateService.NewCommissionService(db, commissionRepo, rateRepo, referralRepo, userRepo, affiliateCfg)
	rateSvc := affiliateService.NewRateService(rateRepo, userRepo, affiliateCfg)
	referralSvc := affiliateService.NewReferralService(referralRepo, userRepo)
	statsSvc := affiliateService.NewStatsService(db, statsRepo, userRepo, commissionRepo, referralRepo)
	payoutSvc := payoutService.NewPayoutService(db, payoutRepo, commissionRepo, userRepo, coinpayments.NewMockGateway(), payoutCfg)
	whiteLabelSvc := whitelabelService.NewWhiteLabelService(whiteLabelRepo, userRepo, resolver, affiliateCfg)
	bannerSvc := whitelabelService.NewBannerService(bannerRepo, whiteLabelRepo, affiliateCfg)
	notificationSvc := notificationService.NewNotificationService(notificationRepo, userRepo, nil)
	webhookSvc := webhookService.NewWebhookService(transactionRepo, commissionSvc, payoutSvc, cpCfg, stripeCfg)
	externalSvc := externalService.NewExternalService(db, userRepo, referralRepo)
	adminSvc := adminService.NewAdminService(db, auditLogRepo)

	authSvc.SetSignupRewarder(commissionSvc)
	authSvc.SetWelcomeNotifier(notificationSvc)
	commissionSvc.SetNotifier(notificationSvc)
	referralSvc.SetNotifier(notificationSvc)
	payoutSvc.SetNotifier(notificationSvc)
	whiteLabelSvc.SetNotifier(notificationSvc)
	externalSvc.SetSignupRewarder(commissionSvc)

	authH := authHandler.NewHandler(authSvc, affiliateCfg)
	affiliateH := affiliateHandler.NewHandler(commissionSvc, referralSvc, rateSvc, statsSvc)
	payoutH := payoutHandler.NewHandler(payoutSvc)
	whitelabelH := whitelabelHandler.NewHandler(whiteLabelSvc, bannerSvc, authSvc, affiliateCfg)
	notificationH := notificationHandler.NewHandler(notificationSvc)
	webhookH := webhookHandler.NewHandler(webhookSvc)
	externalH := externalHandler.NewHandler(externalSvc, referralSvc, whiteLabelSvc, testAPIKey)
	adminH := adminHandler.NewHandler(adminSvc, userSvc, commissionSvc, payoutSvc, whiteLabelSvc)

	r := gin.New()
	r.Use(middleware.AffiliateTracking(affiliateCfg, referralSvc, zap.NewNop()))

	v1 := r.Group("/api/v1")

	public := v1.Group("")
	{
		authH.RegisterRoutes(public)
		affiliateH.RegisterRoutes(public)
		whitelabelH.RegisterRoutes(public)
		webhookH.RegisterRoutes(public)
	}

	externalH.RegisterRoutes(v1)

	user := v1.Group("")
	user.Use(middleware.UserAuth(jwtManager))
	{
		authH.RegisterProtectedRoutes(user)
		affiliateH.RegisterProtectedRoutes(user)
		payoutH.RegisterProtectedRoutes(user)
		whitelabelH.RegisterProtectedRoutes(user)
		notificationH.RegisterProtectedRoutes(user)
	}

	admin := v1.Group("")
	admin.Use(middleware.AdminAuth(jwtManager))
	{
		adminH.RegisterProtectedRoutes(admin)
	}

	return &testEnv{
		db:            db,
		router:        r,
		authSvc:       authSvc,
		commissionSvc: commissionSvc,
		resolver:      resolver,
	}
}

// request 发送 JSON 请求并解析统一响应体
func (e *testEnv) request(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, *apiResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	resp := &apiResponse{}
	if strings.Contains(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), resp))
	}
	return w, resp
}

// seedUser 写入用户并返回登录令牌
func (e *testEnv) seedUser(t *testing.T, user *models.User) string {
	t.Helper()

	require.NoError(t, e.db.Create(user).Error)
	require.NoError(t, e.db.Create(&models.UserProfile{
		UserID:            user.ID,
		PreferredLanguage: models.LanguageEnglish,
	}).Error)

	return e.login(t, user.Username)
}

// login 以默认测试密码登录
func (e *testEnv) login(t *testing.T, account string) string {
	t.Helper()

	_, resp := e.request(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"account":  account,
		"password": "password123",
	}, "")
	require.Equal(t, 0, resp.Code, "login failed: %s", resp.Message)

	var data struct {
		Token struct {
			AccessToken string `json:"access_token"`
		} `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NotEmpty(t, data.Token.AccessToken)
	return data.Token.AccessToken
}
