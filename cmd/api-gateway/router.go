// Package main 是应用程序入口
package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/escortdollars/affiliate-backend/internal/common/config"
	"github.com/escortdollars/affiliate-backend/internal/common/jwt"
	"github.com/escortdollars/affiliate-backend/internal/common/metrics"
	commonMiddleware "github.com/escortdollars/affiliate-backend/internal/common/middleware"
	adminHandler "github.com/escortdollars/affiliate-backend/internal/handler/admin"
	affiliateHandler "github.com/escortdollars/affiliate-backend/internal/handler/affiliate"
	authHandler "github.com/escortdollars/affiliate-backend/internal/handler/auth"
	externalHandler "github.com/escortdollars/affiliate-backend/internal/handler/external"
	notificationHandler "github.com/escortdollars/affiliate-backend/internal/handler/notification"
	payoutHandler "github.com/escortdollars/affiliate-backend/internal/handler/payout"
	uploadHandler "github.com/escortdollars/affiliate-backend/internal/handler/upload"
	userHandler "github.com/escortdollars/affiliate-backend/internal/handler/user"
	webhookHandler "github.com/escortdollars/affiliate-backend/internal/handler/webhook"
	whitelabelHandler "github.com/escortdollars/affiliate-backend/internal/handler/whitelabel"
	"github.com/escortdollars/affiliate-backend/internal/middleware"
	"github.com/escortdollars/affiliate-backend/internal/repository"
	"github.com/escortdollars/affiliate-backend/internal/scheduler"
	adminService "github.com/escortdollars/affiliate-backend/internal/service/admin"
	affiliateService "github.com/escortdollars/affiliate-backend/internal/service/affiliate"
	authService "github.com/escortdollars/affiliate-backend/internal/service/auth"
	externalService "github.com/escortdollars/affiliate-backend/internal/service/external"
	notificationService "github.com/escortdollars/affiliate-backend/internal/service/notification"
	payoutService "github.com/escortdollars/affiliate-backend/internal/service/payout"
	syncService "github.com/escortdollars/affiliate-backend/internal/service/sync"
	uploadService "github.com/escortdollars/affiliate-backend/internal/service/upload"
	userService "github.com/escortdollars/affiliate-backend/internal/service/user"
	webhookService "github.com/escortdollars/affiliate-backend/internal/service/webhook"
	whitelabelService "github.com/escortdollars/affiliate-backend/internal/service/whitelabel"
	"github.com/escortdollars/affiliate-backend/pkg/coinpayments"
	"github.com/escortdollars/affiliate-backend/pkg/oss"
	"github.com/escortdollars/affiliate-backend/pkg/supabase"
	"github.com/escortdollars/affiliate-backend/pkg/telegram"
)

// setupRouter 组装依赖并注册全部路由，返回后台任务调度器供入口控制生命周期
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	log *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
) *scheduler.Scheduler {
	// JWT 管理器
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            cfg.JWT.Secret,
		AccessExpireTime:  cfg.JWT.AccessTokenDuration(),
		RefreshExpireTime: cfg.JWT.RefreshTokenDuration(),
		Issuer:            cfg.JWT.Issuer,
	})

	// 仓储层
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

	// 外部客户端
	gateway := newPayoutGateway(cfg, log)
	notifier := newTelegramNotifier(cfg, log)
	mirror := newSupabaseMirror(cfg)
	uploader := newUploader(cfg, log)

	affiliateCfg := &cfg.Business.Affiliate

	// 服务层
	activationSvc := authService.NewActivationService(redisClient, verificationRepo, nil)
	authSvc := authService.NewAuthService(db, userRepo, referralRepo, jwtManager, activationSvc, cfg.Crypto.BcryptCost)
	userSvc := userService.NewUserService(db, userRepo, cfg.Crypto.BcryptCost)
	commissionSvc := affiliateService.NewCommissionService(db, commissionRepo, rateRepo, referralRepo, userRepo, affiliateCfg)
	rateSvc := affiliateService.NewRateService(rateRepo, userRepo, affiliateCfg)
	referralSvc := affiliateService.NewReferralService(referralRepo, userRepo)
	statsSvc := affiliateService.NewStatsService(db, statsRepo, userRepo, commissionRepo, referralRepo)
	payoutSvc := payoutService.NewPayoutService(db, payoutRepo, commissionRepo, userRepo, gateway, &cfg.Business.Payout)
	whiteLabelSvc := whitelabelService.NewWhiteLabelService(whiteLabelRepo, userRepo, nil, affiliateCfg)
	bannerSvc := whitelabelService.NewBannerService(bannerRepo, whiteLabelRepo, affiliateCfg)
	notificationSvc := notificationService.NewNotificationService(notificationRepo, userRepo, notifier)
	syncSvc := syncService.NewSyncService(mirror)
	webhookSvc := webhookService.NewWebhookService(transactionRepo, commissionSvc, payoutSvc, &cfg.CoinPayments, &cfg.Stripe)
	externalSvc := externalService.NewExternalService(db, userRepo, referralRepo)
	adminSvc := adminService.NewAdminService(db, auditLogRepo)
	uploadSvc := uploadService.NewUploadService(uploader)

	// 业务钩子
	authSvc.SetSignupRewarder(commissionSvc)
	authSvc.SetWelcomeNotifier(notificationSvc)
	commissionSvc.SetNotifier(notificationSvc)
	referralSvc.SetNotifier(notificationSvc)
	payoutSvc.SetNotifier(notificationSvc)
	whiteLabelSvc.SetNotifier(notificationSvc)
	externalSvc.SetSignupRewarder(commissionSvc)
	if syncSvc.Enabled() {
		commissionSvc.SetMirror(syncSvc)
		whiteLabelSvc.SetMirror(syncSvc)
		webhookSvc.SetMirror(syncSvc)
	}

	// 全局中间件
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	r.Use(middleware.CORS(nil))
	if cfg.Tracing.Enabled {
		r.Use(commonMiddleware.Tracing(&commonMiddleware.TracingConfig{
			ServiceName: cfg.Tracing.ServiceName,
			SkipPaths:   []string{"/health", "/ping", "/ready", cfg.Metrics.Path},
		}))
	}
	r.Use(middleware.AccessLog(log))
	if cfg.Metrics.Enabled {
		m := metrics.Init("affiliate_backend")
		r.Use(m.Middleware())
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}
	r.Use(middleware.AffiliateTracking(affiliateCfg, referralSvc, log))

	// 健康检查
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient))

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 处理器
	authH := authHandler.NewHandler(authSvc, affiliateCfg)
	userH := userHandler.NewHandler(userSvc)
	affiliateH := affiliateHandler.NewHandler(commissionSvc, referralSvc, rateSvc, statsSvc)
	payoutH := payoutHandler.NewHandler(payoutSvc)
	whitelabelH := whitelabelHandler.NewHandler(whiteLabelSvc, bannerSvc, authSvc, affiliateCfg)
	notificationH := notificationHandler.NewHandler(notificationSvc)
	webhookH := webhookHandler.NewHandler(webhookSvc)
	externalH := externalHandler.NewHandler(externalSvc, referralSvc, whiteLabelSvc, cfg.ExternalAPI.APIKey)
	adminH := adminHandler.NewHandler(adminSvc, userSvc, commissionSvc, payoutSvc, whiteLabelSvc)
	uploadH := uploadHandler.NewHandler(uploadSvc)

	v1 := r.Group("/api/v1")

	// 公开路由
	public := v1.Group("")
	{
		authH.RegisterRoutes(public, middleware.EmailCodeRateLimit(redisClient))
		affiliateH.RegisterRoutes(public)
		whitelabelH.RegisterRoutes(public)
		webhookH.RegisterRoutes(public)
	}

	// 对外 API（X-API-Key 认证）
	externalH.RegisterRoutes(v1)

	// 用户路由（JWT 认证）
	user := v1.Group("")
	user.Use(middleware.UserAuth(jwtManager))
	{
		authH.RegisterProtectedRoutes(user)
		userH.RegisterProtectedRoutes(user)
		affiliateH.RegisterProtectedRoutes(user)
		payoutH.RegisterProtectedRoutes(user)
		whitelabelH.RegisterProtectedRoutes(user)
		notificationH.RegisterProtectedRoutes(user)
		uploadH.RegisterProtectedRoutes(user)
	}

	// 管理端路由，写操作落审计日志
	admin := v1.Group("")
	admin.Use(middleware.AdminAuth(jwtManager))
	admin.Use(commonMiddleware.NewOperationLogger(auditLogRepo).Log())
	{
		adminH.RegisterProtectedRoutes(admin)
	}

	// 404 处理
	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"code":    404,
			"message": "接口不存在",
		})
	})

	// 后台定时任务
	sched := scheduler.NewScheduler()
	taskHandler := scheduler.NewTaskHandler(statsSvc, payoutSvc, verificationRepo, referralRepo, auditLogRepo, notificationRepo)
	if err := scheduler.SetupTasks(sched, taskHandler); err != nil {
		log.Fatal("Failed to setup scheduled tasks", zap.Error(err))
	}

	return sched
}

// newPayoutGateway 创建提现网关，未配置密钥时退化为内存模拟实现
func newPayoutGateway(cfg *config.Config, log *zap.Logger) coinpayments.Gateway {
	if cfg.CoinPayments.APIKey == "" || cfg.CoinPayments.APISecret == "" {
		log.Warn("CoinPayments credentials not configured, using mock gateway")
		return coinpayments.NewMockGateway()
	}
	return coinpayments.NewClient(&coinpayments.Config{
		APIKey:     cfg.CoinPayments.APIKey,
		APISecret:  cfg.CoinPayments.APISecret,
		IPNSecret:  cfg.CoinPayments.IPNSecret,
		MerchantID: cfg.CoinPayments.MerchantID,
		IPNURL:     cfg.CoinPayments.IPNURL,
		Timeout:    time.Duration(cfg.CoinPayments.Timeout) * time.Second,
	})
}

// newTelegramNotifier 创建 Telegram 通知器，未启用时返回 nil（站内通知仍然生效）
func newTelegramNotifier(cfg *config.Config, log *zap.Logger) telegram.Notifier {
	if !cfg.Telegram.Enabled {
		return nil
	}
	notifier, err := telegram.NewBotNotifier(&telegram.Config{
		BotToken:      cfg.Telegram.BotToken,
		AdminChatID:   cfg.Telegram.AdminChatID,
		RetryAttempts: cfg.Telegram.RetryAttempts,
		RetryBackoff:  time.Duration(cfg.Telegram.RetryBackoff) * time.Second,
	}, log)
	if err != nil {
		log.Warn("Failed to init telegram notifier, in-app notifications only", zap.Error(err))
		return nil
	}
	return notifier
}

// newSupabaseMirror 创建 Supabase 镜像客户端，未启用时返回 nil
func newSupabaseMirror(cfg *config.Config) supabase.Mirror {
	if !cfg.Supabase.Enabled {
		return nil
	}
	return supabase.NewClient(&supabase.Config{
		URL:        cfg.Supabase.URL,
		ServiceKey: cfg.Supabase.ServiceKey,
		Timeout:    time.Duration(cfg.Supabase.Timeout) * time.Second,
	})
}

// newUploader 创建对象存储上传器，未配置时退化为内存模拟实现
func newUploader(cfg *config.Config, log *zap.Logger) oss.Uploader {
	if cfg.OSS.AccessKeyID == "" || cfg.OSS.AccessKeySecret == "" {
		log.Warn("OSS credentials not configured, using mock uploader")
		return oss.NewMockUploader()
	}
	uploader, err := oss.NewAliyunUploader(&oss.AliyunConfig{
		Endpoint:        cfg.OSS.Endpoint,
		AccessKeyID:     cfg.OSS.AccessKeyID,
		AccessKeySecret: cfg.OSS.AccessKeySecret,
		BucketName:      cfg.OSS.Bucket,
		Domain:          cfg.OSS.CustomDomain,
		BasePath:        cfg.OSS.UploadDir,
	})
	if err != nil {
		log.Warn("Failed to init OSS uploader, using mock uploader", zap.Error(err))
		return oss.NewMockUploader()
	}
	return uploader
}
