// Package middleware 提供 HTTP 中间件
package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/escortdollars/affiliate-backend/internal/common/config"
	"github.com/escortdollars/affiliate-backend/internal/models"
)

// ReferralClickRecorder 推荐点击记录接口
type ReferralClickRecorder interface {
	RecordClick(ctx context.Context, click *models.ReferralClick) error
}

// AffiliateTracking 推荐归因中间件
//
// 检测 ?ref= 参数并写入归因 Cookie。采用首次触达策略：
// 已存在归因 Cookie 的访客不会被后来的推荐码覆盖。
func AffiliateTracking(cfg *config.AffiliateConfig, recorder ReferralClickRecorder, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Query(cfg.RefParam)
		if code == "" {
			c.Next()
			return
		}

		// 首次触达：已有归因 Cookie 则不覆盖
		if existing, err := c.Cookie(cfg.CookieName); err == nil && existing != "" {
			c.Next()
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cfg.CookieName, code, int(cfg.CookieAgeDuration().Seconds()), "/", "", false, true)

		if recorder != nil {
			click := &models.ReferralClick{
				ReferralCode: code,
				IP:           c.ClientIP(),
				UserAgent:    c.Request.UserAgent(),
				LandingPath:  c.Request.URL.Path,
			}
			if err := recorder.RecordClick(c.Request.Context(), click); err != nil {
				logger.Warn("记录推荐点击失败",
					zap.String("referral_code", code),
					zap.Error(err),
				)
			}
		}

		c.Next()
	}
}

// GetAffiliateCode 从请求中解析归因推荐码（参数优先于 Cookie）
func GetAffiliateCode(c *gin.Context, cfg *config.AffiliateConfig) string {
	if code := c.Query(cfg.RefParam); code != "" {
		return code
	}
	code, _ := c.Cookie(cfg.CookieName)
	return code
}
