// Package middleware 提供 HTTP 中间件
package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/escortdollars/affiliate-backend/internal/common/response"
)

// APIKeyHeader 外部 API 密钥请求头
const APIKeyHeader = "X-API-Key"

// APIKeyAuth 外部 API 密钥认证中间件
func APIKeyAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			response.Forbidden(c, "外部 API 未启用")
			c.Abort()
			return
		}

		provided := c.GetHeader(APIKeyHeader)
		// 恒定时间比较
		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			response.Unauthorized(c, "无效的 API 密钥")
			c.Abort()
			return
		}

		c.Next()
	}
}
