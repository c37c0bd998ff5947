// Package webhook 支付回调 HTTP Handler
package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/escortdollars/affiliate-backend/internal/common/logger"
	"github.com/escortdollars/affiliate-backend/internal/common/response"
	webhookService "github.com/escortdollars/affiliate-backend/internal/service/webhook"
	"github.com/escortdollars/affiliate-backend/pkg/coinpayments"
)

// StripeSignatureHeader Stripe 签名请求头
const StripeSignatureHeader = "Stripe-Signature"

// Handler 支付回调处理器
type Handler struct {
	webhookService *webhookService.WebhookService
}

// NewHandler 创建支付回调处理器
func NewHandler(webhookSvc *webhookService.WebhookService) *Handler {
	return &Handler{webhookService: webhookSvc}
}

// CoinPaymentsIPN 处理 CoinPayments IPN
// @Summary 处理 CoinPayments IPN
// @Tags 回调
// @Accept x-www-form-urlencoded
// @Produce plain
// @Success 200 {string} string "IPN OK"
// @Router /webhooks/coinpayments [post]
func (h *Handler) CoinPaymentsIPN(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "读取请求体失败")
		return
	}

	signature := c.GetHeader(coinpayments.IPNHeader)
	if err := h.webhookService.HandleCoinPaymentsIPN(c.Request.Context(), body, signature); err != nil {
		logger.Warn("CoinPayments IPN 处理失败",
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		response.BadRequest(c, "IPN 校验失败")
		return
	}

	c.String(http.StatusOK, "IPN OK")
}

// StripeWebhook 处理 Stripe Webhook
// @Summary 处理 Stripe Webhook
// @Tags 回调
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /webhooks/stripe [post]
func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "读取请求体失败")
		return
	}

	sigHeader := c.GetHeader(StripeSignatureHeader)
	if err := h.webhookService.HandleStripeEvent(c.Request.Context(), payload, sigHeader); err != nil {
		logger.Warn("Stripe Webhook 处理失败",
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		response.BadRequest(c, "Webhook 校验失败")
		return
	}

	response.Success(c, nil)
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/coinpayments", h.CoinPaymentsIPN)
		webhooks.POST("/stripe", h.StripeWebhook)
	}
}
