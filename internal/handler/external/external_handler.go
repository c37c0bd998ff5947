// Package external 第三方系统 HTTP Handler
package external

import (
	"github.com/gin-gonic/gin"

	"github.com/escortdollars/affiliate-backend/internal/common/handler"
	"github.com/escortdollars/affiliate-backend/internal/common/response"
	"github.com/escortdollars/affiliate-backend/internal/middleware"
	affiliateService "github.com/escortdollars/affiliate-backend/internal/service/affiliate"
	externalService "github.com/escortdollars/affiliate-backend/internal/service/external"
	whitelabelService "github.com/escortdollars/affiliate-backend/internal/service/whitelabel"
)

// Handler 第三方系统处理器
type Handler struct {
	externalService   *externalService.ExternalService
	referralService   *affiliateService.ReferralService
	whiteLabelService *whitelabelService.WhiteLabelService
	apiKey            string
}

// NewHandler 创建第三方系统处理器
func NewHandler(
	externalSvc *externalService.ExternalService,
	referralSvc *affiliateService.ReferralService,
	whiteLabelSvc *whitelabelService.WhiteLabelService,
	apiKey string,
) *Handler {
	return &Handler{
		externalService:   externalSvc,
		referralService:   referralSvc,
		whiteLabelService: whiteLabelSvc,
		apiKey:            apiKey,
	}
}

// CreateReferral 登记站外推荐转化
// @Summary 登记站外推荐转化
// @Tags 第三方
// @Accept json
// @Produce json
// @Param X-API-Key header string true "API 密钥"
// @Param request body externalService.CreateReferralRequest true "请求参数"
// @Success 200 {object} response.Response{data=externalService.CreateReferralResult}
// @Router /external/referrals [post]
func (h *Handler) CreateReferral(c *gin.Context) {
	var req externalService.CreateReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.externalService.CreateReferral(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// GetWhiteLabel 按域名获取白标站点元数据
// @Summary 按域名获取白标站点元数据
// @Tags 第三方
// @Produce json
// @Param X-API-Key header string true "API 密钥"
// @Param domain path string true "域名"
// @Success 200 {object} response.Response{data=models.WhiteLabel}
// @Router /external/whitelabels/{domain} [get]
func (h *Handler) GetWhiteLabel(c *gin.Context) {
	domain := c.Param("domain")
	if domain == "" {
		response.BadRequest(c, "域名不能为空")
		return
	}

	site, err := h.whiteLabelService.GetPublicByDomain(c.Request.Context(), domain)
	handler.MustSucceed(c, err, site)
}

// CheckReferralCode 校验推荐码有效性
// @Summary 校验推荐码有效性
// @Tags 第三方
// @Produce json
// @Param X-API-Key header string true "API 密钥"
// @Param code path string true "推荐码"
// @Success 200 {object} response.Response
// @Router /external/referral-codes/{code} [get]
func (h *Handler) CheckReferralCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, "推荐码不能为空")
		return
	}

	referrer, err := h.referralService.ResolveCode(c.Request.Context(), code)
	if err != nil {
		response.Success(c, gin.H{"valid": false})
		return
	}

	response.Success(c, gin.H{
		"valid":         true,
		"referral_code": referrer.ReferralCode,
		"user_type":     referrer.UserType,
	})
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	external := r.Group("/external", middleware.APIKeyAuth(h.apiKey))
	{
		external.POST("/referrals", h.CreateReferral)
		external.GET("/whitelabels/:domain", h.GetWhiteLabel)
		external.GET("/referral-codes/:code", h.CheckReferralCode)
	}
}
