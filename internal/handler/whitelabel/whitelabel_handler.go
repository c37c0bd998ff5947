// Package whitelabel 白标站点 HTTP Handler
package whitelabel

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/escortdollars/affiliate-backend/internal/common/config"
	"github.com/escortdollars/affiliate-backend/internal/common/handler"
	"github.com/escortdollars/affiliate-backend/internal/common/qrcode"
	"github.com/escortdollars/affiliate-backend/internal/common/response"
	"github.com/escortdollars/affiliate-backend/internal/models"
	whitelabelService "github.com/escortdollars/affiliate-backend/internal/service/whitelabel"
)

// UserGetter 按 ID 获取用户
type UserGetter interface {
	GetUserByID(ctx context.Context, userID int64) (*models.User, error)
}

// Handler 白标站点处理器
type Handler struct {
	whiteLabelService *whitelabelService.WhiteLabelService
	bannerService     *whitelabelService.BannerService
	users             UserGetter
	affiliateCfg      *config.AffiliateConfig
}

// NewHandler 创建白标站点处理器
func NewHandler(
	whiteLabelSvc *whitelabelService.WhiteLabelService,
	bannerSvc *whitelabelService.BannerService,
	users UserGetter,
	affiliateCfg *config.AffiliateConfig,
) *Handler {
	return &Handler{
		whiteLabelService: whiteLabelSvc,
		bannerService:     bannerSvc,
		users:             users,
		affiliateCfg:      affiliateCfg,
	}
}

// Create 创建白标站点
// @Summary 创建白标站点
// @Tags 白标站点
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body whitelabelService.CreateRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.WhiteLabel}
// @Router /whitelabels [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req whitelabelService.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	site, err := h.whiteLabelService.Create(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, site)
}

// List 获取我的白标站点列表
// @Summary 获取我的白标站点列表
// @Tags 白标站点
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=[]models.WhiteLabel}
// @Router /whitelabels [get]
func (h *Handler) List(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	sites, err := h.whiteLabelService.ListByAmbassador(c.Request.Context(), userID)
	handler.MustSucceed(c, err, sites)
}

// GetByID 获取白标站点详情
// @Summary 获取白标站点详情
// @Tags 白标站点
// @Produce json
// @Security Bearer
// @Param id path int true "站点ID"
// @Success 200 {object} response.Response{data=models.WhiteLabel}
// @Router /whitelabels/{id} [get]
func (h *Handler) GetByID(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	id, ok := handler.ParseID(c, "站点")
	if !ok {
		return
	}

	site, err := h.whiteLabelService.GetByID(c.Request.Context(), userID, id)
	handler.MustSucceed(c, err, site)
}

// Update 更新白标站点
// @Summary 更新白标站点
// @Tags 白标站点
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "站点ID"
// @Param request body whitelabelService.UpdateRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.WhiteLabel}
// @Router /whitelabels/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	id, ok := handler.ParseID(c, "站点")
	if !ok {
		return
	}

	var req whitelabelService.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	site, err := h.whiteLabelService.Update(c.Request.Context(), userID, id, &req)
	handler.MustSucceed(c, err, site)
}

// Delete 删除白标站点
// @Summary 删除白标站点
// @Tags 白标站点
// @Produce json
// @Security Bearer
// @Param id path int true "站点ID"
// @Success 200 {object} response.Response
// @Router /whitelabels/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	id, ok := handler.ParseID(c, "站点")
	if !ok {
		return
	}

	handler.MustSucceed(c, h.whiteLabelService.Delete(c.Request.Context(), userID, id), nil)
}

// GetDNSInstructions 获取自定义域名验证说明
// @Summary 获取自定义域名验证说明
// @Tags 白标站点
// @Produce json
// @Security Bearer
// @Param id path int true "站点ID"
// @Success 200 {object} response.Response{data=whitelabelService.DNSInstructions}
// @Router /whitelabels/{id}/dns [get]
func (h *Handler) GetDNSInstructions(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	id, ok := handler.ParseID(c, "站点")
	if !ok {
		return
	}

	instructions, err := h.whiteLabelService.GetDNSInstructions(c.Request.Context(), userID, id)
	handler.MustSucceed(c, err, instructions)
}

// VerifyDNS 验证自定义域名
// @Summary 验证自定义域名
// @Tags 白标站点
// @Produce json
// @Security Bearer
// @Param id path int true "站点ID"
// @Success 200 {object} response.Response{data=models.WhiteLabel}
// @Router /whitelabels/{id}/dns/verify [post]
func (h *Handler) VerifyDNS(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	id, ok := handler.ParseID(c, "站点")
	if !ok {
		return
	}

	site, err := h.whiteLabelService.VerifyDNS(c.Request.Context(), userID, id)
	handler.MustSucceed(c, err, site)
}

// GetQRCode 获取站点推广二维码
// @Summary 获取站点推广二维码
// @Tags 白标站点
// @Produce image/png
// @Security Bearer
// @Param id path int true "站点ID"
// @Param size query int false "图片边长像素" default(256)
// @Success 200 {string} string "PNG 图片"
// @Router /whitelabels/{id}/qrcode [get]
func (h *Handler) GetQRCode(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	id, ok := handler.ParseID(c, "站点")
	if !ok {
		return
	}

	site, err := h.whiteLabelService.GetByID(c.Request.Context(), userID, id)
	if handler.HandleError(c, err) {
		return
	}

	user, err := h.users.GetUserByID(c.Request.Context(), userID)
	if handler.HandleError(c, err) {
		return
	}

	size := 256
	if s, err := strconv.Atoi(c.DefaultQuery("size", "256")); err == nil && s > 0 && s <= 1024 {
		size = s
	}

	link := fmt.Sprintf("%s?%s=%s", site.SiteURL(), h.affiliateCfg.RefParam, user.ReferralCode)
	generator := qrcode.NewGenerator(qrcode.WithSize(size), qrcode.WithRecoveryLevel(qrcode.Medium))
	png, err := generator.GeneratePNG(link)
	if err != nil {
		response.InternalError(c, "二维码生成失败")
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// GetPublicSite 按域名获取公开站点信息
// @Summary 按域名获取公开站点信息
// @Tags 白标站点
// @Produce json
// @Param domain path string true "域名"
// @Success 200 {object} response.Response{data=models.WhiteLabel}
// @Router /sites/{domain} [get]
func (h *Handler) GetPublicSite(c *gin.Context) {
	domain := c.Param("domain")
	if domain == "" {
		response.BadRequest(c, "域名不能为空")
		return
	}

	site, err := h.whiteLabelService.GetPublicByDomain(c.Request.Context(), domain)
	handler.MustSucceed(c, err, site)
}

// CreateBanner 创建横幅
// @Summary 创建横幅
// @Tags 白标站点
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body whitelabelService.CreateBannerRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Banner}
// @Router /banners [post]
func (h *Handler) CreateBanner(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req whitelabelService.CreateBannerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	banner, err := h.bannerService.CreateBanner(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, banner)
}

// ListBanners 获取站点横幅列表
// @Summary 获取站点横幅列表
// @Tags 白标站点
// @Produce json
// @Security Bearer
// @Param white_label_id query int true "站点ID"
// @Success 200 {object} response.Response{data=[]models.Banner}
// @Router /banners [get]
func (h *Handler) ListBanners(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	whiteLabelID, ok := handler.ParseRequiredQueryID(c, "white_label_id", "站点")
	if !ok {
		return
	}

	banners, err := h.bannerService.ListBySite(c.Request.Context(), userID, whiteLabelID)
	handler.MustSucceed(c, err, banners)
}

// UpdateBanner 更新横幅
// @Summary 更新横幅
// @Tags 白标站点
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "横幅ID"
// @Param request body whitelabelService.UpdateBannerRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Banner}
// @Router /banners/{id} [put]
func (h *Handler) UpdateBanner(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	id, ok := handler.ParseID(c, "横幅")
	if !ok {
		return
	}

	var req whitelabelService.UpdateBannerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	banner, err := h.bannerService.UpdateBanner(c.Request.Context(), userID, id, &req)
	handler.MustSucceed(c, err, banner)
}

// DeleteBanner 删除横幅
// @Summary 删除横幅
// @Tags 白标站点
// @Produce json
// @Security Bearer
// @Param id path int true "横幅ID"
// @Success 200 {object} response.Response
// @Router /banners/{id} [delete]
func (h *Handler) DeleteBanner(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	id, ok := handler.ParseID(c, "横幅")
	if !ok {
		return
	}

	handler.MustSucceed(c, h.bannerService.DeleteBanner(c.Request.Context(), userID, id), nil)
}

// TrackBannerView 记录横幅展示
// @Summary 记录横幅展示
// @Tags 白标站点
// @Produce json
// @Param id path int true "横幅ID"
// @Success 200 {object} response.Response
// @Router /banners/{id}/view [post]
func (h *Handler) TrackBannerView(c *gin.Context) {
	id, ok := handler.ParseID(c, "横幅")
	if !ok {
		return
	}

	handler.MustSucceed(c, h.bannerService.TrackView(c.Request.Context(), id), nil)
}

// TrackBannerClick 记录横幅点击并跳转
// @Summary 记录横幅点击并跳转
// @Tags 白标站点
// @Produce json
// @Param id path int true "横幅ID"
// @Success 302 {string} string "跳转至横幅链接"
// @Router /banners/{id}/click [get]
func (h *Handler) TrackBannerClick(c *gin.Context) {
	id, ok := handler.ParseID(c, "横幅")
	if !ok {
		return
	}

	banner, err := h.bannerService.TrackClick(c.Request.Context(), id)
	if handler.HandleError(c, err) {
		return
	}

	if banner.Link != nil && *banner.Link != "" {
		c.Redirect(http.StatusFound, *banner.Link)
		return
	}
	response.Success(c, nil)
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	// 公开接口
	r.GET("/sites/:domain", h.GetPublicSite)

	banners := r.Group("/banners")
	{
		banners.POST("/:id/view", h.TrackBannerView)
		banners.GET("/:id/click", h.TrackBannerClick)
	}
}

// RegisterProtectedRoutes 注册需要认证的路由
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	sites := r.Group("/whitelabels")
	{
		sites.POST("", h.Create)
		sites.GET("", h.List)
		sites.GET("/:id", h.GetByID)
		sites.PUT("/:id", h.Update)
		sites.DELETE("/:id", h.Delete)
		sites.GET("/:id/dns", h.GetDNSInstructions)
		sites.POST("/:id/dns/verify", h.VerifyDNS)
		sites.GET("/:id/qrcode", h.GetQRCode)
	}

	banners := r.Group("/banners")
	{
		banners.POST("", h.CreateBanner)
		banners.GET("", h.ListBanners)
		banners.PUT("/:id", h.UpdateBanner)
		banners.DELETE("/:id", h.DeleteBanner)
	}
}
