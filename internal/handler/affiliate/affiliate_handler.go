// Package affiliate 推荐与佣金 HTTP Handler
package affiliate

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/escortdollars/affiliate-backend/internal/common/handler"
	"github.com/escortdollars/affiliate-backend/internal/common/response"
	affiliateService "github.com/escortdollars/affiliate-backend/internal/service/affiliate"
)

// Handler 推荐与佣金处理器
type Handler struct {
	commissionService *affiliateService.CommissionService
	referralService   *affiliateService.ReferralService
	rateService       *affiliateService.RateService
	statsService      *affiliateService.StatsService
}

// NewHandler 创建推荐与佣金处理器
func NewHandler(
	commissionSvc *affiliateService.CommissionService,
	referralSvc *affiliateService.ReferralService,
	rateSvc *affiliateService.RateService,
	statsSvc *affiliateService.StatsService,
) *Handler {
	return &Handler{
		commissionService: commissionSvc,
		referralService:   referralSvc,
		rateService:       rateSvc,
		statsService:      statsSvc,
	}
}

// ListCommissions 获取我的佣金列表
// @Summary 获取我的佣金列表
// @Tags 推荐佣金
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Param status query string false "佣金状态"
// @Param commission_type query string false "佣金类型"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /affiliate/commissions [get]
func (h *Handler) ListCommissions(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	p := handler.BindPaginationWithDefaults(c, 1, 20)

	filters := map[string]interface{}{}
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if commissionType := c.Query("commission_type"); commissionType != "" {
		filters["commission_type"] = commissionType
	}

	commissions, total, err := h.commissionService.ListByUser(c.Request.Context(), userID, p.GetOffset(), p.GetLimit(), filters)
	handler.MustSucceedPage(c, err, commissions, total, p.Page, p.PageSize)
}

// GetCommission 获取佣金详情
// @Summary 获取佣金详情
// @Tags 推荐佣金
// @Produce json
// @Security Bearer
// @Param id path int true "佣金ID"
// @Success 200 {object} response.Response{data=models.Commission}
// @Router /affiliate/commissions/{id} [get]
func (h *Handler) GetCommission(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	id, ok := handler.ParseID(c, "佣金")
	if !ok {
		return
	}

	commission, err := h.commissionService.GetByID(c.Request.Context(), id)
	if handler.HandleError(c, err) {
		return
	}
	if commission.UserID != userID {
		response.Forbidden(c, "无权访问该佣金")
		return
	}

	response.Success(c, commission)
}

// GetCommissionStats 获取佣金统计
// @Summary 获取佣金统计
// @Tags 推荐佣金
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=models.CommissionStats}
// @Router /affiliate/commissions/stats [get]
func (h *Handler) GetCommissionStats(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	stats, err := h.commissionService.GetStats(c.Request.Context(), userID)
	handler.MustSucceed(c, err, stats)
}

// ExportCommissions 导出佣金流水 CSV
// @Summary 导出佣金流水 CSV
// @Tags 推荐佣金
// @Produce text/csv
// @Security Bearer
// @Success 200 {string} string "CSV 内容"
// @Router /affiliate/commissions/export [get]
func (h *Handler) ExportCommissions(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	filename := fmt.Sprintf("commissions_%d_%s.csv", userID, time.Now().Format("20060102"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := h.commissionService.ExportCSV(c.Request.Context(), userID, c.Writer); err != nil {
		handler.HandleError(c, err)
	}
}

// ListReferrals 获取我的推荐列表
// @Summary 获取我的推荐列表
// @Tags 推荐佣金
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /affiliate/referrals [get]
func (h *Handler) ListReferrals(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	p := handler.BindPaginationWithDefaults(c, 1, 20)

	referrals, total, err := h.referralService.ListByReferrer(c.Request.Context(), userID, p.GetOffset(), p.GetLimit())
	handler.MustSucceedPage(c, err, referrals, total, p.Page, p.PageSize)
}

// GetReferralStats 获取推荐统计
// @Summary 获取推荐统计
// @Tags 推荐佣金
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=affiliateService.ReferralStats}
// @Router /affiliate/referrals/stats [get]
func (h *Handler) GetReferralStats(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	stats, err := h.referralService.GetStats(c.Request.Context(), userID)
	handler.MustSucceed(c, err, stats)
}

// SetRateRequest 设置佣金比例请求
type SetRateRequest struct {
	TargetType string  `json:"target_type" binding:"required,oneof=escort ambassador"`
	Rate       float64 `json:"rate" binding:"required"`
}

// SetRate 设置自定义佣金比例
// @Summary 设置自定义佣金比例
// @Tags 推荐佣金
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body SetRateRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.CommissionRate}
// @Router /affiliate/rates [put]
func (h *Handler) SetRate(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req SetRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	rate, err := h.rateService.SetRate(c.Request.Context(), userID, req.TargetType, req.Rate)
	handler.MustSucceed(c, err, rate)
}

// ListRates 获取自定义佣金比例
// @Summary 获取自定义佣金比例
// @Tags 推荐佣金
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=[]models.CommissionRate}
// @Router /affiliate/rates [get]
func (h *Handler) ListRates(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	rates, err := h.rateService.ListRates(c.Request.Context(), userID)
	handler.MustSucceed(c, err, rates)
}

// DeleteRate 删除自定义佣金比例
// @Summary 删除自定义佣金比例
// @Tags 推荐佣金
// @Produce json
// @Security Bearer
// @Param target_type path string true "目标类型"
// @Success 200 {object} response.Response
// @Router /affiliate/rates/{target_type} [delete]
func (h *Handler) DeleteRate(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	targetType := c.Param("target_type")
	handler.MustSucceed(c, h.rateService.DeleteRate(c.Request.Context(), userID, targetType), nil)
}

// GetOverview 获取大使业绩总览
// @Summary 获取大使业绩总览
// @Tags 推荐佣金
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=affiliateService.AmbassadorOverview}
// @Router /affiliate/overview [get]
func (h *Handler) GetOverview(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	overview, err := h.statsService.GetAmbassadorOverview(c.Request.Context(), userID, h.referralService)
	handler.MustSucceed(c, err, overview)
}

// ListDailyStats 获取每日统计
// @Summary 获取每日统计
// @Tags 推荐佣金
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(30)
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /affiliate/stats/daily [get]
func (h *Handler) ListDailyStats(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	p := handler.BindPaginationWithDefaults(c, 1, 30)

	stats, total, err := h.statsService.ListDaily(c.Request.Context(), userID, p.GetOffset(), p.GetLimit())
	handler.MustSucceedPage(c, err, stats, total, p.Page, p.PageSize)
}

// ResolveCode 校验推荐码
// @Summary 校验推荐码
// @Tags 推荐佣金
// @Produce json
// @Param code path string true "推荐码"
// @Success 200 {object} response.Response
// @Router /affiliate/codes/{code} [get]
func (h *Handler) ResolveCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, "推荐码不能为空")
		return
	}

	referrer, err := h.referralService.ResolveCode(c.Request.Context(), code)
	if handler.HandleError(c, err) {
		return
	}

	response.Success(c, gin.H{
		"referral_code": referrer.ReferralCode,
		"username":      referrer.Username,
		"user_type":     referrer.UserType,
	})
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	affiliate := r.Group("/affiliate")
	{
		// 公开接口
		affiliate.GET("/codes/:code", h.ResolveCode)
	}
}

// RegisterProtectedRoutes 注册需要认证的路由
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	affiliate := r.Group("/affiliate")
	{
		affiliate.GET("/commissions", h.ListCommissions)
		affiliate.GET("/commissions/stats", h.GetCommissionStats)
		affiliate.GET("/commissions/export", h.ExportCommissions)
		affiliate.GET("/commissions/:id", h.GetCommission)
		affiliate.GET("/referrals", h.ListReferrals)
		affiliate.GET("/referrals/stats", h.GetReferralStats)
		affiliate.GET("/rates", h.ListRates)
		affiliate.PUT("/rates", h.SetRate)
		affiliate.DELETE("/rates/:target_type", h.DeleteRate)
		affiliate.GET("/overview", h.GetOverview)
		affiliate.GET("/stats/daily", h.ListDailyStats)
	}
}
