// Package payout 佣金结算 HTTP Handler
package payout

import (
	"github.com/gin-gonic/gin"

	"github.com/escortdollars/affiliate-backend/internal/common/handler"
	"github.com/escortdollars/affiliate-backend/internal/common/response"
	payoutService "github.com/escortdollars/affiliate-backend/internal/service/payout"
)

// Handler 佣金结算处理器
type Handler struct {
	payoutService *payoutService.PayoutService
}

// NewHandler 创建佣金结算处理器
func NewHandler(payoutSvc *payoutService.PayoutService) *Handler {
	return &Handler{payoutService: payoutSvc}
}

// CreatePayoutRequest 创建结算单请求
type CreatePayoutRequest struct {
	CommissionIDs []int64 `json:"commission_ids" binding:"required,min=1"`
	Method        string  `json:"method" binding:"required,oneof=btc eth usdt"`
	WalletAddress string  `json:"wallet_address,omitempty"`
}

// Create 创建结算单
// @Summary 创建结算单
// @Tags 结算
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CreatePayoutRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Payout}
// @Router /payouts [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req CreatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	payout, err := h.payoutService.CreateFromCommissions(c.Request.Context(), userID, req.CommissionIDs, req.Method, req.WalletAddress)
	handler.MustSucceed(c, err, payout)
}

// List 获取我的结算单列表
// @Summary 获取我的结算单列表
// @Tags 结算
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /payouts [get]
func (h *Handler) List(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	p := handler.BindPaginationWithDefaults(c, 1, 20)

	payouts, total, err := h.payoutService.ListByAmbassador(c.Request.Context(), userID, p.GetOffset(), p.GetLimit())
	handler.MustSucceedPage(c, err, payouts, total, p.Page, p.PageSize)
}

// GetByID 获取结算单详情
// @Summary 获取结算单详情
// @Tags 结算
// @Produce json
// @Security Bearer
// @Param id path int true "结算单ID"
// @Success 200 {object} response.Response{data=models.Payout}
// @Router /payouts/{id} [get]
func (h *Handler) GetByID(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	id, ok := handler.ParseID(c, "结算单")
	if !ok {
		return
	}

	payout, err := h.payoutService.GetByID(c.Request.Context(), id)
	if handler.HandleError(c, err) {
		return
	}
	if payout.AmbassadorID != userID {
		response.Forbidden(c, "无权访问该结算单")
		return
	}

	response.Success(c, payout)
}

// RegisterProtectedRoutes 注册需要认证的路由
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	payouts := r.Group("/payouts")
	{
		payouts.POST("", h.Create)
		payouts.GET("", h.List)
		payouts.GET("/:id", h.GetByID)
	}
}
