// Package admin 管理端 HTTP Handler
package admin

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/escortdollars/affiliate-backend/internal/common/handler"
	"github.com/escortdollars/affiliate-backend/internal/common/response"
	adminService "github.com/escortdollars/affiliate-backend/internal/service/admin"
	affiliateService "github.com/escortdollars/affiliate-backend/internal/service/affiliate"
	payoutService "github.com/escortdollars/affiliate-backend/internal/service/payout"
	userService "github.com/escortdollars/affiliate-backend/internal/service/user"
	whitelabelService "github.com/escortdollars/affiliate-backend/internal/service/whitelabel"
)

// Handler 管理端处理器
type Handler struct {
	adminService      *adminService.AdminService
	userService       *userService.UserService
	commissionService *affiliateService.CommissionService
	payoutService     *payoutService.PayoutService
	whiteLabelService *whitelabelService.WhiteLabelService
}

// NewHandler 创建管理端处理器
func NewHandler(
	adminSvc *adminService.AdminService,
	userSvc *userService.UserService,
	commissionSvc *affiliateService.CommissionService,
	payoutSvc *payoutService.PayoutService,
	whiteLabelSvc *whitelabelService.WhiteLabelService,
) *Handler {
	return &Handler{
		adminService:      adminSvc,
		userService:       userSvc,
		commissionService: commissionSvc,
		payoutService:     payoutSvc,
		whiteLabelService: whiteLabelSvc,
	}
}

// GetDashboard 获取平台运营总览
// @Summary 获取平台运营总览
// @Tags 管理端
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=adminService.Dashboard}
// @Router /admin/dashboard [get]
func (h *Handler) GetDashboard(c *gin.Context) {
	_, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	dashboard, err := h.adminService.GetDashboard(c.Request.Context())
	handler.MustSucceed(c, err, dashboard)
}

// ListUsers 获取用户列表
// @Summary 获取用户列表
// @Tags 管理端
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Param user_type query string false "用户类型"
// @Param status query int false "状态"
// @Param username query string false "用户名关键字"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /admin/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	_, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	p := handler.BindPaginationWithDefaults(c, 1, 20)

	filters := map[string]interface{}{}
	if userType := c.Query("user_type"); userType != "" {
		filters["user_type"] = userType
	}
	if s := c.Query("status"); s != "" {
		if status, err := strconv.ParseInt(s, 10, 8); err == nil {
			filters["status"] = int8(status)
		}
	}
	if username := c.Query("username"); username != "" {
		filters["username"] = username
	}

	users, total, err := h.userService.List(c.Request.Context(), p.GetOffset(), p.GetLimit(), filters)
	handler.MustSucceedPage(c, err, users, total, p.Page, p.PageSize)
}

// GetUser 获取用户详情
// @Summary 获取用户详情
// @Tags 管理端
// @Produce json
// @Security Bearer
// @Param id path int true "用户ID"
// @Success 200 {object} response.Response{data=models.User}
// @Router /admin/users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	_, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	id, ok := handler.ParseID(c, "用户")
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), id)
	handler.MustSucceed(c, err, user)
}

// SetUserStatusRequest 设置用户状态请求
type SetUserStatusRequest struct {
	Status int8 `json:"status" binding:"oneof=0 1"`
}

// SetUserStatus 启用/禁用用户
// @Summary 启用/禁用用户
// @Tags 管理端
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "用户ID"
// @Param request body SetUserStatusRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/users/{id}/status [put]
func (h *Handler) SetUserStatus(c *gin.Context) {
	_, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	id, ok := handler.ParseID(c, "用户")
	if !ok {
		return
	}

	var req SetUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	handler.MustSucceed(c, h.userService.SetStatus(c.Request.Context(), id, req.Status), nil)
}

// SetUserRateRequest 设置默认佣金比例请求
type SetUserRateRequest struct {
	Rate float64 `json:"rate" binding:"required"`
}

// SetUserRate 调整用户默认佣金比例
// @Summary 调整用户默认佣金比例
// @Tags 管理端
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "用户ID"
// @Param request body SetUserRateRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/users/{id}/commission-rate [put]
func (h *Handler) SetUserRate(c *gin.Context) {
	_, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	id, ok := handler.ParseID(c, "用户")
	if !ok {
		return
	}

	var req SetUserRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	handler.MustSucceed(c, h.userService.SetCommissionRate(c.Request.Context(), id, req.Rate), nil)
}

// ListCommissions 获取佣金列表
// @Summary 获取佣金列表
// @Tags 管理端
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Param status query string false "佣金状态"
// @Param user_id query int false "用户ID"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /admin/commissions [get]
func (h *Handler) ListCommissions(c *gin.Context) {
	_, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	p := handler.BindPaginationWithDefaults(c, 1, 20)

	filters := map[string]interface{}{}
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if userID, ok := handler.ParseQueryID(c, "user_id", "用户"); !ok {
		return
	} else if userID != nil {
		filters["user_id"] = *userID
	}

	commissions, total, err := h.commissionService.List(c.Request.Context(), p.GetOffset(), p.GetLimit(), filters)
	handler.MustSucceedPage(c, err, commissions, total, p.Page, p.PageSize)
}

// ApproveCommission 审核通过佣金
// @Summary 审核通过佣金
// @Tags 管理端
// @Produce json
// @Security Bearer
// @Param id path int true "佣金ID"
// @Success 200 {object} response.Response{data=models.Commission}
// @Router /admin/commissions/{id}/approve [put]
func (h *Handler) ApproveCommission(c *gin.Context) {
	_, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	id, ok := handler.ParseID(c, "佣金")
	if !ok {
		return
	}

	commission, err := h.commissionService.Approve(c.Request.Context(), id)
	handler.MustSucceed(c, err, commission)
}

// RejectCommission 拒绝佣金
// @Summary 拒绝佣金
// @Tags 管理端
// @Produce json
// @Security Bearer
// @Param id path int true "佣金ID"
// @Success 200 {object} response.Response{data=models.Commission}
// @Router /admin/commissions/{id}/reject [put]
func (h *Handler) RejectCommission(c *gin.Context) {
	_, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	id, ok := handler.ParseID(c, "佣金")
	if !ok {
		return
	}

	commission, err := h.commissionService.Reject(c.Request.Context(), id)
	handler.MustSucceed(c, err, commission)
}

// ListPayouts 获取结算单列表
// @Summary 获取结算单列表
// @Tags 管理端
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Param status query string false "结算单状态"
// @Param ambassador_id query int false "大使ID"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /admin/payouts [get]
func (h *Handler) ListPayouts(c *gin.Context) {
	_, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	p := handler.BindPaginationWithDefaults(c, 1, 20)

	filters := map[string]interface{}{}
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if ambassadorID, ok := handler.ParseQueryID(c, "ambassador_id", "大使"); !ok {
		return
	} else if ambassadorID != nil {
		filters["ambassador_id"] = *ambassadorID
	}

	payouts, total, err := h.payoutService.List(c.Request.Context(), p.GetOffset(), p.GetLimit(), filters)
	handler.MustSucceedPage(c, err, payouts, total, p.Page, p.PageSize)
}

// ProcessPayout 开始处理结算单
// @Summary 开始处理结算单
// @Tags 管理端
// @Produce json
// @Security Bearer
// @Param id path int true "结算单ID"
// @Success 200 {object} response.Response{data=models.Payout}
// @Router /admin/payouts/{id}/process [put]
func (h *Handler) ProcessPayout(c *gin.Context) {
	_, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	id, ok := handler.ParseID(c, "结算单")
	if !ok {
		return
	}

	payout, err := h.payoutService.MarkProcessing(c.Request.Context(), id)
	handler.MustSucceed(c, err, payout)
}

// CompletePayout 完成结算单
// @Summary 完成结算单
// @Tags 管理端
// @Produce json
// @Security Bearer
// @Param id path int true "结算单ID"
// @Success 200 {object} response.Response{data=models.Payout}
// @Router /admin/payouts/{id}/complete [put]
func (h *Handler) CompletePayout(c *gin.Context) {
	_, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	id, ok := handler.ParseID(c, "结算单")
	if !ok {
		return
	}

	payout, err := h.payoutService.MarkCompleted(c.Request.Context(), id)
	handler.MustSucceed(c, err, payout)
}

// FailPayoutRequest 结算单失败请求
type FailPayoutRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// FailPayout 标记结算单失败
// @Summary 标记结算单失败
// @Tags 管理端
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "结算单ID"
// @Param request body FailPayoutRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Payout}
// @Router /admin/payouts/{id}/fail [put]
func (h *Handler) FailPayout(c *gin.Context) {
	_, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	id, ok := handler.ParseID(c, "结算单")
	if !ok {
		return
	}

	var req FailPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	payout, err := h.payoutService.MarkFailed(c.Request.Context(), id, req.Reason)
	handler.MustSucceed(c, err, payout)
}

// ListWhiteLabels 获取白标站点列表
// @Summary 获取白标站点列表
// @Tags 管理端
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Param is_active query bool false "是否启用"
// @Param dns_verified query bool false "是否已验证域名"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /admin/whitelabels [get]
func (h *Handler) ListWhiteLabels(c *gin.Context) {
	_, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	p := handler.BindPaginationWithDefaults(c, 1, 20)

	filters := map[string]interface{}{}
	if s := c.Query("is_active"); s != "" {
		filters["is_active"] = s == "true"
	}
	if s := c.Query("dns_verified"); s != "" {
		filters["dns_verified"] = s == "true"
	}

	sites, total, err := h.whiteLabelService.List(c.Request.Context(), p.GetOffset(), p.GetLimit(), filters)
	handler.MustSucceedPage(c, err, sites, total, p.Page, p.PageSize)
}

// ListAuditLogs 获取审计日志
// @Summary 获取审计日志
// @Tags 管理端
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(50)
// @Param user_id query int false "用户ID"
// @Param path query string false "路径前缀"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /admin/audit-logs [get]
func (h *Handler) ListAuditLogs(c *gin.Context) {
	_, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	p := handler.BindPaginationWithDefaults(c, 1, 50)

	filters := map[string]interface{}{}
	if userID, ok := handler.ParseQueryID(c, "user_id", "用户"); !ok {
		return
	} else if userID != nil {
		filters["user_id"] = *userID
	}
	if path := c.Query("path"); path != "" {
		filters["path"] = path
	}

	logs, total, err := h.adminService.ListAuditLogs(c.Request.Context(), p.GetOffset(), p.GetLimit(), filters)
	handler.MustSucceedPage(c, err, logs, total, p.Page, p.PageSize)
}

// RegisterProtectedRoutes 注册管理端路由
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	{
		admin.GET("/dashboard", h.GetDashboard)
		admin.GET("/users", h.ListUsers)
		admin.GET("/users/:id", h.GetUser)
		admin.PUT("/users/:id/status", h.SetUserStatus)
		admin.PUT("/users/:id/commission-rate", h.SetUserRate)
		admin.GET("/commissions", h.ListCommissions)
		admin.PUT("/commissions/:id/approve", h.ApproveCommission)
		admin.PUT("/commissions/:id/reject", h.RejectCommission)
		admin.GET("/payouts", h.ListPayouts)
		admin.PUT("/payouts/:id/process", h.ProcessPayout)
		admin.PUT("/payouts/:id/complete", h.CompletePayout)
		admin.PUT("/payouts/:id/fail", h.FailPayout)
		admin.GET("/whitelabels", h.ListWhiteLabels)
		admin.GET("/audit-logs", h.ListAuditLogs)
	}
}
