// Package user 用户资料 HTTP Handler
package user

import (
	"github.com/gin-gonic/gin"

	"github.com/escortdollars/affiliate-backend/internal/common/handler"
	"github.com/escortdollars/affiliate-backend/internal/common/response"
	userService "github.com/escortdollars/affiliate-backend/internal/service/user"
)

// Handler 用户资料处理器
type Handler struct {
	userService *userService.UserService
}

// NewHandler 创建用户资料处理器
func NewHandler(userSvc *userService.UserService) *Handler {
	return &Handler{userService: userSvc}
}

// GetProfile 获取个人资料
// @Summary 获取个人资料
// @Tags 用户
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=models.User}
// @Router /users/profile [get]
func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	handler.MustSucceed(c, err, user)
}

// UpdateProfile 更新个人资料
// @Summary 更新个人资料
// @Tags 用户
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body userService.UpdateProfileRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.UserProfile}
// @Router /users/profile [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req userService.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	profile, err := h.userService.UpdateProfile(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, profile)
}

// UpdateWallets 更新结算钱包
// @Summary 更新结算钱包
// @Tags 用户
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body userService.UpdateWalletsRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.UserProfile}
// @Router /users/wallets [put]
func (h *Handler) UpdateWallets(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req userService.UpdateWalletsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	profile, err := h.userService.UpdateWallets(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, profile)
}

// BindTelegramRequest 绑定 Telegram 请求
type BindTelegramRequest struct {
	ChatID int64 `json:"chat_id" binding:"required"`
}

// BindTelegram 绑定 Telegram 会话
// @Summary 绑定 Telegram 会话
// @Tags 用户
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body BindTelegramRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /users/telegram [post]
func (h *Handler) BindTelegram(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req BindTelegramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	handler.MustSucceed(c, h.userService.BindTelegram(c.Request.Context(), userID, req.ChatID), nil)
}

// UnbindTelegram 解绑 Telegram
// @Summary 解绑 Telegram
// @Tags 用户
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response
// @Router /users/telegram [delete]
func (h *Handler) UnbindTelegram(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	handler.MustSucceed(c, h.userService.UnbindTelegram(c.Request.Context(), userID), nil)
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// ChangePassword 修改密码
// @Summary 修改密码
// @Tags 用户
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body ChangePasswordRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /users/password [put]
func (h *Handler) ChangePassword(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	handler.MustSucceed(c, h.userService.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword), nil)
}

// RegisterProtectedRoutes 注册需要认证的路由
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.GET("/profile", h.GetProfile)
		users.PUT("/profile", h.UpdateProfile)
		users.PUT("/wallets", h.UpdateWallets)
		users.POST("/telegram", h.BindTelegram)
		users.DELETE("/telegram", h.UnbindTelegram)
		users.PUT("/password", h.ChangePassword)
	}
}
