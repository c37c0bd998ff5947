// Package auth 提供认证相关的 HTTP Handler
package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/escortdollars/affiliate-backend/internal/common/config"
	"github.com/escortdollars/affiliate-backend/internal/common/handler"
	"github.com/escortdollars/affiliate-backend/internal/common/response"
	"github.com/escortdollars/affiliate-backend/internal/middleware"
	authService "github.com/escortdollars/affiliate-backend/internal/service/auth"
)

// Handler 认证处理器
type Handler struct {
	authService  *authService.AuthService
	affiliateCfg *config.AffiliateConfig
}

// NewHandler 创建认证处理器
func NewHandler(authSvc *authService.AuthService, affiliateCfg *config.AffiliateConfig) *Handler {
	return &Handler{
		authService:  authSvc,
		affiliateCfg: affiliateCfg,
	}
}

// Register 注册账号
// @Summary 注册账号
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body authService.RegisterRequest true "请求参数"
// @Success 200 {object} response.Response{data=authService.RegisterResponse}
// @Router /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req authService.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	// 请求体未携带推荐码时回落到归因 Cookie
	if req.AffiliateCode == "" && h.affiliateCfg != nil {
		req.AffiliateCode = middleware.GetAffiliateCode(c, h.affiliateCfg)
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// ActivateRequest 激活账号请求
type ActivateRequest struct {
	Code string `json:"code" binding:"required"`
}

// Activate 激活账号
// @Summary 激活账号
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body ActivateRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /auth/activate [post]
func (h *Handler) Activate(c *gin.Context) {
	var req ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	user, err := h.authService.Activate(c.Request.Context(), req.Code)
	handler.MustSucceed(c, err, user)
}

// ResendActivationRequest 重发激活邮件请求
type ResendActivationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResendActivation 重发激活令牌
// @Summary 重发激活令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body ResendActivationRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /auth/activate/resend [post]
func (h *Handler) ResendActivation(c *gin.Context) {
	var req ResendActivationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	code, err := h.authService.ResendActivation(c.Request.Context(), req.Email)
	if handler.HandleError(c, err) {
		return
	}

	response.Success(c, gin.H{"activation_code": code})
}

// Login 账号登录
// @Summary 账号登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body authService.LoginRequest true "请求参数"
// @Success 200 {object} response.Response{data=authService.LoginResponse}
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req authService.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshToken 刷新 Token
// @Summary 刷新 Token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /auth/refresh [post]
func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	tokenPair, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	handler.MustSucceed(c, err, tokenPair)
}

// PasswordResetRequest 申请重置密码请求
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RequestPasswordReset 申请重置密码
// @Summary 申请重置密码
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body PasswordResetRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /auth/password/forgot [post]
func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	// 无论邮箱是否存在都返回成功，避免账号枚举
	if _, err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		response.Success(c, nil)
		return
	}
	response.Success(c, nil)
}

// ResetPasswordRequest 重置密码请求
type ResetPasswordRequest struct {
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// ResetPassword 重置密码
// @Summary 重置密码
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /auth/password/reset [post]
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	handler.MustSucceed(c, h.authService.ResetPassword(c.Request.Context(), req.Code, req.NewPassword), nil)
}

// GetCurrentUser 获取当前用户信息
// @Summary 获取当前用户信息
// @Tags 认证
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=models.User}
// @Router /auth/me [get]
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUserByID(c.Request.Context(), userID)
	handler.MustSucceed(c, err, user)
}

// Logout 退出登录
// @Summary 退出登录
// @Tags 认证
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	response.Success(c, nil)
}

// RegisterRoutes 注册路由
// codeLimiter 作用于触发验证码邮件的接口
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, codeLimiter ...gin.HandlerFunc) {
	auth := r.Group("/auth")
	{
		// 公开接口
		auth.POST("/register", h.Register)
		auth.POST("/activate", h.Activate)
		auth.POST("/activate/resend", append(codeLimiter, h.ResendActivation)...)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.RefreshToken)
		auth.POST("/password/forgot", append(codeLimiter, h.RequestPasswordReset)...)
		auth.POST("/password/reset", h.ResetPassword)
	}
}

// RegisterProtectedRoutes 注册需要认证的路由
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.GET("/me", h.GetCurrentUser)
		auth.POST("/logout", h.Logout)
	}
}
