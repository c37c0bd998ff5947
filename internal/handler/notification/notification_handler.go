// Package notification 站内通知 HTTP Handler
package notification

import (
	"github.com/gin-gonic/gin"

	"github.com/escortdollars/affiliate-backend/internal/common/handler"
	"github.com/escortdollars/affiliate-backend/internal/common/response"
	notificationService "github.com/escortdollars/affiliate-backend/internal/service/notification"
)

// Handler 站内通知处理器
type Handler struct {
	notificationService *notificationService.NotificationService
}

// NewHandler 创建站内通知处理器
func NewHandler(notificationSvc *notificationService.NotificationService) *Handler {
	return &Handler{notificationService: notificationSvc}
}

// List 获取通知列表
// @Summary 获取通知列表
// @Tags 通知
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Param unread query bool false "仅未读"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /notifications [get]
func (h *Handler) List(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	p := handler.BindPaginationWithDefaults(c, 1, 20)
	onlyUnread := c.Query("unread") == "true"

	notifications, total, err := h.notificationService.List(c.Request.Context(), userID, p.GetOffset(), p.GetLimit(), onlyUnread)
	handler.MustSucceedPage(c, err, notifications, total, p.Page, p.PageSize)
}

// UnreadCount 获取未读通知数量
// @Summary 获取未读通知数量
// @Tags 通知
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response
// @Router /notifications/unread-count [get]
func (h *Handler) UnreadCount(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	count, err := h.notificationService.UnreadCount(c.Request.Context(), userID)
	if handler.HandleError(c, err) {
		return
	}

	response.Success(c, gin.H{"count": count})
}

// MarkRead 标记通知已读
// @Summary 标记通知已读
// @Tags 通知
// @Produce json
// @Security Bearer
// @Param id path int true "通知ID"
// @Success 200 {object} response.Response
// @Router /notifications/{id}/read [put]
func (h *Handler) MarkRead(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	id, ok := handler.ParseID(c, "通知")
	if !ok {
		return
	}

	handler.MustSucceed(c, h.notificationService.MarkRead(c.Request.Context(), id, userID), nil)
}

// MarkAllRead 全部标记已读
// @Summary 全部标记已读
// @Tags 通知
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response
// @Router /notifications/read-all [put]
func (h *Handler) MarkAllRead(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	affected, err := h.notificationService.MarkAllRead(c.Request.Context(), userID)
	if handler.HandleError(c, err) {
		return
	}

	response.Success(c, gin.H{"marked": affected})
}

// Delete 删除通知
// @Summary 删除通知
// @Tags 通知
// @Produce json
// @Security Bearer
// @Param id path int true "通知ID"
// @Success 200 {object} response.Response
// @Router /notifications/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	id, ok := handler.ParseID(c, "通知")
	if !ok {
		return
	}

	handler.MustSucceed(c, h.notificationService.Delete(c.Request.Context(), id, userID), nil)
}

// RegisterProtectedRoutes 注册需要认证的路由
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.List)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.PUT("/read-all", h.MarkAllRead)
		notifications.PUT("/:id/read", h.MarkRead)
		notifications.DELETE("/:id", h.Delete)
	}
}
