// Package upload 素材上传 HTTP Handler
package upload

import (
	"github.com/gin-gonic/gin"

	"github.com/escortdollars/affiliate-backend/internal/common/handler"
	"github.com/escortdollars/affiliate-backend/internal/common/response"
	uploadService "github.com/escortdollars/affiliate-backend/internal/service/upload"
)

// Handler 素材上传处理器
type Handler struct {
	uploadService *uploadService.UploadService
}

// NewHandler 创建素材上传处理器
func NewHandler(uploadSvc *uploadService.UploadService) *Handler {
	return &Handler{uploadService: uploadSvc}
}

// UploadBanner 上传横幅素材
// @Summary 上传横幅素材
// @Description 支持 jpg/jpeg/png/gif/webp 格式，最大 10MB
// @Tags 文件上传
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param file formData file true "图片文件"
// @Success 200 {object} response.Response{data=uploadService.UploadImageResponse}
// @Router /upload/banner [post]
func (h *Handler) UploadBanner(c *gin.Context) {
	if _, ok := handler.RequireUserID(c); !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "请选择要上传的文件")
		return
	}

	result, err := h.uploadService.UploadBanner(c.Request.Context(), file)
	handler.MustSucceed(c, err, result)
}

// UploadLogo 上传站点 Logo
// @Summary 上传站点 Logo
// @Description 支持 jpg/jpeg/png/gif/webp 格式，最大 5MB
// @Tags 文件上传
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param file formData file true "图片文件"
// @Success 200 {object} response.Response{data=uploadService.UploadImageResponse}
// @Router /upload/logo [post]
func (h *Handler) UploadLogo(c *gin.Context) {
	if _, ok := handler.RequireUserID(c); !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "请选择要上传的文件")
		return
	}

	result, err := h.uploadService.UploadLogo(c.Request.Context(), file)
	handler.MustSucceed(c, err, result)
}

// RegisterProtectedRoutes 注册需要认证的路由
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	upload := r.Group("/upload")
	{
		upload.POST("/banner", h.UploadBanner)
		upload.POST("/logo", h.UploadLogo)
	}
}
