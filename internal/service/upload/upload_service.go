// Package upload 提供横幅与品牌素材上传服务
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/escortdollars/affiliate-backend/internal/common/errors"
	"github.com/escortdollars/affiliate-backend/pkg/oss"
)

// UploadService 素材上传服务
type UploadService struct {
	uploader oss.Uploader
}

// NewUploadService 创建素材上传服务
func NewUploadService(uploader oss.Uploader) *UploadService {
	return &UploadService{uploader: uploader}
}

const (
	// MaxBannerSize 横幅素材最大大小（10MB）
	MaxBannerSize = 10 * 1024 * 1024
	// MaxLogoSize 站点 Logo 最大大小（5MB）
	MaxLogoSize = 5 * 1024 * 1024
)

// 素材分类
const (
	FileTypeBanner = "banner"
	FileTypeLogo   = "logo"
)

// UploadImageResponse 上传结果
type UploadImageResponse struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
}

// UploadBanner 上传横幅素材
func (s *UploadService) UploadBanner(ctx context.Context, file *multipart.FileHeader) (*UploadImageResponse, error) {
	return s.uploadImage(ctx, file, FileTypeBanner, MaxBannerSize)
}

// UploadLogo 上传站点 Logo
func (s *UploadService) UploadLogo(ctx context.Context, file *multipart.FileHeader) (*UploadImageResponse, error) {
	return s.uploadImage(ctx, file, FileTypeLogo, MaxLogoSize)
}

func (s *UploadService) uploadImage(ctx context.Context, fileHeader *multipart.FileHeader, fileType string, maxSize int64) (*UploadImageResponse, error) {
	if fileHeader == nil {
		return nil, errors.ErrInvalidParams.WithMessage("请选择要上传的文件")
	}
	if fileHeader.Size > maxSize {
		return nil, errors.ErrInvalidParams.WithMessage(fmt.Sprintf("图片大小不能超过 %dMB", maxSize/(1024*1024)))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, errors.ErrOperationFailed.WithMessage("无法打开文件").WithError(err)
	}
	defer file.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, file); err != nil {
		return nil, errors.ErrOperationFailed.WithMessage("读取文件失败").WithError(err)
	}

	// 验证图片文件（检查 magic bytes）
	reader := bytes.NewReader(buf.Bytes())
	if err := oss.ValidateImageFile(fileHeader.Filename, fileHeader.Size, reader); err != nil {
		return nil, errors.ErrInvalidParams.WithMessage("文件格式不正确：仅支持 jpg/jpeg/png/gif/webp 格式").WithError(err)
	}

	objectKey := oss.GenerateObjectKey(fileType, fileHeader.Filename)

	reader.Seek(0, io.SeekStart)
	url, err := s.uploader.Upload(ctx, objectKey, reader)
	if err != nil {
		return nil, errors.ErrOperationFailed.WithMessage("上传文件失败").WithError(err)
	}

	return &UploadImageResponse{
		URL:      url,
		FileName: fileHeader.Filename,
		Size:     fileHeader.Size,
	}, nil
}
