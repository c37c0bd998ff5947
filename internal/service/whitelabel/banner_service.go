package whitelabel

import (
	"context"

	"gorm.io/gorm"

	"github.com/escortdollars/affiliate-backend/internal/common/config"
	"github.com/escortdollars/affiliate-backend/internal/common/errors"
	"github.com/escortdollars/affiliate-backend/internal/common/utils"
	"github.com/escortdollars/affiliate-backend/internal/models"
	"github.com/escortdollars/affiliate-backend/internal/repository"
)

// BannerService 站点横幅服务
type BannerService struct {
	bannerRepo     *repository.BannerRepository
	whiteLabelRepo *repository.WhiteLabelRepository
	cfg            *config.AffiliateConfig
}

// NewBannerService 创建横幅服务
func NewBannerService(
	bannerRepo *repository.BannerRepository,
	whiteLabelRepo *repository.WhiteLabelRepository,
	cfg *config.AffiliateConfig,
) *BannerService {
	return &BannerService{
		bannerRepo:     bannerRepo,
		whiteLabelRepo: whiteLabelRepo,
		cfg:            cfg,
	}
}

// maxPersonalBanners 每个站点的个人横幅上限
func (s *BannerService) maxPersonalBanners() int {
	if s.cfg.MaxPersonalBanners > 0 {
		return s.cfg.MaxPersonalBanners
	}
	return models.MaxPersonalBannersPerSite
}

// CreateBannerRequest 创建横幅请求
type CreateBannerRequest struct {
	WhiteLabelID int64   `json:"white_label_id" binding:"required"`
	Title        string  `json:"title" binding:"required,max=255"`
	BannerType   string  `json:"banner_type" binding:"required,oneof=personal partner"`
	ImageURL     *string `json:"image_url,omitempty"`
	HTMLContent  *string `json:"html_content,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`
	Link         *string `json:"link,omitempty"`
}

// CreateBanner 创建站点横幅
// 个人横幅需要图片且受数量上限约束，合作横幅需要 HTML 内容和联系邮箱
func (s *BannerService) CreateBanner(ctx context.Context, ambassadorID int64, req *CreateBannerRequest) (*models.Banner, error) {
	site, err := s.whiteLabelRepo.GetByID(ctx, req.WhiteLabelID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrWhiteLabelNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if site.AmbassadorID != ambassadorID {
		return nil, errors.ErrPermissionDenied
	}

	switch req.BannerType {
	case models.BannerTypePersonal:
		if req.ImageURL == nil || *req.ImageURL == "" {
			return nil, errors.ErrBannerImageRequired
		}
		count, err := s.bannerRepo.CountPersonalBySite(ctx, site.ID)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		if count >= int64(s.maxPersonalBanners()) {
			return nil, errors.ErrBannerLimit
		}
	case models.BannerTypePartner:
		if req.HTMLContent == nil || *req.HTMLContent == "" {
			return nil, errors.ErrBannerHTMLRequired
		}
		if req.ContactEmail == nil || !utils.ValidateEmail(*req.ContactEmail) {
			return nil, errors.ErrBannerHTMLRequired
		}
	default:
		return nil, errors.ErrInvalidParams
	}

	banner := &models.Banner{
		WhiteLabelID: site.ID,
		Title:        req.Title,
		BannerType:   req.BannerType,
		ImageURL:     req.ImageURL,
		HTMLContent:  req.HTMLContent,
		ContactEmail: req.ContactEmail,
		Link:         req.Link,
		IsActive:     true,
	}
	if err := s.bannerRepo.Create(ctx, banner); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return banner, nil
}

// getOwnedBanner 获取横幅并校验归属
func (s *BannerService) getOwnedBanner(ctx context.Context, ambassadorID, id int64) (*models.Banner, error) {
	banner, err := s.bannerRepo.GetByIDWithSite(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBannerNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if banner.WhiteLabel == nil || banner.WhiteLabel.AmbassadorID != ambassadorID {
		return nil, errors.ErrPermissionDenied
	}
	return banner, nil
}

// UpdateBannerRequest 更新横幅请求
type UpdateBannerRequest struct {
	Title       *string `json:"title,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	HTMLContent *string `json:"html_content,omitempty"`
	Link        *string `json:"link,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// UpdateBanner 更新横幅
func (s *BannerService) UpdateBanner(ctx context.Context, ambassadorID, id int64, req *UpdateBannerRequest) (*models.Banner, error) {
	banner, err := s.getOwnedBanner(ctx, ambassadorID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		banner.Title = *req.Title
	}
	if req.ImageURL != nil {
		banner.ImageURL = req.ImageURL
	}
	if req.HTMLContent != nil {
		banner.HTMLContent = req.HTMLContent
	}
	if req.Link != nil {
		banner.Link = req.Link
	}
	if req.IsActive != nil {
		banner.IsActive = *req.IsActive
	}

	banner.WhiteLabel = nil
	if err := s.bannerRepo.Update(ctx, banner); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return banner, nil
}

// DeleteBanner 删除横幅
func (s *BannerService) DeleteBanner(ctx context.Context, ambassadorID, id int64) error {
	banner, err := s.getOwnedBanner(ctx, ambassadorID, id)
	if err != nil {
		return err
	}
	if err := s.bannerRepo.Delete(ctx, banner.ID); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// ListBySite 获取站点的横幅列表（校验归属）
func (s *BannerService) ListBySite(ctx context.Context, ambassadorID, whiteLabelID int64) ([]*models.Banner, error) {
	site, err := s.whiteLabelRepo.GetByID(ctx, whiteLabelID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrWhiteLabelNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if site.AmbassadorID != ambassadorID {
		return nil, errors.ErrPermissionDenied
	}
	return s.bannerRepo.ListByWhiteLabelID(ctx, whiteLabelID)
}

// TrackView 记录横幅展示（公开接口）
func (s *BannerService) TrackView(ctx context.Context, id int64) error {
	return s.bannerRepo.IncrementViews(ctx, id)
}

// TrackClick 记录横幅点击（公开接口）
func (s *BannerService) TrackClick(ctx context.Context, id int64) (*models.Banner, error) {
	banner, err := s.bannerRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBannerNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if err := s.bannerRepo.IncrementClicks(ctx, id); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return banner, nil
}
