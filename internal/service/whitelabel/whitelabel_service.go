// Package whitelabel 白标站点服务
package whitelabel

import (
	"context"
	"fmt"
	"net"
	"time"

	"gorm.io/gorm"

	"github.com/escortdollars/affiliate-backend/internal/common/config"
	"github.com/escortdollars/affiliate-backend/internal/common/errors"
	"github.com/escortdollars/affiliate-backend/internal/common/utils"
	"github.com/escortdollars/affiliate-backend/internal/models"
	"github.com/escortdollars/affiliate-backend/internal/repository"
)

// TXTResolver DNS TXT 记录查询接口，*net.Resolver 满足该接口
type TXTResolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// SiteNotifier 站点事件通知钩子（尽力而为）
type SiteNotifier interface {
	NotifyDomainVerified(ctx context.Context, site *models.WhiteLabel)
}

// SiteMirror 站点镜像钩子（尽力而为）
type SiteMirror interface {
	SyncWhiteLabel(ctx context.Context, site *models.WhiteLabel)
}

// WhiteLabelService 白标站点服务
type WhiteLabelService struct {
	whiteLabelRepo *repository.WhiteLabelRepository
	userRepo       *repository.UserRepository
	resolver       TXTResolver
	cfg            *config.AffiliateConfig
	notifier       SiteNotifier
	mirror         SiteMirror
}

// NewWhiteLabelService 创建白标站点服务
func NewWhiteLabelService(
	whiteLabelRepo *repository.WhiteLabelRepository,
	userRepo *repository.UserRepository,
	resolver TXTResolver,
	cfg *config.AffiliateConfig,
) *WhiteLabelService {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &WhiteLabelService{
		whiteLabelRepo: whiteLabelRepo,
		userRepo:       userRepo,
		resolver:       resolver,
		cfg:            cfg,
	}
}

// SetNotifier 设置通知钩子
func (s *WhiteLabelService) SetNotifier(notifier SiteNotifier) {
	s.notifier = notifier
}

// SetMirror 设置镜像钩子
func (s *WhiteLabelService) SetMirror(mirror SiteMirror) {
	s.mirror = mirror
}

// syncMirror 将站点推送到镜像
func (s *WhiteLabelService) syncMirror(ctx context.Context, site *models.WhiteLabel) {
	if s.mirror != nil {
		s.mirror.SyncWhiteLabel(ctx, site)
	}
}

// maxSites 大使可创建的站点上限
func (s *WhiteLabelService) maxSites() int {
	if s.cfg.MaxWhiteLabels > 0 {
		return s.cfg.MaxWhiteLabels
	}
	return models.MaxWhiteLabelsPerAmbassador
}

// CreateRequest 创建白标站点请求
type CreateRequest struct {
	Name         string  `json:"name" binding:"required,max=100"`
	Domain       string  `json:"domain" binding:"required"`
	CustomDomain *string `json:"custom_domain,omitempty"`
	LogoURL      *string `json:"logo_url,omitempty"`
	PrimaryColor *string `json:"primary_color,omitempty"`
	WelcomeText  *string `json:"welcome_text,omitempty"`
}

// Create 创建白标站点
func (s *WhiteLabelService) Create(ctx context.Context, ambassadorID int64, req *CreateRequest) (*models.WhiteLabel, error) {
	user, err := s.userRepo.GetByID(ctx, ambassadorID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !user.IsAmbassador() {
		return nil, errors.ErrNotAmbassador
	}

	domain := utils.CleanDomain(req.Domain)
	if !utils.ValidateDomain(domain) {
		return nil, errors.ErrDomainInvalid
	}

	var customDomain *string
	if req.CustomDomain != nil && *req.CustomDomain != "" {
		cleaned := utils.CleanDomain(*req.CustomDomain)
		if !utils.ValidateDomain(cleaned) {
			return nil, errors.ErrDomainInvalid
		}
		customDomain = &cleaned
	}

	count, err := s.whiteLabelRepo.CountByAmbassadorID(ctx, ambassadorID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if count >= int64(s.maxSites()) {
		return nil, errors.ErrWhiteLabelLimit
	}

	exists, err := s.whiteLabelRepo.ExistsByDomain(ctx, domain)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrDomainExists
	}
	if customDomain != nil {
		exists, err = s.whiteLabelRepo.ExistsByDomain(ctx, *customDomain)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		if exists {
			return nil, errors.ErrDomainExists
		}
	}

	site := &models.WhiteLabel{
		AmbassadorID:        ambassadorID,
		Name:                req.Name,
		Domain:              domain,
		CustomDomain:        customDomain,
		DNSVerificationCode: utils.GenerateHexToken(models.DNSVerificationCodeBytes),
		LogoURL:             req.LogoURL,
		PrimaryColor:        req.PrimaryColor,
		WelcomeText:         req.WelcomeText,
		IsActive:            true,
	}
	if err := s.whiteLabelRepo.Create(ctx, site); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.syncMirror(ctx, site)
	return site, nil
}

// getOwned 获取站点并校验归属
func (s *WhiteLabelService) getOwned(ctx context.Context, ambassadorID, id int64) (*models.WhiteLabel, error) {
	site, err := s.whiteLabelRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrWhiteLabelNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if site.AmbassadorID != ambassadorID {
		return nil, errors.ErrPermissionDenied
	}
	return site, nil
}

// DNSInstructions DNS 验证配置说明
type DNSInstructions struct {
	RecordType string `json:"record_type"`
	Host       string `json:"host"`
	Value      string `json:"value"`
}

// GetDNSInstructions 获取自定义域名的 DNS 验证说明
func (s *WhiteLabelService) GetDNSInstructions(ctx context.Context, ambassadorID, id int64) (*DNSInstructions, error) {
	site, err := s.getOwned(ctx, ambassadorID, id)
	if err != nil {
		return nil, err
	}
	if site.CustomDomain == nil {
		return nil, errors.ErrCustomDomainNotSet
	}
	return &DNSInstructions{
		RecordType: "TXT",
		Host:       fmt.Sprintf("%s.%s", s.cfg.DNSVerifyPrefix, *site.CustomDomain),
		Value:      site.DNSVerificationCode,
	}, nil
}

// VerifyDNS 校验自定义域名的 TXT 记录
// 验证通过后站点标记为已验证，重复验证直接返回当前站点
func (s *WhiteLabelService) VerifyDNS(ctx context.Context, ambassadorID, id int64) (*models.WhiteLabel, error) {
	site, err := s.getOwned(ctx, ambassadorID, id)
	if err != nil {
		return nil, err
	}
	if site.CustomDomain == nil {
		return nil, errors.ErrCustomDomainNotSet
	}
	if site.DNSVerified {
		return site, nil
	}

	timeout := time.Duration(s.cfg.DNSVerifyTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	lookupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	host := fmt.Sprintf("%s.%s", s.cfg.DNSVerifyPrefix, *site.CustomDomain)
	records, err := s.resolver.LookupTXT(lookupCtx, host)
	if err != nil {
		return nil, errors.ErrDNSVerifyFailed.WithError(err)
	}

	if !utils.Contains(records, site.DNSVerificationCode) {
		return nil, errors.ErrDNSVerifyFailed
	}

	now := time.Now()
	if err := s.whiteLabelRepo.UpdateFields(ctx, site.ID, map[string]interface{}{
		"dns_verified":    true,
		"dns_verified_at": now,
	}); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	site.DNSVerified = true
	site.DNSVerifiedAt = &now

	if s.notifier != nil {
		s.notifier.NotifyDomainVerified(ctx, site)
	}
	s.syncMirror(ctx, site)

	return site, nil
}

// UpdateRequest 更新白标站点请求
type UpdateRequest struct {
	Name         *string     `json:"name,omitempty"`
	LogoURL      *string     `json:"logo_url,omitempty"`
	PrimaryColor *string     `json:"primary_color,omitempty"`
	WelcomeText  *string     `json:"welcome_text,omitempty"`
	Branding     models.JSON `json:"branding_settings,omitempty"`
	IsActive     *bool       `json:"is_active,omitempty"`
}

// Update 更新白标站点
func (s *WhiteLabelService) Update(ctx context.Context, ambassadorID, id int64, req *UpdateRequest) (*models.WhiteLabel, error) {
	site, err := s.getOwned(ctx, ambassadorID, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.LogoURL != nil {
		fields["logo_url"] = *req.LogoURL
	}
	if req.PrimaryColor != nil {
		fields["primary_color"] = *req.PrimaryColor
	}
	if req.WelcomeText != nil {
		fields["welcome_text"] = *req.WelcomeText
	}
	if req.Branding != nil {
		fields["branding_settings"] = req.Branding
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	if len(fields) == 0 {
		return site, nil
	}

	if err := s.whiteLabelRepo.UpdateFields(ctx, site.ID, fields); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	updated, err := s.whiteLabelRepo.GetByID(ctx, site.ID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.syncMirror(ctx, updated)
	return updated, nil
}

// Delete 删除白标站点
func (s *WhiteLabelService) Delete(ctx context.Context, ambassadorID, id int64) error {
	site, err := s.getOwned(ctx, ambassadorID, id)
	if err != nil {
		return err
	}
	if err := s.whiteLabelRepo.Delete(ctx, site.ID); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// ListByAmbassador 获取大使的站点列表
func (s *WhiteLabelService) ListByAmbassador(ctx context.Context, ambassadorID int64) ([]*models.WhiteLabel, error) {
	return s.whiteLabelRepo.ListByAmbassadorID(ctx, ambassadorID)
}

// List 获取站点列表（管理端）
func (s *WhiteLabelService) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.WhiteLabel, int64, error) {
	return s.whiteLabelRepo.List(ctx, offset, limit, filters)
}

// GetByID 获取站点详情（含横幅，校验归属）
func (s *WhiteLabelService) GetByID(ctx context.Context, ambassadorID, id int64) (*models.WhiteLabel, error) {
	if _, err := s.getOwned(ctx, ambassadorID, id); err != nil {
		return nil, err
	}
	site, err := s.whiteLabelRepo.GetByIDWithBanners(ctx, id)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return site, nil
}

// GetPublicByDomain 按访问域名获取站点（公开接口）
func (s *WhiteLabelService) GetPublicByDomain(ctx context.Context, domain string) (*models.WhiteLabel, error) {
	site, err := s.whiteLabelRepo.GetActiveByDomain(ctx, utils.CleanDomain(domain))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrWhiteLabelNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return site, nil
}
