package models

import (
	"fmt"
	"time"
)

// WhiteLabel 白标站点
type WhiteLabel struct {
	ID                  int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	AmbassadorID        int64      `gorm:"index;not null" json:"ambassador_id"`
	Name                string     `gorm:"type:varchar(100);not null" json:"name"`
	Domain              string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"domain"`
	CustomDomain        *string    `gorm:"type:varchar(255);uniqueIndex" json:"custom_domain,omitempty"`
	DNSVerificationCode string     `gorm:"type:varchar(64)" json:"dns_verification_code,omitempty"`
	DNSVerified         bool       `gorm:"not null;default:false" json:"dns_verified"`
	DNSVerifiedAt       *time.Time `json:"dns_verified_at,omitempty"`
	LogoURL             *string    `gorm:"type:varchar(255)" json:"logo_url,omitempty"`
	PrimaryColor        *string    `gorm:"type:varchar(20)" json:"primary_color,omitempty"`
	WelcomeText         *string    `gorm:"type:text" json:"welcome_text,omitempty"`
	BrandingSettings    JSON       `gorm:"type:jsonb" json:"branding_settings,omitempty"`
	IsActive            bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Ambassador *User    `gorm:"foreignKey:AmbassadorID" json:"ambassador,omitempty"`
	Banners    []Banner `gorm:"foreignKey:WhiteLabelID" json:"banners,omitempty"`
}

// TableName 表名
func (WhiteLabel) TableName() string {
	return "white_labels"
}

// SiteURL 站点访问地址
func (w *WhiteLabel) SiteURL() string {
	return fmt.Sprintf("https://%s", w.Domain)
}

// MaxWhiteLabelsPerAmbassador 每个大使最多可创建的白标站点数
const MaxWhiteLabelsPerAmbassador = 3

// DNSVerificationCodeBytes DNS 验证令牌字节数（十六进制输出为其两倍长度）
const DNSVerificationCodeBytes = 16

// Banner 站点横幅
type Banner struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	WhiteLabelID int64     `gorm:"index;not null" json:"white_label_id"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	BannerType   string    `gorm:"type:varchar(20);not null;default:'personal'" json:"banner_type"`
	ImageURL     *string   `gorm:"type:varchar(255)" json:"image_url,omitempty"`
	HTMLContent  *string   `gorm:"type:text" json:"html_content,omitempty"`
	ContactEmail *string   `gorm:"type:varchar(255)" json:"contact_email,omitempty"`
	Link         *string   `gorm:"type:varchar(255)" json:"link,omitempty"`
	ViewsCount   int64     `gorm:"not null;default:0" json:"views_count"`
	ClicksCount  int64     `gorm:"not null;default:0" json:"clicks_count"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	WhiteLabel *WhiteLabel `gorm:"foreignKey:WhiteLabelID" json:"white_label,omitempty"`
}

// TableName 表名
func (Banner) TableName() string {
	return "banners"
}

// ClickThroughRate 点击率（百分比）
func (b *Banner) ClickThroughRate() float64 {
	if b.ViewsCount == 0 {
		return 0
	}
	return float64(b.ClicksCount) / float64(b.ViewsCount) * 100
}

// BannerType 横幅类型
const (
	BannerTypePersonal = "personal" // 个人横幅，需上传图片
	BannerTypePartner  = "partner"  // 合作横幅，需HTML内容和联系邮箱
)

// MaxPersonalBannersPerSite 每个站点最多可创建的个人横幅数
const MaxPersonalBannersPerSite = 3
