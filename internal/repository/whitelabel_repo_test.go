// Package repository 白标站点仓储单元测试
package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/escortdollars/affiliate-backend/internal/common/utils"
	"github.com/escortdollars/affiliate-backend/internal/models"
)

func setupWhiteLabelTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.WhiteLabel{}, &models.Banner{})
	require.NoError(t, err)

	return db
}

func TestWhiteLabelRepository_Create(t *testing.T) {
	db := setupWhiteLabelTestDB(t)
	repo := NewWhiteLabelRepository(db)
	ctx := context.Background()

	wl := &models.WhiteLabel{
		AmbassadorID:        1,
		Name:                "My Site",
		Domain:              "mysite.example.com",
		DNSVerificationCode: utils.GenerateHexToken(models.DNSVerificationCodeBytes),
		IsActive:            true,
	}
	err := repo.Create(ctx, wl)
	require.NoError(t, err)
	assert.NotZero(t, wl.ID)
	assert.Len(t, wl.DNSVerificationCode, 32)

	// 域名唯一
	err = repo.Create(ctx, &models.WhiteLabel{AmbassadorID: 2, Name: "Other", Domain: "mysite.example.com"})
	assert.Error(t, err)
}

func TestWhiteLabelRepository_GetActiveByDomain(t *testing.T) {
	db := setupWhiteLabelTestDB(t)
	repo := NewWhiteLabelRepository(db)
	ctx := context.Background()

	custom := "custom.example.com"
	db.Create(&models.WhiteLabel{AmbassadorID: 1, Name: "A", Domain: "a.example.com", CustomDomain: &custom, IsActive: true})
	db.Create(&models.WhiteLabel{AmbassadorID: 1, Name: "B", Domain: "b.example.com", IsActive: false})

	found, err := repo.GetActiveByDomain(ctx, "a.example.com")
	require.NoError(t, err)
	assert.Equal(t, "A", found.Name)

	found, err = repo.GetActiveByDomain(ctx, "custom.example.com")
	require.NoError(t, err)
	assert.Equal(t, "A", found.Name)

	_, err = repo.GetActiveByDomain(ctx, "b.example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestWhiteLabelRepository_CountByAmbassadorID(t *testing.T) {
	db := setupWhiteLabelTestDB(t)
	repo := NewWhiteLabelRepository(db)
	ctx := context.Background()

	db.Create(&models.WhiteLabel{AmbassadorID: 1, Name: "A", Domain: "a.example.com"})
	db.Create(&models.WhiteLabel{AmbassadorID: 1, Name: "B", Domain: "b.example.com"})
	db.Create(&models.WhiteLabel{AmbassadorID: 2, Name: "C", Domain: "c.example.com"})

	count, err := repo.CountByAmbassadorID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestWhiteLabelRepository_UpdateFields(t *testing.T) {
	db := setupWhiteLabelTestDB(t)
	repo := NewWhiteLabelRepository(db)
	ctx := context.Background()

	wl := &models.WhiteLabel{AmbassadorID: 1, Name: "A", Domain: "a.example.com"}
	db.Create(wl)

	err := repo.UpdateFields(ctx, wl.ID, map[string]interface{}{"dns_verified": true})
	require.NoError(t, err)

	found, err := repo.GetByID(ctx, wl.ID)
	require.NoError(t, err)
	assert.True(t, found.DNSVerified)
}

func TestBannerRepository_Counters(t *testing.T) {
	db := setupWhiteLabelTestDB(t)
	repo := NewBannerRepository(db)
	ctx := context.Background()

	img := "https://cdn.example.com/banner.png"
	banner := &models.Banner{WhiteLabelID: 1, Title: "Promo", BannerType: models.BannerTypePersonal, ImageURL: &img, IsActive: true}
	require.NoError(t, repo.Create(ctx, banner))

	require.NoError(t, repo.IncrementViews(ctx, banner.ID))
	require.NoError(t, repo.IncrementViews(ctx, banner.ID))
	require.NoError(t, repo.IncrementClicks(ctx, banner.ID))

	found, err := repo.GetByID(ctx, banner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), found.ViewsCount)
	assert.Equal(t, int64(1), found.ClicksCount)
	assert.Equal(t, 50.0, found.ClickThroughRate())
}

func TestBannerRepository_CountPersonalBySite(t *testing.T) {
	db := setupWhiteLabelTestDB(t)
	repo := NewBannerRepository(db)
	ctx := context.Background()

	img := "https://cdn.example.com/banner.png"
	db.Create(&models.Banner{WhiteLabelID: 1, Title: "P1", BannerType: models.BannerTypePersonal, ImageURL: &img})
	db.Create(&models.Banner{WhiteLabelID: 1, Title: "P2", BannerType: models.BannerTypePersonal, ImageURL: &img})
	html := "<div>partner</div>"
	email := "partner@example.com"
	db.Create(&models.Banner{WhiteLabelID: 1, Title: "Partner", BannerType: models.BannerTypePartner, HTMLContent: &html, ContactEmail: &email})

	count, err := repo.CountPersonalBySite(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
