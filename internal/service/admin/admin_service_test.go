// Package admin 管理端服务单元测试
package admin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/escortdollars/affiliate-backend/internal/models"
	"github.com/escortdollars/affiliate-backend/internal/repository"
)

func setupAdminTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Referral{},
		&models.Commission{},
		&models.Payout{},
		&models.WhiteLabel{},
		&models.AuditLog{},
	)
	require.NoError(t, err)

	return db
}

func TestAdminService_GetDashboard(t *testing.T) {
	db := setupAdminTestDB(t)
	svc := NewAdminService(db, repository.NewAuditLogRepository(db))
	ctx := context.Background()

	ambassador := &models.User{
		Username:     "dash_amb",
		Email:        "dash_amb@example.com",
		PasswordHash: "x",
		UserType:     models.UserTypeAmbassador,
		ReferralCode: "DASH0001",
		IsActive:     true,
		Status:       models.UserStatusActive,
	}
	require.NoError(t, db.Create(ambassador).Error)

	require.NoError(t, db.Create(&models.Commission{
		UserID:         ambassador.ID,
		CommissionType: models.CommissionTypeTransaction,
		GrossAmount:    100,
		Rate:           30,
		Amount:         30,
		Status:         models.CommissionStatusPending,
	}).Error)
	require.NoError(t, db.Create(&models.Commission{
		UserID:         ambassador.ID,
		CommissionType: models.CommissionTypeTransaction,
		GrossAmount:    200,
		Rate:           30,
		Amount:         60,
		Status:         models.CommissionStatusPaid,
	}).Error)
	require.NoError(t, db.Create(&models.Payout{
		BatchNo:       "B0001",
		AmbassadorID:  ambassador.ID,
		Amount:        60,
		Method:        models.PayoutMethodBTC,
		WalletAddress: "bc1q",
		Status:        models.PayoutStatusCompleted,
	}).Error)

	dashboard, err := svc.GetDashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dashboard.TotalUsers)
	assert.Equal(t, int64(1), dashboard.TotalAmbassadors)
	assert.Equal(t, 30.0, dashboard.PendingCommission)
	assert.Equal(t, 60.0, dashboard.PaidCommission)
	assert.Equal(t, 60.0, dashboard.CompletedPayouts)
	assert.Equal(t, int64(0), dashboard.PendingPayouts)
}

func TestAdminService_ListAuditLogs(t *testing.T) {
	db := setupAdminTestDB(t)
	svc := NewAdminService(db, repository.NewAuditLogRepository(db))
	ctx := context.Background()

	userID := int64(5)
	require.NoError(t, db.Create(&models.AuditLog{
		UserID: &userID,
		Module: "payout",
		Action: "create",
		Method: "POST",
		Path:   "/api/v1/payouts",
		IP:     "203.0.113.9",
		Status: 200,
	}).Error)
	require.NoError(t, db.Create(&models.AuditLog{
		Module: "auth",
		Action: "login",
		Method: "POST",
		Path:   "/api/v1/auth/login",
		IP:     "203.0.113.9",
		Status: 200,
	}).Error)

	logs, total, err := svc.ListAuditLogs(ctx, 0, 10, map[string]interface{}{"user_id": userID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, logs, 1)
	assert.Equal(t, "payout", logs[0].Module)
}
