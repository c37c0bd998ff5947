//go:build integration
// +build integration

// Package integration 测试容器环境验证
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escortdollars/affiliate-backend/internal/models"
)

// TestTestContainers_AffiliateSchema 验证容器环境可承载推荐域模型
func TestTestContainers_AffiliateSchema(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	tc := NewTestContainers(ctx)

	err := tc.StartAll()
	require.NoError(t, err, "failed to start containers")

	t.Cleanup(func() {
		_ = tc.Cleanup()
	})

	t.Run("Postgres", func(t *testing.T) {
		db, err := tc.GetPostgresDB()
		require.NoError(t, err)

		err = db.AutoMigrate(
			&models.User{},
			&models.Referral{},
			&models.Commission{},
		)
		require.NoError(t, err)

		user := &models.User{
			Username:     "container_amb",
			Email:        "container_amb@example.com",
			PasswordHash: "x",
			UserType:     models.UserTypeAmbassador,
			ReferralCode: "AMBTC001",
			Status:       models.UserStatusActive,
		}
		require.NoError(t, db.Create(user).Error)

		var count int64
		err = db.Model(&models.User{}).
			Where("user_type = ?", models.UserTypeAmbassador).
			Count(&count).Error
		assert.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Redis", func(t *testing.T) {
		client, err := tc.GetRedisClient()
		require.NoError(t, err)

		ctx := context.Background()

		// 模拟激活令牌限流键
		err = client.Set(ctx, "activation:limit:activation:1", "1", time.Minute).Err()
		assert.NoError(t, err)

		val, err := client.Get(ctx, "activation:limit:activation:1").Result()
		assert.NoError(t, err)
		assert.Equal(t, "1", val)

		err = client.Del(ctx, "activation:limit:activation:1").Err()
		assert.NoError(t, err)
	})
}

// TestTestContainers_PostgresOnly 仅启动 Postgres
func TestTestContainers_PostgresOnly(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	tc := NewTestContainers(ctx)

	err := tc.StartPostgres(DefaultPostgresConfig())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = tc.Cleanup()
	})

	db, err := tc.GetPostgresDB()
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)

	err = sqlDB.Ping()
	assert.NoError(t, err)
}

// TestTestContainers_RedisOnly 仅启动 Redis
func TestTestContainers_RedisOnly(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	tc := NewTestContainers(ctx)

	err := tc.StartRedis(DefaultRedisConfig())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = tc.Cleanup()
	})

	client, err := tc.GetRedisClient()
	require.NoError(t, err)

	pong, err := client.Ping(ctx).Result()
	assert.NoError(t, err)
	assert.Equal(t, "PONG", pong)
}

// TestTestContainers_CustomConfig 使用自定义配置
func TestTestContainers_CustomConfig(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	tc := NewTestContainers(ctx)

	pgCfg := PostgresConfig{
		Database: "affiliate_custom",
		User:     "custom_user",
		Password: "custom_password",
		Image:    "postgres:14-alpine",
	}

	err := tc.StartPostgres(pgCfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = tc.Cleanup()
	})

	assert.Contains(t, tc.PostgresDSN, "affiliate_custom")
	assert.Contains(t, tc.PostgresDSN, "custom_user")
	assert.Contains(t, tc.PostgresDSN, "custom_password")
}

// TestTestContainers_GetDBBeforeStart 在启动前获取连接应该失败
func TestTestContainers_GetDBBeforeStart(t *testing.T) {
	ctx := context.Background()
	tc := NewTestContainers(ctx)

	_, err := tc.GetPostgresDB()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "postgres container not started")

	_, err = tc.GetRedisClient()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis container not started")
}

// TestTestContainers_CleanupWithoutStart 清理未启动的容器应该成功
func TestTestContainers_CleanupWithoutStart(t *testing.T) {
	ctx := context.Background()
	tc := NewTestContainers(ctx)

	err := tc.Cleanup()
	assert.NoError(t, err)
}
