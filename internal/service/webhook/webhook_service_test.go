// Package webhook 支付回调单元测试
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/escortdollars/affiliate-backend/internal/common/config"
	"github.com/escortdollars/affiliate-backend/internal/common/errors"
	"github.com/escortdollars/affiliate-backend/internal/models"
	"github.com/escortdollars/affiliate-backend/internal/repository"
	"github.com/escortdollars/affiliate-backend/internal/service/affiliate"
	"github.com/escortdollars/affiliate-backend/pkg/coinpayments"
)

const testIPNSecret = "ipn-secret"

// stubPayoutFinisher 记录结算收尾调用
type stubPayoutFinisher struct {
	completed []string
	failed    []string
	reasons   []string
}

func (f *stubPayoutFinisher) CompleteByWithdrawalID(ctx context.Context, withdrawalID string) (*models.Payout, error) {
	f.completed = append(f.completed, withdrawalID)
	return &models.Payout{Status: models.PayoutStatusCompleted}, nil
}

func (f *stubPayoutFinisher) FailByWithdrawalID(ctx context.Context, withdrawalID, reason string) (*models.Payout, error) {
	f.failed = append(f.failed, withdrawalID)
	f.reasons = append(f.reasons, reason)
	return &models.Payout{Status: models.PayoutStatusFailed}, nil
}

func setupWebhookTest(t *testing.T) (*gorm.DB, *WebhookService, *stubPayoutFinisher) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{}, &models.Referral{}, &models.Commission{},
		&models.CommissionRate{}, &models.Transaction{},
	)
	require.NoError(t, err)

	commissionSvc := affiliate.NewCommissionService(
		db,
		repository.NewCommissionRepository(db),
		repository.NewCommissionRateRepository(db),
		repository.NewReferralRepository(db),
		repository.NewUserRepository(db),
		&config.AffiliateConfig{EscortRate: 30, AmbassadorRate: 10},
	)

	payouts := &stubPayoutFinisher{}
	svc := NewWebhookService(
		repository.NewTransactionRepository(db),
		commissionSvc,
		payouts,
		&config.CoinPaymentsConfig{IPNSecret: testIPNSecret},
		&config.StripeConfig{WebhookSecret: "whsec_test", Tolerance: 300},
	)
	return db, svc, payouts
}

func createWebhookUsers(t *testing.T, db *gorm.DB) (*models.User, *models.User) {
	ambassador := &models.User{
		Username: "hook_amb", Email: "hook_amb@example.com", PasswordHash: "x",
		UserType: models.UserTypeAmbassador, ReferralCode: "HOOKAMB1",
		IsActive: true, Status: models.UserStatusActive,
	}
	require.NoError(t, db.Create(ambassador).Error)

	escort := &models.User{
		Username: "hook_esc", Email: "hook_esc@example.com", PasswordHash: "x",
		UserType: models.UserTypeEscort, ReferralCode: "HOOKESC1",
		IsActive: true, Status: models.UserStatusActive,
	}
	require.NoError(t, db.Create(escort).Error)

	require.NoError(t, db.Create(&models.Referral{
		ReferrerID:   ambassador.ID,
		ReferredID:   escort.ID,
		ReferralCode: ambassador.ReferralCode,
	}).Error)

	return ambassador, escort
}

func paymentIPNBody(txnID string, status int, amount float64, userID int64) []byte {
	values := url.Values{}
	values.Set("ipn_type", "api")
	values.Set("txn_id", txnID)
	values.Set("status", fmt.Sprintf("%d", status))
	values.Set("amount1", fmt.Sprintf("%.2f", amount))
	values.Set("currency1", "EUR")
	values.Set("custom", fmt.Sprintf("%d", userID))
	return []byte(values.Encode())
}

func TestWebhookService_CoinPaymentsPaymentIPN(t *testing.T) {
	db, svc, _ := setupWebhookTest(t)
	ctx := context.Background()
	ambassador, escort := createWebhookUsers(t, db)

	t.Run("签名无效不落库", func(t *testing.T) {
		body := paymentIPNBody("CPTX0001", 100, 200, escort.ID)
		err := svc.HandleCoinPaymentsIPN(ctx, body, "deadbeef")
		assert.ErrorIs(t, err, errors.ErrWebhookSignature)

		var count int64
		require.NoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
		assert.Equal(t, int64(0), count)
		require.NoError(t, db.Model(&models.Commission{}).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})

	t.Run("完成状态生成交易与佣金", func(t *testing.T) {
		body := paymentIPNBody("CPTX0001", 100, 200, escort.ID)
		err := svc.HandleCoinPaymentsIPN(ctx, body, coinpayments.SignIPN(testIPNSecret, body))
		require.NoError(t, err)

		var transaction models.Transaction
		require.NoError(t, db.Where("payment_id = ?", "CPTX0001").First(&transaction).Error)
		assert.Equal(t, models.TransactionStatusCompleted, transaction.Status)
		assert.NotNil(t, transaction.CompletedAt)
		assert.Equal(t, models.GatewayCoinPayments, transaction.Gateway)

		var commission models.Commission
		require.NoError(t, db.Where("transaction_id = ?", transaction.ID).First(&commission).Error)
		assert.Equal(t, ambassador.ID, commission.UserID)
		assert.Equal(t, 60.0, commission.Amount)
	})

	t.Run("重复回调不重复计佣", func(t *testing.T) {
		body := paymentIPNBody("CPTX0001", 100, 200, escort.ID)
		err := svc.HandleCoinPaymentsIPN(ctx, body, coinpayments.SignIPN(testIPNSecret, body))
		require.NoError(t, err)

		var count int64
		require.NoError(t, db.Model(&models.Commission{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("待确认状态只建交易", func(t *testing.T) {
		body := paymentIPNBody("CPTX0002", 1, 80, escort.ID)
		err := svc.HandleCoinPaymentsIPN(ctx, body, coinpayments.SignIPN(testIPNSecret, body))
		require.NoError(t, err)

		var transaction models.Transaction
		require.NoError(t, db.Where("payment_id = ?", "CPTX0002").First(&transaction).Error)
		assert.Equal(t, models.TransactionStatusPending, transaction.Status)
	})

	t.Run("失败状态终结交易", func(t *testing.T) {
		body := paymentIPNBody("CPTX0002", -1, 80, escort.ID)
		err := svc.HandleCoinPaymentsIPN(ctx, body, coinpayments.SignIPN(testIPNSecret, body))
		require.NoError(t, err)

		var transaction models.Transaction
		require.NoError(t, db.Where("payment_id = ?", "CPTX0002").First(&transaction).Error)
		assert.Equal(t, models.TransactionStatusFailed, transaction.Status)
	})

	t.Run("无推荐人的付款不报错", func(t *testing.T) {
		orphan := &models.User{
			Username: "hook_orphan", Email: "hook_orphan@example.com", PasswordHash: "x",
			UserType: models.UserTypeMember, ReferralCode: "HOOKORP1",
			IsActive: true, Status: models.UserStatusActive,
		}
		require.NoError(t, db.Create(orphan).Error)

		body := paymentIPNBody("CPTX0003", 100, 50, orphan.ID)
		err := svc.HandleCoinPaymentsIPN(ctx, body, coinpayments.SignIPN(testIPNSecret, body))
		require.NoError(t, err)

		var transaction models.Transaction
		require.NoError(t, db.Where("payment_id = ?", "CPTX0003").First(&transaction).Error)
		assert.Equal(t, models.TransactionStatusCompleted, transaction.Status)
	})
}

func TestWebhookService_CoinPaymentsWithdrawalIPN(t *testing.T) {
	_, svc, payouts := setupWebhookTest(t)
	ctx := context.Background()

	t.Run("提现完成", func(t *testing.T) {
		values := url.Values{}
		values.Set("ipn_type", "withdrawal")
		values.Set("id", "CPWD0001")
		values.Set("status", "2")
		body := []byte(values.Encode())

		err := svc.HandleCoinPaymentsIPN(ctx, body, coinpayments.SignIPN(testIPNSecret, body))
		require.NoError(t, err)
		assert.Equal(t, []string{"CPWD0001"}, payouts.completed)
	})

	t.Run("提现失败带原因", func(t *testing.T) {
		values := url.Values{}
		values.Set("ipn_type", "withdrawal")
		values.Set("id", "CPWD0002")
		values.Set("status", "-1")
		values.Set("status_text", "invalid address")
		body := []byte(values.Encode())

		err := svc.HandleCoinPaymentsIPN(ctx, body, coinpayments.SignIPN(testIPNSecret, body))
		require.NoError(t, err)
		assert.Equal(t, []string{"CPWD0002"}, payouts.failed)
		assert.Equal(t, []string{"invalid address"}, payouts.reasons)
	})

	t.Run("中间状态忽略", func(t *testing.T) {
		values := url.Values{}
		values.Set("ipn_type", "withdrawal")
		values.Set("id", "CPWD0003")
		values.Set("status", "0")
		body := []byte(values.Encode())

		err := svc.HandleCoinPaymentsIPN(ctx, body, coinpayments.SignIPN(testIPNSecret, body))
		require.NoError(t, err)
		assert.Len(t, payouts.completed, 1)
		assert.Len(t, payouts.failed, 1)
	})
}

// stubTransactionMirror 记录镜像同步调用
type stubTransactionMirror struct {
	synced []*models.Transaction
}

func (m *stubTransactionMirror) SyncTransaction(ctx context.Context, transaction *models.Transaction) {
	m.synced = append(m.synced, transaction)
}

func TestWebhookService_TransactionMirrorSync(t *testing.T) {
	db, svc, _ := setupWebhookTest(t)
	ctx := context.Background()
	_, escort := createWebhookUsers(t, db)

	mirror := &stubTransactionMirror{}
	svc.SetMirror(mirror)

	t.Run("新建待确认交易触发镜像", func(t *testing.T) {
		body := paymentIPNBody("CPMR0001", 1, 90, escort.ID)
		err := svc.HandleCoinPaymentsIPN(ctx, body, coinpayments.SignIPN(testIPNSecret, body))
		require.NoError(t, err)

		require.Len(t, mirror.synced, 1)
		assert.Equal(t, "CPMR0001", mirror.synced[0].PaymentID)
		assert.Equal(t, models.TransactionStatusPending, mirror.synced[0].Status)
	})

	t.Run("交易完成再次镜像终态", func(t *testing.T) {
		body := paymentIPNBody("CPMR0001", 100, 90, escort.ID)
		err := svc.HandleCoinPaymentsIPN(ctx, body, coinpayments.SignIPN(testIPNSecret, body))
		require.NoError(t, err)

		require.Len(t, mirror.synced, 2)
		assert.Equal(t, models.TransactionStatusCompleted, mirror.synced[1].Status)
	})

	t.Run("Stripe 交易同样镜像", func(t *testing.T) {
		payload := []byte(fmt.Sprintf(`{
			"id": "evt_mirror",
			"type": "checkout.session.completed",
			"data": {"object": {
				"id": "cs_test_mirror",
				"amount_total": 8000,
				"currency": "eur",
				"metadata": {"user_id": "%d"}
			}}
		}`, escort.ID))
		header := stripeSigHeader("whsec_test", payload, time.Now())
		require.NoError(t, svc.HandleStripeEvent(ctx, payload, header))

		require.Len(t, mirror.synced, 3)
		assert.Equal(t, "cs_test_mirror", mirror.synced[2].PaymentID)
		assert.Equal(t, models.GatewayStripe, mirror.synced[2].Gateway)
	})
}

func stripeSigHeader(secret string, payload []byte, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", at.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestWebhookService_Stripe(t *testing.T) {
	db, svc, _ := setupWebhookTest(t)
	ctx := context.Background()
	ambassador, escort := createWebhookUsers(t, db)

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_001",
			"amount_total": 15000,
			"currency": "eur",
			"metadata": {"user_id": "%d"}
		}}
	}`, escort.ID))

	t.Run("签名无效被拒绝", func(t *testing.T) {
		err := svc.HandleStripeEvent(ctx, payload, "t=1,v1=bad")
		assert.ErrorIs(t, err, errors.ErrWebhookSignature)
	})

	t.Run("时间戳过期被拒绝", func(t *testing.T) {
		header := stripeSigHeader("whsec_test", payload, time.Now().Add(-10*time.Minute))
		err := svc.HandleStripeEvent(ctx, payload, header)
		assert.ErrorIs(t, err, errors.ErrWebhookSignature)
	})

	t.Run("结账完成生成交易与佣金", func(t *testing.T) {
		header := stripeSigHeader("whsec_test", payload, time.Now())
		require.NoError(t, svc.HandleStripeEvent(ctx, payload, header))

		var transaction models.Transaction
		require.NoError(t, db.Where("payment_id = ?", "cs_test_001").First(&transaction).Error)
		assert.Equal(t, models.GatewayStripe, transaction.Gateway)
		assert.Equal(t, 150.0, transaction.Amount)
		assert.Equal(t, "EUR", transaction.Currency)
		assert.Equal(t, models.TransactionStatusCompleted, transaction.Status)

		var commission models.Commission
		require.NoError(t, db.Where("transaction_id = ?", transaction.ID).First(&commission).Error)
		assert.Equal(t, ambassador.ID, commission.UserID)
		assert.Equal(t, 45.0, commission.Amount)
	})

	t.Run("重复事件幂等", func(t *testing.T) {
		header := stripeSigHeader("whsec_test", payload, time.Now())
		require.NoError(t, svc.HandleStripeEvent(ctx, payload, header))

		var count int64
		require.NoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("无关事件忽略", func(t *testing.T) {
		other := []byte(`{"id": "evt_2", "type": "invoice.created", "data": {"object": {"id": "in_1"}}}`)
		header := stripeSigHeader("whsec_test", other, time.Now())
		require.NoError(t, svc.HandleStripeEvent(ctx, other, header))
	})
}
