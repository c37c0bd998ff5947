// Package webhook 处理支付网关回调
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/escortdollars/affiliate-backend/internal/common/config"
	"github.com/escortdollars/affiliate-backend/internal/common/errors"
	"github.com/escortdollars/affiliate-backend/internal/common/logger"
	"github.com/escortdollars/affiliate-backend/internal/common/metrics"
	"github.com/escortdollars/affiliate-backend/internal/common/utils"
	"github.com/escortdollars/affiliate-backend/internal/models"
	"github.com/escortdollars/affiliate-backend/internal/repository"
	"github.com/escortdollars/affiliate-backend/pkg/coinpayments"
)

// IPNTypeWithdrawal 提现类回调
const IPNTypeWithdrawal = "withdrawal"

// Stripe 事件类型
const (
	StripeEventCheckoutCompleted = "checkout.session.completed"
	StripeEventPaymentSucceeded  = "payment_intent.succeeded"
)

// CommissionCreator 佣金生成钩子
type CommissionCreator interface {
	CreateFromTransaction(ctx context.Context, referredUserID int64, transactionID *int64, grossAmount float64, commissionType string) (*models.Commission, error)
}

// PayoutFinisher 结算单收尾钩子
type PayoutFinisher interface {
	CompleteByWithdrawalID(ctx context.Context, withdrawalID string) (*models.Payout, error)
	FailByWithdrawalID(ctx context.Context, withdrawalID, reason string) (*models.Payout, error)
}

// TransactionMirror 交易镜像钩子（尽力而为）
type TransactionMirror interface {
	SyncTransaction(ctx context.Context, transaction *models.Transaction)
}

// WebhookService 支付回调服务
type WebhookService struct {
	transactionRepo *repository.TransactionRepository
	commissions     CommissionCreator
	payouts         PayoutFinisher
	mirror          TransactionMirror
	cpCfg           *config.CoinPaymentsConfig
	stripeCfg       *config.StripeConfig
}

// NewWebhookService 创建支付回调服务
func NewWebhookService(
	transactionRepo *repository.TransactionRepository,
	commissions CommissionCreator,
	payouts PayoutFinisher,
	cpCfg *config.CoinPaymentsConfig,
	stripeCfg *config.StripeConfig,
) *WebhookService {
	return &WebhookService{
		transactionRepo: transactionRepo,
		commissions:     commissions,
		payouts:         payouts,
		cpCfg:           cpCfg,
		stripeCfg:       stripeCfg,
	}
}

// SetMirror 设置交易镜像钩子
func (s *WebhookService) SetMirror(mirror TransactionMirror) {
	s.mirror = mirror
}

// syncMirror 将交易推送到镜像
func (s *WebhookService) syncMirror(ctx context.Context, transaction *models.Transaction) {
	if s.mirror != nil {
		s.mirror.SyncTransaction(ctx, transaction)
	}
}

// HandleCoinPaymentsIPN 处理 CoinPayments IPN 回调
// 签名针对原始请求体校验，校验失败不落任何数据
func (s *WebhookService) HandleCoinPaymentsIPN(ctx context.Context, body []byte, signature string) error {
	if !coinpayments.VerifyIPN(s.cpCfg.IPNSecret, body, signature) {
		metrics.GetMetrics().RecordWebhookEvent(models.GatewayCoinPayments, "rejected")
		return errors.ErrWebhookSignature
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return errors.ErrWebhookPayload.WithError(err)
	}

	if values.Get("ipn_type") == IPNTypeWithdrawal {
		err = s.handleWithdrawalIPN(ctx, values)
	} else {
		err = s.handlePaymentIPN(ctx, values)
	}
	if err == nil {
		metrics.GetMetrics().RecordWebhookEvent(models.GatewayCoinPayments, "processed")
	}
	return err
}

// handleWithdrawalIPN 提现回调：按提现单号收尾结算单
func (s *WebhookService) handleWithdrawalIPN(ctx context.Context, values url.Values) error {
	withdrawalID := values.Get("id")
	if withdrawalID == "" {
		return errors.ErrWebhookPayload
	}

	status, err := strconv.Atoi(values.Get("status"))
	if err != nil {
		return errors.ErrWebhookPayload.WithError(err)
	}

	switch status {
	case coinpayments.WithdrawalStatusCompleted:
		_, err = s.payouts.CompleteByWithdrawalID(ctx, withdrawalID)
	case coinpayments.WithdrawalStatusFailed:
		reason := values.Get("status_text")
		if reason == "" {
			reason = "withdrawal failed"
		}
		_, err = s.payouts.FailByWithdrawalID(ctx, withdrawalID, reason)
	default:
		logger.Info("提现回调状态未终结",
			zap.String("withdrawal_id", withdrawalID),
			zap.Int("status", status))
		return nil
	}
	return err
}

// handlePaymentIPN 收款回调：维护交易记录并在完成时生成佣金
func (s *WebhookService) handlePaymentIPN(ctx context.Context, values url.Values) error {
	txnID := values.Get("txn_id")
	if txnID == "" {
		return errors.ErrWebhookPayload
	}

	status, err := strconv.Atoi(values.Get("status"))
	if err != nil {
		return errors.ErrWebhookPayload.WithError(err)
	}

	amount, err := strconv.ParseFloat(values.Get("amount1"), 64)
	if err != nil {
		return errors.ErrWebhookPayload.WithError(err)
	}

	userID, err := strconv.ParseInt(values.Get("custom"), 10, 64)
	if err != nil {
		return errors.ErrWebhookPayload.WithError(err)
	}

	currency := values.Get("currency1")
	if currency == "" {
		currency = "EUR"
	}

	transaction, err := s.transactionRepo.GetByPaymentID(ctx, txnID)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return errors.ErrDatabaseError.WithError(err)
		}
		transaction = &models.Transaction{
			UserID:    userID,
			PaymentID: txnID,
			Gateway:   models.GatewayCoinPayments,
			Amount:    utils.Round2(amount),
			Currency:  currency,
			Status:    models.TransactionStatusPending,
		}
		if err := s.transactionRepo.Create(ctx, transaction); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		s.syncMirror(ctx, transaction)
	}

	// 同一交易可能收到多次 IPN，已终结的直接忽略
	if transaction.Status != models.TransactionStatusPending {
		return nil
	}

	switch {
	case coinpayments.IsTxCompleted(status):
		return s.completeTransaction(ctx, transaction)
	case coinpayments.IsTxFailed(status):
		if err := s.transactionRepo.UpdateStatus(ctx, transaction.ID, models.TransactionStatusFailed); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		transaction.Status = models.TransactionStatusFailed
		s.syncMirror(ctx, transaction)
	}
	return nil
}

// completeTransaction 标记交易完成并生成推荐佣金
func (s *WebhookService) completeTransaction(ctx context.Context, transaction *models.Transaction) error {
	if err := s.transactionRepo.UpdateStatus(ctx, transaction.ID, models.TransactionStatusCompleted); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	transaction.Status = models.TransactionStatusCompleted
	s.syncMirror(ctx, transaction)

	_, err := s.commissions.CreateFromTransaction(ctx, transaction.UserID, &transaction.ID, transaction.Amount, models.CommissionTypeTransaction)
	if err != nil {
		// 付款用户没有推荐人或已计佣，交易本身仍然有效
		if err == errors.ErrNoReferralForUser || err == errors.ErrTransactionExists {
			return nil
		}
		return err
	}
	return nil
}

// VerifyStripeSignature 校验 Stripe 签名头
// 签名头形如 t=<unix>,v1=<hex>，v1 为 HMAC-SHA256(secret, "<t>.<payload>")
func (s *WebhookService) VerifyStripeSignature(payload []byte, header string, now time.Time) error {
	var timestamp int64
	var signatures []string

	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return errors.ErrWebhookSignature
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp == 0 || len(signatures) == 0 {
		return errors.ErrWebhookSignature
	}

	tolerance := s.stripeCfg.ToleranceDuration()
	if tolerance <= 0 {
		tolerance = 300 * time.Second
	}
	age := now.Sub(time.Unix(timestamp, 0))
	if age > tolerance || age < -tolerance {
		return errors.ErrWebhookSignature
	}

	mac := hmac.New(sha256.New, []byte(s.stripeCfg.WebhookSecret))
	mac.Write([]byte(fmt.Sprintf("%d.", timestamp)))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return nil
		}
	}
	return errors.ErrWebhookSignature
}

// stripeEvent Stripe 事件载荷
type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID             string            `json:"id"`
			AmountTotal    int64             `json:"amount_total"`
			AmountReceived int64             `json:"amount_received"`
			Currency       string            `json:"currency"`
			Metadata       map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// HandleStripeEvent 处理 Stripe Webhook 事件
func (s *WebhookService) HandleStripeEvent(ctx context.Context, payload []byte, sigHeader string) error {
	if err := s.VerifyStripeSignature(payload, sigHeader, time.Now()); err != nil {
		metrics.GetMetrics().RecordWebhookEvent(models.GatewayStripe, "rejected")
		return err
	}
	metrics.GetMetrics().RecordWebhookEvent(models.GatewayStripe, "received")

	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return errors.ErrWebhookPayload.WithError(err)
	}

	switch event.Type {
	case StripeEventCheckoutCompleted, StripeEventPaymentSucceeded:
	default:
		logger.Debug("忽略的 Stripe 事件", zap.String("type", event.Type))
		return nil
	}

	object := event.Data.Object
	if object.ID == "" {
		return errors.ErrWebhookPayload
	}

	userID, err := strconv.ParseInt(object.Metadata["user_id"], 10, 64)
	if err != nil {
		return errors.ErrWebhookPayload.WithError(err)
	}

	cents := object.AmountTotal
	if cents == 0 {
		cents = object.AmountReceived
	}
	amount := utils.Round2(float64(cents) / 100)
	if amount <= 0 {
		return errors.ErrWebhookPayload
	}

	currency := strings.ToUpper(object.Currency)
	if currency == "" {
		currency = "EUR"
	}

	exists, err := s.transactionRepo.ExistsByPaymentID(ctx, object.ID)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil
	}

	now := time.Now()
	transaction := &models.Transaction{
		UserID:      userID,
		PaymentID:   object.ID,
		Gateway:     models.GatewayStripe,
		Amount:      amount,
		Currency:    currency,
		Status:      models.TransactionStatusCompleted,
		CompletedAt: &now,
	}
	if err := s.transactionRepo.Create(ctx, transaction); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	s.syncMirror(ctx, transaction)

	_, err = s.commissions.CreateFromTransaction(ctx, userID, &transaction.ID, amount, models.CommissionTypeTransaction)
	if err != nil {
		if err == errors.ErrNoReferralForUser || err == errors.ErrTransactionExists {
			return nil
		}
		return err
	}
	return nil
}
