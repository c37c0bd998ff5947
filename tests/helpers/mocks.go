// Package helpers 提供 mock 实现
package helpers

import (
	"context"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/escortdollars/affiliate-backend/internal/models"
	"github.com/escortdollars/affiliate-backend/pkg/coinpayments"
)

// MockNotifier Telegram 通知发送器 mock
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendMessage(ctx context.Context, chatID int64, text string) error {
	args := m.Called(ctx, chatID, text)
	return args.Error(0)
}

func (m *MockNotifier) NotifyAdmin(ctx context.Context, text string) error {
	args := m.Called(ctx, text)
	return args.Error(0)
}

// MockGateway 提现网关 mock
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateTransaction(ctx context.Context, req *coinpayments.CreateTransactionRequest) (*coinpayments.TransactionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coinpayments.TransactionResult), args.Error(1)
}

func (m *MockGateway) GetTransactionInfo(ctx context.Context, txnID string) (*coinpayments.TransactionInfo, error) {
	args := m.Called(ctx, txnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coinpayments.TransactionInfo), args.Error(1)
}

func (m *MockGateway) CreateWithdrawal(ctx context.Context, req *coinpayments.CreateWithdrawalRequest) (*coinpayments.WithdrawalResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coinpayments.WithdrawalResult), args.Error(1)
}

func (m *MockGateway) GetWithdrawalInfo(ctx context.Context, withdrawalID string) (*coinpayments.WithdrawalInfo, error) {
	args := m.Called(ctx, withdrawalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coinpayments.WithdrawalInfo), args.Error(1)
}

// MockMirror Supabase 镜像 mock
type MockMirror struct {
	mock.Mock
}

func (m *MockMirror) Upsert(ctx context.Context, table, conflictCol string, row interface{}) error {
	args := m.Called(ctx, table, conflictCol, row)
	return args.Error(0)
}

func (m *MockMirror) GetOne(ctx context.Context, table, column, value string, out interface{}) error {
	args := m.Called(ctx, table, column, value, out)
	return args.Error(0)
}

// MockSignupRewarder 注册奖励钩子 mock
type MockSignupRewarder struct {
	mock.Mock
}

func (m *MockSignupRewarder) CreateSignupBonus(ctx context.Context, tx *gorm.DB, referral *models.Referral) error {
	args := m.Called(ctx, tx, referral)
	return args.Error(0)
}

// MockCommissionNotifier 佣金通知钩子 mock
type MockCommissionNotifier struct {
	mock.Mock
}

func (m *MockCommissionNotifier) NotifyCommissionEarned(ctx context.Context, commission *models.Commission) {
	m.Called(ctx, commission)
}

func (m *MockCommissionNotifier) NotifyCommissionApproved(ctx context.Context, commission *models.Commission) {
	m.Called(ctx, commission)
}

// MockPayoutNotifier 结算通知钩子 mock
type MockPayoutNotifier struct {
	mock.Mock
}

func (m *MockPayoutNotifier) NotifyPayoutCompleted(ctx context.Context, payout *models.Payout) {
	m.Called(ctx, payout)
}

func (m *MockPayoutNotifier) NotifyPayoutFailed(ctx context.Context, payout *models.Payout) {
	m.Called(ctx, payout)
}

// MockTXTResolver DNS TXT 记录解析 mock
type MockTXTResolver struct {
	mock.Mock
}

func (m *MockTXTResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
