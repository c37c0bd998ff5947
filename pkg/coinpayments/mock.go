package coinpayments

import (
	"context"
	"fmt"
	"sync"
)

// Gateway 支付网关接口
type Gateway interface {
	CreateTransaction(ctx context.Context, req *CreateTransactionRequest) (*TransactionResult, error)
	GetTransactionInfo(ctx context.Context, txnID string) (*TransactionInfo, error)
	CreateWithdrawal(ctx context.Context, req *CreateWithdrawalRequest) (*WithdrawalResult, error)
	GetWithdrawalInfo(ctx context.Context, withdrawalID string) (*WithdrawalInfo, error)
}

// MockGateway 模拟支付网关（用于开发/测试）
type MockGateway struct {
	mu          sync.Mutex
	seq         int
	Withdrawals []CreateWithdrawalRequest
	FailWith    error

	// TxStatuses 按交易号预设的查询结果
	TxStatuses map[string]int
	// WithdrawalStatuses 按提现号预设的查询结果
	WithdrawalStatuses map[string]int
}

// NewMockGateway 创建模拟支付网关
func NewMockGateway() *MockGateway {
	return &MockGateway{
		TxStatuses:         make(map[string]int),
		WithdrawalStatuses: make(map[string]int),
	}
}

// CreateTransaction 模拟创建收款交易
func (m *MockGateway) CreateTransaction(ctx context.Context, req *CreateTransactionRequest) (*TransactionResult, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	txnID := fmt.Sprintf("MOCKTX%06d", m.seq)
	return &TransactionResult{
		TxnID:       txnID,
		Address:     "mock-address",
		Amount:      fmt.Sprintf("%.8f", req.Amount),
		CheckoutURL: "https://example.com/checkout/" + txnID,
		StatusURL:   "https://example.com/status/" + txnID,
	}, nil
}

// GetTransactionInfo 模拟查询收款交易
func (m *MockGateway) GetTransactionInfo(ctx context.Context, txnID string) (*TransactionInfo, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	status, ok := m.TxStatuses[txnID]
	if !ok {
		return nil, fmt.Errorf("CoinPayments 错误: no such tx")
	}
	return &TransactionInfo{Status: status}, nil
}

// CreateWithdrawal 模拟创建提现
func (m *MockGateway) CreateWithdrawal(ctx context.Context, req *CreateWithdrawalRequest) (*WithdrawalResult, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.Withdrawals = append(m.Withdrawals, *req)
	return &WithdrawalResult{
		ID:     fmt.Sprintf("MOCKWD%06d", m.seq),
		Status: 0,
		Amount: fmt.Sprintf("%.8f", req.Amount),
	}, nil
}

// GetWithdrawalInfo 模拟查询提现
func (m *MockGateway) GetWithdrawalInfo(ctx context.Context, withdrawalID string) (*WithdrawalInfo, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	status, ok := m.WithdrawalStatuses[withdrawalID]
	if !ok {
		return nil, fmt.Errorf("CoinPayments 错误: no such withdrawal")
	}
	return &WithdrawalInfo{Status: status}, nil
}

// LastWithdrawal 获取最近一次提现请求
func (m *MockGateway) LastWithdrawal() *CreateWithdrawalRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Withdrawals) == 0 {
		return nil
	}
	return &m.Withdrawals[len(m.Withdrawals)-1]
}
