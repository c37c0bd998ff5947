package models

import (
	"time"
)

// Transaction 支付交易记录
// 由支付网关回调写入，是交易佣金的来源事件
type Transaction struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64      `gorm:"index;not null" json:"user_id"`
	PaymentID   string     `gorm:"type:varchar(128);uniqueIndex;not null" json:"payment_id"`
	Gateway     string     `gorm:"type:varchar(20);not null" json:"gateway"`
	Amount      float64    `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency    string     `gorm:"type:varchar(10);not null;default:'EUR'" json:"currency"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 表名
func (Transaction) TableName() string {
	return "transactions"
}

// TransactionStatus 交易状态
const (
	TransactionStatusPending   = "pending"   // 待确认
	TransactionStatusCompleted = "completed" // 已完成
	TransactionStatusFailed    = "failed"    // 失败
)

// PaymentGateway 支付网关
const (
	GatewayCoinPayments = "coinpayments"
	GatewayStripe       = "stripe"
)
