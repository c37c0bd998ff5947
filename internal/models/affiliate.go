package models

import (
	"time"
)

// Referral 推荐关系（谁推荐了谁）
type Referral struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ReferrerID   int64     `gorm:"index;not null;uniqueIndex:idx_referrer_referred" json:"referrer_id"`
	ReferredID   int64     `gorm:"not null;uniqueIndex:idx_referrer_referred" json:"referred_id"`
	ReferralCode string    `gorm:"type:varchar(20);not null;index" json:"referral_code"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`

	// 关联
	Referrer *User `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
	Referred *User `gorm:"foreignKey:ReferredID" json:"referred,omitempty"`
}

// TableName 表名
func (Referral) TableName() string {
	return "referrals"
}

// ReferralClick 推广链接点击记录
type ReferralClick struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ReferralCode string    `gorm:"type:varchar(20);index;not null" json:"referral_code"`
	IP           string    `gorm:"type:varchar(45);not null" json:"ip"`
	UserAgent    string    `gorm:"type:varchar(500)" json:"user_agent"`
	LandingPath  string    `gorm:"type:varchar(255)" json:"landing_path"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (ReferralClick) TableName() string {
	return "referral_clicks"
}

// Commission 佣金记录
type Commission struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64      `gorm:"index;not null" json:"user_id"`
	ReferralID     *int64     `gorm:"index" json:"referral_id,omitempty"`
	TransactionID  *int64     `gorm:"index" json:"transaction_id,omitempty"`
	CommissionType string     `gorm:"type:varchar(20);not null;default:'transaction'" json:"commission_type"`
	GrossAmount    float64    `gorm:"type:decimal(12,2);not null" json:"gross_amount"`
	Rate           float64    `gorm:"type:decimal(5,2);not null" json:"rate"`
	Amount         float64    `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status         string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	RejectedAt     *time.Time `json:"rejected_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	User        *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Referral    *Referral    `gorm:"foreignKey:ReferralID" json:"referral,omitempty"`
	Transaction *Transaction `gorm:"foreignKey:TransactionID" json:"transaction,omitempty"`
	Payouts     []Payout     `gorm:"many2many:payout_commissions" json:"-"`
}

// TableName 表名
func (Commission) TableName() string {
	return "commissions"
}

// CommissionStatus 佣金状态
const (
	CommissionStatusPending  = "pending"  // 待审核
	CommissionStatusApproved = "approved" // 已审核
	CommissionStatusPaid     = "paid"     // 已支付
	CommissionStatusRejected = "rejected" // 已拒绝
)

// CommissionType 佣金类型
const (
	CommissionTypeSignup      = "signup"      // 注册奖励
	CommissionTypeTransaction = "transaction" // 交易分成
	CommissionTypeRecurring   = "recurring"   // 续费分成
)

// CommissionRate 大使佣金比例配置
// 按推荐目标类型覆盖默认比例
type CommissionRate struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AmbassadorID int64     `gorm:"not null;uniqueIndex:idx_ambassador_target" json:"ambassador_id"`
	TargetType   string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_ambassador_target" json:"target_type"`
	Rate         float64   `gorm:"type:decimal(5,2);not null" json:"rate"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Ambassador *User `gorm:"foreignKey:AmbassadorID" json:"ambassador,omitempty"`
}

// TableName 表名
func (CommissionRate) TableName() string {
	return "commission_rates"
}

// RateTargetType 佣金比例目标类型
const (
	RateTargetEscort     = "escort"     // 推荐陪护
	RateTargetAmbassador = "ambassador" // 推荐大使
)

// Payout 结算单
type Payout struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	BatchNo       string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"batch_no"`
	AmbassadorID  int64      `gorm:"index;not null" json:"ambassador_id"`
	Amount        float64    `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method        string     `gorm:"type:varchar(10);not null" json:"method"`
	WalletAddress string     `gorm:"type:varchar(128);not null" json:"wallet_address"`
	Status        string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	WithdrawalID  *string    `gorm:"type:varchar(64)" json:"withdrawal_id,omitempty"`
	FailReason    *string    `gorm:"type:varchar(255)" json:"fail_reason,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Ambassador  *User        `gorm:"foreignKey:AmbassadorID" json:"ambassador,omitempty"`
	Commissions []Commission `gorm:"many2many:payout_commissions" json:"commissions,omitempty"`
}

// TableName 表名
func (Payout) TableName() string {
	return "payouts"
}

// PayoutStatus 结算单状态
const (
	PayoutStatusPending    = "pending"    // 待处理
	PayoutStatusProcessing = "processing" // 处理中
	PayoutStatusCompleted  = "completed"  // 已完成
	PayoutStatusFailed     = "failed"     // 失败
)

// PayoutMethod 结算方式
const (
	PayoutMethodBTC  = "btc"
	PayoutMethodETH  = "eth"
	PayoutMethodUSDT = "usdt"
)

// MinPayoutAmount 最低结算金额
const MinPayoutAmount = 50.0

// CommissionStats 佣金统计汇总
type CommissionStats struct {
	TotalAmount    float64 `gorm:"column:total_amount" json:"total_amount"`
	PendingAmount  float64 `gorm:"column:pending_amount" json:"pending_amount"`
	ApprovedAmount float64 `gorm:"column:approved_amount" json:"approved_amount"`
	PaidAmount     float64 `gorm:"column:paid_amount" json:"paid_amount"`
	RejectedAmount float64 `gorm:"column:rejected_amount" json:"rejected_amount"`
	TotalCount     int64   `gorm:"column:total_count" json:"total_count"`
}

// AffiliateLevel 大使等级（按累计佣金划分）
type AffiliateLevel struct {
	Name        string  `json:"name"`
	MinEarnings float64 `json:"min_earnings"`
	RateBonus   float64 `json:"rate_bonus"`
}

// AffiliateLevels 大使等级表，按门槛从高到低排列
var AffiliateLevels = []AffiliateLevel{
	{Name: "platinum", MinEarnings: 10000, RateBonus: 15},
	{Name: "gold", MinEarnings: 5000, RateBonus: 10},
	{Name: "silver", MinEarnings: 1000, RateBonus: 5},
	{Name: "bronze", MinEarnings: 0, RateBonus: 0},
}

// LevelForEarnings 根据累计佣金返回大使等级
func LevelForEarnings(earnings float64) AffiliateLevel {
	for _, lvl := range AffiliateLevels {
		if earnings >= lvl.MinEarnings {
			return lvl
		}
	}
	return AffiliateLevels[len(AffiliateLevels)-1]
}
