package models

import (
	"time"
)

// Notification 用户通知
type Notification struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           int64     `gorm:"index;not null" json:"user_id"`
	Title            string    `gorm:"type:varchar(255);not null" json:"title"`
	Message          string    `gorm:"type:text;not null" json:"message"`
	NotificationType string    `gorm:"type:varchar(10);not null;default:'info'" json:"notification_type"`
	IsRead           bool      `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 表名
func (Notification) TableName() string {
	return "notifications"
}

// NotificationType 通知类型
const (
	NotificationTypeInfo    = "info"    // 信息
	NotificationTypeSuccess = "success" // 成功
	NotificationTypeWarning = "warning" // 警告
	NotificationTypeError   = "error"   // 错误
)

// UserStatistics 大使每日统计
type UserStatistics struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            int64     `gorm:"not null;uniqueIndex:idx_user_stat_date" json:"user_id"`
	StatDate          time.Time `gorm:"type:date;not null;uniqueIndex:idx_user_stat_date" json:"stat_date"`
	TotalEarnings     float64   `gorm:"type:decimal(12,2);not null;default:0" json:"total_earnings"`
	TotalReferrals    int64     `gorm:"not null;default:0" json:"total_referrals"`
	TotalTransactions int64     `gorm:"not null;default:0" json:"total_transactions"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (UserStatistics) TableName() string {
	return "user_statistics"
}

// AuditLog 敏感操作审计日志
type AuditLog struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      *int64    `gorm:"index" json:"user_id,omitempty"`
	Module      string    `gorm:"type:varchar(50);not null" json:"module"`
	Action      string    `gorm:"type:varchar(50);not null" json:"action"`
	TargetType  *string   `gorm:"type:varchar(50)" json:"target_type,omitempty"`
	TargetID    *int64    `json:"target_id,omitempty"`
	Method      string    `gorm:"type:varchar(10);not null" json:"method"`
	Path        string    `gorm:"type:varchar(255);not null" json:"path"`
	IP          string    `gorm:"type:varchar(45);not null" json:"ip"`
	UserAgent   *string   `gorm:"type:varchar(500)" json:"user_agent,omitempty"`
	RequestData JSON      `gorm:"type:jsonb" json:"request_data,omitempty"`
	Status      int       `gorm:"not null" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (AuditLog) TableName() string {
	return "audit_logs"
}
