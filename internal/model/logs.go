package model

import (
	"time"
)

const (
	QuotaUsageStatusSuccess  = "success"
	QuotaUsageStatusRejected = "rejected"

	// 配额来源池
	QuotaSourceMembership   = "membership"   // 会员每月额度
	QuotaSourceSubscription = "subscription" // 套餐订阅池
	QuotaSourcePermanent    = "permanent"    // 永久加油包
)

// QuotaUsageLog 每次配额消耗尝试都会落一行，与扣减同事务
type QuotaUsageLog struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	Feature   string    `gorm:"size:50;not null" json:"feature"` // resume_generate, resume_optimize
	Source    string    `gorm:"size:20" json:"source,omitempty"` // membership, subscription, permanent
	Status    string    `gorm:"size:20;not null;index" json:"status"` // success, rejected
	Reason    string    `gorm:"size:200" json:"reason,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (QuotaUsageLog) TableName() string {
	return "quota_usage_logs"
}

// UserActionLog 用户行为审计日志
type UserActionLog struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"index" json:"user_id"`
	Action    string    `gorm:"size:50;not null;index" json:"action"` // register, login, generate, order_activate
	Detail    JSONMap   `gorm:"type:json" json:"detail,omitempty"`
	IP        string    `gorm:"size:50" json:"ip,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (UserActionLog) TableName() string {
	return "user_action_logs"
}
