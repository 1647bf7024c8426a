package model

import (
	"time"
)

// UserQuota 配额账本，每个用户至多一行，首次访问时懒创建。
// 订阅池随 SubscriptionExpiresAt 失效，永久池只增不减（扣减除外）。
type UserQuota struct {
	ID                    int64      `gorm:"primaryKey" json:"id"`
	UserID                int64      `gorm:"not null;uniqueIndex" json:"user_id"`
	PlanID                *int64     `gorm:"index" json:"plan_id,omitempty"`
	SubscriptionQuota     int        `gorm:"not null;default:0" json:"subscription_quota"`
	PermanentQuota        int        `gorm:"not null;default:0" json:"permanent_quota"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (UserQuota) TableName() string {
	return "user_quotas"
}

// SubscriptionValid 订阅池是否可扣减：计数为正且未过期
func (q *UserQuota) SubscriptionValid(now time.Time) bool {
	if q.SubscriptionQuota <= 0 {
		return false
	}
	return q.SubscriptionExpiresAt != nil && now.Before(*q.SubscriptionExpiresAt)
}
