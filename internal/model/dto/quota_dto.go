package dto

// PlanDetails 用户套餐与配额账本详情
type PlanDetails struct {
	PlanID                int64  `json:"plan_id,omitempty"`
	PlanName              string `json:"plan_name,omitempty"`
	SubscriptionQuota     int    `json:"subscription_quota"`
	PermanentQuota        int    `json:"permanent_quota"`
	SubscriptionExpiresAt string `json:"subscription_expires_at,omitempty"`
}
