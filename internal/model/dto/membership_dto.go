package dto

// MembershipStatus 当前会员与配额概要
type MembershipStatus struct {
	TierID           int64  `json:"tier_id"`
	TierName         string `json:"tier_name"`
	Status           string `json:"status"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date,omitempty"` // 空表示永不过期
	RemainingAIQuota int    `json:"remaining_ai_quota"`
	MonthlyAIQuota   int    `json:"monthly_ai_quota"`
	QuotaResetDate   string `json:"quota_reset_date"`
	TemplateAccess   string `json:"template_access_level"`
}

// CheckQuotaRequest 配额检查请求
type CheckQuotaRequest struct {
	Feature string `json:"feature" binding:"omitempty,max=50"`
}

// CheckQuotaResponse 配额检查响应
type CheckQuotaResponse struct {
	HasQuota       bool `json:"has_quota"`
	RemainingQuota int  `json:"remaining_quota"`
}

// CreateOrderRequest 创建会员订单请求
type CreateOrderRequest struct {
	MembershipTierID int64  `json:"membership_tier_id" binding:"required,gt=0"`
	PaymentMethod    string `json:"payment_method" binding:"required,oneof=wechat alipay"`
}

// ActivateOrderRequest 订单激活请求
type ActivateOrderRequest struct {
	PaymentTransactionID string `json:"payment_transaction_id" binding:"omitempty,max=100"`
}

// TierInfo 会员套餐信息（公开列表）
type TierInfo struct {
	ID                  int64    `json:"id"`
	Name                string   `json:"name"`
	OriginalPrice       float64  `json:"original_price"`
	ReductionPrice      *float64 `json:"reduction_price,omitempty"`
	DurationDays        int      `json:"duration_days"`
	AIResumeQuota       int      `json:"ai_resume_quota"`
	TemplateAccessLevel string   `json:"template_access_level"`
	Features            []string `json:"features"`
}
