package dto

// AssignQuotaRequest 管理员分配套餐或永久配额
// PlanID 与 PermanentQuota 二选一
type AssignQuotaRequest struct {
	UserID         int64  `json:"user_id" binding:"required,gt=0"`
	PlanID         *int64 `json:"plan_id,omitempty" binding:"omitempty,gt=0"`
	PermanentQuota *int   `json:"permanent_quota,omitempty"`
}

// GrantMembershipRequest 管理员手工开通会员
type GrantMembershipRequest struct {
	UserID       int64  `json:"user_id" binding:"required,gt=0"`
	TierName     string `json:"tier_name" binding:"required,max=100"`
	DurationDays *int   `json:"duration_days,omitempty"` // 覆盖套餐默认时长
	AdminNotes   string `json:"admin_notes,omitempty" binding:"omitempty,max=500"`
}

// DashboardStats 管理后台统计。任何聚合查询失败时返回全零兜底值
type DashboardStats struct {
	TotalUsers        int64   `json:"total_users"`
	NewUsersToday     int64   `json:"new_users_today"`
	ActiveMemberships int64   `json:"active_memberships"`
	PaidOrders        int64   `json:"paid_orders"`
	TotalRevenue      float64 `json:"total_revenue"`
	RevenueThisMonth  float64 `json:"revenue_this_month"`
	ResumesCreated    int64   `json:"resumes_created"`
	GenerationsToday  int64   `json:"generations_today"`
}

// SavePlanRequest 套餐创建/更新请求
type SavePlanRequest struct {
	Name                string  `json:"name" binding:"required,max=100"`
	Price               float64 `json:"price" binding:"gte=0"`
	DurationDays        int     `json:"duration_days" binding:"gte=0"`
	FeatureType         string  `json:"feature_type" binding:"required,oneof=subscription permanent"`
	ResumeOptimizations int     `json:"resume_optimizations" binding:"gte=0"`
	IsDefault           bool    `json:"is_default"`
	SortOrder           int     `json:"sort_order"`
	Status              string  `json:"status" binding:"omitempty,oneof=active disabled"`
}

// SaveTierRequest 会员档位创建/更新请求
type SaveTierRequest struct {
	Name                string   `json:"name" binding:"required,max=100"`
	OriginalPrice       float64  `json:"original_price" binding:"gte=0"`
	ReductionPrice      *float64 `json:"reduction_price,omitempty" binding:"omitempty,gte=0"`
	DurationDays        int      `json:"duration_days" binding:"gte=0"`
	AIResumeQuota       int      `json:"ai_resume_quota" binding:"gte=0"`
	TemplateAccessLevel string   `json:"template_access_level" binding:"required,oneof=basic premium all"`
	Features            []string `json:"features,omitempty"`
	IsActive            *bool    `json:"is_active,omitempty"`
	SortOrder           int      `json:"sort_order"`
}
