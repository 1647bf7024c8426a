package model

import (
	"time"
)

const (
	MembershipStatusPending   = "pending"
	MembershipStatusActive    = "active"
	MembershipStatusExpired   = "expired"
	MembershipStatusCancelled = "cancelled"

	// 模板访问级别
	TemplateAccessBasic   = "basic"
	TemplateAccessPremium = "premium"
	TemplateAccessAll     = "all"
)

type MembershipTier struct {
	ID                  int64       `gorm:"primaryKey" json:"id"`
	Name                string      `gorm:"size:100;uniqueIndex;not null" json:"name"`
	OriginalPrice       float64     `gorm:"type:decimal(10,2)" json:"original_price"`
	ReductionPrice      *float64    `gorm:"type:decimal(10,2)" json:"reduction_price,omitempty"` // 优惠价，nil 表示无优惠
	DurationDays        int         `gorm:"default:0" json:"duration_days"`                      // 0 表示永不过期
	AIResumeQuota       int         `gorm:"column:ai_resume_quota;default:0" json:"ai_resume_quota"` // 每月 AI 额度
	TemplateAccessLevel string      `gorm:"size:20;default:basic" json:"template_access_level"`  // basic, premium, all
	Features            StringArray `gorm:"type:json" json:"features"`
	IsActive            bool        `gorm:"default:true;index" json:"is_active"`
	SortOrder           int         `gorm:"default:0" json:"sort_order"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

func (MembershipTier) TableName() string {
	return "membership_tiers"
}

// EffectivePrice 实际售价，优先取优惠价
func (t *MembershipTier) EffectivePrice() float64 {
	if t.ReductionPrice != nil {
		return *t.ReductionPrice
	}
	return t.OriginalPrice
}

// UserMembership 用户会员记录。换档时旧行翻转为 expired 而不是原地改写，
// 每个用户任意时刻至多一行 active。
type UserMembership struct {
	ID               int64      `gorm:"primaryKey" json:"id"`
	UserID           int64      `gorm:"not null;index" json:"user_id"`
	MembershipTierID int64      `gorm:"not null;index" json:"membership_tier_id"`
	Status           string     `gorm:"size:20;default:pending;index" json:"status"` // pending, active, expired, cancelled
	StartDate        time.Time  `gorm:"not null" json:"start_date"`
	EndDate          *time.Time `gorm:"index" json:"end_date,omitempty"` // nil 表示永不过期
	RemainingAIQuota int        `gorm:"column:remaining_ai_quota;default:0" json:"remaining_ai_quota"`
	QuotaResetDate   time.Time  `json:"quota_reset_date"` // 下个自然月月初
	PaymentStatus    string     `gorm:"size:20" json:"payment_status,omitempty"`
	PaidAmount       float64    `gorm:"type:decimal(10,2)" json:"paid_amount,omitempty"`
	PaymentMethod    string     `gorm:"size:20" json:"payment_method,omitempty"`
	AdminNotes       string     `gorm:"type:text" json:"admin_notes,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (UserMembership) TableName() string {
	return "user_memberships"
}

// Expired 是否已过结束时间
func (m *UserMembership) Expired(now time.Time) bool {
	return m.EndDate != nil && !now.Before(*m.EndDate)
}
