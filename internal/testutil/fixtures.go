package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/internal/model"
)

var fixtureSeq int64

func nextSeq() int64 {
	return atomic.AddInt64(&fixtureSeq, 1)
}

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	seq := nextSeq()
	email := fmt.Sprintf("test_%d@example.com", seq)
	passwordHash := "$2a$10$abcdefghijklmnopqrstuvwxyz123456" // bcrypt hash placeholder
	user := &model.User{
		Username:      fmt.Sprintf("testuser_%d", seq),
		Email:         &email,
		PasswordHash:  &passwordHash,
		Role:          model.RoleUser,
		EmailVerified: true,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithUsername 设置用户名
func WithUsername(username string) func(*model.User) {
	return func(u *model.User) {
		u.Username = username
	}
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = &email
	}
}

// WithRole 设置角色
func WithRole(role string) func(*model.User) {
	return func(u *model.User) {
		u.Role = role
	}
}

// TestPlan 创建测试套餐
func TestPlan(t *testing.T, db *gorm.DB, opts ...func(*model.Plan)) *model.Plan {
	t.Helper()

	plan := &model.Plan{
		Name:         fmt.Sprintf("Test Plan %d", nextSeq()),
		Price:        29.9,
		DurationDays: 30,
		Features: model.PlanFeatures{
			Type:                model.PlanTypeSubscription,
			ResumeOptimizations: 10,
		},
		Status: model.PlanStatusActive,
	}

	for _, opt := range opts {
		opt(plan)
	}

	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("Failed to create test plan: %v", err)
	}

	return plan
}

// AsDefault 标记为默认套餐
func AsDefault() func(*model.Plan) {
	return func(p *model.Plan) {
		p.IsDefault = true
	}
}

// WithFeatures 设置套餐配额
func WithFeatures(featureType string, optimizations int) func(*model.Plan) {
	return func(p *model.Plan) {
		p.Features = model.PlanFeatures{
			Type:                featureType,
			ResumeOptimizations: optimizations,
		}
	}
}

// TestTier 创建测试会员档位
func TestTier(t *testing.T, db *gorm.DB, opts ...func(*model.MembershipTier)) *model.MembershipTier {
	t.Helper()

	tier := &model.MembershipTier{
		Name:                fmt.Sprintf("Test Tier %d", nextSeq()),
		OriginalPrice:       39.9,
		DurationDays:        30,
		AIResumeQuota:       5,
		TemplateAccessLevel: model.TemplateAccessBasic,
		IsActive:            true,
	}

	for _, opt := range opts {
		opt(tier)
	}

	if err := db.Create(tier).Error; err != nil {
		t.Fatalf("Failed to create test tier: %v", err)
	}

	return tier
}

// WithTierName 设置档位名
func WithTierName(name string) func(*model.MembershipTier) {
	return func(tier *model.MembershipTier) {
		tier.Name = name
	}
}

// WithAIQuota 设置每月 AI 额度
func WithAIQuota(quota int) func(*model.MembershipTier) {
	return func(tier *model.MembershipTier) {
		tier.AIResumeQuota = quota
	}
}

// WithDuration 设置档位时长（0 表示永不过期）
func WithDuration(days int) func(*model.MembershipTier) {
	return func(tier *model.MembershipTier) {
		tier.DurationDays = days
	}
}

// WithTemplateAccess 设置模板访问级别
func WithTemplateAccess(level string) func(*model.MembershipTier) {
	return func(tier *model.MembershipTier) {
		tier.TemplateAccessLevel = level
	}
}

// TestFreeTier 创建名为 Free 的兜底档位
func TestFreeTier(t *testing.T, db *gorm.DB, opts ...func(*model.MembershipTier)) *model.MembershipTier {
	t.Helper()
	base := []func(*model.MembershipTier){
		WithTierName("Free"),
		WithAIQuota(3),
		WithDuration(0),
	}
	return TestTier(t, db, append(base, opts...)...)
}

// TestMembership 创建会员记录
func TestMembership(t *testing.T, db *gorm.DB, userID, tierID int64, opts ...func(*model.UserMembership)) *model.UserMembership {
	t.Helper()

	now := time.Now()
	endDate := now.AddDate(0, 0, 30)
	m := &model.UserMembership{
		UserID:           userID,
		MembershipTierID: tierID,
		Status:           model.MembershipStatusActive,
		StartDate:        now,
		EndDate:          &endDate,
		RemainingAIQuota: 5,
		QuotaResetDate:   time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location()),
	}

	for _, opt := range opts {
		opt(m)
	}

	if err := db.Create(m).Error; err != nil {
		t.Fatalf("Failed to create test membership: %v", err)
	}

	return m
}

// WithStatus 设置会员状态
func WithStatus(status string) func(*model.UserMembership) {
	return func(m *model.UserMembership) {
		m.Status = status
	}
}

// WithRemainingQuota 设置剩余每月额度
func WithRemainingQuota(quota int) func(*model.UserMembership) {
	return func(m *model.UserMembership) {
		m.RemainingAIQuota = quota
	}
}

// WithEndDate 设置结束时间，nil 表示永不过期
func WithEndDate(endDate *time.Time) func(*model.UserMembership) {
	return func(m *model.UserMembership) {
		m.EndDate = endDate
	}
}

// WithResetDate 设置月度重置时间
func WithResetDate(resetDate time.Time) func(*model.UserMembership) {
	return func(m *model.UserMembership) {
		m.QuotaResetDate = resetDate
	}
}

// TestQuota 创建配额账本行
func TestQuota(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.UserQuota)) *model.UserQuota {
	t.Helper()

	quota := &model.UserQuota{
		UserID: userID,
	}

	for _, opt := range opts {
		opt(quota)
	}

	if err := db.Create(quota).Error; err != nil {
		t.Fatalf("Failed to create test quota: %v", err)
	}

	return quota
}

// WithSubscriptionQuota 设置订阅池
func WithSubscriptionQuota(quota int, expiresAt time.Time) func(*model.UserQuota) {
	return func(q *model.UserQuota) {
		q.SubscriptionQuota = quota
		q.SubscriptionExpiresAt = &expiresAt
	}
}

// WithPermanentQuota 设置永久池
func WithPermanentQuota(quota int) func(*model.UserQuota) {
	return func(q *model.UserQuota) {
		q.PermanentQuota = quota
	}
}

// TestOrder 创建测试订单
func TestOrder(t *testing.T, db *gorm.DB, userID, tierID int64, opts ...func(*model.MembershipOrder)) *model.MembershipOrder {
	t.Helper()

	order := &model.MembershipOrder{
		OrderNumber:      fmt.Sprintf("MTEST%012d", nextSeq()),
		UserID:           userID,
		MembershipTierID: tierID,
		OriginalAmount:   39.9,
		FinalAmount:      39.9,
		Status:           model.OrderStatusPending,
		PaymentMethod:    "wechat",
	}

	for _, opt := range opts {
		opt(order)
	}

	if err := db.Create(order).Error; err != nil {
		t.Fatalf("Failed to create test order: %v", err)
	}

	return order
}

// WithOrderStatus 设置订单状态
func WithOrderStatus(status string) func(*model.MembershipOrder) {
	return func(o *model.MembershipOrder) {
		o.Status = status
	}
}

// TestResume 创建测试简历
func TestResume(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.Resume)) *model.Resume {
	t.Helper()

	resume := &model.Resume{
		UserID: userID,
		Title:  fmt.Sprintf("Test Resume %d", nextSeq()),
		Status: "draft",
		Content: model.JSONMap{
			"summary": "三年后端开发经验",
		},
	}

	for _, opt := range opts {
		opt(resume)
	}

	if err := db.Create(resume).Error; err != nil {
		t.Fatalf("Failed to create test resume: %v", err)
	}

	return resume
}

// WithResumeStatus 设置简历状态
func WithResumeStatus(status string) func(*model.Resume) {
	return func(r *model.Resume) {
		r.Status = status
	}
}

// TestTemplate 创建测试简历模板
func TestTemplate(t *testing.T, db *gorm.DB, opts ...func(*model.ResumeTemplate)) *model.ResumeTemplate {
	t.Helper()

	tpl := &model.ResumeTemplate{
		Name:        fmt.Sprintf("Test Template %d", nextSeq()),
		AccessLevel: model.TemplateAccessBasic,
		IsActive:    true,
	}

	for _, opt := range opts {
		opt(tpl)
	}

	if err := db.Create(tpl).Error; err != nil {
		t.Fatalf("Failed to create test template: %v", err)
	}

	return tpl
}

// WithAccessLevel 设置模板访问级别
func WithAccessLevel(level string) func(*model.ResumeTemplate) {
	return func(tpl *model.ResumeTemplate) {
		tpl.AccessLevel = level
	}
}
