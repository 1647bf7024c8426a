package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/config"
	"github.com/cvpilot/resume_go_server/internal/model"
	"github.com/cvpilot/resume_go_server/internal/model/dto"
	"github.com/cvpilot/resume_go_server/internal/repository"
	"github.com/cvpilot/resume_go_server/internal/testutil"
)

func setupMembershipService(t *testing.T) (*gorm.DB, *MembershipService) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	cfg := &config.Config{
		Membership: config.MembershipConfig{FreeTierName: "Free"},
	}

	service := NewMembershipService(
		db,
		repository.NewMembershipRepository(db),
		repository.NewTierRepository(db),
		repository.NewQuotaRepository(db),
		repository.NewLogRepository(db),
		cfg,
	)
	return db, service
}

func activeMembershipCount(t *testing.T, db *gorm.DB, userID int64) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&model.UserMembership{}).
		Where("user_id = ? AND status = ?", userID, model.MembershipStatusActive).
		Count(&count).Error)
	return count
}

func TestMembershipService_GetCurrentMembership_AutoProvisionsFree(t *testing.T) {
	db, service := setupMembershipService(t)

	user := testutil.TestUser(t, db)
	free := testutil.TestFreeTier(t, db)

	m, tier, err := service.GetCurrentMembership(user.ID)
	require.NoError(t, err)
	assert.Equal(t, free.ID, tier.ID)
	assert.Equal(t, model.MembershipStatusActive, m.Status)
	assert.Equal(t, 3, m.RemainingAIQuota)
	assert.Nil(t, m.EndDate)

	// 再次调用不产生第二条记录
	_, _, err = service.GetCurrentMembership(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), activeMembershipCount(t, db, user.ID))
}

func TestMembershipService_GetCurrentMembership_FreeTierMissing(t *testing.T) {
	db, service := setupMembershipService(t)

	user := testutil.TestUser(t, db)

	_, _, err := service.GetCurrentMembership(user.ID)
	assert.ErrorIs(t, err, ErrTierNotFound)
}

func TestMembershipService_ActivateMembership_SupersedesOldRow(t *testing.T) {
	db, service := setupMembershipService(t)

	user := testutil.TestUser(t, db)
	basic := testutil.TestTier(t, db, testutil.WithAIQuota(5))
	pro := testutil.TestTier(t, db, testutil.WithAIQuota(30))

	old := testutil.TestMembership(t, db, user.ID, basic.ID)

	m, err := service.ActivateMembership(user.ID, pro.ID, activateOptions{})
	require.NoError(t, err)
	assert.Equal(t, pro.ID, m.MembershipTierID)
	assert.Equal(t, 30, m.RemainingAIQuota)

	// 旧行翻转为 expired 而不是被改写
	var oldRow model.UserMembership
	require.NoError(t, db.First(&oldRow, old.ID).Error)
	assert.Equal(t, model.MembershipStatusExpired, oldRow.Status)
	assert.Equal(t, basic.ID, oldRow.MembershipTierID)

	assert.Equal(t, int64(1), activeMembershipCount(t, db, user.ID))
}

func TestMembershipService_GrantMembership_ByTierName(t *testing.T) {
	db, service := setupMembershipService(t)

	user := testutil.TestUser(t, db)
	tier := testutil.TestTier(t, db, testutil.WithTierName("Pro"), testutil.WithAIQuota(30))

	days := 7
	m, err := service.GrantMembership(&dto.GrantMembershipRequest{
		UserID:       user.ID,
		TierName:     "Pro",
		DurationDays: &days,
		AdminNotes:   "内测用户",
	})
	require.NoError(t, err)
	assert.Equal(t, tier.ID, m.MembershipTierID)
	assert.Equal(t, "admin_grant", m.PaymentStatus)
	assert.Equal(t, "内测用户", m.AdminNotes)
	require.NotNil(t, m.EndDate)

	// 时长覆盖生效：7 天而不是档位默认 30 天
	expected := time.Now().AddDate(0, 0, 7)
	assert.WithinDuration(t, expected, *m.EndDate, time.Minute)
}

func TestMembershipService_GrantMembership_TierMissing(t *testing.T) {
	db, service := setupMembershipService(t)

	user := testutil.TestUser(t, db)

	_, err := service.GrantMembership(&dto.GrantMembershipRequest{
		UserID:   user.ID,
		TierName: "Nope",
	})
	assert.ErrorIs(t, err, ErrTierNotFound)
}

func TestMembershipService_ConsumeAIQuota_MembershipPoolFirst(t *testing.T) {
	db, service := setupMembershipService(t)

	user := testutil.TestUser(t, db)
	tier := testutil.TestTier(t, db)
	testutil.TestMembership(t, db, user.ID, tier.ID, testutil.WithRemainingQuota(1))
	testutil.TestQuota(t, db, user.ID, testutil.WithPermanentQuota(1))

	source, err := service.ConsumeAIQuota(user.ID, "resume_generate")
	require.NoError(t, err)
	assert.Equal(t, model.QuotaSourceMembership, source)

	// 会员池空了落到账本
	source, err = service.ConsumeAIQuota(user.ID, "resume_generate")
	require.NoError(t, err)
	assert.Equal(t, model.QuotaSourcePermanent, source)

	// 三个池都空则拒绝
	_, err = service.ConsumeAIQuota(user.ID, "resume_generate")
	assert.ErrorIs(t, err, ErrQuotaExhausted)
}

func TestMembershipService_ConsumeAIQuota_ExhaustThenMonthlyReset(t *testing.T) {
	db, service := setupMembershipService(t)

	user := testutil.TestUser(t, db)
	tier := testutil.TestTier(t, db, testutil.WithAIQuota(5))
	m := testutil.TestMembership(t, db, user.ID, tier.ID, testutil.WithRemainingQuota(5))

	// 连续消耗 5 次后耗尽
	for i := 0; i < 5; i++ {
		source, err := service.ConsumeAIQuota(user.ID, "resume_generate")
		require.NoError(t, err)
		assert.Equal(t, model.QuotaSourceMembership, source)
	}
	_, err := service.ConsumeAIQuota(user.ID, "resume_generate")
	assert.ErrorIs(t, err, ErrQuotaExhausted)

	// 把重置时间拨到过去，下一次消耗触发月度重置
	require.NoError(t, db.Model(&model.UserMembership{}).Where("id = ?", m.ID).
		Update("quota_reset_date", time.Now().Add(-time.Hour)).Error)

	source, err := service.ConsumeAIQuota(user.ID, "resume_generate")
	require.NoError(t, err)
	assert.Equal(t, model.QuotaSourceMembership, source)

	var row model.UserMembership
	require.NoError(t, db.First(&row, m.ID).Error)
	assert.Equal(t, 4, row.RemainingAIQuota)
	assert.True(t, row.QuotaResetDate.After(time.Now()))
}

func TestMembershipService_ValidateAIQuota_ResetIdempotentWithinWindow(t *testing.T) {
	db, service := setupMembershipService(t)

	user := testutil.TestUser(t, db)
	tier := testutil.TestTier(t, db, testutil.WithAIQuota(5))
	m := testutil.TestMembership(t, db, user.ID, tier.ID,
		testutil.WithRemainingQuota(0),
		testutil.WithResetDate(time.Now().Add(-time.Hour)))

	// 第一次触发重置
	result, err := service.ValidateAIQuota(user.ID)
	require.NoError(t, err)
	assert.True(t, result.HasQuota)
	assert.Equal(t, 5, result.RemainingQuota)

	// 消耗一次后再查，同一窗口内不会再次重置
	_, err = service.ConsumeAIQuota(user.ID, "resume_generate")
	require.NoError(t, err)

	result, err = service.ValidateAIQuota(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, result.RemainingQuota)

	var row model.UserMembership
	require.NoError(t, db.First(&row, m.ID).Error)
	assert.Equal(t, 4, row.RemainingAIQuota)
}

func TestMembershipService_ValidateAIQuota_SumsAllPools(t *testing.T) {
	db, service := setupMembershipService(t)

	user := testutil.TestUser(t, db)
	tier := testutil.TestTier(t, db)
	testutil.TestMembership(t, db, user.ID, tier.ID, testutil.WithRemainingQuota(2))
	testutil.TestQuota(t, db, user.ID,
		testutil.WithSubscriptionQuota(3, time.Now().AddDate(0, 0, 7)),
		testutil.WithPermanentQuota(4))

	result, err := service.ValidateAIQuota(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, result.RemainingQuota)
}

func TestMembershipService_ConsumeAIQuota_LapsedMembershipHealsToFree(t *testing.T) {
	db, service := setupMembershipService(t)

	user := testutil.TestUser(t, db)
	free := testutil.TestFreeTier(t, db, testutil.WithAIQuota(0))
	paid := testutil.TestTier(t, db)
	past := time.Now().AddDate(0, 0, -1)
	testutil.TestMembership(t, db, user.ID, paid.ID,
		testutil.WithEndDate(&past),
		testutil.WithRemainingQuota(5))

	// 付费会员已过期且兜底档无额度，按会员过期报错
	_, err := service.ConsumeAIQuota(user.ID, "resume_generate")
	assert.ErrorIs(t, err, ErrMembershipExpired)

	// 自动补出的兜底会员是唯一 active 行
	m, tier, err := service.GetCurrentMembership(user.ID)
	require.NoError(t, err)
	assert.Equal(t, free.ID, tier.ID)
	assert.Equal(t, model.MembershipStatusActive, m.Status)
}

func TestMembershipService_CheckAndUpdateExpired_Idempotent(t *testing.T) {
	db, service := setupMembershipService(t)

	user := testutil.TestUser(t, db)
	tier := testutil.TestTier(t, db)
	past := time.Now().AddDate(0, 0, -1)
	future := time.Now().AddDate(0, 0, 10)
	testutil.TestMembership(t, db, user.ID, tier.ID, testutil.WithEndDate(&past))

	other := testutil.TestUser(t, db)
	testutil.TestMembership(t, db, other.ID, tier.ID, testutil.WithEndDate(&future))

	count, err := service.CheckAndUpdateExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// 重复执行无新增影响
	count, err = service.CheckAndUpdateExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	assert.Equal(t, int64(1), activeMembershipCount(t, db, other.ID))
}

func TestMembershipService_ResetDueMonthlyQuotas(t *testing.T) {
	db, service := setupMembershipService(t)

	user := testutil.TestUser(t, db)
	tier := testutil.TestTier(t, db, testutil.WithAIQuota(5))
	m := testutil.TestMembership(t, db, user.ID, tier.ID,
		testutil.WithRemainingQuota(0),
		testutil.WithResetDate(time.Now().Add(-time.Hour)))

	count, err := service.ResetDueMonthlyQuotas()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	var row model.UserMembership
	require.NoError(t, db.First(&row, m.ID).Error)
	assert.Equal(t, 5, row.RemainingAIQuota)

	// 重复执行不再命中
	count, err = service.ResetDueMonthlyQuotas()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestMembershipService_ListTiers_OnlyActive(t *testing.T) {
	db, service := setupMembershipService(t)

	testutil.TestTier(t, db)
	inactive := false
	disabled := testutil.TestTier(t, db)
	require.NoError(t, db.Model(disabled).Update("is_active", inactive).Error)

	tiers, err := service.ListTiers()
	require.NoError(t, err)
	assert.Len(t, tiers, 1)
}
