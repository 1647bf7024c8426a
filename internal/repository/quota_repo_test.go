package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/internal/model"
	"github.com/cvpilot/resume_go_server/internal/testutil"
)

func setupQuotaRepo(t *testing.T) (*gorm.DB, *QuotaRepository) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	return db, NewQuotaRepository(db)
}

func TestQuotaRepository_DecrementSubscriptionQuota(t *testing.T) {
	db, repo := setupQuotaRepo(t)

	user := testutil.TestUser(t, db)
	testutil.TestQuota(t, db, user.ID,
		testutil.WithSubscriptionQuota(1, time.Now().AddDate(0, 0, 7)))

	ok, err := repo.DecrementSubscriptionQuota(user.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	// 扣到 0 后再扣返回 false，计数不会为负
	ok, err = repo.DecrementSubscriptionQuota(user.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	var quota model.UserQuota
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&quota).Error)
	assert.Equal(t, 0, quota.SubscriptionQuota)
}

func TestQuotaRepository_DecrementSubscriptionQuota_ExpiredPool(t *testing.T) {
	db, repo := setupQuotaRepo(t)

	user := testutil.TestUser(t, db)
	testutil.TestQuota(t, db, user.ID,
		testutil.WithSubscriptionQuota(5, time.Now().AddDate(0, 0, -1)))

	// 有效期已过的订阅池不可扣
	ok, err := repo.DecrementSubscriptionQuota(user.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	var quota model.UserQuota
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&quota).Error)
	assert.Equal(t, 5, quota.SubscriptionQuota)
}

func TestQuotaRepository_DecrementSubscriptionQuota_NoExpiry(t *testing.T) {
	db, repo := setupQuotaRepo(t)

	user := testutil.TestUser(t, db)
	quota := testutil.TestQuota(t, db, user.ID)
	require.NoError(t, db.Model(quota).Update("subscription_quota", 5).Error)

	// 没有有效期的订阅池视为不可用
	ok, err := repo.DecrementSubscriptionQuota(user.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQuotaRepository_DecrementPermanentQuota(t *testing.T) {
	db, repo := setupQuotaRepo(t)

	user := testutil.TestUser(t, db)
	testutil.TestQuota(t, db, user.ID, testutil.WithPermanentQuota(2))

	for i := 0; i < 2; i++ {
		ok, err := repo.DecrementPermanentQuota(user.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := repo.DecrementPermanentQuota(user.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	var quota model.UserQuota
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&quota).Error)
	assert.Equal(t, 0, quota.PermanentQuota)
}

func TestQuotaRepository_AddPermanentQuota(t *testing.T) {
	db, repo := setupQuotaRepo(t)

	user := testutil.TestUser(t, db)
	testutil.TestQuota(t, db, user.ID, testutil.WithPermanentQuota(3))

	require.NoError(t, repo.AddPermanentQuota(user.ID, 5))

	var quota model.UserQuota
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&quota).Error)
	assert.Equal(t, 8, quota.PermanentQuota)
}
