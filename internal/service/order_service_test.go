package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/config"
	"github.com/cvpilot/resume_go_server/internal/model"
	"github.com/cvpilot/resume_go_server/internal/model/dto"
	"github.com/cvpilot/resume_go_server/internal/repository"
	"github.com/cvpilot/resume_go_server/internal/testutil"
)

func setupOrderService(t *testing.T) (*gorm.DB, *OrderService) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	cfg := &config.Config{
		Membership: config.MembershipConfig{FreeTierName: "Free"},
	}
	membershipService := NewMembershipService(
		db,
		repository.NewMembershipRepository(db),
		repository.NewTierRepository(db),
		repository.NewQuotaRepository(db),
		repository.NewLogRepository(db),
		cfg,
	)

	service := NewOrderService(
		db,
		repository.NewOrderRepository(db),
		repository.NewTierRepository(db),
		repository.NewUserRepository(db),
		repository.NewLogRepository(db),
		membershipService,
		nil,
	)
	return db, service
}

func TestOrderService_CreateOrder_SnapshotsTierPrice(t *testing.T) {
	db, service := setupOrderService(t)

	user := testutil.TestUser(t, db)
	reduction := 29.9
	tier := testutil.TestTier(t, db)
	require.NoError(t, db.Model(tier).Update("reduction_price", reduction).Error)

	order, err := service.CreateOrder(user.ID, &dto.CreateOrderRequest{
		MembershipTierID: tier.ID,
		PaymentMethod:    "wechat",
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, tier.OriginalPrice, order.OriginalAmount)
	assert.Equal(t, reduction, order.FinalAmount)
	assert.InDelta(t, tier.OriginalPrice-reduction, order.DiscountAmount, 0.001)
	assert.NotEmpty(t, order.OrderNumber)
}

func TestOrderService_CreateOrder_TierDisabled(t *testing.T) {
	db, service := setupOrderService(t)

	user := testutil.TestUser(t, db)
	tier := testutil.TestTier(t, db)
	require.NoError(t, db.Model(tier).Update("is_active", false).Error)

	_, err := service.CreateOrder(user.ID, &dto.CreateOrderRequest{
		MembershipTierID: tier.ID,
		PaymentMethod:    "alipay",
	})
	assert.ErrorIs(t, err, ErrTierDisabled)
}

func TestOrderService_CreateOrder_TierMissing(t *testing.T) {
	db, service := setupOrderService(t)

	user := testutil.TestUser(t, db)

	_, err := service.CreateOrder(user.ID, &dto.CreateOrderRequest{
		MembershipTierID: 9999,
		PaymentMethod:    "wechat",
	})
	assert.ErrorIs(t, err, ErrTierNotFound)
}

func TestOrderService_ActivateOrder_ActivatesMembership(t *testing.T) {
	db, service := setupOrderService(t)

	user := testutil.TestUser(t, db)
	tier := testutil.TestTier(t, db, testutil.WithAIQuota(30), testutil.WithDuration(30))
	order := testutil.TestOrder(t, db, user.ID, tier.ID)

	activated, err := service.ActivateOrder(order.ID, user.ID, "wx_txn_123")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, activated.Status)
	assert.Equal(t, "wx_txn_123", activated.PaymentTransactionID)
	require.NotNil(t, activated.PaidAt)

	// 同一事务里开通了会员
	m, tierGot, err := service.membershipService.GetCurrentMembership(user.ID)
	require.NoError(t, err)
	assert.Equal(t, tier.ID, tierGot.ID)
	assert.Equal(t, 30, m.RemainingAIQuota)
	assert.Equal(t, model.OrderStatusPaid, m.PaymentStatus)
	assert.Equal(t, order.FinalAmount, m.PaidAmount)

	// 激活动作落了行为日志
	var actionLog model.UserActionLog
	require.NoError(t, db.Where("user_id = ? AND action = ?", user.ID, "order_activate").First(&actionLog).Error)
}

func TestOrderService_ActivateOrder_Idempotent(t *testing.T) {
	db, service := setupOrderService(t)

	user := testutil.TestUser(t, db)
	tier := testutil.TestTier(t, db)
	order := testutil.TestOrder(t, db, user.ID, tier.ID)

	_, err := service.ActivateOrder(order.ID, user.ID, "txn_1")
	require.NoError(t, err)

	// 重复激活被拒，且不会开出第二条会员记录
	_, err = service.ActivateOrder(order.ID, user.ID, "txn_2")
	assert.ErrorIs(t, err, ErrOrderAlreadyActivated)

	var count int64
	require.NoError(t, db.Model(&model.UserMembership{}).
		Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var row model.MembershipOrder
	require.NoError(t, db.First(&row, order.ID).Error)
	assert.Equal(t, "txn_1", row.PaymentTransactionID)
}

func TestOrderService_ActivateOrder_WrongOwner(t *testing.T) {
	db, service := setupOrderService(t)

	owner := testutil.TestUser(t, db)
	stranger := testutil.TestUser(t, db)
	tier := testutil.TestTier(t, db)
	order := testutil.TestOrder(t, db, owner.ID, tier.ID)

	_, err := service.ActivateOrder(order.ID, stranger.ID, "txn")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	var row model.MembershipOrder
	require.NoError(t, db.First(&row, order.ID).Error)
	assert.Equal(t, model.OrderStatusPending, row.Status)
}

func TestOrderService_ActivateOrder_AdminBypassesOwnership(t *testing.T) {
	db, service := setupOrderService(t)

	user := testutil.TestUser(t, db)
	tier := testutil.TestTier(t, db)
	order := testutil.TestOrder(t, db, user.ID, tier.ID)

	// userID 为 0 走管理后台路径
	activated, err := service.ActivateOrder(order.ID, 0, "admin_txn")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, activated.Status)

	m, _, err := service.membershipService.GetCurrentMembership(user.ID)
	require.NoError(t, err)
	assert.Equal(t, tier.ID, m.MembershipTierID)
}

func TestOrderService_ActivateOrder_NotPayable(t *testing.T) {
	db, service := setupOrderService(t)

	user := testutil.TestUser(t, db)
	tier := testutil.TestTier(t, db)
	order := testutil.TestOrder(t, db, user.ID, tier.ID,
		testutil.WithOrderStatus(model.OrderStatusCancelled))

	_, err := service.ActivateOrder(order.ID, user.ID, "txn")
	assert.ErrorIs(t, err, ErrOrderNotPayable)
}

func TestOrderService_GetOrder_OwnershipCheck(t *testing.T) {
	db, service := setupOrderService(t)

	owner := testutil.TestUser(t, db)
	stranger := testutil.TestUser(t, db)
	tier := testutil.TestTier(t, db)
	order := testutil.TestOrder(t, db, owner.ID, tier.ID)

	got, err := service.GetOrder(order.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, got.OrderNumber)

	_, err = service.GetOrder(order.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_ListOrders_Paginated(t *testing.T) {
	db, service := setupOrderService(t)

	user := testutil.TestUser(t, db)
	tier := testutil.TestTier(t, db)
	for i := 0; i < 3; i++ {
		testutil.TestOrder(t, db, user.ID, tier.ID)
	}

	orders, total, err := service.ListOrders(user.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, orders, 2)
}
