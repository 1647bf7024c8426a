package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/internal/model"
	"github.com/cvpilot/resume_go_server/internal/model/dto"
	"github.com/cvpilot/resume_go_server/internal/repository"
	"github.com/cvpilot/resume_go_server/internal/testutil"
)

func setupPlanService(t *testing.T) (*gorm.DB, *PlanService) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	return db, NewPlanService(db, repository.NewPlanRepository(db))
}

func defaultPlanCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&model.Plan{}).Where("is_default = ?", true).Count(&count).Error)
	return count
}

func TestPlanService_CreatePlan(t *testing.T) {
	db, service := setupPlanService(t)

	plan, err := service.CreatePlan(&dto.SavePlanRequest{
		Name:                "月度会员",
		Price:               29.9,
		DurationDays:        30,
		FeatureType:         model.PlanTypeSubscription,
		ResumeOptimizations: 10,
	})
	require.NoError(t, err)
	assert.NotZero(t, plan.ID)
	assert.Equal(t, model.PlanStatusActive, plan.Status)

	var row model.Plan
	require.NoError(t, db.First(&row, plan.ID).Error)
	assert.Equal(t, model.PlanTypeSubscription, row.Features.Type)
	assert.Equal(t, 10, row.Features.ResumeOptimizations)
}

func TestPlanService_CreatePlan_InvalidFeatures(t *testing.T) {
	db, service := setupPlanService(t)

	_, err := service.CreatePlan(&dto.SavePlanRequest{
		Name:        "坏套餐",
		FeatureType: "lifetime",
	})
	assert.ErrorIs(t, err, model.ErrInvalidPlanFeatures)

	var count int64
	db.Model(&model.Plan{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestPlanService_CreatePlan_DefaultIsExclusive(t *testing.T) {
	db, service := setupPlanService(t)

	old := testutil.TestPlan(t, db, testutil.AsDefault())

	plan, err := service.CreatePlan(&dto.SavePlanRequest{
		Name:                "新默认套餐",
		FeatureType:         model.PlanTypeSubscription,
		ResumeOptimizations: 5,
		IsDefault:           true,
	})
	require.NoError(t, err)

	// 旧默认标记被清掉，全表只剩一个默认
	assert.Equal(t, int64(1), defaultPlanCount(t, db))

	var oldRow model.Plan
	require.NoError(t, db.First(&oldRow, old.ID).Error)
	assert.False(t, oldRow.IsDefault)

	var newRow model.Plan
	require.NoError(t, db.First(&newRow, plan.ID).Error)
	assert.True(t, newRow.IsDefault)
}

func TestPlanService_UpdatePlan_PromoteToDefault(t *testing.T) {
	db, service := setupPlanService(t)

	old := testutil.TestPlan(t, db, testutil.AsDefault())
	target := testutil.TestPlan(t, db)

	_, err := service.UpdatePlan(target.ID, &dto.SavePlanRequest{
		Name:                target.Name,
		FeatureType:         model.PlanTypePermanent,
		ResumeOptimizations: 3,
		IsDefault:           true,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), defaultPlanCount(t, db))

	var oldRow model.Plan
	require.NoError(t, db.First(&oldRow, old.ID).Error)
	assert.False(t, oldRow.IsDefault)
}

func TestPlanService_UpdatePlan_NotFound(t *testing.T) {
	_, service := setupPlanService(t)

	_, err := service.UpdatePlan(9999, &dto.SavePlanRequest{
		Name:        "不存在",
		FeatureType: model.PlanTypeSubscription,
	})
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestPlanService_DeletePlan_GuardsDefault(t *testing.T) {
	db, service := setupPlanService(t)

	plan := testutil.TestPlan(t, db, testutil.AsDefault())

	err := service.DeletePlan(plan.ID)
	assert.ErrorIs(t, err, ErrPlanIsDefault)

	var count int64
	db.Model(&model.Plan{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestPlanService_DeletePlan_GuardsReferenced(t *testing.T) {
	db, service := setupPlanService(t)

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db)
	quota := testutil.TestQuota(t, db, user.ID)
	require.NoError(t, db.Model(quota).Update("plan_id", plan.ID).Error)

	err := service.DeletePlan(plan.ID)
	assert.ErrorIs(t, err, ErrPlanInUse)
}

func TestPlanService_DeletePlan(t *testing.T) {
	db, service := setupPlanService(t)

	plan := testutil.TestPlan(t, db)

	require.NoError(t, service.DeletePlan(plan.ID))

	var count int64
	db.Model(&model.Plan{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestPlanService_ListActivePlans_ExcludesDisabled(t *testing.T) {
	db, service := setupPlanService(t)

	testutil.TestPlan(t, db)
	disabled := testutil.TestPlan(t, db)
	require.NoError(t, db.Model(disabled).Update("status", model.PlanStatusDisabled).Error)

	plans, err := service.ListActivePlans()
	require.NoError(t, err)
	assert.Len(t, plans, 1)

	all, err := service.ListPlans()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
