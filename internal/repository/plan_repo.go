package repository

import (
	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/internal/model"
)

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// WithTx 返回绑定到事务的副本
func (r *PlanRepository) WithTx(tx *gorm.DB) *PlanRepository {
	return &PlanRepository{db: tx}
}

func (r *PlanRepository) Create(plan *model.Plan) error {
	return r.db.Create(plan).Error
}

func (r *PlanRepository) GetByID(id int64) (*model.Plan, error) {
	var plan model.Plan
	err := r.db.Where("id = ?", id).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetDefault 获取默认套餐，全表应当恰好一行 is_default = true
func (r *PlanRepository) GetDefault() (*model.Plan, error) {
	var plan model.Plan
	err := r.db.Where("is_default = ?", true).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepository) Update(plan *model.Plan) error {
	return r.db.Save(plan).Error
}

// ClearDefaultExcept 清掉其余行的默认标记，保证默认套餐唯一
func (r *PlanRepository) ClearDefaultExcept(id int64) error {
	return r.db.Model(&model.Plan{}).
		Where("is_default = ? AND id <> ?", true, id).
		Update("is_default", false).Error
}

func (r *PlanRepository) Delete(id int64) error {
	return r.db.Delete(&model.Plan{}, id).Error
}

func (r *PlanRepository) List() ([]*model.Plan, error) {
	var plans []*model.Plan
	err := r.db.Order("sort_order ASC, id ASC").Find(&plans).Error
	return plans, err
}

func (r *PlanRepository) ListActive() ([]*model.Plan, error) {
	var plans []*model.Plan
	err := r.db.Where("status = ?", model.PlanStatusActive).
		Order("sort_order ASC, id ASC").
		Find(&plans).Error
	return plans, err
}

// CountQuotaRefs 统计引用某套餐的配额账本行数
func (r *PlanRepository) CountQuotaRefs(planID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.UserQuota{}).Where("plan_id = ?", planID).Count(&count).Error
	return count, err
}
