package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/internal/model"
	"github.com/cvpilot/resume_go_server/internal/model/dto"
	"github.com/cvpilot/resume_go_server/internal/repository"
)

var (
	ErrPlanInUse     = errors.New("套餐仍被用户引用，无法删除")
	ErrPlanIsDefault = errors.New("默认套餐不可删除")
)

// PlanService 套餐目录维护。is_default 全表唯一，
// 设置新默认套餐与清掉旧标记在同一事务里完成
type PlanService struct {
	db       *gorm.DB
	planRepo *repository.PlanRepository
}

func NewPlanService(db *gorm.DB, planRepo *repository.PlanRepository) *PlanService {
	return &PlanService{db: db, planRepo: planRepo}
}

func buildPlan(req *dto.SavePlanRequest) *model.Plan {
	status := req.Status
	if status == "" {
		status = model.PlanStatusActive
	}
	return &model.Plan{
		Name:         req.Name,
		Price:        req.Price,
		DurationDays: req.DurationDays,
		Features: model.PlanFeatures{
			Type:                req.FeatureType,
			ResumeOptimizations: req.ResumeOptimizations,
		},
		IsDefault: req.IsDefault,
		SortOrder: req.SortOrder,
		Status:    status,
	}
}

// CreatePlan 创建套餐，features 写入前校验
func (s *PlanService) CreatePlan(req *dto.SavePlanRequest) (*model.Plan, error) {
	plan := buildPlan(req)
	if err := plan.Features.Validate(); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.planRepo.WithTx(tx)
		if err := repo.Create(plan); err != nil {
			return err
		}
		if plan.IsDefault {
			return repo.ClearDefaultExcept(plan.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// UpdatePlan 更新套餐
func (s *PlanService) UpdatePlan(id int64, req *dto.SavePlanRequest) (*model.Plan, error) {
	var plan *model.Plan
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.planRepo.WithTx(tx)

		found, err := repo.GetByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPlanNotFound
			}
			return err
		}

		updated := buildPlan(req)
		if err := updated.Features.Validate(); err != nil {
			return err
		}
		updated.ID = found.ID
		updated.CreatedAt = found.CreatedAt

		if err := repo.Update(updated); err != nil {
			return err
		}
		if updated.IsDefault {
			if err := repo.ClearDefaultExcept(updated.ID); err != nil {
				return err
			}
		}
		plan = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// DeletePlan 删除套餐。默认套餐和仍被账本引用的套餐不可删
func (s *PlanService) DeletePlan(id int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.planRepo.WithTx(tx)

		plan, err := repo.GetByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPlanNotFound
			}
			return err
		}
		if plan.IsDefault {
			return ErrPlanIsDefault
		}

		refs, err := repo.CountQuotaRefs(id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return ErrPlanInUse
		}

		return repo.Delete(id)
	})
}

func (s *PlanService) GetPlan(id int64) (*model.Plan, error) {
	plan, err := s.planRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// ListPlans 全部套餐（管理后台）
func (s *PlanService) ListPlans() ([]*model.Plan, error) {
	return s.planRepo.List()
}

// ListActivePlans 上架中的套餐（公开列表）
func (s *PlanService) ListActivePlans() ([]*model.Plan, error) {
	return s.planRepo.ListActive()
}
