package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/internal/model"
	"github.com/cvpilot/resume_go_server/internal/model/dto"
	"github.com/cvpilot/resume_go_server/internal/repository"
)

var (
	ErrPlanNotFound       = errors.New("套餐不存在")
	ErrNoDefaultPlan      = errors.New("未配置默认套餐")
	ErrQuotaExhausted     = errors.New("AI 配额已用完")
	ErrInvalidTopUpAmount = errors.New("充值数量必须为正数")
)

// QuotaService 配额账本：订阅池 + 永久池，账本行懒创建
type QuotaService struct {
	db        *gorm.DB
	quotaRepo *repository.QuotaRepository
	planRepo  *repository.PlanRepository
	logRepo   *repository.LogRepository
}

func NewQuotaService(db *gorm.DB, quotaRepo *repository.QuotaRepository, planRepo *repository.PlanRepository, logRepo *repository.LogRepository) *QuotaService {
	return &QuotaService{
		db:        db,
		quotaRepo: quotaRepo,
		planRepo:  planRepo,
		logRepo:   logRepo,
	}
}

// AssignDefaultPlan 绑定默认套餐。账本行不存在时按默认套餐创建，
// 已存在时只改 plan_id，不动两个配额池
func (s *QuotaService) AssignDefaultPlan(userID int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		planRepo := s.planRepo.WithTx(tx)
		quotaRepo := s.quotaRepo.WithTx(tx)

		plan, err := planRepo.GetDefault()
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoDefaultPlan
			}
			return err
		}

		quota, err := quotaRepo.GetByUserIDForUpdate(userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				row := &model.UserQuota{UserID: userID}
				applyPlan(row, plan, time.Now())
				return quotaRepo.Create(row)
			}
			return err
		}

		return quotaRepo.UpdateFields(quota.UserID, map[string]interface{}{
			"plan_id": plan.ID,
		})
	})
}

// AssignPlan 给用户分配套餐。订阅型覆盖订阅池并重算有效期，
// 永久型把配额累加进永久池；两种情况都不清空另一个池
func (s *QuotaService) AssignPlan(userID, planID int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		planRepo := s.planRepo.WithTx(tx)
		quotaRepo := s.quotaRepo.WithTx(tx)

		plan, err := planRepo.GetByID(planID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPlanNotFound
			}
			return err
		}
		if err := plan.Features.Validate(); err != nil {
			return err
		}

		now := time.Now()
		quota, err := quotaRepo.GetByUserIDForUpdate(userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				row := &model.UserQuota{UserID: userID}
				applyPlan(row, plan, now)
				return quotaRepo.Create(row)
			}
			return err
		}

		applyPlan(quota, plan, now)
		return quotaRepo.Update(quota)
	})
}

// applyPlan 把套餐配额落到账本行上
func applyPlan(quota *model.UserQuota, plan *model.Plan, now time.Time) {
	quota.PlanID = &plan.ID

	switch plan.Features.Type {
	case model.PlanTypePermanent:
		quota.PermanentQuota += plan.Features.ResumeOptimizations
	default:
		quota.SubscriptionQuota = plan.Features.ResumeOptimizations
		if plan.DurationDays > 0 {
			expiresAt := now.AddDate(0, 0, plan.DurationDays)
			quota.SubscriptionExpiresAt = &expiresAt
		} else {
			quota.SubscriptionExpiresAt = nil
		}
	}
}

// AddTopUp 加油包充值，只进永久池
func (s *QuotaService) AddTopUp(userID int64, amount int) error {
	if amount <= 0 {
		return ErrInvalidTopUpAmount
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		quotaRepo := s.quotaRepo.WithTx(tx)

		if _, err := quotaRepo.GetByUserIDForUpdate(userID); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			return quotaRepo.Create(&model.UserQuota{
				UserID:         userID,
				PermanentQuota: amount,
			})
		}

		return quotaRepo.AddPermanentQuota(userID, amount)
	})
}

// CheckAndDecrement 从账本扣一次配额，先订阅池后永久池。
// 扣减与用量日志在同一事务里落库；配额不足时日志仍然提交，
// 事务正常结束后再返回 ErrQuotaExhausted
func (s *QuotaService) CheckAndDecrement(userID int64, feature string) (string, error) {
	var source string
	var outcome error

	err := s.db.Transaction(func(tx *gorm.DB) error {
		quotaRepo := s.quotaRepo.WithTx(tx)
		logRepo := s.logRepo.WithTx(tx)
		now := time.Now()

		if _, err := quotaRepo.GetByUserIDForUpdate(userID); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err := quotaRepo.Create(&model.UserQuota{UserID: userID}); err != nil {
				return err
			}
		}

		ok, err := quotaRepo.DecrementSubscriptionQuota(userID, now)
		if err != nil {
			return err
		}
		if ok {
			source = model.QuotaSourceSubscription
			return logRepo.CreateQuotaUsage(&model.QuotaUsageLog{
				UserID:  userID,
				Feature: feature,
				Source:  source,
				Status:  model.QuotaUsageStatusSuccess,
			})
		}

		ok, err = quotaRepo.DecrementPermanentQuota(userID)
		if err != nil {
			return err
		}
		if ok {
			source = model.QuotaSourcePermanent
			return logRepo.CreateQuotaUsage(&model.QuotaUsageLog{
				UserID:  userID,
				Feature: feature,
				Source:  source,
				Status:  model.QuotaUsageStatusSuccess,
			})
		}

		outcome = ErrQuotaExhausted
		return logRepo.CreateQuotaUsage(&model.QuotaUsageLog{
			UserID:  userID,
			Feature: feature,
			Status:  model.QuotaUsageStatusRejected,
			Reason:  "quota exhausted",
		})
	})
	if err != nil {
		return "", err
	}
	return source, outcome
}

// GetUserPlanDetails 查询账本详情。账本行缺失时自动补绑默认套餐
func (s *QuotaService) GetUserPlanDetails(userID int64) (*dto.PlanDetails, error) {
	quota, err := s.quotaRepo.GetByUserID(userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err := s.AssignDefaultPlan(userID); err != nil {
			return nil, err
		}
		quota, err = s.quotaRepo.GetByUserID(userID)
		if err != nil {
			return nil, err
		}
	}

	details := &dto.PlanDetails{
		SubscriptionQuota: quota.SubscriptionQuota,
		PermanentQuota:    quota.PermanentQuota,
	}
	if quota.SubscriptionExpiresAt != nil {
		details.SubscriptionExpiresAt = quota.SubscriptionExpiresAt.Format(time.RFC3339)
	}
	if quota.PlanID != nil {
		details.PlanID = *quota.PlanID
		plan, err := s.planRepo.GetByID(*quota.PlanID)
		if err == nil {
			details.PlanName = plan.Name
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return details, nil
}
