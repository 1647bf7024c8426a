package service

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/internal/model"
	"github.com/cvpilot/resume_go_server/internal/model/dto"
	"github.com/cvpilot/resume_go_server/internal/repository"
)

var ErrInvalidAssignRequest = errors.New("必须指定 plan_id 或 permanent_quota")

// AdminService 管理后台：统计面板、配额分配、档位维护
type AdminService struct {
	statsRepo    *repository.StatsRepository
	userRepo     *repository.UserRepository
	tierRepo     *repository.TierRepository
	quotaService *QuotaService
}

func NewAdminService(statsRepo *repository.StatsRepository, userRepo *repository.UserRepository, tierRepo *repository.TierRepository, quotaService *QuotaService) *AdminService {
	return &AdminService{
		statsRepo:    statsRepo,
		userRepo:     userRepo,
		tierRepo:     tierRepo,
		quotaService: quotaService,
	}
}

// GetDashboardStats 统计面板。单项查询失败时该项保持为零，
// 不让一条坏查询拖垮整个面板
func (s *AdminService) GetDashboardStats() *dto.DashboardStats {
	stats := &dto.DashboardStats{}
	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var err error
	if stats.TotalUsers, err = s.statsRepo.CountUsers(); err != nil {
		log.Printf("Dashboard stats: count users failed: %v", err)
	}
	if stats.NewUsersToday, err = s.statsRepo.CountUsersSince(todayStart); err != nil {
		log.Printf("Dashboard stats: count new users failed: %v", err)
	}
	if stats.ActiveMemberships, err = s.statsRepo.CountActiveMemberships(now); err != nil {
		log.Printf("Dashboard stats: count active memberships failed: %v", err)
	}
	if stats.PaidOrders, err = s.statsRepo.CountPaidOrders(); err != nil {
		log.Printf("Dashboard stats: count paid orders failed: %v", err)
	}
	if stats.TotalRevenue, err = s.statsRepo.SumRevenue(nil); err != nil {
		log.Printf("Dashboard stats: sum revenue failed: %v", err)
	}
	if stats.RevenueThisMonth, err = s.statsRepo.SumRevenue(&monthStart); err != nil {
		log.Printf("Dashboard stats: sum month revenue failed: %v", err)
	}
	if stats.ResumesCreated, err = s.statsRepo.CountResumes(); err != nil {
		log.Printf("Dashboard stats: count resumes failed: %v", err)
	}
	if stats.GenerationsToday, err = s.statsRepo.CountGenerationsSince(todayStart); err != nil {
		log.Printf("Dashboard stats: count generations failed: %v", err)
	}

	return stats
}

// AssignQuota 给用户分配套餐或充值永久配额
func (s *AdminService) AssignQuota(req *dto.AssignQuotaRequest) error {
	if _, err := s.userRepo.GetByID(req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	switch {
	case req.PlanID != nil:
		return s.quotaService.AssignPlan(req.UserID, *req.PlanID)
	case req.PermanentQuota != nil:
		return s.quotaService.AddTopUp(req.UserID, *req.PermanentQuota)
	default:
		return ErrInvalidAssignRequest
	}
}

// ListUsers 用户分页列表
func (s *AdminService) ListUsers(page, pageSize int) ([]*model.User, int64, error) {
	return s.userRepo.List(page, pageSize)
}

// SaveTier 创建或更新会员档位，id 为 0 时创建
func (s *AdminService) SaveTier(id int64, req *dto.SaveTierRequest) (*model.MembershipTier, error) {
	tier := &model.MembershipTier{
		Name:                req.Name,
		OriginalPrice:       req.OriginalPrice,
		ReductionPrice:      req.ReductionPrice,
		DurationDays:        req.DurationDays,
		AIResumeQuota:       req.AIResumeQuota,
		TemplateAccessLevel: req.TemplateAccessLevel,
		Features:            req.Features,
		IsActive:            true,
		SortOrder:           req.SortOrder,
	}
	if req.IsActive != nil {
		tier.IsActive = *req.IsActive
	}

	if id == 0 {
		if err := s.tierRepo.Create(tier); err != nil {
			return nil, err
		}
		return tier, nil
	}

	found, err := s.tierRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTierNotFound
		}
		return nil, err
	}
	tier.ID = found.ID
	tier.CreatedAt = found.CreatedAt
	if err := s.tierRepo.Update(tier); err != nil {
		return nil, err
	}
	return tier, nil
}

// ListAllTiers 含下架档位的完整列表
func (s *AdminService) ListAllTiers() ([]*model.MembershipTier, error) {
	return s.tierRepo.List()
}
