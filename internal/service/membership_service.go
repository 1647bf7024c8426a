package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/config"
	"github.com/cvpilot/resume_go_server/internal/model"
	"github.com/cvpilot/resume_go_server/internal/model/dto"
	"github.com/cvpilot/resume_go_server/internal/repository"
)

var (
	ErrTierNotFound      = errors.New("会员档位不存在")
	ErrMembershipExpired = errors.New("会员已过期")
)

// MembershipService 会员生命周期与每月 AI 额度。
// 换档永远是旧行翻转 expired、插入新 active 行，不原地改写；
// 没有任何会员记录的用户首次访问时自动补一条兜底档位
type MembershipService struct {
	db             *gorm.DB
	membershipRepo *repository.MembershipRepository
	tierRepo       *repository.TierRepository
	quotaRepo      *repository.QuotaRepository
	logRepo        *repository.LogRepository
	cfg            *config.Config
}

func NewMembershipService(db *gorm.DB, membershipRepo *repository.MembershipRepository, tierRepo *repository.TierRepository, quotaRepo *repository.QuotaRepository, logRepo *repository.LogRepository, cfg *config.Config) *MembershipService {
	return &MembershipService{
		db:             db,
		membershipRepo: membershipRepo,
		tierRepo:       tierRepo,
		quotaRepo:      quotaRepo,
		logRepo:        logRepo,
		cfg:            cfg,
	}
}

// firstOfNextMonth 下个自然月 1 号零点
func firstOfNextMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
}

// activateOptions 开通参数，订单激活和管理员开通共用
type activateOptions struct {
	DurationDays  *int // 覆盖档位默认时长
	PaymentStatus string
	PaidAmount    float64
	PaymentMethod string
	AdminNotes    string
}

// activateTx 事务内开通会员：旧 active 行全部翻转为 expired，再插入新行
func (s *MembershipService) activateTx(tx *gorm.DB, userID int64, tier *model.MembershipTier, opts activateOptions, now time.Time) (*model.UserMembership, error) {
	repo := s.membershipRepo.WithTx(tx)

	if err := repo.ExpireActiveByUserID(userID); err != nil {
		return nil, err
	}

	duration := tier.DurationDays
	if opts.DurationDays != nil {
		duration = *opts.DurationDays
	}

	m := &model.UserMembership{
		UserID:           userID,
		MembershipTierID: tier.ID,
		Status:           model.MembershipStatusActive,
		StartDate:        now,
		RemainingAIQuota: tier.AIResumeQuota,
		QuotaResetDate:   firstOfNextMonth(now),
		PaymentStatus:    opts.PaymentStatus,
		PaidAmount:       opts.PaidAmount,
		PaymentMethod:    opts.PaymentMethod,
		AdminNotes:       opts.AdminNotes,
	}
	if duration > 0 {
		endDate := now.AddDate(0, 0, duration)
		m.EndDate = &endDate
	}

	if err := repo.Create(m); err != nil {
		return nil, err
	}
	return m, nil
}

// ActivateMembership 给用户开通指定档位
func (s *MembershipService) ActivateMembership(userID, tierID int64, opts activateOptions) (*model.UserMembership, error) {
	var m *model.UserMembership
	err := s.db.Transaction(func(tx *gorm.DB) error {
		tier, err := s.tierRepo.WithTx(tx).GetByID(tierID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTierNotFound
			}
			return err
		}
		m, err = s.activateTx(tx, userID, tier, opts, time.Now())
		return err
	})
	return m, err
}

// GrantMembership 管理员按档位名手工开通
func (s *MembershipService) GrantMembership(req *dto.GrantMembershipRequest) (*model.UserMembership, error) {
	var m *model.UserMembership
	err := s.db.Transaction(func(tx *gorm.DB) error {
		tier, err := s.tierRepo.WithTx(tx).GetByName(req.TierName)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTierNotFound
			}
			return err
		}
		m, err = s.activateTx(tx, req.UserID, tier, activateOptions{
			DurationDays:  req.DurationDays,
			PaymentStatus: "admin_grant",
			AdminNotes:    req.AdminNotes,
		}, time.Now())
		return err
	})
	return m, err
}

// provisionFreeTx 事务内补一条兜底档位的会员记录
func (s *MembershipService) provisionFreeTx(tx *gorm.DB, userID int64, now time.Time) (*model.UserMembership, error) {
	tier, err := s.tierRepo.WithTx(tx).GetByName(s.cfg.Membership.FreeTierName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTierNotFound
		}
		return nil, err
	}
	return s.activateTx(tx, userID, tier, activateOptions{}, now)
}

// GetCurrentMembership 当前有效会员。没有记录时自动补兜底档位，
// 已到月度重置时间时顺带重置额度
func (s *MembershipService) GetCurrentMembership(userID int64) (*model.UserMembership, *model.MembershipTier, error) {
	now := time.Now()

	var m *model.UserMembership
	var tier *model.MembershipTier
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.membershipRepo.WithTx(tx)

		found, err := repo.GetActiveByUserIDForUpdate(userID, now)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			found, err = s.provisionFreeTx(tx, userID, now)
		}
		if err != nil {
			return err
		}

		tier, err = s.tierRepo.WithTx(tx).GetByID(found.MembershipTierID)
		if err != nil {
			return err
		}

		if err := s.maybeResetQuotaTx(tx, found, tier, now); err != nil {
			return err
		}

		m = found
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return m, tier, nil
}

// maybeResetQuotaTx 懒式月度重置：过了 quota_reset_date 才恢复额度并推进到下月初。
// 同一个重置窗口内重复调用不会重复加量
func (s *MembershipService) maybeResetQuotaTx(tx *gorm.DB, m *model.UserMembership, tier *model.MembershipTier, now time.Time) error {
	if now.Before(m.QuotaResetDate) {
		return nil
	}
	next := firstOfNextMonth(now)
	if err := s.membershipRepo.WithTx(tx).ResetAIQuota(m.ID, tier.AIResumeQuota, next); err != nil {
		return err
	}
	m.RemainingAIQuota = tier.AIResumeQuota
	m.QuotaResetDate = next
	return nil
}

// GetStatus 会员状态概要
func (s *MembershipService) GetStatus(userID int64) (*dto.MembershipStatus, error) {
	m, tier, err := s.GetCurrentMembership(userID)
	if err != nil {
		return nil, err
	}

	status := &dto.MembershipStatus{
		TierID:           tier.ID,
		TierName:         tier.Name,
		Status:           m.Status,
		StartDate:        m.StartDate.Format(time.RFC3339),
		RemainingAIQuota: m.RemainingAIQuota,
		MonthlyAIQuota:   tier.AIResumeQuota,
		QuotaResetDate:   m.QuotaResetDate.Format(time.RFC3339),
		TemplateAccess:   tier.TemplateAccessLevel,
	}
	if m.EndDate != nil {
		status.EndDate = m.EndDate.Format(time.RFC3339)
	}
	return status, nil
}

// ValidateAIQuota 只查不扣：会员每月额度加上账本两个池的可用余量
func (s *MembershipService) ValidateAIQuota(userID int64) (*dto.CheckQuotaResponse, error) {
	m, _, err := s.GetCurrentMembership(userID)
	if err != nil {
		return nil, err
	}

	remaining := m.RemainingAIQuota

	quota, err := s.quotaRepo.GetByUserID(userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if quota != nil {
		now := time.Now()
		if quota.SubscriptionValid(now) {
			remaining += quota.SubscriptionQuota
		}
		remaining += quota.PermanentQuota
	}

	return &dto.CheckQuotaResponse{
		HasQuota:       remaining > 0,
		RemainingQuota: remaining,
	}, nil
}

// ConsumeAIQuota 扣一次 AI 额度，三个池按顺序尝试：
// 会员每月额度 -> 账本订阅池 -> 账本永久池，全部在一个事务里完成。
// 每次尝试无论成败都落一行用量日志；被拒时日志照常提交，
// 事务正常结束后再返回类型化错误
func (s *MembershipService) ConsumeAIQuota(userID int64, feature string) (string, error) {
	now := time.Now()

	var source string
	var outcome error
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.membershipRepo.WithTx(tx)
		logRepo := s.logRepo.WithTx(tx)

		healedFromExpired := false
		m, err := repo.GetActiveByUserIDForUpdate(userID, now)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			healedFromExpired, err = s.hasLapsedMembershipTx(tx, userID, now)
			if err != nil {
				return err
			}
			m, err = s.provisionFreeTx(tx, userID, now)
		}
		if err != nil {
			return err
		}

		tier, err := s.tierRepo.WithTx(tx).GetByID(m.MembershipTierID)
		if err != nil {
			return err
		}

		if err := s.maybeResetQuotaTx(tx, m, tier, now); err != nil {
			return err
		}

		ok, err := repo.DecrementAIQuota(m.ID)
		if err != nil {
			return err
		}
		if !ok {
			quotaRepo := s.quotaRepo.WithTx(tx)
			ok, err = quotaRepo.DecrementSubscriptionQuota(userID, now)
			if err != nil {
				return err
			}
			if ok {
				source = model.QuotaSourceSubscription
			} else {
				ok, err = quotaRepo.DecrementPermanentQuota(userID)
				if err != nil {
					return err
				}
				if ok {
					source = model.QuotaSourcePermanent
				}
			}
		} else {
			source = model.QuotaSourceMembership
		}

		if !ok && source == "" {
			if healedFromExpired {
				outcome = ErrMembershipExpired
			} else {
				outcome = ErrQuotaExhausted
			}
			return logRepo.CreateQuotaUsage(&model.QuotaUsageLog{
				UserID:  userID,
				Feature: feature,
				Status:  model.QuotaUsageStatusRejected,
				Reason:  outcome.Error(),
			})
		}

		return logRepo.CreateQuotaUsage(&model.QuotaUsageLog{
			UserID:  userID,
			Feature: feature,
			Source:  source,
			Status:  model.QuotaUsageStatusSuccess,
		})
	})
	if err != nil {
		return "", err
	}
	if outcome != nil {
		return "", outcome
	}
	return source, nil
}

// hasLapsedMembershipTx 用户最近一条会员记录是否为已过期的付费档
func (s *MembershipService) hasLapsedMembershipTx(tx *gorm.DB, userID int64, now time.Time) (bool, error) {
	history, err := s.membershipRepo.WithTx(tx).ListByUserID(userID)
	if err != nil {
		return false, err
	}
	if len(history) == 0 {
		return false, nil
	}
	latest := history[0]
	return latest.Status == model.MembershipStatusExpired || latest.Expired(now), nil
}

// ListTiers 公开的会员档位列表
func (s *MembershipService) ListTiers() ([]*dto.TierInfo, error) {
	tiers, err := s.tierRepo.ListActive()
	if err != nil {
		return nil, err
	}

	infos := make([]*dto.TierInfo, 0, len(tiers))
	for _, t := range tiers {
		infos = append(infos, &dto.TierInfo{
			ID:                  t.ID,
			Name:                t.Name,
			OriginalPrice:       t.OriginalPrice,
			ReductionPrice:      t.ReductionPrice,
			DurationDays:        t.DurationDays,
			AIResumeQuota:       t.AIResumeQuota,
			TemplateAccessLevel: t.TemplateAccessLevel,
			Features:            t.Features,
		})
	}
	return infos, nil
}

// ListHistory 用户会员历史记录
func (s *MembershipService) ListHistory(userID int64) ([]*model.UserMembership, error) {
	return s.membershipRepo.ListByUserID(userID)
}

// CheckAndUpdateExpired 批量翻转已过 end_date 的 active 行，幂等
func (s *MembershipService) CheckAndUpdateExpired() (int64, error) {
	return s.membershipRepo.ExpirePastDue(time.Now())
}

// ResetDueMonthlyQuotas 批量执行已到期的月度重置（维护脚本用）
func (s *MembershipService) ResetDueMonthlyQuotas() (int64, error) {
	now := time.Now()
	due, err := s.membershipRepo.ListResetDue(now)
	if err != nil {
		return 0, err
	}

	var count int64
	for _, m := range due {
		tier, err := s.tierRepo.GetByID(m.MembershipTierID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return count, err
		}
		if err := s.membershipRepo.ResetAIQuota(m.ID, tier.AIResumeQuota, firstOfNextMonth(now)); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
