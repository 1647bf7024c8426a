package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/internal/model"
)

// StatsRepository 管理后台只读聚合查询
type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) CountUsers() (int64, error) {
	var count int64
	err := r.db.Model(&model.User{}).Count(&count).Error
	return count, err
}

func (r *StatsRepository) CountUsersSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.User{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

func (r *StatsRepository) CountActiveMemberships(now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.UserMembership{}).
		Where("status = ? AND (end_date IS NULL OR end_date > ?)", model.MembershipStatusActive, now).
		Count(&count).Error
	return count, err
}

func (r *StatsRepository) CountPaidOrders() (int64, error) {
	var count int64
	err := r.db.Model(&model.MembershipOrder{}).
		Where("status = ?", model.OrderStatusPaid).
		Count(&count).Error
	return count, err
}

// SumRevenue 已支付订单的总收入，时间窗口可选
func (r *StatsRepository) SumRevenue(since *time.Time) (float64, error) {
	var total *float64
	query := r.db.Model(&model.MembershipOrder{}).Where("status = ?", model.OrderStatusPaid)
	if since != nil {
		query = query.Where("paid_at >= ?", *since)
	}
	err := query.Select("SUM(final_amount)").Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *StatsRepository) CountResumes() (int64, error) {
	var count int64
	err := r.db.Model(&model.Resume{}).Count(&count).Error
	return count, err
}

func (r *StatsRepository) CountGenerationsSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.QuotaUsageLog{}).
		Where("status = ? AND created_at >= ?", model.QuotaUsageStatusSuccess, since).
		Count(&count).Error
	return count, err
}
