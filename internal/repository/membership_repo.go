package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/internal/model"
)

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// WithTx 返回绑定到事务的副本
func (r *MembershipRepository) WithTx(tx *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: tx}
}

func (r *MembershipRepository) Create(m *model.UserMembership) error {
	return r.db.Create(m).Error
}

func (r *MembershipRepository) GetByID(id int64) (*model.UserMembership, error) {
	var m model.UserMembership
	err := r.db.Where("id = ?", id).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetActiveByUserID 获取当前有效会员：active 且未到期，取最新一行
func (r *MembershipRepository) GetActiveByUserID(userID int64, now time.Time) (*model.UserMembership, error) {
	var m model.UserMembership
	err := r.db.Where("user_id = ? AND status = ? AND (end_date IS NULL OR end_date > ?)",
		userID, model.MembershipStatusActive, now).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetActiveByUserIDForUpdate 事务内加行锁读取当前有效会员
func (r *MembershipRepository) GetActiveByUserIDForUpdate(userID int64, now time.Time) (*model.UserMembership, error) {
	var m model.UserMembership
	err := lockForUpdate(r.db).
		Where("user_id = ? AND status = ? AND (end_date IS NULL OR end_date > ?)",
			userID, model.MembershipStatusActive, now).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MembershipRepository) Update(m *model.UserMembership) error {
	return r.db.Save(m).Error
}

// ExpireActiveByUserID 换档前把旧的 active 行翻转为 expired
func (r *MembershipRepository) ExpireActiveByUserID(userID int64) error {
	return r.db.Model(&model.UserMembership{}).
		Where("user_id = ? AND status = ?", userID, model.MembershipStatusActive).
		Update("status", model.MembershipStatusExpired).Error
}

// ExpirePastDue 批量把过了 end_date 的 active 行翻转为 expired，幂等。
// 返回受影响的行数。
func (r *MembershipRepository) ExpirePastDue(now time.Time) (int64, error) {
	result := r.db.Model(&model.UserMembership{}).
		Where("status = ? AND end_date IS NOT NULL AND end_date <= ?", model.MembershipStatusActive, now).
		Update("status", model.MembershipStatusExpired)
	return result.RowsAffected, result.Error
}

// DecrementAIQuota 带条件扣减每月额度，计数不会为负；返回是否扣减成功
func (r *MembershipRepository) DecrementAIQuota(id int64) (bool, error) {
	result := r.db.Model(&model.UserMembership{}).
		Where("id = ? AND remaining_ai_quota > 0", id).
		Update("remaining_ai_quota", gorm.Expr("remaining_ai_quota - 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ResetAIQuota 月度重置：恢复额度并推进下次重置时间
func (r *MembershipRepository) ResetAIQuota(id int64, quota int, nextResetDate time.Time) error {
	return r.db.Model(&model.UserMembership{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"remaining_ai_quota": quota,
			"quota_reset_date":   nextResetDate,
		}).Error
}

// ListResetDue 列出已到月度重置时间的 active 行（维护脚本用）
func (r *MembershipRepository) ListResetDue(now time.Time) ([]*model.UserMembership, error) {
	var ms []*model.UserMembership
	err := r.db.Where("status = ? AND quota_reset_date <= ? AND (end_date IS NULL OR end_date > ?)",
		model.MembershipStatusActive, now, now).
		Find(&ms).Error
	return ms, err
}

// CountActive 统计有效会员数（管理后台）
func (r *MembershipRepository) CountActive(now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.UserMembership{}).
		Where("status = ? AND (end_date IS NULL OR end_date > ?)", model.MembershipStatusActive, now).
		Count(&count).Error
	return count, err
}

// ListByUserID 用户会员历史，最新在前
func (r *MembershipRepository) ListByUserID(userID int64) ([]*model.UserMembership, error) {
	var ms []*model.UserMembership
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&ms).Error
	return ms, err
}
