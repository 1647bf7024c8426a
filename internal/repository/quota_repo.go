package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/internal/model"
)

type QuotaRepository struct {
	db *gorm.DB
}

func NewQuotaRepository(db *gorm.DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

// WithTx 返回绑定到事务的副本
func (r *QuotaRepository) WithTx(tx *gorm.DB) *QuotaRepository {
	return &QuotaRepository{db: tx}
}

func (r *QuotaRepository) Create(quota *model.UserQuota) error {
	return r.db.Create(quota).Error
}

func (r *QuotaRepository) GetByUserID(userID int64) (*model.UserQuota, error) {
	var quota model.UserQuota
	err := r.db.Where("user_id = ?", userID).First(&quota).Error
	if err != nil {
		return nil, err
	}
	return &quota, nil
}

// GetByUserIDForUpdate 事务内加行锁读取账本行
func (r *QuotaRepository) GetByUserIDForUpdate(userID int64) (*model.UserQuota, error) {
	var quota model.UserQuota
	err := lockForUpdate(r.db).Where("user_id = ?", userID).First(&quota).Error
	if err != nil {
		return nil, err
	}
	return &quota, nil
}

func (r *QuotaRepository) Update(quota *model.UserQuota) error {
	return r.db.Save(quota).Error
}

func (r *QuotaRepository) UpdateFields(userID int64, fields map[string]interface{}) error {
	return r.db.Model(&model.UserQuota{}).Where("user_id = ?", userID).Updates(fields).Error
}

// DecrementSubscriptionQuota 带条件扣减订阅池。
// WHERE 子句同时校验计数与有效期，计数不会被扣成负数；返回是否扣减成功。
func (r *QuotaRepository) DecrementSubscriptionQuota(userID int64, now time.Time) (bool, error) {
	result := r.db.Model(&model.UserQuota{}).
		Where("user_id = ? AND subscription_quota > 0 AND subscription_expires_at IS NOT NULL AND subscription_expires_at > ?", userID, now).
		Update("subscription_quota", gorm.Expr("subscription_quota - 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DecrementPermanentQuota 带条件扣减永久池
func (r *QuotaRepository) DecrementPermanentQuota(userID int64) (bool, error) {
	result := r.db.Model(&model.UserQuota{}).
		Where("user_id = ? AND permanent_quota > 0", userID).
		Update("permanent_quota", gorm.Expr("permanent_quota - 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// AddPermanentQuota 加油包充值，只增不减
func (r *QuotaRepository) AddPermanentQuota(userID int64, amount int) error {
	return r.db.Model(&model.UserQuota{}).
		Where("user_id = ?", userID).
		Update("permanent_quota", gorm.Expr("permanent_quota + ?", amount)).Error
}
