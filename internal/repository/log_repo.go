package repository

import (
	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/internal/model"
)

type LogRepository struct {
	db *gorm.DB
}

func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{db: db}
}

// WithTx 返回绑定到事务的副本
func (r *LogRepository) WithTx(tx *gorm.DB) *LogRepository {
	return &LogRepository{db: tx}
}

func (r *LogRepository) CreateQuotaUsage(entry *model.QuotaUsageLog) error {
	return r.db.Create(entry).Error
}

func (r *LogRepository) CreateUserAction(entry *model.UserActionLog) error {
	return r.db.Create(entry).Error
}

// ListQuotaUsageByUserID 用户配额消耗记录分页
func (r *LogRepository) ListQuotaUsageByUserID(userID int64, page, pageSize int) ([]*model.QuotaUsageLog, int64, error) {
	var logs []*model.QuotaUsageLog
	var total int64

	query := r.db.Model(&model.QuotaUsageLog{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&logs).Error
	return logs, total, err
}
