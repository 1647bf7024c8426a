package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/internal/model"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(job *model.GenerationJob) error {
	return r.db.Create(job).Error
}

func (r *JobRepository) GetByID(id int64) (*model.GenerationJob, error) {
	var job model.GenerationJob
	err := r.db.Where("id = ?", id).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetLatestByResumeID 简历最近一次生成任务
func (r *JobRepository) GetLatestByResumeID(resumeID int64) (*model.GenerationJob, error) {
	var job model.GenerationJob
	err := r.db.Where("resume_id = ?", resumeID).Order("created_at DESC").First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *JobRepository) Update(job *model.GenerationJob) error {
	return r.db.Save(job).Error
}

func (r *JobRepository) UpdateStatus(id int64, status string) error {
	return r.db.Model(&model.GenerationJob{}).Where("id = ?", id).Update("status", status).Error
}

// FailStale 把长时间停留在 processing 的任务标记为失败（维护脚本用）
func (r *JobRepository) FailStale(before time.Time) (int64, error) {
	result := r.db.Model(&model.GenerationJob{}).
		Where("status = ? AND started_at IS NOT NULL AND started_at < ?", model.JobStatusProcessing, before).
		Updates(map[string]interface{}{
			"status":        model.JobStatusFailed,
			"error_message": "job timed out",
		})
	return result.RowsAffected, result.Error
}
