package repository

import (
	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/internal/model"
)

type ResumeRepository struct {
	db *gorm.DB
}

func NewResumeRepository(db *gorm.DB) *ResumeRepository {
	return &ResumeRepository{db: db}
}

func (r *ResumeRepository) Create(resume *model.Resume) error {
	return r.db.Create(resume).Error
}

func (r *ResumeRepository) GetByID(id int64) (*model.Resume, error) {
	var resume model.Resume
	err := r.db.Where("id = ?", id).First(&resume).Error
	if err != nil {
		return nil, err
	}
	return &resume, nil
}

func (r *ResumeRepository) Update(resume *model.Resume) error {
	return r.db.Save(resume).Error
}

func (r *ResumeRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.Resume{}).Where("id = ?", id).Updates(fields).Error
}

func (r *ResumeRepository) UpdateStatus(id int64, status string) error {
	return r.db.Model(&model.Resume{}).Where("id = ?", id).Update("status", status).Error
}

func (r *ResumeRepository) Delete(id int64) error {
	return r.db.Delete(&model.Resume{}, id).Error
}

// ListByUserID 用户简历分页列表
func (r *ResumeRepository) ListByUserID(userID int64, page, pageSize int) ([]*model.Resume, int64, error) {
	var resumes []*model.Resume
	var total int64

	query := r.db.Model(&model.Resume{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("updated_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&resumes).Error
	return resumes, total, err
}
