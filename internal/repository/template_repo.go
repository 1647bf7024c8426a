package repository

import (
	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/internal/model"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Create(tpl *model.ResumeTemplate) error {
	return r.db.Create(tpl).Error
}

func (r *TemplateRepository) GetByID(id int64) (*model.ResumeTemplate, error) {
	var tpl model.ResumeTemplate
	err := r.db.Where("id = ?", id).First(&tpl).Error
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *TemplateRepository) Update(tpl *model.ResumeTemplate) error {
	return r.db.Save(tpl).Error
}

func (r *TemplateRepository) ListActive() ([]*model.ResumeTemplate, error) {
	var tpls []*model.ResumeTemplate
	err := r.db.Where("is_active = ?", true).
		Order("sort_order ASC, id ASC").
		Find(&tpls).Error
	return tpls, err
}
