package model

import (
	"time"
)

type Resume struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	UserID       int64     `gorm:"not null;index" json:"user_id"`
	Title        string    `gorm:"size:200;not null" json:"title"`
	TemplateID   *int64    `gorm:"index" json:"template_id,omitempty"`
	Content      JSONMap   `gorm:"type:json" json:"content"` // 结构化简历内容
	Status       string    `gorm:"size:20;default:draft;index" json:"status"` // draft, generating, completed
	ExportOSSURL string    `gorm:"column:export_oss_url;size:500" json:"export_oss_url,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Resume) TableName() string {
	return "resumes"
}

type ResumeTemplate struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	PreviewURL  string    `gorm:"size:500" json:"preview_url"`
	AccessLevel string    `gorm:"size:20;default:basic;index" json:"access_level"` // basic, premium
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	SortOrder   int       `gorm:"default:0" json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (ResumeTemplate) TableName() string {
	return "resume_templates"
}
