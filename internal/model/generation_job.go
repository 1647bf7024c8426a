package model

import (
	"time"
)

const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// GenerationJob AI 简历生成任务
type GenerationJob struct {
	ID             int64      `gorm:"primaryKey" json:"id"`
	ResumeID       int64      `gorm:"not null;index" json:"resume_id"`
	UserID         int64      `gorm:"not null;index" json:"user_id"`
	Action         string     `gorm:"size:50;not null" json:"action"` // generate, optimize
	Prompt         string     `gorm:"type:text" json:"prompt,omitempty"`
	Status         string     `gorm:"size:20;default:queued;index" json:"status"` // queued, processing, completed, failed
	ErrorMessage   string     `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ElapsedSeconds int        `json:"elapsed_seconds,omitempty"`
}

func (GenerationJob) TableName() string {
	return "generation_jobs"
}
