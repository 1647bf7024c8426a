package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

const (
	PlanStatusActive   = "active"
	PlanStatusDisabled = "disabled"

	// 套餐配额类型
	PlanTypeSubscription = "subscription" // 随订阅周期过期
	PlanTypePermanent    = "permanent"    // 永久有效
)

var ErrInvalidPlanFeatures = errors.New("套餐 features 配置不合法")

// PlanFeatures 套餐配额定义，写入时校验，避免畸形 JSON 静默产生零配额套餐
type PlanFeatures struct {
	Type                string `json:"type"`                 // subscription, permanent
	ResumeOptimizations int    `json:"resume_optimizations"` // AI 简历优化次数
}

func (f PlanFeatures) Value() (driver.Value, error) {
	return json.Marshal(f)
}

func (f *PlanFeatures) Scan(value interface{}) error {
	if value == nil {
		*f = PlanFeatures{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return nil
		}
	}
	return json.Unmarshal(bytes, f)
}

// Validate 校验配额类型与数量
func (f PlanFeatures) Validate() error {
	if f.Type != PlanTypeSubscription && f.Type != PlanTypePermanent {
		return ErrInvalidPlanFeatures
	}
	if f.ResumeOptimizations < 0 {
		return ErrInvalidPlanFeatures
	}
	return nil
}

type Plan struct {
	ID           int64        `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"size:100;not null" json:"name"`
	Price        float64      `gorm:"type:decimal(10,2)" json:"price"`
	DurationDays int          `gorm:"default:0" json:"duration_days"` // 0 表示不限期
	Features     PlanFeatures `gorm:"type:json" json:"features"`
	IsDefault    bool         `gorm:"default:false;index" json:"is_default"` // 全表至多一行为 true
	SortOrder    int          `gorm:"default:0" json:"sort_order"`
	Status       string       `gorm:"size:20;default:active" json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (Plan) TableName() string {
	return "plans"
}
