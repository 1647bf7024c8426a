package model

import (
	"time"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
	OrderStatusRefunded  = "refunded"
)

type MembershipOrder struct {
	ID                   int64      `gorm:"primaryKey" json:"id"`
	OrderNumber          string     `gorm:"size:50;uniqueIndex;not null" json:"order_number"`
	UserID               int64      `gorm:"not null;index" json:"user_id"`
	MembershipTierID     int64      `gorm:"not null;index" json:"membership_tier_id"`
	OriginalAmount       float64    `gorm:"type:decimal(10,2)" json:"original_amount"`
	DiscountAmount       float64    `gorm:"type:decimal(10,2)" json:"discount_amount"`
	FinalAmount          float64    `gorm:"type:decimal(10,2)" json:"final_amount"`
	Status               string     `gorm:"size:20;default:pending;index" json:"status"` // pending, paid, cancelled, refunded
	PaymentMethod        string     `gorm:"size:20" json:"payment_method,omitempty"` // wechat, alipay
	PaidAt               *time.Time `json:"paid_at,omitempty"`
	PaymentTransactionID string     `gorm:"size:100" json:"payment_transaction_id,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (MembershipOrder) TableName() string {
	return "membership_orders"
}
