package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

type Subscription struct {
	gorm.Model
	UserID        uint      `json:"user_id" gorm:"not null;index"`
	PlanID        uint      `json:"plan_id" gorm:"not null;index"`
	StartDate     time.Time `json:"start_date" gorm:"not null"`
	EndDate       time.Time `json:"end_date" gorm:"not null"`
	IsActive      bool      `json:"is_active"`
	PaymentStatus string    `json:"payment_status"` // pending, completed, failed, refunded
	PaymentAmount float64   `json:"payment_amount" gorm:"not null"`
	PaymentMethod string    `json:"payment_method"`
	PaymentID     string    `json:"payment_id"` // Harici ödeme referansı

	// İlişkiler
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Plan Plan `json:"plan,omitempty" gorm:"foreignKey:PlanID"`
}

// IsEffectiveActive aktif bayrak ve bitiş tarihine göre gerçek aktifliği verir
func (s *Subscription) IsEffectiveActive(now time.Time) bool {
	return s.IsActive && s.EndDate.After(now)
}

func (s *Subscription) IsExpired(now time.Time) bool {
	return !s.EndDate.After(now)
}

func (s *Subscription) DaysRemaining(now time.Time) int {
	if !s.EndDate.After(now) {
		return 0
	}
	return int(s.EndDate.Sub(now).Hours() / 24)
}
