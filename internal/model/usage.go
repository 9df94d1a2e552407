package model

import (
	"math"
	"time"

	"gorm.io/gorm"
)

const (
	CallStatusInitiated = "initiated"
	CallStatusConnected = "connected"
	CallStatusCompleted = "completed"
	CallStatusFailed    = "failed"
	CallStatusBusy      = "busy"

	CallTypeInbound  = "inbound"
	CallTypeOutbound = "outbound"
)

type Usage struct {
	gorm.Model
	UserID            uint       `json:"user_id" gorm:"not null;index"`
	CallID            string     `json:"call_id" gorm:"uniqueIndex;not null"`
	StartTime         time.Time  `json:"start_time" gorm:"not null;index"`
	EndTime           *time.Time `json:"end_time"`
	Duration          *float64   `json:"duration"` // saniye
	Status            string     `json:"status" gorm:"not null;index"` // initiated, connected, completed, failed, busy
	CallerNumber      string     `json:"caller_number" gorm:"not null"`
	DestinationNumber string     `json:"destination_number" gorm:"not null"`
	CallType          string     `json:"call_type" gorm:"not null"` // inbound, outbound
	CallSummary       string     `json:"call_summary" gorm:"type:text"`
	RecordingURL      string     `json:"recording_url"`

	// İlişkiler
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// IsActiveCall bitişi olmayan ve hala sürmekte olan çağrıları işaretler
func (u *Usage) IsActiveCall() bool {
	return u.EndTime == nil && (u.Status == CallStatusInitiated || u.Status == CallStatusConnected)
}

func (u *Usage) DurationMinutes() float64 {
	if u.Duration == nil {
		return 0
	}
	return math.Round(*u.Duration/60*100) / 100
}
