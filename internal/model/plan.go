package model

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Plan struct {
	gorm.Model
	Name         string         `json:"name" gorm:"uniqueIndex;not null"`
	Slug         string         `json:"slug" gorm:"uniqueIndex"`
	Description  string         `json:"description" gorm:"type:text"`
	Price        float64        `json:"price" gorm:"not null"`
	DurationDays int            `json:"duration_days" gorm:"not null"`
	MaxCalls     *int           `json:"max_calls"`
	MaxMinutes   *int           `json:"max_minutes"`
	Features     datatypes.JSON `json:"features"`
	IsActive     bool           `json:"is_active"`

	// İlişkiler
	Subscriptions []Subscription `json:"-"`
}

// FeatureMap plan özelliklerini çözümler; bozuk veri boş map döner
func (p *Plan) FeatureMap() map[string]interface{} {
	features := map[string]interface{}{}
	if len(p.Features) == 0 {
		return features
	}
	if err := json.Unmarshal(p.Features, &features); err != nil {
		return map[string]interface{}{}
	}
	return features
}
