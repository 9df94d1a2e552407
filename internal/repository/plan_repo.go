package repository

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"avs_backend/internal/model"
)

type PlanStats struct {
	TotalSubscriptions  int64   `json:"total_subscriptions"`
	ActiveSubscriptions int64   `json:"active_subscriptions"`
	TotalRevenue        float64 `json:"total_revenue"`
}

type PlanWithStats struct {
	model.Plan
	Stats PlanStats `json:"stats" gorm:"-"`
}

type PopularPlan struct {
	ID                  uint                   `json:"id"`
	Name                string                 `json:"name"`
	Description         string                 `json:"description"`
	Price               float64                `json:"price"`
	DurationDays        int                    `json:"duration_days"`
	MaxCalls            *int                   `json:"max_calls"`
	MaxMinutes          *int                   `json:"max_minutes"`
	Features            map[string]interface{} `json:"features" gorm:"-"`
	RawFeatures         datatypes.JSON         `json:"-" gorm:"column:features"`
	ActiveSubscriptions int64                  `json:"active_subscriptions"`
}

func GetPlanByID(db *gorm.DB, id uint) (*model.Plan, error) {
	var plan model.Plan
	if err := db.First(&plan, id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func GetPlanByName(db *gorm.DB, name string) (*model.Plan, error) {
	var plan model.Plan
	if err := db.Where("name = ?", name).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func GetPlanBySlug(db *gorm.DB, planSlug string) (*model.Plan, error) {
	var plan model.Plan
	if err := db.Where("slug = ?", planSlug).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func ListActivePlans(db *gorm.DB) ([]model.Plan, error) {
	var plans []model.Plan
	err := db.Where("is_active = ?", true).Order("price").Find(&plans).Error
	return plans, err
}

func ListPlans(db *gorm.DB, skip, limit int) ([]model.Plan, error) {
	var plans []model.Plan
	err := db.Order("created_at DESC").Offset(skip).Limit(limit).Find(&plans).Error
	return plans, err
}

func CountPlans(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&model.Plan{}).Count(&count).Error
	return count, err
}

func CreatePlan(db *gorm.DB, plan *model.Plan) error {
	return db.Create(plan).Error
}

func UpdatePlan(db *gorm.DB, plan *model.Plan, updates map[string]interface{}) error {
	return db.Model(plan).Updates(updates).Error
}

func SetPlanActive(db *gorm.DB, plan *model.Plan, active bool) error {
	return db.Model(plan).Update("is_active", active).Error
}

// DeletePlanHard planı kalıcı olarak kaldırır; çağıran tarafın aktif abonelik
// kontrolü yapması beklenir
func DeletePlanHard(db *gorm.DB, id uint) error {
	return db.Unscoped().Delete(&model.Plan{}, id).Error
}

// CountActivePlanSubscriptions plana bağlı efektif-aktif abonelik sayısı
func CountActivePlanSubscriptions(db *gorm.DB, planID uint, now time.Time) (int64, error) {
	var count int64
	err := db.Model(&model.Subscription{}).
		Where("plan_id = ? AND is_active = ? AND end_date > ?", planID, true, now).
		Count(&count).Error
	return count, err
}

// ListPlansWithStats tüm planları abonelik/gelir istatistikleriyle listeler
func ListPlansWithStats(db *gorm.DB, now time.Time) ([]PlanWithStats, error) {
	var plans []model.Plan
	if err := db.Order("created_at").Find(&plans).Error; err != nil {
		return nil, err
	}

	result := make([]PlanWithStats, 0, len(plans))
	for _, plan := range plans {
		row := PlanWithStats{Plan: plan}

		if err := db.Model(&model.Subscription{}).
			Where("plan_id = ?", plan.ID).
			Count(&row.Stats.TotalSubscriptions).Error; err != nil {
			return nil, err
		}

		active, err := CountActivePlanSubscriptions(db, plan.ID, now)
		if err != nil {
			return nil, err
		}
		row.Stats.ActiveSubscriptions = active

		var revenue struct{ Total float64 }
		if err := db.Model(&model.Subscription{}).
			Select("COALESCE(SUM(payment_amount), 0) AS total").
			Where("plan_id = ? AND payment_status = ?", plan.ID, model.PaymentStatusCompleted).
			Scan(&revenue).Error; err != nil {
			return nil, err
		}
		row.Stats.TotalRevenue = revenue.Total

		result = append(result, row)
	}

	return result, nil
}

// ListPopularPlans efektif-aktif abonelik sayısına göre en popüler planlar
func ListPopularPlans(db *gorm.DB, limit int, now time.Time) ([]PopularPlan, error) {
	var rows []PopularPlan
	err := db.Model(&model.Plan{}).
		Select("plans.id, plans.name, plans.description, plans.price, plans.duration_days, " +
			"plans.max_calls, plans.max_minutes, plans.features, COUNT(subscriptions.id) AS active_subscriptions").
		Joins("JOIN subscriptions ON subscriptions.plan_id = plans.id AND subscriptions.deleted_at IS NULL").
		Where("subscriptions.is_active = ? AND subscriptions.end_date > ? AND plans.is_active = ?", true, now, true).
		Group("plans.id, plans.name, plans.description, plans.price, plans.duration_days, plans.max_calls, plans.max_minutes, plans.features").
		Order("active_subscriptions DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for i := range rows {
		features := map[string]interface{}{}
		if len(rows[i].RawFeatures) > 0 {
			if err := json.Unmarshal(rows[i].RawFeatures, &features); err != nil {
				features = map[string]interface{}{}
			}
		}
		rows[i].Features = features
	}

	return rows, nil
}
