package repository

import (
	"time"

	"gorm.io/gorm"

	"avs_backend/internal/model"
)

type MonthUsageSummary struct {
	TotalCalls    int64   `json:"total_calls"`
	TotalDuration float64 `json:"total_duration"`
}

type UserActiveSubscription struct {
	ID            uint      `json:"id"`
	PlanName      string    `json:"plan_name"`
	EndDate       time.Time `json:"end_date"`
	PaymentStatus string    `json:"payment_status"`
}

type UserWithStats struct {
	ID                 uint                    `json:"id"`
	Email              string                  `json:"email"`
	FullName           string                  `json:"full_name"`
	IsActive           bool                    `json:"is_active"`
	IsSuperuser        bool                    `json:"is_superuser"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
	ActiveSubscription *UserActiveSubscription `json:"active_subscription"`
	CurrentMonthStats  MonthUsageSummary       `json:"current_month_stats"`
}

type DashboardSubscription struct {
	ID            uint      `json:"id"`
	PlanName      string    `json:"plan_name"`
	PlanPrice     float64   `json:"plan_price"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	PaymentStatus string    `json:"payment_status"`
	MaxCalls      *int      `json:"max_calls"`
	MaxMinutes    *int      `json:"max_minutes"`
}

type CurrentMonthUsage struct {
	TotalCalls       int64    `json:"total_calls"`
	TotalDuration    float64  `json:"total_duration"`
	RemainingCalls   *int64   `json:"remaining_calls"`
	RemainingMinutes *float64 `json:"remaining_minutes"`
}

type UserDashboard struct {
	User               model.UserSummary      `json:"user"`
	ActiveSubscription *DashboardSubscription `json:"active_subscription"`
	CurrentMonthUsage  CurrentMonthUsage      `json:"current_month_usage"`
	AllTimeUsage       MonthUsageSummary      `json:"all_time_usage"`
}

func GetUserByID(db *gorm.DB, id uint) (*model.User, error) {
	var user model.User
	if err := db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func GetUserByEmail(db *gorm.DB, email string) (*model.User, error) {
	var user model.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func ListUsers(db *gorm.DB, skip, limit int) ([]model.User, error) {
	var users []model.User
	err := db.Order("created_at DESC").Offset(skip).Limit(limit).Find(&users).Error
	return users, err
}

func CountUsers(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&model.User{}).Count(&count).Error
	return count, err
}

func CountActiveUsers(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&model.User{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

func CreateUser(db *gorm.DB, user *model.User) error {
	return db.Create(user).Error
}

// UpdateUser sadece verilen alanları birleştirir; updated_at GORM tarafından yenilenir
func UpdateUser(db *gorm.DB, user *model.User, updates map[string]interface{}) error {
	return db.Model(user).Updates(updates).Error
}

// DeleteUserCascade kullanıcıyı bağlı abonelik ve kullanım kayıtlarıyla birlikte siler
func DeleteUserCascade(db *gorm.DB, userID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&model.Usage{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&model.Subscription{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.User{}, userID).Error
	})
}

func userMonthSummary(db *gorm.DB, userID uint, since time.Time) (MonthUsageSummary, error) {
	var summary MonthUsageSummary
	query := db.Model(&model.Usage{}).
		Select("COUNT(id) AS total_calls, COALESCE(SUM(duration), 0) AS total_duration").
		Where("user_id = ?", userID)
	if !since.IsZero() {
		query = query.Where("start_time >= ?", since)
	}
	err := query.Scan(&summary).Error
	return summary, err
}

// ListUsersWithStats kullanıcıları aktif abonelik ve ay içi kullanım özetiyle listeler
func ListUsersWithStats(db *gorm.DB, search string, isActive *bool, skip, limit int, now time.Time) ([]UserWithStats, error) {
	query := db.Model(&model.User{})
	if search != "" {
		pattern := containsPattern(search)
		query = query.Where("LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", pattern, pattern)
	}
	if isActive != nil {
		query = query.Where("is_active = ?", *isActive)
	}

	var users []model.User
	if err := query.Order("created_at DESC").Offset(skip).Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}

	monthStart := StartOfMonth(now)
	result := make([]UserWithStats, 0, len(users))
	for _, user := range users {
		row := UserWithStats{
			ID:          user.ID,
			Email:       user.Email,
			FullName:    user.FullName,
			IsActive:    user.IsActive,
			IsSuperuser: user.IsSuperuser,
			CreatedAt:   user.CreatedAt,
			UpdatedAt:   user.UpdatedAt,
		}

		if sub, err := GetUserActiveSubscription(db, user.ID, now); err == nil {
			row.ActiveSubscription = &UserActiveSubscription{
				ID:            sub.ID,
				PlanName:      sub.Plan.Name,
				EndDate:       sub.EndDate,
				PaymentStatus: sub.PaymentStatus,
			}
		}

		summary, err := userMonthSummary(db, user.ID, monthStart)
		if err != nil {
			return nil, err
		}
		row.CurrentMonthStats = summary

		result = append(result, row)
	}

	return result, nil
}

// GetUserDashboardStats kullanıcı paneli için abonelik + kullanım özetini toplar
func GetUserDashboardStats(db *gorm.DB, userID uint, now time.Time) (*UserDashboard, error) {
	user, err := GetUserByID(db, userID)
	if err != nil {
		return nil, err
	}

	dashboard := UserDashboard{User: user.Summary()}

	var activeSub *model.Subscription
	if sub, err := GetUserActiveSubscription(db, userID, now); err == nil {
		activeSub = sub
		dashboard.ActiveSubscription = &DashboardSubscription{
			ID:            sub.ID,
			PlanName:      sub.Plan.Name,
			PlanPrice:     sub.Plan.Price,
			StartDate:     sub.StartDate,
			EndDate:       sub.EndDate,
			PaymentStatus: sub.PaymentStatus,
			MaxCalls:      sub.Plan.MaxCalls,
			MaxMinutes:    sub.Plan.MaxMinutes,
		}
	}

	monthSummary, err := userMonthSummary(db, userID, StartOfMonth(now))
	if err != nil {
		return nil, err
	}
	dashboard.CurrentMonthUsage = CurrentMonthUsage{
		TotalCalls:    monthSummary.TotalCalls,
		TotalDuration: monthSummary.TotalDuration,
	}
	if activeSub != nil {
		if activeSub.Plan.MaxCalls != nil {
			remaining := int64(*activeSub.Plan.MaxCalls) - monthSummary.TotalCalls
			dashboard.CurrentMonthUsage.RemainingCalls = &remaining
		}
		if activeSub.Plan.MaxMinutes != nil {
			remaining := float64(*activeSub.Plan.MaxMinutes) - monthSummary.TotalDuration/60
			dashboard.CurrentMonthUsage.RemainingMinutes = &remaining
		}
	}

	allTime, err := userMonthSummary(db, userID, time.Time{})
	if err != nil {
		return nil, err
	}
	dashboard.AllTimeUsage = allTime

	return &dashboard, nil
}

type MonthlyCount struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Count int64 `json:"count"`
}

// MonthlyUserGrowth aylık yeni kullanıcı kayıtlarını verir
func MonthlyUserGrowth(db *gorm.DB, since time.Time) ([]MonthlyCount, error) {
	yExpr := yearExpr(db, "created_at")
	mExpr := monthExpr(db, "created_at")

	var rows []MonthlyCount
	err := db.Model(&model.User{}).
		Select(yExpr + " AS year, " + mExpr + " AS month, COUNT(id) AS count").
		Where("created_at >= ?", since).
		Group(yExpr + ", " + mExpr).
		Order(yExpr + ", " + mExpr).
		Scan(&rows).Error
	return rows, err
}
