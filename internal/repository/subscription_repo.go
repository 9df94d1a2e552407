package repository

import (
	"time"

	"gorm.io/gorm"

	"avs_backend/internal/model"
)

type CreateSubscriptionParams struct {
	UserID        uint
	PlanID        uint
	StartDate     *time.Time
	EndDate       *time.Time
	IsActive      *bool
	PaymentStatus string
	PaymentAmount float64
	PaymentMethod string
	PaymentID     string
}

type SubscriptionFilters struct {
	UserEmail     string
	PlanName      string
	PaymentStatus string
	IsActive      *bool
	StartDate     *time.Time
	EndDate       *time.Time
}

type SubscriptionUser struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type SubscriptionPlan struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	DurationDays int     `json:"duration_days"`
	MaxCalls     *int    `json:"max_calls"`
	MaxMinutes   *int    `json:"max_minutes"`
}

type SubscriptionDetail struct {
	ID            uint             `json:"id"`
	StartDate     time.Time        `json:"start_date"`
	EndDate       time.Time        `json:"end_date"`
	IsActive      bool             `json:"is_active"`
	PaymentStatus string           `json:"payment_status"`
	PaymentAmount float64          `json:"payment_amount"`
	PaymentMethod string           `json:"payment_method"`
	PaymentID     string           `json:"payment_id"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	User          SubscriptionUser `json:"user"`
	Plan          SubscriptionPlan `json:"plan"`
	IsExpired     bool             `json:"is_expired"`
	DaysRemaining int              `json:"days_remaining"`
}

type PlanRevenue struct {
	Count   int64   `json:"count"`
	Revenue float64 `json:"revenue"`
}

type RevenueStats struct {
	TotalRevenue                  float64                `json:"total_revenue"`
	TotalSubscriptions            int64                  `json:"total_subscriptions"`
	AverageRevenuePerSubscription float64                `json:"average_revenue_per_subscription"`
	PlanBreakdown                 map[string]PlanRevenue `json:"plan_breakdown"`
}

type SubscriptionAnalytics struct {
	TotalSubscriptions   int64   `json:"total_subscriptions"`
	ActiveSubscriptions  int64   `json:"active_subscriptions"`
	ExpiredSubscriptions int64   `json:"expired_subscriptions"`
	MonthlyRevenue       float64 `json:"monthly_revenue"`
	TotalRevenue         float64 `json:"total_revenue"`
	ConversionRate       float64 `json:"conversion_rate"`
}

type PaymentMethodStat struct {
	PaymentMethod    string  `json:"payment_method"`
	TransactionCount int64   `json:"transaction_count"`
	TotalAmount      float64 `json:"total_amount"`
}

type MonthlyRevenue struct {
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	Count   int64   `json:"count"`
	Revenue float64 `json:"revenue"`
}

// CreateSubscription abonelik oluşturur; end_date verilmediyse plan süresinden türetilir
func CreateSubscription(db *gorm.DB, params CreateSubscriptionParams, now time.Time) (*model.Subscription, error) {
	plan, err := GetPlanByID(db, params.PlanID)
	if err != nil {
		return nil, err
	}

	startDate := now
	if params.StartDate != nil {
		startDate = *params.StartDate
	}
	endDate := startDate.AddDate(0, 0, plan.DurationDays)
	if params.EndDate != nil {
		endDate = *params.EndDate
	}
	isActive := true
	if params.IsActive != nil {
		isActive = *params.IsActive
	}
	paymentStatus := params.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = model.PaymentStatusPending
	}

	subscription := model.Subscription{
		UserID:        params.UserID,
		PlanID:        params.PlanID,
		StartDate:     startDate,
		EndDate:       endDate,
		IsActive:      isActive,
		PaymentStatus: paymentStatus,
		PaymentAmount: params.PaymentAmount,
		PaymentMethod: params.PaymentMethod,
		PaymentID:     params.PaymentID,
	}
	if err := db.Create(&subscription).Error; err != nil {
		return nil, err
	}
	return &subscription, nil
}

func GetSubscriptionByID(db *gorm.DB, id uint) (*model.Subscription, error) {
	var subscription model.Subscription
	if err := db.Preload("User").Preload("Plan").First(&subscription, id).Error; err != nil {
		return nil, err
	}
	return &subscription, nil
}

// GetUserActiveSubscription kullanıcının efektif-aktif aboneliğini getirir
func GetUserActiveSubscription(db *gorm.DB, userID uint, now time.Time) (*model.Subscription, error) {
	var subscription model.Subscription
	err := db.Where("user_id = ? AND is_active = ? AND end_date > ?", userID, true, now).
		Preload("Plan").
		First(&subscription).Error
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

func ListUserSubscriptions(db *gorm.DB, userID uint, skip, limit int) ([]model.Subscription, error) {
	var subscriptions []model.Subscription
	err := db.Where("user_id = ?", userID).
		Preload("Plan").
		Order("created_at DESC").
		Offset(skip).Limit(limit).
		Find(&subscriptions).Error
	return subscriptions, err
}

func CountSubscriptions(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&model.Subscription{}).Count(&count).Error
	return count, err
}

func CountActiveSubscriptions(db *gorm.DB, now time.Time) (int64, error) {
	var count int64
	err := db.Model(&model.Subscription{}).
		Where("is_active = ? AND end_date > ?", true, now).
		Count(&count).Error
	return count, err
}

// ListSubscriptionsWithDetails kullanıcı ve plan bilgisiyle filtreli listeleme
func ListSubscriptionsWithDetails(db *gorm.DB, filters SubscriptionFilters, skip, limit int, now time.Time) ([]SubscriptionDetail, error) {
	query := db.Model(&model.Subscription{}).
		Joins("JOIN users ON users.id = subscriptions.user_id").
		Joins("JOIN plans ON plans.id = subscriptions.plan_id")

	if filters.UserEmail != "" {
		query = query.Where("LOWER(users.email) LIKE ?", containsPattern(filters.UserEmail))
	}
	if filters.PlanName != "" {
		query = query.Where("LOWER(plans.name) LIKE ?", containsPattern(filters.PlanName))
	}
	if filters.PaymentStatus != "" {
		query = query.Where("subscriptions.payment_status = ?", filters.PaymentStatus)
	}
	if filters.IsActive != nil {
		if *filters.IsActive {
			query = query.Where("subscriptions.is_active = ? AND subscriptions.end_date > ?", true, now)
		} else {
			query = query.Where("subscriptions.is_active = ? OR subscriptions.end_date <= ?", false, now)
		}
	}
	if filters.StartDate != nil {
		query = query.Where("subscriptions.created_at >= ?", *filters.StartDate)
	}
	if filters.EndDate != nil {
		query = query.Where("subscriptions.created_at <= ?", *filters.EndDate)
	}

	var subscriptions []model.Subscription
	err := query.Order("subscriptions.created_at DESC").
		Offset(skip).Limit(limit).
		Preload("User").Preload("Plan").
		Find(&subscriptions).Error
	if err != nil {
		return nil, err
	}

	result := make([]SubscriptionDetail, 0, len(subscriptions))
	for _, sub := range subscriptions {
		result = append(result, SubscriptionDetail{
			ID:            sub.ID,
			StartDate:     sub.StartDate,
			EndDate:       sub.EndDate,
			IsActive:      sub.IsActive,
			PaymentStatus: sub.PaymentStatus,
			PaymentAmount: sub.PaymentAmount,
			PaymentMethod: sub.PaymentMethod,
			PaymentID:     sub.PaymentID,
			CreatedAt:     sub.CreatedAt,
			UpdatedAt:     sub.UpdatedAt,
			User: SubscriptionUser{
				ID:       sub.User.ID,
				Email:    sub.User.Email,
				FullName: sub.User.FullName,
			},
			Plan: SubscriptionPlan{
				ID:           sub.Plan.ID,
				Name:         sub.Plan.Name,
				Price:        sub.Plan.Price,
				DurationDays: sub.Plan.DurationDays,
				MaxCalls:     sub.Plan.MaxCalls,
				MaxMinutes:   sub.Plan.MaxMinutes,
			},
			IsExpired:     sub.IsExpired(now),
			DaysRemaining: sub.DaysRemaining(now),
		})
	}

	return result, nil
}

// ListExpiringSubscriptions yakında sona erecek efektif-aktif abonelikler, en yakın önce
func ListExpiringSubscriptions(db *gorm.DB, daysAhead, limit int, now time.Time) ([]model.Subscription, error) {
	expiryDate := now.AddDate(0, 0, daysAhead)
	var subscriptions []model.Subscription
	err := db.Where("is_active = ? AND end_date > ? AND end_date <= ?", true, now, expiryDate).
		Preload("User").Preload("Plan").
		Order("end_date").
		Limit(limit).
		Find(&subscriptions).Error
	return subscriptions, err
}

// CancelSubscription idempotent: zaten iptal edilmiş abonelikte no-op
func CancelSubscription(db *gorm.DB, subscription *model.Subscription) error {
	if !subscription.IsActive {
		return nil
	}
	return db.Model(subscription).Update("is_active", false).Error
}

// RenewSubscription bitiş tarihini max(end_date, now)'dan plan süresi kadar uzatır
func RenewSubscription(db *gorm.DB, id uint, paymentAmount float64, paymentID string, now time.Time) (*model.Subscription, error) {
	var subscription model.Subscription
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Plan").First(&subscription, id).Error; err != nil {
			return err
		}

		newStart := subscription.EndDate
		if now.After(newStart) {
			newStart = now
		}

		return tx.Model(&subscription).Updates(map[string]interface{}{
			"end_date":       newStart.AddDate(0, 0, subscription.Plan.DurationDays),
			"is_active":      true,
			"payment_status": model.PaymentStatusCompleted,
			"payment_amount": paymentAmount,
			"payment_id":     paymentID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

func UpdateSubscription(db *gorm.DB, subscription *model.Subscription, updates map[string]interface{}) error {
	return db.Model(subscription).Updates(updates).Error
}

// GetRevenueStats tamamlanmış ödemeler üzerinden tarih aralıklı gelir özeti
func GetRevenueStats(db *gorm.DB, startDate, endDate *time.Time) (*RevenueStats, error) {
	buildQuery := func() *gorm.DB {
		query := db.Model(&model.Subscription{}).
			Where("subscriptions.payment_status = ?", model.PaymentStatusCompleted)
		if startDate != nil {
			query = query.Where("subscriptions.created_at >= ?", *startDate)
		}
		if endDate != nil {
			query = query.Where("subscriptions.created_at <= ?", *endDate)
		}
		return query
	}

	var totals struct {
		TotalRevenue       float64
		TotalSubscriptions int64
	}
	err := buildQuery().
		Select("COALESCE(SUM(payment_amount), 0) AS total_revenue, COUNT(id) AS total_subscriptions").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	stats := RevenueStats{
		TotalRevenue:       totals.TotalRevenue,
		TotalSubscriptions: totals.TotalSubscriptions,
		PlanBreakdown:      map[string]PlanRevenue{},
	}
	if totals.TotalSubscriptions > 0 {
		stats.AverageRevenuePerSubscription = totals.TotalRevenue / float64(totals.TotalSubscriptions)
	}

	var breakdown []struct {
		PlanName string
		Count    int64
		Revenue  float64
	}
	err = buildQuery().
		Select("plans.name AS plan_name, COUNT(subscriptions.id) AS count, COALESCE(SUM(subscriptions.payment_amount), 0) AS revenue").
		Joins("JOIN plans ON plans.id = subscriptions.plan_id").
		Group("plans.name").
		Scan(&breakdown).Error
	if err != nil {
		return nil, err
	}
	for _, row := range breakdown {
		stats.PlanBreakdown[row.PlanName] = PlanRevenue{Count: row.Count, Revenue: row.Revenue}
	}

	return &stats, nil
}

// GetSubscriptionAnalytics genel abonelik metrikleri
func GetSubscriptionAnalytics(db *gorm.DB, now time.Time) (*SubscriptionAnalytics, error) {
	analytics := SubscriptionAnalytics{}

	total, err := CountSubscriptions(db)
	if err != nil {
		return nil, err
	}
	analytics.TotalSubscriptions = total

	active, err := CountActiveSubscriptions(db, now)
	if err != nil {
		return nil, err
	}
	analytics.ActiveSubscriptions = active

	err = db.Model(&model.Subscription{}).
		Where("is_active = ? OR end_date <= ?", false, now).
		Count(&analytics.ExpiredSubscriptions).Error
	if err != nil {
		return nil, err
	}

	var monthly struct{ Total float64 }
	err = db.Model(&model.Subscription{}).
		Select("COALESCE(SUM(payment_amount), 0) AS total").
		Where("payment_status = ? AND created_at >= ?", model.PaymentStatusCompleted, StartOfMonth(now)).
		Scan(&monthly).Error
	if err != nil {
		return nil, err
	}
	analytics.MonthlyRevenue = monthly.Total

	var totalRevenue struct{ Total float64 }
	err = db.Model(&model.Subscription{}).
		Select("COALESCE(SUM(payment_amount), 0) AS total").
		Where("payment_status = ?", model.PaymentStatusCompleted).
		Scan(&totalRevenue).Error
	if err != nil {
		return nil, err
	}
	analytics.TotalRevenue = totalRevenue.Total

	if analytics.TotalSubscriptions > 0 {
		analytics.ConversionRate = float64(analytics.ActiveSubscriptions) / float64(analytics.TotalSubscriptions) * 100
	}

	return &analytics, nil
}

// GetPaymentMethodStats tamamlanmış ödemelerin yöntem bazında dağılımı
func GetPaymentMethodStats(db *gorm.DB) ([]PaymentMethodStat, error) {
	var rows []struct {
		PaymentMethod string
		Count         int64
		TotalAmount   float64
	}
	err := db.Model(&model.Subscription{}).
		Select("payment_method, COUNT(id) AS count, COALESCE(SUM(payment_amount), 0) AS total_amount").
		Where("payment_status = ?", model.PaymentStatusCompleted).
		Group("payment_method").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]PaymentMethodStat, 0, len(rows))
	for _, row := range rows {
		method := row.PaymentMethod
		if method == "" {
			method = "Unknown"
		}
		result = append(result, PaymentMethodStat{
			PaymentMethod:    method,
			TransactionCount: row.Count,
			TotalAmount:      row.TotalAmount,
		})
	}
	return result, nil
}

// MonthlySubscriptionGrowth tamamlanmış ödemeli aboneliklerin aylık adet/gelir serisi
func MonthlySubscriptionGrowth(db *gorm.DB, since time.Time) ([]MonthlyRevenue, error) {
	yExpr := yearExpr(db, "created_at")
	mExpr := monthExpr(db, "created_at")

	var rows []MonthlyRevenue
	err := db.Model(&model.Subscription{}).
		Select(yExpr+" AS year, "+mExpr+" AS month, COUNT(id) AS count, COALESCE(SUM(payment_amount), 0) AS revenue").
		Where("created_at >= ? AND payment_status = ?", since, model.PaymentStatusCompleted).
		Group(yExpr + ", " + mExpr).
		Order(yExpr + ", " + mExpr).
		Scan(&rows).Error
	return rows, err
}
