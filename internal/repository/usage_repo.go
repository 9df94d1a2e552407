package repository

import (
	"math"
	"time"

	"gorm.io/gorm"

	"avs_backend/internal/model"
)

type UsageFilters struct {
	UserEmail  string
	CallStatus string
	CallType   string
	StartDate  *time.Time
	EndDate    *time.Time
}

type UsageDetail struct {
	ID                uint             `json:"id"`
	CallID            string           `json:"call_id"`
	StartTime         time.Time        `json:"start_time"`
	EndTime           *time.Time       `json:"end_time"`
	Duration          *float64         `json:"duration"`
	Status            string           `json:"status"`
	CallerNumber      string           `json:"caller_number"`
	DestinationNumber string           `json:"destination_number"`
	CallType          string           `json:"call_type"`
	CallSummary       string           `json:"call_summary"`
	RecordingURL      string           `json:"recording_url"`
	CreatedAt         time.Time        `json:"created_at"`
	User              SubscriptionUser `json:"user"`
	DurationMinutes   float64          `json:"duration_minutes"`
}

type CallTypeStats struct {
	Count           int64   `json:"count"`
	Duration        float64 `json:"duration"`
	DurationMinutes float64 `json:"duration_minutes"`
}

type MonthlyUsageStats struct {
	Year                 int                      `json:"year"`
	Month                int                      `json:"month"`
	TotalCalls           int64                    `json:"total_calls"`
	TotalDuration        float64                  `json:"total_duration"`
	TotalDurationMinutes float64                  `json:"total_duration_minutes"`
	AvgDuration          float64                  `json:"avg_duration"`
	AvgDurationMinutes   float64                  `json:"avg_duration_minutes"`
	UniqueCallers        int64                    `json:"unique_callers"`
	CallTypeBreakdown    map[string]CallTypeStats `json:"call_type_breakdown"`
	StatusBreakdown      map[string]int64         `json:"status_breakdown"`
}

type OverallUsage struct {
	TotalCalls         int64   `json:"total_calls"`
	TotalDuration      float64 `json:"total_duration"`
	TotalDurationHours float64 `json:"total_duration_hours"`
	AvgDuration        float64 `json:"avg_duration"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`
	ActiveUsers        int64   `json:"active_users"`
}

type DailyVolume struct {
	Date          string  `json:"date"`
	Calls         int64   `json:"calls"`
	Duration      float64 `json:"duration"`
	DurationHours float64 `json:"duration_hours"`
}

type HourlyCalls struct {
	Hour  int   `json:"hour"`
	Calls int64 `json:"calls"`
}

type TopUser struct {
	Email              string  `json:"email"`
	FullName           string  `json:"full_name"`
	TotalCalls         int64   `json:"total_calls"`
	TotalDuration      float64 `json:"total_duration"`
	TotalDurationHours float64 `json:"total_duration_hours"`
}

type SystemUsageAnalytics struct {
	Overall            OverallUsage  `json:"overall"`
	DailyVolume        []DailyVolume `json:"daily_volume"`
	HourlyDistribution []HourlyCalls `json:"hourly_distribution"`
	TopUsers           []TopUser     `json:"top_users"`
}

type MonthlyCallVolume struct {
	Year          int     `json:"year"`
	Month         int     `json:"month"`
	Calls         int64   `json:"calls"`
	DurationHours float64 `json:"duration_hours"`
}

func roundTwo(value float64) float64 {
	return math.Round(value*100) / 100
}

func CreateUsage(db *gorm.DB, usage *model.Usage) error {
	return db.Create(usage).Error
}

func GetUsageByID(db *gorm.DB, id uint) (*model.Usage, error) {
	var usage model.Usage
	if err := db.First(&usage, id).Error; err != nil {
		return nil, err
	}
	return &usage, nil
}

func GetUsageByCallID(db *gorm.DB, callID string) (*model.Usage, error) {
	var usage model.Usage
	if err := db.Where("call_id = ?", callID).First(&usage).Error; err != nil {
		return nil, err
	}
	return &usage, nil
}

func CountUsage(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&model.Usage{}).Count(&count).Error
	return count, err
}

func UpdateUsage(db *gorm.DB, usage *model.Usage, updates map[string]interface{}) error {
	return db.Model(usage).Updates(updates).Error
}

func DeleteUsageHard(db *gorm.DB, id uint) error {
	return db.Unscoped().Delete(&model.Usage{}, id).Error
}

// ListUserUsage kullanıcının çağrı kayıtlarını tarih aralığı filtresiyle listeler
func ListUserUsage(db *gorm.DB, userID uint, skip, limit int, startDate, endDate *time.Time) ([]model.Usage, error) {
	query := db.Where("user_id = ?", userID)
	if startDate != nil {
		query = query.Where("start_time >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("start_time <= ?", *endDate)
	}

	var records []model.Usage
	err := query.Order("start_time DESC").Offset(skip).Limit(limit).Find(&records).Error
	return records, err
}

// ListUsageWithDetails çağrı kayıtlarını kullanıcı bilgisiyle filtreli listeler
func ListUsageWithDetails(db *gorm.DB, filters UsageFilters, skip, limit int) ([]UsageDetail, error) {
	query := db.Model(&model.Usage{}).
		Joins("JOIN users ON users.id = usages.user_id")

	if filters.UserEmail != "" {
		query = query.Where("LOWER(users.email) LIKE ?", containsPattern(filters.UserEmail))
	}
	if filters.CallStatus != "" {
		query = query.Where("usages.status = ?", filters.CallStatus)
	}
	if filters.CallType != "" {
		query = query.Where("usages.call_type = ?", filters.CallType)
	}
	if filters.StartDate != nil {
		query = query.Where("usages.start_time >= ?", *filters.StartDate)
	}
	if filters.EndDate != nil {
		query = query.Where("usages.start_time <= ?", *filters.EndDate)
	}

	var records []model.Usage
	err := query.Order("usages.start_time DESC").
		Offset(skip).Limit(limit).
		Preload("User").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	result := make([]UsageDetail, 0, len(records))
	for _, usage := range records {
		result = append(result, UsageDetail{
			ID:                usage.ID,
			CallID:            usage.CallID,
			StartTime:         usage.StartTime,
			EndTime:           usage.EndTime,
			Duration:          usage.Duration,
			Status:            usage.Status,
			CallerNumber:      usage.CallerNumber,
			DestinationNumber: usage.DestinationNumber,
			CallType:          usage.CallType,
			CallSummary:       usage.CallSummary,
			RecordingURL:      usage.RecordingURL,
			CreatedAt:         usage.CreatedAt,
			User: SubscriptionUser{
				ID:       usage.User.ID,
				Email:    usage.User.Email,
				FullName: usage.User.FullName,
			},
			DurationMinutes: usage.DurationMinutes(),
		})
	}

	return result, nil
}

// GetUserMonthlyUsage [ay başı, sonraki ay başı) penceresinde kullanım istatistikleri.
// Hiç kayıt yoksa sıfır değerler ve boş breakdown map'leri döner.
func GetUserMonthlyUsage(db *gorm.DB, userID uint, year, month int) (*MonthlyUsageStats, error) {
	// Kayıtlar time.Now() ile yerel saatte damgalanır, pencere de aynı konumda kurulur
	windowStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	windowEnd := windowStart.AddDate(0, 1, 0)

	var totals struct {
		TotalCalls    int64
		TotalDuration float64
		AvgDuration   float64
		UniqueCallers int64
	}
	err := db.Model(&model.Usage{}).
		Select("COUNT(id) AS total_calls, COALESCE(SUM(duration), 0) AS total_duration, "+
			"COALESCE(AVG(duration), 0) AS avg_duration, COUNT(DISTINCT caller_number) AS unique_callers").
		Where("user_id = ? AND start_time >= ? AND start_time < ?", userID, windowStart, windowEnd).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	stats := MonthlyUsageStats{
		Year:                 year,
		Month:                month,
		TotalCalls:           totals.TotalCalls,
		TotalDuration:        totals.TotalDuration,
		TotalDurationMinutes: roundTwo(totals.TotalDuration / 60),
		AvgDuration:          totals.AvgDuration,
		AvgDurationMinutes:   roundTwo(totals.AvgDuration / 60),
		UniqueCallers:        totals.UniqueCallers,
		CallTypeBreakdown:    map[string]CallTypeStats{},
		StatusBreakdown:      map[string]int64{},
	}

	var callTypes []struct {
		CallType string
		Count    int64
		Duration float64
	}
	err = db.Model(&model.Usage{}).
		Select("call_type, COUNT(id) AS count, COALESCE(SUM(duration), 0) AS duration").
		Where("user_id = ? AND start_time >= ? AND start_time < ?", userID, windowStart, windowEnd).
		Group("call_type").
		Scan(&callTypes).Error
	if err != nil {
		return nil, err
	}
	for _, row := range callTypes {
		stats.CallTypeBreakdown[row.CallType] = CallTypeStats{
			Count:           row.Count,
			Duration:        row.Duration,
			DurationMinutes: roundTwo(row.Duration / 60),
		}
	}

	var statuses []struct {
		Status string
		Count  int64
	}
	err = db.Model(&model.Usage{}).
		Select("status, COUNT(id) AS count").
		Where("user_id = ? AND start_time >= ? AND start_time < ?", userID, windowStart, windowEnd).
		Group("status").
		Scan(&statuses).Error
	if err != nil {
		return nil, err
	}
	for _, row := range statuses {
		stats.StatusBreakdown[row.Status] = row.Count
	}

	return &stats, nil
}

// GetSystemUsageAnalytics sistem geneli kullanım analitiği; pencere verilmezse tüm zamanlar
func GetSystemUsageAnalytics(db *gorm.DB, startDate, endDate *time.Time, now time.Time) (*SystemUsageAnalytics, error) {
	windowed := func() *gorm.DB {
		query := db.Model(&model.Usage{})
		if startDate != nil {
			query = query.Where("start_time >= ?", *startDate)
		}
		if endDate != nil {
			query = query.Where("start_time <= ?", *endDate)
		}
		return query
	}

	var overall struct {
		TotalCalls    int64
		TotalDuration float64
		AvgDuration   float64
		ActiveUsers   int64
	}
	err := windowed().
		Select("COUNT(id) AS total_calls, COALESCE(SUM(duration), 0) AS total_duration, " +
			"COALESCE(AVG(duration), 0) AS avg_duration, COUNT(DISTINCT user_id) AS active_users").
		Scan(&overall).Error
	if err != nil {
		return nil, err
	}

	analytics := SystemUsageAnalytics{
		Overall: OverallUsage{
			TotalCalls:         overall.TotalCalls,
			TotalDuration:      overall.TotalDuration,
			TotalDurationHours: roundTwo(overall.TotalDuration / 3600),
			AvgDuration:        overall.AvgDuration,
			AvgDurationMinutes: roundTwo(overall.AvgDuration / 60),
			ActiveUsers:        overall.ActiveUsers,
		},
		DailyVolume:        []DailyVolume{},
		HourlyDistribution: []HourlyCalls{},
		TopUsers:           []TopUser{},
	}

	// Son 30 günün günlük serisi
	dExpr := dateExpr(db, "start_time")
	thirtyDaysAgo := now.AddDate(0, 0, -30)
	var daily []struct {
		Date     string
		Calls    int64
		Duration float64
	}
	err = db.Model(&model.Usage{}).
		Select(dExpr+" AS date, COUNT(id) AS calls, COALESCE(SUM(duration), 0) AS duration").
		Where("start_time >= ?", thirtyDaysAgo).
		Group(dExpr).
		Order(dExpr).
		Scan(&daily).Error
	if err != nil {
		return nil, err
	}
	for _, row := range daily {
		analytics.DailyVolume = append(analytics.DailyVolume, DailyVolume{
			Date:          row.Date,
			Calls:         row.Calls,
			Duration:      row.Duration,
			DurationHours: roundTwo(row.Duration / 3600),
		})
	}

	hExpr := hourExpr(db, "start_time")
	var hourly []HourlyCalls
	err = db.Model(&model.Usage{}).
		Select(hExpr + " AS hour, COUNT(id) AS calls").
		Group(hExpr).
		Order(hExpr).
		Scan(&hourly).Error
	if err != nil {
		return nil, err
	}
	analytics.HourlyDistribution = hourly
	if analytics.HourlyDistribution == nil {
		analytics.HourlyDistribution = []HourlyCalls{}
	}

	var topUsers []struct {
		Email         string
		FullName      string
		TotalCalls    int64
		TotalDuration float64
	}
	err = db.Model(&model.Usage{}).
		Select("users.email, users.full_name, COUNT(usages.id) AS total_calls, COALESCE(SUM(usages.duration), 0) AS total_duration").
		Joins("JOIN users ON users.id = usages.user_id").
		Group("users.id, users.email, users.full_name").
		Order("total_calls DESC").
		Limit(10).
		Scan(&topUsers).Error
	if err != nil {
		return nil, err
	}
	for _, row := range topUsers {
		analytics.TopUsers = append(analytics.TopUsers, TopUser{
			Email:              row.Email,
			FullName:           row.FullName,
			TotalCalls:         row.TotalCalls,
			TotalDuration:      row.TotalDuration,
			TotalDurationHours: roundTwo(row.TotalDuration / 3600),
		})
	}

	return &analytics, nil
}

// EndCall çağrı bitişini tek adımda işler: bitiş zamanı, süre ve terminal durum birlikte yazılır
func EndCall(db *gorm.DB, callID string, endTime time.Time, duration float64, status string) (*model.Usage, error) {
	var usage model.Usage
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("call_id = ?", callID).First(&usage).Error; err != nil {
			return err
		}
		return tx.Model(&usage).Updates(map[string]interface{}{
			"end_time": endTime,
			"duration": duration,
			"status":   status,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

// ListActiveCalls bitişi olmayan, initiated/connected durumundaki çağrılar
func ListActiveCalls(db *gorm.DB) ([]model.Usage, error) {
	var calls []model.Usage
	err := db.Where("end_time IS NULL AND status IN ?", []string{model.CallStatusInitiated, model.CallStatusConnected}).
		Order("start_time DESC").
		Find(&calls).Error
	return calls, err
}

// MonthlyUsageGrowth aylık çağrı hacmi serisi
func MonthlyUsageGrowth(db *gorm.DB, since time.Time) ([]MonthlyCallVolume, error) {
	yExpr := yearExpr(db, "start_time")
	mExpr := monthExpr(db, "start_time")

	var rows []struct {
		Year     int
		Month    int
		Calls    int64
		Duration float64
	}
	err := db.Model(&model.Usage{}).
		Select(yExpr + " AS year, " + mExpr + " AS month, COUNT(id) AS calls, COALESCE(SUM(duration), 0) AS duration").
		Where("start_time >= ?", since).
		Group(yExpr + ", " + mExpr).
		Order(yExpr + ", " + mExpr).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]MonthlyCallVolume, 0, len(rows))
	for _, row := range rows {
		result = append(result, MonthlyCallVolume{
			Year:          row.Year,
			Month:         row.Month,
			Calls:         row.Calls,
			DurationHours: roundTwo(row.Duration / 3600),
		})
	}
	return result, nil
}
