package controller_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"avs_backend/internal/model"
)

func createLimitedPlanSubscription(t *testing.T, db *gorm.DB, userID uint, maxCalls, maxMinutes int, endDate time.Time) {
	t.Helper()

	plan := model.Plan{
		Name:         fmt.Sprintf("Limited-%d", userID),
		Slug:         fmt.Sprintf("limited-%d", userID),
		Price:        29.99,
		DurationDays: 30,
		MaxCalls:     &maxCalls,
		MaxMinutes:   &maxMinutes,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&plan).Error)

	sub := model.Subscription{
		UserID:        userID,
		PlanID:        plan.ID,
		StartDate:     endDate.AddDate(0, 0, -30),
		EndDate:       endDate,
		IsActive:      true,
		PaymentStatus: model.PaymentStatusCompleted,
		PaymentAmount: 29.99,
	}
	require.NoError(t, db.Create(&sub).Error)
}

func createMonthCalls(t *testing.T, db *gorm.DB, userID uint, count int, durationSec float64) {
	t.Helper()

	for i := 0; i < count; i++ {
		d := durationSec
		start := time.Now().Add(-time.Duration(i+1) * time.Minute)
		end := start.Add(time.Duration(durationSec) * time.Second)
		usage := model.Usage{
			UserID:            userID,
			CallID:            fmt.Sprintf("warn-%d-%d", userID, i),
			StartTime:         start,
			EndTime:           &end,
			Duration:          &d,
			Status:            model.CallStatusCompleted,
			CallerNumber:      "+905551112233",
			DestinationNumber: "+905554445566",
			CallType:          model.CallTypeInbound,
		}
		require.NoError(t, db.Create(&usage).Error)
	}
}

func collectWarnings(t *testing.T, body map[string]interface{}) map[string]string {
	t.Helper()

	raw, ok := body["warnings"].([]interface{})
	require.True(t, ok)

	warnings := map[string]string{}
	for _, item := range raw {
		entry := item.(map[string]interface{})
		warnings[entry["type"].(string)] = entry["severity"].(string)
	}
	return warnings
}

func TestUserDashboardCallLimitWarning(t *testing.T) {
	app, db := setupTestApp(t)
	user, userToken := createUser(t, db, "warned@example.com", false)

	// 10 çağrı limitinin 9'u kullanılmış, bitiş uzak
	createLimitedPlanSubscription(t, db, user.ID, 10, 10000, time.Now().AddDate(0, 0, 20))
	createMonthCalls(t, db, user.ID, 9, 10)

	resp := doRequest(t, app, "GET", "/api/v1/dashboard/user", userToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)

	warnings := collectWarnings(t, body)
	assert.Equal(t, "medium", warnings["call_limit"])
	assert.NotContains(t, warnings, "minute_limit")
	assert.NotContains(t, warnings, "subscription_expiry")
}

func TestUserDashboardMinuteLimitHighWarning(t *testing.T) {
	app, db := setupTestApp(t)
	user, userToken := createUser(t, db, "minutes@example.com", false)

	// 100 dakika limitinin 96 dakikası tek çağrıda tüketilmiş
	createLimitedPlanSubscription(t, db, user.ID, 1000, 100, time.Now().AddDate(0, 0, 20))
	createMonthCalls(t, db, user.ID, 1, 96*60)

	resp := doRequest(t, app, "GET", "/api/v1/dashboard/user", userToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)

	warnings := collectWarnings(t, body)
	assert.Equal(t, "high", warnings["minute_limit"])
}

func TestUserDashboardExpiryWarningSeverity(t *testing.T) {
	app, db := setupTestApp(t)
	user, userToken := createUser(t, db, "expiring@example.com", false)

	createLimitedPlanSubscription(t, db, user.ID, 1000, 10000, time.Now().AddDate(0, 0, 2))

	resp := doRequest(t, app, "GET", "/api/v1/dashboard/user", userToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)

	warnings := collectWarnings(t, body)
	assert.Equal(t, "high", warnings["subscription_expiry"])
}

func TestUserDashboardNoWarningsWithoutSubscription(t *testing.T) {
	app, db := setupTestApp(t)
	_, userToken := createUser(t, db, "calm@example.com", false)

	resp := doRequest(t, app, "GET", "/api/v1/dashboard/user", userToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)

	warnings := collectWarnings(t, body)
	assert.Empty(t, warnings)
	assert.Nil(t, body["active_subscription"])
}

func TestAdminDashboardRequiresAdmin(t *testing.T) {
	app, db := setupTestApp(t)
	_, userToken := createUser(t, db, "user@example.com", false)
	_, adminToken := createUser(t, db, "admin@example.com", true)

	resp := doRequest(t, app, "GET", "/api/v1/dashboard/admin", userToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doRequest(t, app, "GET", "/api/v1/dashboard/admin", adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)

	overview, ok := body["overview"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), overview["total_users"])
	assert.Contains(t, body, "subscription_analytics")
	assert.Contains(t, body, "usage_analytics")
	assert.Contains(t, body, "recent_activity")
	assert.Contains(t, body, "alerts")
}

func TestStatsOverviewAndGrowth(t *testing.T) {
	app, db := setupTestApp(t)
	_, adminToken := createUser(t, db, "admin@example.com", true)

	resp := doRequest(t, app, "GET", "/api/v1/stats/overview", adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(1), body["total_users"])

	resp = doRequest(t, app, "GET", "/api/v1/stats/growth", adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Contains(t, body, "user_growth")
	assert.Contains(t, body, "subscription_growth")
	assert.Contains(t, body, "usage_growth")
}
