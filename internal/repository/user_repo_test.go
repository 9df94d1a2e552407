package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avs_backend/internal/model"
)

func TestGetUserByEmail(t *testing.T) {
	db := setupTestDB(t)
	created := createTestUser(t, db, "lookup@example.com")

	user, err := GetUserByEmail(db, "lookup@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = GetUserByEmail(db, "missing@example.com")
	assert.Error(t, err)
}

func TestDeleteUserCascadeRemovesRelatedRecords(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "cascade@example.com")
	plan := createTestPlan(t, db, "Basic", 29.99, 30)
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	_, err := CreateSubscription(db, CreateSubscriptionParams{
		UserID: user.ID,
		PlanID: plan.ID,
	}, now)
	require.NoError(t, err)
	createTestCall(t, db, user.ID, "cascade-1", now, 60, model.CallStatusCompleted, model.CallTypeInbound)

	require.NoError(t, DeleteUserCascade(db, user.ID))

	_, err = GetUserByID(db, user.ID)
	assert.Error(t, err)

	subCount, err := CountSubscriptions(db)
	require.NoError(t, err)
	assert.Equal(t, int64(0), subCount)

	usageCount, err := CountUsage(db)
	require.NoError(t, err)
	assert.Equal(t, int64(0), usageCount)
}

func TestListUsersWithStatsSearch(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "ayse@example.com")
	createTestUser(t, db, "mehmet@example.com")
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	// Arama büyük/küçük harf duyarsız
	users, err := ListUsersWithStats(db, "AYSE", nil, 0, 100, now)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "ayse@example.com", users[0].Email)
	assert.Nil(t, users[0].ActiveSubscription)
}

func TestListUsersWithStatsIncludesSubscriptionAndUsage(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "stats@example.com")
	plan := createTestPlan(t, db, "Basic", 29.99, 30)
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	_, err := CreateSubscription(db, CreateSubscriptionParams{
		UserID: user.ID,
		PlanID: plan.ID,
	}, now)
	require.NoError(t, err)
	createTestCall(t, db, user.ID, "stats-1", now.AddDate(0, 0, -1), 120, model.CallStatusCompleted, model.CallTypeInbound)
	// Önceki aya ait çağrı ay içi özete girmez
	createTestCall(t, db, user.ID, "stats-2", now.AddDate(0, -1, 0), 300, model.CallStatusCompleted, model.CallTypeInbound)

	users, err := ListUsersWithStats(db, "", nil, 0, 100, now)
	require.NoError(t, err)

	require.Len(t, users, 1)
	require.NotNil(t, users[0].ActiveSubscription)
	assert.Equal(t, "Basic", users[0].ActiveSubscription.PlanName)
	assert.Equal(t, int64(1), users[0].CurrentMonthStats.TotalCalls)
	assert.Equal(t, 120.0, users[0].CurrentMonthStats.TotalDuration)
}

func TestGetUserDashboardStatsRemainingQuota(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "quota@example.com")
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	maxCalls := 100
	maxMinutes := 500
	plan := model.Plan{
		Name:         "Limited",
		Slug:         "limited",
		Price:        29.99,
		DurationDays: 30,
		MaxCalls:     &maxCalls,
		MaxMinutes:   &maxMinutes,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&plan).Error)

	_, err := CreateSubscription(db, CreateSubscriptionParams{
		UserID: user.ID,
		PlanID: plan.ID,
	}, now)
	require.NoError(t, err)

	createTestCall(t, db, user.ID, "quota-1", now.AddDate(0, 0, -2), 600, model.CallStatusCompleted, model.CallTypeInbound)
	createTestCall(t, db, user.ID, "quota-2", now.AddDate(0, 0, -1), 600, model.CallStatusCompleted, model.CallTypeInbound)

	dashboard, err := GetUserDashboardStats(db, user.ID, now)
	require.NoError(t, err)

	require.NotNil(t, dashboard.ActiveSubscription)
	assert.Equal(t, "Limited", dashboard.ActiveSubscription.PlanName)
	assert.Equal(t, int64(2), dashboard.CurrentMonthUsage.TotalCalls)
	assert.Equal(t, 1200.0, dashboard.CurrentMonthUsage.TotalDuration)
	require.NotNil(t, dashboard.CurrentMonthUsage.RemainingCalls)
	assert.Equal(t, int64(98), *dashboard.CurrentMonthUsage.RemainingCalls)
	require.NotNil(t, dashboard.CurrentMonthUsage.RemainingMinutes)
	assert.InDelta(t, 480.0, *dashboard.CurrentMonthUsage.RemainingMinutes, 0.001)
}

func TestGetUserDashboardStatsWithoutSubscription(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "nosub@example.com")
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	dashboard, err := GetUserDashboardStats(db, user.ID, now)
	require.NoError(t, err)

	assert.Nil(t, dashboard.ActiveSubscription)
	assert.Nil(t, dashboard.CurrentMonthUsage.RemainingCalls)
	assert.Nil(t, dashboard.CurrentMonthUsage.RemainingMinutes)
}

func TestMonthlyUserGrowth(t *testing.T) {
	db := setupTestDB(t)

	mayUser := model.User{Email: "may@example.com", Password: "x", IsActive: true}
	mayUser.CreatedAt = time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&mayUser).Error)

	for _, email := range []string{"june1@example.com", "june2@example.com"} {
		u := model.User{Email: email, Password: "x", IsActive: true}
		u.CreatedAt = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
		require.NoError(t, db.Create(&u).Error)
	}

	rows, err := MonthlyUserGrowth(db, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, 2025, rows[0].Year)
	assert.Equal(t, 5, rows[0].Month)
	assert.Equal(t, int64(1), rows[0].Count)
	assert.Equal(t, 6, rows[1].Month)
	assert.Equal(t, int64(2), rows[1].Count)
}
