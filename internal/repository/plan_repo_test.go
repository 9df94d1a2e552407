package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"avs_backend/internal/model"
)

func TestListActivePlansOrderedByPrice(t *testing.T) {
	db := setupTestDB(t)

	createTestPlan(t, db, "Professional", 79.99, 30)
	createTestPlan(t, db, "Starter", 9.99, 30)
	inactive := createTestPlan(t, db, "Legacy", 4.99, 30)
	require.NoError(t, SetPlanActive(db, inactive, false))

	plans, err := ListActivePlans(db)
	require.NoError(t, err)

	require.Len(t, plans, 2)
	assert.Equal(t, "Starter", plans[0].Name)
	assert.Equal(t, "Professional", plans[1].Name)
}

func TestGetPlanBySlug(t *testing.T) {
	db := setupTestDB(t)
	created := createTestPlan(t, db, "Enterprise", 199.99, 30)

	plan, err := GetPlanBySlug(db, "Enterprise")
	require.NoError(t, err)
	assert.Equal(t, created.ID, plan.ID)

	_, err = GetPlanBySlug(db, "does-not-exist")
	assert.Error(t, err)
}

func TestFeatureMapDegradesOnInvalidJSON(t *testing.T) {
	plan := model.Plan{Features: datatypes.JSON([]byte("not-json"))}
	assert.Empty(t, plan.FeatureMap())

	plan.Features = datatypes.JSON([]byte(`{"call_recording": true}`))
	features := plan.FeatureMap()
	assert.Equal(t, true, features["call_recording"])

	empty := model.Plan{}
	assert.Empty(t, empty.FeatureMap())
}

func TestCountActivePlanSubscriptions(t *testing.T) {
	db := setupTestDB(t)
	plan := createTestPlan(t, db, "Basic", 29.99, 30)
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	active := createTestUser(t, db, "plan-active@example.com")
	_, err := CreateSubscription(db, CreateSubscriptionParams{
		UserID: active.ID,
		PlanID: plan.ID,
	}, now)
	require.NoError(t, err)

	expired := createTestUser(t, db, "plan-expired@example.com")
	expiredEnd := now.AddDate(0, 0, -1)
	expiredStart := expiredEnd.AddDate(0, 0, -30)
	_, err = CreateSubscription(db, CreateSubscriptionParams{
		UserID:    expired.ID,
		PlanID:    plan.ID,
		StartDate: &expiredStart,
		EndDate:   &expiredEnd,
	}, now)
	require.NoError(t, err)

	count, err := CountActivePlanSubscriptions(db, plan.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestListPlansWithStats(t *testing.T) {
	db := setupTestDB(t)
	plan := createTestPlan(t, db, "Basic", 29.99, 30)
	user := createTestUser(t, db, "plan-stats@example.com")
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	_, err := CreateSubscription(db, CreateSubscriptionParams{
		UserID:        user.ID,
		PlanID:        plan.ID,
		PaymentStatus: model.PaymentStatusCompleted,
		PaymentAmount: 29.99,
	}, now)
	require.NoError(t, err)

	plans, err := ListPlansWithStats(db, now)
	require.NoError(t, err)

	require.Len(t, plans, 1)
	assert.Equal(t, int64(1), plans[0].Stats.TotalSubscriptions)
	assert.Equal(t, int64(1), plans[0].Stats.ActiveSubscriptions)
	assert.InDelta(t, 29.99, plans[0].Stats.TotalRevenue, 0.001)
}

func TestListPopularPlansRanking(t *testing.T) {
	db := setupTestDB(t)
	basic := createTestPlan(t, db, "Basic", 29.99, 30)
	pro := createTestPlan(t, db, "Professional", 79.99, 30)
	createTestPlan(t, db, "Empty", 9.99, 30)
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	for i, email := range []string{"p1@example.com", "p2@example.com", "p3@example.com"} {
		user := createTestUser(t, db, email)
		planID := pro.ID
		if i == 2 {
			planID = basic.ID
		}
		_, err := CreateSubscription(db, CreateSubscriptionParams{
			UserID: user.ID,
			PlanID: planID,
		}, now)
		require.NoError(t, err)
	}

	popular, err := ListPopularPlans(db, 5, now)
	require.NoError(t, err)

	// Abonelik almamış plan listede yer almaz
	require.Len(t, popular, 2)
	assert.Equal(t, "Professional", popular[0].Name)
	assert.Equal(t, int64(2), popular[0].ActiveSubscriptions)
	assert.Equal(t, "Basic", popular[1].Name)
	assert.NotNil(t, popular[0].Features)
}

func TestDeletePlanHardRemovesRecord(t *testing.T) {
	db := setupTestDB(t)
	plan := createTestPlan(t, db, "Temp", 5.0, 30)

	require.NoError(t, DeletePlanHard(db, plan.ID))

	_, err := GetPlanByID(db, plan.ID)
	assert.Error(t, err)

	// Soft delete kalıntısı olmamalı
	count, err := CountPlans(db)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
