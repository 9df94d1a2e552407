package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"avs_backend/internal/model"
)

func createTestCall(t *testing.T, db *gorm.DB, userID uint, callID string, startTime time.Time, durationSec float64, status, callType string) *model.Usage {
	t.Helper()

	usage := model.Usage{
		UserID:            userID,
		CallID:            callID,
		StartTime:         startTime,
		Status:            status,
		CallerNumber:      "+905551112233",
		DestinationNumber: "+905554445566",
		CallType:          callType,
	}
	if status == model.CallStatusCompleted || status == model.CallStatusFailed || status == model.CallStatusBusy {
		endTime := startTime.Add(time.Duration(durationSec) * time.Second)
		usage.EndTime = &endTime
		usage.Duration = &durationSec
	}
	require.NoError(t, CreateUsage(db, &usage))
	return &usage
}

func TestGetUserMonthlyUsageEmptyMonth(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "empty@example.com")

	stats, err := GetUserMonthlyUsage(db, user.ID, 2025, 6)
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.TotalCalls)
	assert.Equal(t, 0.0, stats.TotalDuration)
	assert.Equal(t, 0.0, stats.AvgDuration)
	assert.Equal(t, int64(0), stats.UniqueCallers)
	assert.Empty(t, stats.CallTypeBreakdown)
	assert.Empty(t, stats.StatusBreakdown)
}

func TestGetUserMonthlyUsageWindowBoundaries(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "window@example.com")

	monthStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)
	nextMonthStart := time.Date(2025, 7, 1, 0, 0, 0, 0, time.Local)

	// Ay başındaki çağrı dahil, sonraki ay başındaki hariç
	createTestCall(t, db, user.ID, "call-in", monthStart, 120, model.CallStatusCompleted, model.CallTypeInbound)
	createTestCall(t, db, user.ID, "call-out", nextMonthStart, 60, model.CallStatusCompleted, model.CallTypeInbound)
	createTestCall(t, db, user.ID, "call-before", monthStart.Add(-time.Second), 30, model.CallStatusCompleted, model.CallTypeInbound)

	stats, err := GetUserMonthlyUsage(db, user.ID, 2025, 6)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.TotalCalls)
	assert.Equal(t, 120.0, stats.TotalDuration)
	assert.Equal(t, 2.0, stats.TotalDurationMinutes)
}

func TestGetUserMonthlyUsageBucketsLocalTimestamps(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "local@example.com")

	juneStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)
	// Yerel saatle mayısın son saniyesi haziran penceresine girmez
	createTestCall(t, db, user.ID, "local-may", juneStart.Add(-time.Second), 45, model.CallStatusCompleted, model.CallTypeInbound)

	june, err := GetUserMonthlyUsage(db, user.ID, 2025, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(0), june.TotalCalls)

	may, err := GetUserMonthlyUsage(db, user.ID, 2025, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), may.TotalCalls)
	assert.Equal(t, 45.0, may.TotalDuration)
}

func TestGetUserMonthlyUsageBreakdowns(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "breakdown@example.com")
	base := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	createTestCall(t, db, user.ID, "bd-1", base, 60, model.CallStatusCompleted, model.CallTypeInbound)
	createTestCall(t, db, user.ID, "bd-2", base.Add(time.Hour), 120, model.CallStatusCompleted, model.CallTypeInbound)
	createTestCall(t, db, user.ID, "bd-3", base.Add(2*time.Hour), 30, model.CallStatusCompleted, model.CallTypeOutbound)
	createTestCall(t, db, user.ID, "bd-4", base.Add(3*time.Hour), 0, model.CallStatusFailed, model.CallTypeInbound)

	stats, err := GetUserMonthlyUsage(db, user.ID, 2025, 6)
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalCalls)
	assert.Equal(t, int64(3), stats.CallTypeBreakdown[model.CallTypeInbound].Count)
	assert.Equal(t, 180.0, stats.CallTypeBreakdown[model.CallTypeInbound].Duration)
	assert.Equal(t, int64(1), stats.CallTypeBreakdown[model.CallTypeOutbound].Count)
	assert.Equal(t, int64(3), stats.StatusBreakdown[model.CallStatusCompleted])
	assert.Equal(t, int64(1), stats.StatusBreakdown[model.CallStatusFailed])
}

func TestActiveCallLifecycle(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "lifecycle@example.com")
	startTime := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	call := createTestCall(t, db, user.ID, "live-1", startTime, 0, model.CallStatusInitiated, model.CallTypeInbound)
	assert.True(t, call.IsActiveCall())

	active, err := ListActiveCalls(db)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "live-1", active[0].CallID)

	endTime := startTime.Add(90 * time.Second)
	_, err = EndCall(db, "live-1", endTime, 90, model.CallStatusCompleted)
	require.NoError(t, err)

	reloaded, err := GetUsageByCallID(db, "live-1")
	require.NoError(t, err)
	assert.Equal(t, model.CallStatusCompleted, reloaded.Status)
	require.NotNil(t, reloaded.EndTime)
	require.NotNil(t, reloaded.Duration)
	assert.Equal(t, 90.0, *reloaded.Duration)
	assert.False(t, reloaded.IsActiveCall())

	active, err = ListActiveCalls(db)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestEndCallUnknownCallID(t *testing.T) {
	db := setupTestDB(t)

	_, err := EndCall(db, "missing", time.Now(), 10, model.CallStatusCompleted)
	assert.Error(t, err)
}

func TestListUserUsageDateFilter(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "filter@example.com")

	createTestCall(t, db, user.ID, "f-1", time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC), 60, model.CallStatusCompleted, model.CallTypeInbound)
	createTestCall(t, db, user.ID, "f-2", time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC), 60, model.CallStatusCompleted, model.CallTypeInbound)

	start := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	records, err := ListUserUsage(db, user.ID, 0, 100, &start, nil)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "f-2", records[0].CallID)
}

func TestListUsageWithDetailsFilters(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	base := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	createTestCall(t, db, alice.ID, "d-1", base, 120, model.CallStatusCompleted, model.CallTypeInbound)
	createTestCall(t, db, bob.ID, "d-2", base, 60, model.CallStatusCompleted, model.CallTypeOutbound)

	records, err := ListUsageWithDetails(db, UsageFilters{UserEmail: "ALICE"}, 0, 100)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "d-1", records[0].CallID)
	assert.Equal(t, "alice@example.com", records[0].User.Email)
	assert.Equal(t, 2.0, records[0].DurationMinutes)

	records, err = ListUsageWithDetails(db, UsageFilters{CallType: model.CallTypeOutbound}, 0, 100)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "d-2", records[0].CallID)
}

func TestGetSystemUsageAnalytics(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "sys-a@example.com")
	bob := createTestUser(t, db, "sys-b@example.com")
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		createTestCall(t, db, alice.ID, fmt.Sprintf("sys-a-%d", i),
			now.Add(-time.Duration(i)*time.Hour), 60, model.CallStatusCompleted, model.CallTypeInbound)
	}
	createTestCall(t, db, bob.ID, "sys-b-0", now.Add(-time.Hour), 120, model.CallStatusCompleted, model.CallTypeInbound)

	analytics, err := GetSystemUsageAnalytics(db, nil, nil, now)
	require.NoError(t, err)

	assert.Equal(t, int64(4), analytics.Overall.TotalCalls)
	assert.Equal(t, 300.0, analytics.Overall.TotalDuration)
	assert.Equal(t, int64(2), analytics.Overall.ActiveUsers)
	assert.NotEmpty(t, analytics.DailyVolume)
	assert.NotEmpty(t, analytics.HourlyDistribution)

	require.Len(t, analytics.TopUsers, 2)
	assert.Equal(t, "sys-a@example.com", analytics.TopUsers[0].Email)
	assert.Equal(t, int64(3), analytics.TopUsers[0].TotalCalls)
}

func TestMonthlyUsageGrowth(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "growth@example.com")

	createTestCall(t, db, user.ID, "g-1", time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), 3600, model.CallStatusCompleted, model.CallTypeInbound)
	createTestCall(t, db, user.ID, "g-2", time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), 1800, model.CallStatusCompleted, model.CallTypeInbound)
	createTestCall(t, db, user.ID, "g-3", time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC), 1800, model.CallStatusCompleted, model.CallTypeInbound)

	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows, err := MonthlyUsageGrowth(db, since)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, 5, rows[0].Month)
	assert.Equal(t, int64(1), rows[0].Calls)
	assert.Equal(t, 1.0, rows[0].DurationHours)
	assert.Equal(t, 6, rows[1].Month)
	assert.Equal(t, int64(2), rows[1].Calls)
	assert.Equal(t, 1.0, rows[1].DurationHours)
}
