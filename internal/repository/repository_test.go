package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"avs_backend/internal/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// :memory: veritabanı bağlantı başına ayrıdır, tek bağlantıya sabitle
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&model.User{}, &model.Plan{}, &model.Subscription{}, &model.Usage{})
	require.NoError(t, err)

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()

	user := model.User{
		Email:    email,
		Password: "hashed",
		FullName: "Test User",
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTestPlan(t *testing.T, db *gorm.DB, name string, price float64, durationDays int) *model.Plan {
	t.Helper()

	plan := model.Plan{
		Name:         name,
		Slug:         name,
		Price:        price,
		DurationDays: durationDays,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&plan).Error)
	return &plan
}

func TestStartOfMonth(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	require.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), StartOfMonth(now))
}

func TestPreviousMonthStart(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	require.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), PreviousMonthStart(now))

	// Yıl devri
	january := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), PreviousMonthStart(january))
}
