package controller_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"avs_backend/internal/model"
	"avs_backend/internal/router"
	"avs_backend/pkg/database"
	"avs_backend/pkg/utils/jwt"
)

const testPassword = "secret123"

func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&model.User{}, &model.Plan{}, &model.Subscription{}, &model.Usage{})
	require.NoError(t, err)

	database.DB = db
	jwt.Init("test-secret")

	app := fiber.New()
	router.SetupRoutes(app)
	return app, db
}

func createUser(t *testing.T, db *gorm.DB, email string, superuser bool) (*model.User, string) {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := model.User{
		Email:       email,
		Password:    string(hashed),
		FullName:    "Test User",
		IsActive:    true,
		IsSuperuser: superuser,
	}
	require.NoError(t, db.Create(&user).Error)

	token, err := jwt.GenerateToken(user.ID, user.Email)
	require.NoError(t, err)

	return &user, token
}

func createPlan(t *testing.T, db *gorm.DB, name string, price float64) *model.Plan {
	t.Helper()

	plan := model.Plan{
		Name:         name,
		Slug:         name,
		Price:        price,
		DurationDays: 30,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&plan).Error)
	return &plan
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	defer resp.Body.Close()
	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func TestRegisterAndLogin(t *testing.T) {
	app, _ := setupTestApp(t)

	resp := doRequest(t, app, "POST", "/api/v1/auth/register", "", map[string]interface{}{
		"email":     "new@example.com",
		"password":  testPassword,
		"full_name": "New User",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["access_token"])
	assert.Equal(t, "bearer", body["token_type"])

	// Aynı email ile ikinci kayıt reddedilir
	resp = doRequest(t, app, "POST", "/api/v1/auth/register", "", map[string]interface{}{
		"email":     "new@example.com",
		"password":  testPassword,
		"full_name": "Duplicate",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, app, "POST", "/api/v1/auth/login", "", map[string]interface{}{
		"email":    "new@example.com",
		"password": testPassword,
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, "POST", "/api/v1/auth/login", "", map[string]interface{}{
		"email":    "new@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterReportsStoreFailure(t *testing.T) {
	app, db := setupTestApp(t)

	// Gerçek bir veritabanı hatası kayıt-yok gibi yutulmamalı
	require.NoError(t, db.Exec("DROP TABLE users").Error)

	resp := doRequest(t, app, "POST", "/api/v1/auth/register", "", map[string]interface{}{
		"email":     "new@example.com",
		"password":  testPassword,
		"full_name": "New User",
	})
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	app, db := setupTestApp(t)

	user, _ := createUser(t, db, "inactive@example.com", false)
	require.NoError(t, db.Model(user).Update("is_active", false).Error)

	resp := doRequest(t, app, "POST", "/api/v1/auth/login", "", map[string]interface{}{
		"email":    "inactive@example.com",
		"password": testPassword,
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRegisterValidation(t *testing.T) {
	app, _ := setupTestApp(t)

	resp := doRequest(t, app, "POST", "/api/v1/auth/register", "", map[string]interface{}{
		"email":     "not-an-email",
		"password":  testPassword,
		"full_name": "Bad Email",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, app, "POST", "/api/v1/auth/register", "", map[string]interface{}{
		"email":     "short@example.com",
		"password":  "123",
		"full_name": "Short Password",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
