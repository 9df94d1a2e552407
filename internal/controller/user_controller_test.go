package controller_test

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avs_backend/internal/model"
)

func TestUserListRequiresAdmin(t *testing.T) {
	app, db := setupTestApp(t)
	_, userToken := createUser(t, db, "regular@example.com", false)
	_, adminToken := createUser(t, db, "admin@example.com", true)

	resp := doRequest(t, app, "GET", "/api/v1/users/", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, app, "GET", "/api/v1/users/", userToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doRequest(t, app, "GET", "/api/v1/users/", adminToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["total"])
}

func TestGetUserSelfOrAdminGuard(t *testing.T) {
	app, db := setupTestApp(t)
	user, userToken := createUser(t, db, "self@example.com", false)
	other, _ := createUser(t, db, "other@example.com", false)
	_, adminToken := createUser(t, db, "admin@example.com", true)

	// Kendi kaydına erişim serbest
	resp := doRequest(t, app, "GET", fmt.Sprintf("/api/v1/users/%d", user.ID), userToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Başkasının kaydına erişim yasak
	resp = doRequest(t, app, "GET", fmt.Sprintf("/api/v1/users/%d", other.ID), userToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doRequest(t, app, "GET", fmt.Sprintf("/api/v1/users/%d", other.ID), adminToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminCannotDeleteOrDeactivateSelf(t *testing.T) {
	app, db := setupTestApp(t)
	admin, adminToken := createUser(t, db, "admin@example.com", true)

	resp := doRequest(t, app, "DELETE", fmt.Sprintf("/api/v1/users/%d", admin.ID), adminToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, app, "POST", fmt.Sprintf("/api/v1/users/%d/deactivate", admin.ID), adminToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Hesap hala aktif
	var reloaded model.User
	require.NoError(t, db.First(&reloaded, admin.ID).Error)
	assert.True(t, reloaded.IsActive)
}

func TestDeleteUserCascades(t *testing.T) {
	app, db := setupTestApp(t)
	victim, _ := createUser(t, db, "victim@example.com", false)
	_, adminToken := createUser(t, db, "admin@example.com", true)

	plan := createPlan(t, db, "Basic", 29.99)
	resp := doRequest(t, app, "POST", "/api/v1/subscriptions/", adminToken, map[string]interface{}{
		"user_id": victim.ID,
		"plan_id": plan.ID,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = doRequest(t, app, "DELETE", fmt.Sprintf("/api/v1/users/%d", victim.ID), adminToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var subCount int64
	require.NoError(t, db.Model(&model.Subscription{}).Count(&subCount).Error)
	assert.Equal(t, int64(0), subCount)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	app, db := setupTestApp(t)
	_, adminToken := createUser(t, db, "admin@example.com", true)

	resp := doRequest(t, app, "POST", "/api/v1/users/", adminToken, map[string]interface{}{
		"email":     "admin@example.com",
		"password":  testPassword,
		"full_name": "Duplicate",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestActivateDeactivateUser(t *testing.T) {
	app, db := setupTestApp(t)
	target, _ := createUser(t, db, "target@example.com", false)
	_, adminToken := createUser(t, db, "admin@example.com", true)

	resp := doRequest(t, app, "POST", fmt.Sprintf("/api/v1/users/%d/deactivate", target.ID), adminToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, target.ID).Error)
	assert.False(t, reloaded.IsActive)

	resp = doRequest(t, app, "POST", fmt.Sprintf("/api/v1/users/%d/activate", target.ID), adminToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, db.First(&reloaded, target.ID).Error)
	assert.True(t, reloaded.IsActive)
}

func TestDeactivatedUserTokenRejected(t *testing.T) {
	app, db := setupTestApp(t)
	user, userToken := createUser(t, db, "locked@example.com", false)

	require.NoError(t, db.Model(user).Update("is_active", false).Error)

	resp := doRequest(t, app, "GET", "/api/v1/users/me", userToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestUpdateMe(t *testing.T) {
	app, db := setupTestApp(t)
	_, userToken := createUser(t, db, "updateme@example.com", false)

	resp := doRequest(t, app, "PUT", "/api/v1/users/me", userToken, map[string]interface{}{
		"full_name": "Updated Name",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Updated Name", body["full_name"])
}
