package controller

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"avs_backend/internal/middleware"
	"avs_backend/internal/repository"
	"avs_backend/pkg/database"
	"avs_backend/pkg/email"
	"avs_backend/pkg/utils/validation"
)

type CreateSubscriptionInput struct {
	UserID        uint       `json:"user_id"`
	PlanID        uint       `json:"plan_id" validate:"required"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	IsActive      *bool      `json:"is_active"`
	PaymentStatus string     `json:"payment_status" validate:"omitempty,oneof=pending completed failed refunded"`
	PaymentAmount float64    `json:"payment_amount" validate:"gte=0"`
	PaymentMethod string     `json:"payment_method"`
	PaymentID     string     `json:"payment_id"`
}

type UpdateSubscriptionInput struct {
	EndDate       *time.Time `json:"end_date"`
	IsActive      *bool      `json:"is_active"`
	PaymentStatus *string    `json:"payment_status" validate:"omitempty,oneof=pending completed failed refunded"`
	PaymentAmount *float64   `json:"payment_amount" validate:"omitempty,gte=0"`
	PaymentMethod *string    `json:"payment_method"`
}

type RenewSubscriptionInput struct {
	PaymentAmount *float64 `json:"payment_amount" validate:"omitempty,gte=0"`
	PaymentID     string   `json:"payment_id"`
}

// GetSubscriptions abonelik listesi, filtreli (admin)
func GetSubscriptions(c *fiber.Ctx) error {
	skip, limit := paginationParams(c)

	filters := repository.SubscriptionFilters{
		UserEmail:     c.Query("user_email"),
		PlanName:      c.Query("plan_name"),
		PaymentStatus: c.Query("payment_status"),
	}
	if raw := c.Query("is_active"); raw != "" {
		value := raw == "true"
		filters.IsActive = &value
	}

	startDate, err := parseDateQuery(c, "start_date")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid start_date format",
		})
	}
	filters.StartDate = startDate

	endDate, err := parseDateQuery(c, "end_date")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid end_date format",
		})
	}
	filters.EndDate = endDate

	subscriptions, err := repository.ListSubscriptionsWithDetails(database.DB, filters, skip, limit, time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch subscriptions",
		})
	}

	return c.JSON(fiber.Map{
		"subscriptions": subscriptions,
		"skip":          skip,
		"limit":         limit,
	})
}

// GetMySubscriptions kullanıcının kendi abonelik geçmişi
func GetMySubscriptions(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	skip, limit := paginationParams(c)

	subscriptions, err := repository.ListUserSubscriptions(database.DB, user.ID, skip, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch subscriptions",
		})
	}

	return c.JSON(fiber.Map{
		"subscriptions": subscriptions,
		"skip":          skip,
		"limit":         limit,
	})
}

// GetMyActiveSubscription kullanıcının efektif-aktif aboneliği
func GetMyActiveSubscription(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	subscription, err := repository.GetUserActiveSubscription(database.DB, user.ID, time.Now())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(fiber.Map{
			"subscription": nil,
			"message":      "No active subscription found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch subscription",
		})
	}

	return c.JSON(fiber.Map{
		"subscription": subscription,
	})
}

// CreateSubscription abonelik oluşturur; admin herkes için, kullanıcı kendisi için
func CreateSubscription(c *fiber.Ctx) error {
	current := middleware.CurrentUser(c)
	now := time.Now()

	var input CreateSubscriptionInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := validation.ValidateStruct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	targetUserID := input.UserID
	if targetUserID == 0 {
		targetUserID = current.ID
	}
	if !canAccessUser(current, targetUserID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "The user doesn't have enough privileges",
		})
	}

	targetUser, err := repository.GetUserByID(database.DB, targetUserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	plan, err := repository.GetPlanByID(database.DB, input.PlanID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Plan not found",
		})
	}
	if !plan.IsActive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Plan is not active",
		})
	}

	if _, err := repository.GetUserActiveSubscription(database.DB, targetUserID, now); err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User already has an active subscription",
		})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check existing subscription",
		})
	}

	subscription, err := repository.CreateSubscription(database.DB, repository.CreateSubscriptionParams{
		UserID:        targetUserID,
		PlanID:        input.PlanID,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		IsActive:      input.IsActive,
		PaymentStatus: input.PaymentStatus,
		PaymentAmount: input.PaymentAmount,
		PaymentMethod: input.PaymentMethod,
		PaymentID:     input.PaymentID,
	}, now)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create subscription",
		})
	}

	if email.GlobalEmailService != nil {
		go email.GlobalEmailService.SendSubscriptionStartedEmail(
			targetUser.Email, targetUser.FullName, plan.Name, subscription.EndDate)
	}

	detail, err := repository.GetSubscriptionByID(database.DB, subscription.ID)
	if err != nil {
		return c.Status(fiber.StatusCreated).JSON(subscription)
	}
	return c.Status(fiber.StatusCreated).JSON(detail)
}

// GetExpiringSubscriptions yakında sona erecek abonelikler (admin)
func GetExpiringSubscriptions(c *fiber.Ctx) error {
	daysAhead := c.QueryInt("days_ahead", 7)
	if daysAhead <= 0 {
		daysAhead = 7
	}
	limit := c.QueryInt("limit", 100)
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	subscriptions, err := repository.ListExpiringSubscriptions(database.DB, daysAhead, limit, time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch expiring subscriptions",
		})
	}

	return c.JSON(fiber.Map{
		"subscriptions": subscriptions,
		"days_ahead":    daysAhead,
	})
}

// GetSubscriptionAnalytics abonelik metrikleri (admin)
func GetSubscriptionAnalytics(c *fiber.Ctx) error {
	analytics, err := repository.GetSubscriptionAnalytics(database.DB, time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch subscription analytics",
		})
	}

	return c.JSON(analytics)
}

// GetRevenueStats tarih aralıklı gelir raporu (admin)
func GetRevenueStats(c *fiber.Ctx) error {
	startDate, err := parseDateQuery(c, "start_date")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid start_date format",
		})
	}
	endDate, err := parseDateQuery(c, "end_date")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid end_date format",
		})
	}

	stats, err := repository.GetRevenueStats(database.DB, startDate, endDate)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch revenue statistics",
		})
	}

	return c.JSON(stats)
}

// GetSubscription abonelik detayı; sahibi veya admin
func GetSubscription(c *fiber.Ctx) error {
	current := middleware.CurrentUser(c)

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid subscription id",
		})
	}

	subscription, err := repository.GetSubscriptionByID(database.DB, uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Subscription not found",
		})
	}

	if !canAccessUser(current, subscription.UserID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "The user doesn't have enough privileges",
		})
	}

	return c.JSON(subscription)
}

// UpdateSubscription abonelik güncelleme (admin)
func UpdateSubscription(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid subscription id",
		})
	}

	subscription, err := repository.GetSubscriptionByID(database.DB, uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Subscription not found",
		})
	}

	var input UpdateSubscriptionInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := validation.ValidateStruct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	updates := map[string]interface{}{}
	if input.EndDate != nil {
		updates["end_date"] = *input.EndDate
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.PaymentStatus != nil {
		updates["payment_status"] = *input.PaymentStatus
	}
	if input.PaymentAmount != nil {
		updates["payment_amount"] = *input.PaymentAmount
	}
	if input.PaymentMethod != nil {
		updates["payment_method"] = *input.PaymentMethod
	}

	if len(updates) > 0 {
		if err := repository.UpdateSubscription(database.DB, subscription, updates); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update subscription",
			})
		}
	}

	return c.JSON(subscription)
}

// CancelSubscription aboneliği iptal eder; sahibi veya admin, idempotent
func CancelSubscription(c *fiber.Ctx) error {
	current := middleware.CurrentUser(c)

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid subscription id",
		})
	}

	subscription, err := repository.GetSubscriptionByID(database.DB, uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Subscription not found",
		})
	}

	if !canAccessUser(current, subscription.UserID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "The user doesn't have enough privileges",
		})
	}

	wasActive := subscription.IsActive
	if err := repository.CancelSubscription(database.DB, subscription); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to cancel subscription",
		})
	}

	if wasActive && email.GlobalEmailService != nil {
		go email.GlobalEmailService.SendSubscriptionCancelledEmail(
			subscription.User.Email, subscription.User.FullName, subscription.Plan.Name)
	}

	return c.JSON(fiber.Map{
		"message":      "Subscription cancelled successfully",
		"subscription": subscription,
	})
}

// RenewSubscription aboneliği plan süresi kadar uzatır; sahibi veya admin
func RenewSubscription(c *fiber.Ctx) error {
	current := middleware.CurrentUser(c)

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid subscription id",
		})
	}

	existing, err := repository.GetSubscriptionByID(database.DB, uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Subscription not found",
		})
	}

	if !canAccessUser(current, existing.UserID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "The user doesn't have enough privileges",
		})
	}

	var input RenewSubscriptionInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := validation.ValidateStruct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	paymentAmount := existing.Plan.Price
	if input.PaymentAmount != nil {
		paymentAmount = *input.PaymentAmount
	}

	subscription, err := repository.RenewSubscription(database.DB, uint(id), paymentAmount, input.PaymentID, time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to renew subscription",
		})
	}

	return c.JSON(fiber.Map{
		"message":      "Subscription renewed successfully",
		"subscription": subscription,
	})
}
