package controller

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"avs_backend/internal/middleware"
	"avs_backend/internal/model"
	"avs_backend/internal/repository"
	"avs_backend/pkg/database"
	"avs_backend/pkg/utils/validation"
)

type CreateUsageInput struct {
	UserID            uint       `json:"user_id"`
	CallID            string     `json:"call_id" validate:"required"`
	StartTime         *time.Time `json:"start_time"`
	EndTime           *time.Time `json:"end_time"`
	Duration          *float64   `json:"duration" validate:"omitempty,gte=0"`
	Status            string     `json:"status" validate:"omitempty,oneof=initiated connected completed failed busy"`
	CallerNumber      string     `json:"caller_number" validate:"required"`
	DestinationNumber string     `json:"destination_number" validate:"required"`
	CallType          string     `json:"call_type" validate:"omitempty,oneof=inbound outbound"`
	CallSummary       string     `json:"call_summary"`
	RecordingURL      string     `json:"recording_url"`
}

type UpdateUsageInput struct {
	EndTime      *time.Time `json:"end_time"`
	Duration     *float64   `json:"duration" validate:"omitempty,gte=0"`
	Status       *string    `json:"status" validate:"omitempty,oneof=initiated connected completed failed busy"`
	CallSummary  *string    `json:"call_summary"`
	RecordingURL *string    `json:"recording_url"`
}

type EndCallInput struct {
	EndTime  *time.Time `json:"end_time"`
	Duration *float64   `json:"duration" validate:"omitempty,gte=0"`
	Status   string     `json:"status" validate:"omitempty,oneof=completed failed busy"`
}

// GetUsageRecords çağrı kayıtları, filtreli (admin)
func GetUsageRecords(c *fiber.Ctx) error {
	skip, limit := paginationParams(c)

	filters := repository.UsageFilters{
		UserEmail:  c.Query("user_email"),
		CallStatus: c.Query("status"),
		CallType:   c.Query("call_type"),
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

	records, err := repository.ListUsageWithDetails(database.DB, filters, skip, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch usage records",
		})
	}

	return c.JSON(fiber.Map{
		"usage_records": records,
		"skip":          skip,
		"limit":         limit,
	})
}

// GetMyUsage kullanıcının kendi çağrı kayıtları
func GetMyUsage(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	skip, limit := paginationParams(c)

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

	records, err := repository.ListUserUsage(database.DB, user.ID, skip, limit, startDate, endDate)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch usage records",
		})
	}

	return c.JSON(fiber.Map{
		"usage_records": records,
		"skip":          skip,
		"limit":         limit,
	})
}

// GetMyMonthlyUsage kullanıcının aylık kullanım özeti
func GetMyMonthlyUsage(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	return monthlyUsageResponse(c, user.ID)
}

// GetUserUsage belirli kullanıcının çağrı kayıtları (admin)
func GetUserUsage(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("user_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	if _, err := repository.GetUserByID(database.DB, uint(userID)); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	skip, limit := paginationParams(c)
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

	records, err := repository.ListUserUsage(database.DB, uint(userID), skip, limit, startDate, endDate)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch usage records",
		})
	}

	return c.JSON(fiber.Map{
		"usage_records": records,
		"skip":          skip,
		"limit":         limit,
	})
}

// GetUserMonthlyUsage belirli kullanıcının aylık kullanım özeti (admin)
func GetUserMonthlyUsage(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("user_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	if _, err := repository.GetUserByID(database.DB, uint(userID)); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	return monthlyUsageResponse(c, uint(userID))
}

func monthlyUsageResponse(c *fiber.Ctx, userID uint) error {
	year, err := c.ParamsInt("year")
	if err != nil || year < 2000 || year > 2100 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid year",
		})
	}
	month, err := c.ParamsInt("month")
	if err != nil || month < 1 || month > 12 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Month must be between 1 and 12",
		})
	}

	stats, err := repository.GetUserMonthlyUsage(database.DB, userID, year, month)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch monthly usage",
		})
	}

	return c.JSON(stats)
}

// GetUsageAnalytics sistem geneli kullanım analitiği (admin)
func GetUsageAnalytics(c *fiber.Ctx) error {
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

	analytics, err := repository.GetSystemUsageAnalytics(database.DB, startDate, endDate, time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch usage analytics",
		})
	}

	return c.JSON(analytics)
}

// GetActiveCalls devam eden çağrılar (admin)
func GetActiveCalls(c *fiber.Ctx) error {
	calls, err := repository.ListActiveCalls(database.DB)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch active calls",
		})
	}

	return c.JSON(fiber.Map{
		"active_calls": calls,
		"count":        len(calls),
	})
}

// CreateUsage çağrı kaydı oluşturur; admin herkes için, kullanıcı kendisi için
func CreateUsage(c *fiber.Ctx) error {
	current := middleware.CurrentUser(c)

	var input CreateUsageInput
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

	if _, err := repository.GetUserByID(database.DB, targetUserID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	if _, err := repository.GetUsageByCallID(database.DB, input.CallID); err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A call record with this call_id already exists",
		})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check existing call record",
		})
	}

	startTime := time.Now()
	if input.StartTime != nil {
		startTime = *input.StartTime
	}
	status := input.Status
	if status == "" {
		status = model.CallStatusInitiated
	}
	callType := input.CallType
	if callType == "" {
		callType = model.CallTypeInbound
	}

	usage := model.Usage{
		UserID:            targetUserID,
		CallID:            input.CallID,
		StartTime:         startTime,
		EndTime:           input.EndTime,
		Duration:          input.Duration,
		Status:            status,
		CallerNumber:      input.CallerNumber,
		DestinationNumber: input.DestinationNumber,
		CallType:          callType,
		CallSummary:       input.CallSummary,
		RecordingURL:      input.RecordingURL,
	}
	if err := repository.CreateUsage(database.DB, &usage); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create usage record",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(usage)
}

// GetUsageRecord çağrı kaydı detayı; sahibi veya admin
func GetUsageRecord(c *fiber.Ctx) error {
	current := middleware.CurrentUser(c)

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid usage record id",
		})
	}

	usage, err := repository.GetUsageByID(database.DB, uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Usage record not found",
		})
	}

	if !canAccessUser(current, usage.UserID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "The user doesn't have enough privileges",
		})
	}

	return c.JSON(usage)
}

// UpdateUsage çağrı kaydını günceller (admin)
func UpdateUsage(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid usage record id",
		})
	}

	usage, err := repository.GetUsageByID(database.DB, uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Usage record not found",
		})
	}

	var input UpdateUsageInput
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
	if input.EndTime != nil {
		updates["end_time"] = *input.EndTime
	}
	if input.Duration != nil {
		updates["duration"] = *input.Duration
	}
	if input.Status != nil {
		updates["status"] = *input.Status
	}
	if input.CallSummary != nil {
		updates["call_summary"] = *input.CallSummary
	}
	if input.RecordingURL != nil {
		updates["recording_url"] = *input.RecordingURL
	}

	if len(updates) > 0 {
		if err := repository.UpdateUsage(database.DB, usage, updates); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update usage record",
			})
		}
	}

	return c.JSON(usage)
}

// EndCall devam eden çağrıyı sonlandırır; sahibi veya admin
func EndCall(c *fiber.Ctx) error {
	current := middleware.CurrentUser(c)
	callID := c.Params("call_id")

	usage, err := repository.GetUsageByCallID(database.DB, callID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Call not found",
		})
	}

	if !canAccessUser(current, usage.UserID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "The user doesn't have enough privileges",
		})
	}

	var input EndCallInput
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

	endTime := time.Now()
	if input.EndTime != nil {
		endTime = *input.EndTime
	}
	duration := endTime.Sub(usage.StartTime).Seconds()
	if input.Duration != nil {
		duration = *input.Duration
	}
	status := input.Status
	if status == "" {
		status = model.CallStatusCompleted
	}

	updated, err := repository.EndCall(database.DB, callID, endTime, duration, status)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to end call",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Call ended successfully",
		"usage":   updated,
	})
}

// DeleteUsage çağrı kaydını kalıcı siler (admin)
func DeleteUsage(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid usage record id",
		})
	}

	if _, err := repository.GetUsageByID(database.DB, uint(id)); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Usage record not found",
		})
	}

	if err := repository.DeleteUsageHard(database.DB, uint(id)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete usage record",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Usage record deleted successfully",
	})
}
