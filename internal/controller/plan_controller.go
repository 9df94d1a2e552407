package controller

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"avs_backend/internal/model"
	"avs_backend/internal/repository"
	"avs_backend/pkg/database"
	"avs_backend/pkg/utils/validation"
)

type CreatePlanInput struct {
	Name         string                 `json:"name" validate:"required"`
	Description  string                 `json:"description"`
	Price        float64                `json:"price" validate:"required,gt=0"`
	DurationDays int                    `json:"duration_days" validate:"required,gt=0"`
	MaxCalls     *int                   `json:"max_calls"`
	MaxMinutes   *int                   `json:"max_minutes"`
	Features     map[string]interface{} `json:"features"`
	IsActive     *bool                  `json:"is_active"`
}

type UpdatePlanInput struct {
	Name         *string                `json:"name"`
	Description  *string                `json:"description"`
	Price        *float64               `json:"price" validate:"omitempty,gt=0"`
	DurationDays *int                   `json:"duration_days" validate:"omitempty,gt=0"`
	MaxCalls     *int                   `json:"max_calls"`
	MaxMinutes   *int                   `json:"max_minutes"`
	Features     map[string]interface{} `json:"features"`
	IsActive     *bool                  `json:"is_active"`
}

func planResponse(plan *model.Plan) fiber.Map {
	return fiber.Map{
		"id":            plan.ID,
		"name":          plan.Name,
		"slug":          plan.Slug,
		"description":   plan.Description,
		"price":         plan.Price,
		"duration_days": plan.DurationDays,
		"max_calls":     plan.MaxCalls,
		"max_minutes":   plan.MaxMinutes,
		"features":      plan.FeatureMap(),
		"is_active":     plan.IsActive,
		"created_at":    plan.CreatedAt,
		"updated_at":    plan.UpdatedAt,
	}
}

// GetActivePlans aktif planlar, fiyata göre sıralı (public)
func GetActivePlans(c *fiber.Ctx) error {
	plans, err := repository.ListActivePlans(database.DB)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch plans",
		})
	}

	result := make([]fiber.Map, 0, len(plans))
	for i := range plans {
		result = append(result, planResponse(&plans[i]))
	}

	return c.JSON(result)
}

// GetAllPlans aktif/pasif tüm planlar (admin)
func GetAllPlans(c *fiber.Ctx) error {
	skip, limit := paginationParams(c)

	plans, err := repository.ListPlans(database.DB, skip, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch plans",
		})
	}

	total, err := repository.CountPlans(database.DB)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to count plans",
		})
	}

	result := make([]fiber.Map, 0, len(plans))
	for i := range plans {
		result = append(result, planResponse(&plans[i]))
	}

	return c.JSON(fiber.Map{
		"plans": result,
		"total": total,
		"skip":  skip,
		"limit": limit,
	})
}

// GetPlansWithStats planları abonelik/gelir istatistikleriyle listeler (admin)
func GetPlansWithStats(c *fiber.Ctx) error {
	plans, err := repository.ListPlansWithStats(database.DB, time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch plan statistics",
		})
	}

	result := make([]fiber.Map, 0, len(plans))
	for i := range plans {
		entry := planResponse(&plans[i].Plan)
		entry["stats"] = plans[i].Stats
		result = append(result, entry)
	}

	return c.JSON(fiber.Map{
		"plans": result,
	})
}

// GetPopularPlans efektif-aktif abonelik sayısına göre popüler planlar
func GetPopularPlans(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 5)
	if limit <= 0 || limit > 50 {
		limit = 5
	}

	plans, err := repository.ListPopularPlans(database.DB, limit, time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch popular plans",
		})
	}

	return c.JSON(fiber.Map{
		"plans": plans,
	})
}

// GetPlanBySlug plan detayını slug ile getirir (public)
func GetPlanBySlug(c *fiber.Ctx) error {
	plan, err := repository.GetPlanBySlug(database.DB, c.Params("slug"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Plan not found",
		})
	}

	return c.JSON(planResponse(plan))
}

// GetPlan plan detayı
func GetPlan(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid plan id",
		})
	}

	plan, err := repository.GetPlanByID(database.DB, uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Plan not found",
		})
	}

	return c.JSON(planResponse(plan))
}

// CreatePlan yeni plan oluşturur (admin)
func CreatePlan(c *fiber.Ctx) error {
	var input CreatePlanInput
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

	if _, err := repository.GetPlanByName(database.DB, input.Name); err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A plan with this name already exists",
		})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check existing plan",
		})
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	plan := model.Plan{
		Name:         input.Name,
		Slug:         slug.Make(input.Name),
		Description:  input.Description,
		Price:        input.Price,
		DurationDays: input.DurationDays,
		MaxCalls:     input.MaxCalls,
		MaxMinutes:   input.MaxMinutes,
		IsActive:     isActive,
	}
	if input.Features != nil {
		raw, err := json.Marshal(input.Features)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid features payload",
			})
		}
		plan.Features = datatypes.JSON(raw)
	}

	if err := repository.CreatePlan(database.DB, &plan); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create plan",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(planResponse(&plan))
}

// UpdatePlan plan güncelleme (admin)
func UpdatePlan(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid plan id",
		})
	}

	plan, err := repository.GetPlanByID(database.DB, uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Plan not found",
		})
	}

	var input UpdatePlanInput
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
	if input.Name != nil && *input.Name != plan.Name {
		if _, err := repository.GetPlanByName(database.DB, *input.Name); err == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "A plan with this name already exists",
			})
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to check existing plan",
			})
		}
		updates["name"] = *input.Name
		updates["slug"] = slug.Make(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		updates["price"] = *input.Price
	}
	if input.DurationDays != nil {
		updates["duration_days"] = *input.DurationDays
	}
	if input.MaxCalls != nil {
		updates["max_calls"] = *input.MaxCalls
	}
	if input.MaxMinutes != nil {
		updates["max_minutes"] = *input.MaxMinutes
	}
	if input.Features != nil {
		raw, err := json.Marshal(input.Features)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid features payload",
			})
		}
		updates["features"] = datatypes.JSON(raw)
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) > 0 {
		if err := repository.UpdatePlan(database.DB, plan, updates); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update plan",
			})
		}
	}

	return c.JSON(planResponse(plan))
}

// DeletePlan aktif aboneliği olan planı pasifleştirir, olmayanı kalıcı siler (admin)
func DeletePlan(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid plan id",
		})
	}

	plan, err := repository.GetPlanByID(database.DB, uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Plan not found",
		})
	}

	activeCount, err := repository.CountActivePlanSubscriptions(database.DB, plan.ID, time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check plan subscriptions",
		})
	}

	if activeCount > 0 {
		if err := repository.SetPlanActive(database.DB, plan, false); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to deactivate plan",
			})
		}
		return c.JSON(fiber.Map{
			"message":              "Plan has active subscriptions, deactivated instead of deleted",
			"active_subscriptions": activeCount,
		})
	}

	if err := repository.DeletePlanHard(database.DB, plan.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete plan",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Plan deleted successfully",
	})
}

// ActivatePlan planı aktifleştirir (admin)
func ActivatePlan(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid plan id",
		})
	}

	plan, err := repository.GetPlanByID(database.DB, uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Plan not found",
		})
	}

	if err := repository.SetPlanActive(database.DB, plan, true); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to activate plan",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Plan activated successfully",
		"plan":    planResponse(plan),
	})
}

// DeactivatePlan planı pasifleştirir, mevcut abonelikler etkilenmez (admin)
func DeactivatePlan(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid plan id",
		})
	}

	plan, err := repository.GetPlanByID(database.DB, uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Plan not found",
		})
	}

	if err := repository.SetPlanActive(database.DB, plan, false); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to deactivate plan",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Plan deactivated successfully",
		"plan":    planResponse(plan),
	})
}
