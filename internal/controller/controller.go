package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"avs_backend/internal/model"
)

// paginationParams skip/limit query parametrelerini okur
func paginationParams(c *fiber.Ctx) (int, int) {
	skip := c.QueryInt("skip", 0)
	if skip < 0 {
		skip = 0
	}
	limit := c.QueryInt("limit", 100)
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return skip, limit
}

// parseDateQuery RFC3339 veya YYYY-MM-DD formatında tarih parametresi okur
func parseDateQuery(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return &parsed, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// canAccessUser kendi kaydı veya superuser erişimine izin verir
func canAccessUser(current *model.User, targetID uint) bool {
	return current.IsSuperuser || current.ID == targetID
}
