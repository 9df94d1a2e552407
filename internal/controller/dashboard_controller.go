package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"avs_backend/internal/middleware"
	"avs_backend/internal/repository"
	"avs_backend/pkg/database"
)

type usageWarning struct {
	Type       string  `json:"type"`
	Message    string  `json:"message"`
	Severity   string  `json:"severity"`
	Percentage float64 `json:"percentage,omitempty"`
}

// GetAdminDashboard yönetim panelinin tüm bölümlerini tek yanıtta toplar
func GetAdminDashboard(c *fiber.Ctx) error {
	db := database.DB
	now := time.Now()

	totalUsers, err := repository.CountUsers(db)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build dashboard",
		})
	}
	activeUsers, err := repository.CountActiveUsers(db)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build dashboard",
		})
	}
	totalPlans, err := repository.CountPlans(db)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build dashboard",
		})
	}
	totalUsage, err := repository.CountUsage(db)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build dashboard",
		})
	}

	subscriptionAnalytics, err := repository.GetSubscriptionAnalytics(db, now)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build dashboard",
		})
	}

	usageAnalytics, err := repository.GetSystemUsageAnalytics(db, nil, nil, now)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build dashboard",
		})
	}

	yearAgo := repository.StartOfMonth(now).AddDate(-1, 0, 0)
	monthlyRevenue, err := repository.MonthlySubscriptionGrowth(db, yearAgo)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build dashboard",
		})
	}

	recentUsers, err := repository.ListUsers(db, 0, 5)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build dashboard",
		})
	}
	recentUserProfiles := make([]map[string]interface{}, 0, len(recentUsers))
	for i := range recentUsers {
		recentUserProfiles = append(recentUserProfiles, recentUsers[i].GetPublicProfile())
	}

	recentSubscriptions, err := repository.ListSubscriptionsWithDetails(
		db, repository.SubscriptionFilters{}, 0, 5, now)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build dashboard",
		})
	}

	expiring, err := repository.ListExpiringSubscriptions(db, 7, 10, now)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build dashboard",
		})
	}

	popularPlans, err := repository.ListPopularPlans(db, 5, now)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build dashboard",
		})
	}

	activeCalls, err := repository.ListActiveCalls(db)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build dashboard",
		})
	}

	return c.JSON(fiber.Map{
		"overview": fiber.Map{
			"total_users":          totalUsers,
			"active_users":         activeUsers,
			"total_plans":          totalPlans,
			"total_subscriptions":  subscriptionAnalytics.TotalSubscriptions,
			"active_subscriptions": subscriptionAnalytics.ActiveSubscriptions,
			"total_usage_records":  totalUsage,
		},
		"subscription_analytics": subscriptionAnalytics,
		"usage_analytics":        usageAnalytics,
		"monthly_revenue":        monthlyRevenue,
		"recent_activity": fiber.Map{
			"users":         recentUserProfiles,
			"subscriptions": recentSubscriptions,
		},
		"alerts": fiber.Map{
			"expiring_subscriptions": expiring,
			"expiring_count":         len(expiring),
		},
		"popular_plans": popularPlans,
		"active_calls": fiber.Map{
			"count": len(activeCalls),
			"calls": activeCalls,
		},
	})
}

// GetUserDashboardView kullanıcı paneli, limit ve bitiş uyarılarıyla
func GetUserDashboardView(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	now := time.Now()

	dashboard, err := repository.GetUserDashboardStats(database.DB, user.ID, now)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build dashboard",
		})
	}

	warnings := buildUsageWarnings(dashboard, now)

	return c.JSON(fiber.Map{
		"user":                dashboard.User,
		"active_subscription": dashboard.ActiveSubscription,
		"current_month_usage": dashboard.CurrentMonthUsage,
		"all_time_usage":      dashboard.AllTimeUsage,
		"warnings":            warnings,
	})
}

// buildUsageWarnings limit kullanımı ve abonelik bitişi için uyarı üretir
func buildUsageWarnings(dashboard *repository.UserDashboard, now time.Time) []usageWarning {
	warnings := []usageWarning{}
	sub := dashboard.ActiveSubscription
	if sub == nil {
		return warnings
	}

	if sub.MaxCalls != nil && *sub.MaxCalls > 0 {
		percentage := float64(dashboard.CurrentMonthUsage.TotalCalls) / float64(*sub.MaxCalls) * 100
		if percentage >= 95 {
			warnings = append(warnings, usageWarning{
				Type:       "call_limit",
				Message:    "You have almost reached your monthly call limit",
				Severity:   "high",
				Percentage: percentage,
			})
		} else if percentage >= 90 {
			warnings = append(warnings, usageWarning{
				Type:       "call_limit",
				Message:    "You are approaching your monthly call limit",
				Severity:   "medium",
				Percentage: percentage,
			})
		}
	}

	if sub.MaxMinutes != nil && *sub.MaxMinutes > 0 {
		usedMinutes := dashboard.CurrentMonthUsage.TotalDuration / 60
		percentage := usedMinutes / float64(*sub.MaxMinutes) * 100
		if percentage >= 95 {
			warnings = append(warnings, usageWarning{
				Type:       "minute_limit",
				Message:    "You have almost reached your monthly minute limit",
				Severity:   "high",
				Percentage: percentage,
			})
		} else if percentage >= 90 {
			warnings = append(warnings, usageWarning{
				Type:       "minute_limit",
				Message:    "You are approaching your monthly minute limit",
				Severity:   "medium",
				Percentage: percentage,
			})
		}
	}

	if daysLeft := sub.EndDate.Sub(now).Hours() / 24; daysLeft <= 7 {
		severity := "medium"
		if daysLeft <= 3 {
			severity = "high"
		}
		warnings = append(warnings, usageWarning{
			Type:     "subscription_expiry",
			Message:  "Your subscription is expiring soon",
			Severity: severity,
		})
	}

	return warnings
}

// GetStatsOverview sistemin özet sayıları (admin)
func GetStatsOverview(c *fiber.Ctx) error {
	db := database.DB
	now := time.Now()

	totalUsers, err := repository.CountUsers(db)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch statistics",
		})
	}
	activeUsers, err := repository.CountActiveUsers(db)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch statistics",
		})
	}
	totalPlans, err := repository.CountPlans(db)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch statistics",
		})
	}
	totalSubscriptions, err := repository.CountSubscriptions(db)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch statistics",
		})
	}
	activeSubscriptions, err := repository.CountActiveSubscriptions(db, now)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch statistics",
		})
	}
	totalUsage, err := repository.CountUsage(db)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch statistics",
		})
	}

	return c.JSON(fiber.Map{
		"total_users":          totalUsers,
		"active_users":         activeUsers,
		"total_plans":          totalPlans,
		"total_subscriptions":  totalSubscriptions,
		"active_subscriptions": activeSubscriptions,
		"total_usage_records":  totalUsage,
	})
}

// GetGrowthStats son 12 ayın kullanıcı/abonelik/çağrı büyüme serileri (admin)
func GetGrowthStats(c *fiber.Ctx) error {
	db := database.DB
	since := repository.StartOfMonth(time.Now()).AddDate(-1, 0, 0)

	userGrowth, err := repository.MonthlyUserGrowth(db, since)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch growth statistics",
		})
	}

	subscriptionGrowth, err := repository.MonthlySubscriptionGrowth(db, since)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch growth statistics",
		})
	}

	usageGrowth, err := repository.MonthlyUsageGrowth(db, since)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch growth statistics",
		})
	}

	return c.JSON(fiber.Map{
		"user_growth":         userGrowth,
		"subscription_growth": subscriptionGrowth,
		"usage_growth":        usageGrowth,
	})
}
