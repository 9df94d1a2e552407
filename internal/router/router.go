package router

import (
	"github.com/gofiber/fiber/v2"

	"avs_backend/internal/controller"
	"avs_backend/internal/middleware"
)

// SetupRoutes tüm API rotalarını tanımlar. Parametreli rotalar
// statik rotalardan sonra kaydedilir.
func SetupRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth
	auth := api.Group("/auth")
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)

	// Users
	users := api.Group("/users", middleware.AuthMiddleware())
	users.Get("/", middleware.AdminMiddleware(), controller.GetUsers)
	users.Get("/with-stats", middleware.AdminMiddleware(), controller.GetUsersWithStats)
	users.Post("/", middleware.AdminMiddleware(), controller.CreateUser)
	users.Get("/me", controller.GetMe)
	users.Put("/me", controller.UpdateMe)
	users.Get("/me/dashboard", controller.GetMyDashboard)
	users.Get("/:id", controller.GetUser)
	users.Get("/:id/dashboard", middleware.AdminMiddleware(), controller.GetUserDashboard)
	users.Put("/:id", middleware.AdminMiddleware(), controller.UpdateUser)
	users.Delete("/:id", middleware.AdminMiddleware(), controller.DeleteUser)
	users.Post("/:id/activate", middleware.AdminMiddleware(), controller.ActivateUser)
	users.Post("/:id/deactivate", middleware.AdminMiddleware(), controller.DeactivateUser)

	// Plans
	plans := api.Group("/plans")
	plans.Get("/", controller.GetActivePlans)
	plans.Get("/slug/:slug", controller.GetPlanBySlug)
	plans.Get("/all", middleware.AuthMiddleware(), middleware.AdminMiddleware(), controller.GetAllPlans)
	plans.Get("/with-stats", middleware.AuthMiddleware(), middleware.AdminMiddleware(), controller.GetPlansWithStats)
	plans.Get("/popular", controller.GetPopularPlans)
	plans.Post("/", middleware.AuthMiddleware(), middleware.AdminMiddleware(), controller.CreatePlan)
	plans.Get("/:id", controller.GetPlan)
	plans.Put("/:id", middleware.AuthMiddleware(), middleware.AdminMiddleware(), controller.UpdatePlan)
	plans.Delete("/:id", middleware.AuthMiddleware(), middleware.AdminMiddleware(), controller.DeletePlan)
	plans.Post("/:id/activate", middleware.AuthMiddleware(), middleware.AdminMiddleware(), controller.ActivatePlan)
	plans.Post("/:id/deactivate", middleware.AuthMiddleware(), middleware.AdminMiddleware(), controller.DeactivatePlan)

	// Subscriptions
	subscriptions := api.Group("/subscriptions", middleware.AuthMiddleware())
	subscriptions.Get("/", middleware.AdminMiddleware(), controller.GetSubscriptions)
	subscriptions.Get("/me", controller.GetMySubscriptions)
	subscriptions.Get("/me/active", controller.GetMyActiveSubscription)
	subscriptions.Get("/expiring", middleware.AdminMiddleware(), controller.GetExpiringSubscriptions)
	subscriptions.Get("/analytics", middleware.AdminMiddleware(), controller.GetSubscriptionAnalytics)
	subscriptions.Get("/revenue", middleware.AdminMiddleware(), controller.GetRevenueStats)
	subscriptions.Post("/", controller.CreateSubscription)
	subscriptions.Get("/:id", controller.GetSubscription)
	subscriptions.Put("/:id", middleware.AdminMiddleware(), controller.UpdateSubscription)
	subscriptions.Post("/:id/cancel", controller.CancelSubscription)
	subscriptions.Post("/:id/renew", controller.RenewSubscription)

	// Usage
	usage := api.Group("/usage", middleware.AuthMiddleware())
	usage.Get("/", middleware.AdminMiddleware(), controller.GetUsageRecords)
	usage.Get("/me", controller.GetMyUsage)
	usage.Get("/me/monthly/:year/:month", controller.GetMyMonthlyUsage)
	usage.Get("/analytics", middleware.AdminMiddleware(), controller.GetUsageAnalytics)
	usage.Get("/active-calls", middleware.AdminMiddleware(), controller.GetActiveCalls)
	usage.Post("/", controller.CreateUsage)
	usage.Get("/user/:user_id", middleware.AdminMiddleware(), controller.GetUserUsage)
	usage.Get("/user/:user_id/monthly/:year/:month", middleware.AdminMiddleware(), controller.GetUserMonthlyUsage)
	usage.Put("/call/:call_id/end", controller.EndCall)
	usage.Get("/:id", controller.GetUsageRecord)
	usage.Put("/:id", middleware.AdminMiddleware(), controller.UpdateUsage)
	usage.Delete("/:id", middleware.AdminMiddleware(), controller.DeleteUsage)

	// Dashboard
	dashboard := api.Group("/dashboard", middleware.AuthMiddleware())
	dashboard.Get("/admin", middleware.AdminMiddleware(), controller.GetAdminDashboard)
	dashboard.Get("/user", controller.GetUserDashboardView)

	// Stats
	stats := api.Group("/stats", middleware.AuthMiddleware(), middleware.AdminMiddleware())
	stats.Get("/overview", controller.GetStatsOverview)
	stats.Get("/growth", controller.GetGrowthStats)

	// Billing
	billing := api.Group("/billing", middleware.AuthMiddleware())
	billing.Get("/invoices/me", controller.GetMyInvoices)
	billing.Get("/invoices", middleware.AdminMiddleware(), controller.GetInvoices)
	billing.Get("/revenue/summary", middleware.AdminMiddleware(), controller.GetRevenueSummary)
	billing.Get("/payment-methods", middleware.AdminMiddleware(), controller.GetPaymentMethods)
	billing.Get("/failed-payments", middleware.AdminMiddleware(), controller.GetFailedPayments)
	billing.Get("/pending-payments", middleware.AdminMiddleware(), controller.GetPendingPayments)
	billing.Post("/process-payment", controller.ProcessPayment)
	billing.Post("/refund/:subscription_id", middleware.AdminMiddleware(), controller.RefundPayment)
	billing.Get("/export/invoices", middleware.AdminMiddleware(), controller.ExportInvoices)
}
