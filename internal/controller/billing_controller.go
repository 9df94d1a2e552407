package controller

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/refund"
	"gorm.io/gorm"

	"avs_backend/internal/middleware"
	"avs_backend/internal/model"
	"avs_backend/internal/repository"
	"avs_backend/pkg/database"
	"avs_backend/pkg/email"
	"avs_backend/pkg/utils/storage"
	"avs_backend/pkg/utils/validation"
)

type ProcessPaymentInput struct {
	PlanID        uint   `json:"plan_id" validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"required"`
}

type RefundInput struct {
	RefundAmount *float64 `json:"refund_amount" validate:"omitempty,gt=0"`
	Reason       string   `json:"reason"`
}

func invoiceFromSubscription(sub *model.Subscription) fiber.Map {
	return fiber.Map{
		"invoice_number":  fmt.Sprintf("INV-%d", sub.ID),
		"subscription_id": sub.ID,
		"plan_name":       sub.Plan.Name,
		"amount":          sub.PaymentAmount,
		"payment_method":  sub.PaymentMethod,
		"payment_id":      sub.PaymentID,
		"status":          sub.PaymentStatus,
		"date":            sub.CreatedAt,
		"period_start":    sub.StartDate,
		"period_end":      sub.EndDate,
	}
}

func roundCurrency(value float64) float64 {
	return math.Round(value*100) / 100
}

// GetMyInvoices kullanıcının tamamlanmış ödemelerinden fatura listesi
func GetMyInvoices(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	skip, limit := paginationParams(c)

	var subscriptions []model.Subscription
	err := database.DB.
		Where("user_id = ? AND payment_status = ?", user.ID, model.PaymentStatusCompleted).
		Preload("Plan").
		Order("created_at DESC").
		Offset(skip).Limit(limit).
		Find(&subscriptions).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch invoices",
		})
	}

	invoices := make([]fiber.Map, 0, len(subscriptions))
	for i := range subscriptions {
		invoices = append(invoices, invoiceFromSubscription(&subscriptions[i]))
	}

	return c.JSON(fiber.Map{
		"invoices": invoices,
		"skip":     skip,
		"limit":    limit,
	})
}

// GetInvoices tüm faturalar, filtreli (admin)
func GetInvoices(c *fiber.Ctx) error {
	skip, limit := paginationParams(c)

	query := database.DB.Model(&model.Subscription{}).
		Where("subscriptions.payment_status = ?", model.PaymentStatusCompleted)

	if userEmail := c.Query("user_email"); userEmail != "" {
		query = query.
			Joins("JOIN users ON users.id = subscriptions.user_id").
			Where("LOWER(users.email) LIKE ?", "%"+strings.ToLower(userEmail)+"%")
	}

	startDate, err := parseDateQuery(c, "start_date")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid start_date format",
		})
	}
	if startDate != nil {
		query = query.Where("subscriptions.created_at >= ?", *startDate)
	}
	endDate, err := parseDateQuery(c, "end_date")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid end_date format",
		})
	}
	if endDate != nil {
		query = query.Where("subscriptions.created_at <= ?", *endDate)
	}

	var subscriptions []model.Subscription
	err = query.
		Preload("User").Preload("Plan").
		Order("subscriptions.created_at DESC").
		Offset(skip).Limit(limit).
		Find(&subscriptions).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch invoices",
		})
	}

	invoices := make([]fiber.Map, 0, len(subscriptions))
	for i := range subscriptions {
		invoice := invoiceFromSubscription(&subscriptions[i])
		invoice["user"] = fiber.Map{
			"id":        subscriptions[i].User.ID,
			"email":     subscriptions[i].User.Email,
			"full_name": subscriptions[i].User.FullName,
		}
		invoices = append(invoices, invoice)
	}

	return c.JSON(fiber.Map{
		"invoices": invoices,
		"skip":     skip,
		"limit":    limit,
	})
}

// GetRevenueSummary tarih aralıklı genel gelir özeti, plan kırılımı
// ve cari/önceki takvim ayı karşılaştırması (admin)
func GetRevenueSummary(c *fiber.Ctx) error {
	now := time.Now()

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

	overallStats, err := repository.GetRevenueStats(database.DB, startDate, endDate)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch revenue summary",
		})
	}

	currentStart := repository.StartOfMonth(now)
	currentStats, err := repository.GetRevenueStats(database.DB, &currentStart, nil)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch revenue summary",
		})
	}

	previousStart := repository.PreviousMonthStart(now)
	previousEnd := currentStart.Add(-time.Second)
	previousStats, err := repository.GetRevenueStats(database.DB, &previousStart, &previousEnd)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch revenue summary",
		})
	}

	growthRate := 0.0
	if previousStats.TotalRevenue > 0 {
		growthRate = (currentStats.TotalRevenue - previousStats.TotalRevenue) / previousStats.TotalRevenue * 100
	}

	return c.JSON(fiber.Map{
		"total_revenue":                    roundCurrency(overallStats.TotalRevenue),
		"total_subscriptions":              overallStats.TotalSubscriptions,
		"average_revenue_per_subscription": roundCurrency(overallStats.AverageRevenuePerSubscription),
		"plan_breakdown":                   overallStats.PlanBreakdown,
		"current_month": fiber.Map{
			"revenue":       roundCurrency(currentStats.TotalRevenue),
			"subscriptions": currentStats.TotalSubscriptions,
		},
		"previous_month": fiber.Map{
			"revenue":       roundCurrency(previousStats.TotalRevenue),
			"subscriptions": previousStats.TotalSubscriptions,
		},
		"growth": fiber.Map{
			"revenue_growth_rate": roundCurrency(growthRate),
			"revenue_difference":  roundCurrency(currentStats.TotalRevenue - previousStats.TotalRevenue),
		},
	})
}

// GetPaymentMethods tamamlanmış ödemelerin yöntem dağılımı (admin)
func GetPaymentMethods(c *fiber.Ctx) error {
	stats, err := repository.GetPaymentMethodStats(database.DB)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch payment methods",
		})
	}

	return c.JSON(fiber.Map{
		"payment_methods": stats,
	})
}

func listSubscriptionsByPaymentStatus(c *fiber.Ctx, status string) error {
	skip, limit := paginationParams(c)

	var subscriptions []model.Subscription
	err := database.DB.
		Where("payment_status = ?", status).
		Preload("User").Preload("Plan").
		Order("created_at DESC").
		Offset(skip).Limit(limit).
		Find(&subscriptions).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch payments",
		})
	}

	return c.JSON(fiber.Map{
		"payments": subscriptions,
		"count":    len(subscriptions),
		"skip":     skip,
		"limit":    limit,
	})
}

// GetFailedPayments başarısız ödemeli abonelikler (admin)
func GetFailedPayments(c *fiber.Ctx) error {
	return listSubscriptionsByPaymentStatus(c, model.PaymentStatusFailed)
}

// GetPendingPayments ödemesi bekleyen abonelikler (admin)
func GetPendingPayments(c *fiber.Ctx) error {
	return listSubscriptionsByPaymentStatus(c, model.PaymentStatusPending)
}

// ProcessPayment plan satın alma; Stripe anahtarı varsa gerçek, yoksa simüle ödeme
func ProcessPayment(c *fiber.Ctx) error {
	current := middleware.CurrentUser(c)
	now := time.Now()

	var input ProcessPaymentInput
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

	if _, err := repository.GetUserActiveSubscription(database.DB, current.ID, now); err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User already has an active subscription",
		})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check existing subscription",
		})
	}

	paymentID := ""
	if stripe.Key != "" {
		intent, err := paymentintent.New(&stripe.PaymentIntentParams{
			Amount:   stripe.Int64(int64(plan.Price * 100)),
			Currency: stripe.String(string(stripe.CurrencyUSD)),
			PaymentMethodTypes: stripe.StringSlice([]string{
				"card",
			}),
			Params: stripe.Params{
				Metadata: map[string]string{
					"user_id": strconv.FormatUint(uint64(current.ID), 10),
					"plan_id": strconv.FormatUint(uint64(plan.ID), 10),
				},
			},
		})
		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "Payment provider error",
			})
		}
		paymentID = intent.ID
	} else {
		paymentID = fmt.Sprintf("pay_%d_%s", now.Unix(), uuid.NewString()[:8])
	}

	subscription, err := repository.CreateSubscription(database.DB, repository.CreateSubscriptionParams{
		UserID:        current.ID,
		PlanID:        plan.ID,
		PaymentStatus: model.PaymentStatusCompleted,
		PaymentAmount: plan.Price,
		PaymentMethod: input.PaymentMethod,
		PaymentID:     paymentID,
	}, now)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create subscription",
		})
	}

	if email.GlobalEmailService != nil {
		go email.GlobalEmailService.SendSubscriptionStartedEmail(
			current.Email, current.FullName, plan.Name, subscription.EndDate)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Payment processed successfully",
		"payment_id":   paymentID,
		"subscription": subscription,
	})
}

// RefundPayment tamamlanmış ödemeyi iade eder ve aboneliği kapatır (admin)
func RefundPayment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("subscription_id")
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

	if subscription.PaymentStatus != model.PaymentStatusCompleted {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Only completed payments can be refunded",
		})
	}

	var input RefundInput
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

	refundAmount := subscription.PaymentAmount
	if input.RefundAmount != nil {
		refundAmount = *input.RefundAmount
	}
	if refundAmount > subscription.PaymentAmount {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Refund amount cannot exceed payment amount",
		})
	}

	// Stripe üzerinden alınan ödemelerde gerçek iade çağrısı yapılır
	if stripe.Key != "" && len(subscription.PaymentID) > 3 && subscription.PaymentID[:3] == "pi_" {
		_, err := refund.New(&stripe.RefundParams{
			PaymentIntent: stripe.String(subscription.PaymentID),
			Amount:        stripe.Int64(int64(refundAmount * 100)),
		})
		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "Payment provider error",
			})
		}
	}

	err = repository.UpdateSubscription(database.DB, subscription, map[string]interface{}{
		"payment_status": model.PaymentStatusRefunded,
		"is_active":      false,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to refund payment",
		})
	}

	return c.JSON(fiber.Map{
		"message":         "Payment refunded successfully",
		"refund_amount":   roundCurrency(refundAmount),
		"subscription_id": subscription.ID,
	})
}

// ExportInvoices tamamlanmış ödemeleri CSV'ye aktarır; S3 yapılandırıldıysa yükler (admin)
func ExportInvoices(c *fiber.Ctx) error {
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

	query := database.DB.
		Where("payment_status = ?", model.PaymentStatusCompleted)
	if startDate != nil {
		query = query.Where("created_at >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("created_at <= ?", *endDate)
	}

	var subscriptions []model.Subscription
	err = query.
		Preload("User").Preload("Plan").
		Order("created_at").
		Find(&subscriptions).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export invoices",
		})
	}

	var buffer bytes.Buffer
	writer := csv.NewWriter(&buffer)
	writer.Write([]string{
		"invoice_number", "user_email", "plan_name", "amount",
		"payment_method", "payment_id", "date",
	})
	for i := range subscriptions {
		sub := &subscriptions[i]
		writer.Write([]string{
			fmt.Sprintf("INV-%d", sub.ID),
			sub.User.Email,
			sub.Plan.Name,
			strconv.FormatFloat(sub.PaymentAmount, 'f', 2, 64),
			sub.PaymentMethod,
			sub.PaymentID,
			sub.CreatedAt.Format("2006-01-02"),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export invoices",
		})
	}

	fileName := fmt.Sprintf("invoices/%s-%s.csv", time.Now().Format("20060102"), uuid.NewString()[:8])

	if storage.Enabled() {
		fileURL, err := storage.UploadCSV(c.Context(), fileName, buffer.Bytes())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to upload export file",
			})
		}
		return c.JSON(fiber.Map{
			"message":      "Invoices exported successfully",
			"file_url":     fileURL,
			"record_count": len(subscriptions),
		})
	}

	return c.JSON(fiber.Map{
		"message":      fmt.Sprintf("Export prepared with %d records", len(subscriptions)),
		"record_count": len(subscriptions),
		"download_url": fmt.Sprintf("/api/v1/billing/download/invoices_%s.csv", time.Now().Format("20060102")),
	})
}
