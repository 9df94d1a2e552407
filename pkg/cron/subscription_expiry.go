package cron

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"avs_backend/internal/model"
	"avs_backend/pkg/database"
	"avs_backend/pkg/email"
)

// warningDays bitişe bu kadar gün kala uyarı maili gönderilir
var warningDays = []int{7, 3}

// InitSubscriptionExpiryJob her sabah 09:00'da bitiş uyarılarını gönderir
func InitSubscriptionExpiryJob() *cron.Cron {
	c := cron.New()

	_, err := c.AddFunc("0 9 * * *", func() {
		sendExpiryWarnings(time.Now())
	})
	if err != nil {
		log.Printf("Failed to schedule subscription expiry job: %v\n", err)
		return c
	}

	c.Start()
	log.Println("Subscription expiry job scheduled")
	return c
}

// sendExpiryWarnings abonelik durumunu değiştirmez, sadece bildirim gönderir
func sendExpiryWarnings(now time.Time) {
	if email.GlobalEmailService == nil {
		return
	}

	for _, days := range warningDays {
		targetStart := now.AddDate(0, 0, days)
		targetEnd := targetStart.AddDate(0, 0, 1)

		var subscriptions []model.Subscription
		err := database.DB.
			Where("is_active = ? AND end_date > ? AND end_date >= ? AND end_date < ?",
				true, now, targetStart, targetEnd).
			Preload("User").Preload("Plan").
			Find(&subscriptions).Error
		if err != nil {
			log.Printf("Failed to query expiring subscriptions: %v\n", err)
			continue
		}

		for i := range subscriptions {
			sub := &subscriptions[i]
			err := email.GlobalEmailService.SendSubscriptionExpiryWarning(
				sub.User.Email, sub.User.FullName, sub.Plan.Name, sub.EndDate, days)
			if err != nil {
				log.Printf("Failed to send expiry warning for subscription %d: %v\n", sub.ID, err)
			}
		}

		if len(subscriptions) > 0 {
			log.Printf("Sent %d expiry warnings for %d-day window\n", len(subscriptions), days)
		}
	}
}
