package seed

import (
	"encoding/json"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"avs_backend/internal/model"
	"avs_backend/pkg/config"
	"avs_backend/pkg/database"
)

// SeedDatabase superuser ve varsayılan planları oluşturur; mevcut kayıtlar atlanır
func SeedDatabase(cfg *config.Config) {
	seedSuperuser(cfg)
	seedDefaultPlans()
}

func seedSuperuser(cfg *config.Config) {
	db := database.DB

	var existing model.User
	if err := db.Where("email = ?", cfg.Superuser.Email).First(&existing).Error; err == nil {
		return
	} else if err != gorm.ErrRecordNotFound {
		log.Printf("Failed to check superuser: %v\n", err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.Superuser.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Failed to hash superuser password: %v\n", err)
		return
	}

	superuser := model.User{
		Email:       cfg.Superuser.Email,
		Password:    string(hashedPassword),
		FullName:    "System Administrator",
		IsActive:    true,
		IsSuperuser: true,
	}
	if err := db.Create(&superuser).Error; err != nil {
		log.Printf("Failed to create superuser: %v\n", err)
		return
	}
	log.Println("Superuser created:", cfg.Superuser.Email)
}

type planSeed struct {
	Name         string
	Slug         string
	Description  string
	Price        float64
	DurationDays int
	MaxCalls     int
	MaxMinutes   int
	Features     map[string]interface{}
}

func seedDefaultPlans() {
	db := database.DB

	plans := []planSeed{
		{
			Name:         "Starter",
			Slug:         "starter",
			Description:  "Entry plan for trying out the assistant",
			Price:        9.99,
			DurationDays: 30,
			MaxCalls:     25,
			MaxMinutes:   100,
			Features: map[string]interface{}{
				"call_recording": false,
				"call_summary":   false,
				"support":        "email",
			},
		},
		{
			Name:         "Basic",
			Slug:         "basic",
			Description:  "For small teams with light call volume",
			Price:        29.99,
			DurationDays: 30,
			MaxCalls:     100,
			MaxMinutes:   500,
			Features: map[string]interface{}{
				"call_recording": true,
				"call_summary":   false,
				"support":        "email",
			},
		},
		{
			Name:         "Professional",
			Slug:         "professional",
			Description:  "For growing businesses with steady call traffic",
			Price:        79.99,
			DurationDays: 30,
			MaxCalls:     500,
			MaxMinutes:   2000,
			Features: map[string]interface{}{
				"call_recording": true,
				"call_summary":   true,
				"support":        "priority",
			},
		},
		{
			Name:         "Enterprise",
			Slug:         "enterprise",
			Description:  "High volume plan with full feature access",
			Price:        199.99,
			DurationDays: 30,
			MaxCalls:     2000,
			MaxMinutes:   10000,
			Features: map[string]interface{}{
				"call_recording":  true,
				"call_summary":    true,
				"support":         "dedicated",
				"custom_greeting": true,
			},
		},
	}

	for _, item := range plans {
		var existing model.Plan
		if err := db.Where("name = ?", item.Name).First(&existing).Error; err == nil {
			continue
		}

		features, err := json.Marshal(item.Features)
		if err != nil {
			log.Printf("Failed to marshal features for plan %s: %v\n", item.Name, err)
			continue
		}

		maxCalls := item.MaxCalls
		maxMinutes := item.MaxMinutes
		plan := model.Plan{
			Name:         item.Name,
			Slug:         item.Slug,
			Description:  item.Description,
			Price:        item.Price,
			DurationDays: item.DurationDays,
			MaxCalls:     &maxCalls,
			MaxMinutes:   &maxMinutes,
			Features:     datatypes.JSON(features),
			IsActive:     true,
		}
		if err := db.Create(&plan).Error; err != nil {
			log.Printf("Failed to create plan %s: %v\n", item.Name, err)
			continue
		}
		log.Println("Plan created:", item.Name)
	}
}
