package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/stripe/stripe-go/v74"

	"avs_backend/internal/model"
	"avs_backend/internal/router"
	"avs_backend/pkg/config"
	"avs_backend/pkg/cron"
	"avs_backend/pkg/database"
	"avs_backend/pkg/email"
	"avs_backend/pkg/seed"
	"avs_backend/pkg/utils/jwt"
	"avs_backend/pkg/utils/storage"
)

func main() {
	cfg := config.Load()

	jwt.Init(cfg.JWT.Secret)
	stripe.Key = cfg.Stripe.SecretKey
	email.InitEmailService(cfg.Email.ResendAPIKey)
	if err := storage.InitStorage(cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
		log.Printf("File storage init failed: %v\n", err)
	}

	database.InitDB(cfg.Database.URL)
	err := database.MigrateDatabase(
		&model.User{},
		&model.Plan{},
		&model.Subscription{},
		&model.Usage{},
	)
	if err != nil {
		log.Fatal("Migration failed:", err)
	}

	seed.SeedDatabase(cfg)
	cron.InitSubscriptionExpiryJob()

	app := fiber.New(fiber.Config{
		AppName: "AVS Business Assistant API",
	})

	app.Use(logger.New())
	app.Use(cors.New())

	router.SetupRoutes(app)

	log.Fatal(app.Listen(":" + cfg.Server.Port))
}
