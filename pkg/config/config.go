package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Stripe    StripeConfig
	Storage   StorageConfig
	Email     EmailConfig
	Superuser SuperuserConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	URL string
}

type JWTConfig struct {
	Secret string
}

type StripeConfig struct {
	SecretKey string
}

type StorageConfig struct {
	Bucket string
	Region string
}

type EmailConfig struct {
	ResendAPIKey string
}

type SuperuserConfig struct {
	Email    string
	Password string
}

func Load() *Config {
	godotenv.Load() // .env dosyasını yükle

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", defaultDatabaseURL()),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		},
		Stripe: StripeConfig{
			SecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		},
		Storage: StorageConfig{
			Bucket: getEnv("S3_BUCKET", ""),
			Region: getEnv("S3_REGION", "eu-central-1"),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		},
		Superuser: SuperuserConfig{
			Email:    getEnv("FIRST_SUPERUSER_EMAIL", "admin@avs.com"),
			Password: getEnv("FIRST_SUPERUSER_PASSWORD", "admin123"),
		},
	}
}

func defaultDatabaseURL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s",
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "password"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "avs_admin"),
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
