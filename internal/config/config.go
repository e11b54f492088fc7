package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Development bool
	// API configuration
	APIPort int
	// SiteURL is the public base URL the hosted checkout redirects back to.
	SiteURL string
	// Postgres configuration
	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     int
	PostgresDB       string
	// Stripe configuration
	StripeSecretKey     string
	StripeWebhookSecret string
	// Campaign configuration
	GoalAmount float64
	// MinDonationAmount is the smallest accepted donation in whole units.
	MinDonationAmount float64

	// SMTP configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPSender   string
	SMTPReplyTo  string

	// Telegram admin-channel configuration
	TelegramBotToken string
	TelegramChatID   string

	// Admin reporting credentials (HTTP basic auth)
	AdminUsername string
	AdminPassword string
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Development:         getEnvAsBool("DEVELOPMENT", false),
		APIPort:             getEnvAsInt("API_PORT", 8080),
		SiteURL:             getEnv("SITE_URL", "https://josegomes.fund"),
		PostgresUser:        getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword:    getEnv("POSTGRES_PASSWORD", "password"),
		PostgresHost:        getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:        getEnvAsInt("POSTGRES_PORT", 5432),
		PostgresDB:          getEnv("POSTGRES_DB", "campaign"),
		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		GoalAmount:          getEnvAsFloat("GOAL_AMOUNT", 25000),
		MinDonationAmount:   getEnvAsFloat("MIN_DONATION_AMOUNT", 1),
		SMTPHost:            getEnv("SMTP_HOST", "smtp.example.com"),
		SMTPPort:            getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:            getEnv("SMTP_USER", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		SMTPSender:          getEnv("SMTP_SENDER", "campaign@josegomes.fund"),
		SMTPReplyTo:         getEnv("SMTP_REPLY_TO", "family@josegomes.fund"),
		TelegramBotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:      getEnv("TELEGRAM_CHAT_ID", ""),
		AdminUsername:       getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:       getEnv("ADMIN_PASSWORD", ""),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are properly set
func (c *Config) Validate() error {
	if c.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}

	if c.StripeWebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}

	if c.SiteURL == "" {
		return fmt.Errorf("SITE_URL is required")
	}

	if c.PostgresDB == "" {
		return fmt.Errorf("POSTGRES_DB is required")
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}

	if c.MinDonationAmount <= 0 {
		return fmt.Errorf("MIN_DONATION_AMOUNT must be positive")
	}

	// Telegram is optional, but a token without a chat makes no sense
	if c.TelegramBotToken != "" && c.TelegramChatID == "" {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}

	return nil
}

// Helper functions to read environment variables
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsFloat(name string, defaultValue float64) float64 {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
			return value
		}
	}
	return defaultValue
}
