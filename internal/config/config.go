package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Postgres DSN for the catalog and orders tables.
	DatabaseDSN string

	// RabbitMQ. Empty URL disables event publishing.
	RabbitURL string

	// YooKassa credentials. Both must be set before payment-session
	// creation is attempted.
	ShopID         string
	SecretKey      string
	PaymentAPIURL  string
	PaymentTimeout time.Duration
	ReturnURL      string

	// Shared secret for the admin product endpoints.
	AdminKey string

	// CORS
	CORSAllowOrigins []string
}

func Load() Config {
	cfg := Config{
		Port:        getenv("PORT", "4000"),
		DatabaseDSN: os.Getenv("DATABASE_DSN"),

		RabbitURL: os.Getenv("RABBITMQ_URL"),

		ShopID:         os.Getenv("YK_SHOP_ID"),
		SecretKey:      os.Getenv("YK_SECRET_KEY"),
		PaymentAPIURL:  getenv("YK_API_URL", "https://api.yookassa.ru/v3"),
		PaymentTimeout: parseDuration(getenv("YK_TIMEOUT", "20s"), 20*time.Second),
		ReturnURL:      getenv("RETURN_URL", "https://example.com"),

		AdminKey: getenv("ADMIN_KEY", "dev123"),

		CORSAllowOrigins: splitCSV(getenv("CORS_ALLOW_ORIGINS", "*")),
	}

	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
