package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string

	// DatabaseURL empty means the in-memory store, used for local runs and tests.
	DatabaseURL string

	KafkaBrokers []string
	KafkaTopic   string

	ConsulAddr string

	JWTSecret      string
	GatewayBaseURL string
}

// Load reads configuration from the environment, with .env as a convenience
// for local development.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		ServiceName:    getenvDefault("SERVICE_NAME", "order-intake"),
		Env:            getenvDefault("ENV", "dev"),
		HTTPAddr:       getenvDefault("HTTP_ADDR", ":8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		KafkaBrokers:   splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:     getenvDefault("KAFKA_TOPIC", "order-events"),
		ConsulAddr:     os.Getenv("CONSUL_HTTP_ADDR"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		GatewayBaseURL: os.Getenv("RAZORPAY_BASE_URL"),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
