// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vaniflow/vaniflow/internal/routing"
)

// Config is everything the server needs at startup.
type Config struct {
	ListenAddr string
	LogLevel   string

	JWTSecret string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	SarvamAPIKey string
	SarvamSTTURL string

	// RedisAddr selects the redis store backend; empty means the in-memory
	// development fallback.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Remote endpoints per routed service; empty means simulated locally.
	Microservices routing.Endpoints
}

// Load reads the environment, applying defaults and validating that required
// secrets are present. Missing requirements are reported together so a broken
// deployment fails fast with the full list.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:    getenv("VANIFLOW_ADDR", ":8080"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getenv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL: getenv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		SarvamAPIKey:  os.Getenv("SARVAM_API_KEY"),
		SarvamSTTURL:  getenv("SARVAM_STT_URL", "https://api.sarvam.ai/speech-to-text-translate"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getenvInt("REDIS_DB", 0),
		Microservices: routing.Endpoints{
			Ticketing:   os.Getenv("TICKETING_SERVICE_URL"),
			Reservation: os.Getenv("RESERVATION_SERVICE_URL"),
			Knowledge:   os.Getenv("KNOWLEDGE_SERVICE_URL"),
			Payment:     os.Getenv("PAYMENT_SERVICE_URL"),
			Support:     os.Getenv("SUPPORT_SERVICE_URL"),
		},
	}

	var missing []string
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if cfg.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if cfg.SarvamAPIKey == "" {
		missing = append(missing, "SARVAM_API_KEY")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func getenv(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func getenvInt(name string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(name))
	if err != nil {
		return fallback
	}
	return value
}
