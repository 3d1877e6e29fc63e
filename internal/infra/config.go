package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv                 string
	Port                   string
	DatabaseURL            string
	JWTSecret              string
	GenerationServiceURL   string
	GenerationServiceToken string
	SubmitTimeout          time.Duration
	PollInitialInterval    time.Duration
	PollMaxInterval        time.Duration
	PollCeiling            time.Duration
	HTTPReadTimeout        time.Duration
	HTTPWriteTimeout       time.Duration
	HTTPIdleTimeout        time.Duration
	RateLimitPerMin        int
	CORSAllowedOrigins     []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                 getEnv("APP_ENV", "development"),
		Port:                   getEnv("PORT", "8080"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		GenerationServiceURL:   getEnv("GENERATION_SERVICE_URL", "http://localhost:8000/api"),
		GenerationServiceToken: os.Getenv("GENERATION_SERVICE_TOKEN"),
		SubmitTimeout:          time.Second * time.Duration(getEnvInt("SUBMIT_TIMEOUT_SECONDS", 30)),
		PollInitialInterval:    time.Second * time.Duration(getEnvInt("POLL_INITIAL_SECONDS", 2)),
		PollMaxInterval:        time.Second * time.Duration(getEnvInt("POLL_MAX_SECONDS", 30)),
		PollCeiling:            time.Second * time.Duration(getEnvInt("POLL_CEILING_SECONDS", 600)),
		HTTPReadTimeout:        time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:       time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:        time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:        getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		CORSAllowedOrigins:     splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.PollInitialInterval <= 0 || cfg.PollMaxInterval < cfg.PollInitialInterval {
		return nil, fmt.Errorf("poll intervals are inconsistent")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
