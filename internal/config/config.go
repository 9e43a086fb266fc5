package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	GeminiAPIKey   string
	DatabaseURL    string
	HTTPPort       string
	Environment    string
	JWTSecret      string
	FrontendURL    string
	AllowedOrigins []string
}

// Load reads configuration from the environment, preferring a .env file when
// one is present. It fails when a required secret is missing rather than
// falling back to a default.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		DatabaseURL:  getEnv("DATABASE_URL", "personachat.db"),
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		FrontendURL:  getEnv("FRONTEND_URL", ""),
	}

	for _, origin := range strings.Split(getEnv("ALLOWED_ORIGINS", ""), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs in a development
// environment, which relaxes the CORS allowlist.
func (c *Config) IsDevelopment() bool {
	return c.Environment != "production"
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
