package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver      string
	DBDSN         string
	ServerPort    string
	SessionSecret string
	Env           string

	LogLevel  string
	LogFormat string

	AdminEmail    string
	AdminPassword string
	SeedDemo      bool

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := FromEnv()

	if cfg.DBDSN == "" {
		log.Fatal("DB_DSN is not set")
	}
	if cfg.SessionSecret == "" {
		log.Fatal("SESSION_SECRET is not set")
	}
	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		log.Fatalf("DB_DRIVER must be postgres or sqlite, got %q", cfg.DBDriver)
	}

	return cfg
}

// FromEnv читает переменные окружения и подставляет значения по умолчанию.
// Обязательные значения не проверяются.
func FromEnv() *Config {
	cfg := &Config{
		DBDriver:      getEnv("DB_DRIVER", "postgres"),
		DBDSN:         os.Getenv("DB_DSN"),
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		Env:           getEnv("ENV", "development"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@pulse.local"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "Admin123!"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  getEnv("GOOGLE_CALLBACK_URL", "http://localhost:8080/api/auth/google/callback"),
	}

	if v, err := strconv.ParseBool(os.Getenv("SEED_DEMO")); err == nil {
		cfg.SeedDemo = v
	}

	return cfg
}

func (c *Config) Production() bool {
	return c.Env == "production"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
