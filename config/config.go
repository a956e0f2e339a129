package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET environment variable is not set")

// LoadENV loads variables from .env when GO_ENV is unset or "development".
// A missing .env file is only an error in development.
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		if err := godotenv.Load(); err != nil && goEnv == "development" {
			return err
		}
	}

	return nil
}

type EnvironmentVariable struct {
	GO_ENV string

	// Database
	DB_DRIVER    string // postgres or sqlite
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	DB_PATH      string // sqlite only

	PORT int

	// JWT
	JWT_SECRET string
	JWT_ISSUER string

	// Redis
	REDIS_URL string

	// HTTP
	ALLOWED_ORIGINS     string
	RATE_LIMIT_REQUESTS int

	// Face verification collaborator
	FACE_SERVICE_URL     string
	FACE_MATCH_THRESHOLD float64

	CRON_ENABLED bool
}

// Get reads the environment through viper, applying defaults.
func Get() (*EnvironmentVariable, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("GO_ENV", "development")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_PATH", "learnpath.db")
	v.SetDefault("PORT", 8080)
	v.SetDefault("JWT_ISSUER", "learnpath-api")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("FACE_MATCH_THRESHOLD", 0.6)
	v.SetDefault("CRON_ENABLED", true)

	for _, key := range []string{"DB_USER_NAME", "DB_PASSWORD", "DB_NAME", "JWT_SECRET", "FACE_SERVICE_URL"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	return &EnvironmentVariable{
		GO_ENV:               v.GetString("GO_ENV"),
		DB_DRIVER:            strings.ToLower(v.GetString("DB_DRIVER")),
		DB_USER_NAME:         v.GetString("DB_USER_NAME"),
		DB_PASSWORD:          v.GetString("DB_PASSWORD"),
		DB_NAME:              v.GetString("DB_NAME"),
		DB_HOST:              v.GetString("DB_HOST"),
		DB_PORT:              v.GetString("DB_PORT"),
		DB_SSL_MODE:          v.GetString("DB_SSL_MODE"),
		DB_PATH:              v.GetString("DB_PATH"),
		PORT:                 v.GetInt("PORT"),
		JWT_SECRET:           v.GetString("JWT_SECRET"),
		JWT_ISSUER:           v.GetString("JWT_ISSUER"),
		REDIS_URL:            v.GetString("REDIS_URL"),
		ALLOWED_ORIGINS:      v.GetString("ALLOWED_ORIGINS"),
		RATE_LIMIT_REQUESTS:  v.GetInt("RATE_LIMIT_REQUESTS"),
		FACE_SERVICE_URL:     v.GetString("FACE_SERVICE_URL"),
		FACE_MATCH_THRESHOLD: v.GetFloat64("FACE_MATCH_THRESHOLD"),
		CRON_ENABLED:         v.GetBool("CRON_ENABLED"),
	}, nil
}

// Validate checks the settings the server cannot start without.
func (e *EnvironmentVariable) Validate() error {
	if e.JWT_SECRET == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

// IsProduction reports whether GO_ENV is production.
func (e *EnvironmentVariable) IsProduction() bool {
	return e.GO_ENV == "production"
}
