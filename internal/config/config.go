package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Client   ClientConfig
}

type AppConfig struct {
	Port           string
	Environment    string
	LogFilePath    string
	RedisURL       string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver string
	URL    string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type ClientConfig struct {
	APIURL         string
	RequestTimeout time.Duration
}

// IsProduction reports whether GO_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Load reads .env.local, then .env, then the process environment. Missing
// files are not an error; it reports whether any file was loaded.
func Load() (*Config, bool) {
	loaded := godotenv.Load(".env.local") == nil
	if godotenv.Load() == nil {
		loaded = true
	}

	return &Config{
		App: AppConfig{
			Port:           getEnv("PORT", "8080"),
			Environment:    getEnv("GO_ENV", "development"),
			LogFilePath:    getEnv("LOG_FILE_PATH", ""),
			RedisURL:       getEnv("REDIS_URL", ""),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "postgres"),
			URL:    getEnv("DATABASE_URL", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvAsDuration("JWT_TTL", 24*time.Hour),
		},
		Client: ClientConfig{
			APIURL:         getEnv("CHAT_API_URL", "http://localhost:8080"),
			RequestTimeout: getEnvAsDuration("CHAT_REQUEST_TIMEOUT", 30*time.Second),
		},
	}, loaded
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
