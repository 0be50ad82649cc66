package config

import (
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv                string
	DBPath                string
	DBDriver              string
	RedisAddr             string
	GRPCPort              int
	GRPCReflectionEnabled bool
	GRPCLoggingEnabled    bool
	CatalogueCacheTTL     time.Duration
	ResponsesCacheTTL     time.Duration
	SessionTTL            time.Duration
	GRPCMaxMessageBytes   int
	HealthProbeInterval   time.Duration
	// CatalogueSeedFile, when set, replaces the stored catalogue at startup.
	CatalogueSeedFile string
}

// LoadFromEnv loads configuration from environment variables. Unparsable
// values fall back to their defaults.
func LoadFromEnv() *Config {
	return &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		DBPath:                getEnv("DB_PATH", "./data/evaluations.db"),
		DBDriver:              getEnv("DB_DRIVER", "sqlite3"),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		GRPCPort:              getInt("GRPC_PORT", 50051),
		GRPCReflectionEnabled: getBool("GRPC_REFLECTION_ENABLED", false),
		GRPCLoggingEnabled:    getBool("GRPC_LOGGING_ENABLED", true),
		CatalogueCacheTTL:     getDuration("CATALOGUE_CACHE_TTL", 5*time.Minute),
		ResponsesCacheTTL:     getDuration("RESPONSES_CACHE_TTL", time.Minute),
		SessionTTL:            getDuration("SESSION_TTL", 12*time.Hour),
		GRPCMaxMessageBytes:   getInt("GRPC_MAX_MESSAGE_BYTES", 16<<20),
		HealthProbeInterval:   getDuration("HEALTH_PROBE_INTERVAL", 15*time.Second),
		CatalogueSeedFile:     getEnv("CATALOGUE_SEED_FILE", ""),
	}
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
