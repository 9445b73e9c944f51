package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewProcessCatalogHolder),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	// DefaultOrgID is the platform organization. Roles held there govern
	// writes to the shared process-template catalog.
	DefaultOrgID         int64
	BootstrapAdminUserID int64
	SnowflakeNode        int64

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	WorkflowCacheTTL time.Duration

	// Per-organization token bucket for mutating API calls. Needs redis.
	WriteRateLimit float64
	WriteRateBurst int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:              getenv("APP_SERVICE", "pathway"),
		AppVersion:           getenv("APP_VERSION", "0.1.0"),
		Environment:          getenv("ENVIRONMENT", "development"),
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		DefaultOrgID:         getenvInt64("DEFAULT_ORG", 0),
		BootstrapAdminUserID: getenvInt64("BOOTSTRAP_ADMIN_USER_ID", 0),
		SnowflakeNode:        getenvInt64("SNOWFLAKE_NODE", 1),
		OTLPEndpoint:         getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:               getenv("DATABASE_TYPE", "postgres"),
		DBHost:               getenv("DATABASE_HOST", "localhost"),
		DBPort:               getenv("DATABASE_PORT", "5432"),
		DBName:               getenv("DATABASE_NAME", "pathway"),
		DBUser:               getenv("DATABASE_USER", "postgres"),
		DBPassword:           getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:            getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:        getenvInt("DATABASE_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:        getenvInt("DATABASE_MAX_OPEN_CONN", 50),
		DBConnMaxLifetime:    getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime:    getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		RedisAddr:            strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword:        getenv("REDIS_PASSWORD", ""),
		RedisDB:              getenvInt("REDIS_DB", 0),
		WorkflowCacheTTL:     getenvDuration("CACHE_WORKFLOW_TTL", 5*time.Minute),
		WriteRateLimit:       getenvFloat("RATE_LIMIT_WRITE_RATE", 10),
		WriteRateBurst:       getenvInt("RATE_LIMIT_WRITE_BURST", 20),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
