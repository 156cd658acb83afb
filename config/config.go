package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

type Config struct {
	Port              string
	GinMode           string
	LogLevel          string
	DBDriver          string
	DBDSN             string
	JWTSecret         string
	NotificationsWS   string
	SchedulerInterval time.Duration
	LiveFeedReconnect time.Duration
	WSWriteTimeout    time.Duration
	MFAPIBaseURL      string
	CORSOrigin        string
	RateLimitPerSec   float64
	RateLimitBurst    int
}

// Load reads the configuration from the environment. Invalid numbers and
// durations fall back to their defaults.
func Load() Config {
	return Config{
		Port:              getEnv("PORT", "4000"),
		GinMode:           getEnv("GIN_MODE", "debug"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DBDriver:          strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		DBDSN:             getEnv("DB_DSN", "mf_tracker.db"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		NotificationsWS:   os.Getenv("NOTIFICATIONS_WS_URL"),
		SchedulerInterval: getDuration("SCHEDULER_INTERVAL", 30*time.Second),
		LiveFeedReconnect: getDuration("LIVEFEED_RECONNECT", 5*time.Second),
		WSWriteTimeout:    getDuration("WS_WRITE_TIMEOUT", 10*time.Second),
		MFAPIBaseURL:      strings.TrimRight(getEnv("MFAPI_BASE_URL", "https://api.mfapi.in"), "/"),
		CORSOrigin:        getEnv("CORS_ORIGIN", "*"),
		RateLimitPerSec:   getFloat("RATE_LIMIT_PER_SECOND", 50),
		RateLimitBurst:    getInt("RATE_LIMIT_BURST", 100),
	}
}

// InitDB opens the database selected by cfg.DBDriver.
func InitDB(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DBDSN)
	case DriverMySQL:
		dialector = mysql.Open(cfg.DBDSN)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}

	if cfg.DBDriver == DriverSQLite {
		// sqlite serializes writers anyway
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
