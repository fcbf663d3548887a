package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port           string
	Env            string
	JWTSecret      string
	RequestTimeout time.Duration
	AllowedOrigins []string

	DB        DatabaseConfig
	Redis     RedisConfig
	Schedule  ScheduleConfig
	Ledger    LedgerConfig
	Worker    WorkerConfig
	RateLimit RateLimitConfig
	Admin     AdminConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// ScheduleConfig describes the shop's fixed weekly operating schedule.
type ScheduleConfig struct {
	Timezone     string
	Open         string // "09:00"
	Close        string // "18:00"
	SlotDuration time.Duration
	ClosedDays   []time.Weekday
	LeadTime     time.Duration
	HorizonDays  int // 0 = unlimited
}

// LedgerConfig bounds every call into the booking ledger.
type LedgerConfig struct {
	Timeout time.Duration
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	AvailabilityMetricsInterval time.Duration
	AvailabilityMetricsDays     int
}

// RateLimitConfig limits reservation attempts per client IP.
type RateLimitConfig struct {
	ReservePerMinute int
}

// AdminConfig optionally seeds the first back-office account on startup.
type AdminConfig struct {
	BootstrapEmail    string
	BootstrapPassword string
	BootstrapName     string
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; production relies on real environment variables.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.AllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "localhost:3000,127.0.0.1:3000"))

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	var err error

	// Operating schedule
	cfg.Schedule = ScheduleConfig{
		Timezone:    getEnv("SHOP_TIMEZONE", "Asia/Jakarta"),
		Open:        getEnv("SHOP_OPEN", "09:00"),
		Close:       getEnv("SHOP_CLOSE", "18:00"),
		HorizonDays: getEnvInt("BOOKING_HORIZON_DAYS", 30),
	}
	if cfg.Schedule.SlotDuration, err = parseDurationEnv("SLOT_DURATION", "1h"); err != nil {
		return nil, fmt.Errorf("invalid SLOT_DURATION: %w", err)
	}
	if cfg.Schedule.LeadTime, err = parseDurationEnv("BOOKING_LEAD_TIME", "30m"); err != nil {
		return nil, fmt.Errorf("invalid BOOKING_LEAD_TIME: %w", err)
	}
	if cfg.Schedule.ClosedDays, err = ParseWeekdays(getEnv("SHOP_CLOSED_DAYS", "sun")); err != nil {
		return nil, fmt.Errorf("invalid SHOP_CLOSED_DAYS: %w", err)
	}

	// Ledger
	if cfg.Ledger.Timeout, err = parseDurationEnv("LEDGER_TIMEOUT", "3s"); err != nil {
		return nil, fmt.Errorf("invalid LEDGER_TIMEOUT: %w", err)
	}

	// Workers
	if cfg.Worker.AvailabilityMetricsInterval, err = parseDurationEnv("AVAILABILITY_METRICS_INTERVAL", "5m"); err != nil {
		return nil, fmt.Errorf("invalid AVAILABILITY_METRICS_INTERVAL: %w", err)
	}
	cfg.Worker.AvailabilityMetricsDays = getEnvInt("AVAILABILITY_METRICS_DAYS", 7)

	cfg.RateLimit.ReservePerMinute = getEnvInt("RESERVE_RATE_PER_MIN", 20)

	if cfg.RequestTimeout, err = parseDurationEnv("REQUEST_TIMEOUT", "10s"); err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}

	// Admin bootstrap
	cfg.Admin = AdminConfig{
		BootstrapEmail:    getEnv("ADMIN_BOOTSTRAP_EMAIL", ""),
		BootstrapPassword: getEnv("ADMIN_BOOTSTRAP_PASSWORD", ""),
		BootstrapName:     getEnv("ADMIN_BOOTSTRAP_NAME", "Administrator"),
	}
	if (cfg.Admin.BootstrapEmail == "") != (cfg.Admin.BootstrapPassword == "") {
		return nil, errors.New("ADMIN_BOOTSTRAP_EMAIL and ADMIN_BOOTSTRAP_PASSWORD must be set together")
	}

	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for authentication")
	}

	if cfg.Ledger.Timeout == 0 {
		return nil, errors.New("LEDGER_TIMEOUT must be greater than zero")
	}

	return cfg, nil
}

// ParseWeekdays parses a comma separated list of weekday names ("sun,sat" or
// "sunday, saturday"). An empty string means the shop never closes.
func ParseWeekdays(raw string) ([]time.Weekday, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "none") {
		return nil, nil
	}

	var days []time.Weekday
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if len(name) < 3 {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		d, ok := weekdayPrefixes[name[:3]]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		days = append(days, d)
	}
	return days, nil
}

var weekdayPrefixes = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// splitList splits a comma separated value, dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
