// Package config provides centralized configuration management for the race
// hub. Configuration is loaded from environment variables, optionally seeded
// from a .env file next to the binary.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	App AppConfig

	Race RaceConfig

	Database DatabaseConfig

	Redis RedisConfig

	Observability ObservabilityConfig
}

// AppConfig contains general application settings.
type AppConfig struct {
	Name        string
	Environment Environment
	Version     string

	// Timezone decides which calendar year categories are computed in.
	Timezone string
	Location *time.Location

	// Locale is the language of console messages ("en", "fr").
	Locale string

	ShutdownTimeout time.Duration
}

// RaceConfig contains race-day settings.
type RaceConfig struct {
	// Name overrides the race name found in the entry list.
	Name string

	// EntryList is the path of the TOML, YAML or INI entry list.
	EntryList string

	// ResumeID, when set, resumes a stored race instead of creating one.
	ResumeID string

	// SideEffectTimeout bounds each store or board write after a race
	// operation.
	SideEffectTimeout time.Duration

	// Colors enables ANSI colors in the console.
	Colors bool
}

// DatabaseConfig contains PostgreSQL settings. An empty URL and host keeps
// races in memory.
type DatabaseConfig struct {
	URL string

	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string

	MaxConns        int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Migrate applies the embedded schema at startup.
	Migrate bool
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != "" || d.Host != ""
}

// RedisConfig contains Redis settings for the live board and event fan-out.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int

	PoolSize     int
	MinIdleConns int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// BoardTTL is how long board keys outlive their last update.
	BoardTTL time.Duration

	// PublishEvents fans race events out on Redis pub/sub.
	PublishEvents bool

	Disabled bool
}

// ObservabilityConfig contains logging settings.
type ObservabilityConfig struct {
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text
	LogFile   string // empty means stderr
}

// Load loads configuration from a .env file, if present, and environment
// variables. Variables already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		App:           loadAppConfig(),
		Race:          loadRaceConfig(),
		Database:      loadDatabaseConfig(),
		Redis:         loadRedisConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func loadAppConfig() AppConfig {
	timezone := getEnv("APP_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = nil
	}

	return AppConfig{
		Name:            getEnv("APP_NAME", "race-hub"),
		Environment:     Environment(getEnv("APP_ENV", string(EnvDevelopment))),
		Version:         getEnv("APP_VERSION", "0.1.0"),
		Timezone:        timezone,
		Location:        loc,
		Locale:          getEnv("APP_LOCALE", "en"),
		ShutdownTimeout: getEnvDuration("APP_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadRaceConfig() RaceConfig {
	return RaceConfig{
		Name:              getEnv("RACE_NAME", ""),
		EntryList:         getEnv("RACE_ENTRY_LIST", ""),
		ResumeID:          getEnv("RACE_RESUME_ID", ""),
		SideEffectTimeout: getEnvDuration("RACE_SIDE_EFFECT_TIMEOUT", 2*time.Second),
		Colors:            getEnvBool("RACE_CONSOLE_COLORS", true),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:             getEnv("DATABASE_URL", ""),
		Host:            getEnv("DB_HOST", ""),
		Port:            getEnvInt("DB_PORT", 5432),
		Name:            getEnv("DB_NAME", "racehub"),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxConns:        getEnvInt("DB_MAX_CONNS", 4),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		Migrate:         getEnvBool("DB_MIGRATE", true),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Host:          getEnv("REDIS_HOST", "localhost"),
		Port:          getEnvInt("REDIS_PORT", 6379),
		Password:      getEnv("REDIS_PASSWORD", ""),
		DB:            getEnvInt("REDIS_DB", 0),
		PoolSize:      getEnvInt("REDIS_POOL_SIZE", 4),
		MinIdleConns:  getEnvInt("REDIS_MIN_IDLE_CONNS", 1),
		DialTimeout:   getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:   getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout:  getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		BoardTTL:      getEnvDuration("REDIS_BOARD_TTL", 24*time.Hour),
		PublishEvents: getEnvBool("REDIS_PUBLISH_EVENTS", false),
		Disabled:      getEnvBool("REDIS_DISABLED", true),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogFile:   getEnv("LOG_FILE", "racehub.log"),
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.App.Location == nil {
		errs = append(errs, fmt.Sprintf("APP_TIMEZONE %q is not a known time zone", c.App.Timezone))
	}

	if c.Race.EntryList == "" && c.Race.ResumeID == "" {
		errs = append(errs, "one of RACE_ENTRY_LIST or RACE_RESUME_ID is required")
	}

	if c.Race.ResumeID != "" && !c.Database.Enabled() {
		errs = append(errs, "RACE_RESUME_ID needs DATABASE_URL or DB_HOST")
	}

	if c.Race.SideEffectTimeout <= 0 {
		errs = append(errs, "RACE_SIDE_EFFECT_TIMEOUT must be positive")
	}

	if c.Redis.PublishEvents && c.Redis.Disabled {
		errs = append(errs, "REDIS_PUBLISH_EVENTS needs REDIS_DISABLED=false")
	}

	switch c.Observability.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, "LOG_FORMAT must be json or text")
	}

	if c.App.Environment == EnvProduction && !c.Database.Enabled() {
		errs = append(errs, "a database is required in production")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsProduction returns true if running in production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// --- Helper functions for environment variable parsing ---

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
