package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Trigger authentication
	Auth AuthConfig

	// Signal providers
	Trends    ProviderConfig
	Serp      ProviderConfig
	Community CommunityConfig

	// Engine
	Engine EngineConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// AuthConfig holds the shared secrets accepted by the trigger surface
type AuthConfig struct {
	CronSecret  string
	AdminSecret string
}

// ProviderConfig holds an HTTP signal provider endpoint
type ProviderConfig struct {
	BaseURL   string
	APIKey    string
	RateLimit int // requests per minute, enforced through Redis when enabled
}

// CommunityConfig holds the community sentiment provider settings
type CommunityConfig struct {
	BaseURL string
	APIKey  string
	RPS     float64
	Burst   int
}

// EngineConfig holds batch sizing for the strategy engine
type EngineConfig struct {
	ScoringBatchSize     int
	PublishBatchLimit    int
	ReportTopN           int
	ReportOpportunityMin float64
	StrategyDefaultsPath string
	Timezone             string
}

// SchedulerConfig holds cron expressions (with seconds) for each job
type SchedulerConfig struct {
	ScoringCron     string
	OpportunityCron string
	PublishCron     string
	ReportCron      string
	MaxRetries      int
	RetryDelay      time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	return load(true)
}

// LoadLocal is Load without the DATABASE_URL requirement, for in-memory runs
func LoadLocal() (*Config, error) {
	return load(false)
}

func load(requireDatabase bool) (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Auth: AuthConfig{
			CronSecret:  getEnv("CRON_SECRET", ""),
			AdminSecret: getEnv("ADMIN_SECRET", ""),
		},

		Trends: ProviderConfig{
			BaseURL:   getEnv("TRENDS_BASE_URL", ""),
			APIKey:    getEnv("TRENDS_API_KEY", ""),
			RateLimit: getEnvAsInt("TRENDS_RATE_LIMIT", 60),
		},

		Serp: ProviderConfig{
			BaseURL:   getEnv("SERP_BASE_URL", ""),
			APIKey:    getEnv("SERP_API_KEY", ""),
			RateLimit: getEnvAsInt("SERP_RATE_LIMIT", 30),
		},

		Community: CommunityConfig{
			BaseURL: getEnv("COMMUNITY_BASE_URL", ""),
			APIKey:  getEnv("COMMUNITY_API_KEY", ""),
			RPS:     getEnvAsFloat("COMMUNITY_RPS", 1),
			Burst:   getEnvAsInt("COMMUNITY_BURST", 2),
		},

		Engine: EngineConfig{
			ScoringBatchSize:     getEnvAsInt("SCORING_BATCH_SIZE", 100),
			PublishBatchLimit:    getEnvAsInt("PUBLISH_BATCH_LIMIT", 10),
			ReportTopN:           getEnvAsInt("REPORT_TOP_N", 5),
			ReportOpportunityMin: getEnvAsFloat("REPORT_OPPORTUNITY_MIN_SCORE", 0),
			StrategyDefaultsPath: getEnv("STRATEGY_DEFAULTS_PATH", ""),
			Timezone:             getEnv("ENGINE_TIMEZONE", "UTC"),
		},

		Scheduler: SchedulerConfig{
			ScoringCron:     getEnv("SCORING_CRON", "0 15 * * * *"),
			OpportunityCron: getEnv("OPPORTUNITY_CRON", "0 0 */6 * * *"),
			PublishCron:     getEnv("PUBLISH_CRON", "0 * * * * *"),
			ReportCron:      getEnv("REPORT_CRON", "0 0 6 * * MON"),
			MaxRetries:      getEnvAsInt("SCHEDULER_MAX_RETRIES", 0),
			RetryDelay:      getEnvAsDuration("SCHEDULER_RETRY_DELAY", "1m"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(requireDatabase); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate(requireDatabase bool) error {
	if requireDatabase && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	// Triggers are unauthenticated without a secret; only tolerated locally.
	if c.Env == "production" && c.Auth.CronSecret == "" && c.Auth.AdminSecret == "" {
		return fmt.Errorf("CRON_SECRET or ADMIN_SECRET is required in production")
	}

	if c.Engine.ScoringBatchSize <= 0 {
		return fmt.Errorf("SCORING_BATCH_SIZE must be positive")
	}

	if c.Engine.PublishBatchLimit <= 0 {
		return fmt.Errorf("PUBLISH_BATCH_LIMIT must be positive")
	}

	if _, err := time.LoadLocation(c.Engine.Timezone); err != nil {
		return fmt.Errorf("ENGINE_TIMEZONE is invalid: %w", err)
	}

	return nil
}

// Location returns the engine timezone used for week boundaries
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Engine.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
