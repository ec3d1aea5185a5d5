package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Scrape    ScrapeConfig
	SerpAPI   SerpAPIConfig
	Meta      MetaConfig
	TikTok    TikTokConfig
	Scheduler SchedulerConfig
	Log       LogConfig
	RateLimit RateLimitConfig
	HTTP      HTTPClientConfig
	Sentry    SentryConfig
	// JWT belongs to the surrounding HTTP API, not the collection core.
	// Kept only so the documented environment surface matches the spec.
	JWT JWTConfig
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name  string
	Env   string
	Debug bool
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the database connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// RedisConfig holds Redis connection configuration, used for the SerpAPI
// result cache.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns the Redis address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig is carried for environment-surface parity only; the collector
// core never issues or validates a token.
type JWTConfig struct {
	Secret string
}

// ScrapeConfig holds browser-driven scraper tuning.
type ScrapeConfig struct {
	Headless           bool
	DefaultRegion       string
	NavigationTimeout   time.Duration
	SelectorTimeout     time.Duration
	ScrollWallClock     time.Duration
	MaxScrollAttempts   int
	MaxAdvertisers      int
	BatchFlushSize      int
}

// SerpAPIConfig holds SerpAPI connector configuration.
type SerpAPIConfig struct {
	APIKey      string
	CacheTTL    time.Duration
	RateLimitCalls  int
	RateLimitWindow time.Duration
}

// MetaConfig holds Meta (Ad Library + Graph ads_archive) configuration.
type MetaConfig struct {
	AccessToken     string
	GraphAPIVersion string
	RateLimitCalls  int
	RateLimitWindow time.Duration
}

// TikTokConfig holds TikTok Commercial Content API configuration.
type TikTokConfig struct {
	APIKey          string
	RateLimitCalls  int
	RateLimitWindow time.Duration
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Enabled             bool
	IncrementalInterval time.Duration
	FullDay             time.Weekday
	FullHour            int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// RateLimitConfig holds default API rate limiting configuration
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// HTTPClientConfig holds HTTP client configuration
type HTTPClientConfig struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// SentryConfig holds error-tracking configuration.
type SentryConfig struct {
	DSN         string
	Environment string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:  getEnv("APP_NAME", "brand-collector"),
			Env:   getEnv("APP_ENV", "development"),
			Debug: getEnvAsBool("APP_DEBUG", true),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "brand_collector"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Scrape: ScrapeConfig{
			Headless:          getEnvAsBool("SCRAPE_HEADLESS", true),
			DefaultRegion:     getEnv("SCRAPE_REGION", "KR"),
			NavigationTimeout: getEnvAsDuration("SCRAPE_NAV_TIMEOUT", 60*time.Second),
			SelectorTimeout:   getEnvAsDuration("SCRAPE_SELECTOR_TIMEOUT", 5*time.Second),
			ScrollWallClock:   getEnvAsDuration("SCRAPE_SCROLL_WALL_CLOCK", 5*time.Minute),
			MaxScrollAttempts: getEnvAsInt("SCRAPE_MAX_SCROLL_ATTEMPTS", 100),
			MaxAdvertisers:    getEnvAsInt("SCRAPE_MAX_ADVERTISERS", 3),
			BatchFlushSize:    getEnvAsInt("SCRAPE_BATCH_FLUSH_SIZE", 50),
		},
		SerpAPI: SerpAPIConfig{
			APIKey:          getEnv("SERPAPI_KEY", ""),
			CacheTTL:        getEnvAsDuration("SERPAPI_CACHE_TTL", 5*time.Minute),
			RateLimitCalls:  getEnvAsInt("SERPAPI_RATE_LIMIT_CALLS", 10),
			RateLimitWindow: getEnvAsDuration("SERPAPI_RATE_LIMIT_WINDOW", time.Minute),
		},
		Meta: MetaConfig{
			AccessToken:     getEnv("META_ACCESS_TOKEN", ""),
			GraphAPIVersion: getEnv("META_GRAPH_API_VERSION", "v23.0"),
			RateLimitCalls:  getEnvAsInt("META_RATE_LIMIT_CALLS", 200),
			RateLimitWindow: getEnvAsDuration("META_RATE_LIMIT_WINDOW", time.Hour),
		},
		TikTok: TikTokConfig{
			APIKey:          getEnv("TIKTOK_API_KEY", ""),
			RateLimitCalls:  getEnvAsInt("TIKTOK_RATE_LIMIT_CALLS", 10),
			RateLimitWindow: getEnvAsDuration("TIKTOK_RATE_LIMIT_WINDOW", time.Second),
		},
		Scheduler: SchedulerConfig{
			Enabled:             getEnvAsBool("SCHEDULER_ENABLED", true),
			IncrementalInterval: time.Duration(getEnvAsInt("BATCH_INCREMENTAL_HOURS", 4)) * time.Hour,
			FullDay:             time.Weekday(getEnvAsInt("BATCH_FULL_DAY", int(time.Sunday))),
			FullHour:            getEnvAsInt("BATCH_FULL_HOUR", 3),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "debug"),
			Format: getEnv("LOG_FORMAT", "json"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
		},
		RateLimit: RateLimitConfig{
			Requests: getEnvAsInt("API_RATE_LIMIT_REQUESTS", 100),
			Window:   getEnvAsDuration("API_RATE_LIMIT_WINDOW", time.Minute),
		},
		HTTP: HTTPClientConfig{
			Timeout:      getEnvAsDuration("HTTP_CLIENT_TIMEOUT", 30*time.Second),
			MaxRetries:   getEnvAsInt("HTTP_CLIENT_MAX_RETRIES", 3),
			RetryWaitMin: getEnvAsDuration("HTTP_CLIENT_RETRY_WAIT_MIN", time.Second),
			RetryWaitMax: getEnvAsDuration("HTTP_CLIENT_RETRY_WAIT_MAX", 30*time.Second),
		},
		Sentry: SentryConfig{
			DSN:         getEnv("SENTRY_DSN", ""),
			Environment: getEnv("APP_ENV", "development"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Host == "" || c.Database.Name == "" {
		return fmt.Errorf("database host and name are required")
	}
	if c.Scrape.MaxScrollAttempts <= 0 {
		return fmt.Errorf("SCRAPE_MAX_SCROLL_ATTEMPTS must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
