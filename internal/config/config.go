// Package config provides configuration management for the jmap-bridge service.
// It loads configuration from environment variables with sensible defaults
// and validates it before the service starts.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//   - LOG_FILE: Optional log file, written in addition to stdout
//   - LOG_FORMAT: "console" or "json" (default: console)
//
// Mapping:
//   - DEFAULT_DIALECT: vCard dialect used when a request names none - "standard",
//     "nextcloud" or "roundcube" (default: standard)
//   - PRODID: PRODID written into converted records that carry none
//   - MAX_BATCH_SIZE: Maximum number of records per request (default: 500)
//
// Cache Configuration:
//   - CACHE_ENABLED: Cache converted records (default: false)
//   - CACHE_TTL: How long converted records stay cached (default: 10m)
//   - REDIS_ADDRESS: Redis server address; empty keeps the cache in-process
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//
// Rate Limiting:
//   - RATE_LIMIT_ENABLED: Throttle /api requests per client (default: false)
//   - RATE_LIMIT_REQUESTS: Requests allowed per window (default: 120)
//   - RATE_LIMIT_WINDOW: Window length (default: 1m). Counts are shared
//     through Redis when REDIS_ADDRESS is set.
//
// Security Configuration:
//   - JWT_SECRET: HS256 secret for bearer tokens on /api routes. Authentication
//     is disabled when empty; when set it must be at least 32 characters.
//
// Example usage:
//
//	cfg := config.Load()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Invalid configuration: %v", err)
//	}
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the service.
//
// The configuration is loaded using the Load() function and should be
// validated using the Validate() method before use.
type Config struct {
	// Application settings
	Port      string // Server port number
	LogLevel  string // Logging level (debug, info, warn, error)
	LogFile   string // Optional log file path
	LogFormat string // console or json

	// Mapping settings
	DefaultDialect string // vCard dialect used when a request names none
	ProdID         string // PRODID for records that carry none
	MaxBatchSize   int    // Maximum records per request

	// Cache configuration
	CacheEnabled  bool          // Whether converted records are cached
	CacheTTL      time.Duration // Lifetime of cached records
	RedisAddress  string        // Redis server address (host:port)
	RedisPassword string        // Redis authentication password
	RedisDB       string        // Redis database number (0-15)
	RedisPoolSize string        // Redis connection pool size

	// Rate limiting
	RateLimitEnabled  bool          // Whether /api requests are throttled
	RateLimitRequests int           // Requests per client per window
	RateLimitWindow   time.Duration // Rate limit window

	// JWT authentication configuration
	JWTSecret string // Secret key for verifying bearer tokens
}

// Load creates a new Config instance with values loaded from environment variables.
// If an environment variable is not set, the corresponding default value is used.
//
// This function does not validate the configuration - call Validate() on the
// returned Config to ensure all values are valid.
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFile:   getEnv("LOG_FILE", ""),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		DefaultDialect: strings.ToLower(getEnv("DEFAULT_DIALECT", "standard")),
		ProdID:         getEnv("PRODID", "-//jmap-bridge//EN"),
		MaxBatchSize:   getIntEnv("MAX_BATCH_SIZE", 500),

		CacheEnabled:  getBoolEnv("CACHE_ENABLED", false),
		CacheTTL:      getDurationEnv("CACHE_TTL", 10*time.Minute),
		RedisAddress:  getEnv("REDIS_ADDRESS", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPoolSize: getEnv("REDIS_POOL_SIZE", "10"),

		RateLimitEnabled:  getBoolEnv("RATE_LIMIT_ENABLED", false),
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		JWTSecret: getEnv("JWT_SECRET", ""),
	}
}

// getEnv retrieves an environment variable value or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv retrieves a boolean environment variable value or returns a default value.
//
// This function accepts common boolean representations:
//   - "true", "1", "t", "TRUE", "True" -> true
//   - "false", "0", "f", "FALSE", "False" -> false
//   - Any other value or parsing error -> returns defaultValue
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getIntEnv retrieves an integer environment variable value or returns a
// default value when it is unset or not a number.
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getDurationEnv retrieves a duration such as "90s" or "10m". Unset or
// unparseable values yield the default.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Validate performs validation on the configuration to ensure all values
// are usable.
//
// This method checks:
//   - Field format validation (port, dialect, log format)
//   - Cache and rate limit settings
//   - Redis database and pool size when Redis is in use
//   - Security requirements (JWT secret length when authentication is on)
//
// Returns:
//   - error: A descriptive error if validation fails, nil if configuration is valid
func (c *Config) Validate() error {
	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	switch c.DefaultDialect {
	case "standard", "nextcloud", "roundcube":
	default:
		return fmt.Errorf("DEFAULT_DIALECT must be 'standard', 'nextcloud' or 'roundcube'")
	}

	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be 'console' or 'json'")
	}

	if strings.TrimSpace(c.ProdID) == "" {
		return fmt.Errorf("PRODID must not be blank")
	}

	if c.MaxBatchSize < 1 {
		return fmt.Errorf("MAX_BATCH_SIZE must be a positive number")
	}

	// Validate JWT secret length when authentication is enabled
	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long for security")
	}

	if c.CacheEnabled && c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be a positive duration (e.g., '90s', '10m')")
	}

	if c.RateLimitEnabled {
		if c.RateLimitRequests < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be a positive number")
		}
		if c.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be a positive duration (e.g., '1m')")
		}
	}

	// Validate Redis config if something will use it
	if c.RedisEnabled() {
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if poolSize, err := strconv.Atoi(c.RedisPoolSize); err != nil || poolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
	}

	return nil
}

// AuthEnabled reports whether /api routes require a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// RedisEnabled reports whether a feature that uses Redis is on and an
// address is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddress != "" && (c.CacheEnabled || c.RateLimitEnabled)
}
