package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	clearTestEnvVars()
	defer clearTestEnvVars()

	config := Load()

	if config.Port != "8080" {
		t.Errorf("Load() Port = %v, want %v", config.Port, "8080")
	}

	if config.LogLevel != "info" {
		t.Errorf("Load() LogLevel = %v, want %v", config.LogLevel, "info")
	}

	if config.LogFormat != "console" {
		t.Errorf("Load() LogFormat = %v, want %v", config.LogFormat, "console")
	}

	if config.DefaultDialect != "standard" {
		t.Errorf("Load() DefaultDialect = %v, want %v", config.DefaultDialect, "standard")
	}

	if config.ProdID != "-//jmap-bridge//EN" {
		t.Errorf("Load() ProdID = %v, want %v", config.ProdID, "-//jmap-bridge//EN")
	}

	if config.MaxBatchSize != 500 {
		t.Errorf("Load() MaxBatchSize = %v, want %v", config.MaxBatchSize, 500)
	}

	// Test cache defaults
	if config.CacheEnabled {
		t.Errorf("Load() CacheEnabled = %v, want %v", config.CacheEnabled, false)
	}

	if config.CacheTTL != 10*time.Minute {
		t.Errorf("Load() CacheTTL = %v, want %v", config.CacheTTL, 10*time.Minute)
	}

	if config.RedisAddress != "" {
		t.Errorf("Load() RedisAddress = %v, want empty", config.RedisAddress)
	}

	if config.RedisDB != "0" {
		t.Errorf("Load() RedisDB = %v, want %v", config.RedisDB, "0")
	}

	if config.RedisPoolSize != "10" {
		t.Errorf("Load() RedisPoolSize = %v, want %v", config.RedisPoolSize, "10")
	}

	// Test rate limit defaults
	if config.RateLimitEnabled {
		t.Errorf("Load() RateLimitEnabled = %v, want %v", config.RateLimitEnabled, false)
	}

	if config.RateLimitRequests != 120 {
		t.Errorf("Load() RateLimitRequests = %v, want %v", config.RateLimitRequests, 120)
	}

	if config.RateLimitWindow != time.Minute {
		t.Errorf("Load() RateLimitWindow = %v, want %v", config.RateLimitWindow, time.Minute)
	}

	if config.RedisEnabled() {
		t.Errorf("Load() RedisEnabled() = true, want false")
	}

	if config.JWTSecret != "" {
		t.Errorf("Load() JWTSecret = %v, want empty", config.JWTSecret)
	}

	if config.AuthEnabled() {
		t.Errorf("Load() AuthEnabled() = true, want false")
	}

	if err := config.Validate(); err != nil {
		t.Errorf("default configuration should validate, got: %v", err)
	}
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                "9090",
		"LOG_LEVEL":           "debug",
		"LOG_FILE":            "/var/log/jmap-bridge.log",
		"LOG_FORMAT":          "json",
		"DEFAULT_DIALECT":     "Nextcloud",
		"PRODID":              "-//Example Corp//Sync//EN",
		"MAX_BATCH_SIZE":      "50",
		"CACHE_ENABLED":       "true",
		"CACHE_TTL":           "90s",
		"REDIS_ADDRESS":       "redis:6379",
		"REDIS_PASSWORD":      "redis-secret",
		"REDIS_DB":            "2",
		"REDIS_POOL_SIZE":     "20",
		"RATE_LIMIT_ENABLED":  "true",
		"RATE_LIMIT_REQUESTS": "30",
		"RATE_LIMIT_WINDOW":   "10s",
		"JWT_SECRET":          "this-is-a-test-jwt-secret-key-that-is-long-enough",
	}

	setTestEnvVars(envVars)
	defer clearTestEnvVars()

	config := Load()

	if config.Port != "9090" {
		t.Errorf("Load() Port = %v, want %v", config.Port, "9090")
	}

	if config.LogLevel != "debug" {
		t.Errorf("Load() LogLevel = %v, want %v", config.LogLevel, "debug")
	}

	if config.LogFile != "/var/log/jmap-bridge.log" {
		t.Errorf("Load() LogFile = %v, want %v", config.LogFile, "/var/log/jmap-bridge.log")
	}

	if config.LogFormat != "json" {
		t.Errorf("Load() LogFormat = %v, want %v", config.LogFormat, "json")
	}

	// Dialect names are case-insensitive
	if config.DefaultDialect != "nextcloud" {
		t.Errorf("Load() DefaultDialect = %v, want %v", config.DefaultDialect, "nextcloud")
	}

	if config.ProdID != "-//Example Corp//Sync//EN" {
		t.Errorf("Load() ProdID = %v, want %v", config.ProdID, "-//Example Corp//Sync//EN")
	}

	if config.MaxBatchSize != 50 {
		t.Errorf("Load() MaxBatchSize = %v, want %v", config.MaxBatchSize, 50)
	}

	if !config.CacheEnabled {
		t.Errorf("Load() CacheEnabled = %v, want %v", config.CacheEnabled, true)
	}

	if config.CacheTTL != 90*time.Second {
		t.Errorf("Load() CacheTTL = %v, want %v", config.CacheTTL, 90*time.Second)
	}

	if config.RedisAddress != "redis:6379" {
		t.Errorf("Load() RedisAddress = %v, want %v", config.RedisAddress, "redis:6379")
	}

	if config.RedisPassword != "redis-secret" {
		t.Errorf("Load() RedisPassword = %v, want %v", config.RedisPassword, "redis-secret")
	}

	if config.RedisDB != "2" {
		t.Errorf("Load() RedisDB = %v, want %v", config.RedisDB, "2")
	}

	if config.RedisPoolSize != "20" {
		t.Errorf("Load() RedisPoolSize = %v, want %v", config.RedisPoolSize, "20")
	}

	if !config.RateLimitEnabled || config.RateLimitRequests != 30 || config.RateLimitWindow != 10*time.Second {
		t.Errorf("Load() rate limit = %v/%v/%v, want true/30/10s",
			config.RateLimitEnabled, config.RateLimitRequests, config.RateLimitWindow)
	}

	if !config.RedisEnabled() {
		t.Errorf("Load() RedisEnabled() = false, want true")
	}

	if !config.AuthEnabled() {
		t.Errorf("Load() AuthEnabled() = false, want true")
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Config.Validate() unexpected error: %v", err)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		envValue     string
		defaultValue string
		expected     string
	}{
		{
			name:         "environment variable exists",
			key:          "TEST_KEY_EXISTS",
			envValue:     "test-value",
			defaultValue: "default-value",
			expected:     "test-value",
		},
		{
			name:         "environment variable not set",
			key:          "TEST_KEY_NOT_SET",
			envValue:     "",
			defaultValue: "default-value",
			expected:     "default-value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			result := getEnv(tt.key, tt.defaultValue)
			if result != tt.expected {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, result, tt.expected)
			}
		})
	}
}

func TestGetBoolEnv(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		expected     bool
	}{
		{name: "true value", envValue: "true", defaultValue: false, expected: true},
		{name: "false value", envValue: "false", defaultValue: true, expected: false},
		{name: "1 value", envValue: "1", defaultValue: false, expected: true},
		{name: "0 value", envValue: "0", defaultValue: true, expected: false},
		{name: "invalid value uses default", envValue: "invalid", defaultValue: true, expected: true},
		{name: "not set uses default", envValue: "", defaultValue: true, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("TEST_BOOL")
			if tt.envValue != "" {
				os.Setenv("TEST_BOOL", tt.envValue)
				defer os.Unsetenv("TEST_BOOL")
			}

			result := getBoolEnv("TEST_BOOL", tt.defaultValue)
			if result != tt.expected {
				t.Errorf("getBoolEnv(%q, %v) = %v, want %v", tt.envValue, tt.defaultValue, result, tt.expected)
			}
		})
	}
}

func TestGetIntEnv(t *testing.T) {
	defer os.Unsetenv("TEST_INT")

	os.Setenv("TEST_INT", "42")
	if got := getIntEnv("TEST_INT", 7); got != 42 {
		t.Errorf("getIntEnv() = %v, want %v", got, 42)
	}

	os.Setenv("TEST_INT", "forty-two")
	if got := getIntEnv("TEST_INT", 7); got != 7 {
		t.Errorf("getIntEnv() with invalid value = %v, want default %v", got, 7)
	}
}

func TestGetDurationEnv(t *testing.T) {
	defer os.Unsetenv("TEST_DURATION")

	for value, want := range map[string]time.Duration{
		"30s":     30 * time.Second,
		"5m":      5 * time.Minute,
		"1h":      time.Hour,
		"invalid": time.Minute,
		"60":      time.Minute,
	} {
		os.Setenv("TEST_DURATION", value)
		if got := getDurationEnv("TEST_DURATION", time.Minute); got != want {
			t.Errorf("getDurationEnv(%q) = %v, want %v", value, got, want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(c *Config)
		wantError     bool
		errorContains string
	}{
		{
			name:      "valid minimal config",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name:          "invalid port - not a number",
			mutate:        func(c *Config) { c.Port = "http" },
			wantError:     true,
			errorContains: "PORT must be a valid port number",
		},
		{
			name:          "invalid port - out of range",
			mutate:        func(c *Config) { c.Port = "70000" },
			wantError:     true,
			errorContains: "PORT must be a valid port number",
		},
		{
			name:          "unknown dialect",
			mutate:        func(c *Config) { c.DefaultDialect = "outlook" },
			wantError:     true,
			errorContains: "DEFAULT_DIALECT",
		},
		{
			name:          "unknown log format",
			mutate:        func(c *Config) { c.LogFormat = "xml" },
			wantError:     true,
			errorContains: "LOG_FORMAT",
		},
		{
			name:          "blank prodid",
			mutate:        func(c *Config) { c.ProdID = "  " },
			wantError:     true,
			errorContains: "PRODID",
		},
		{
			name:          "zero batch size",
			mutate:        func(c *Config) { c.MaxBatchSize = 0 },
			wantError:     true,
			errorContains: "MAX_BATCH_SIZE",
		},
		{
			name:          "short JWT secret",
			mutate:        func(c *Config) { c.JWTSecret = "too-short" },
			wantError:     true,
			errorContains: "JWT_SECRET must be at least 32 characters",
		},
		{
			name:      "long JWT secret",
			mutate:    func(c *Config) { c.JWTSecret = "this-is-a-valid-jwt-secret-key-with-32-plus-chars" },
			wantError: false,
		},
		{
			name: "cache with zero TTL",
			mutate: func(c *Config) {
				c.CacheEnabled = true
				c.CacheTTL = 0
			},
			wantError:     true,
			errorContains: "CACHE_TTL",
		},
		{
			name: "redis db out of range",
			mutate: func(c *Config) {
				c.CacheEnabled = true
				c.RedisAddress = "localhost:6379"
				c.RedisDB = "16"
			},
			wantError:     true,
			errorContains: "REDIS_DB must be a number between 0 and 15",
		},
		{
			name: "redis pool size invalid",
			mutate: func(c *Config) {
				c.CacheEnabled = true
				c.RedisAddress = "localhost:6379"
				c.RedisPoolSize = "0"
			},
			wantError:     true,
			errorContains: "REDIS_POOL_SIZE",
		},
		{
			name: "rate limit without requests",
			mutate: func(c *Config) {
				c.RateLimitEnabled = true
				c.RateLimitRequests = 0
			},
			wantError:     true,
			errorContains: "RATE_LIMIT_REQUESTS",
		},
		{
			name: "rate limit without window",
			mutate: func(c *Config) {
				c.RateLimitEnabled = true
				c.RateLimitWindow = 0
			},
			wantError:     true,
			errorContains: "RATE_LIMIT_WINDOW",
		},
		{
			name: "redis validated for rate limiting",
			mutate: func(c *Config) {
				c.RateLimitEnabled = true
				c.RedisAddress = "localhost:6379"
				c.RedisDB = "-1"
			},
			wantError:     true,
			errorContains: "REDIS_DB",
		},
		{
			name: "redis settings ignored when cache disabled",
			mutate: func(c *Config) {
				c.RedisAddress = "localhost:6379"
				c.RedisDB = "99"
			},
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(config)

			err := config.Validate()
			if tt.wantError {
				if err == nil {
					t.Errorf("Config.Validate() expected error, got nil")
					return
				}
				if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Config.Validate() error = %v, want error containing %q", err, tt.errorContains)
				}
			} else if err != nil {
				t.Errorf("Config.Validate() unexpected error = %v", err)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Port:           "8080",
		LogLevel:       "info",
		LogFormat:      "console",
		DefaultDialect: "standard",
		ProdID:         "-//jmap-bridge//EN",
		MaxBatchSize:   100,
		CacheTTL:       time.Minute,
		RedisDB:        "0",
		RedisPoolSize:  "10",

		RateLimitRequests: 60,
		RateLimitWindow:   time.Minute,
	}
}

// Helper functions for environment variable management
func setTestEnvVars(vars map[string]string) {
	for key, value := range vars {
		os.Setenv(key, value)
	}
}

func clearTestEnvVars() {
	testKeys := []string{
		"PORT", "LOG_LEVEL", "LOG_FILE", "LOG_FORMAT",
		"DEFAULT_DIALECT", "PRODID", "MAX_BATCH_SIZE",
		"CACHE_ENABLED", "CACHE_TTL",
		"REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE",
		"RATE_LIMIT_ENABLED", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW",
		"JWT_SECRET",
	}

	for _, key := range testKeys {
		os.Unsetenv(key)
	}
}

func BenchmarkLoad(b *testing.B) {
	clearTestEnvVars()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Load()
	}
}

func BenchmarkConfig_Validate(b *testing.B) {
	config := validConfig()
	config.CacheEnabled = true
	config.RedisAddress = "localhost:6379"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = config.Validate()
	}
}
