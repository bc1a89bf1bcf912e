package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Storage backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds application configuration
type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// Storage
	StorageBackend string // where seat pools live
	CatalogBackend string // where train records live
	SeatCapacity   int

	// Logging
	LogLevel  string
	LogFormat string

	// Server
	ServerPort      string
	ShutdownTimeout time.Duration

	// Warnings collects settings that were invalid and replaced by defaults.
	// They are logged once the logger is up.
	Warnings []string
}

// Load loads configuration from environment variables
func Load() *Config {
	// Try to load .env file (optional for local development)
	_ = godotenv.Load()

	config := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "railway"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisPrefix:   getEnv("REDIS_PREFIX", "pool"),

		StorageBackend: getEnv("STORAGE_BACKEND", BackendMemory),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		ServerPort: getEnv("SERVER_PORT", "8080"),
	}

	config.RedisDB = config.getInt("REDIS_DB", 0)
	config.SeatCapacity = config.getInt("SEAT_CAPACITY", 10)
	config.ShutdownTimeout = config.getDuration("SHUTDOWN_TIMEOUT", 5*time.Second)

	// Validate storage configuration
	switch config.StorageBackend {
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		config.warn("unknown STORAGE_BACKEND %q (using %s)", config.StorageBackend, BackendMemory)
		config.StorageBackend = BackendMemory
	}

	// Postgres seats reference the trains table, so the catalog follows them there
	defaultCatalog := BackendMemory
	if config.StorageBackend == BackendPostgres {
		defaultCatalog = BackendPostgres
	}
	config.CatalogBackend = getEnv("CATALOG_BACKEND", defaultCatalog)
	switch {
	case config.StorageBackend == BackendPostgres && config.CatalogBackend != BackendPostgres:
		config.warn("STORAGE_BACKEND=postgres requires CATALOG_BACKEND=postgres")
		config.CatalogBackend = BackendPostgres
	case config.CatalogBackend != BackendMemory && config.CatalogBackend != BackendPostgres:
		config.warn("unknown CATALOG_BACKEND %q (using %s)", config.CatalogBackend, defaultCatalog)
		config.CatalogBackend = defaultCatalog
	}

	if _, err := zapcore.ParseLevel(strings.ToLower(config.LogLevel)); err != nil {
		config.warn("unknown LOG_LEVEL %q (using info)", config.LogLevel)
		config.LogLevel = "info"
	}
	switch config.LogFormat {
	case "json", "console":
	default:
		config.warn("unknown LOG_FORMAT %q (using json)", config.LogFormat)
		config.LogFormat = "json"
	}

	if config.SeatCapacity <= 0 {
		config.warn("SEAT_CAPACITY must be positive, got %d (using 10)", config.SeatCapacity)
		config.SeatCapacity = 10
	}

	return config
}

// NeedsPostgres reports whether any component is stored in Postgres
func (c *Config) NeedsPostgres() bool {
	return c.StorageBackend == BackendPostgres || c.CatalogBackend == BackendPostgres
}

// DSN returns the PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) warn(format string, args ...interface{}) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func (c *Config) getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		c.warn("invalid %s %q (using %d)", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func (c *Config) getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		c.warn("invalid %s %q (using %s)", key, value, defaultValue)
		return defaultValue
	}
	return d
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
