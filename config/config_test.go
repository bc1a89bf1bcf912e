package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"railway-reservation/logger"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"STORAGE_BACKEND", "CATALOG_BACKEND", "SEAT_CAPACITY", "SERVER_PORT",
		"SHUTDOWN_TIMEOUT", "REDIS_DB", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.Equal(t, BackendMemory, cfg.CatalogBackend)
	assert.Equal(t, 10, cfg.SeatCapacity)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.NeedsPostgres())
	assert.Empty(t, cfg.Warnings)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name         string
		env          map[string]string
		wantStorage  string
		wantCatalog  string
		wantCapacity int
		wantWarnings int
	}{
		{
			name:         "postgres drags the catalog along",
			env:          map[string]string{"STORAGE_BACKEND": "postgres"},
			wantStorage:  BackendPostgres,
			wantCatalog:  BackendPostgres,
			wantCapacity: 10,
		},
		{
			name:         "postgres with memory catalog is corrected",
			env:          map[string]string{"STORAGE_BACKEND": "postgres", "CATALOG_BACKEND": "memory"},
			wantStorage:  BackendPostgres,
			wantCatalog:  BackendPostgres,
			wantCapacity: 10,
			wantWarnings: 1,
		},
		{
			name:         "redis pools with postgres catalog",
			env:          map[string]string{"STORAGE_BACKEND": "redis", "CATALOG_BACKEND": "postgres"},
			wantStorage:  BackendRedis,
			wantCatalog:  BackendPostgres,
			wantCapacity: 10,
		},
		{
			name:         "unknown backend falls back to memory",
			env:          map[string]string{"STORAGE_BACKEND": "sqlite"},
			wantStorage:  BackendMemory,
			wantCatalog:  BackendMemory,
			wantCapacity: 10,
			wantWarnings: 1,
		},
		{
			name:         "custom capacity",
			env:          map[string]string{"SEAT_CAPACITY": "30"},
			wantStorage:  BackendMemory,
			wantCatalog:  BackendMemory,
			wantCapacity: 30,
		},
		{
			name:         "bad capacity",
			env:          map[string]string{"SEAT_CAPACITY": "lots"},
			wantStorage:  BackendMemory,
			wantCatalog:  BackendMemory,
			wantCapacity: 10,
			wantWarnings: 1,
		},
		{
			name:         "non-positive capacity",
			env:          map[string]string{"SEAT_CAPACITY": "-2"},
			wantStorage:  BackendMemory,
			wantCatalog:  BackendMemory,
			wantCapacity: 10,
			wantWarnings: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"STORAGE_BACKEND", "CATALOG_BACKEND", "SEAT_CAPACITY", "REDIS_DB", "SHUTDOWN_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg := Load()

			assert.Equal(t, tt.wantStorage, cfg.StorageBackend)
			assert.Equal(t, tt.wantCatalog, cfg.CatalogBackend)
			assert.Equal(t, tt.wantCapacity, cfg.SeatCapacity)
			assert.Len(t, cfg.Warnings, tt.wantWarnings)
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db",
		DBPort:     "5433",
		DBUser:     "rail",
		DBPassword: "secret",
		DBName:     "railway",
		DBSSLMode:  "require",
	}

	assert.Equal(t, "host=db port=5433 user=rail password=secret dbname=railway sslmode=require", cfg.DSN())
}

func TestLoadLogging(t *testing.T) {
	tests := []struct {
		name         string
		level        string
		format       string
		wantLevel    string
		wantFormat   string
		wantWarnings int
	}{
		{"valid", "debug", "console", "debug", "console", 0},
		{"upper case level", "WARN", "json", "WARN", "json", 0},
		{"unknown level", "verbose", "json", "info", "json", 1},
		{"unknown format", "info", "xml", "info", "json", 1},
		{"both unknown", "loud", "yaml", "info", "json", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"STORAGE_BACKEND", "CATALOG_BACKEND", "SEAT_CAPACITY", "REDIS_DB", "SHUTDOWN_TIMEOUT"} {
				t.Setenv(key, "")
			}
			t.Setenv("LOG_LEVEL", tt.level)
			t.Setenv("LOG_FORMAT", tt.format)

			cfg := Load()

			assert.Equal(t, tt.wantLevel, cfg.LogLevel)
			assert.Equal(t, tt.wantFormat, cfg.LogFormat)
			assert.Len(t, cfg.Warnings, tt.wantWarnings)

			_, err := logger.New(cfg.LogLevel, cfg.LogFormat)
			assert.NoError(t, err)
		})
	}
}
