package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, uint32(100), config.BufferPoolSize)
	assert.Equal(t, uint32(1), config.InstanceCount)
	assert.Equal(t, "lru", config.CacheReplacer)
	assert.Equal(t, uint32(PageSize), config.PageSize)
	assert.True(t, config.EnableMetrics, "expected metrics enabled by default")
	assert.Equal(t, "info", config.LogLevel)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		config      *Config
		expectError bool
	}{
		{
			name:        "valid config",
			config:      DefaultConfig(),
			expectError: false,
		},
		{
			name: "zero buffer pool size",
			config: &Config{
				BufferPoolSize: 0, InstanceCount: 1, PageSize: 4096,
				DataDirectory: "./data", CacheReplacer: "lru", LogLevel: "info",
			},
			expectError: true,
		},
		{
			name: "zero instance count",
			config: &Config{
				BufferPoolSize: 100, InstanceCount: 0, PageSize: 4096,
				DataDirectory: "./data", CacheReplacer: "lru", LogLevel: "info",
			},
			expectError: true,
		},
		{
			name: "zero page size",
			config: &Config{
				BufferPoolSize: 100, InstanceCount: 1, PageSize: 0,
				DataDirectory: "./data", CacheReplacer: "lru", LogLevel: "info",
			},
			expectError: true,
		},
		{
			name: "invalid page size",
			config: &Config{
				BufferPoolSize: 100, InstanceCount: 1, PageSize: 4000,
				DataDirectory: "./data", CacheReplacer: "lru", LogLevel: "info",
			},
			expectError: true,
		},
		{
			name: "empty data directory",
			config: &Config{
				BufferPoolSize: 100, InstanceCount: 1, PageSize: 4096,
				DataDirectory: "", CacheReplacer: "lru", LogLevel: "info",
			},
			expectError: true,
		},
		{
			name: "invalid replacer",
			config: &Config{
				BufferPoolSize: 100, InstanceCount: 1, PageSize: 4096,
				DataDirectory: "./data", CacheReplacer: "mru", LogLevel: "info",
			},
			expectError: true,
		},
		{
			name: "invalid log level",
			config: &Config{
				BufferPoolSize: 100, InstanceCount: 1, PageSize: 4096,
				DataDirectory: "./data", CacheReplacer: "lru", LogLevel: "invalid",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.json")

	originalConfig := DefaultConfig()
	originalConfig.BufferPoolSize = 200
	originalConfig.LogLevel = "debug"

	require.NoError(t, originalConfig.SaveToFile(configPath), "failed to save config")

	loadedConfig, err := LoadConfigFromFile(configPath)
	require.NoError(t, err, "failed to load config")

	assert.Equal(t, uint32(200), loadedConfig.BufferPoolSize)
	assert.Equal(t, "debug", loadedConfig.LogLevel)
}

func TestLoadConfigFromInvalidFile(t *testing.T) {
	_, err := LoadConfigFromFile("/nonexistent/config.json")
	assert.Error(t, err, "expected error when loading nonexistent file")
}

func TestLoadConfigFromEnv(t *testing.T) {
	originalVars := map[string]string{
		"HEXPOOL_BUFFER_POOL_SIZE": os.Getenv("HEXPOOL_BUFFER_POOL_SIZE"),
		"HEXPOOL_INSTANCE_COUNT":   os.Getenv("HEXPOOL_INSTANCE_COUNT"),
		"HEXPOOL_LOG_LEVEL":        os.Getenv("HEXPOOL_LOG_LEVEL"),
	}

	defer func() {
		for key, val := range originalVars {
			if val == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, val)
			}
		}
	}()

	os.Setenv("HEXPOOL_BUFFER_POOL_SIZE", "500")
	os.Setenv("HEXPOOL_INSTANCE_COUNT", "4")
	os.Setenv("HEXPOOL_LOG_LEVEL", "debug")

	config := LoadConfigFromEnv()

	assert.Equal(t, uint32(500), config.BufferPoolSize)
	assert.Equal(t, uint32(4), config.InstanceCount)
	assert.Equal(t, "debug", config.LogLevel)
}

func TestConfigClone(t *testing.T) {
	original := DefaultConfig()
	original.BufferPoolSize = 500
	original.LogLevel = "debug"

	clone := original.Clone()

	assert.Equal(t, original.BufferPoolSize, clone.BufferPoolSize)
	assert.Equal(t, original.LogLevel, clone.LogLevel)

	clone.BufferPoolSize = 1000

	assert.NotEqual(t, uint32(1000), original.BufferPoolSize, "modifying clone should not affect original")
}

func TestEnvVarBooleanParsing(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected bool
	}{
		{"true string", "true", true},
		{"1 string", "1", true},
		{"false string", "false", false},
		{"0 string", "0", false},
		{"other string", "other", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("HEXPOOL_ENABLE_METRICS", tt.value)
			defer os.Unsetenv("HEXPOOL_ENABLE_METRICS")

			config := LoadConfigFromEnv()
			assert.Equal(t, tt.expected, config.EnableMetrics)
		})
	}
}
