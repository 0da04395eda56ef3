package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Config holds buffer pool configuration.
type Config struct {
	// BufferPoolSize is the number of frames per pool instance.
	BufferPoolSize uint32 `json:"buffer_pool_size"`
	// InstanceCount is the number of shards the parallel pool composes.
	// A value of 1 degenerates to a single-instance pool.
	InstanceCount uint32 `json:"instance_count"`
	// CacheReplacer selects the eviction policy. "lru" is the only value
	// today; the field stays a string so a future policy needs no schema
	// change.
	CacheReplacer string `json:"cache_replacer"`

	// DataDirectory is where the backing database file(s) live.
	DataDirectory string `json:"data_directory"`
	// PageSize is the fixed frame size in bytes.
	PageSize uint32 `json:"page_size"`

	// EnableMetrics is carried in the configuration only; nothing in this
	// package reads it, and pool instances always record cache hit/miss
	// and latency metrics.
	EnableMetrics bool `json:"enable_metrics"`
	// LogLevel controls the verbosity of the pool's structured logger.
	LogLevel string `json:"log_level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BufferPoolSize: 100,
		InstanceCount:  1,
		CacheReplacer:  "lru",
		DataDirectory:  "./data",
		PageSize:       PageSize,
		EnableMetrics:  true,
		LogLevel:       "info",
	}
}

// LoadConfigFromFile loads configuration from a JSON file.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadConfigFromEnv loads configuration from environment variables,
// falling back to defaults for anything unset.
func LoadConfigFromEnv() *Config {
	config := DefaultConfig()

	if val := os.Getenv("HEXPOOL_BUFFER_POOL_SIZE"); val != "" {
		if size, err := strconv.ParseUint(val, 10, 32); err == nil {
			config.BufferPoolSize = uint32(size)
		}
	}

	if val := os.Getenv("HEXPOOL_INSTANCE_COUNT"); val != "" {
		if count, err := strconv.ParseUint(val, 10, 32); err == nil {
			config.InstanceCount = uint32(count)
		}
	}

	if val := os.Getenv("HEXPOOL_CACHE_REPLACER"); val != "" {
		config.CacheReplacer = val
	}

	if val := os.Getenv("HEXPOOL_DATA_DIRECTORY"); val != "" {
		config.DataDirectory = val
	}

	if val := os.Getenv("HEXPOOL_PAGE_SIZE"); val != "" {
		if size, err := strconv.ParseUint(val, 10, 32); err == nil {
			config.PageSize = uint32(size)
		}
	}

	if val := os.Getenv("HEXPOOL_ENABLE_METRICS"); val != "" {
		config.EnableMetrics = val == "true" || val == "1"
	}

	if val := os.Getenv("HEXPOOL_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	return config
}

// SaveToFile saves the configuration to a JSON file.
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", " ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.BufferPoolSize == 0 {
		return fmt.Errorf("buffer pool size must be greater than 0")
	}

	if c.InstanceCount == 0 {
		return fmt.Errorf("instance count must be greater than 0")
	}

	if c.PageSize == 0 {
		return fmt.Errorf("page size must be greater than 0")
	}

	if c.PageSize%512 != 0 {
		return fmt.Errorf("page size must be a multiple of 512")
	}

	if c.DataDirectory == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	switch c.CacheReplacer {
	case "lru":
	default:
		return fmt.Errorf("invalid cache replacer: %s (must be lru)", c.CacheReplacer)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
