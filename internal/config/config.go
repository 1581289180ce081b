// Package config handles configuration management with validation
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration structure
type Config struct {
	API       APIConfig       `yaml:"api"`
	Episode   EpisodeConfig   `yaml:"episode"`
	Reward    RewardConfig    `yaml:"reward"`
	Sync      SyncConfig      `yaml:"sync"`
	System    SystemConfig    `yaml:"system"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// APIConfig describes the exchange REST endpoint and credentials
type APIConfig struct {
	BaseURL        string  `yaml:"base_url"`
	APIKey         Secret  `yaml:"api_key"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	RateLimit      float64 `yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst      int     `yaml:"rate_burst"`
}

// EpisodeConfig describes one episode's trading assignment. StartTime and
// EndTime of 0 mean "derive from the simulator period" (start at tick 5,
// end 10 ticks before the period closes).
type EpisodeConfig struct {
	Ticker    string  `yaml:"ticker"`
	Inventory float64 `yaml:"inventory"`
	Direction int     `yaml:"direction"` // +1 unwind long by selling, -1 the mirror
	StartTime int     `yaml:"start_time"`
	EndTime   int     `yaml:"end_time"`
}

// RewardConfig selects the reward-signal shape
type RewardConfig struct {
	Collection string `yaml:"collection"` // terminal | harvested
	Method     string `yaml:"method"`     // VWAP_PNL | VWAP_TARGET
}

// SyncConfig bounds the reset barrier that waits for the simulator period
type SyncConfig struct {
	MaxAttempts    int `yaml:"max_attempts"`
	PollIntervalMS int `yaml:"poll_interval_ms"`
}

// SystemConfig contains system settings
type SystemConfig struct {
	LogLevel string `yaml:"log_level"`
	Gateway  string `yaml:"gateway"` // rit | mock
}

// TelemetryConfig contains telemetry settings
type TelemetryConfig struct {
	EnableMetrics bool `yaml:"enable_metrics"`
	MetricsPort   int  `yaml:"metrics_port"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s' (value: %v): %s", e.Field, e.Value, e.Message)
}

// LoadConfig loads configuration from a YAML file with environment variable expansion
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = 10
	}
	if c.Sync.MaxAttempts <= 0 {
		c.Sync.MaxAttempts = 600
	}
	if c.Sync.PollIntervalMS <= 0 {
		c.Sync.PollIntervalMS = 250
	}
	if c.System.LogLevel == "" {
		c.System.LogLevel = "INFO"
	}
	if c.System.Gateway == "" {
		c.System.Gateway = "rit"
	}
	if c.Reward.Collection == "" {
		c.Reward.Collection = "harvested"
	}
	if c.Reward.Method == "" {
		c.Reward.Method = "VWAP_TARGET"
	}
	if c.Telemetry.MetricsPort == 0 {
		c.Telemetry.MetricsPort = 9090
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	var errs []string

	if err := c.validateAPI(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := c.validateEpisode(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := c.validateReward(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := c.validateSystem(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errs, "\n"))
	}

	return nil
}

func (c *Config) validateAPI() error {
	if c.System.Gateway == "mock" {
		return nil // mock gateway needs no endpoint or credentials
	}
	if c.API.BaseURL == "" {
		return ValidationError{
			Field:   "api.base_url",
			Message: "exchange base URL is required",
		}
	}
	if c.API.APIKey == "" {
		return ValidationError{
			Field:   "api.api_key",
			Message: "API key is required",
		}
	}
	return nil
}

func (c *Config) validateEpisode() error {
	if c.Episode.Ticker == "" {
		return ValidationError{
			Field:   "episode.ticker",
			Message: "ticker is required",
		}
	}
	if c.Episode.Inventory <= 0 {
		return ValidationError{
			Field:   "episode.inventory",
			Value:   c.Episode.Inventory,
			Message: "inventory must be positive",
		}
	}
	if c.Episode.Direction != 1 && c.Episode.Direction != -1 {
		return ValidationError{
			Field:   "episode.direction",
			Value:   c.Episode.Direction,
			Message: "direction must be +1 or -1",
		}
	}
	if c.Episode.EndTime != 0 && c.Episode.EndTime <= c.Episode.StartTime {
		return ValidationError{
			Field:   "episode.end_time",
			Value:   c.Episode.EndTime,
			Message: "end time must be after start time",
		}
	}
	return nil
}

func (c *Config) validateReward() error {
	validCollections := []string{"terminal", "harvested"}
	if !contains(validCollections, c.Reward.Collection) {
		return ValidationError{
			Field:   "reward.collection",
			Value:   c.Reward.Collection,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validCollections, ", ")),
		}
	}
	validMethods := []string{"VWAP_PNL", "VWAP_TARGET"}
	if !contains(validMethods, c.Reward.Method) {
		return ValidationError{
			Field:   "reward.method",
			Value:   c.Reward.Method,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validMethods, ", ")),
		}
	}
	return nil
}

func (c *Config) validateSystem() error {
	validLevels := []string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}
	if !contains(validLevels, strings.ToUpper(c.System.LogLevel)) {
		return ValidationError{
			Field:   "system.log_level",
			Value:   c.System.LogLevel,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validLevels, ", ")),
		}
	}
	validGateways := []string{"rit", "mock"}
	if !contains(validGateways, c.System.Gateway) {
		return ValidationError{
			Field:   "system.gateway",
			Value:   c.System.Gateway,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validGateways, ", ")),
		}
	}
	return nil
}

// String returns a string representation of the configuration. The Secret
// type redacts the API key during marshaling.
func (c *Config) String() string {
	data, _ := yaml.Marshal(c)
	return string(data)
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// DefaultConfig returns a default configuration for testing
func DefaultConfig() *Config {
	cfg := &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:9999/v1",
			APIKey:         "test_api_key",
			TimeoutSeconds: 5,
			RateLimit:      20,
			RateBurst:      5,
		},
		Episode: EpisodeConfig{
			Ticker:    "MC",
			Inventory: 100000,
			Direction: 1,
		},
		Reward: RewardConfig{
			Collection: "harvested",
			Method:     "VWAP_TARGET",
		},
		Sync: SyncConfig{
			MaxAttempts:    600,
			PollIntervalMS: 250,
		},
		System: SystemConfig{
			LogLevel: "INFO",
			Gateway:  "rit",
		},
		Telemetry: TelemetryConfig{
			EnableMetrics: true,
			MetricsPort:   9090,
		},
	}
	return cfg
}
