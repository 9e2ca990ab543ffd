package config

import (
	"fmt"
	"os"

	"stock-deck/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyDefaults fills the knobs most deployments never touch.
func (c *Config) applyDefaults() {
	if c.Backend.RequestTimeout == 0 {
		c.Backend.RequestTimeout = 10
	}
	if c.Backend.Timezone == "" {
		c.Backend.Timezone = "UTC"
	}
	if c.Stream.ReconnectDelaySeconds == 0 {
		c.Stream.ReconnectDelaySeconds = 3
	}
	if c.Poll.OpenIntervalSeconds == 0 {
		c.Poll.OpenIntervalSeconds = 10
	}
	if c.Poll.ClosedIntervalSeconds == 0 {
		c.Poll.ClosedIntervalSeconds = 120
	}
	if c.Chart.MinAnimatedPoints == 0 {
		c.Chart.MinAnimatedPoints = 20
	}
	if c.Chart.MaxAnimatedPoints == 0 {
		c.Chart.MaxAnimatedPoints = 300
	}
	if c.Chart.InitialVisible == 0 {
		c.Chart.InitialVisible = 8
	}
	if c.Chart.StepPoints == 0 {
		c.Chart.StepPoints = 6
	}
	if c.Chart.StepIntervalMs == 0 {
		c.Chart.StepIntervalMs = 25
	}
	if c.Chart.LiveIndicatorMs == 0 {
		c.Chart.LiveIndicatorMs = 1500
	}
	if c.Chart.LiveAppendMax == 0 {
		c.Chart.LiveAppendMax = 3
	}
	if len(c.Chart.EligibleTimeframes) == 0 {
		c.Chart.EligibleTimeframes = []string{models.Timeframe1D, models.Timeframe1W, models.Timeframe1M}
	}
	if c.Chart.MaxLivePoints == 0 {
		c.Chart.MaxLivePoints = 2000
	}
	if c.Search.MinKeywordLength == 0 {
		c.Search.MinKeywordLength = 2
	}
	if c.Recorder.Enabled && c.Recorder.DBType == "" {
		c.Recorder.DBType = "sqlite"
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App configuration (Flattened)
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Gateway configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("gateway host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid gateway port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Backend configuration
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base_url cannot be empty")
	}
	if c.Backend.WSURL == "" {
		return fmt.Errorf("backend ws_url cannot be empty")
	}
	if c.Backend.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}

	// Validate Stream configuration
	if c.Stream.ReconnectDelaySeconds <= 0 {
		return fmt.Errorf("reconnect delay must be greater than 0")
	}
	if c.Stream.IdleTopicTTLSeconds < 0 {
		return fmt.Errorf("idle topic ttl cannot be negative")
	}

	// Validate Poll configuration
	if c.Poll.OpenIntervalSeconds <= 0 || c.Poll.ClosedIntervalSeconds <= 0 {
		return fmt.Errorf("poll intervals must be greater than 0")
	}
	if c.Poll.OpenIntervalSeconds > c.Poll.ClosedIntervalSeconds {
		return fmt.Errorf("open-market poll interval must not exceed the closed-market interval")
	}

	// Validate Chart configuration
	if c.Chart.MinAnimatedPoints > c.Chart.MaxAnimatedPoints {
		return fmt.Errorf("chart animation band is inverted: min %d > max %d",
			c.Chart.MinAnimatedPoints, c.Chart.MaxAnimatedPoints)
	}
	if c.Chart.InitialVisible <= 0 || c.Chart.StepPoints <= 0 || c.Chart.StepIntervalMs <= 0 {
		return fmt.Errorf("chart animation parameters must be greater than 0")
	}
	for _, tf := range c.Chart.EligibleTimeframes {
		if !models.ValidTimeframe(tf) {
			return fmt.Errorf("unknown timeframe '%s' in chart eligible_timeframes", tf)
		}
	}

	// Validate Recorder configuration
	if c.Recorder.Enabled {
		if c.Recorder.DBType != "sqlite" && c.Recorder.DBType != "postgres" {
			return fmt.Errorf("unsupported recorder db_type: %s", c.Recorder.DBType)
		}
		if c.Recorder.DBType == "sqlite" && c.Recorder.DBPath == "" {
			return fmt.Errorf("recorder db_path cannot be empty for sqlite")
		}
		if c.Recorder.DBType == "postgres" && c.Recorder.DBConnectionString == "" {
			return fmt.Errorf("recorder db_connection_string cannot be empty for postgres")
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
