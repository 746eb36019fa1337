package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"tick-relay/src/helpers"
	"tick-relay/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// Environment variable overrides, applied after the file is read.
const (
	EnvPort   = "RELAY_PORT"
	EnvSecret = "RELAY_SECRET"
)

// -----------------------------------------------------------------------------

// defaultConfig returns an MConfig pre-filled with defaults; the YAML file and
// environment overrides are layered on top.
func defaultConfig() *models.MConfig {
	return &models.MConfig{
		Name:     "tick-relay",
		Host:     "0.0.0.0",
		Port:     8080,
		LogLevel: "INFO",
		Upstream: models.MUpstreamConfig{
			ConnectTimeout:      models.MDuration(7 * time.Second),
			AutoReconnect:       true,
			ReconnectMaxRetries: 10,
			ReconnectMaxDelay:   models.MDuration(60 * time.Second),
		},
		Server: models.MServerConfig{
			SendBufferSize:  256,
			ShutdownTimeout: models.MDuration(10 * time.Second),
		},
	}
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from a YAML file plus environment
// overrides. A missing file is not an error: the relay runs on defaults and
// environment alone.
func NewConfig(configPath string) (*Config, error) {
	modelConfig := defaultConfig()

	// 1. Read the YAML file content, if present
	data, err := os.ReadFile(configPath)
	if err == nil {
		// 2. Unmarshal over the defaults; absent keys keep their default value
		if err := yaml.Unmarshal(data, modelConfig); err != nil {
			return nil, helpers.NewConfigurationError(fmt.Sprintf("failed to parse config from YAML '%s'", configPath), err)
		}
	} else if !os.IsNotExist(err) {
		return nil, helpers.NewConfigurationError(fmt.Sprintf("failed to read config file '%s'", configPath), err)
	}

	config := &Config{MConfig: modelConfig}

	// 3. Environment overrides beat file values
	if err := config.applyEnvOverrides(); err != nil {
		return nil, err
	}

	// 4. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, helpers.NewConfigurationError("config validation failed", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyEnvOverrides layers RELAY_* environment variables over the file config.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return helpers.NewConfigurationError(fmt.Sprintf("invalid %s value '%s'", EnvPort, v), err)
		}
		c.Port = port
	}
	if v, ok := os.LookupEnv(EnvSecret); ok {
		c.Secret = v
	}
	return nil
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1 and 65535)", c.Port)
	}

	// Validate Upstream configuration
	if c.Upstream.ConnectTimeout <= 0 {
		return fmt.Errorf("upstream connect timeout must be greater than 0")
	}
	if c.Upstream.ReconnectMaxRetries < 0 {
		return fmt.Errorf("upstream reconnect max retries cannot be negative")
	}
	if c.Upstream.ReconnectMaxDelay <= 0 {
		return fmt.Errorf("upstream reconnect max delay must be greater than 0")
	}

	// Validate Server configuration
	if c.Server.SendBufferSize <= 0 {
		return fmt.Errorf("send buffer size must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be greater than 0")
	}

	return nil
}
