// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the broker.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Broker  BrokerConfig  `yaml:"broker"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds the TCP and health listener settings.
type ServerConfig struct {
	TCPAddr         string        `yaml:"tcp_addr"`
	HealthAddr      string        `yaml:"health_addr"`
	HealthEnabled   bool          `yaml:"health_enabled"`
	TCPMaxConn      int           `yaml:"tcp_max_connections"`
	TCPReadTimeout  time.Duration `yaml:"tcp_read_timeout"`
	TCPWriteTimeout time.Duration `yaml:"tcp_write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// BrokerConfig holds broker-specific settings.
type BrokerConfig struct {
	// Maximum accepted frame size in bytes.
	MaxFrameSize int `yaml:"max_frame_size"`

	// Response bodies at or above this size are compressed on the wire.
	// Zero disables compression.
	CompressThreshold int `yaml:"compress_threshold"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// MetricsConfig holds OpenTelemetry settings.
type MetricsConfig struct {
	Enabled        bool   `yaml:"enabled"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			TCPAddr:         ":1765",
			HealthAddr:      ":8086",
			HealthEnabled:   true,
			TCPMaxConn:      1024,
			TCPReadTimeout:  60 * time.Second,
			TCPWriteTimeout: 60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Broker: BrokerConfig{
			MaxFrameSize:      16 << 20,
			CompressThreshold: 4 << 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:        false,
			OTLPEndpoint:   "localhost:4317",
			ServiceName:    "courier-broker",
			ServiceVersion: "0.1.0",
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults
// when the filename is empty or the file does not exist.
func Load(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.TCPAddr == "" {
		return fmt.Errorf("server.tcp_addr cannot be empty")
	}
	if c.Server.TCPMaxConn < 0 {
		return fmt.Errorf("server.tcp_max_connections cannot be negative")
	}
	if c.Broker.MaxFrameSize <= 0 {
		return fmt.Errorf("broker.max_frame_size must be positive")
	}
	if c.Broker.CompressThreshold < 0 {
		return fmt.Errorf("broker.compress_threshold cannot be negative")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json")
	}
	if c.Metrics.Enabled && c.Metrics.OTLPEndpoint == "" {
		return fmt.Errorf("metrics.otlp_endpoint required when metrics are enabled")
	}
	return nil
}
