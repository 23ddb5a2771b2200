package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Scope   ScopeConfig   `mapstructure:"scope"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Transport string `mapstructure:"transport"`
	HTTPPort  int    `mapstructure:"http_port"`
}

// ScopeConfig holds scope provisioning configuration
type ScopeConfig struct {
	TempRoot          string `mapstructure:"temp_root"`
	DirPattern        string `mapstructure:"dir_pattern"`
	CommandTimeoutSec int    `mapstructure:"command_timeout_sec"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// New loads and validates the application configuration
func New() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	viper.SetDefault("server.transport", "stdio")
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("scope.temp_root", "")
	viper.SetDefault("scope.dir_pattern", "envbox-*")
	viper.SetDefault("scope.command_timeout_sec", 30)
	viper.SetDefault("logging.mode", "production")
	viper.SetDefault("logging.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	if c.Server.Transport != "stdio" && c.Server.Transport != "http" {
		return fmt.Errorf("invalid server.transport: %s, must be 'stdio' or 'http'", c.Server.Transport)
	}

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid server.http_port: %d, must be in 1..65535", c.Server.HTTPPort)
	}

	if c.Scope.DirPattern == "" {
		return fmt.Errorf("scope.dir_pattern must not be empty")
	}
	if strings.ContainsRune(c.Scope.DirPattern, '/') {
		return fmt.Errorf("invalid scope.dir_pattern: %s, must not contain path separators", c.Scope.DirPattern)
	}

	if c.Scope.CommandTimeoutSec <= 0 {
		return fmt.Errorf("scope.command_timeout_sec must be positive, got: %d", c.Scope.CommandTimeoutSec)
	}

	if c.Logging.Mode != "production" && c.Logging.Mode != "development" {
		return fmt.Errorf("invalid logging.mode: %s, must be 'production' or 'development'", c.Logging.Mode)
	}

	return nil
}

// GetCommandTimeout returns the scoped-command timeout as a duration
func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Scope.CommandTimeoutSec) * time.Second
}
