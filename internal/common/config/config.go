// Package config provides configuration management for Workbench.
// It supports loading configuration from environment variables, config files, and defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration sections for Workbench.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Terminal   TerminalConfig   `mapstructure:"terminal"`
	HookBridge HookBridgeConfig `mapstructure:"hookBridge"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"readTimeout"`  // in seconds
	WriteTimeout int    `mapstructure:"writeTimeout"` // in seconds
}

// NATSConfig holds NATS messaging configuration.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	ClusterID     string `mapstructure:"clusterId"`
	ClientID      string `mapstructure:"clientId"`
	MaxReconnects int    `mapstructure:"maxReconnects"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"outputPath"`
}

// TerminalConfig holds PTY session configuration.
type TerminalConfig struct {
	// DefaultCols and DefaultRows are used when a spawn request omits dimensions.
	DefaultCols uint16 `mapstructure:"defaultCols"`
	DefaultRows uint16 `mapstructure:"defaultRows"`

	// Scrollback is reserved for a future server-side buffer; unused today.
	Scrollback int `mapstructure:"scrollback"`

	// ReadBufferSize is the PTY read buffer size in bytes.
	ReadBufferSize int `mapstructure:"readBufferSize"`

	// QuietWindowMs is how long output must be silent before a session
	// is reported inactive.
	QuietWindowMs int `mapstructure:"quietWindowMs"`

	// StartupDelayMs is how long after spawn the startup command is
	// written to the PTY.
	StartupDelayMs int `mapstructure:"startupDelayMs"`
}

// HookBridgeConfig holds configuration for the agent hook socket listener.
type HookBridgeConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	SocketPath string `mapstructure:"socketPath"` // empty means the per-user default
}

// ReadTimeoutDuration returns the read timeout as a time.Duration.
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns the write timeout as a time.Duration.
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// QuietWindowDuration returns the activity quiet window as a time.Duration.
func (t *TerminalConfig) QuietWindowDuration() time.Duration {
	return time.Duration(t.QuietWindowMs) * time.Millisecond
}

// StartupDelayDuration returns the startup command delay as a time.Duration.
func (t *TerminalConfig) StartupDelayDuration() time.Duration {
	return time.Duration(t.StartupDelayMs) * time.Millisecond
}

// detectDefaultLogFormat returns the appropriate log format based on environment.
// Returns "json" if running in Kubernetes or other production environments.
// Returns "text" for terminal/development use (human-readable console format).
func detectDefaultLogFormat() string {
	// Check if running in Kubernetes
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "json"
	}

	// Check for explicit production environment
	if env := os.Getenv("WORKBENCH_ENV"); env == "production" || env == "prod" {
		return "json"
	}

	// Default to text format for terminal use (more readable than JSON)
	return "text"
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)

	// NATS defaults - empty URL means use in-memory event bus
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.clusterId", "workbench-cluster")
	v.SetDefault("nats.clientId", "workbench-client")
	v.SetDefault("nats.maxReconnects", 10)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", detectDefaultLogFormat())
	v.SetDefault("logging.outputPath", "stdout")

	// Terminal defaults
	v.SetDefault("terminal.defaultCols", 80)
	v.SetDefault("terminal.defaultRows", 24)
	v.SetDefault("terminal.scrollback", 10000)
	v.SetDefault("terminal.readBufferSize", 32*1024)
	v.SetDefault("terminal.quietWindowMs", 1000)
	v.SetDefault("terminal.startupDelayMs", 300)

	// Hook bridge defaults
	v.SetDefault("hookBridge.enabled", true)
	v.SetDefault("hookBridge.socketPath", "")
}

// Load reads configuration from environment variables, config file, and defaults.
// Environment variables use the prefix WORKBENCH_ with snake_case naming.
// Config file should be named config.yaml and placed in the current directory or /etc/workbench/.
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads configuration from the specified path or default locations.
func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults first
	setDefaults(v)

	// Configure environment variables
	v.SetEnvPrefix("WORKBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicit bindings for snake_case env vars (camelCase config keys)
	// AutomaticEnv does not handle camelCase to SNAKE_CASE conversion,
	// so we explicitly bind keys where env var naming differs from config key naming.
	_ = v.BindEnv("hookBridge.socketPath", "WORKBENCH_HOOK_SOCKET", "WORKBENCH_HOOKBRIDGE_SOCKET_PATH")
	_ = v.BindEnv("hookBridge.enabled", "WORKBENCH_HOOKBRIDGE_ENABLED")

	// Configure config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/workbench/")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate checks that all required configuration fields are set.
// In development mode (default), most fields are optional.
func validate(cfg *Config) error {
	var errs []string

	// Server validation - always required
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	// NATS validation - optional (uses in-memory event bus if not set)
	// No validation needed - empty URL means use in-memory

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, "logging.format must be one of: json, text")
	}

	if cfg.Terminal.DefaultCols == 0 || cfg.Terminal.DefaultRows == 0 {
		errs = append(errs, "terminal.defaultCols and terminal.defaultRows must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}

	return nil
}
