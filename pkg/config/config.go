package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete hreffs configuration.
//
// This structure captures all configurable aspects of hreffs including:
//   - Logging configuration
//   - Listing heuristics and the start URL
//   - Transfer options shared by listing, probing and downloading
//   - Snapshot store selection and configuration (store-specific)
//   - Download destination selection and configuration (store-specific)
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (HREFFS_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Store Configuration Pattern:
// Each store implementation defines its own configuration type. The Config
// struct carries type-specific sections (e.g. snapshots.badger,
// destination.s3) and only the section matching the selected type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Listing controls how listing pages are turned into entries
	Listing ListingConfig `mapstructure:"listing" yaml:"listing"`

	// Transfer contains the HTTP transfer options
	Transfer TransferConfig `mapstructure:"transfer" yaml:"transfer"`

	// Probe paces the per-entry HEAD requests of probe mode
	Probe ProbeConfig `mapstructure:"probe" yaml:"probe"`

	// History configures the visited-URL history file
	History HistoryConfig `mapstructure:"history" yaml:"history"`

	// Snapshots specifies where resolved listings are kept
	Snapshots SnapshotsConfig `mapstructure:"snapshots" yaml:"snapshots"`

	// Destination specifies where downloads are written
	Destination DestinationConfig `mapstructure:"destination" yaml:"destination"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// ListingConfig controls listing resolution.
type ListingConfig struct {
	// DefaultURL is used when the history file has no current URL
	DefaultURL string `mapstructure:"default_url" yaml:"default_url" validate:"required,url"`

	// ProbeSizes turns on per-entry HEAD probing
	ProbeSizes bool `mapstructure:"probe_sizes" yaml:"probe_sizes"`

	// ContainerExtensions mark targets as traversable sub-listings
	ContainerExtensions []string `mapstructure:"container_extensions" yaml:"container_extensions" validate:"dive,required"`

	// CandidateExtensions are appended to link text that lacks them
	CandidateExtensions []string `mapstructure:"candidate_extensions" yaml:"candidate_extensions" validate:"dive,required"`
}

// TransferConfig contains the HTTP transfer options.
type TransferConfig struct {
	// FollowRedirects follows 3xx responses
	FollowRedirects bool `mapstructure:"follow_redirects" yaml:"follow_redirects"`

	// MaxRedirects bounds redirect chains (-1 = unlimited)
	MaxRedirects int `mapstructure:"max_redirects" yaml:"max_redirects" validate:"gte=-1"`

	// Timeout bounds a listing pass and each probe (0 = no timeout)
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gte=0"`

	// Verbose logs every request and response line
	Verbose bool `mapstructure:"verbose" yaml:"verbose"`

	// FailOnError treats HTTP statuses >= 400 as transfer errors
	FailOnError bool `mapstructure:"fail_on_error" yaml:"fail_on_error"`

	// UserAgent overrides the HTTP User-Agent header
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
}

// ProbeConfig paces probe requests.
type ProbeConfig struct {
	// RequestsPerSecond is the sustained probe rate (0 = unlimited)
	RequestsPerSecond uint `mapstructure:"requests_per_second" yaml:"requests_per_second"`

	// Burst is the number of probes allowed back to back
	Burst uint `mapstructure:"burst" yaml:"burst"`
}

// HistoryConfig configures the history file.
type HistoryConfig struct {
	// Path of the history file (default: <config dir>/history_href.txt)
	Path string `mapstructure:"path" yaml:"path"`

	// MaxEntries caps the remembered URLs
	MaxEntries int `mapstructure:"max_entries" yaml:"max_entries" validate:"gte=0"`
}

// SnapshotsConfig specifies snapshot store configuration.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type SnapshotsConfig struct {
	// Type specifies which snapshot store implementation to use
	// Valid values: memory, badger
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory badger"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory" yaml:"memory"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger"`
}

// DestinationConfig specifies download destination configuration.
type DestinationConfig struct {
	// Type specifies which destination implementation to use
	// Valid values: filesystem, s3
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=filesystem s3"`

	// Filesystem contains filesystem-specific configuration
	// Only used when Type = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (HREFFS_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Configure viper
	setupViper(v, configPath)

	// Read configuration file if it exists
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults for any missing values
	ApplyDefaults(&cfg)

	// Validate configuration
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Defaults are registered with viper so every key is known and can be
	// overridden from the environment even when absent from the file.
	// Example: HREFFS_TRANSFER_TIMEOUT=10s
	registerDefaults(v)

	v.SetEnvPrefix("HREFFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Configure config file search
	if configPath != "" {
		// Use explicitly specified config file
		v.SetConfigFile(configPath)
	} else {
		// Use default location: $XDG_CONFIG_HOME/hreffs/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml") // Primary format
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		// A missing file is acceptable - use defaults
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "hreffs")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "hreffs")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
