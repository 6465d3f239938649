package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/marmos91/hreffs/pkg/history"
	"github.com/marmos91/hreffs/pkg/listing"
)

// DefaultURL is the listing opened when no history exists.
const DefaultURL = "https://vc.kiev.ua/download/"

// registerDefaults seeds viper with the defaults whose zero value is
// meaningful (booleans that default to true, a timeout where 0 disables
// the limit). Keys set here are also overridable from the environment.
func registerDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("listing.default_url", DefaultURL)
	v.SetDefault("listing.probe_sizes", false)

	v.SetDefault("transfer.follow_redirects", true)
	v.SetDefault("transfer.max_redirects", 3)
	v.SetDefault("transfer.timeout", 30*time.Second)
	v.SetDefault("transfer.verbose", false)
	v.SetDefault("transfer.fail_on_error", true)
	v.SetDefault("transfer.user_agent", "")

	v.SetDefault("probe.requests_per_second", 0)
	v.SetDefault("probe.burst", 0)

	v.SetDefault("history.path", "")
	v.SetDefault("history.max_entries", history.DefaultMaxEntries)

	v.SetDefault("snapshots.type", "badger")
	v.SetDefault("destination.type", "filesystem")
}

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values ("", nil) are replaced with defaults
//   - Booleans and durations keep their loaded value (see registerDefaults)
//   - Store-specific defaults are handled by store implementations
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyListingDefaults(&cfg.Listing)
	applyHistoryDefaults(&cfg.History)
	applySnapshotsDefaults(&cfg.Snapshots)
	applyDestinationDefaults(&cfg.Destination)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applyListingDefaults(cfg *ListingConfig) {
	if cfg.DefaultURL == "" {
		cfg.DefaultURL = DefaultURL
	}
	if len(cfg.ContainerExtensions) == 0 {
		cfg.ContainerExtensions = append([]string(nil), listing.DefaultContainerExtensions...)
	}
	if len(cfg.CandidateExtensions) == 0 {
		cfg.CandidateExtensions = append([]string(nil), listing.DefaultCandidateExtensions...)
	}
}

func applyHistoryDefaults(cfg *HistoryConfig) {
	if cfg.Path == "" {
		cfg.Path = filepath.Join(getConfigDir(), history.FileName)
	}
	if cfg.MaxEntries == 0 {
		cfg.MaxEntries = history.DefaultMaxEntries
	}
}

// applySnapshotsDefaults sets snapshot store defaults.
func applySnapshotsDefaults(cfg *SnapshotsConfig) {
	if cfg.Type == "" {
		cfg.Type = "badger"
	}

	// Initialize maps if nil
	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if _, ok := cfg.Badger["db_path"]; !ok {
		cfg.Badger["db_path"] = filepath.Join(getConfigDir(), "snapshots")
	}
}

// applyDestinationDefaults sets download destination defaults.
func applyDestinationDefaults(cfg *DestinationConfig) {
	if cfg.Type == "" {
		cfg.Type = "filesystem"
	}

	if cfg.Filesystem == nil {
		cfg.Filesystem = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
func GetDefaultConfig() *Config {
	cfg := &Config{
		Transfer: TransferConfig{
			FollowRedirects: true,
			MaxRedirects:    3,
			Timeout:         30 * time.Second,
			FailOnError:     true,
		},
		Destination: DestinationConfig{
			Filesystem: map[string]any{
				"create_dirs": true,
			},
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
