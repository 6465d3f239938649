package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultConfig(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Write minimal config
	configContent := `
logging:
  level: "info"

listing:
  default_url: "https://mirror.example.org/pub/"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected normalized level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Listing.DefaultURL != "https://mirror.example.org/pub/" {
		t.Errorf("Expected default_url from file, got %q", cfg.Listing.DefaultURL)
	}
	if !cfg.Transfer.FollowRedirects {
		t.Error("Expected follow_redirects to default to true")
	}
	if !cfg.Transfer.FailOnError {
		t.Error("Expected fail_on_error to default to true")
	}
	if cfg.Transfer.MaxRedirects != 3 {
		t.Errorf("Expected default max_redirects 3, got %d", cfg.Transfer.MaxRedirects)
	}
	if cfg.Transfer.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %v", cfg.Transfer.Timeout)
	}
	if len(cfg.Listing.ContainerExtensions) == 0 || len(cfg.Listing.CandidateExtensions) == 0 {
		t.Error("Expected default extension lists")
	}
}

func TestLoad_ExplicitFalseAndZero(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
transfer:
  follow_redirects: false
  fail_on_error: false
  max_redirects: -1
  timeout: 0s
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Transfer.FollowRedirects {
		t.Error("Expected follow_redirects false to survive defaults")
	}
	if cfg.Transfer.FailOnError {
		t.Error("Expected fail_on_error false to survive defaults")
	}
	if cfg.Transfer.MaxRedirects != -1 {
		t.Errorf("Expected unlimited redirects (-1), got %d", cfg.Transfer.MaxRedirects)
	}
	if cfg.Transfer.Timeout != 0 {
		t.Errorf("Expected disabled timeout, got %v", cfg.Transfer.Timeout)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// A non-existent explicit path keeps us away from the user's own config
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error with missing config file, got: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Snapshots.Type != "badger" {
		t.Errorf("Expected default snapshot store 'badger', got %q", cfg.Snapshots.Type)
	}
	if cfg.Destination.Type != "filesystem" {
		t.Errorf("Expected default destination 'filesystem', got %q", cfg.Destination.Type)
	}
	if cfg.Listing.DefaultURL != DefaultURL {
		t.Errorf("Expected default URL %q, got %q", DefaultURL, cfg.Listing.DefaultURL)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	// Write invalid YAML
	configContent := `
logging:
  level: INFO
  invalid yaml here [[[
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_TOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[logging]
level = "WARN"
format = "json"

[transfer]
timeout = "5s"
user_agent = "hreffs-test"

[snapshots]
type = "memory"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected level 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected format 'json', got %q", cfg.Logging.Format)
	}
	if cfg.Transfer.Timeout != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %v", cfg.Transfer.Timeout)
	}
	if cfg.Transfer.UserAgent != "hreffs-test" {
		t.Errorf("Expected user agent 'hreffs-test', got %q", cfg.Transfer.UserAgent)
	}
	if cfg.Snapshots.Type != "memory" {
		t.Errorf("Expected snapshot store 'memory', got %q", cfg.Snapshots.Type)
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("Expected default log output 'stderr', got %q", cfg.Logging.Output)
	}
	if cfg.Transfer.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %v", cfg.Transfer.Timeout)
	}
	if !cfg.Transfer.FollowRedirects || !cfg.Transfer.FailOnError {
		t.Error("Expected redirects and fail-on-error enabled by default")
	}
	if cfg.Snapshots.Type != "badger" {
		t.Errorf("Expected default snapshot store 'badger', got %q", cfg.Snapshots.Type)
	}
	if filepath.Base(cfg.History.Path) != "history_href.txt" {
		t.Errorf("Expected history file name 'history_href.txt', got %q", cfg.History.Path)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()

	if !filepath.IsAbs(path) {
		t.Errorf("Expected absolute path, got %q", path)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected filename 'config.yaml', got %q", filepath.Base(path))
	}
}

func TestGetConfigDir(t *testing.T) {
	dir := GetConfigDir()

	if filepath.Base(dir) != "hreffs" {
		t.Errorf("Expected directory name 'hreffs', got %q", filepath.Base(dir))
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	if got := GetConfigDir(); got != filepath.Join(xdg, "hreffs") {
		t.Errorf("Expected XDG config dir, got %q", got)
	}
	if ConfigExists() {
		t.Error("Expected no config in a fresh XDG dir")
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("HREFFS_LOGGING_LEVEL", "ERROR")
	t.Setenv("HREFFS_TRANSFER_MAX_REDIRECTS", "7")
	t.Setenv("HREFFS_LISTING_PROBE_SIZES", "true")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "INFO"

transfer:
  max_redirects: 2
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Environment variables override the config file
	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.Transfer.MaxRedirects != 7 {
		t.Errorf("Expected max_redirects 7 from env var, got %d", cfg.Transfer.MaxRedirects)
	}
	if !cfg.Listing.ProbeSizes {
		t.Error("Expected probe_sizes enabled from env var")
	}
}
