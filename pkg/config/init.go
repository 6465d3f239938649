package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// InitConfig writes a sample configuration file to the default location.
//
// Returns the path of the written file. An existing file is only replaced
// when force is set.
func InitConfig(force bool) (string, error) {
	configPath := GetDefaultConfigPath()
	if err := InitConfigToPath(configPath, force); err != nil {
		return "", err
	}
	return configPath, nil
}

// InitConfigToPath writes a sample configuration file to configPath,
// creating missing parent directories.
func InitConfigToPath(configPath string, force bool) error {
	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
		}
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// configSection is one top-level block of the generated file.
type configSection struct {
	key     string
	comment string
	value   any
}

// generateYAMLWithComments renders cfg section by section, each preceded
// by a short explanation.
func generateYAMLWithComments(cfg *Config) (string, error) {
	sections := []configSection{
		{"logging", "Log level (DEBUG, INFO, WARN, ERROR), format (text, json)\nand output (stdout, stderr or a file path)", cfg.Logging},
		{"listing", "Start URL used when the history is empty, and the extension\nheuristics applied to listing pages", cfg.Listing},
		{"transfer", "HTTP transfer options. timeout bounds a listing pass and each\nsize probe; 0 disables it. max_redirects: -1 = unlimited", cfg.Transfer},
		{"probe", "Pacing of per-entry HEAD requests (0 = unlimited)", cfg.Probe},
		{"history", "Visited-URL history file", cfg.History},
		{"snapshots", "Resolved listing cache: memory or badger", cfg.Snapshots},
		{"destination", "Download target: filesystem or s3\n(s3 keys: region, bucket, key_prefix, endpoint, access_key_id,\nsecret_access_key, max_retries, spool_dir)", cfg.Destination},
	}

	var b strings.Builder
	b.WriteString("# hreffs Configuration File\n")
	b.WriteString("#\n")
	b.WriteString("# Every key can be overridden from the environment with the HREFFS_\n")
	b.WriteString("# prefix, e.g. HREFFS_TRANSFER_TIMEOUT=10s\n")

	for _, s := range sections {
		out, err := yaml.Marshal(map[string]any{s.key: s.value})
		if err != nil {
			return "", fmt.Errorf("failed to marshal %s section: %w", s.key, err)
		}

		b.WriteString("\n")
		for _, line := range strings.Split(s.comment, "\n") {
			b.WriteString("# ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.Write(out)
	}

	return b.String(), nil
}
