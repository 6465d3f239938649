package config

import (
	"strings"
	"testing"
	"time"
)

func TestSet_TransferValues(t *testing.T) {
	cfg := GetDefaultConfig()

	settings := []struct{ key, value string }{
		{"transfer.timeout", "5s"},
		{"transfer.max_redirects", "-1"},
		{"transfer.follow_redirects", "false"},
		{"transfer.verbose", "1"},
		{"transfer.user_agent", "hreffs-test/1.0"},
		{"Probe.Requests_Per_Second", "4"},
	}
	for _, s := range settings {
		if err := Set(cfg, s.key, s.value); err != nil {
			t.Fatalf("Set(%q, %q) failed: %v", s.key, s.value, err)
		}
	}

	if cfg.Transfer.Timeout != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %v", cfg.Transfer.Timeout)
	}
	if cfg.Transfer.MaxRedirects != -1 {
		t.Errorf("Expected max_redirects -1, got %d", cfg.Transfer.MaxRedirects)
	}
	if cfg.Transfer.FollowRedirects {
		t.Error("Expected follow_redirects false")
	}
	if !cfg.Transfer.Verbose {
		t.Error("Expected verbose true")
	}
	if cfg.Transfer.UserAgent != "hreffs-test/1.0" {
		t.Errorf("Expected user agent to be set, got %q", cfg.Transfer.UserAgent)
	}
	if cfg.Probe.RequestsPerSecond != 4 {
		t.Errorf("Expected requests_per_second 4, got %d", cfg.Probe.RequestsPerSecond)
	}

	// Untouched settings keep their values.
	if !cfg.Transfer.FailOnError {
		t.Error("Expected fail_on_error to stay true")
	}
}

func TestSet_ExtensionListReplacesOldList(t *testing.T) {
	cfg := GetDefaultConfig()
	original := append([]string(nil), cfg.Listing.CandidateExtensions...)

	if err := Set(cfg, "listing.candidate_extensions", ".iso,.img"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got := strings.Join(cfg.Listing.CandidateExtensions, ",")
	if got != ".iso,.img" {
		t.Errorf("Expected candidate extensions .iso,.img, got %s", got)
	}
	if len(original) <= 2 {
		t.Fatalf("Default candidate list unexpectedly short: %v", original)
	}
}

func TestSet_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"no section", "timeout", "5s"},
		{"unknown section", "snapshots.type", "memory"},
		{"unknown key", "transfer.retries", "3"},
		{"bad duration", "transfer.timeout", "soon"},
		{"bad bool", "transfer.verbose", "maybe"},
		{"below minimum", "transfer.max_redirects", "-2"},
		{"negative uint", "probe.burst", "-1"},
		{"empty list element", "listing.container_extensions", ".htm,"},
		{"relative default url", "listing.default_url", "/pub/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			before := *cfg

			if err := Set(cfg, tt.key, tt.value); err == nil {
				t.Fatalf("Expected Set(%q, %q) to fail", tt.key, tt.value)
			}
			if cfg.Transfer != before.Transfer || cfg.Probe != before.Probe || cfg.Listing.DefaultURL != before.Listing.DefaultURL {
				t.Error("Expected config to be unchanged after a rejected setting")
			}
			if strings.Join(cfg.Listing.ContainerExtensions, ",") != strings.Join(before.Listing.ContainerExtensions, ",") {
				t.Error("Expected container extensions to be unchanged")
			}
		})
	}
}
