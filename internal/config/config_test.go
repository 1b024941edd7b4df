package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StoreBackend != "sqlite" || cfg.NarrativeKey != "primary" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "budgetdesk.yaml")
	yaml := `
port: "9000"
store_backend: pathstore
pathstore_url: http://store:8080
pathstore_api_key: from-file
job_ttl: 30m
notify_emails: [a@example.com]
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PATHSTORE_API_KEY", "from-env")
	t.Setenv("NOTIFY_PHONES", " +1555 , ,+1666")
	t.Setenv("WORKER_COUNT", "-3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("expected port from file, got %q", cfg.Port)
	}
	if cfg.PathstoreAPIKey != "from-env" {
		t.Errorf("expected env to override file, got %q", cfg.PathstoreAPIKey)
	}
	if cfg.JobTTL != 30*time.Minute {
		t.Errorf("expected job ttl 30m, got %s", cfg.JobTTL)
	}
	if len(cfg.NotifyEmails) != 1 || cfg.NotifyEmails[0] != "a@example.com" {
		t.Errorf("unexpected notify emails %v", cfg.NotifyEmails)
	}
	if len(cfg.NotifyPhones) != 2 || cfg.NotifyPhones[1] != "+1666" {
		t.Errorf("unexpected notify phones %v", cfg.NotifyPhones)
	}
	if cfg.WorkerCount != Defaults().WorkerCount {
		t.Errorf("expected invalid worker count to fall back, got %d", cfg.WorkerCount)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.StoreBackend = "firestore" }},
		{"pathstore without key", func(c *Config) { c.StoreBackend = "pathstore"; c.PathstoreAPIKey = "" }},
		{"sqlite without path", func(c *Config) { c.SQLitePath = "" }},
		{"no blob dir", func(c *Config) { c.BlobDir = "" }},
		{"no narrative key", func(c *Config) { c.NarrativeKey = "" }},
	}
	for _, tt := range tests {
		cfg := Defaults()
		tt.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}
