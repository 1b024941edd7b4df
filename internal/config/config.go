package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	// Auth. Empty disables the bearer check.
	APIKey string `yaml:"api_key"`

	// Document store
	StoreBackend    string `yaml:"store_backend"` // sqlite | pathstore
	SQLitePath      string `yaml:"sqlite_path"`
	PathstoreURL    string `yaml:"pathstore_url"`
	PathstoreAPIKey string `yaml:"pathstore_api_key"`
	PathstorePrefix string `yaml:"pathstore_prefix"`

	// Uploaded originals
	BlobDir string `yaml:"blob_dir"`

	// Narrative aggregate key
	NarrativeKey string `yaml:"narrative_key"`

	// AI suggestions
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	AnthropicModel  string `yaml:"anthropic_model"`

	// Upload worker pool
	WorkerCount  int `yaml:"worker_count"`
	MaxQueueSize int `yaml:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`

	// Email notifications
	SMTPHost     string   `yaml:"smtp_host"`
	SMTPPort     string   `yaml:"smtp_port"`
	SMTPUsername string   `yaml:"smtp_username"`
	SMTPPassword string   `yaml:"smtp_password"`
	NotifyFrom   string   `yaml:"notify_from"`
	NotifyEmails []string `yaml:"notify_emails"`

	// SMS notifications
	TwilioAccountSID string   `yaml:"twilio_account_sid"`
	TwilioAuthToken  string   `yaml:"twilio_auth_token"`
	TwilioFrom       string   `yaml:"twilio_from"`
	NotifyPhones     []string `yaml:"notify_phones"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:                 "8090",
		StoreBackend:         "sqlite",
		SQLitePath:           "data/budgetdesk.db",
		PathstoreURL:         "http://localhost:8080",
		PathstorePrefix:      "budgetdesk",
		BlobDir:              "data/blobs",
		NarrativeKey:         "primary",
		AnthropicModel:       "claude-sonnet-4-5-20250929",
		WorkerCount:          2,
		MaxQueueSize:         50,
		MaxUploadBytes:       20 << 20, // 20MB
		JobTTL:               1 * time.Hour,
		PDFFallbackPdftotext: true,
		SMTPPort:             "587",
	}
}

// Load reads the optional YAML file named by CONFIG_FILE, then applies
// environment overrides.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.applyFloors()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = envOr("PORT", c.Port)
	c.APIKey = envOr("API_KEY", c.APIKey)

	c.StoreBackend = strings.ToLower(envOr("STORE_BACKEND", c.StoreBackend))
	c.SQLitePath = envOr("SQLITE_PATH", c.SQLitePath)
	c.PathstoreURL = envOr("PATHSTORE_URL", c.PathstoreURL)
	c.PathstoreAPIKey = envOr("PATHSTORE_API_KEY", c.PathstoreAPIKey)
	c.PathstorePrefix = envOr("PATHSTORE_PREFIX", c.PathstorePrefix)

	c.BlobDir = envOr("BLOB_DIR", c.BlobDir)
	c.NarrativeKey = envOr("NARRATIVE_KEY", c.NarrativeKey)

	c.AnthropicAPIKey = envOr("ANTHROPIC_API_KEY", c.AnthropicAPIKey)
	c.AnthropicModel = envOr("ANTHROPIC_MODEL", c.AnthropicModel)

	c.WorkerCount = envInt("WORKER_COUNT", c.WorkerCount)
	c.MaxQueueSize = envInt("MAX_QUEUE_SIZE", c.MaxQueueSize)
	c.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", c.MaxUploadBytes)
	c.JobTTL = envDuration("JOB_TTL", c.JobTTL)
	c.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", c.PDFFallbackPdftotext)

	c.SMTPHost = envOr("SMTP_HOST", c.SMTPHost)
	c.SMTPPort = envOr("SMTP_PORT", c.SMTPPort)
	c.SMTPUsername = envOr("SMTP_USERNAME", c.SMTPUsername)
	c.SMTPPassword = envOr("SMTP_PASSWORD", c.SMTPPassword)
	c.NotifyFrom = envOr("NOTIFY_FROM", c.NotifyFrom)
	c.NotifyEmails = envList("NOTIFY_EMAILS", c.NotifyEmails)

	c.TwilioAccountSID = envOr("TWILIO_ACCOUNT_SID", c.TwilioAccountSID)
	c.TwilioAuthToken = envOr("TWILIO_AUTH_TOKEN", c.TwilioAuthToken)
	c.TwilioFrom = envOr("TWILIO_FROM", c.TwilioFrom)
	c.NotifyPhones = envList("NOTIFY_PHONES", c.NotifyPhones)
}

func (c *Config) applyFloors() {
	d := Defaults()
	if c.WorkerCount <= 0 {
		c.WorkerCount = d.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.JobTTL <= 0 {
		c.JobTTL = d.JobTTL
	}
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	case "pathstore":
		if c.PathstoreURL == "" {
			return fmt.Errorf("PATHSTORE_URL is required for the pathstore backend")
		}
		if c.PathstoreAPIKey == "" {
			return fmt.Errorf("PATHSTORE_API_KEY is required for the pathstore backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want sqlite or pathstore)", c.StoreBackend)
	}
	if c.BlobDir == "" {
		return fmt.Errorf("BLOB_DIR is required")
	}
	if c.NarrativeKey == "" {
		return fmt.Errorf("NARRATIVE_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated variable, dropping blanks.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
