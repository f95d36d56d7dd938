package httpapi

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the full pdfbatchd configuration.
type Config struct {
	Listen        string          `yaml:"listen"`
	RootDir       string          `yaml:"root_dir"`
	MaxFileMB     int             `yaml:"max_file_mb"`
	RunlogDB      string          `yaml:"runlog_db"`
	RetentionDays int             `yaml:"retention_days"`
	Auth          AuthConfig      `yaml:"auth"`
	Webhooks      []WebhookTarget `yaml:"webhooks"`
}

// AuthConfig enables HTTP Basic auth when both fields are set.
type AuthConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"` // bcrypt hash, see pdfbatchd -hashpw
}

// WebhookTarget configures a downstream webhook notified after each batch run.
type WebhookTarget struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Secret string `yaml:"secret"` // per-webhook secret (HMAC signing key)
}

// DefaultConfig returns sane defaults. RootDir and RunlogDB stay empty:
// path confinement and the run ledger are opt-in.
func DefaultConfig() *Config {
	return &Config{
		Listen:    ":8099",
		MaxFileMB: 100,
	}
}

// LoadConfig reads and parses a YAML config file. Returns DefaultConfig merged with the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if c.MaxFileMB <= 0 {
		return fmt.Errorf("max_file_mb must be > 0")
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("retention_days must be >= 0")
	}
	if (c.Auth.Username == "") != (c.Auth.PasswordHash == "") {
		return fmt.Errorf("auth: username and password_hash must be set together")
	}
	for i, wh := range c.Webhooks {
		if wh.URL == "" {
			return fmt.Errorf("webhook[%d]: url is required", i)
		}
	}
	return nil
}

// MaxFileBytes returns max file size in bytes.
func (c *Config) MaxFileBytes() int64 { return int64(c.MaxFileMB) * 1024 * 1024 }

// AuthEnabled reports whether Basic auth credentials are configured.
func (c *Config) AuthEnabled() bool {
	return c.Auth.Username != "" && c.Auth.PasswordHash != ""
}
