package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	StorageREST = "rest"
	StorageS3   = "s3"
)

// Config holds runtime settings for the reportdesk CLI. It is built once
// at start-up and not modified afterwards.
type Config struct {
	SupabaseURL     string `env:"SUPABASE_URL"`
	SupabaseAnonKey string `env:"SUPABASE_ANON_KEY"`

	// AdminEmails is compared case-insensitively.
	AdminEmails []string `env:"ADMIN_EMAILS"`
	// SecurityCodes always approve and are never consumed.
	SecurityCodes []string `env:"SECURITY_CODES"`

	// AdminNotifyWebhook receives pending sign-up notices. Empty disables it.
	AdminNotifyWebhook string `env:"ADMIN_NOTIFY_WEBHOOK"`
	// AdminNotifyAllowPrivate lets the webhook live on a private or
	// loopback address.
	AdminNotifyAllowPrivate bool `env:"ADMIN_NOTIFY_ALLOW_PRIVATE"`

	SiteOrigin     string        `env:"SITE_ORIGIN"`
	LoginLocation  string        `env:"LOGIN_LOCATION"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	SessionDBPath   string `env:"SESSION_DB"`
	StorageProtocol string `env:"STORAGE_PROTOCOL"`
	S3Region        string `env:"S3_REGION"`
	DatabaseURL     string `env:"DATABASE_URL"`

	MetricsAddr string `env:"METRICS_ADDR"`
	LogLevel    string `env:"LOG_LEVEL"`
}

func (c *Config) LoadDefaults() {
	c.SiteOrigin = "http://localhost:3000"
	c.LoginLocation = "login.html"
	c.RequestTimeout = 15 * time.Second
	c.SessionDBPath = "session.db"
	c.StorageProtocol = StorageREST
	c.S3Region = "us-east-1"
	c.LogLevel = "info"
}

// LoadConfig applies defaults, then the JSON file named by -c/-config,
// then the environment, then flags. args excludes the program name;
// environ is in os.Environ form.
func LoadConfig(args, environ []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, environ); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.SupabaseURL = strings.TrimRight(strings.TrimSpace(c.SupabaseURL), "/")
	c.SupabaseAnonKey = strings.TrimSpace(c.SupabaseAnonKey)
	c.AdminEmails = cleanList(c.AdminEmails)
	c.SecurityCodes = cleanList(c.SecurityCodes)
	c.SiteOrigin = strings.TrimRight(strings.TrimSpace(c.SiteOrigin), "/")
	c.StorageProtocol = strings.ToLower(strings.TrimSpace(c.StorageProtocol))
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate reports the first setting that makes the CLI unusable.
func (c *Config) Validate() error {
	if c.SupabaseURL == "" {
		return errors.New("backend url is required (SUPABASE_URL or -u)")
	}
	u, err := url.Parse(c.SupabaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid backend url %q", c.SupabaseURL)
	}
	if c.SupabaseAnonKey == "" {
		return errors.New("anon key is required (SUPABASE_ANON_KEY or -k)")
	}
	switch c.StorageProtocol {
	case StorageREST, StorageS3:
	default:
		return fmt.Errorf("unknown storage protocol %q", c.StorageProtocol)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.SessionDBPath == "" {
		return errors.New("session db path is required")
	}
	return nil
}
