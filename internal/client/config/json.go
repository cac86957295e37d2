package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/reportdesk/internal/flagx"
	"github.com/dmitrijs2005/reportdesk/internal/timex"
)

// JsonConfig is the on-disk shape. Pointer fields distinguish "absent"
// from "empty" so a file only overrides what it names.
type JsonConfig struct {
	SupabaseURL        *string         `json:"supabase_url"`
	SupabaseAnonKey    *string         `json:"supabase_anon_key"`
	AdminEmails        []string        `json:"admin_emails"`
	SecurityCodes      []string        `json:"security_codes"`
	AdminNotifyWebhook *string         `json:"admin_notify_webhook"`
	AdminNotifyPrivate *bool           `json:"admin_notify_allow_private"`
	SiteOrigin         *string         `json:"site_origin"`
	LoginLocation      *string         `json:"login_location"`
	RequestTimeout     *timex.Duration `json:"request_timeout"`
	SessionDBPath      *string         `json:"session_db"`
	StorageProtocol    *string         `json:"storage_protocol"`
	S3Region           *string         `json:"s3_region"`
	DatabaseURL        *string         `json:"database_url"`
	MetricsAddr        *string         `json:"metrics_addr"`
	LogLevel           *string         `json:"log_level"`
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// parseJson overlays cfg with the file named by -c or -config, if any.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.SupabaseURL, jc.SupabaseURL)
	setString(&cfg.SupabaseAnonKey, jc.SupabaseAnonKey)
	if jc.AdminEmails != nil {
		cfg.AdminEmails = jc.AdminEmails
	}
	if jc.SecurityCodes != nil {
		cfg.SecurityCodes = jc.SecurityCodes
	}
	setString(&cfg.AdminNotifyWebhook, jc.AdminNotifyWebhook)
	if jc.AdminNotifyPrivate != nil {
		cfg.AdminNotifyAllowPrivate = *jc.AdminNotifyPrivate
	}
	setString(&cfg.SiteOrigin, jc.SiteOrigin)
	setString(&cfg.LoginLocation, jc.LoginLocation)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	setString(&cfg.SessionDBPath, jc.SessionDBPath)
	setString(&cfg.StorageProtocol, jc.StorageProtocol)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.DatabaseURL, jc.DatabaseURL)
	setString(&cfg.MetricsAddr, jc.MetricsAddr)
	setString(&cfg.LogLevel, jc.LogLevel)
	return nil
}
