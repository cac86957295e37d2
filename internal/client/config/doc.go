// Package config loads runtime configuration for the reportdesk CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment variables (SUPABASE_URL, SUPABASE_ANON_KEY, ADMIN_EMAILS,
//     SECURITY_CODES, ADMIN_NOTIFY_WEBHOOK, SITE_ORIGIN, LOGIN_LOCATION,
//     REQUEST_TIMEOUT, SESSION_DB, STORAGE_PROTOCOL, S3_REGION,
//     DATABASE_URL, METRICS_ADDR, LOG_LEVEL). Lists are comma separated.
//  4. Flags -u (backend url), -k (anon key) and -d (session database).
//
// # JSON schema
//
// Durations may be strings like "15s" or integer nanoseconds:
//
//	{
//	  "supabase_url": "https://abc.supabase.co",
//	  "supabase_anon_key": "eyJ...",
//	  "admin_emails": ["boss@example.com"],
//	  "security_codes": ["OPEN-SESAME"],
//	  "request_timeout": "15s",
//	  "storage_protocol": "rest"
//	}
package config
