// Package config loads runtime configuration for the hubauth CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. HUBAUTH_* environment variables; a .env file in the working directory
//     is loaded first and never overrides variables already set.
//  4. Command-line flags (see parseFlags).
//
// # JSON schema
//
// Durations may be strings like "30s" or integer nanoseconds:
//
//	{
//	  "base_url": "https://da84s1s15g.execute-api.af-south-1.amazonaws.com",
//	  "db_path": "hubauth.db",
//	  "request_timeout": "30s",
//	  "resend_cooldown": "60s",
//	  "online_check_interval": "30s",
//	  "captcha_endpoint": "",
//	  "captcha_site_key": "",
//	  "captcha_fallback": false,
//	  "google_redirect_uri": "http://localhost:8080/auth/callback",
//	  "log_level": "info",
//	  "log_backend": "slog",
//	  "log_file": ""
//	}
//
// Environment variables use the upper-cased key with the HUBAUTH_ prefix,
// e.g. HUBAUTH_BASE_URL or HUBAUTH_CAPTCHA_FALLBACK=true.
package config
