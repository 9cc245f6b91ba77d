package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/hubauth/internal/flagx"
	"github.com/dmitrijs2005/hubauth/internal/timex"
)

// JSONConfig is a DTO used exclusively for JSON unmarshalling. Durations use
// timex.Duration so they may be written as "30s" or integer nanoseconds.
// Pointer fields distinguish "absent" from a zero value.
type JSONConfig struct {
	BaseURL             *string         `json:"base_url"`
	DBPath              *string         `json:"db_path"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	ResendCooldown      *timex.Duration `json:"resend_cooldown"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	CaptchaEndpoint     *string         `json:"captcha_endpoint"`
	CaptchaSiteKey      *string         `json:"captcha_site_key"`
	CaptchaFallback     *bool           `json:"captcha_fallback"`
	GoogleRedirectURI   *string         `json:"google_redirect_uri"`
	LogLevel            *string         `json:"log_level"`
	LogBackend          *string         `json:"log_backend"`
	LogFile             *string         `json:"log_file"`
}

// parseJSON overlays cfg with the file named by -c or -config in args. No
// flag, no change.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.BaseURL, jc.BaseURL)
	setString(&cfg.DBPath, jc.DBPath)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setDuration(&cfg.ResendCooldown, jc.ResendCooldown)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setString(&cfg.CaptchaEndpoint, jc.CaptchaEndpoint)
	setString(&cfg.CaptchaSiteKey, jc.CaptchaSiteKey)
	if jc.CaptchaFallback != nil {
		cfg.CaptchaFallback = *jc.CaptchaFallback
	}
	setString(&cfg.GoogleRedirectURI, jc.GoogleRedirectURI)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogBackend, jc.LogBackend)
	setString(&cfg.LogFile, jc.LogFile)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
