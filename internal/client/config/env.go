package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "HUBAUTH_"

// loadDotEnv exports the variables of path into the process environment.
// Variables already set are left alone and a missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// parseEnv overlays cfg with HUBAUTH_* variables.
func parseEnv(cfg *Config) error {
	envString("BASE_URL", &cfg.BaseURL)
	envString("DB_PATH", &cfg.DBPath)
	envString("CAPTCHA_ENDPOINT", &cfg.CaptchaEndpoint)
	envString("CAPTCHA_SITE_KEY", &cfg.CaptchaSiteKey)
	envString("GOOGLE_REDIRECT_URI", &cfg.GoogleRedirectURI)
	envString("LOG_LEVEL", &cfg.LogLevel)
	envString("LOG_BACKEND", &cfg.LogBackend)
	envString("LOG_FILE", &cfg.LogFile)

	return errors.Join(
		envDuration("REQUEST_TIMEOUT", &cfg.RequestTimeout),
		envDuration("RESEND_COOLDOWN", &cfg.ResendCooldown),
		envDuration("ONLINE_CHECK_INTERVAL", &cfg.OnlineCheckInterval),
		envBool("CAPTCHA_FALLBACK", &cfg.CaptchaFallback),
	)
}

func envString(name string, dst *string) {
	if v, ok := os.LookupEnv(envPrefix + name); ok {
		*dst = v
	}
}

func envDuration(name string, dst *time.Duration) error {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, name, err)
	}
	*dst = d
	return nil
}

func envBool(name string, dst *bool) error {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, name, err)
	}
	*dst = b
	return nil
}
