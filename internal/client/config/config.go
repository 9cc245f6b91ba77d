package config

import (
	"fmt"
	"time"
)

const DefaultBaseURL = "https://da84s1s15g.execute-api.af-south-1.amazonaws.com"

// Config holds runtime settings for the hubauth CLI.
type Config struct {
	BaseURL             string
	DBPath              string
	RequestTimeout      time.Duration
	ResendCooldown      time.Duration
	OnlineCheckInterval time.Duration

	CaptchaEndpoint string
	CaptchaSiteKey  string
	// CaptchaFallback sends the test token when no captcha can be obtained.
	// Only for servers with captcha checking turned off.
	CaptchaFallback bool

	GoogleRedirectURI string

	LogLevel   string
	LogBackend string
	LogFile    string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = DefaultBaseURL
	c.DBPath = "hubauth.db"
	c.RequestTimeout = 30 * time.Second
	c.ResendCooldown = 60 * time.Second
	c.OnlineCheckInterval = 30 * time.Second
	c.GoogleRedirectURI = "http://localhost:8080/auth/callback"
	c.LogLevel = "info"
	c.LogBackend = "slog"
}

// LoadConfig applies defaults, then the JSON file named by -c/-config, then
// HUBAUTH_* environment variables (a .env file in the working directory is
// read first), then command-line flags. Later sources win.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the client cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("config: base URL is empty")
	case c.DBPath == "":
		return fmt.Errorf("config: db path is empty")
	case c.RequestTimeout < 0:
		return fmt.Errorf("config: negative request timeout %s", c.RequestTimeout)
	case c.ResendCooldown < time.Second:
		return fmt.Errorf("config: resend cooldown %s is shorter than one second", c.ResendCooldown)
	case c.OnlineCheckInterval < 0:
		return fmt.Errorf("config: negative online check interval %s", c.OnlineCheckInterval)
	}
	return nil
}
