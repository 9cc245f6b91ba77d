package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, DefaultBaseURL, c.BaseURL)
	assert.Equal(t, "hubauth.db", c.DBPath)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
	assert.Equal(t, 60*time.Second, c.ResendCooldown)
	assert.False(t, c.CaptchaFallback)
	assert.Equal(t, "slog", c.LogBackend)
	assert.NoError(t, c.Validate())
}

// chdir moves into an empty directory so a stray .env is not picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := chdir(t)

	path := writeTempJSON(t, dir, "cfg.json", map[string]any{
		"base_url":        "https://json.example",
		"db_path":         "json.db",
		"resend_cooldown": "45s",
		"log_level":       "debug",
	})
	t.Setenv("HUBAUTH_DB_PATH", "env.db")
	t.Setenv("HUBAUTH_LOG_LEVEL", "warn")

	cfg, err := LoadConfig([]string{"-c", path, "-log-level", "error"})
	require.NoError(t, err)

	assert.Equal(t, "https://json.example", cfg.BaseURL)
	assert.Equal(t, "env.db", cfg.DBPath)
	assert.Equal(t, 45*time.Second, cfg.ResendCooldown)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HUBAUTH_CAPTCHA_FALLBACK=true\n"), 0o600))
	t.Setenv("HUBAUTH_CAPTCHA_FALLBACK", "")
	require.NoError(t, os.Unsetenv("HUBAUTH_CAPTCHA_FALLBACK"))

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.True(t, cfg.CaptchaFallback)
}

func TestLoadConfig_Errors(t *testing.T) {
	chdir(t)

	_, err := LoadConfig([]string{"-config", "/does/not/exist.json"})
	assert.Error(t, err)

	_, err = LoadConfig([]string{"-cooldown", "500ms"})
	assert.Error(t, err)

	t.Setenv("HUBAUTH_REQUEST_TIMEOUT", "soon")
	_, err = LoadConfig(nil)
	assert.ErrorContains(t, err, "HUBAUTH_REQUEST_TIMEOUT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty base url", func(c *Config) { c.BaseURL = "" }},
		{"empty db path", func(c *Config) { c.DBPath = "" }},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }},
		{"short cooldown", func(c *Config) { c.ResendCooldown = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
