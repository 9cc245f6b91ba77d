package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/hubauth/internal/flagx"
)

var knownFlags = []string{
	"-u", "-db", "-t", "-cooldown", "-i",
	"-captcha-url", "-captcha-key", "-captcha-fallback",
	"-google-redirect", "-log-level", "-log-backend", "-log-file",
}

// parseFlags populates Config fields from command-line flags.
//
//	-u string              base URL of the auth API
//	-db string             path of the local SQLite file
//	-t duration            per-request timeout
//	-cooldown duration     resend cooldown
//	-i int                 online check interval (seconds)
//	-captcha-url string    captcha token endpoint
//	-captcha-key string    captcha site key
//	-captcha-fallback      send the test token when no captcha is available
//	-google-redirect string
//	-log-level string      debug, info, warn or error
//	-log-backend string    slog or zap
//	-log-file string       log destination (default stderr)
//
// Arguments are filtered with flagx.FilterArgs so flags owned by other
// layers (-c/-config) do not cause errors.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("hubauth", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.BaseURL, "u", cfg.BaseURL, "base URL of the auth API")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path of the local SQLite file")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "per-request timeout")
	fs.DurationVar(&cfg.ResendCooldown, "cooldown", cfg.ResendCooldown, "resend cooldown")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.CaptchaEndpoint, "captcha-url", cfg.CaptchaEndpoint, "captcha token endpoint")
	fs.StringVar(&cfg.CaptchaSiteKey, "captcha-key", cfg.CaptchaSiteKey, "captcha site key")
	fs.BoolVar(&cfg.CaptchaFallback, "captcha-fallback", cfg.CaptchaFallback, "send the test token when no captcha is available")
	fs.StringVar(&cfg.GoogleRedirectURI, "google-redirect", cfg.GoogleRedirectURI, "OAuth redirect URI")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogBackend, "log-backend", cfg.LogBackend, "log backend (slog or zap)")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "log file (default stderr)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	return nil
}
