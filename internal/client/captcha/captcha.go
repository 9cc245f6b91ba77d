// Package captcha obtains the anti-bot token the auth API expects on
// register, login and forgot-password calls.
package captcha

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/hubauth/internal/logging"
)

const (
	// ActionSubmit is the action name the API's verifier expects.
	ActionSubmit = "submit"
	// FallbackToken is accepted by the API only when its own CAPTCHA check
	// is disabled. Never send it unless explicitly configured.
	FallbackToken = "test_token"
)

var ErrCaptchaUnavailable = errors.New("captcha unavailable")

// Provider returns a fresh token for the given action.
type Provider interface {
	Token(ctx context.Context, action string) (string, error)
}

// Static always returns the same token.
type Static string

func (s Static) Token(context.Context, string) (string, error) {
	if s == "" {
		return "", ErrCaptchaUnavailable
	}
	return string(s), nil
}

type Options struct {
	// Endpoint answers {"token": "..."} for a site key and action.
	Endpoint string
	SiteKey  string
	Timeout  time.Duration
	// Fallback sends FallbackToken when the provider fails.
	Fallback bool
}

// New builds the provider described by opts.
func New(opts Options, log logging.Logger) Provider {
	var p Provider = Static("")
	if opts.Endpoint != "" {
		p = NewHTTPProvider(opts.Endpoint, opts.SiteKey, opts.Timeout)
	}
	if opts.Fallback {
		p = WithFallback(p, log)
	}
	return p
}

type HTTPProvider struct {
	endpoint string
	siteKey  string
	http     *http.Client
}

func NewHTTPProvider(endpoint, siteKey string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		endpoint: strings.TrimSpace(endpoint),
		siteKey:  siteKey,
		http:     &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) Token(ctx context.Context, action string) (string, error) {
	body, err := json.Marshal(map[string]string{"siteKey": p.siteKey, "action": action})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCaptchaUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %v", ErrCaptchaUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrCaptchaUnavailable, resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCaptchaUnavailable, err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("%w: empty token", ErrCaptchaUnavailable)
	}
	return out.Token, nil
}

type fallback struct {
	next Provider
	log  logging.Logger
}

// WithFallback wraps p so that any failure other than cancellation yields
// FallbackToken.
func WithFallback(p Provider, log logging.Logger) Provider {
	if log == nil {
		log = logging.NewNop()
	}
	return &fallback{next: p, log: log}
}

func (f *fallback) Token(ctx context.Context, action string) (string, error) {
	token, err := f.next.Token(ctx, action)
	if err == nil {
		return token, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "", err
	}
	f.log.Warn(ctx, "captcha provider failed, using fallback token", "error", err)
	return FallbackToken, nil
}
