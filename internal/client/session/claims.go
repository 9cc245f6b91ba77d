package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what the client can read from an access token without the
// server's key. Nothing here is trusted; it is for display only.
type Claims struct {
	Subject   string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token claims an expiry before now. The client
// never refuses a session on this basis.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// Claims decodes the current access token. Opaque (non-JWT) tokens return an
// error, which callers are expected to ignore.
func (h *Holder) Claims() (Claims, error) {
	token := h.AccessToken()
	if token == "" {
		return Claims{}, ErrNoSession
	}
	return ParseClaims(token)
}

func ParseClaims(token string) (Claims, error) {
	tc := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, tc); err != nil {
		return Claims{}, fmt.Errorf("decode access token: %w", err)
	}

	c := Claims{Subject: tc.Subject, Email: tc.Email}
	if tc.IssuedAt != nil {
		c.IssuedAt = tc.IssuedAt.Time
	}
	if tc.ExpiresAt != nil {
		c.ExpiresAt = tc.ExpiresAt.Time
	}
	return c, nil
}
