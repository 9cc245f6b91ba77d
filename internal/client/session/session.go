// Package session holds the authenticated state of the client: the tokens
// issued by the auth API and the email they belong to. The state lives in
// memory and is mirrored to the local metadata store so it survives a
// restart.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/hubauth/internal/client/client"
	"github.com/dmitrijs2005/hubauth/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/hubauth/internal/common"
	"github.com/dmitrijs2005/hubauth/internal/dbx"
	"github.com/dmitrijs2005/hubauth/internal/logging"
)

var (
	ErrIncompleteSession = errors.New("session requires an access token and an email")
	ErrNoSession         = errors.New("not logged in")
)

// Session is the complete authenticated record. A Holder stores either a
// whole Session or nothing.
type Session struct {
	AccessToken  string
	RefreshToken string
	Email        string
}

var sessionKeys = []string{common.KeyAccessToken, common.KeyRefreshToken, common.KeyUserEmail}

// Holder is safe for concurrent use.
type Holder struct {
	mu      sync.RWMutex
	db      *sql.DB
	log     logging.Logger
	current *Session
}

var _ client.TokenSource = (*Holder)(nil)

func NewHolder(db *sql.DB, log logging.Logger) *Holder {
	if log == nil {
		log = logging.NewNop()
	}
	return &Holder{db: db, log: log.With("component", "session")}
}

func (h *Holder) tx(ctx context.Context, fn func(repo metadata.Repository) error) error {
	return dbx.WithTx(ctx, h.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(metadata.NewSQLiteRepository(tx))
	})
}

// Load restores the persisted session. A partial record (a token without an
// email or the reverse) is treated as absent and its keys are removed.
func (h *Holder) Load(ctx context.Context) (*Session, error) {
	var (
		s       *Session
		partial bool
	)
	err := h.tx(ctx, func(repo metadata.Repository) error {
		access, hasAccess, err := repo.Get(ctx, common.KeyAccessToken)
		if err != nil {
			return err
		}
		refresh, hasRefresh, err := repo.Get(ctx, common.KeyRefreshToken)
		if err != nil {
			return err
		}
		email, hasEmail, err := repo.Get(ctx, common.KeyUserEmail)
		if err != nil {
			return err
		}

		switch {
		case access != "" && email != "":
			s = &Session{AccessToken: access, RefreshToken: refresh, Email: email}
			return nil
		case hasAccess || hasRefresh || hasEmail:
			partial = true
			return repo.Delete(ctx, sessionKeys...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if partial {
		h.log.Warn(ctx, "discarded incomplete stored session")
	}

	h.mu.Lock()
	h.current = s
	h.mu.Unlock()

	return s.clone(), nil
}

// Set replaces the session with tokens issued for email and persists it.
// Memory is only updated once the write has committed.
func (h *Holder) Set(ctx context.Context, tokens client.Tokens, email string) error {
	if tokens.AccessToken == "" || email == "" {
		return ErrIncompleteSession
	}
	s := &Session{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken, Email: email}

	err := h.tx(ctx, func(repo metadata.Repository) error {
		if err := repo.Set(ctx, common.KeyAccessToken, s.AccessToken); err != nil {
			return err
		}
		if s.RefreshToken == "" {
			if err := repo.Delete(ctx, common.KeyRefreshToken); err != nil {
				return err
			}
		} else if err := repo.Set(ctx, common.KeyRefreshToken, s.RefreshToken); err != nil {
			return err
		}
		return repo.Set(ctx, common.KeyUserEmail, s.Email)
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	h.mu.Lock()
	h.current = s
	h.mu.Unlock()

	h.log.Info(ctx, "session stored", "email", common.MaskEmail(email))
	return nil
}

// Clear forgets the session in memory and in storage, along with any
// pending password-reset email. Memory is cleared even if storage fails.
func (h *Holder) Clear(ctx context.Context) error {
	h.mu.Lock()
	h.current = nil
	h.mu.Unlock()

	err := h.tx(ctx, func(repo metadata.Repository) error {
		return repo.Delete(ctx, append(sessionKeys, common.KeyResetEmail)...)
	})
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	h.log.Info(ctx, "session cleared")
	return nil
}

// Current returns a copy of the session or nil.
func (h *Holder) Current() *Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current.clone()
}

func (h *Holder) IsAuthenticated() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current != nil
}

func (h *Holder) AccessToken() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return ""
	}
	return h.current.AccessToken
}

func (h *Holder) SetResetEmail(ctx context.Context, email string) error {
	err := h.tx(ctx, func(repo metadata.Repository) error {
		return repo.Set(ctx, common.KeyResetEmail, email)
	})
	if err != nil {
		return fmt.Errorf("save reset email: %w", err)
	}
	return nil
}

// ResetEmail returns the email of an unfinished password reset, if any.
func (h *Holder) ResetEmail(ctx context.Context) (string, bool, error) {
	var (
		email string
		ok    bool
	)
	err := h.tx(ctx, func(repo metadata.Repository) error {
		var err error
		email, ok, err = repo.Get(ctx, common.KeyResetEmail)
		return err
	})
	if err != nil {
		return "", false, fmt.Errorf("load reset email: %w", err)
	}
	return email, ok && email != "", nil
}

func (h *Holder) ClearResetEmail(ctx context.Context) error {
	err := h.tx(ctx, func(repo metadata.Repository) error {
		return repo.Delete(ctx, common.KeyResetEmail)
	})
	if err != nil {
		return fmt.Errorf("clear reset email: %w", err)
	}
	return nil
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
