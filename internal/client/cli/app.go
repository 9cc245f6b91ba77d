package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/hubauth/internal/client/captcha"
	"github.com/dmitrijs2005/hubauth/internal/client/client"
	"github.com/dmitrijs2005/hubauth/internal/client/config"
	"github.com/dmitrijs2005/hubauth/internal/client/cooldown"
	"github.com/dmitrijs2005/hubauth/internal/client/flow"
	"github.com/dmitrijs2005/hubauth/internal/client/services"
	"github.com/dmitrijs2005/hubauth/internal/client/session"
	"github.com/dmitrijs2005/hubauth/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const healthTimeout = 3 * time.Second

// sessionInfo is the read side of the session holder used by whoami.
type sessionInfo interface {
	Current() *session.Session
	Claims() (session.Claims, error)
}

type App struct {
	config      *config.Config
	log         logging.Logger
	db          *sql.DB
	authService services.AuthService
	session     sessionInfo
	flow        *flow.Sequencer
	timers      *cooldown.Registry
	view        *terminalView
	reader      *bufio.Reader
	out         io.Writer

	mu   sync.Mutex
	Mode Mode
}

// NewApp opens the local database and wires the session holder, panel flow,
// resend timers, API client and auth service together.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	if log == nil {
		log = logging.NewNop()
	}

	db, err := client.InitDatabase(ctx, c.DBPath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", c.DBPath, "error", err)
		return nil, err
	}

	holder := session.NewHolder(db, log)
	view := newTerminalView(os.Stdout)
	seq := flow.NewSequencer(flow.WithView(view), flow.WithObserver(view))
	timers := cooldown.NewRegistry(c.ResendCooldown, nil, view.CooldownChanged)

	api := client.NewHTTPClient(c.BaseURL, c.RequestTimeout, holder, log)
	cp := captcha.New(captcha.Options{
		Endpoint: c.CaptchaEndpoint,
		SiteKey:  c.CaptchaSiteKey,
		Timeout:  c.RequestTimeout,
		Fallback: c.CaptchaFallback,
	}, log)

	as := services.NewAuthService(api, holder, seq, timers, cp,
		services.Options{GoogleRedirectURI: c.GoogleRedirectURI}, log)

	return &App{
		config:      c,
		log:         log,
		db:          db,
		authService: as,
		session:     holder,
		flow:        seq,
		timers:      timers,
		view:        view,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}, nil
}

// Close stops the resend timers and closes the database.
func (a *App) Close() error {
	if a.timers != nil {
		a.timers.Stop()
	}
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *App) Run(ctx context.Context) error {
	defer func() {
		if err := a.Close(); err != nil {
			a.log.Warn(ctx, "close failed", "error", err)
		}
	}()
	return a.Root(ctx)
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	_, _ = fmt.Fprintln(a.out, args...)
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Mode != mode {
		a.Mode = mode
		a.log.Info(context.Background(), "switched mode", "mode", string(mode))
	}
}

func (a *App) mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Mode
}

func (a *App) isLoggedIn() bool {
	return a.view != nil && a.view.Email() != ""
}

// checkOnline runs one health check and records the result as the mode.
func (a *App) checkOnline(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	err := a.authService.Health(ctx)
	if err != nil {
		a.setMode(ModeOffline)
		return err
	}
	a.setMode(ModeOnline)
	return nil
}

// StartOnlineStatusWatcher polls the health endpoint every interval until ctx
// is done. A non-positive interval disables polling.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Status checks the server once and prints the outcome.
func (a *App) Status(ctx context.Context) error {
	if err := a.checkOnline(ctx); err != nil {
		a.println("Server unavailable:", services.UserMessage(services.ActionHealth, err))
		return err
	}
	a.println("Server is reachable.")
	return nil
}

// OpenPanel opens the panel named by args[0].
func (a *App) OpenPanel(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: open <login|register|otp|forgot|reset|sidebar>")
	}
	p, err := flow.ParsePanel(args[0])
	if err != nil {
		return err
	}
	email := ""
	if pv := a.authService.Pending(); pv != nil && (p == flow.PanelOTP || p == flow.PanelReset) {
		email = pv.Email
	}
	a.flow.Open(p, email)
	return nil
}

// Dismiss closes the current panel the way the escape key does.
func (a *App) Dismiss() error {
	if !a.flow.Dismiss(flow.DismissEscape) {
		a.println("Nothing to close.")
	}
	return nil
}

func (a *App) ToggleMenu() error {
	a.flow.Toggle(flow.PanelSidebar)
	return nil
}

// ensureOpen shows p unless it is already the active panel.
func (a *App) ensureOpen(p flow.Panel, email string) {
	if !a.flow.IsOpen(p) {
		a.flow.Open(p, email)
	}
}
