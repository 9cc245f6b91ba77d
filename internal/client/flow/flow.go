// Package flow sequences the client's panels. At most one panel is active at
// a time; opening a panel closes the previous one, and closing a panel drops
// its banner.
package flow

import (
	"fmt"
	"sync"
)

type Panel string

const (
	PanelNone     Panel = ""
	PanelLogin    Panel = "login"
	PanelRegister Panel = "register"
	PanelOTP      Panel = "otp"
	PanelForgot   Panel = "forgot"
	PanelReset    Panel = "reset"
	PanelSidebar  Panel = "sidebar"
)

// Panels lists every known panel in display order.
var Panels = []Panel{PanelLogin, PanelRegister, PanelOTP, PanelForgot, PanelReset, PanelSidebar}

func (p Panel) Valid() bool {
	for _, known := range Panels {
		if p == known {
			return true
		}
	}
	return false
}

func ParsePanel(s string) (Panel, error) {
	p := Panel(s)
	if !p.Valid() {
		return PanelNone, fmt.Errorf("unknown panel %q", s)
	}
	return p, nil
}

type DismissReason string

const (
	DismissEscape       DismissReason = "escape"
	DismissOutsideClick DismissReason = "outside-click"
)

type BannerKind int

const (
	BannerError BannerKind = iota + 1
	BannerSuccess
)

func (k BannerKind) String() string {
	switch k {
	case BannerError:
		return "error"
	case BannerSuccess:
		return "success"
	}
	return "none"
}

type Banner struct {
	Kind    BannerKind
	Message string
}

// Event is a completed step that moves the flow to its next panel.
type Event int

const (
	RegisterSucceeded Event = iota + 1
	VerifySucceeded
	ForgotSucceeded
	ResetSucceeded
	LoginSucceeded
	LoggedOut
)

// View renders panel changes. Implementations must not call back into the
// Sequencer.
type View interface {
	PanelOpened(p Panel, email string)
	PanelClosed(p Panel)
	BannerShown(p Panel, b Banner)
}

// LoginStateObserver is told when the user logs in or out.
type LoginStateObserver interface {
	LoggedIn(email string)
	LoggedOut()
}

type Sequencer struct {
	mu        sync.Mutex
	active    Panel
	email     string
	banners   map[Panel]Banner
	views     []View
	observers []LoginStateObserver
}

type Option func(*Sequencer)

func WithView(v View) Option {
	return func(s *Sequencer) { s.views = append(s.views, v) }
}

func WithObserver(o LoginStateObserver) Option {
	return func(s *Sequencer) { s.observers = append(s.observers, o) }
}

func NewSequencer(opts ...Option) *Sequencer {
	s := &Sequencer{banners: make(map[Panel]Banner)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Active returns the open panel and the email it displays.
func (s *Sequencer) Active() (Panel, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.email
}

func (s *Sequencer) IsOpen(p Panel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return p != PanelNone && s.active == p
}

// Open makes p the active panel, closing whichever panel was open before.
// email is shown by panels that display it (otp, reset) and may be empty.
func (s *Sequencer) Open(p Panel, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open(p, email)
}

func (s *Sequencer) open(p Panel, email string) {
	if s.active != PanelNone {
		s.close()
	}
	s.active = p
	s.email = email
	for _, v := range s.views {
		v.PanelOpened(p, email)
	}
}

// Close closes p if it is the active panel.
func (s *Sequencer) Close(p Panel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == p && p != PanelNone {
		s.close()
	}
}

// CloseAll closes the active panel, if any.
func (s *Sequencer) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != PanelNone {
		s.close()
	}
}

func (s *Sequencer) close() {
	p := s.active
	s.active = PanelNone
	s.email = ""
	delete(s.banners, p)
	for _, v := range s.views {
		v.PanelClosed(p)
	}
}

// Dismiss closes the active panel in response to escape or a click outside
// it. It reports whether anything was closed.
func (s *Sequencer) Dismiss(reason DismissReason) bool {
	if reason != DismissEscape && reason != DismissOutsideClick {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == PanelNone {
		return false
	}
	s.close()
	return true
}

// Toggle opens p, or closes it when it is already open.
func (s *Sequencer) Toggle(p Panel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == p {
		s.close()
		return
	}
	s.open(p, "")
}

func (s *Sequencer) ShowError(p Panel, msg string) {
	s.show(p, Banner{Kind: BannerError, Message: msg})
}

func (s *Sequencer) ShowSuccess(p Panel, msg string) {
	s.show(p, Banner{Kind: BannerSuccess, Message: msg})
}

func (s *Sequencer) show(p Panel, b Banner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banners[p] = b
	for _, v := range s.views {
		v.BannerShown(p, b)
	}
}

// Banner returns the banner currently attached to p.
func (s *Sequencer) Banner(p Panel) (Banner, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.banners[p]
	return b, ok
}

// Restored tells observers about a session found at startup without
// opening any panel.
func (s *Sequencer) Restored(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.observers {
		o.LoggedIn(email)
	}
}

// Advance applies the fixed transition for ev.
//
//	RegisterSucceeded  register -> otp (email shown)
//	VerifySucceeded    otp      -> login
//	ForgotSucceeded    forgot   -> reset (email shown)
//	ResetSucceeded     reset    -> login
//	LoginSucceeded     *        -> sidebar, observers told
//	LoggedOut          *        -> closed, observers told
func (s *Sequencer) Advance(ev Event, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev {
	case RegisterSucceeded:
		s.open(PanelOTP, email)
	case VerifySucceeded, ResetSucceeded:
		s.open(PanelLogin, email)
	case ForgotSucceeded:
		s.open(PanelReset, email)
	case LoginSucceeded:
		s.open(PanelSidebar, email)
		for _, o := range s.observers {
			o.LoggedIn(email)
		}
	case LoggedOut:
		if s.active != PanelNone {
			s.close()
		}
		for _, o := range s.observers {
			o.LoggedOut()
		}
	}
}
