package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/hubauth/internal/client/cooldown"
	"github.com/dmitrijs2005/hubauth/internal/client/flow"
)

var panelTitles = map[flow.Panel]string{
	flow.PanelLogin:    "Log in",
	flow.PanelRegister: "Create account",
	flow.PanelOTP:      "Verify email",
	flow.PanelForgot:   "Forgot password",
	flow.PanelReset:    "Reset password",
	flow.PanelSidebar:  "Menu",
}

var panelHints = map[flow.Panel]string{
	flow.PanelLogin:    "type 'login' to sign in or 'forgot' if you lost your password",
	flow.PanelRegister: "type 'register' to fill in the form",
	flow.PanelOTP:      "type 'verify <code>' to confirm, 'resend' for a new code",
	flow.PanelForgot:   "type 'forgot' to request a reset code",
	flow.PanelReset:    "type 'reset' to choose a new password, 'resend' for a new code",
}

// terminalView renders panel changes, banners and cooldown updates as
// lines of text. It is registered with the sequencer as both a view and a
// login observer; the sequencer calls it under its own lock, so it never
// calls back.
type terminalView struct {
	mu     sync.Mutex
	out    io.Writer
	active flow.Panel
	email  string
}

func newTerminalView(out io.Writer) *terminalView {
	return &terminalView{out: out}
}

func (v *terminalView) println(a ...any) {
	_, _ = fmt.Fprintln(v.out, a...)
}

func (v *terminalView) PanelOpened(p flow.Panel, email string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.active = p

	v.println(fmt.Sprintf("[%s]", panelTitles[p]))
	if p == flow.PanelSidebar {
		if v.email != "" {
			v.println("Signed in as", v.email+".", "Commands: whoami, profile, update, passwd, delete-account, logout")
		} else {
			v.println("Commands: open login, open register")
		}
		return
	}
	if email != "" && (p == flow.PanelOTP || p == flow.PanelReset) {
		v.println("A code was sent to", email)
	}
	if hint, ok := panelHints[p]; ok {
		v.println(hint)
	}
}

func (v *terminalView) PanelClosed(p flow.Panel) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.active == p {
		v.active = flow.PanelNone
	}
}

func (v *terminalView) BannerShown(_ flow.Panel, b flow.Banner) {
	v.mu.Lock()
	defer v.mu.Unlock()
	mark := "✗"
	if b.Kind == flow.BannerSuccess {
		mark = "✓"
	}
	v.println(mark, b.Message)
}

func (v *terminalView) LoggedIn(email string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.email = email
}

func (v *terminalView) LoggedOut() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.email = ""
}

// CooldownChanged is the cooldown registry callback. Only the end of a
// countdown is announced, and only while its panel is the one on screen.
func (v *terminalView) CooldownChanged(st cooldown.State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if st.Available() && st.Panel == v.active {
		v.println("You can request a new code now ('resend').")
	}
}

// Email returns the signed-in email, or "" when logged out.
func (v *terminalView) Email() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.email
}

func (v *terminalView) Active() flow.Panel {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active
}
