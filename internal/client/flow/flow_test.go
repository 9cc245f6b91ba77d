package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingView struct {
	events []string
}

func (v *recordingView) PanelOpened(p Panel, email string) {
	v.events = append(v.events, "open:"+string(p)+":"+email)
}

func (v *recordingView) PanelClosed(p Panel) {
	v.events = append(v.events, "close:"+string(p))
}

func (v *recordingView) BannerShown(p Panel, b Banner) {
	v.events = append(v.events, b.Kind.String()+":"+string(p)+":"+b.Message)
}

type recordingObserver struct {
	loggedIn  []string
	loggedOut int
}

func (o *recordingObserver) LoggedIn(email string) { o.loggedIn = append(o.loggedIn, email) }
func (o *recordingObserver) LoggedOut()            { o.loggedOut++ }

func TestSequencer_OpenClosesPrevious(t *testing.T) {
	v := &recordingView{}
	s := NewSequencer(WithView(v))

	s.Open(PanelLogin, "")
	s.Open(PanelRegister, "")

	p, _ := s.Active()
	assert.Equal(t, PanelRegister, p)
	assert.False(t, s.IsOpen(PanelLogin))
	assert.Equal(t, []string{"open:login:", "close:login", "open:register:"}, v.events)
}

func TestSequencer_AtMostOneActive(t *testing.T) {
	s := NewSequencer()
	for _, p := range Panels {
		s.Open(p, "")
		open := 0
		for _, q := range Panels {
			if s.IsOpen(q) {
				open++
			}
		}
		assert.Equal(t, 1, open, "after opening %s", p)
	}
}

func TestSequencer_CloseClearsBanner(t *testing.T) {
	s := NewSequencer()
	s.Open(PanelLogin, "")
	s.ShowError(PanelLogin, "Please enter a valid email address")

	b, ok := s.Banner(PanelLogin)
	require.True(t, ok)
	assert.Equal(t, Banner{Kind: BannerError, Message: "Please enter a valid email address"}, b)

	s.Close(PanelLogin)
	_, ok = s.Banner(PanelLogin)
	assert.False(t, ok)
	p, _ := s.Active()
	assert.Equal(t, PanelNone, p)
}

func TestSequencer_CloseIgnoresInactivePanel(t *testing.T) {
	s := NewSequencer()
	s.Open(PanelOTP, "a@b.co")
	s.Close(PanelLogin)
	assert.True(t, s.IsOpen(PanelOTP))
}

func TestSequencer_Dismiss(t *testing.T) {
	s := NewSequencer()
	assert.False(t, s.Dismiss(DismissEscape))

	s.Open(PanelForgot, "")
	assert.False(t, s.Dismiss(DismissReason("scroll")))
	assert.True(t, s.IsOpen(PanelForgot))

	assert.True(t, s.Dismiss(DismissOutsideClick))
	assert.False(t, s.IsOpen(PanelForgot))

	s.Open(PanelSidebar, "")
	assert.True(t, s.Dismiss(DismissEscape))
}

func TestSequencer_Toggle(t *testing.T) {
	s := NewSequencer()
	s.Toggle(PanelSidebar)
	assert.True(t, s.IsOpen(PanelSidebar))
	s.Toggle(PanelSidebar)
	assert.False(t, s.IsOpen(PanelSidebar))

	s.Open(PanelLogin, "")
	s.Toggle(PanelSidebar)
	assert.True(t, s.IsOpen(PanelSidebar))
	assert.False(t, s.IsOpen(PanelLogin))
}

func TestSequencer_Advance(t *testing.T) {
	tests := []struct {
		name      string
		from      Panel
		ev        Event
		wantPanel Panel
		wantEmail string
	}{
		{"register to otp", PanelRegister, RegisterSucceeded, PanelOTP, "a@b.co"},
		{"otp to login", PanelOTP, VerifySucceeded, PanelLogin, "a@b.co"},
		{"forgot to reset", PanelForgot, ForgotSucceeded, PanelReset, "a@b.co"},
		{"reset to login", PanelReset, ResetSucceeded, PanelLogin, "a@b.co"},
		{"login to sidebar", PanelLogin, LoginSucceeded, PanelSidebar, "a@b.co"},
		{"logout closes", PanelSidebar, LoggedOut, PanelNone, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSequencer()
			s.Open(tt.from, "")
			s.Advance(tt.ev, "a@b.co")

			p, email := s.Active()
			assert.Equal(t, tt.wantPanel, p)
			assert.Equal(t, tt.wantEmail, email)
			if tt.wantPanel != tt.from {
				assert.False(t, s.IsOpen(tt.from))
			}
		})
	}
}

func TestSequencer_ObserversNotified(t *testing.T) {
	o := &recordingObserver{}
	s := NewSequencer(WithObserver(o))

	s.Advance(LoginSucceeded, "a@b.co")
	s.Advance(LoggedOut, "")

	assert.Equal(t, []string{"a@b.co"}, o.loggedIn)
	assert.Equal(t, 1, o.loggedOut)
}

func TestSequencer_BannerEvents(t *testing.T) {
	v := &recordingView{}
	s := NewSequencer(WithView(v))
	s.Open(PanelOTP, "a@b.co")
	s.ShowSuccess(PanelOTP, "sent")

	assert.Equal(t, []string{"open:otp:a@b.co", "success:otp:sent"}, v.events)
}

func TestParsePanel(t *testing.T) {
	p, err := ParsePanel("otp")
	require.NoError(t, err)
	assert.Equal(t, PanelOTP, p)

	_, err = ParsePanel("settings")
	assert.Error(t, err)
}

func TestSequencer_RestoredKeepsPanelsClosed(t *testing.T) {
	o := &recordingObserver{}
	s := NewSequencer(WithObserver(o))

	s.Restored("a@b.co")
	p, _ := s.Active()
	assert.Equal(t, PanelNone, p)
	assert.Equal(t, []string{"a@b.co"}, o.loggedIn)
}
