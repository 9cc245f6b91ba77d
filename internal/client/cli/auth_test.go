package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/dmitrijs2005/hubauth/internal/client/client"
	"github.com/dmitrijs2005/hubauth/internal/client/flow"
	"github.com/dmitrijs2005/hubauth/internal/client/services"
	"github.com/dmitrijs2005/hubauth/internal/client/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubInputs replaces the interactive helpers with scripted answers, taken
// in order. Text and password prompts share one script.
func stubInputs(t *testing.T, answers ...string) *[]string {
	t.Helper()
	var prompts []string
	next := func(prompt string) (string, error) {
		prompts = append(prompts, prompt)
		if len(answers) == 0 {
			return "", io.EOF
		}
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}

	origST, origGP, origGC := getSimpleText, getPassword, getConfirm
	getSimpleText = func(_ *bufio.Reader, prompt string, _ io.Writer) (string, error) { return next(prompt) }
	getPassword = func(prompt string, _ io.Writer) ([]byte, error) {
		s, err := next(prompt)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	}
	getConfirm = func(_ *bufio.Reader, prompt string, _ io.Writer) (bool, error) {
		s, err := next(prompt)
		return s == "y", err
	}
	t.Cleanup(func() {
		getSimpleText, getPassword, getConfirm = origST, origGP, origGC
	})
	return &prompts
}

func TestRegister_CollectsForm(t *testing.T) {
	f := &fakeAuth{}
	app, out := newTestApp(t, f)
	stubInputs(t, "Ann", "Lee", "ann@example.com", "Passw0rd!", "Passw0rd!", "y")

	require.NoError(t, app.Register(context.Background()))
	assert.Equal(t, "Ann", f.registered.FirstName)
	assert.Equal(t, "Lee", f.registered.LastName)
	assert.Equal(t, "ann@example.com", f.registered.Email)
	assert.Equal(t, "Passw0rd!", f.registered.Password)
	assert.Equal(t, "Passw0rd!", f.registered.ConfirmPassword)
	assert.True(t, f.registered.AgreeTerms)

	assert.True(t, app.flow.IsOpen(flow.PanelRegister))
	assert.Contains(t, out.String(), "✓ at least 8 characters")
	assert.Contains(t, out.String(), "✓ a special character")
}

func TestRegister_WeakPasswordChecklist(t *testing.T) {
	f := &fakeAuth{}
	app, out := newTestApp(t, f)
	stubInputs(t, "Ann", "Lee", "ann@example.com", "abc", "abc", "n")

	require.NoError(t, app.Register(context.Background()))
	assert.False(t, f.registered.AgreeTerms)
	assert.Contains(t, out.String(), "✗ at least 8 characters")
	assert.Contains(t, out.String(), "✓ a lowercase letter")
	assert.Contains(t, out.String(), "✗ a number")
}

func TestRegister_InputErrorStops(t *testing.T) {
	f := &fakeAuth{}
	app, _ := newTestApp(t, f)
	stubInputs(t, "Ann")

	assert.ErrorIs(t, app.Register(context.Background()), io.EOF)
	assert.Empty(t, f.calls)
}

func TestVerify_CodeFromArgsOrPrompt(t *testing.T) {
	f := &fakeAuth{pending: &services.PendingVerification{Email: "ann@example.com", Purpose: services.PurposeRegistration}}
	app, _ := newTestApp(t, f)

	require.NoError(t, app.Verify(context.Background(), []string{"123", "456"}))
	assert.Equal(t, "123456", f.verifyCode)
	p, email := app.flow.Active()
	assert.Equal(t, flow.PanelOTP, p)
	assert.Equal(t, "ann@example.com", email)

	prompts := stubInputs(t, "654321")
	require.NoError(t, app.Verify(context.Background(), nil))
	assert.Equal(t, "654321", f.verifyCode)
	assert.Equal(t, []string{"Verification code"}, *prompts)
}

func TestVerify_ServiceErrorReturned(t *testing.T) {
	f := &fakeAuth{err: services.ErrNoPendingVerification}
	app, _ := newTestApp(t, f)
	assert.ErrorIs(t, app.Verify(context.Background(), []string{"123456"}), services.ErrNoPendingVerification)
}

func TestResend_PicksFlow(t *testing.T) {
	f := &fakeAuth{}
	app, _ := newTestApp(t, f)

	app.flow.Open(flow.PanelOTP, "")
	require.NoError(t, app.Resend(context.Background()))

	app.flow.Open(flow.PanelReset, "")
	require.NoError(t, app.Resend(context.Background()))

	app.flow.CloseAll()
	f.pending = &services.PendingVerification{Email: "a@b.co", Purpose: services.PurposePasswordReset}
	require.NoError(t, app.Resend(context.Background()))

	assert.Equal(t, []string{"resend-verification", "resend-forgot", "resend-forgot"}, f.calls)
}

func TestLogin_PromptsAndSubmits(t *testing.T) {
	f := &fakeAuth{}
	app, _ := newTestApp(t, f)
	prompts := stubInputs(t, "ann@example.com", "secret")

	require.NoError(t, app.Login(context.Background()))
	assert.Equal(t, "ann@example.com", f.loginEmail)
	assert.Equal(t, "secret", f.loginPass)
	assert.Equal(t, []string{"Email", "Password"}, *prompts)
	assert.True(t, app.flow.IsOpen(flow.PanelLogin))
}

func TestLogin_PasswordError(t *testing.T) {
	f := &fakeAuth{}
	app, _ := newTestApp(t, f)
	stubInputs(t, "ann@example.com")

	assert.Error(t, app.Login(context.Background()))
	assert.Empty(t, f.calls)
}

func TestGoogle(t *testing.T) {
	f := &fakeAuth{}
	app, _ := newTestApp(t, f)

	require.NoError(t, app.Google(context.Background(), []string{"auth-code"}))
	assert.Equal(t, "auth-code", f.googleCode)

	stubInputs(t, "typed-code")
	require.NoError(t, app.Google(context.Background(), nil))
	assert.Equal(t, "typed-code", f.googleCode)
}

func TestForgotAndReset(t *testing.T) {
	f := &fakeAuth{}
	app, out := newTestApp(t, f)

	stubInputs(t, "ann@example.com")
	require.NoError(t, app.Forgot(context.Background()))
	assert.Equal(t, "ann@example.com", f.forgotEmail)
	assert.True(t, app.flow.IsOpen(flow.PanelForgot))

	f.pending = &services.PendingVerification{Email: "ann@example.com", Purpose: services.PurposePasswordReset}
	app.flow.CloseAll()
	stubInputs(t, "123456", "NewPassw0rd!", "NewPassw0rd!")
	require.NoError(t, app.Reset(context.Background()))
	assert.Equal(t, []string{"123456", "NewPassw0rd!", "NewPassw0rd!"}, f.resetArgs)

	_, email := app.flow.Active()
	assert.Equal(t, "ann@example.com", email)
	assert.Contains(t, out.String(), "A code was sent to ann@example.com")
}

func TestLogout_PrintsEvenOnError(t *testing.T) {
	f := &fakeAuth{err: errors.New("server down")}
	app, out := newTestApp(t, f)

	assert.Error(t, app.Logout(context.Background()))
	assert.True(t, f.logoutCalled)
	assert.Contains(t, out.String(), "Logged out.")
}

func TestWhoAmI(t *testing.T) {
	app, out := newTestApp(t, &fakeAuth{})

	assert.ErrorIs(t, app.WhoAmI(context.Background()), services.ErrNotLoggedIn)
	assert.Contains(t, out.String(), "Please log in first.")

	out.Reset()
	app.session = &fakeSession{
		current: &session.Session{AccessToken: "a", Email: "ann@example.com"},
		claims:  session.Claims{Subject: "u-1", ExpiresAt: time.Now().Add(-time.Hour)},
	}
	require.NoError(t, app.WhoAmI(context.Background()))
	assert.Contains(t, out.String(), "Email: ann@example.com")
	assert.Contains(t, out.String(), "User ID: u-1")
	assert.Contains(t, out.String(), "Token expired at")

	out.Reset()
	app.session = &fakeSession{
		current: &session.Session{AccessToken: "opaque", Email: "ann@example.com"},
		err:     errors.New("not a jwt"),
	}
	require.NoError(t, app.WhoAmI(context.Background()))
	assert.Equal(t, "Email: ann@example.com\n", out.String())
}

func TestProfile(t *testing.T) {
	f := &fakeAuth{user: &client.User{
		Email:     "ann@example.com",
		FirstName: "Ann",
		LastName:  "Lee",
		Extra:     map[string]json.RawMessage{"role": json.RawMessage(`"admin"`)},
	}}
	app, out := newTestApp(t, f)

	require.NoError(t, app.Profile(context.Background()))
	assert.Contains(t, out.String(), "Name: Ann Lee")
	assert.Contains(t, out.String(), `role: "admin"`)

	f.err = services.ErrNotLoggedIn
	assert.ErrorIs(t, app.Profile(context.Background()), services.ErrNotLoggedIn)
}

func TestUpdateProfileAndChangePassword(t *testing.T) {
	f := &fakeAuth{}
	app, _ := newTestApp(t, f)

	stubInputs(t, "Ann", "")
	require.NoError(t, app.UpdateProfile(context.Background()))
	assert.Equal(t, client.UserUpdate{FirstName: "Ann"}, f.update)

	stubInputs(t, "old", "NewPassw0rd!", "NewPassw0rd!")
	require.NoError(t, app.ChangePassword(context.Background()))
	assert.Equal(t, []string{"old", "NewPassw0rd!", "NewPassw0rd!"}, f.changeArgs)
}

func TestDeleteAccount(t *testing.T) {
	t.Run("requires login", func(t *testing.T) {
		f := &fakeAuth{}
		app, _ := newTestApp(t, f)
		assert.ErrorIs(t, app.DeleteAccount(context.Background()), services.ErrNotLoggedIn)
		assert.Empty(t, f.calls)
	})

	t.Run("declined", func(t *testing.T) {
		f := &fakeAuth{}
		app, out := newTestApp(t, f)
		app.flow.Restored("ann@example.com")
		stubInputs(t, "pw", "DELETE", "", "n")

		assert.ErrorIs(t, app.DeleteAccount(context.Background()), errDeleteAborted)
		assert.Empty(t, f.calls)
		assert.Contains(t, out.String(), "Nothing was deleted.")
	})

	t.Run("confirmed", func(t *testing.T) {
		f := &fakeAuth{}
		app, out := newTestApp(t, f)
		app.flow.Restored("ann@example.com")
		stubInputs(t, "pw", "DELETE", "moving on", "y")

		require.NoError(t, app.DeleteAccount(context.Background()))
		assert.Equal(t, []string{"pw", "DELETE", "moving on"}, f.deleteArgs)
		assert.Contains(t, out.String(), "Account deleted.")
	})
}
