package cli

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/hubauth/internal/client/flow"
	"github.com/dmitrijs2005/hubauth/internal/client/services"
	"github.com/dmitrijs2005/hubauth/internal/client/validation"
	"github.com/dmitrijs2005/hubauth/internal/common"
)

// getSimpleText, getPassword and getConfirm are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getConfirm    = GetConfirm
)

// readSecret prompts for a hidden value and returns it as a string. The raw
// bytes are wiped before returning.
func (a *App) readSecret(prompt string) (string, error) {
	b, err := getPassword(prompt, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(b)
	return string(b), nil
}

// printPasswordChecklist shows which composition rules pw satisfies.
func (a *App) printPasswordChecklist(pw string) {
	r := validation.PasswordRequirements(pw)
	rules := []struct {
		met   bool
		label string
	}{
		{r.Length, "at least 8 characters"},
		{r.Uppercase, "an uppercase letter"},
		{r.Lowercase, "a lowercase letter"},
		{r.Number, "a number"},
		{r.Special, "a special character"},
	}
	for _, rule := range rules {
		mark := "✗"
		if rule.met {
			mark = "✓"
		}
		a.printf("  %s %s\n", mark, rule.label)
	}
}

// Register prompts for the registration form and submits it. On success the
// flow moves on to the verification panel.
func (a *App) Register(ctx context.Context) error {
	a.ensureOpen(flow.PanelRegister, "")

	var (
		form validation.Registration
		err  error
	)
	if form.FirstName, err = getSimpleText(a.reader, "First name", a.out); err != nil {
		return err
	}
	if form.LastName, err = getSimpleText(a.reader, "Last name", a.out); err != nil {
		return err
	}
	if form.Email, err = getSimpleText(a.reader, "Email", a.out); err != nil {
		return err
	}
	if form.Password, err = a.readSecret("Password"); err != nil {
		return err
	}
	a.printPasswordChecklist(form.Password)
	if form.ConfirmPassword, err = a.readSecret("Confirm password"); err != nil {
		return err
	}
	if form.AgreeTerms, err = getConfirm(a.reader, "I agree to the Terms of Service and Privacy Policy", a.out); err != nil {
		return err
	}

	return a.authService.Register(ctx, form)
}

// Verify submits the emailed code, taken from args or prompted for.
func (a *App) Verify(ctx context.Context, args []string) error {
	email := ""
	if pv := a.authService.Pending(); pv != nil && pv.Purpose == services.PurposeRegistration {
		email = pv.Email
	}
	a.ensureOpen(flow.PanelOTP, email)

	code := strings.Join(args, "")
	if code == "" {
		var err error
		if code, err = getSimpleText(a.reader, "Verification code", a.out); err != nil {
			return err
		}
	}
	return a.authService.VerifyEmail(ctx, code)
}

// Resend asks for a new code for whichever verification is in progress.
func (a *App) Resend(ctx context.Context) error {
	pv := a.authService.Pending()
	if a.flow.IsOpen(flow.PanelReset) || (pv != nil && pv.Purpose == services.PurposePasswordReset && !a.flow.IsOpen(flow.PanelOTP)) {
		return a.authService.ResendForgotCode(ctx)
	}
	return a.authService.ResendVerification(ctx)
}

// Login prompts for credentials and signs in.
func (a *App) Login(ctx context.Context) error {
	a.ensureOpen(flow.PanelLogin, "")

	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := a.readSecret("Password")
	if err != nil {
		return err
	}
	return a.authService.Login(ctx, email, password)
}

// Google exchanges an authorization code obtained from the Google consent
// page for a session.
func (a *App) Google(ctx context.Context, args []string) error {
	a.ensureOpen(flow.PanelLogin, "")

	code := ""
	if len(args) > 0 {
		code = args[0]
	} else {
		var err error
		if code, err = getSimpleText(a.reader, "Google authorization code", a.out); err != nil {
			return err
		}
	}
	return a.authService.GoogleAuth(ctx, code)
}

// Forgot requests a password reset code.
func (a *App) Forgot(ctx context.Context) error {
	a.ensureOpen(flow.PanelForgot, "")

	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	return a.authService.ForgotPassword(ctx, email)
}

// Reset completes a password reset with the emailed code.
func (a *App) Reset(ctx context.Context) error {
	email := ""
	if pv := a.authService.Pending(); pv != nil && pv.Purpose == services.PurposePasswordReset {
		email = pv.Email
	}
	a.ensureOpen(flow.PanelReset, email)

	code, err := getSimpleText(a.reader, "Reset code", a.out)
	if err != nil {
		return err
	}
	password, err := a.readSecret("New password")
	if err != nil {
		return err
	}
	a.printPasswordChecklist(password)
	confirmation, err := a.readSecret("Confirm new password")
	if err != nil {
		return err
	}
	return a.authService.ResetPassword(ctx, code, password, confirmation)
}

// Logout ends the session. The local session is gone even when the server
// call fails.
func (a *App) Logout(ctx context.Context) error {
	err := a.authService.Logout(ctx)
	a.println("Logged out.")
	if err != nil {
		a.log.Warn(ctx, "logout finished with errors", "error", err)
	}
	return err
}
