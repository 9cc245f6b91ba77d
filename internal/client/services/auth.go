// Package services contains the application services of the hubauth client.
// This file defines the authentication service: it validates input, fetches
// a captcha token when the route needs one, makes the API call, updates the
// session and pending verification, and moves the panel flow along.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/hubauth/internal/client/captcha"
	"github.com/dmitrijs2005/hubauth/internal/client/client"
	"github.com/dmitrijs2005/hubauth/internal/client/cooldown"
	"github.com/dmitrijs2005/hubauth/internal/client/flow"
	"github.com/dmitrijs2005/hubauth/internal/client/session"
	"github.com/dmitrijs2005/hubauth/internal/client/validation"
	"github.com/dmitrijs2005/hubauth/internal/common"
	"github.com/dmitrijs2005/hubauth/internal/logging"
)

const defaultDeleteReason = "User requested deletion"

// Messages shown after a successful step.
const (
	MsgRegistered      = "Registration successful! Please check your email for verification code."
	MsgVerified        = "Email verified successfully! You can now login."
	MsgCodeSent        = "Verification code sent! Please check your email."
	MsgCodeResent      = "New verification code sent! Please check your email."
	MsgPasswordReset   = "Password reset successful! You can now login with your new password."
	MsgLoggedIn        = "Login successful! Welcome back."
	MsgPasswordChanged = "Password changed successfully."
	MsgProfileUpdated  = "Profile updated successfully."
)

type Purpose string

const (
	PurposeRegistration  Purpose = "registration"
	PurposePasswordReset Purpose = "password-reset"
)

// PendingVerification is an OTP the user has been sent and not yet entered.
type PendingVerification struct {
	Email   string
	Purpose Purpose
}

// SessionStore is the part of the session holder the service needs.
type SessionStore interface {
	Load(ctx context.Context) (*session.Session, error)
	Set(ctx context.Context, tokens client.Tokens, email string) error
	Clear(ctx context.Context) error
	Current() *session.Session
	IsAuthenticated() bool
	SetResetEmail(ctx context.Context, email string) error
	ResetEmail(ctx context.Context) (string, bool, error)
	ClearResetEmail(ctx context.Context) error
}

// AuthService defines the authentication operations offered to the CLI.
//
// Every operation reports failures on the relevant panel as an error banner
// and leaves the flow where the user can retry. Operations honor context
// cancellation.
type AuthService interface {
	Register(ctx context.Context, form validation.Registration) error
	VerifyEmail(ctx context.Context, code string) error
	ResendVerification(ctx context.Context) error
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context, email string) error
	ResendForgotCode(ctx context.Context) error
	ResetPassword(ctx context.Context, code, newPassword, confirmation string) error
	ChangePassword(ctx context.Context, current, newPassword, confirmation string) error
	GoogleAuth(ctx context.Context, code string) error
	UserInfo(ctx context.Context) (*client.User, error)
	UpdateUser(ctx context.Context, update client.UserUpdate) error
	DeleteAccount(ctx context.Context, password, confirmation, reason string) error
	Health(ctx context.Context) error
	Restore(ctx context.Context) (*session.Session, error)
	Pending() *PendingVerification
}

type Options struct {
	GoogleRedirectURI string
}

type authService struct {
	client  client.Client
	session SessionStore
	flow    *flow.Sequencer
	timers  *cooldown.Registry
	captcha captcha.Provider
	opts    Options
	log     logging.Logger

	mu       sync.Mutex
	inFlight map[flow.Panel]bool
	pending  *PendingVerification
}

// NewAuthService wires the service to its collaborators.
func NewAuthService(
	c client.Client,
	s SessionStore,
	seq *flow.Sequencer,
	timers *cooldown.Registry,
	cp captcha.Provider,
	opts Options,
	log logging.Logger,
) AuthService {
	if log == nil {
		log = logging.NewNop()
	}
	return &authService{
		client:   c,
		session:  s,
		flow:     seq,
		timers:   timers,
		captcha:  cp,
		opts:     opts,
		log:      log.With("component", "auth"),
		inFlight: make(map[flow.Panel]bool),
	}
}

// begin marks the form on panel p as submitting. The returned func must be
// called when the request completes.
func (a *authService) begin(p flow.Panel) (func(), error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inFlight[p] {
		return nil, ErrBusy
	}
	a.inFlight[p] = true
	return func() {
		a.mu.Lock()
		delete(a.inFlight, p)
		a.mu.Unlock()
	}, nil
}

func (a *authService) fail(p flow.Panel, action Action, err error) error {
	a.flow.ShowError(p, UserMessage(action, err))
	return err
}

func (a *authService) setPending(pv *PendingVerification) {
	a.mu.Lock()
	a.pending = pv
	a.mu.Unlock()
}

func (a *authService) Pending() *PendingVerification {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending == nil {
		return nil
	}
	pv := *a.pending
	return &pv
}

func (a *authService) pendingFor(purpose Purpose) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending == nil || a.pending.Purpose != purpose {
		return "", false
	}
	return a.pending.Email, true
}

// startTimer runs the resend countdown for p past the end of the request.
func (a *authService) startTimer(ctx context.Context, p flow.Panel) {
	if a.timers != nil {
		a.timers.Start(context.WithoutCancel(ctx), p)
	}
}

func (a *authService) checkTimer(p flow.Panel) error {
	if a.timers == nil {
		return nil
	}
	if t := a.timers.Timer(p); !t.Available() {
		return &CooldownError{Remaining: t.Remaining()}
	}
	return nil
}

func (a *authService) captchaToken(ctx context.Context) (string, error) {
	token, err := a.captcha.Token(ctx, captcha.ActionSubmit)
	if err != nil {
		return "", fmt.Errorf("captcha: %w", err)
	}
	return token, nil
}

func (a *authService) Register(ctx context.Context, form validation.Registration) error {
	done, err := a.begin(flow.PanelRegister)
	if err != nil {
		return a.fail(flow.PanelRegister, ActionRegister, err)
	}
	defer done()

	form = form.Normalize()
	if err := validation.ValidateRegistration(form).Err(); err != nil {
		return a.fail(flow.PanelRegister, ActionRegister, err)
	}

	token, err := a.captchaToken(ctx)
	if err != nil {
		return a.fail(flow.PanelRegister, ActionRegister, err)
	}

	_, err = a.client.Register(ctx, client.RegisterRequest{
		FirstName:       form.FirstName,
		LastName:        form.LastName,
		Email:           form.Email,
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
		CaptchaToken:    token,
	})
	if err != nil {
		a.log.Warn(ctx, "registration failed", "email", common.MaskEmail(form.Email), "error", err)
		return a.fail(flow.PanelRegister, ActionRegister, err)
	}

	a.log.Info(ctx, "registration accepted", "email", common.MaskEmail(form.Email))
	a.setPending(&PendingVerification{Email: form.Email, Purpose: PurposeRegistration})
	a.flow.Advance(flow.RegisterSucceeded, form.Email)
	a.startTimer(ctx, flow.PanelOTP)
	a.flow.ShowSuccess(flow.PanelOTP, MsgRegistered)
	return nil
}

func (a *authService) VerifyEmail(ctx context.Context, code string) error {
	done, err := a.begin(flow.PanelOTP)
	if err != nil {
		return a.fail(flow.PanelOTP, ActionVerifyEmail, err)
	}
	defer done()

	email, ok := a.pendingFor(PurposeRegistration)
	if !ok {
		return a.fail(flow.PanelOTP, ActionVerifyEmail, ErrNoPendingVerification)
	}

	if normalized, ok := validation.NormalizeOTP(code); ok {
		code = normalized
	}
	if err := validation.ValidateVerification(code).Err(); err != nil {
		return a.fail(flow.PanelOTP, ActionVerifyEmail, err)
	}

	if _, err := a.client.VerifyEmail(ctx, email, code); err != nil {
		a.log.Warn(ctx, "email verification failed", "email", common.MaskEmail(email), "error", err)
		return a.fail(flow.PanelOTP, ActionVerifyEmail, err)
	}

	a.log.Info(ctx, "email verified", "email", common.MaskEmail(email))
	a.setPending(nil)
	a.flow.Advance(flow.VerifySucceeded, email)
	if a.timers != nil {
		a.timers.Timer(flow.PanelOTP).Reset()
	}
	a.flow.ShowSuccess(flow.PanelLogin, MsgVerified)
	return nil
}

func (a *authService) ResendVerification(ctx context.Context) error {
	done, err := a.begin(flow.PanelOTP)
	if err != nil {
		return a.fail(flow.PanelOTP, ActionResendVerification, err)
	}
	defer done()

	email, ok := a.pendingFor(PurposeRegistration)
	if !ok {
		return a.fail(flow.PanelOTP, ActionResendVerification, ErrNoPendingVerification)
	}
	if err := a.checkTimer(flow.PanelOTP); err != nil {
		return a.fail(flow.PanelOTP, ActionResendVerification, err)
	}

	if _, err := a.client.ResendVerification(ctx, email); err != nil {
		a.log.Warn(ctx, "resend verification failed", "email", common.MaskEmail(email), "error", err)
		return a.fail(flow.PanelOTP, ActionResendVerification, err)
	}

	a.startTimer(ctx, flow.PanelOTP)
	a.flow.ShowSuccess(flow.PanelOTP, MsgCodeResent)
	return nil
}

func (a *authService) Login(ctx context.Context, email, password string) error {
	done, err := a.begin(flow.PanelLogin)
	if err != nil {
		return a.fail(flow.PanelLogin, ActionLogin, err)
	}
	defer done()

	email = strings.TrimSpace(email)
	if err := validation.ValidateLogin(email, password).Err(); err != nil {
		return a.fail(flow.PanelLogin, ActionLogin, err)
	}

	token, err := a.captchaToken(ctx)
	if err != nil {
		return a.fail(flow.PanelLogin, ActionLogin, err)
	}

	res, err := a.client.Login(ctx, client.LoginRequest{Email: email, Password: password, CaptchaToken: token})
	if err != nil {
		a.log.Warn(ctx, "login failed", "email", common.MaskEmail(email), "error", err)
		return a.fail(flow.PanelLogin, ActionLogin, err)
	}

	if err := a.establish(ctx, res, email); err != nil {
		return a.fail(flow.PanelLogin, ActionLogin, err)
	}
	return nil
}

func (a *authService) GoogleAuth(ctx context.Context, code string) error {
	done, err := a.begin(flow.PanelLogin)
	if err != nil {
		return a.fail(flow.PanelLogin, ActionGoogleAuth, err)
	}
	defer done()

	code = strings.TrimSpace(code)
	if res := validation.Required("Authorization code", code); !res.Valid {
		return a.fail(flow.PanelLogin, ActionGoogleAuth, &validation.ValidationError{Field: "code", Message: res.Message})
	}

	res, err := a.client.GoogleAuth(ctx, code, a.opts.GoogleRedirectURI)
	if err != nil {
		a.log.Warn(ctx, "google auth failed", "error", err)
		return a.fail(flow.PanelLogin, ActionGoogleAuth, err)
	}

	if err := a.establish(ctx, res, ""); err != nil {
		return a.fail(flow.PanelLogin, ActionGoogleAuth, err)
	}
	return nil
}

// establish stores the session from a successful login and opens the
// account view. The server's user email wins over the one typed in.
func (a *authService) establish(ctx context.Context, res *client.AuthResult, email string) error {
	if res.User != nil && res.User.Email != "" {
		email = res.User.Email
	}
	if res.Tokens == nil || res.Tokens.AccessToken == "" || email == "" {
		return fmt.Errorf("%w: login response without tokens or user", client.ErrInvalidResponse)
	}

	if err := a.session.Set(ctx, *res.Tokens, email); err != nil {
		a.log.Error(ctx, "failed to store session", "error", err)
		return err
	}

	a.log.Info(ctx, "logged in", "email", common.MaskEmail(email))
	a.flow.Advance(flow.LoginSucceeded, email)
	a.flow.ShowSuccess(flow.PanelSidebar, MsgLoggedIn)
	return nil
}

// Logout ends the session. The local session is cleared whatever the server
// answers; the server error, if any, is still returned.
func (a *authService) Logout(ctx context.Context) error {
	done, err := a.begin(flow.PanelSidebar)
	if err != nil {
		return a.fail(flow.PanelSidebar, ActionLogout, err)
	}
	defer done()

	var callErr error
	if a.session.IsAuthenticated() {
		_, callErr = a.client.Logout(ctx)
		if callErr != nil {
			a.log.Warn(ctx, "logout call failed, clearing local session anyway", "error", callErr)
		}
	}

	clearErr := a.session.Clear(context.WithoutCancel(ctx))
	a.setPending(nil)
	a.flow.Advance(flow.LoggedOut, "")
	a.log.Info(ctx, "logged out")

	return errors.Join(callErr, clearErr)
}

// ForgotPassword requests a reset code. Once the code is sent the flow moves
// to the reset panel even if the address cannot be stored; that storage
// error is still returned.
func (a *authService) ForgotPassword(ctx context.Context, email string) error {
	done, err := a.begin(flow.PanelForgot)
	if err != nil {
		return a.fail(flow.PanelForgot, ActionForgotPassword, err)
	}
	defer done()

	email = strings.TrimSpace(email)
	if err := validation.ValidateForgot(email).Err(); err != nil {
		return a.fail(flow.PanelForgot, ActionForgotPassword, err)
	}

	token, err := a.captchaToken(ctx)
	if err != nil {
		return a.fail(flow.PanelForgot, ActionForgotPassword, err)
	}

	if _, err := a.client.ForgotPassword(ctx, email, token); err != nil {
		a.log.Warn(ctx, "forgot password failed", "email", common.MaskEmail(email), "error", err)
		return a.fail(flow.PanelForgot, ActionForgotPassword, err)
	}

	storeErr := a.session.SetResetEmail(context.WithoutCancel(ctx), email)
	if storeErr != nil {
		a.log.Warn(ctx, "failed to remember reset email", "error", storeErr)
	}
	a.setPending(&PendingVerification{Email: email, Purpose: PurposePasswordReset})
	a.flow.Advance(flow.ForgotSucceeded, email)
	a.startTimer(ctx, flow.PanelReset)
	a.flow.ShowSuccess(flow.PanelReset, MsgCodeSent)
	return storeErr
}

// resetEmail finds the address of the reset in progress, falling back to the
// one persisted by an earlier run.
func (a *authService) resetEmail(ctx context.Context) (string, error) {
	if email, ok := a.pendingFor(PurposePasswordReset); ok {
		return email, nil
	}
	email, ok, err := a.session.ResetEmail(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoPendingVerification
	}
	a.setPending(&PendingVerification{Email: email, Purpose: PurposePasswordReset})
	return email, nil
}

func (a *authService) ResendForgotCode(ctx context.Context) error {
	done, err := a.begin(flow.PanelReset)
	if err != nil {
		return a.fail(flow.PanelReset, ActionResendForgotCode, err)
	}
	defer done()

	email, err := a.resetEmail(ctx)
	if err != nil {
		return a.fail(flow.PanelReset, ActionResendForgotCode, err)
	}
	if err := a.checkTimer(flow.PanelReset); err != nil {
		return a.fail(flow.PanelReset, ActionResendForgotCode, err)
	}

	if _, err := a.client.ResendForgotCode(ctx, email); err != nil {
		a.log.Warn(ctx, "resend reset code failed", "email", common.MaskEmail(email), "error", err)
		return a.fail(flow.PanelReset, ActionResendForgotCode, err)
	}

	a.startTimer(ctx, flow.PanelReset)
	a.flow.ShowSuccess(flow.PanelReset, MsgCodeResent)
	return nil
}

func (a *authService) ResetPassword(ctx context.Context, code, newPassword, confirmation string) error {
	done, err := a.begin(flow.PanelReset)
	if err != nil {
		return a.fail(flow.PanelReset, ActionResetPassword, err)
	}
	defer done()

	email, err := a.resetEmail(ctx)
	if err != nil {
		return a.fail(flow.PanelReset, ActionResetPassword, err)
	}

	if normalized, ok := validation.NormalizeOTP(code); ok {
		code = normalized
	}
	if err := validation.ValidateReset(code, newPassword, confirmation).Err(); err != nil {
		return a.fail(flow.PanelReset, ActionResetPassword, err)
	}

	_, err = a.client.ResetPassword(ctx, client.ResetPasswordRequest{
		Email:           email,
		OTPCode:         code,
		NewPassword:     newPassword,
		ConfirmPassword: confirmation,
	})
	if err != nil {
		a.log.Warn(ctx, "password reset failed", "email", common.MaskEmail(email), "error", err)
		return a.fail(flow.PanelReset, ActionResetPassword, err)
	}

	storeErr := a.session.ClearResetEmail(context.WithoutCancel(ctx))
	if storeErr != nil {
		a.log.Warn(ctx, "failed to forget reset email", "error", storeErr)
	}
	a.setPending(nil)
	a.log.Info(ctx, "password reset", "email", common.MaskEmail(email))
	a.flow.Advance(flow.ResetSucceeded, email)
	if a.timers != nil {
		a.timers.Timer(flow.PanelReset).Reset()
	}
	a.flow.ShowSuccess(flow.PanelLogin, MsgPasswordReset)
	return storeErr
}

func (a *authService) requireSession(action Action) error {
	if !a.session.IsAuthenticated() {
		return a.fail(flow.PanelSidebar, action, ErrNotLoggedIn)
	}
	return nil
}

func (a *authService) ChangePassword(ctx context.Context, current, newPassword, confirmation string) error {
	done, err := a.begin(flow.PanelSidebar)
	if err != nil {
		return a.fail(flow.PanelSidebar, ActionChangePassword, err)
	}
	defer done()

	if err := a.requireSession(ActionChangePassword); err != nil {
		return err
	}
	if err := validation.ValidateChangePassword(current, newPassword, confirmation).Err(); err != nil {
		return a.fail(flow.PanelSidebar, ActionChangePassword, err)
	}

	if _, err := a.client.ChangePassword(ctx, current, newPassword); err != nil {
		a.log.Warn(ctx, "change password failed", "error", err)
		return a.fail(flow.PanelSidebar, ActionChangePassword, err)
	}

	a.flow.ShowSuccess(flow.PanelSidebar, MsgPasswordChanged)
	return nil
}

func (a *authService) UserInfo(ctx context.Context) (*client.User, error) {
	if err := a.requireSession(ActionUserInfo); err != nil {
		return nil, err
	}
	u, err := a.client.GetUserInfo(ctx)
	if err != nil {
		a.log.Warn(ctx, "get user info failed", "error", err)
		return nil, a.fail(flow.PanelSidebar, ActionUserInfo, err)
	}
	return u, nil
}

func (a *authService) UpdateUser(ctx context.Context, update client.UserUpdate) error {
	done, err := a.begin(flow.PanelSidebar)
	if err != nil {
		return a.fail(flow.PanelSidebar, ActionUpdateUser, err)
	}
	defer done()

	if err := a.requireSession(ActionUpdateUser); err != nil {
		return err
	}

	update.FirstName = strings.TrimSpace(update.FirstName)
	update.LastName = strings.TrimSpace(update.LastName)

	if update.FirstName == "" && update.LastName == "" {
		return a.fail(flow.PanelSidebar, ActionUpdateUser,
			&validation.ValidationError{Field: validation.FieldFirstName, Message: "Nothing to update"})
	}
	var report validation.Report
	if update.FirstName != "" {
		report = append(report, validation.FieldResult{
			Field: validation.FieldFirstName, Result: validation.Name("First Name", update.FirstName),
		})
	}
	if update.LastName != "" {
		report = append(report, validation.FieldResult{
			Field: validation.FieldLastName, Result: validation.Name("Last Name", update.LastName),
		})
	}
	if err := report.Err(); err != nil {
		return a.fail(flow.PanelSidebar, ActionUpdateUser, err)
	}

	if _, err := a.client.UpdateUser(ctx, update); err != nil {
		a.log.Warn(ctx, "update user failed", "error", err)
		return a.fail(flow.PanelSidebar, ActionUpdateUser, err)
	}

	a.flow.ShowSuccess(flow.PanelSidebar, MsgProfileUpdated)
	return nil
}

// DeleteAccount asks the server to delete the account. The local session is
// cleared only when the server reports a 2xx status; any other failure leaves
// it in place.
func (a *authService) DeleteAccount(ctx context.Context, password, confirmation, reason string) error {
	done, err := a.begin(flow.PanelSidebar)
	if err != nil {
		return a.fail(flow.PanelSidebar, ActionDeleteAccount, err)
	}
	defer done()

	if err := a.requireSession(ActionDeleteAccount); err != nil {
		return err
	}

	report := validation.Report{
		{Field: validation.FieldPassword, Result: validation.Required("Password", password)},
		{Field: validation.FieldConfirmationText, Result: validation.Required("Confirmation text", confirmation)},
	}
	if err := report.Err(); err != nil {
		return a.fail(flow.PanelSidebar, ActionDeleteAccount, err)
	}

	if strings.TrimSpace(reason) == "" {
		reason = defaultDeleteReason
	}

	_, callErr := a.client.DeleteAccount(ctx, client.DeleteAccountRequest{
		Password:         password,
		ConfirmationText: confirmation,
		Reason:           reason,
		DeleteAllData:    true,
	})

	var apiErr *client.APIError
	if callErr != nil && !(errors.As(callErr, &apiErr) && apiErr.StatusCode < 300) {
		a.log.Warn(ctx, "delete account failed", "error", callErr)
		return a.fail(flow.PanelSidebar, ActionDeleteAccount, callErr)
	}

	clearErr := a.session.Clear(context.WithoutCancel(ctx))
	a.setPending(nil)
	a.flow.Advance(flow.LoggedOut, "")
	if callErr == nil {
		a.log.Info(ctx, "account deleted")
	}
	return errors.Join(callErr, clearErr)
}

func (a *authService) Health(ctx context.Context) error {
	if _, err := a.client.Health(ctx); err != nil {
		a.log.Debug(ctx, "health check failed", "error", err)
		return err
	}
	return nil
}

// Restore loads the stored session and any unfinished password reset, and
// tells observers about a restored login.
func (a *authService) Restore(ctx context.Context) (*session.Session, error) {
	s, err := a.session.Load(ctx)
	if err != nil {
		return nil, err
	}
	if s != nil {
		a.log.Info(ctx, "session restored", "email", common.MaskEmail(s.Email))
		a.flow.Restored(s.Email)
	}

	email, ok, err := a.session.ResetEmail(ctx)
	if err != nil {
		return s, err
	}
	if ok {
		a.setPending(&PendingVerification{Email: email, Purpose: PurposePasswordReset})
	}
	return s, nil
}
