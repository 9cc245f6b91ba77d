package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/hubauth/internal/client/captcha"
	"github.com/dmitrijs2005/hubauth/internal/client/client"
	"github.com/dmitrijs2005/hubauth/internal/client/validation"
)

var (
	// ErrBusy is returned while a request from the same form is in flight.
	ErrBusy                  = errors.New("request already in progress")
	ErrNotLoggedIn           = errors.New("not logged in")
	ErrNoPendingVerification = errors.New("no pending verification")
	ErrCooldown              = errors.New("resend not available yet")
)

// CooldownError is returned when a resend is attempted before its timer ran
// out.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: %s left", ErrCooldown, e.Remaining)
}

func (e *CooldownError) Is(target error) bool { return target == ErrCooldown }

// Action names a user-facing operation for message translation.
type Action string

const (
	ActionRegister           Action = "register"
	ActionVerifyEmail        Action = "verify"
	ActionResendVerification Action = "resend-verification"
	ActionLogin              Action = "login"
	ActionLogout             Action = "logout"
	ActionForgotPassword     Action = "forgot"
	ActionResendForgotCode   Action = "resend-forgot"
	ActionResetPassword      Action = "reset"
	ActionChangePassword     Action = "change-password"
	ActionGoogleAuth         Action = "google"
	ActionUserInfo           Action = "user-info"
	ActionUpdateUser         Action = "update-user"
	ActionDeleteAccount      Action = "delete-account"
	ActionHealth             Action = "health"
)

var fallbackMessages = map[Action]string{
	ActionRegister:           "Registration failed. Please try again.",
	ActionVerifyEmail:        "Verification failed. Please try again.",
	ActionResendVerification: "Failed to resend verification code. Please try again.",
	ActionLogin:              "Login failed. Please check your credentials and try again.",
	ActionLogout:             "Logout failed. Please try again.",
	ActionForgotPassword:     "Failed to send verification code. Please try again.",
	ActionResendForgotCode:   "Failed to resend password reset code. Please try again.",
	ActionResetPassword:      "Password reset failed. Please try again.",
	ActionChangePassword:     "Password change failed. Please try again.",
	ActionGoogleAuth:         "Google authentication failed. Please try again.",
	ActionUserInfo:           "Failed to get user information. Please try again.",
	ActionUpdateUser:         "User update failed. Please try again.",
	ActionDeleteAccount:      "Account deletion failed. Please try again.",
	ActionHealth:             "The server is not reachable right now. Please try again later.",
}

// UserMessage turns err into text fit for the user. Validation and server
// messages are passed through; everything else gets the action's generic
// message.
func UserMessage(action Action, err error) string {
	if err == nil {
		return ""
	}

	var (
		vErr   *validation.ValidationError
		apiErr *client.APIError
		cdErr  *CooldownError
	)
	switch {
	case errors.As(err, &vErr):
		return vErr.Message
	case errors.Is(err, ErrBusy):
		return "Please wait for the current request to finish."
	case errors.Is(err, ErrNotLoggedIn):
		return "Please log in first."
	case errors.Is(err, ErrNoPendingVerification):
		return "No email address found for resend"
	case errors.As(err, &cdErr):
		return fmt.Sprintf("Please wait %d seconds before requesting a new code.", int(cdErr.Remaining.Round(time.Second)/time.Second))
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	case errors.Is(err, captcha.ErrCaptchaUnavailable):
		return "Security check is unavailable. Please try again later."
	case errors.As(err, &apiErr) && !apiErr.Generated && apiErr.Message != "":
		return apiErr.Message
	}

	if msg, ok := fallbackMessages[action]; ok {
		return msg
	}
	return "Something went wrong. Please try again."
}
