package client

import (
	"context"
	"encoding/json"
)

// Client is the auth API contract. Every method performs exactly one HTTP
// call; there is no retry.
type Client interface {
	Register(ctx context.Context, req RegisterRequest) (*Response, error)
	VerifyEmail(ctx context.Context, email, otpCode string) (*Response, error)
	ResendVerification(ctx context.Context, email string) (*Response, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResult, error)
	Logout(ctx context.Context) (*Response, error)
	ForgotPassword(ctx context.Context, email, captchaToken string) (*Response, error)
	ResendForgotCode(ctx context.Context, email string) (*Response, error)
	ResetPassword(ctx context.Context, req ResetPasswordRequest) (*Response, error)
	ChangePassword(ctx context.Context, currentPassword, newPassword string) (*Response, error)
	GoogleAuth(ctx context.Context, code, redirectURI string) (*AuthResult, error)
	GetUserInfo(ctx context.Context) (*User, error)
	UpdateUser(ctx context.Context, update UserUpdate) (*Response, error)
	DeleteAccount(ctx context.Context, req DeleteAccountRequest) (*Response, error)
	Health(ctx context.Context) (*Response, error)
}

// TokenSource supplies the bearer token for authenticated routes at call
// time. The session holder implements it.
type TokenSource interface {
	AccessToken() string
}

// Response is the envelope every route answers with.
type Response struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	// Status is only set by /health.
	Status string `json:"status,omitempty"`
}

type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// User is the account record returned under data.user. Fields the client
// does not model are kept in Extra.
type User struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	delete(all, "email")
	delete(all, "firstName")
	delete(all, "lastName")
	if len(all) > 0 {
		p.Extra = all
	}
	*u = User(p)
	return nil
}

// AuthResult is the decoded payload of a successful login or OAuth exchange.
// Tokens or User may be nil when the server omits them.
type AuthResult struct {
	Message string
	Tokens  *Tokens
	User    *User
}

type RegisterRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	CaptchaToken    string `json:"captchaToken"`
}

type LoginRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	CaptchaToken string `json:"captchaToken"`
}

type ResetPasswordRequest struct {
	Email           string `json:"email"`
	OTPCode         string `json:"otpCode"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// UserUpdate carries the profile fields to change; empty fields are omitted.
type UserUpdate struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type DeleteAccountRequest struct {
	Password         string `json:"password"`
	ConfirmationText string `json:"confirmationText"`
	Reason           string `json:"reason"`
	DeleteAllData    bool   `json:"deleteAllData"`
}
