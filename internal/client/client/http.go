package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/hubauth/internal/common"
	"github.com/dmitrijs2005/hubauth/internal/logging"
	"github.com/google/uuid"
)

// Routes of the auth API.
const (
	RouteRegister           = "/auth/register"
	RouteVerifyEmail        = "/auth/verify-email"
	RouteResendVerification = "/auth/resend-verification"
	RouteLogin              = "/auth/login"
	RouteLogout             = "/auth/logout"
	RouteForgotPassword     = "/auth/forgot-password"
	RouteResendForgotCode   = "/auth/resend-forgot-code"
	RouteResetPassword      = "/auth/reset-password"
	RouteChangePassword     = "/auth/change-password"
	RouteGoogle             = "/auth/google"
	RouteUser               = "/auth/user"
	RouteHealth             = "/health"
)

// failureMessages is used when a route answers success=false without a
// message of its own.
var failureMessages = map[string]string{
	RouteRegister:           "Registration failed",
	RouteVerifyEmail:        "Email verification failed",
	RouteResendVerification: "Failed to resend verification code",
	RouteLogin:              "Login failed",
	RouteLogout:             "Logout failed",
	RouteForgotPassword:     "Failed to send password reset email",
	RouteResendForgotCode:   "Failed to resend password reset code",
	RouteResetPassword:      "Password reset failed",
	RouteChangePassword:     "Password change failed",
	RouteGoogle:             "Google authentication failed",
	RouteUser:               "User request failed",
}

// maxBodySize bounds how much of a response is read.
const maxBodySize = 1 << 20

type HTTPClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     logging.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient returns a client for the API rooted at baseURL. A zero
// timeout leaves requests bounded only by the caller's context.
func NewHTTPClient(baseURL string, timeout time.Duration, tokens TokenSource, log logging.Logger) *HTTPClient {
	if log == nil {
		log = logging.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		log:     log.With("component", "authclient"),
	}
}

func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) (*Response, error) {
	return c.do(ctx, http.MethodPost, RouteRegister, req, false)
}

func (c *HTTPClient) VerifyEmail(ctx context.Context, email, otpCode string) (*Response, error) {
	body := map[string]string{"email": email, "otpCode": otpCode}
	return c.do(ctx, http.MethodPost, RouteVerifyEmail, body, false)
}

func (c *HTTPClient) ResendVerification(ctx context.Context, email string) (*Response, error) {
	return c.do(ctx, http.MethodPost, RouteResendVerification, map[string]string{"email": email}, false)
}

func (c *HTTPClient) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	resp, err := c.do(ctx, http.MethodPost, RouteLogin, req, false)
	if err != nil {
		return nil, err
	}
	return decodeAuthResult(resp)
}

func (c *HTTPClient) Logout(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodPost, RouteLogout, struct{}{}, true)
}

func (c *HTTPClient) ForgotPassword(ctx context.Context, email, captchaToken string) (*Response, error) {
	body := map[string]string{"email": email, "captchaToken": captchaToken}
	return c.do(ctx, http.MethodPost, RouteForgotPassword, body, false)
}

func (c *HTTPClient) ResendForgotCode(ctx context.Context, email string) (*Response, error) {
	return c.do(ctx, http.MethodPost, RouteResendForgotCode, map[string]string{"email": email}, false)
}

func (c *HTTPClient) ResetPassword(ctx context.Context, req ResetPasswordRequest) (*Response, error) {
	return c.do(ctx, http.MethodPost, RouteResetPassword, req, false)
}

func (c *HTTPClient) ChangePassword(ctx context.Context, currentPassword, newPassword string) (*Response, error) {
	body := map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
		"confirmPassword": newPassword,
	}
	return c.do(ctx, http.MethodPost, RouteChangePassword, body, true)
}

func (c *HTTPClient) GoogleAuth(ctx context.Context, code, redirectURI string) (*AuthResult, error) {
	body := map[string]string{"code": code, "redirectUri": redirectURI}
	resp, err := c.do(ctx, http.MethodPost, RouteGoogle, body, false)
	if err != nil {
		return nil, err
	}
	return decodeAuthResult(resp)
}

func (c *HTTPClient) GetUserInfo(ctx context.Context) (*User, error) {
	resp, err := c.do(ctx, http.MethodGet, RouteUser, nil, true)
	if err != nil {
		return nil, err
	}
	return decodeUser(resp.Data)
}

func (c *HTTPClient) UpdateUser(ctx context.Context, update UserUpdate) (*Response, error) {
	return c.do(ctx, http.MethodPut, RouteUser, update, true)
}

func (c *HTTPClient) DeleteAccount(ctx context.Context, req DeleteAccountRequest) (*Response, error) {
	return c.do(ctx, http.MethodDelete, RouteUser, req, true)
}

// Health reports the API status. /health does not always use the envelope,
// so any 2xx answer counts as healthy.
func (c *HTTPClient) Health(ctx context.Context) (*Response, error) {
	return c.send(ctx, http.MethodGet, RouteHealth, nil, false, false)
}

func (c *HTTPClient) do(ctx context.Context, method, route string, body any, auth bool) (*Response, error) {
	return c.send(ctx, method, route, body, auth, true)
}

func (c *HTTPClient) send(ctx context.Context, method, route string, body any, auth, envelope bool) (*Response, error) {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", route, err)
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+route, payload)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", route, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth && c.tokens != nil {
		if token := c.tokens.AccessToken(); token != "" {
			req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
		}
	}

	log := c.log.With("method", method, "route", route, "request_id", requestID)
	started := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Warn(ctx, "request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s response: %v", ErrUnavailable, route, err)
	}
	log.Debug(ctx, "response received", "status", resp.StatusCode, "elapsed", time.Since(started))

	return decodeResponse(route, resp, raw, envelope)
}

func decodeResponse(route string, resp *http.Response, raw []byte, envelope bool) (*Response, error) {
	var out Response
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Route: route}
		if decodeErr == nil {
			apiErr.Message = out.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
			apiErr.Generated = true
		}
		return nil, apiErr
	}

	if !envelope {
		if decodeErr != nil {
			out = Response{}
		}
		out.Success = true
		return &out, nil
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidResponse, route, decodeErr)
	}
	if !out.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: out.Message, Route: route}
		if apiErr.Message == "" {
			apiErr.Message = failureMessages[route]
			apiErr.Generated = true
		}
		if apiErr.Message == "" {
			apiErr.Message = "request was not successful"
		}
		return nil, apiErr
	}
	return &out, nil
}

func decodeAuthResult(resp *Response) (*AuthResult, error) {
	res := &AuthResult{Message: resp.Message}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return res, nil
	}

	var data struct {
		Tokens *Tokens `json:"tokens"`
		User   *User   `json:"user"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: auth data: %v", ErrInvalidResponse, err)
	}
	res.Tokens = data.Tokens
	res.User = data.User
	return res, nil
}

// decodeUser accepts either {"user": {...}} or the user object itself.
func decodeUser(data json.RawMessage) (*User, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, fmt.Errorf("%w: empty user data", ErrInvalidResponse)
	}

	var wrapped struct {
		User *User `json:"user"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}

	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("%w: user data: %v", ErrInvalidResponse, err)
	}
	return &u, nil
}

// IsTransport reports whether err is a network-level failure rather than an
// answer from the server.
func IsTransport(err error) bool {
	var apiErr *APIError
	return errors.Is(err, ErrUnavailable) && !errors.As(err, &apiErr)
}
