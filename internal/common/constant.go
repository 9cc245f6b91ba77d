// Package common contains constants and small helpers shared by the hubauth
// client packages.
package common

// Outbound HTTP header names.
const (
	AuthorizationHeaderName = "Authorization"
	RequestIDHeaderName     = "X-Request-ID"
)

// Keys of the durable client storage. They mirror the names the browser
// client kept in localStorage so both front ends describe the same state.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUserEmail    = "userEmail"
	KeyResetEmail   = "resetEmail"
)
