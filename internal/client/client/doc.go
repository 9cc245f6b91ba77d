// Package client contains the client-side building blocks that talk to the
// CompareHubPrices auth API and bootstrap local storage.
//
// # Overview
//
//  1. The Client interface: one method per API route (register, verify
//     email, login, logout, password reset, profile, health ...).
//  2. HTTPClient, the JSON-over-HTTPS implementation. It stamps every call
//     with an X-Request-ID, attaches the bearer token from a TokenSource on
//     authenticated routes and decodes the {success, message, data} envelope.
//  3. InitDatabase / RunMigrations, which open the local SQLite file and
//     apply the embedded goose migrations.
//
// # Error Handling
//
// Transport failures match ErrUnavailable. Answers from the server that are
// not successful are returned as *APIError whose Error() is the server
// message verbatim; 401/403 also match ErrUnauthorized and 429 matches
// ErrRateLimited. Malformed success bodies match ErrInvalidResponse.
//
// Nothing is retried: one user action, one request.
package client
