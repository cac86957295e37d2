// Package common contains shared constants and small helpers used across
// reportdesk components.
package common

// Header names understood by the backend gateway.
const (
	APIKeyHeaderName        = "apikey"
	AuthorizationHeaderName = "Authorization"
	RequestIDHeaderName     = "X-Request-Id"
	ClientInfoHeaderName    = "X-Client-Info"
)

// ClientInfo identifies this client in backend logs.
const ClientInfo = "reportdesk-go/1.0"
