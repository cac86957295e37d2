// Package models defines the client-side data shapes exchanged with the
// backend: auth sessions, users, table rows and proof uploads.
package models

import (
	"encoding/json"
	"time"
)

// User is the identity record embedded in a Session.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Role         string         `json:"role,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// Session is the server-issued proof of authentication held by the client.
type Session struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	// ExpiresAt is a unix timestamp in seconds.
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// Expired reports whether the session is expired at now, or will be
// within leeway. A zero ExpiresAt never expires.
func (s *Session) Expired(now time.Time, leeway time.Duration) bool {
	if s == nil || s.ExpiresAt == 0 {
		return false
	}
	return !now.Add(leeway).Before(time.Unix(s.ExpiresAt, 0))
}

// AuthResponse is what sign-up returns: a session when the project
// auto-confirms new accounts, otherwise only the created user.
type AuthResponse struct {
	Session *Session
	User    *User
}

// Row is one record of a backend table. Tables in this domain carry
// arbitrary columns, so rows stay untyped.
type Row map[string]any

// String returns the column as a string, or "" when missing or not a string.
func (r Row) String(column string) string {
	s, _ := r[column].(string)
	return s
}

// Merge returns a new row holding r's columns overlaid by other's.
func (r Row) Merge(other Row) Row {
	out := make(Row, len(r)+len(other))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// ProofFile is a file selected by the user as evidence for a report.
type ProofFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// UploadResult locates a stored proof.
type UploadResult struct {
	Path      string `json:"path"`
	PublicURL string `json:"publicUrl"`
}

// ApprovalResult is the outcome of a successful self-approval.
// Local is true when the code matched the configured list and no backend
// call was made.
type ApprovalResult struct {
	Value json.RawMessage
	Local bool
}
