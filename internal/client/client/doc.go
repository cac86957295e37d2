// Package client is the backend adapter of reportdesk: the only code that
// talks to the hosted backend.
//
// # Overview
//
// The backend exposes four capability groups, each modelled as a small
// interface so services depend only on what they use:
//
//   - Auth:       session get/set, password and one-time-link sign-in,
//     sign-up, sign-out.
//   - Tables:     select (optionally exactly one row), insert, upsert.
//   - Storage:    upload to a bucket, public URL derivation.
//   - Procedures: named server-side procedure calls.
//
// RESTClient implements all of them over the backend's HTTP gateway.
// S3Storage is an alternative Storage over the S3-compatible endpoint, and
// package pgtables provides an alternative Tables over direct Postgres.
//
// Sessions are kept by a SessionStore: MemorySessionStore, or the SQLite
// store from repositories/sessions on a database opened with InitDatabase.
//
// # Error Handling
//
// Non-2xx answers are returned as *APIError carrying the backend's own
// code and message. APIError unwraps to a sentinel so callers can match a
// class with errors.Is: ErrUnauthorized, ErrNotFound, ErrNotSingleRow,
// ErrConflict. Transport failures match ErrUnavailable.
//
// No call is retried and nothing is cached; an expired session is
// refreshed once before use.
package client
