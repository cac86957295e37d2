package services

import (
	"context"

	"github.com/dmitrijs2005/reportdesk/internal/client/client"
	"github.com/dmitrijs2005/reportdesk/internal/client/models"
	"github.com/dmitrijs2005/reportdesk/internal/logging"
)

type Outcome int

const (
	Authorized Outcome = iota
	Unauthenticated
	Unauthorized
)

func (o Outcome) String() string {
	switch o {
	case Authorized:
		return "authorized"
	case Unauthenticated:
		return "unauthenticated"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Decision is the guard's verdict. When the outcome is not Authorized the
// caller is expected to send the user to RedirectTo. Session is whatever
// was found, possibly nil.
type Decision struct {
	Outcome    Outcome
	Session    *models.Session
	RedirectTo string
}

func (d Decision) Allowed() bool {
	return d.Outcome == Authorized
}

type SessionGuard struct {
	sessions      client.SessionSource
	authz         *Authorizer
	loginLocation string
	logger        logging.Logger
}

func NewSessionGuard(sessions client.SessionSource, authz *Authorizer, loginLocation string, logger logging.Logger) *SessionGuard {
	return &SessionGuard{
		sessions:      sessions,
		authz:         authz,
		loginLocation: loginLocation,
		logger:        logger,
	}
}

// GetSession returns the current session or nil. Failures to read or
// refresh the session are logged and reported as "no session".
func (g *SessionGuard) GetSession(ctx context.Context) *models.Session {
	s, err := g.sessions.GetSession(ctx)
	if err != nil {
		g.logger.Warn(ctx, "session lookup failed", "error", err)
		return nil
	}
	return s
}

// RequireAuth demands a session. Without one the decision points at
// redirectTo, or at the login location when redirectTo is empty.
func (g *SessionGuard) RequireAuth(ctx context.Context, redirectTo string) Decision {
	s := g.GetSession(ctx)
	if s == nil {
		if redirectTo == "" {
			redirectTo = g.loginLocation
		}
		return Decision{Outcome: Unauthenticated, RedirectTo: redirectTo}
	}
	return Decision{Outcome: Authorized, Session: s}
}

// RequireAdmin demands a session whose user is an admin. Denials always
// point at the login location; redirectTo only reaches RequireAuth.
func (g *SessionGuard) RequireAdmin(ctx context.Context, redirectTo string) Decision {
	d := g.RequireAuth(ctx, redirectTo)
	if d.Session == nil {
		return Decision{Outcome: Unauthenticated, RedirectTo: g.loginLocation}
	}
	if d.Session.User == nil || !g.authz.IsAdmin(d.Session.User) {
		return Decision{Outcome: Unauthorized, Session: d.Session, RedirectTo: g.loginLocation}
	}
	return d
}
