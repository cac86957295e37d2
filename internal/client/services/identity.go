package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/reportdesk/internal/client/client"
	"github.com/dmitrijs2005/reportdesk/internal/client/models"
	"github.com/dmitrijs2005/reportdesk/internal/logging"
)

// DashboardPath is where one-time sign-in links land, relative to the
// site origin.
const DashboardPath = "/public/dashboard.html"

var ErrTokenRequired = errors.New("access token required")

// IdentityService wraps the backend's account operations. Backend
// results and errors are returned as they are.
type IdentityService interface {
	// SignInWithEmail signs in with a password, or e-mails a one-time
	// link when password is empty. The link flow returns a nil session.
	SignInWithEmail(ctx context.Context, email, password string) (*models.Session, error)
	SignUpWithEmail(ctx context.Context, email, password string, metadata map[string]any) (*models.AuthResponse, error)
	SignOut(ctx context.Context) error
	// AdoptSession stores tokens obtained outside this client, such as
	// the fragment of a one-time sign-in link, as the current session.
	AdoptSession(ctx context.Context, accessToken, refreshToken string) (*models.Session, error)
}

type identityService struct {
	auth       client.Auth
	siteOrigin string
	logger     logging.Logger
}

func NewIdentityService(auth client.Auth, siteOrigin string, logger logging.Logger) IdentityService {
	return &identityService{auth: auth, siteOrigin: siteOrigin, logger: logger}
}

func (s *identityService) SignInWithEmail(ctx context.Context, email, password string) (*models.Session, error) {
	if password != "" {
		session, err := s.auth.SignInWithPassword(ctx, email, password)
		if err != nil {
			return nil, err
		}
		s.logger.Info(ctx, "signed in", "method", "password")
		return session, nil
	}

	if err := s.auth.SignInWithOTP(ctx, email, s.siteOrigin+DashboardPath); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "sign-in link sent")
	return nil, nil
}

func (s *identityService) SignUpWithEmail(ctx context.Context, email, password string, metadata map[string]any) (*models.AuthResponse, error) {
	return s.auth.SignUp(ctx, email, password, metadata)
}

func (s *identityService) SignOut(ctx context.Context) error {
	return s.auth.SignOut(ctx)
}

func (s *identityService) AdoptSession(ctx context.Context, accessToken, refreshToken string) (*models.Session, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, ErrTokenRequired
	}
	session := &models.Session{
		AccessToken:  accessToken,
		TokenType:    "bearer",
		RefreshToken: strings.TrimSpace(refreshToken),
	}
	if err := s.auth.SetSession(ctx, session); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "session adopted")
	return session, nil
}
