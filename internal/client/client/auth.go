package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/reportdesk/internal/client/models"
)

// GetSession returns the stored session, refreshing it first when it has
// expired. An expired session that cannot be refreshed is dropped.
func (c *RESTClient) GetSession(ctx context.Context) (*models.Session, error) {
	s, err := c.sessions.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil || !s.Expired(c.now(), c.refreshLeeway) {
		return s, nil
	}

	if s.RefreshToken == "" {
		if err := c.sessions.Clear(ctx); err != nil {
			return nil, fmt.Errorf("clear session: %w", err)
		}
		return nil, nil
	}

	refreshed, err := c.refresh(ctx, s.RefreshToken)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			// the refresh token was rejected; the session is dead
			c.logger.Info(ctx, "session refresh rejected", "error", err)
			if cerr := c.sessions.Clear(ctx); cerr != nil {
				return nil, fmt.Errorf("clear session: %w", cerr)
			}
			return nil, nil
		}
		return nil, err
	}
	return refreshed, nil
}

// SetSession replaces the stored session. nil clears it.
func (c *RESTClient) SetSession(ctx context.Context, s *models.Session) error {
	if s == nil {
		return c.sessions.Clear(ctx)
	}
	completeSession(s)
	c.fillExpiry(s)
	return c.sessions.Save(ctx, s)
}

func (c *RESTClient) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	var s models.Session
	err := c.do(ctx, request{
		op:     "sign_in_password",
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": email, "password": password},
	}, &s)
	if err != nil {
		return nil, err
	}
	if err := c.SetSession(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *RESTClient) SignInWithOTP(ctx context.Context, email, redirectTo string) error {
	var q url.Values
	if redirectTo != "" {
		q = url.Values{"redirect_to": {redirectTo}}
	}
	return c.do(ctx, request{
		op:     "sign_in_otp",
		method: http.MethodPost,
		path:   "/auth/v1/otp",
		query:  q,
		body:   map[string]any{"email": email, "create_user": true},
	}, nil)
}

func (c *RESTClient) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*models.AuthResponse, error) {
	body := map[string]any{"email": email, "password": password}
	if len(metadata) > 0 {
		body["data"] = metadata
	}

	var raw json.RawMessage
	err := c.do(ctx, request{
		op:     "sign_up",
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   body,
	}, &raw)
	if err != nil {
		return nil, err
	}

	// auto-confirmed projects answer with a session, others with the user
	var shape struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return nil, fmt.Errorf("decode sign_up response: %w", err)
	}

	if shape.AccessToken != "" {
		var s models.Session
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode sign_up response: %w", err)
		}
		if err := c.SetSession(ctx, &s); err != nil {
			return nil, err
		}
		return &models.AuthResponse{Session: &s, User: s.User}, nil
	}

	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode sign_up response: %w", err)
	}
	return &models.AuthResponse{User: &u}, nil
}

// SignOut revokes the session remotely and always forgets it locally.
// A token the backend no longer knows is not an error.
func (c *RESTClient) SignOut(ctx context.Context) error {
	s, err := c.sessions.Load(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		return nil
	}

	remoteErr := c.do(ctx, request{
		op:     "sign_out",
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		token:  s.AccessToken,
	}, nil)
	if errors.Is(remoteErr, ErrUnauthorized) || errors.Is(remoteErr, ErrNotFound) {
		remoteErr = nil
	}

	if err := c.sessions.Clear(ctx); err != nil {
		return errors.Join(remoteErr, fmt.Errorf("clear session: %w", err))
	}
	return remoteErr
}

func (c *RESTClient) refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	var s models.Session
	err := c.do(ctx, request{
		op:     "refresh",
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
	}, &s)
	if err != nil {
		return nil, err
	}
	if err := c.SetSession(ctx, &s); err != nil {
		return nil, err
	}
	c.logger.Debug(ctx, "session refreshed")
	return &s, nil
}

func (c *RESTClient) fillExpiry(s *models.Session) {
	if s.ExpiresAt == 0 && s.ExpiresIn > 0 {
		s.ExpiresAt = c.now().Unix() + s.ExpiresIn
	}
}
