package client

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/reportdesk/internal/client/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields reportdesk reads from backend-issued tokens.
// Signatures are verified by the backend, never here.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	// Ref is the project reference carried by API keys.
	Ref string `json:"ref,omitempty"`
}

// ParseAccessToken decodes token without verifying its signature.
func ParseAccessToken(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

// ProjectRef extracts the project reference from the public API key.
func ProjectRef(anonKey string) (string, error) {
	claims, err := ParseAccessToken(anonKey)
	if err != nil {
		return "", err
	}
	if claims.Ref == "" {
		return "", errors.New("api key carries no project ref")
	}
	return claims.Ref, nil
}

// completeSession fills ExpiresAt and User from the access token when the
// backend response left them out. Unparseable tokens are left alone.
func completeSession(s *models.Session) {
	if s == nil || s.AccessToken == "" || (s.ExpiresAt != 0 && s.User != nil) {
		return
	}
	claims, err := ParseAccessToken(s.AccessToken)
	if err != nil {
		return
	}
	if s.ExpiresAt == 0 && claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Unix()
	}
	if s.User == nil && claims.Subject != "" {
		s.User = &models.User{ID: claims.Subject, Email: claims.Email, Role: claims.Role}
	}
}
