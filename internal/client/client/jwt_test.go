package client

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/reportdesk/internal/client/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccessToken(t *testing.T) {
	exp := time.Unix(1760000000, 0)
	token := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1", ExpiresAt: jwt.NewNumericDate(exp)},
		Email:            "a@example.com",
		Role:             "authenticated",
	})

	c, err := ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", c.Subject)
	assert.Equal(t, "a@example.com", c.Email)
	assert.Equal(t, "authenticated", c.Role)
	assert.Equal(t, exp.Unix(), c.ExpiresAt.Unix())
}

func TestParseAccessToken_Garbage(t *testing.T) {
	_, err := ParseAccessToken("not-a-jwt")
	assert.Error(t, err)
}

func TestProjectRef(t *testing.T) {
	key := signToken(t, Claims{Ref: "abcdefgh", Role: "anon"})

	ref, err := ProjectRef(key)
	require.NoError(t, err)
	assert.Equal(t, "abcdefgh", ref)

	_, err = ProjectRef(signToken(t, Claims{Role: "anon"}))
	assert.Error(t, err)
}

func TestCompleteSession(t *testing.T) {
	exp := time.Unix(1760000000, 0)
	token := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1", ExpiresAt: jwt.NewNumericDate(exp)},
		Email:            "a@example.com",
	})

	s := &models.Session{AccessToken: token}
	completeSession(s)
	assert.Equal(t, exp.Unix(), s.ExpiresAt)
	require.NotNil(t, s.User)
	assert.Equal(t, "u-1", s.User.ID)
	assert.Equal(t, "a@example.com", s.User.Email)

	// values from the backend win
	s = &models.Session{AccessToken: token, ExpiresAt: 42, User: &models.User{ID: "other"}}
	completeSession(s)
	assert.Equal(t, int64(42), s.ExpiresAt)
	assert.Equal(t, "other", s.User.ID)

	// opaque tokens are left alone
	s = &models.Session{AccessToken: "opaque"}
	completeSession(s)
	assert.Zero(t, s.ExpiresAt)
	assert.Nil(t, s.User)
}
