package services

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/reportdesk/internal/client/models"
	"github.com/dmitrijs2005/reportdesk/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignInWithEmail_Password(t *testing.T) {
	s := &models.Session{AccessToken: "t"}
	f := &fakeBackend{session: s}
	svc := NewIdentityService(f, "https://app.example.com", logging.Discard())

	got, err := svc.SignInWithEmail(bg, "a@example.com", "pw")
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, "password", f.lastOp)
	assert.Equal(t, "a@example.com", f.lastEmail)
	assert.Equal(t, "pw", f.lastPass)
}

func TestSignInWithEmail_MagicLink(t *testing.T) {
	f := &fakeBackend{}
	svc := NewIdentityService(f, "https://app.example.com", logging.Discard())

	got, err := svc.SignInWithEmail(bg, "a@example.com", "")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, "otp", f.lastOp)
	assert.Equal(t, "https://app.example.com/public/dashboard.html", f.lastRedir)
}

func TestSignInWithEmail_ErrorsVerbatim(t *testing.T) {
	boom := errors.New("Invalid login credentials")
	f := &fakeBackend{err: boom}
	svc := NewIdentityService(f, "https://app.example.com", logging.Discard())

	_, err := svc.SignInWithEmail(bg, "a@example.com", "bad")
	assert.Same(t, boom, err)

	_, err = svc.SignInWithEmail(bg, "a@example.com", "")
	assert.Same(t, boom, err)
}

func TestSignUpWithEmail(t *testing.T) {
	resp := &models.AuthResponse{User: &models.User{ID: "u-2"}}
	f := &fakeBackend{signUpResp: resp}
	svc := NewIdentityService(f, "", logging.Discard())

	got, err := svc.SignUpWithEmail(bg, "b@example.com", "pw", map[string]any{"full_name": "Bo"})
	require.NoError(t, err)
	assert.Same(t, resp, got)
	assert.Equal(t, map[string]any{"full_name": "Bo"}, f.lastMeta)
}

func TestSignOut(t *testing.T) {
	f := &fakeBackend{}
	svc := NewIdentityService(f, "", logging.Discard())

	require.NoError(t, svc.SignOut(bg))
	assert.Equal(t, "signout", f.lastOp)

	f.err = errors.New("offline")
	assert.EqualError(t, svc.SignOut(bg), "offline")
}

func TestAdoptSession(t *testing.T) {
	f := &fakeBackend{}
	svc := NewIdentityService(f, "", logging.Discard())

	got, err := svc.AdoptSession(bg, " access ", " refresh\n")
	require.NoError(t, err)
	assert.Equal(t, "set_session", f.lastOp)
	assert.Same(t, got, f.session)
	assert.Equal(t, &models.Session{AccessToken: "access", TokenType: "bearer", RefreshToken: "refresh"}, got)
}

func TestAdoptSession_Errors(t *testing.T) {
	f := &fakeBackend{}
	svc := NewIdentityService(f, "", logging.Discard())

	_, err := svc.AdoptSession(bg, "  ", "r")
	require.ErrorIs(t, err, ErrTokenRequired)
	assert.Zero(t, f.calls)

	boom := errors.New("store failed")
	f.err = boom
	_, err = svc.AdoptSession(bg, "a", "")
	assert.Same(t, boom, err)
	assert.Nil(t, f.session)
}
