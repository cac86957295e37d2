package cli

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/reportdesk/internal/client/models"
	"github.com/dmitrijs2005/reportdesk/internal/client/services"
	"github.com/dmitrijs2005/reportdesk/internal/logging"
	"github.com/dmitrijs2005/reportdesk/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_AwaitingConfirmationNotifiesAdmins(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ta := newTestApp(t, "alice@example.org\nAlice A\n")
	ta.notifier = services.NewNotifier(srv.URL, srv.Client(), logging.Discard(), metrics.Noop{})
	ta.identity.signUpResp = &models.AuthResponse{User: &models.User{ID: "u1"}}
	stubPassword(t, "secret")

	require.NoError(t, ta.Register(bg))

	assert.Equal(t, "alice@example.org", ta.identity.email)
	assert.Equal(t, "secret", ta.identity.password)
	assert.Equal(t, map[string]any{"full_name": "Alice A"}, ta.identity.metadata)
	assert.Equal(t, map[string]string{"type": "pending_signup", "email": "alice@example.org"}, got)
	assert.Contains(t, ta.out.String(), "Confirm the address")
}

func TestRegister_AutoConfirmedWithoutName(t *testing.T) {
	ta := newTestApp(t, "bob@example.org\n\n")
	ta.identity.signUpResp = &models.AuthResponse{Session: &models.Session{AccessToken: "t"}}
	stubPassword(t, "pw")

	require.NoError(t, ta.Register(bg))

	assert.Empty(t, ta.identity.metadata)
	assert.Contains(t, ta.out.String(), "Signed up and signed in.")
}

func TestRegister_BackendErrorReturned(t *testing.T) {
	ta := newTestApp(t, "bob@example.org\n\n")
	ta.identity.err = errors.New("User already registered")
	stubPassword(t, "pw")

	err := ta.Register(bg)
	require.EqualError(t, err, "User already registered")
}

func TestLogin_Password(t *testing.T) {
	ta := newTestApp(t, "alice@example.org\n")
	ta.identity.signInSession = &models.Session{AccessToken: "t", User: &models.User{ID: "u1", Email: "alice@example.org"}}
	stubPassword(t, "secret")

	require.NoError(t, ta.Login(bg))

	assert.Equal(t, "secret", ta.identity.password)
	assert.True(t, ta.isLoggedIn())
	assert.Equal(t, "alice@example.org", ta.getStatus())
	assert.Contains(t, ta.out.String(), "Login successful")
}

func TestLogin_BlankPasswordSendsLink(t *testing.T) {
	ta := newTestApp(t, "alice@example.org\n")
	stubPassword(t, "")

	require.NoError(t, ta.Login(bg))

	assert.Empty(t, ta.identity.password)
	assert.False(t, ta.isLoggedIn())
	assert.Contains(t, ta.out.String(), "Sign-in link sent to alice@example.org")
}

func TestLogin_Error(t *testing.T) {
	ta := newTestApp(t, "alice@example.org\n")
	ta.identity.err = errors.New("Invalid login credentials")
	stubPassword(t, "bad")

	require.Error(t, ta.Login(bg))
	assert.Equal(t, "guest", ta.getStatus())
}

func TestSession(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		access  string
		refresh string
	}{
		{"tokens", []string{"acc", "ref"}, "acc", "ref"},
		{"access only", []string{"acc"}, "acc", ""},
		{"link url", []string{"https://app.example.org/welcome#access_token=acc&expires_in=3600&refresh_token=ref&type=magiclink"}, "acc", "ref"},
		{"fragment", []string{"#access_token=acc&refresh_token=ref"}, "acc", "ref"},
		{"query", []string{"https://app.example.org/welcome?access_token=acc"}, "acc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp(t, "")
			ta.identity.adoptUser = &models.User{ID: "u1", Email: "alice@example.org"}

			require.NoError(t, ta.Session(bg, tt.args))

			assert.Equal(t, tt.access, ta.identity.access)
			assert.Equal(t, tt.refresh, ta.identity.refresh)
			assert.Equal(t, "Signed in as alice@example.org\n", ta.out.String())
			assert.Equal(t, "alice@example.org", ta.getStatus())
		})
	}
}

func TestSession_WithoutUser(t *testing.T) {
	ta := newTestApp(t, "")

	require.NoError(t, ta.Session(bg, []string{"opaque"}))
	assert.Equal(t, "Session stored.\n", ta.out.String())
}

func TestSession_LinkWithoutToken(t *testing.T) {
	ta := newTestApp(t, "")

	err := ta.Session(bg, []string{"https://app.example.org/welcome#error=access_denied&access_token="})
	require.ErrorIs(t, err, services.ErrTokenRequired)
	assert.Equal(t, "guest", ta.getStatus())
}

func TestLogout(t *testing.T) {
	ta := newTestApp(t, "")
	ta.signIn("u1", "alice@example.org")

	require.NoError(t, ta.Logout(bg))

	assert.True(t, ta.identity.signedOut)
	assert.False(t, ta.isLoggedIn())
}

func TestWhoami(t *testing.T) {
	t.Run("guest", func(t *testing.T) {
		ta := newTestApp(t, "")
		require.NoError(t, ta.Whoami(bg))
		assert.Contains(t, ta.out.String(), "go to login.html")
	})

	t.Run("admin", func(t *testing.T) {
		ta := newTestApp(t, "", "Boss@Example.org")
		ta.signIn("u1", "boss@example.org")
		require.NoError(t, ta.Whoami(bg))
		assert.Equal(t, "boss@example.org (u1) admin\n", ta.out.String())
	})

	t.Run("user", func(t *testing.T) {
		ta := newTestApp(t, "", "boss@example.org")
		ta.signIn("u2", "alice@example.org")
		require.NoError(t, ta.Whoami(bg))
		assert.Equal(t, "alice@example.org (u2) user\n", ta.out.String())
	})
}

func TestAdmin(t *testing.T) {
	t.Run("not admin", func(t *testing.T) {
		ta := newTestApp(t, "", "boss@example.org")
		ta.signIn("u2", "alice@example.org")
		require.NoError(t, ta.Admin(bg))
		assert.Equal(t, "Access denied (unauthorized), go to login.html\n", ta.out.String())
	})

	t.Run("signed out", func(t *testing.T) {
		ta := newTestApp(t, "", "boss@example.org")
		require.NoError(t, ta.Admin(bg))
		assert.Equal(t, "Access denied (unauthenticated), go to login.html\n", ta.out.String())
	})

	t.Run("admin", func(t *testing.T) {
		ta := newTestApp(t, "", "boss@example.org")
		ta.signIn("u1", "BOSS@example.org")
		require.NoError(t, ta.Admin(bg))
		assert.Equal(t, "Admin access granted.\n", ta.out.String())
	})
}
