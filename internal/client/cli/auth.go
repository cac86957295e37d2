package cli

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/reportdesk/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for an email, a password and an optional full name and
// creates the account. Admins are notified of the pending sign-up whether
// or not the backend confirmed the account right away.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, "Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	name, err := getSimpleText(a.reader, "Full name (optional)", a.out)
	if err != nil {
		return err
	}
	metadata := map[string]any{}
	if name != "" {
		metadata["full_name"] = name
	}

	resp, err := a.identity.SignUpWithEmail(ctx, email, string(password), metadata)
	if err != nil {
		return err
	}

	a.notifier.NotifyAdminsOfPendingSignup(ctx, email)

	if resp.Session != nil {
		fmt.Fprintln(a.out, "Signed up and signed in.")
	} else {
		fmt.Fprintln(a.out, "Signed up. Confirm the address from your inbox, then log in.")
	}
	return nil
}

// Login signs in with a password, or sends a one-time sign-in link when
// the password is left blank.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, "Password (blank sends a sign-in link)", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.identity.SignInWithEmail(ctx, email, string(password))
	if err != nil {
		a.logger.Info(ctx, "login unsuccessful", "email", email, "err", err)
		return err
	}
	if s == nil {
		fmt.Fprintf(a.out, "Sign-in link sent to %s. Open it, then paste the page address into 'session <url>'.\n", email)
		return nil
	}

	fmt.Fprintln(a.out, "Login successful")
	return nil
}

// Session stores the tokens of a one-time sign-in link as the current
// session. args is either the landing page address (or just its
// "#access_token=..." fragment) or an access token optionally followed by
// a refresh token.
func (a *App) Session(ctx context.Context, args []string) error {
	access, refresh := linkTokens(args)

	s, err := a.identity.AdoptSession(ctx, access, refresh)
	if err != nil {
		return err
	}
	if s.User != nil && s.User.Email != "" {
		fmt.Fprintf(a.out, "Signed in as %s\n", s.User.Email)
		return nil
	}
	fmt.Fprintln(a.out, "Session stored.")
	return nil
}

func linkTokens(args []string) (access, refresh string) {
	if len(args) == 0 {
		return "", ""
	}
	if !strings.Contains(args[0], "access_token=") {
		access = args[0]
		if len(args) > 1 {
			refresh = args[1]
		}
		return access, refresh
	}

	raw := args[0]
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[i+1:]
	} else if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return "", ""
	}
	return values.Get("access_token"), values.Get("refresh_token")
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.identity.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	s, ok := a.requireAuth(ctx)
	if !ok {
		return nil
	}
	if s.User == nil {
		fmt.Fprintln(a.out, "Signed in (no user details)")
		return nil
	}
	role := "user"
	if a.guard.RequireAdmin(ctx, "").Allowed() {
		role = "admin"
	}
	fmt.Fprintf(a.out, "%s (%s) %s\n", s.User.Email, s.User.ID, role)
	return nil
}

// Admin runs the admin check and reports the decision.
func (a *App) Admin(ctx context.Context) error {
	d := a.guard.RequireAdmin(ctx, "")
	if !d.Allowed() {
		fmt.Fprintf(a.out, "Access denied (%s), go to %s\n", d.Outcome, d.RedirectTo)
		return nil
	}
	fmt.Fprintln(a.out, "Admin access granted.")
	return nil
}
