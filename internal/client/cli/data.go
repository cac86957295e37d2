package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"path/filepath"

	"github.com/dmitrijs2005/reportdesk/internal/client/client"
	"github.com/dmitrijs2005/reportdesk/internal/client/models"
)

var errNoUser = errors.New("session carries no user")

// requireAuth runs the session guard. On denial it prints where to go
// and reports false; the caller just returns.
func (a *App) requireAuth(ctx context.Context) (*models.Session, bool) {
	d := a.guard.RequireAuth(ctx, "")
	if !d.Allowed() {
		fmt.Fprintf(a.out, "Not signed in, go to %s (use 'login')\n", d.RedirectTo)
		return nil, false
	}
	return d.Session, true
}

func (a *App) currentUserID(ctx context.Context) (string, bool, error) {
	s, ok := a.requireAuth(ctx)
	if !ok {
		return "", false, nil
	}
	if s.User == nil || s.User.ID == "" {
		return "", false, errNoUser
	}
	return s.User.ID, true, nil
}

func (a *App) printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(b))
	return err
}

func (a *App) printRows(rows []models.Row, empty string) error {
	if len(rows) == 0 {
		fmt.Fprintln(a.out, empty)
		return nil
	}
	return a.printJSON(rows)
}

// Profile reads profile fields and upserts them for the signed-in user.
func (a *App) Profile(ctx context.Context) error {
	userID, ok, err := a.currentUserID(ctx)
	if !ok || err != nil {
		return err
	}

	lines, err := GetFields(a.reader, "Enter profile fields", a.out)
	if err != nil {
		return err
	}
	profile, err := ParseFields(lines)
	if err != nil {
		return err
	}

	if err := a.data.UpsertProfile(ctx, userID, profile); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Profile saved.")
	return nil
}

func (a *App) Earnings(ctx context.Context) error {
	userID, ok, err := a.currentUserID(ctx)
	if !ok || err != nil {
		return err
	}

	row, err := a.data.FetchEarnings(ctx, userID)
	if errors.Is(err, client.ErrNotSingleRow) {
		fmt.Fprintln(a.out, "No earnings record.")
		return nil
	}
	if err != nil {
		return err
	}
	return a.printJSON(row)
}

func (a *App) Reports(ctx context.Context) error {
	userID, ok, err := a.currentUserID(ctx)
	if !ok || err != nil {
		return err
	}

	rows, err := a.data.FetchMyReports(ctx, userID)
	if err != nil {
		return err
	}
	return a.printRows(rows, "No reports.")
}

// Report creates a report owned by the signed-in user from a title, a
// multi-line description and any extra fields.
func (a *App) Report(ctx context.Context) error {
	userID, ok, err := a.currentUserID(ctx)
	if !ok || err != nil {
		return err
	}

	title, err := getSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	description, err := GetMultiline(a.reader, "Description", a.out)
	if err != nil {
		return err
	}
	lines, err := GetFields(a.reader, "Extra fields", a.out)
	if err != nil {
		return err
	}
	payload, err := ParseFields(lines)
	if err != nil {
		return err
	}

	payload["title"] = title
	payload["description"] = description
	payload["user_id"] = userID

	row, err := a.data.CreateReport(ctx, payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Report created: %s\n", row.String("id"))
	return nil
}

// Upload sends the file at path to the proofs bucket.
func (a *App) Upload(ctx context.Context, path string) error {
	userID, ok, err := a.currentUserID(ctx)
	if !ok || err != nil {
		return err
	}

	data, err := a.readFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	file := models.ProofFile{
		Name:        filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Data:        data,
	}
	res, err := a.data.UploadProof(ctx, userID, file)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Uploaded %s\n%s\n", res.Path, res.PublicURL)
	return nil
}

func (a *App) Campaigns(ctx context.Context) error {
	rows, err := a.data.FetchCampaigns(ctx)
	if err != nil {
		return err
	}
	return a.printRows(rows, "No campaigns.")
}

// Approve asks for a security code and runs the self-approval flow for
// the signed-in user.
func (a *App) Approve(ctx context.Context) error {
	userID, ok, err := a.currentUserID(ctx)
	if !ok || err != nil {
		return err
	}

	code, err := getSimpleText(a.reader, "Security code", a.out)
	if err != nil {
		return err
	}

	res, err := a.approval.ApproveSelfWithCode(ctx, userID, code)
	if err != nil {
		return err
	}
	if res.Local {
		fmt.Fprintln(a.out, "Approved.")
		return nil
	}
	fmt.Fprintf(a.out, "Approved: %s\n", string(res.Value))
	return nil
}
