package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/reportdesk/internal/client/models"
	"github.com/dmitrijs2005/reportdesk/internal/client/services"
	"github.com/dmitrijs2005/reportdesk/internal/logging"
	"github.com/dmitrijs2005/reportdesk/internal/metrics"
)

var bg = context.Background()

type fakeSessions struct {
	session *models.Session
}

func (f *fakeSessions) GetSession(context.Context) (*models.Session, error) {
	return f.session, nil
}

type fakeIdentity struct {
	sessions *fakeSessions

	email, password string
	metadata        map[string]any
	signedOut       bool

	signInSession *models.Session
	signUpResp    *models.AuthResponse
	err           error

	access, refresh string
	adoptUser       *models.User
}

func (f *fakeIdentity) SignInWithEmail(_ context.Context, email, password string) (*models.Session, error) {
	f.email, f.password = email, password
	if f.err != nil {
		return nil, f.err
	}
	if f.signInSession != nil {
		f.sessions.session = f.signInSession
	}
	return f.signInSession, nil
}

func (f *fakeIdentity) SignUpWithEmail(_ context.Context, email, password string, metadata map[string]any) (*models.AuthResponse, error) {
	f.email, f.password, f.metadata = email, password, metadata
	if f.err != nil {
		return nil, f.err
	}
	return f.signUpResp, nil
}

func (f *fakeIdentity) AdoptSession(_ context.Context, access, refresh string) (*models.Session, error) {
	f.access, f.refresh = access, refresh
	if f.err != nil {
		return nil, f.err
	}
	if access == "" {
		return nil, services.ErrTokenRequired
	}
	s := &models.Session{AccessToken: access, RefreshToken: refresh, User: f.adoptUser}
	f.sessions.session = s
	return s, nil
}

func (f *fakeIdentity) SignOut(context.Context) error {
	f.signedOut = true
	f.sessions.session = nil
	return f.err
}

type fakeApproval struct {
	userID, code string
	result       *models.ApprovalResult
	err          error
}

func (f *fakeApproval) ApproveSelfWithCode(_ context.Context, userID, code string) (*models.ApprovalResult, error) {
	f.userID, f.code = userID, code
	return f.result, f.err
}

type fakeData struct {
	calls []string

	userID  string
	profile models.Row
	payload models.Row
	file    models.ProofFile

	row    models.Row
	rows   []models.Row
	upload *models.UploadResult
	err    error
}

func (f *fakeData) UpsertProfile(_ context.Context, userID string, profile models.Row) error {
	f.calls = append(f.calls, "profile")
	f.userID, f.profile = userID, profile
	return f.err
}

func (f *fakeData) FetchEarnings(_ context.Context, userID string) (models.Row, error) {
	f.calls = append(f.calls, "earnings")
	f.userID = userID
	return f.row, f.err
}

func (f *fakeData) FetchMyReports(_ context.Context, userID string) ([]models.Row, error) {
	f.calls = append(f.calls, "reports")
	f.userID = userID
	return f.rows, f.err
}

func (f *fakeData) CreateReport(_ context.Context, payload models.Row) (models.Row, error) {
	f.calls = append(f.calls, "report")
	f.payload = payload
	return f.row, f.err
}

func (f *fakeData) UploadProof(_ context.Context, userID string, file models.ProofFile) (*models.UploadResult, error) {
	f.calls = append(f.calls, "upload")
	f.userID, f.file = userID, file
	return f.upload, f.err
}

func (f *fakeData) FetchCampaigns(context.Context) ([]models.Row, error) {
	f.calls = append(f.calls, "campaigns")
	return f.rows, f.err
}

var _ services.DataService = (*fakeData)(nil)

type testApp struct {
	*App
	sessions *fakeSessions
	identity *fakeIdentity
	approval *fakeApproval
	data     *fakeData
	out      *bytes.Buffer
}

// newTestApp builds an App over fakes. input feeds the interactive prompts.
func newTestApp(t *testing.T, input string, admins ...string) *testApp {
	t.Helper()

	sessions := &fakeSessions{}
	ta := &testApp{
		sessions: sessions,
		identity: &fakeIdentity{sessions: sessions},
		approval: &fakeApproval{},
		data:     &fakeData{},
		out:      &bytes.Buffer{},
	}
	ta.App = &App{
		guard:    services.NewSessionGuard(sessions, services.NewAuthorizer(admins), "login.html", logging.Discard()),
		identity: ta.identity,
		approval: ta.approval,
		data:     ta.data,
		notifier: services.NewNotifier("", nil, logging.Discard(), metrics.Noop{}),
		logger:   logging.Discard(),
		reader:   bufio.NewReader(strings.NewReader(input)),
		out:      ta.out,
		readFile: func(string) ([]byte, error) { return nil, io.ErrUnexpectedEOF },
	}
	return ta
}

func (ta *testApp) signIn(id, email string) {
	ta.sessions.session = &models.Session{
		AccessToken: "token",
		User:        &models.User{ID: id, Email: email},
	}
}

// stubPassword replaces the terminal password prompt for one test.
func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := getPassword
	getPassword = func(_ *bufio.Reader, _ string, _ io.Writer) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { getPassword = orig })
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}
