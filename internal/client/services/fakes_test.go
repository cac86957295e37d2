package services

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/reportdesk/internal/client/client"
	"github.com/dmitrijs2005/reportdesk/internal/client/models"
)

var bg = context.Background()

// fakeBackend implements the client capability interfaces and records the
// last call it received.
type fakeBackend struct {
	calls int

	session    *models.Session
	sessionErr error

	lastOp     string
	lastTable  string
	lastQuery  client.Query
	lastRow    models.Row
	lastBucket string
	lastPath   string
	lastFile   models.ProofFile
	lastFn     string
	lastArgs   any
	lastEmail  string
	lastPass   string
	lastMeta   map[string]any
	lastRedir  string

	rows       []models.Row
	row        models.Row
	rpcResult  json.RawMessage
	signUpResp *models.AuthResponse
	uploadPath string
	publicURLs int
	err        error
}

var (
	_ client.Auth       = (*fakeBackend)(nil)
	_ client.Tables     = (*fakeBackend)(nil)
	_ client.Storage    = (*fakeBackend)(nil)
	_ client.Procedures = (*fakeBackend)(nil)
)

func (f *fakeBackend) record(op string) {
	f.calls++
	f.lastOp = op
}

func (f *fakeBackend) GetSession(ctx context.Context) (*models.Session, error) {
	return f.session, f.sessionErr
}

func (f *fakeBackend) SetSession(ctx context.Context, s *models.Session) error {
	f.record("set_session")
	if f.err != nil {
		return f.err
	}
	f.session = s
	return nil
}

func (f *fakeBackend) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	f.record("password")
	f.lastEmail, f.lastPass = email, password
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakeBackend) SignInWithOTP(ctx context.Context, email, redirectTo string) error {
	f.record("otp")
	f.lastEmail, f.lastRedir = email, redirectTo
	return f.err
}

func (f *fakeBackend) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*models.AuthResponse, error) {
	f.record("signup")
	f.lastEmail, f.lastPass, f.lastMeta = email, password, metadata
	if f.err != nil {
		return nil, f.err
	}
	return f.signUpResp, nil
}

func (f *fakeBackend) SignOut(ctx context.Context) error {
	f.record("signout")
	return f.err
}

func (f *fakeBackend) Select(ctx context.Context, table string, q client.Query) ([]models.Row, error) {
	f.record("select")
	f.lastTable, f.lastQuery = table, q
	return f.rows, f.err
}

func (f *fakeBackend) SelectSingle(ctx context.Context, table string, q client.Query) (models.Row, error) {
	f.record("single")
	f.lastTable, f.lastQuery = table, q
	return f.row, f.err
}

func (f *fakeBackend) Insert(ctx context.Context, table string, row models.Row) (models.Row, error) {
	f.record("insert")
	f.lastTable, f.lastRow = table, row
	if f.err != nil {
		return nil, f.err
	}
	return f.row, nil
}

func (f *fakeBackend) Upsert(ctx context.Context, table string, row models.Row) error {
	f.record("upsert")
	f.lastTable, f.lastRow = table, row
	return f.err
}

func (f *fakeBackend) Upload(ctx context.Context, bucket, path string, file models.ProofFile) (string, error) {
	f.record("upload")
	f.lastBucket, f.lastPath, f.lastFile = bucket, path, file
	if f.err != nil {
		return "", f.err
	}
	if f.uploadPath != "" {
		return f.uploadPath, nil
	}
	return path, nil
}

func (f *fakeBackend) PublicURL(bucket, path string) string {
	f.publicURLs++
	return client.PublicObjectURL("https://proj.example.co", bucket, path)
}

func (f *fakeBackend) Call(ctx context.Context, fn string, args any) (json.RawMessage, error) {
	f.record("rpc")
	f.lastFn, f.lastArgs = fn, args
	if f.err != nil {
		return nil, f.err
	}
	return f.rpcResult, nil
}
