package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/reportdesk/internal/client/client"
	"github.com/dmitrijs2005/reportdesk/internal/client/models"
	"github.com/dmitrijs2005/reportdesk/internal/logging"
)

const (
	TableProfiles  = "profiles"
	TableEarnings  = "earnings"
	TableReports   = "reports"
	TableCampaigns = "campaigns"
	BucketProofs   = "proofs"
)

// DataService holds the domain queries. Each call is one backend round
// trip, except UploadProof which derives the public URL afterwards.
type DataService interface {
	UpsertProfile(ctx context.Context, userID string, profile models.Row) error
	// FetchEarnings fails with client.ErrNotSingleRow unless exactly one
	// earnings row belongs to userID.
	FetchEarnings(ctx context.Context, userID string) (models.Row, error)
	FetchMyReports(ctx context.Context, userID string) ([]models.Row, error)
	CreateReport(ctx context.Context, payload models.Row) (models.Row, error)
	UploadProof(ctx context.Context, userID string, file models.ProofFile) (*models.UploadResult, error)
	FetchCampaigns(ctx context.Context) ([]models.Row, error)
}

type dataService struct {
	tables  client.Tables
	storage client.Storage
	now     func() time.Time
	logger  logging.Logger
}

type DataOption func(*dataService)

// WithDataClock replaces the clock used to stamp upload paths.
func WithDataClock(now func() time.Time) DataOption {
	return func(s *dataService) { s.now = now }
}

func NewDataService(tables client.Tables, storage client.Storage, logger logging.Logger, opts ...DataOption) DataService {
	s := &dataService{tables: tables, storage: storage, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpsertProfile writes profile keyed by userID. An "id" inside profile
// never overrides userID.
func (s *dataService) UpsertProfile(ctx context.Context, userID string, profile models.Row) error {
	row := profile.Merge(models.Row{"id": userID})
	return s.tables.Upsert(ctx, TableProfiles, row)
}

func (s *dataService) FetchEarnings(ctx context.Context, userID string) (models.Row, error) {
	return s.tables.SelectSingle(ctx, TableEarnings, client.Query{
		Filters: []client.Filter{client.Eq("user_id", userID)},
	})
}

func (s *dataService) FetchMyReports(ctx context.Context, userID string) ([]models.Row, error) {
	return s.tables.Select(ctx, TableReports, client.Query{
		Filters: []client.Filter{client.Eq("user_id", userID)},
		Order:   []client.Order{{Column: "created_at"}},
	})
}

func (s *dataService) CreateReport(ctx context.Context, payload models.Row) (models.Row, error) {
	return s.tables.Insert(ctx, TableReports, payload)
}

// proofPath namespaces uploads by user and millisecond timestamp.
func proofPath(userID string, at time.Time, name string) string {
	return fmt.Sprintf("%s/%d_%s", userID, at.UnixMilli(), name)
}

func (s *dataService) UploadProof(ctx context.Context, userID string, file models.ProofFile) (*models.UploadResult, error) {
	path, err := s.storage.Upload(ctx, BucketProofs, proofPath(userID, s.now(), file.Name), file)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "proof uploaded", "user_id", userID, "path", path, "bytes", len(file.Data))
	return &models.UploadResult{
		Path:      path,
		PublicURL: s.storage.PublicURL(BucketProofs, path),
	}, nil
}

func (s *dataService) FetchCampaigns(ctx context.Context) ([]models.Row, error) {
	return s.tables.Select(ctx, TableCampaigns, client.Query{
		Order: []client.Order{{Column: "updated_at"}},
	})
}
