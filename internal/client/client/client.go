package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/reportdesk/internal/client/models"
)

// Auth is the authentication capability of the backend.
type Auth interface {
	// GetSession returns the current session or nil when there is none.
	GetSession(ctx context.Context) (*models.Session, error)
	SetSession(ctx context.Context, s *models.Session) error
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	// SignInWithOTP e-mails a one-time link that lands on redirectTo.
	SignInWithOTP(ctx context.Context, email, redirectTo string) error
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*models.AuthResponse, error)
	SignOut(ctx context.Context) error
}

// Tables is the relational storage capability.
type Tables interface {
	Select(ctx context.Context, table string, q Query) ([]models.Row, error)
	// SelectSingle fails with ErrNotSingleRow unless exactly one row matches.
	SelectSingle(ctx context.Context, table string, q Query) (models.Row, error)
	// Insert stores row and returns it as persisted.
	Insert(ctx context.Context, table string, row models.Row) (models.Row, error)
	// Upsert creates or replaces row keyed by its primary key.
	Upsert(ctx context.Context, table string, row models.Row) error
}

// Storage is the object storage capability.
type Storage interface {
	// Upload stores file at path inside bucket without overwriting and
	// returns the stored path.
	Upload(ctx context.Context, bucket, path string, file models.ProofFile) (string, error)
	// PublicURL derives the unauthenticated link of an object. No I/O.
	PublicURL(bucket, path string) string
}

// Procedures invokes named server-side procedures.
type Procedures interface {
	Call(ctx context.Context, fn string, args any) (json.RawMessage, error)
}

// Client is the full backend surface.
type Client interface {
	Auth
	Tables
	Storage
	Procedures
	Ping(ctx context.Context) error
	Close() error
}

// Filter is an equality predicate on a column.
type Filter struct {
	Column string
	Value  any
}

// Eq builds the predicate column = value.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Value: value}
}

// Order sorts results by Column.
type Order struct {
	Column    string
	Ascending bool
}

// Query narrows a select. Empty Columns means every column.
type Query struct {
	Columns string
	Filters []Filter
	Order   []Order
}

func (q Query) columns() string {
	if strings.TrimSpace(q.Columns) == "" {
		return "*"
	}
	return q.Columns
}

// FormatValue renders a filter value the way the gateway expects it in a
// query string.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// values encodes q as gateway query parameters.
func (q Query) values() url.Values {
	v := url.Values{}
	v.Set("select", q.columns())
	for _, f := range q.Filters {
		v.Add(f.Column, "eq."+FormatValue(f.Value))
	}
	if len(q.Order) > 0 {
		parts := make([]string, 0, len(q.Order))
		for _, o := range q.Order {
			dir := "desc"
			if o.Ascending {
				dir = "asc"
			}
			parts = append(parts, o.Column+"."+dir)
		}
		v.Set("order", strings.Join(parts, ","))
	}
	return v
}
