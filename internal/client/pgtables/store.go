// Package pgtables serves the Tables capability straight from the
// project's Postgres database, bypassing the REST gateway. It is meant for
// operator tooling that holds a database URL.
package pgtables

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/reportdesk/internal/client/client"
	"github.com/dmitrijs2005/reportdesk/internal/client/models"
	"github.com/dmitrijs2005/reportdesk/internal/dbx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	pkColumn        = "id"
	uniqueViolation = "23505"
)

type Store struct {
	db dbx.DBTX
}

var _ client.Tables = (*Store)(nil)

func New(db dbx.DBTX) *Store {
	return &Store{db: db}
}

// Open connects to dsn through the pgx driver and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w: %w", client.ErrUnavailable, err)
	}
	return db, nil
}

// ident quotes a possibly schema-qualified name.
func ident(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

func selectList(columns string) string {
	columns = strings.TrimSpace(columns)
	if columns == "" || columns == "*" {
		return "*"
	}
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = ident(strings.TrimSpace(p))
	}
	return strings.Join(parts, ", ")
}

func buildSelect(table string, q client.Query, limit int) (string, []any) {
	var b strings.Builder
	var args []any

	fmt.Fprintf(&b, "SELECT %s FROM %s", selectList(q.Columns), ident(table))
	for i, f := range q.Filters {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		args = append(args, f.Value)
		fmt.Fprintf(&b, "%s = $%d", ident(f.Column), len(args))
	}
	for i, o := range q.Order {
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		dir := "DESC"
		if o.Ascending {
			dir = "ASC"
		}
		fmt.Fprintf(&b, "%s %s", ident(o.Column), dir)
	}
	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}
	return b.String(), args
}

func (s *Store) Select(ctx context.Context, table string, q client.Query) ([]models.Row, error) {
	query, args := buildSelect(table, q, 0)
	return s.query(ctx, query, args...)
}

func (s *Store) SelectSingle(ctx context.Context, table string, q client.Query) (models.Row, error) {
	query, args := buildSelect(table, q, 2)
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("%s: %d rows: %w", table, len(rows), client.ErrNotSingleRow)
	}
	return rows[0], nil
}

func (s *Store) Insert(ctx context.Context, table string, row models.Row) (models.Row, error) {
	cols, args, err := columnsAndArgs(row)
	if err != nil {
		return nil, err
	}

	var query string
	if len(cols) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING *", ident(table))
	} else {
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
			ident(table), quoteAll(cols), placeholders(len(cols)))
	}

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("%s: insert returned %d rows: %w", table, len(rows), client.ErrNotSingleRow)
	}
	return rows[0], nil
}

func (s *Store) Upsert(ctx context.Context, table string, row models.Row) error {
	if _, ok := row[pkColumn]; !ok {
		return fmt.Errorf("upsert into %s: row has no %q column", table, pkColumn)
	}
	cols, args, err := columnsAndArgs(row)
	if err != nil {
		return err
	}

	var updates []string
	for _, c := range cols {
		if c == pkColumn {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", ident(c), ident(c)))
	}
	action := "DO NOTHING"
	if len(updates) > 0 {
		action = "DO UPDATE SET " + strings.Join(updates, ", ")
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s",
		ident(table), quoteAll(cols), placeholders(len(cols)), ident(pkColumn), action)

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return classify(err)
	}
	return nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]models.Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	result := []models.Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		row := make(models.Row, len(cols))
		for i, c := range cols {
			row[c] = normalize(values[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return result, nil
}

// columnsAndArgs orders the row's columns so generated SQL is stable.
func columnsAndArgs(row models.Row) ([]string, []any, error) {
	cols := make([]string, 0, len(row))
	for c := range row {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	args := make([]any, len(cols))
	for i, c := range cols {
		v, err := encode(row[c])
		if err != nil {
			return nil, nil, fmt.Errorf("column %s: %w", c, err)
		}
		args[i] = v
	}
	return cols, args, nil
}

// encode turns nested values into JSON text for json/jsonb columns.
func encode(v any) (any, error) {
	switch v.(type) {
	case map[string]any, []any, models.Row:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	default:
		return v, nil
	}
}

func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func quoteAll(cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = ident(c)
	}
	return strings.Join(out, ", ")
}

func placeholders(n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(out, ", ")
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("db error: %w: %w", client.ErrConflict, err)
	}
	return fmt.Errorf("db error: %w", err)
}
