package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/reportdesk/internal/client/models"
)

func tablePath(table string) string {
	return "/rest/v1/" + url.PathEscape(table)
}

func (c *RESTClient) Select(ctx context.Context, table string, q Query) ([]models.Row, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}

	rows := []models.Row{}
	err = c.do(ctx, request{
		op:     "select",
		method: http.MethodGet,
		path:   tablePath(table),
		query:  q.values(),
		token:  token,
	}, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *RESTClient) SelectSingle(ctx context.Context, table string, q Query) (models.Row, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}

	var row models.Row
	err = c.do(ctx, request{
		op:     "select_single",
		method: http.MethodGet,
		path:   tablePath(table),
		query:  q.values(),
		header: http.Header{"Accept": {singleObjectMediaType}},
		token:  token,
	}, &row)
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (c *RESTClient) Insert(ctx context.Context, table string, row models.Row) (models.Row, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}

	var inserted models.Row
	err = c.do(ctx, request{
		op:     "insert",
		method: http.MethodPost,
		path:   tablePath(table),
		query:  url.Values{"select": {"*"}},
		header: http.Header{
			"Accept": {singleObjectMediaType},
			"Prefer": {"return=representation"},
		},
		body:  row,
		token: token,
	}, &inserted)
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

func (c *RESTClient) Upsert(ctx context.Context, table string, row models.Row) error {
	token, err := c.bearer(ctx)
	if err != nil {
		return err
	}

	return c.do(ctx, request{
		op:     "upsert",
		method: http.MethodPost,
		path:   tablePath(table),
		header: http.Header{"Prefer": {"resolution=merge-duplicates,return=minimal"}},
		body:   row,
		token:  token,
	}, nil)
}
