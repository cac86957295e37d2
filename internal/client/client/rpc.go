package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Call invokes a server-side function and returns its raw JSON result.
func (c *RESTClient) Call(ctx context.Context, fn string, args any) (json.RawMessage, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}

	var out json.RawMessage
	err = c.do(ctx, request{
		op:     "rpc",
		method: http.MethodPost,
		path:   "/rest/v1/rpc/" + url.PathEscape(fn),
		body:   args,
		token:  token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}
