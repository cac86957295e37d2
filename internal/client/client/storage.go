package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/reportdesk/internal/client/models"
)

// escapeObjectPath escapes each segment of an object path and keeps the
// separators.
func escapeObjectPath(p string) string {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// PublicObjectURL is the unauthenticated link of an object in a public
// bucket.
func PublicObjectURL(baseURL, bucket, path string) string {
	return strings.TrimRight(baseURL, "/") + "/storage/v1/object/public/" +
		url.PathEscape(bucket) + "/" + escapeObjectPath(path)
}

func (c *RESTClient) Upload(ctx context.Context, bucket, path string, file models.ProofFile) (string, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return "", err
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(file.Data)
	}

	data := file.Data
	if data == nil {
		data = []byte{}
	}

	err = c.do(ctx, request{
		op:     "upload",
		method: http.MethodPost,
		path:   "/storage/v1/object/" + url.PathEscape(bucket) + "/" + escapeObjectPath(path),
		header: http.Header{
			"X-Upsert":      {"false"},
			"Cache-Control": {"max-age=3600"},
		},
		raw:         data,
		contentType: contentType,
		token:       token,
	}, nil)
	if err != nil {
		return "", err
	}
	return path, nil
}

func (c *RESTClient) PublicURL(bucket, path string) string {
	return PublicObjectURL(c.baseURL, bucket, path)
}
