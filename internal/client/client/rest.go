package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/reportdesk/internal/common"
	"github.com/dmitrijs2005/reportdesk/internal/logging"
	"github.com/dmitrijs2005/reportdesk/internal/metrics"
	"github.com/google/uuid"
)

const (
	defaultTimeout       = 15 * time.Second
	defaultRefreshLeeway = 10 * time.Second

	singleObjectMediaType = "application/vnd.pgrst.object+json"
)

// RESTClient talks to the backend gateway over HTTPS.
type RESTClient struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	sessions   SessionStore
	logger     logging.Logger
	recorder   metrics.Recorder
	now        func() time.Time

	refreshLeeway time.Duration
}

var _ Client = (*RESTClient)(nil)

type Option func(*RESTClient)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *RESTClient) { c.httpClient = hc }
}

// WithSessionStore replaces the default in-memory session store.
func WithSessionStore(s SessionStore) Option {
	return func(c *RESTClient) { c.sessions = s }
}

func WithLogger(l logging.Logger) Option {
	return func(c *RESTClient) { c.logger = l }
}

func WithRecorder(r metrics.Recorder) Option {
	return func(c *RESTClient) { c.recorder = r }
}

// WithClock overrides the time source used for session expiry.
func WithClock(now func() time.Time) Option {
	return func(c *RESTClient) { c.now = now }
}

// NewRESTClient validates the endpoint and key and returns a client
// ready to be shared.
func NewRESTClient(baseURL, anonKey string, opts ...Option) (*RESTClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", baseURL)
	}
	if strings.TrimSpace(anonKey) == "" {
		return nil, errors.New("anon key is required")
	}

	c := &RESTClient{
		baseURL:       baseURL,
		anonKey:       anonKey,
		httpClient:    &http.Client{Timeout: defaultTimeout},
		sessions:      NewMemorySessionStore(),
		logger:        logging.Discard(),
		recorder:      metrics.Noop{},
		now:           time.Now,
		refreshLeeway: defaultRefreshLeeway,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// request describes one gateway round trip.
type request struct {
	op     string
	method string
	path   string
	query  url.Values
	header http.Header
	// json body; ignored when raw is set
	body        any
	raw         []byte
	contentType string
	// bearer token; the anon key when empty
	token string
}

func (c *RESTClient) do(ctx context.Context, r request, out any) (err error) {
	started := c.now()
	requestID := uuid.NewString()
	defer func() {
		outcome := metrics.OutcomeOK
		if err != nil {
			outcome = metrics.OutcomeError
		}
		c.recorder.RecordBackendCall(r.op, outcome, c.now().Sub(started))
	}()

	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	var body io.Reader
	contentType := r.contentType
	switch {
	case r.raw != nil:
		body = bytes.NewReader(r.raw)
	case r.body != nil:
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", r.op, err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", r.op, err)
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	token := r.token
	if token == "" {
		token = c.anonKey
	}
	req.Header.Set(common.APIKeyHeaderName, c.anonKey)
	req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	req.Header.Set(common.RequestIDHeaderName, requestID)
	req.Header.Set(common.ClientInfoHeaderName, common.ClientInfo)

	log := c.logger.With("op", r.op, "request_id", requestID)
	log.Debug(ctx, "backend request", "method", r.method, "path", r.path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug(ctx, "backend unreachable", "error", err)
		return fmt.Errorf("%s: %w: %w", r.op, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp, requestID)
		log.Debug(ctx, "backend error", "status", resp.StatusCode, "code", apiErr.Code)
		return apiErr
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w: %w", r.op, ErrUnavailable, err)
	}
	log.Debug(ctx, "backend response", "status", resp.StatusCode, "bytes", len(payload))

	switch o := out.(type) {
	case nil:
		return nil
	case *json.RawMessage:
		*o = append((*o)[:0], payload...)
		return nil
	default:
		if len(bytes.TrimSpace(payload)) == 0 {
			return nil
		}
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("decode %s response: %w", r.op, err)
		}
		return nil
	}
}

// bearer returns the user's access token, or "" to fall back to the anon
// key when nobody is signed in.
func (c *RESTClient) bearer(ctx context.Context) (string, error) {
	s, err := c.GetSession(ctx)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", nil
	}
	return s.AccessToken, nil
}

// Ping checks that the auth service answers.
func (c *RESTClient) Ping(ctx context.Context) error {
	return c.do(ctx, request{op: "ping", method: http.MethodGet, path: "/auth/v1/health"}, nil)
}

func (c *RESTClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
