package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

var (
	ErrUnavailable  = errors.New("backend unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrNotSingleRow = errors.New("expected exactly one row")
	ErrConflict     = errors.New("conflict")
	ErrNoSession    = errors.New("no active session")
)

// pgrstSingularity is PostgREST's code for a singular response that
// matched zero or several rows.
const pgrstSingularity = "PGRST116"

// APIError is a non-2xx answer from the backend, kept as the backend
// reported it.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    string
	Hint       string
	RequestID  string

	// storage reports its own status in the body; it refines the class
	// when the HTTP status is a generic 400
	bodyStatus int
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("backend error (%d %s): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("backend error (%d): %s", e.StatusCode, msg)
}

// Unwrap maps the error onto a sentinel class.
func (e *APIError) Unwrap() error {
	status := e.StatusCode
	if status == http.StatusBadRequest && e.bodyStatus != 0 {
		status = e.bodyStatus
	}
	switch {
	case e.Code == pgrstSingularity || status == http.StatusNotAcceptable:
		return ErrNotSingleRow
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrUnauthorized
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	default:
		return nil
	}
}

// errorBody is the union of the auth, PostgREST and storage error shapes.
type errorBody struct {
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Message          string          `json:"message"`
	Msg              string          `json:"msg"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
	Details          json.RawMessage `json:"details"`
	Hint             string          `json:"hint"`
	StatusCode       json.RawMessage `json:"statusCode"`
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}

func decodeAPIError(resp *http.Response, requestID string) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: requestID}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		apiErr.Message = string(body)
		return apiErr
	}

	apiErr.Code = eb.ErrorCode
	if apiErr.Code == "" {
		apiErr.Code = rawString(eb.Code)
	}
	if _, err := strconv.Atoi(apiErr.Code); err == nil {
		// the auth server sometimes repeats the HTTP status as "code"
		apiErr.Code = ""
	}

	for _, m := range []string{eb.Message, eb.Msg, eb.ErrorDescription, eb.Error} {
		if m != "" {
			apiErr.Message = m
			break
		}
	}
	if apiErr.Code == "" && eb.Error != "" && eb.Error != apiErr.Message {
		apiErr.Code = eb.Error
	}

	if n, err := strconv.Atoi(rawString(eb.StatusCode)); err == nil {
		apiErr.bodyStatus = n
	}
	apiErr.Details = rawString(eb.Details)
	apiErr.Hint = eb.Hint
	return apiErr
}
