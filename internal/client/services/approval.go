package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/dmitrijs2005/reportdesk/internal/client/client"
	"github.com/dmitrijs2005/reportdesk/internal/client/models"
	"github.com/dmitrijs2005/reportdesk/internal/logging"
)

// The messages are shown to users as-is.
var (
	ErrCodeRequired = errors.New("Security code required")
	ErrInvalidCode  = errors.New("Invalid or expired code")
)

const approveProcedure = "approve_with_code"

type ApprovalService interface {
	// ApproveSelfWithCode approves the signed-in user with a security
	// code. userID is accepted for symmetry with the other operations;
	// the backend identifies the caller from the session.
	ApproveSelfWithCode(ctx context.Context, userID, code string) (*models.ApprovalResult, error)
}

type approvalService struct {
	procs  client.Procedures
	codes  map[string]struct{}
	logger logging.Logger
}

// NewApprovalService takes the static codes that approve without asking
// the backend. They are matched exactly and never consumed.
func NewApprovalService(procs client.Procedures, codes []string, logger logging.Logger) ApprovalService {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return &approvalService{procs: procs, codes: set, logger: logger}
}

func (s *approvalService) ApproveSelfWithCode(ctx context.Context, userID, code string) (*models.ApprovalResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrCodeRequired
	}

	if _, ok := s.codes[code]; ok {
		s.logger.Info(ctx, "approved with local code", "user_id", userID)
		return &models.ApprovalResult{Value: json.RawMessage("true"), Local: true}, nil
	}

	out, err := s.procs.Call(ctx, approveProcedure, map[string]any{"p_code": code})
	if err != nil {
		return nil, err
	}
	if falsy(out) {
		return nil, ErrInvalidCode
	}
	s.logger.Info(ctx, "approved with backend code", "user_id", userID)
	return &models.ApprovalResult{Value: out}, nil
}

// falsy reports whether a JSON result counts as "no": an empty body,
// null, false, zero or the empty string.
func falsy(raw json.RawMessage) bool {
	if len(bytes.TrimSpace(raw)) == 0 {
		return true
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch val := v.(type) {
	case nil:
		return true
	case bool:
		return !val
	case float64:
		return val == 0
	case string:
		return val == ""
	default:
		return false
	}
}
