package services

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/reportdesk/internal/logging"
	"github.com/dmitrijs2005/reportdesk/internal/metrics"
	"github.com/dmitrijs2005/reportdesk/internal/netx"
)

const pendingSignupType = "pending_signup"

type pendingSignup struct {
	Type  string `json:"type"`
	Email string `json:"email"`
}

// Notifier posts admin notifications to a webhook. It is fire-and-forget:
// failures are logged and counted, never returned.
type Notifier struct {
	webhook  string
	client   *http.Client
	logger   logging.Logger
	recorder metrics.Recorder
}

// NewNotifier returns a Notifier; an empty webhook makes every call a
// no-op.
func NewNotifier(webhook string, hc *http.Client, logger logging.Logger, recorder metrics.Recorder) *Notifier {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &Notifier{webhook: webhook, client: hc, logger: logger, recorder: recorder}
}

func (n *Notifier) Enabled() bool {
	return n.webhook != ""
}

func (n *Notifier) NotifyAdminsOfPendingSignup(ctx context.Context, email string) {
	if !n.Enabled() {
		return
	}

	if _, err := url.ParseRequestURI(n.webhook); err != nil {
		n.fail(ctx, "invalid webhook url", err)
		return
	}

	err := netx.PostJSON(ctx, n.client, n.webhook, pendingSignup{Type: pendingSignupType, Email: email})
	if err != nil {
		n.fail(ctx, "admin notification failed", err)
		return
	}
	n.recorder.RecordWebhook(metrics.OutcomeOK)
}

func (n *Notifier) fail(ctx context.Context, msg string, err error) {
	n.recorder.RecordWebhook(metrics.OutcomeError)
	n.logger.Warn(ctx, msg, "error", err)
}
