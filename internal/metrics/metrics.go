// Package metrics exposes Prometheus counters for backend calls and
// admin notifications.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/reportdesk/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Recorder is what the backend adapter and the notifier report to.
type Recorder interface {
	RecordBackendCall(operation, outcome string, duration time.Duration)
	RecordWebhook(outcome string)
}

// Noop discards everything.
type Noop struct{}

func (Noop) RecordBackendCall(string, string, time.Duration) {}
func (Noop) RecordWebhook(string)                            {}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	webhooks *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reportdesk_backend_requests_total",
			Help: "Backend calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reportdesk_backend_request_duration_seconds",
			Help:    "Backend call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reportdesk_webhook_notifications_total",
			Help: "Admin notification attempts by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(c.requests, c.duration, c.webhooks)
	return c
}

func (c *Collector) RecordBackendCall(operation, outcome string, duration time.Duration) {
	c.requests.WithLabelValues(operation, outcome).Inc()
	c.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (c *Collector) RecordWebhook(outcome string) {
	c.webhooks.WithLabelValues(outcome).Inc()
}

// Handler serves gatherer on /metrics.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Serve runs a metrics endpoint on ln until ctx is done, then shuts it
// down.
func Serve(ctx context.Context, ln net.Listener, gatherer prometheus.Gatherer, logger logging.Logger) error {
	srv := &http.Server{Handler: Handler(gatherer), ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info(ctx, "metrics endpoint started", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
