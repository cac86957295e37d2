package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/dmitrijs2005/reportdesk/internal/client/client"
	"github.com/dmitrijs2005/reportdesk/internal/client/config"
	"github.com/dmitrijs2005/reportdesk/internal/client/pgtables"
	"github.com/dmitrijs2005/reportdesk/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/reportdesk/internal/client/services"
	"github.com/dmitrijs2005/reportdesk/internal/filex"
	"github.com/dmitrijs2005/reportdesk/internal/logging"
	"github.com/dmitrijs2005/reportdesk/internal/metrics"
	"github.com/dmitrijs2005/reportdesk/internal/security"
)

type App struct {
	config   *config.Config
	guard    *services.SessionGuard
	identity services.IdentityService
	approval services.ApprovalService
	data     services.DataService
	notifier *services.Notifier
	logger   logging.Logger

	reader   *bufio.Reader
	out      io.Writer
	readFile func(string) ([]byte, error)
	closers  []io.Closer
	closeMu  sync.Mutex
}

// NewApp opens the session database, builds the backend adapter selected
// by cfg and wires the services on top of it. Close releases what NewApp
// opened.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger, recorder metrics.Recorder) (*App, error) {
	a := &App{
		config:   cfg,
		logger:   logger,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		readFile: os.ReadFile,
	}

	dbPath, err := filex.EnsureParentDir(cfg.SessionDBPath)
	if err != nil {
		return nil, err
	}
	db, err := client.InitDatabase(ctx, dbPath)
	if err != nil {
		logger.Error(ctx, "error initializing session database", "path", dbPath, "err", err)
		return nil, err
	}
	a.closers = append(a.closers, db)

	rc, err := client.NewRESTClient(cfg.SupabaseURL, cfg.SupabaseAnonKey,
		client.WithHTTPClient(newHTTPClient(cfg)),
		client.WithSessionStore(sessions.NewSQLiteStore(db)),
		client.WithLogger(logger),
		client.WithRecorder(recorder),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, rc)

	var storage client.Storage = rc
	if cfg.StorageProtocol == config.StorageS3 {
		s3s, err := client.NewS3Storage(client.S3Config{
			BaseURL: cfg.SupabaseURL,
			AnonKey: cfg.SupabaseAnonKey,
			Region:  cfg.S3Region,
		}, rc, logger, recorder)
		if err != nil {
			a.Close()
			return nil, err
		}
		storage = s3s
	}

	var tables client.Tables = rc
	if cfg.DatabaseURL != "" {
		pg, err := pgtables.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, pg)
		tables = pgtables.New(pg)
		logger.Info(ctx, "tables served from postgres")
	}

	if err := rc.Ping(ctx); err != nil {
		logger.Warn(ctx, "backend health check failed", "err", err)
	}

	authz := services.NewAuthorizer(cfg.AdminEmails)
	a.guard = services.NewSessionGuard(rc, authz, cfg.LoginLocation, logger)
	a.identity = services.NewIdentityService(rc, cfg.SiteOrigin, logger)
	a.approval = services.NewApprovalService(rc, cfg.SecurityCodes, logger)
	a.data = services.NewDataService(tables, storage, logger)
	a.notifier = newNotifier(ctx, cfg, logger, recorder)

	return a, nil
}

// newNotifier builds the admin notifier. A webhook the client would always
// refuse is reported once here as an error; each failed delivery is still
// logged by the notifier itself.
func newNotifier(ctx context.Context, cfg *config.Config, logger logging.Logger, recorder metrics.Recorder) *services.Notifier {
	webhook := cfg.AdminNotifyWebhook
	if webhook == "" {
		return services.NewNotifier("", nil, logger, recorder)
	}

	if err := security.CheckWebhook(webhook, cfg.AdminNotifyAllowPrivate); err != nil {
		logger.Error(ctx, "admin webhook will be refused, notifications will not be delivered",
			"err", err, "hint", "set ADMIN_NOTIFY_ALLOW_PRIVATE=true for intranet or local webhooks")
	}

	hc, err := security.NewWebhookClient(webhook, cfg.RequestTimeout, cfg.AdminNotifyAllowPrivate)
	if err != nil {
		hc = security.NewSafeClient(cfg.RequestTimeout)
	}
	return services.NewNotifier(webhook, hc, logger, recorder)
}

func newHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.RequestTimeout}
}

// Close releases the backend adapter and the databases, newest first.
func (a *App) Close() error {
	a.closeMu.Lock()
	defer a.closeMu.Unlock()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.guard.GetSession(context.Background()) != nil
}

func (a *App) getStatus() string {
	s := a.guard.GetSession(context.Background())
	if s == nil || s.User == nil {
		return "guest"
	}
	return s.User.Email
}

func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to reportdesk (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}
