package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/reportdesk/internal/client/cli"
	"github.com/dmitrijs2005/reportdesk/internal/client/config"
	"github.com/dmitrijs2005/reportdesk/internal/logging"
	"github.com/dmitrijs2005/reportdesk/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {

	cfg, err := config.LoadConfig(os.Args[1:], os.Environ())
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var recorder metrics.Recorder = metrics.Noop{}
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		recorder = metrics.NewCollector(reg)

		ln, err := net.Listen("tcp", cfg.MetricsAddr)
		if err != nil {
			log.Fatalf("metrics listen: %v", err)
		}
		go func() {
			if err := metrics.Serve(ctx, ln, reg, logger); err != nil {
				logger.Error(ctx, "metrics endpoint stopped", "err", err)
			}
		}()
	}

	app, err := cli.NewApp(ctx, cfg, logger, recorder)
	if err != nil {
		log.Fatalf("%v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		app.Run(ctx)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		fmt.Println()
		_ = app.Close()
	}
}
