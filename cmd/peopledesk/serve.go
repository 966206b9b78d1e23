package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/peopledesk/peopledesk/internal/data"
	"github.com/peopledesk/peopledesk/internal/dbmigrate"
	"github.com/peopledesk/peopledesk/internal/events"
	"github.com/peopledesk/peopledesk/internal/health"
	"github.com/peopledesk/peopledesk/internal/metrics"
	"github.com/peopledesk/peopledesk/internal/server"
	"github.com/peopledesk/peopledesk/internal/tracing"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	cfg, logger := a.cfg, a.logger
	logger.Info().Str("version", version).Str("commit", commit).Str("build_date", buildDate).Str("backend", cfg.Backend).Msg("starting peopledesk")

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    "peopledesk",
		ServiceVersion: version,
		TracesEnabled:  cfg.TracesEnabled,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := shutdownTracing(shutdownCtx); shutdownErr != nil {
			logger.Error().Err(shutdownErr).Msg("failed to shut down tracing")
		}
	}()

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.Close()

	if be.db != nil && cfg.MigrateOnStart {
		if err := waitForStore(ctx, be.store, cfg.ProbeTimeout, logger); err != nil {
			logger.Error().Err(err).Msg("store unreachable; skipping migrations and serving sample data until it recovers")
		} else {
			result, err := dbmigrate.Up(be.db, be.dialect)
			if err != nil {
				return err
			}
			logger.Info().Uint("version", result.Version).Bool("dirty", result.Dirty).Msg("database migration complete")
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(reg)

	checker := health.NewChecker(be.store,
		health.WithTTL(cfg.HealthTTL),
		health.WithProbeTimeout(cfg.ProbeTimeout),
		health.WithLogger(componentLogger("health")),
	)

	var publisher events.Publisher = events.Noop{}
	if cfg.NATSURL != "" {
		p, err := events.NewNATSPublisher(events.NATSConfig{
			URL:  cfg.NATSURL,
			Name: "peopledesk",
			Stream: events.StreamConfig{
				Name:     cfg.NATSStream,
				Subjects: []string{cfg.NATSSubjectPrefix + ".>"},
			},
		})
		if err != nil {
			logger.Error().Err(err).Msg("change events disabled")
		} else {
			publisher = p
			logger.Info().Str("url", cfg.NATSURL).Str("stream", cfg.NATSStream).Msg("publishing change events")
		}
	}
	defer publisher.Close()

	db := data.New(be.store,
		data.WithHealth(checker),
		data.WithMetrics(recorder),
		data.WithPublisher(publisher, cfg.NATSSubjectPrefix),
		data.WithLogger(componentLogger("data")),
		data.WithTimeout(cfg.QueryTimeout),
	)
	srv := server.New(db, cfg, version, commit, buildDate,
		server.WithGatherer(reg),
		server.WithLogger(log.Logger),
	)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var serveErr error
	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case serveErr = <-errCh:
		logger.Error().Err(serveErr).Msg("HTTP server error")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error().Err(shutdownErr).Msg("HTTP server shutdown error")
	}
	logger.Info().Msg("server stopped gracefully")
	return serveErr
}
