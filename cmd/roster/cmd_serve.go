package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/warp/shift-roster/api"
	"github.com/warp/shift-roster/ingest"
	"github.com/warp/shift-roster/logging"
	"github.com/warp/shift-roster/schedule"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the roster API server",
	Long:  "Start the HTTP API server and, when sheet.refresh_cron is set, the scheduled sheet refresh.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error().Err(err).Msg("close store failed")
		}
	}()

	var fetcher ingest.Fetcher = ingest.StaticFetcher{Err: &schedule.IngestionError{Source: "sheet", Err: errors.New("sheet.url not configured")}}
	if cfg.Sheet.URL != "" {
		fetcher = ingest.NewHTTPFetcher(cfg.Sheet.URL, cfg.Sheet.Timeout)
	}

	session := ingest.NewSession(fetcher, schedule.NewDirectory(cfg.StaffDirectory()),
		ingest.WithLogger(logging.Component(logger, "ingest")),
		ingest.WithRateLimit(cfg.Sheet.RequestsPerMinute),
	)
	planner := schedule.NewPlanner(store, schedule.NewEngine(schedule.NewRandomTieBreaker(cfg.Roster.TieBreakSeed)),
		schedule.WithLogger(logging.Component(logger, "planner")),
	)

	handler := api.NewHandler(session, planner, logging.Component(logger, "api"))
	scheduler := api.NewRefreshScheduler(session, cfg.Sheet.RefreshCron, logging.Component(logger, "scheduler"))
	scheduler.Timeout = cfg.Sheet.Timeout

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      api.NewRouter(handler, cfg.HTTP.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Sheet.URL != "" {
		initCtx, cancel := context.WithTimeout(ctx, cfg.Sheet.Timeout)
		if _, err := session.Refresh(initCtx); err != nil {
			logger.Warn().Err(err).Msg("initial sheet refresh failed")
		}
		cancel()
	}

	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", httpServer.Addr).Str("week", string(planner.Week().Key())).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down gracefully...")

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(timeoutCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("roster server stopped")
	return nil
}
