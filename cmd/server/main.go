package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"golang.org/x/sync/errgroup"

	"github.com/AngelCh415/crm-dashboard/internal/config"
	"github.com/AngelCh415/crm-dashboard/internal/httpx"
	"github.com/AngelCh415/crm-dashboard/internal/ingest"
	"github.com/AngelCh415/crm-dashboard/internal/poller"
	"github.com/AngelCh415/crm-dashboard/internal/store"
	"github.com/AngelCh415/crm-dashboard/internal/telemetry"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("config error", slog.String("err", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTelEnabled {
		tp, err := telemetry.InitTracer(ctx, cfg.OTelEndpoint)
		if err != nil {
			logger.Error("tracing disabled", slog.String("err", err.Error()))
		} else {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = telemetry.Shutdown(sctx, tp)
			}()
		}
	}

	tel := telemetry.NewMetrics()
	cl := ingest.NewHTTPClient(cfg.HTTPTimeout)
	st := store.NewMemoryStore(cfg.DiscardStale)
	etl := ingest.NewETL(cl, st, logger, cfg, tel)

	r, err := httpx.NewRouter(logger, st, etl, tel, cfg)
	if err != nil {
		logger.Error("router error", slog.String("err", err.Error()))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server",
			slog.String("port", cfg.Port),
			slog.String("timezone", cfg.Location.String()),
			slog.Duration("poll", cfg.PollInterval),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return poller.New(etl, st, cfg.PollInterval, cfg.PollRetry, logger).Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
	logger.Info("stopped")
}
