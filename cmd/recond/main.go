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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/croplands/parcel-recon/constants"
	"github.com/croplands/parcel-recon/internal/automation"
	"github.com/croplands/parcel-recon/internal/common"
	"github.com/croplands/parcel-recon/internal/engine"
	"github.com/croplands/parcel-recon/internal/ingest"
	"github.com/croplands/parcel-recon/internal/resolver"
	"github.com/croplands/parcel-recon/internal/server"
	"github.com/croplands/parcel-recon/internal/snapshot"
	"github.com/croplands/parcel-recon/internal/tracker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found")
	}
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.Info("admission allow-list", "jurisdictions", constants.AllowedCodes())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway, err := openGateway(ctx, cfg, logger)
	if err != nil {
		logger.Error("opening snapshot store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := gateway.Close(); cerr != nil {
			logger.Error("closing snapshot store", "error", cerr)
		}
	}()

	eng := engine.New(gateway, logger)
	if err := eng.Rehydrate(ctx); err != nil {
		logger.Error("rehydrating state", "error", err)
		os.Exit(1)
	}

	tr := tracker.New(logger)
	fetcher := resolver.NewHTTPFetcher(cfg.Resolver.EndpointURL, cfg.Resolver.FetchTimeout, logger)
	res := resolver.New(tr, fetcher, eng, logger,
		resolver.WithBaseDelay(cfg.Resolver.BaseDelay),
		resolver.WithProcessTimeout(cfg.Resolver.FetchTimeout+10*time.Second),
	)
	queue := resolver.NewQueue(res,
		resolver.WithWorkers(cfg.Resolver.Workers),
		resolver.WithQueueSize(cfg.Resolver.QueueSize),
	)

	// Spool ingestion
	if err := os.MkdirAll(cfg.Ingest.SpoolDir, 0o755); err != nil {
		logger.Error("creating spool dir", "dir", cfg.Ingest.SpoolDir, "error", err)
		os.Exit(1)
	}
	paths, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Ingest.SpoolDir},
		InitialScan: true,
		Debounce:    cfg.Ingest.Debounce,
	})
	if err != nil {
		logger.Error("starting spool watcher", "error", err)
		os.Exit(1)
	}
	ing := ingest.NewIngester(eng, tr, queue, logger)
	go ing.Run(ctx, paths)
	go func() {
		for werr := range watchErrs {
			logger.Warn("spool watcher error", "error", werr)
		}
	}()

	// Automation collaborator
	var agent automation.Agent = automation.NewHTTPNudger(cfg.Automation.NudgeURL, logger)
	sched := automation.NewScheduler(agent, cfg.Automation.Interval, logger)

	// HTTP command surface
	gin.SetMode(gin.ReleaseMode)
	handlers := server.NewHandlers(eng, tr, sched, logger)
	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: server.NewRouter(handlers),
	}
	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}

func openGateway(ctx context.Context, cfg *common.Config, logger *slog.Logger) (snapshot.Gateway, error) {
	switch cfg.Snapshot.Driver {
	case "postgres":
		pg, err := snapshot.OpenPostgres(ctx, cfg.Snapshot, logger)
		if err != nil {
			return nil, err
		}
		if err := pg.HealthCheck(ctx, cfg.Snapshot.DialTimeout); err != nil {
			_ = pg.Close()
			return nil, err
		}
		return pg, nil
	default:
		return snapshot.OpenSQLite(cfg.Snapshot.SQLitePath, logger)
	}
}
