package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkarag/riskfolio/internal/clients/marketdata"
	"github.com/mkarag/riskfolio/internal/config"
	"github.com/mkarag/riskfolio/internal/modules/allocation"
	"github.com/mkarag/riskfolio/internal/modules/history"
	"github.com/mkarag/riskfolio/internal/modules/history/jobs"
	"github.com/mkarag/riskfolio/internal/modules/risk"
	"github.com/mkarag/riskfolio/internal/scheduler"
	"github.com/mkarag/riskfolio/internal/server"
	"github.com/mkarag/riskfolio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info"})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting riskfolio")

	// Warm store for fetched price series.
	store, err := history.OpenStore(cfg.CacheStorePath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open price store")
	}
	defer store.Close()

	client := marketdata.NewClient(cfg.MarketDataURL, cfg.FetchTimeout, log)
	provider := history.NewProvider(client, store, cfg.CacheMaxEntries, log)

	riskSvc := risk.NewService(provider, cfg.HistoryDays, cfg.MonteCarloPaths, cfg.RiskFreeRate, log)
	allocSvc := allocation.NewService(provider, allocation.Params{
		HistoryDays:        cfg.HistoryDays,
		RiskFreeRate:       cfg.RiskFreeRate,
		TransactionCost:    cfg.TransactionCost,
		MaxAssetWeight:     cfg.MaxAssetWeight,
		AssumedCorrelation: cfg.AssumedCorrelation,
		MaxViewAdjustment:  cfg.MaxViewAdjustment,
	}, log)

	sched := scheduler.New(log)
	refreshJob := jobs.NewRefreshJob(provider, cfg.FetchTimeout, log)
	if err := sched.AddJob(cfg.RefreshSchedule, refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register refresh job")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Port:              cfg.Port,
		DevMode:           cfg.DevMode,
		Log:               log,
		HistoryHandler:    history.NewHandler(provider, log),
		RiskHandler:       risk.NewHandler(riskSvc, log),
		AllocationHandler: allocation.NewHandler(allocSvc, log),
		Provider:          provider,
		Scheduler:         sched,
		RefreshJobName:    refreshJob.Name(),
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
