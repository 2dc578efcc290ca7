// Package main is the entry point for the batch analytics engine.
// It loads configuration, wires every database/service/handler via the
// internal/di composition root, starts the admin HTTP server and the
// background scheduler/worker pool, and waits for a shutdown signal.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/sentinel/internal/config"
	"github.com/aristath/sentinel/internal/di"
	"github.com/aristath/sentinel/pkg/logger"
)

func main() {
	var dataDirFlag string
	flag.StringVar(&dataDirFlag, "data-dir", "", "database directory path (overrides TRADER_DATA_DIR/DATA_DIR)")
	flag.Parse()

	cfg, err := config.Load(dataDirFlag)
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	log.Info().Msg("starting sentinel batch engine")

	adminAuth := di.StaticAdmin(os.Getenv("ADMIN_TOKEN"))

	container, err := di.Wire(cfg, log, adminAuth)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire dependencies")
	}
	defer container.Close()

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: container.Server.Router(),
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("admin server started")

	container.Workers.Start()
	log.Info().Msg("worker pool started")

	container.Sched.Start()
	log.Info().Msg("scheduler started (16:00 daily batch, 18:00 correlations, 19:00 company profiles, Sun 02:00 weekly backfill, all ET)")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	container.Sched.Stop()
	log.Info().Msg("scheduler stopped")

	container.Workers.Stop()
	log.Info().Msg("worker pool stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("sentinel batch engine stopped")
}
