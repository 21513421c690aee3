// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

// Package main is the entry point for the Footfall server.
//
// Footfall is a retail foot-traffic analytics backend. Wi-Fi sensors on the
// shop floor post detection batches; the server normalizes them into device
// sightings, tracks visit sessions, keeps a live-presence view, and serves
// aggregated stats, insights, and sensor health over a REST API.
//
// # Startup order
//
//  1. Configuration: koanf v2 layering defaults, YAML file, environment
//  2. Logging: zerolog, configured from the loaded settings
//  3. DuckDB: sighting, session, and sensor storage
//  4. Badger: TTL-based live-presence store
//  5. Domain wiring: ingest processor, session tracker, analytics engine,
//     insight generator, health monitor
//  6. Supervisor tree: background loops and the HTTP server under suture
//
// # Signal handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests, the background loops stop, and both stores close.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/footfall/internal/analytics"
	"github.com/tomtom215/footfall/internal/api"
	"github.com/tomtom215/footfall/internal/config"
	"github.com/tomtom215/footfall/internal/database"
	"github.com/tomtom215/footfall/internal/health"
	"github.com/tomtom215/footfall/internal/ingest"
	"github.com/tomtom215/footfall/internal/insights"
	"github.com/tomtom215/footfall/internal/logging"
	"github.com/tomtom215/footfall/internal/presence"
	"github.com/tomtom215/footfall/internal/session"
	"github.com/tomtom215/footfall/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("addr", cfg.Server.Addr()).
		Dur("session_timeout", cfg.Session.Timeout).
		Msg("Starting Footfall")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	presenceStore, err := presence.Open(&cfg.Presence)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open presence store")
	}
	defer func() {
		if err := presenceStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing presence store")
		}
	}()

	tracker := session.NewTracker(db, cfg.Session.Timeout)
	processor := ingest.NewProcessor(db, tracker, presenceStore, &cfg.Ingest)
	engine := analytics.NewEngine(db, presenceStore)
	generator := insights.NewGenerator()
	monitor := health.NewMonitor(db)

	handler := api.NewHandler(cfg, processor, db, engine, generator, monitor)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(session.NewReaper(db, cfg.Session.Timeout, cfg.Session.ReapInterval, logging.Logger()))
	tree.AddDataService(presence.NewJanitor(presenceStore, cfg.Presence.GCInterval, logging.Logger()))
	tree.AddDataService(health.NewPoller(monitor, cfg.Health.PollInterval, logging.Logger()))
	tree.AddAPIService(supervisor.NewHTTPService(server, 10*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Footfall stopped gracefully")
}
