// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package api

import (
	"context"
	"time"

	"github.com/tomtom215/footfall/internal/config"
	"github.com/tomtom215/footfall/internal/database"
	"github.com/tomtom215/footfall/internal/models"
)

// BatchIngestor accepts detection batches. Implemented by ingest.Processor.
type BatchIngestor interface {
	ProcessBatch(ctx context.Context, batch *models.DetectionBatch) (int, error)
}

// QueryStore serves the read endpoints. Implemented by database.DB.
type QueryStore interface {
	QueryDetections(ctx context.Context, filter database.QueryFilter) ([]models.DeviceSighting, error)
	QuerySessions(ctx context.Context, filter database.QueryFilter) ([]models.Session, error)
	ListSensors(ctx context.Context) ([]models.Sensor, error)
	Ping(ctx context.Context) error
}

// StatsProvider computes aggregated stats. Implemented by analytics.Engine.
type StatsProvider interface {
	Stats(ctx context.Context, period models.DateRange, filter models.StatsFilter, start, end *time.Time) (*models.AggregatedStats, error)
}

// InsightSource derives insights from a stats snapshot. Implemented by
// insights.Generator.
type InsightSource interface {
	Generate(stats *models.AggregatedStats) []models.Insight
}

// HealthReporter snapshots per-sensor health. Implemented by health.Monitor.
type HealthReporter interface {
	SnapshotAll(ctx context.Context, now time.Time) ([]models.SensorHealth, error)
}

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	cfg      *config.Config
	ingestor BatchIngestor
	store    QueryStore
	stats    StatsProvider
	insights InsightSource
	health   HealthReporter

	startedAt time.Time
}

// NewHandler creates the handler set.
func NewHandler(cfg *config.Config, ingestor BatchIngestor, store QueryStore, stats StatsProvider, insights InsightSource, health HealthReporter) *Handler {
	return &Handler{
		cfg:       cfg,
		ingestor:  ingestor,
		store:     store,
		stats:     stats,
		insights:  insights,
		health:    health,
		startedAt: time.Now(),
	}
}

// clampQueryLimit applies the configured default and maximum row caps to a
// user-supplied limit before it reaches storage.
func (h *Handler) clampQueryLimit(limit int) int {
	if limit <= 0 {
		return h.cfg.API.DefaultQueryLimit
	}
	if limit > h.cfg.API.MaxQueryLimit {
		return h.cfg.API.MaxQueryLimit
	}
	return limit
}
