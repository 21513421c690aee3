// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the full route tree.
//
// Middleware order matters: the request ID must exist before anything logs,
// RealIP must resolve before rate limiting keys by IP, and the recoverer
// wraps everything below it.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDWithLogging)
	r.Use(chimiddleware.RealIP)
	r.Use(recoverer)
	r.Use(requestMetrics)
	r.Use(chimiddleware.Compress(5, "application/json"))
	r.Use(corsMiddleware(h.cfg.Server.CORSOrigins))
	r.Use(securityHeaders)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rateLimiter(&h.cfg.RateLimit, h.cfg.RateLimit.Ingest))
			r.Post("/detections", h.HandleIngestDetections)
		})

		r.Group(func(r chi.Router) {
			r.Use(rateLimiter(&h.cfg.RateLimit, h.cfg.RateLimit.Analytics))
			r.Get("/detections", h.HandleListDetections)
			r.Get("/sessions", h.HandleListSessions)
			r.Get("/sensors", h.HandleListSensors)
			r.Get("/sensors/health", h.HandleSensorHealth)
			r.Get("/stats", h.HandleStats)
			r.Get("/insights", h.HandleInsights)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(rateLimiter(&h.cfg.RateLimit, h.cfg.RateLimit.Health))
		r.Get("/health", h.HandleHealth)
		r.Get("/health/live", h.HandleLive)
		r.Get("/health/ready", h.HandleReady)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
