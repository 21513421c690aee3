// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/footfall/internal/models"
)

// serviceStatus is the body of the /health endpoint.
type serviceStatus struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	Database      string `json:"database"`
}

// HandleHealth reports overall service health.
//
// @Summary Service health
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse "Service and storage healthy"
// @Failure 503 {object} models.APIResponse "Storage unreachable"
// @Router /health [get]
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := serviceStatus{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Database:      "ok",
	}
	code := http.StatusOK

	if err := h.store.Ping(r.Context()); err != nil {
		status.Status = "degraded"
		status.Database = "unreachable"
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, r, code, &models.APIResponse{
		Status:   "success",
		Data:     status,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// HandleLive is the liveness probe. It answers as long as the process is up.
//
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /health/live [get]
func (h *Handler) HandleLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, map[string]string{"status": "alive"}, models.Metadata{})
}

// HandleReady is the readiness probe. Not ready until storage answers.
//
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse "Storage not ready"
// @Router /health/ready [get]
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		respondError(w, r, http.StatusServiceUnavailable, codeStorageError, "Storage is not ready", err)
		return
	}
	respondSuccess(w, r, map[string]string{"status": "ready"}, models.Metadata{})
}
