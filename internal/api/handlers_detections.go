// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/footfall/internal/database"
	"github.com/tomtom215/footfall/internal/ingest"
	"github.com/tomtom215/footfall/internal/models"
	"github.com/tomtom215/footfall/internal/validation"
)

// maxRequestBodyBytes caps the ingestion request body at 4 MiB. A batch at
// the configured detection cap fits well under this.
const maxRequestBodyBytes = 4 << 20

// ingestResponse is the body returned for an accepted batch.
type ingestResponse struct {
	SensorID string `json:"sensorId"`
	Accepted int    `json:"accepted"`
}

// HandleIngestDetections accepts a detection batch from a sensor
//
// @Summary Ingest a detection batch
// @Description Accepts one sensor report: zero or more device detections plus sensor metadata. An empty detections array is a heartbeat. Any invalid detection rejects the whole batch.
// @Tags Ingest
// @Accept json
// @Produce json
// @Param batch body models.DetectionBatch true "Detection batch"
// @Success 202 {object} models.APIResponse "Batch accepted"
// @Failure 400 {object} models.APIResponse "Validation failed, whole batch rejected"
// @Failure 429 {object} models.APIResponse "Sensor rate limit exceeded"
// @Failure 503 {object} models.APIResponse "Storage unavailable after retries"
// @Router /api/v1/detections [post]
func (h *Handler) HandleIngestDetections(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	var batch models.DetectionBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidationError, "Request body is not a valid detection batch", err)
		return
	}

	accepted, err := h.ingestor.ProcessBatch(r.Context(), &batch)
	if err != nil {
		h.respondIngestError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusAccepted, &models.APIResponse{
		Status:   "success",
		Data:     ingestResponse{SensorID: batch.SensorID, Accepted: accepted},
		Metadata: models.Metadata{Timestamp: time.Now().UTC(), Count: accepted},
	})
}

// respondIngestError maps ingestion failures to status codes. Validation
// failures reject the whole batch with 400; rate limiting is 429; storage
// failures after retry exhaustion and open breakers are 503.
func (h *Handler) respondIngestError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		respondValidationError(w, r, verr)
	case errors.Is(err, ingest.ErrInvalidBatch):
		respondError(w, r, http.StatusBadRequest, codeValidationError, err.Error(), nil)
	case errors.Is(err, ingest.ErrRateLimited):
		respondError(w, r, http.StatusTooManyRequests, codeRateLimited, "Sensor is sending batches too fast", err)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		respondError(w, r, http.StatusServiceUnavailable, codeStorageError, "Storage is temporarily unavailable", err)
	default:
		respondError(w, r, http.StatusServiceUnavailable, codeStorageError, "Failed to store detection batch", err)
	}
}

// HandleListDetections returns stored sightings, newest first. Device keys
// are masked for display.
//
// @Summary Query device sightings
// @Tags Query
// @Produce json
// @Param sensorId query string false "Filter by sensor ID"
// @Param location query string false "Filter by location name"
// @Param deviceKey query string false "Filter by device MAC (any accepted form)"
// @Param start query string false "Lower time bound (RFC3339)"
// @Param end query string false "Upper time bound (RFC3339)"
// @Param limit query int false "Row cap, clamped to the configured maximum"
// @Success 200 {object} models.APIResponse{data=[]models.DeviceSighting}
// @Failure 400 {object} models.APIResponse "Malformed query parameter"
// @Router /api/v1/detections [get]
func (h *Handler) HandleListDetections(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseQueryFilter(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeQueryError, err.Error(), nil)
		return
	}

	start := time.Now()
	sightings, err := h.store.QueryDetections(r.Context(), filter)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeStorageError, "Failed to query detections", err)
		return
	}

	for i := range sightings {
		sightings[i].DeviceKey = models.MaskDeviceKey(sightings[i].DeviceKey)
	}

	respondSuccess(w, r, sightings, models.Metadata{
		Count:       len(sightings),
		QueryTimeMS: time.Since(start).Milliseconds(),
	})
}

// parseQueryFilter builds the storage filter from query parameters shared by
// the detections and sessions endpoints. A supplied deviceKey is normalized
// so dash-separated and lowercase forms match stored rows.
func (h *Handler) parseQueryFilter(r *http.Request) (database.QueryFilter, error) {
	startDate, err := getTimeParam(r, "start")
	if err != nil {
		return database.QueryFilter{}, err
	}
	endDate, err := getTimeParam(r, "end")
	if err != nil {
		return database.QueryFilter{}, err
	}

	filter := database.QueryFilter{
		SensorID:     r.URL.Query().Get("sensorId"),
		LocationName: r.URL.Query().Get("location"),
		StartDate:    startDate,
		EndDate:      endDate,
		Limit:        h.clampQueryLimit(getIntParam(r, "limit", 0)),
	}
	if key := r.URL.Query().Get("deviceKey"); key != "" {
		filter.DeviceKey = models.NormalizeDeviceKey(key)
	}
	return filter, nil
}
