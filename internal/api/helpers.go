// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/footfall/internal/logging"
	"github.com/tomtom215/footfall/internal/models"
	"github.com/tomtom215/footfall/internal/validation"
)

// Error codes returned in the APIError envelope.
const (
	codeValidationError = "VALIDATION_ERROR"
	codeQueryError      = "QUERY_ERROR"
	codeRateLimited     = "RATE_LIMIT_EXCEEDED"
	codeStorageError    = "STORAGE_ERROR"
	codeNotFound        = "NOT_FOUND"
	codeInternalError   = "INTERNAL_ERROR"
)

// sanitizeLogValue removes control characters from strings to prevent log
// injection. Newlines and other control bytes could otherwise forge log
// entries.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a success or error envelope with proper headers.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, response *models.APIResponse) {
	response.Metadata.RequestID = logging.RequestIDFromContext(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Vary", "Accept-Encoding")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	// Weak cache validator for the read endpoints. Ingestion responses are
	// never cached because status codes differ per batch.
	if r.Method == http.MethodGet {
		w.Header().Set("Cache-Control", "public, max-age=15")
		w.Header().Set("ETag", generateETag(data))
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// generateETag creates an ETag from the response body using FNV-1a.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return strconv.FormatUint(uint64(hash), 16)
}

// respondSuccess wraps data in the success envelope.
func respondSuccess(w http.ResponseWriter, r *http.Request, data interface{}, meta models.Metadata) {
	meta.Timestamp = time.Now().UTC()
	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: meta,
	})
}

// respondError sends an error envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		logging.Error().
			Str("code", code).
			Str("path", r.URL.Path).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}

	respondJSON(w, r, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondValidationError maps a validation failure to a 400 envelope,
// carrying the per-field details.
func respondValidationError(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	respondJSON(w, r, http.StatusBadRequest, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error: &models.APIError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		},
	})
}

// getIntParam extracts an integer query parameter with a default value.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// getTimeParam parses an optional RFC 3339 query parameter. A present but
// malformed value is an error; an absent value returns nil.
func getTimeParam(r *http.Request, key string) (*time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: must be RFC 3339, got %q", key, value)
	}
	return &t, nil
}
