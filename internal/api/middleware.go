// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/footfall/internal/config"
	"github.com/tomtom215/footfall/internal/logging"
	"github.com/tomtom215/footfall/internal/metrics"
	"github.com/tomtom215/footfall/internal/models"
)

// requestIDWithLogging generates a request ID, stores it in the request
// context, echoes it in the X-Request-ID header, and attaches a
// request-scoped logger.
func requestIDWithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		logger := logging.With().Str("request_id", requestID).Logger()
		ctx = logging.ContextWithLogger(ctx, logger)

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// securityHeaders sets baseline security headers on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware builds the CORS handler from configured origins. An empty
// list means same-origin only, so a no-op handler is returned.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "ETag"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

// rateLimiter returns a per-IP rate limit of requests/minute, or a no-op
// middleware when limiting is disabled or the limit is zero.
func rateLimiter(cfg *config.RateLimitConfig, requestsPerMinute int) func(http.Handler) http.Handler {
	if cfg.Disabled || requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, r, http.StatusTooManyRequests, &models.APIResponse{
				Status:   "error",
				Metadata: models.Metadata{Timestamp: time.Now().UTC()},
				Error: &models.APIError{
					Code:    codeRateLimited,
					Message: "Too many requests, slow down",
				},
			})
		}),
	)
}

// statusResponseWriter captures the status code for metrics.
type statusResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// requestMetrics records method, route pattern, status, and duration for
// every request. The chi route pattern is used as the endpoint label so
// cardinality stays bounded.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		endpoint := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		metrics.RecordAPIRequest(r.Method, endpoint, strconv.Itoa(sw.status), time.Since(start))
	})
}

// recoverer is chi's panic recoverer, re-exported here so the router file
// reads as one middleware chain.
var recoverer = chimiddleware.Recoverer
