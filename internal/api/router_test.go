// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRouterRoutesExist(t *testing.T) {
	f := newTestFixture()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/detections"},
		{http.MethodGet, "/api/v1/sessions"},
		{http.MethodGet, "/api/v1/sensors"},
		{http.MethodGet, "/api/v1/sensors/health"},
		{http.MethodGet, "/api/v1/stats"},
		{http.MethodGet, "/api/v1/insights"},
		{http.MethodGet, "/health"},
		{http.MethodGet, "/health/live"},
		{http.MethodGet, "/health/ready"},
		{http.MethodGet, "/metrics"},
	}

	for _, route := range routes {
		req := httptest.NewRequest(route.method, route.path, nil)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusNotFound || rec.Code == http.StatusMethodNotAllowed {
			t.Errorf("%s %s not routed: %d", route.method, route.path, rec.Code)
		}
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	f := newTestFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRouterMethodNotAllowed(t *testing.T) {
	f := newTestFixture()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/detections", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestRouterSetsRequestIDAndSecurityHeaders(t *testing.T) {
	f := newTestFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sensors", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers on API routes")
	}
}

func TestRouterETagOnReads(t *testing.T) {
	f := newTestFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sensors", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Header().Get("ETag") == "" {
		t.Error("expected ETag on GET responses")
	}
}

func TestMetricsEndpointServesPrometheusText(t *testing.T) {
	f := newTestFixture()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("expected Prometheus runtime metrics in output")
	}
}
