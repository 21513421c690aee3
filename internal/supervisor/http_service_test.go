// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

// mockServer simulates http.Server lifecycle behavior.
type mockServer struct {
	listenErr   error
	shutdownErr error
	closed      chan struct{}
	shutdowns   int
}

func newMockServer() *mockServer {
	return &mockServer{closed: make(chan struct{})}
}

func (m *mockServer) ListenAndServe() error {
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.closed
	return http.ErrServerClosed
}

func (m *mockServer) Shutdown(_ context.Context) error {
	m.shutdowns++
	close(m.closed)
	return m.shutdownErr
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	server := newMockServer()
	svc := NewHTTPService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
	if server.shutdowns != 1 {
		t.Errorf("expected exactly one shutdown call, got %d", server.shutdowns)
	}
}

func TestHTTPServiceStartFailure(t *testing.T) {
	server := newMockServer()
	server.listenErr = errors.New("listen tcp :8080: address already in use")
	svc := NewHTTPService(server, time.Second)

	err := svc.Serve(context.Background())
	if err == nil {
		t.Fatal("expected error from failed listen")
	}
}

func TestHTTPServiceShutdownFailure(t *testing.T) {
	server := newMockServer()
	server.shutdownErr = errors.New("connections still draining")
	svc := NewHTTPService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil || errors.Is(err, context.Canceled) {
			t.Errorf("expected shutdown error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
}

func TestHTTPServiceDefaultsShutdownTimeout(t *testing.T) {
	svc := NewHTTPService(newMockServer(), 0)
	if svc.shutdownTimeout != 10*time.Second {
		t.Errorf("expected 10s default, got %s", svc.shutdownTimeout)
	}
}

func TestHTTPServiceString(t *testing.T) {
	if got := NewHTTPService(newMockServer(), time.Second).String(); got != "http-server" {
		t.Errorf("unexpected name %q", got)
	}
}
