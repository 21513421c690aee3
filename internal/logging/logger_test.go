// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"disabled", zerolog.Disabled},
		{"ERROR", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInitWritesStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("sensor", "esp32-01").Msg("batch accepted")

	out := buf.String()
	if !strings.Contains(out, `"sensor":"esp32-01"`) {
		t.Errorf("expected structured field in output, got %q", out)
	}
	if !strings.Contains(out, `"message":"batch accepted"`) {
		t.Errorf("expected message field in output, got %q", out)
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	original := Logger()
	defer SetLogger(original)

	SetLogger(NewTestLogger(&buf))
	Info().Msg("replaced")

	if !strings.Contains(buf.String(), "replaced") {
		t.Errorf("expected replaced logger to capture output, got %q", buf.String())
	}
}

func TestCtxCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	original := Logger()
	defer SetLogger(original)
	SetLogger(NewTestLogger(&buf))

	ctx := ContextWithRequestID(context.Background(), "req-123")
	logger := Ctx(ctx)
	logger.Info().Msg("handled")

	if !strings.Contains(buf.String(), `"request_id":"req-123"`) {
		t.Errorf("expected request_id in output, got %q", buf.String())
	}
}

func TestCtxWithoutRequestID(t *testing.T) {
	var buf bytes.Buffer
	original := Logger()
	defer SetLogger(original)
	SetLogger(NewTestLogger(&buf))

	logger := Ctx(context.Background())
	logger.Info().Msg("plain")

	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("expected no request_id field, got %q", buf.String())
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	a := GenerateRequestID()
	b := GenerateRequestID()
	if a == b {
		t.Error("expected unique request IDs")
	}
	if len(a) != 36 {
		t.Errorf("expected UUID format, got %q", a)
	}
}
