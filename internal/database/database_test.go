// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/footfall/internal/config"
	"github.com/tomtom215/footfall/internal/models"
)

// testDBSemaphore limits concurrent database creation to prevent resource
// exhaustion. Concurrent DuckDB CGO calls can hang under CI resource
// pressure, so database-backed tests are fully serialized.
var testDBSemaphore = make(chan struct{}, 1)

// setupTestDB creates an in-memory test database. The semaphore is held for
// the entire test lifecycle and released via t.Cleanup so only one test has
// an active DuckDB connection at a time.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	cfg := &config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "1GB",
	}

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	return db
}

func timePtr(t time.Time) *time.Time { return &t }

func intPtr(v int) *int { return &v }

// testSighting builds a sighting with sane defaults.
func testSighting(sensorID, deviceKey string, observedAt time.Time) models.DeviceSighting {
	return models.DeviceSighting{
		SensorID:        sensorID,
		LocationName:    "entrance",
		DeviceKey:       deviceKey,
		RSSI:            intPtr(-60),
		DistanceMeters:  2.5,
		FirstSeen:       observedAt.Add(-10 * time.Second),
		LastSeen:        observedAt,
		DurationSeconds: 10,
		DetectionCount:  3,
		ObservedAt:      observedAt,
	}
}

// testSession builds an open session with sane defaults.
func testSession(sensorID, deviceKey string, startedAt time.Time) *models.Session {
	return &models.Session{
		ID:            uuid.New().String(),
		SensorID:      sensorID,
		LocationName:  "entrance",
		DeviceKey:     deviceKey,
		StartedAt:     startedAt,
		LastUpdatedAt: startedAt,
		MinDistance:   2.5,
		MaxDistance:   2.5,
		AvgDistance:   2.5,
		SightingCount: 1,
	}
}

func TestNewAndPing(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestUpsertSensorHeartbeat(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	first := &models.Sensor{
		SensorID:        "esp32-01",
		LocationName:    "entrance",
		FirstSeen:       now,
		LastSeen:        now,
		WifiRSSI:        intPtr(-55),
		DeviceCount:     3,
		TotalDetections: 3,
	}
	if err := db.UpsertSensor(ctx, first); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	// Heartbeat: empty batch, no RSSI, zero detections
	later := now.Add(30 * time.Second)
	heartbeat := &models.Sensor{
		SensorID:     "esp32-01",
		LocationName: "entrance",
		FirstSeen:    later,
		LastSeen:     later,
		DeviceCount:  0,
	}
	if err := db.UpsertSensor(ctx, heartbeat); err != nil {
		t.Fatalf("heartbeat upsert failed: %v", err)
	}

	got, err := db.GetSensor(ctx, "esp32-01")
	if err != nil {
		t.Fatalf("get sensor failed: %v", err)
	}
	if !got.LastSeen.Equal(later) {
		t.Errorf("last_seen = %s, want %s", got.LastSeen, later)
	}
	if got.WifiRSSI == nil || *got.WifiRSSI != -55 {
		t.Errorf("wifi_rssi should survive a heartbeat without RSSI, got %v", got.WifiRSSI)
	}
	if got.TotalDetections != 3 {
		t.Errorf("total_detections = %d, want 3", got.TotalDetections)
	}
	if got.DeviceCount != 0 {
		t.Errorf("device_count should reflect latest batch, got %d", got.DeviceCount)
	}
}

func TestGetSensorNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetSensor(context.Background(), "ghost")
	if err != ErrSensorNotFound {
		t.Errorf("expected ErrSensorNotFound, got %v", err)
	}
}

func TestInsertAndQueryDetections(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	sightings := []models.DeviceSighting{
		testSighting("esp32-01", "AA:BB:CC:DD:EE:01", now),
		testSighting("esp32-01", "AA:BB:CC:DD:EE:02", now.Add(time.Second)),
		testSighting("esp32-02", "AA:BB:CC:DD:EE:01", now.Add(2*time.Second)),
	}
	if err := db.InsertDetections(ctx, sightings); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	t.Run("filter by sensor", func(t *testing.T) {
		got, err := db.QueryDetections(ctx, QueryFilter{SensorID: "esp32-01"})
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 rows, got %d", len(got))
		}
	})

	t.Run("filter by device", func(t *testing.T) {
		got, err := db.QueryDetections(ctx, QueryFilter{DeviceKey: "AA:BB:CC:DD:EE:01"})
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 rows, got %d", len(got))
		}
	})

	t.Run("filter by window", func(t *testing.T) {
		got, err := db.QueryDetections(ctx, QueryFilter{
			StartDate: timePtr(now.Add(time.Second)),
			EndDate:   timePtr(now.Add(2 * time.Second)),
		})
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 rows, got %d", len(got))
		}
	})

	t.Run("newest first", func(t *testing.T) {
		got, err := db.QueryDetections(ctx, QueryFilter{})
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 rows, got %d", len(got))
		}
		if got[0].SensorID != "esp32-02" {
			t.Errorf("expected newest row first, got %s", got[0].SensorID)
		}
	})

	t.Run("rssi preserved", func(t *testing.T) {
		got, err := db.QueryDetections(ctx, QueryFilter{Limit: 1})
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if got[0].RSSI == nil || *got[0].RSSI != -60 {
			t.Errorf("rssi = %v, want -60", got[0].RSSI)
		}
	})
}

func TestQueryDetectionsLimit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	var sightings []models.DeviceSighting
	for i := 0; i < 10; i++ {
		sightings = append(sightings,
			testSighting("esp32-01", "AA:BB:CC:DD:EE:01", now.Add(time.Duration(i)*time.Second)))
	}
	if err := db.InsertDetections(ctx, sightings); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, err := db.QueryDetections(ctx, QueryFilter{Limit: 4})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("expected 4 rows, got %d", len(got))
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero uses default", 0, defaultQueryLimit},
		{"negative uses default", -5, defaultQueryLimit},
		{"within range", 50, 50},
		{"above max clamps", maxQueryLimit + 500, maxQueryLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampLimit(tt.limit, defaultQueryLimit, maxQueryLimit); got != tt.want {
				t.Errorf("clampLimit(%d) = %d, want %d", tt.limit, got, tt.want)
			}
		})
	}
}
