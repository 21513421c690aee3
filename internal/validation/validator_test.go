// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package validation

import (
	"strings"
	"testing"
)

type testBatch struct {
	SensorID   string          `validate:"required,max=64"`
	Detections []testDetection `validate:"dive"`
}

type testDetection struct {
	MACAddress     string  `validate:"required,mac"`
	Distance       float64 `validate:"gte=0"`
	DetectionCount int     `validate:"gte=1"`
}

func TestValidateStructPasses(t *testing.T) {
	batch := testBatch{
		SensorID: "esp32-entrance",
		Detections: []testDetection{
			{MACAddress: "AA:BB:CC:DD:EE:FF", Distance: 1.5, DetectionCount: 3},
		},
	}
	if err := ValidateStruct(&batch); err != nil {
		t.Fatalf("expected valid batch, got %v", err)
	}
}

func TestValidateStructMissingRequired(t *testing.T) {
	err := ValidateStruct(&testBatch{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "SensorID is required") {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestValidateStructBadMAC(t *testing.T) {
	batch := testBatch{
		SensorID: "esp32-entrance",
		Detections: []testDetection{
			{MACAddress: "not-a-mac", Distance: 1.0, DetectionCount: 1},
		},
	}
	err := ValidateStruct(&batch)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "valid MAC address") {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestValidateStructNegativeDistance(t *testing.T) {
	batch := testBatch{
		SensorID: "esp32-entrance",
		Detections: []testDetection{
			{MACAddress: "AA:BB:CC:DD:EE:FF", Distance: -0.5, DetectionCount: 1},
		},
	}
	err := ValidateStruct(&batch)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "greater than or equal to 0") {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestToAPIErrorSingle(t *testing.T) {
	err := ValidateStruct(&testBatch{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q", apiErr.Code)
	}
	if apiErr.Details["field"] != "SensorID" {
		t.Errorf("details = %v", apiErr.Details)
	}
}

func TestToAPIErrorMultiple(t *testing.T) {
	batch := testBatch{
		Detections: []testDetection{
			{MACAddress: "bogus", Distance: -1, DetectionCount: 0},
		},
	}
	err := ValidateStruct(&batch)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Errors()) < 2 {
		t.Fatalf("expected multiple errors, got %d", len(err.Errors()))
	}
	apiErr := err.ToAPIError()
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Errorf("expected fields detail, got %v", apiErr.Details)
	}
}

func TestGetValidatorSingleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("expected the same validator instance")
	}
}
