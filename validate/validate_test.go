package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/growgrid/grid/service"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return path
}

func hasMessage(result ValidationResult, substr string) bool {
	for _, msg := range result.Errors {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func TestValidateConfig_ValidConfig(t *testing.T) {
	path := writeConfig(t, `{
		"name": "Test Config",
		"description": "Test configuration",
		"default": ".",
		"growth_increment": 2,
		"layout": [
			"#..#",
			"#...",
			"...."
		],
		"legend": {".": "empty", "#": "wall"}
	}`)

	result := validateConfig(path)
	if !result.Valid {
		t.Fatalf("Expected valid config, got errors: %v", result.Errors)
	}
	if result.File != "test.json" {
		t.Errorf("Expected file name test.json, got %s", result.File)
	}
	if !hasMessage(result, "Regions: 2") {
		t.Errorf("Expected 2 regions, got %v", result.Errors)
	}
	if !hasMessage(result, "Filled: 3 of 12 cells") {
		t.Errorf("Expected filled count, got %v", result.Errors)
	}
	if !hasMessage(result, "x[0,3] y[0,2] (4x3)") {
		t.Errorf("Expected bounds line, got %v", result.Errors)
	}
	for _, msg := range result.Errors {
		if !strings.HasPrefix(msg, "✓") {
			t.Errorf("Expected only informational messages, got %q", msg)
		}
	}
}

func TestValidateConfig_RangeConfig(t *testing.T) {
	path := writeConfig(t, `{
		"name": "Ranges",
		"description": "range based",
		"default": "0",
		"x_range": [0, 9],
		"y_range": [0, 9],
		"growth_increment": 5,
		"grows_on_read": false,
		"max_cells": 200
	}`)

	result := validateConfig(path)
	if !result.Valid {
		t.Fatalf("Expected valid config, got errors: %v", result.Errors)
	}
	if !hasMessage(result, "Grows on read: false, on write: true") {
		t.Errorf("Expected growth flags, got %v", result.Errors)
	}
	// 200 cells at height 10 allows width 20, two steps of 5
	if !hasMessage(result, "Headroom: 2") {
		t.Errorf("Expected headroom of 2, got %v", result.Errors)
	}
	if hasMessage(result, "Regions") {
		t.Errorf("Expected no region count without a layout")
	}
}

func TestValidateConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{
			name:    "malformed json",
			body:    `{"name": `,
			wantMsg: "Invalid JSON",
		},
		{
			name:    "unknown field",
			body:    `{"name": "x", "description": "d", "default": ".", "growth_increment": 1, "grid_size": 5}`,
			wantMsg: "Invalid JSON",
		},
		{
			name:    "zero increment",
			body:    `{"name": "x", "description": "d", "default": ".", "x_range": [0, 1], "y_range": [0, 1]}`,
			wantMsg: "growth_increment",
		},
		{
			name:    "ragged layout",
			body:    `{"name": "x", "description": "d", "default": ".", "growth_increment": 1, "layout": ["abc", "d"]}`,
			wantMsg: "layout row 2",
		},
		{
			name:    "legend missing layout character",
			body:    `{"name": "x", "description": "d", "default": ".", "growth_increment": 1, "layout": [".#"], "legend": {".": "empty"}}`,
			wantMsg: `Legend has no entry for "#"`,
		},
		{
			name:    "legend missing default",
			body:    `{"name": "x", "description": "d", "default": ".", "growth_increment": 1, "layout": ["#"], "legend": {"#": "wall"}}`,
			wantMsg: `Legend has no entry for "."`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateConfig(writeConfig(t, tt.body))
			if result.Valid {
				t.Fatalf("Expected invalid config")
			}
			if !hasMessage(result, tt.wantMsg) {
				t.Errorf("Expected error containing %q, got %v", tt.wantMsg, result.Errors)
			}
		})
	}
}

func TestValidateConfig_MissingFile(t *testing.T) {
	result := validateConfig(filepath.Join(t.TempDir(), "nope.json"))
	if result.Valid {
		t.Fatal("Expected missing file to be invalid")
	}
	if !hasMessage(result, "Failed to read file") {
		t.Errorf("Expected read error, got %v", result.Errors)
	}
}

func TestValidateLegend_NoLegend(t *testing.T) {
	result := ValidationResult{Valid: true}
	validateLegend(&service.GridConfig{Default: ".", Layout: []string{"abc"}}, &result)
	if !result.Valid || len(result.Errors) != 0 {
		t.Errorf("Expected configs without a legend to pass, got %v", result.Errors)
	}
}

func TestShippedConfigs(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "configs", "*.json"))
	if err != nil {
		t.Fatalf("Failed to list configs: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("Expected shipped configs")
	}
	for _, file := range files {
		result := validateConfig(file)
		if !result.Valid {
			t.Errorf("%s: %v", result.File, result.Errors)
		}
	}
}
