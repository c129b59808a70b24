// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"trace", "trace", LevelTrace},
		{"warn", "warn", slog.LevelWarn},
		{"warning", "warning", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"uppercase TRACE", "TRACE", LevelTrace},
		{"mixed case Debug", "Debug", slog.LevelDebug},
		{"unknown defaults to info", "verbose", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		logAtDebug bool
		logAtInfo  bool
	}{
		{"info filters debug", "info", false, true},
		{"debug passes debug", "debug", true, true},
		{"trace passes debug", "trace", true, true},
		{"error filters info", "error", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			logger.Debug("debug message")
			hasDebug := strings.Contains(buf.String(), "debug message")
			if hasDebug != tt.logAtDebug {
				t.Errorf("debug logged = %v, want %v", hasDebug, tt.logAtDebug)
			}

			buf.Reset()
			logger.Info("info message")
			hasInfo := strings.Contains(buf.String(), "info message")
			if hasInfo != tt.logAtInfo {
				t.Errorf("info logged = %v, want %v", hasInfo, tt.logAtInfo)
			}
		})
	}
}

func TestTraceLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", &buf)
	logger.Log(context.Background(), LevelTrace, "step detail", "step", 12)
	out := buf.String()
	if !strings.Contains(out, "level=TRACE") {
		t.Errorf("trace level not labeled: %q", out)
	}
	if !strings.Contains(out, "step=12") {
		t.Errorf("missing attribute: %q", out)
	}

	buf.Reset()
	NewLogger("debug", &buf).Log(context.Background(), LevelTrace, "hidden")
	if buf.Len() != 0 {
		t.Errorf("trace logged at debug level: %q", buf.String())
	}
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger("trace", &buf)
	logger.Log(context.Background(), LevelTrace, "dispatch", "second", 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v: %q", err, buf.String())
	}
	if rec["level"] != "TRACE" {
		t.Errorf("level = %v, want TRACE", rec["level"])
	}
	if rec["msg"] != "dispatch" {
		t.Errorf("msg = %v, want dispatch", rec["msg"])
	}
	if rec["second"] != float64(3) {
		t.Errorf("second = %v, want 3", rec["second"])
	}
}
