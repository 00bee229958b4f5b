package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLevelRouter(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := slog.New(newLevelRouter(&stdout, &stderr, slog.LevelInfo, "text"))

	logger.Debug("hidden")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := stdout.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug record should be filtered")
	}
	if !strings.Contains(out, "info message") || !strings.Contains(out, "warn message") {
		t.Errorf("expected info and warn on stdout, got %q", out)
	}
	if strings.Contains(out, "error message") {
		t.Error("error record should not go to stdout")
	}
	if !strings.Contains(stderr.String(), "error message") {
		t.Errorf("expected error on stderr, got %q", stderr.String())
	}
}

func TestLevelRouterJSONWithAttrs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := slog.New(newLevelRouter(&stdout, &stderr, slog.LevelDebug, "json")).
		With("component", "test")

	logger.Debug("visible")

	var record map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON record, got %q: %v", stdout.String(), err)
	}
	if record["msg"] != "visible" || record["component"] != "test" {
		t.Errorf("unexpected record: %v", record)
	}
}

func TestSetupLoggerInvalidLevel(t *testing.T) {
	if _, err := setupLogger("", "loud", "text"); err == nil {
		t.Error("expected error for invalid level")
	}
}
