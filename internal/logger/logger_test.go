package logger

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Development(t *testing.T) {
	log, err := New(true, "")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	if log == nil {
		t.Fatal("expected non-nil logger")
	}

	// Should not panic
	log.Info("test message")
}

func TestNew_Production(t *testing.T) {
	log, err := New(false, "")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	if log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("production logger should not log debug by default")
	}
}

func TestNew_Level(t *testing.T) {
	log, err := New(false, "debug")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug to be enabled")
	}

	if _, err := New(false, "chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestForRun(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := ForRun(zap.New(core), "run-1", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))

	log.Info("run started")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["run_id"] != "run-1" || fields["as_of"] != "2024-03-15" {
		t.Errorf("unexpected fields %v", fields)
	}
}
