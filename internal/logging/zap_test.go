package logging_test

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/raysh454/sitesearch/internal/logging"
)

func TestZapLogger_WritesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := logging.WrapZap(zap.New(core))

	logger.Info("listed sites", logging.Field{Key: "count", Value: 3})
	logger.Warn("delete failed", logging.Err(errors.New("boom")))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "listed sites" {
		t.Errorf("unexpected message %q", entries[0].Message)
	}
	if got := entries[0].ContextMap()["count"]; got != int64(3) && got != 3 {
		t.Errorf("expected count=3, got %v", got)
	}
	if got := entries[1].ContextMap()["error"]; got != "boom" {
		t.Errorf("expected error=boom, got %v", got)
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Errorf("expected warn level, got %v", entries[1].Level)
	}
}

func TestZapLogger_WithAddsPersistentFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := logging.WrapZap(zap.New(core)).With(logging.Component("server"))

	logger.Info("hello")
	logger.Debug("filtered out")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry (debug filtered), got %d", len(entries))
	}
	if got := entries[0].ContextMap()["component"]; got != "server" {
		t.Errorf("expected component=server, got %v", got)
	}
}

func TestNewZapLogger_Environments(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		l, err := logging.NewZapLogger(logging.Options{Level: "debug", Environment: env, Component: "test"})
		if err != nil {
			t.Fatalf("NewZapLogger(%s): %v", env, err)
		}
		l.Debug("level check")
		_ = l.Sync()
	}
}

func TestErr_NilError(t *testing.T) {
	f := logging.Err(nil)
	if f.Key != "error" || f.Value != nil {
		t.Errorf("unexpected field %+v", f)
	}
}
