package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := WithLogger(context.Background(), base)
	ctx = WithFields(ctx, zap.String("tool", "query_gene"))

	L(ctx).Info("called")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["tool"]; got != "query_gene" {
		t.Fatalf("expected tool field, got %v", got)
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if FromContext(context.Background()) != DefaultLogger() {
		t.Fatalf("expected the default logger")
	}
}

func TestNewLevel(t *testing.T) {
	logger, err := New(Options{Env: "production", Level: "warn"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info should be disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Fatalf("warn should be enabled")
	}

	if !IsDevelopment("dev") || IsDevelopment("prod") {
		t.Fatalf("unexpected IsDevelopment result")
	}
}
