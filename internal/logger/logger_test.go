package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerWritesObjectField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := New(zap.New(core))

	log.DebugObj("request done", "notion_request", map[string]any{"status": 200})
	log.WarnObj("request rejected", "notion_error", "boom")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "request done" || entries[0].Level != zapcore.DebugLevel {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if _, ok := entries[0].ContextMap()["notion_request"]; !ok {
		t.Fatalf("missing notion_request field: %v", entries[0].ContextMap())
	}
	if entries[1].ContextMap()["notion_error"] != "boom" {
		t.Fatalf("unexpected warn fields %v", entries[1].ContextMap())
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARNING": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewNilReturnsNop(t *testing.T) {
	if _, ok := New(nil).(NopLogger); !ok {
		t.Fatalf("expected NopLogger for nil zap logger")
	}
}
