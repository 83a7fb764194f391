package zap

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/pagesnap"
)

func TestZapLoggerForwardsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := ZapLogger{L: zap.New(core)}

	l.Debug("fetch", pagesnap.Fields{"cursor_id": "abc", "fetched": 3})
	l.Warn("backfill attempts exhausted", nil)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Level != zapcore.DebugLevel || entries[1].Level != zapcore.WarnLevel {
		t.Fatalf("levels = %v, %v", entries[0].Level, entries[1].Level)
	}
	ctx := entries[0].ContextMap()
	if ctx["cursor_id"] != "abc" || ctx["fetched"] != int64(3) {
		t.Fatalf("fields = %v", ctx)
	}
	if len(entries[1].Context) != 0 {
		t.Fatalf("nil fields should produce no context, got %v", entries[1].Context)
	}
}
