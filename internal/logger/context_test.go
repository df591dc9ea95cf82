package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := zap.New(core).Sugar().With("request_id", "r-1")

	ctx := WithContext(context.Background(), l)
	FromContext(ctx).Infow("hello")

	if logs.Len() != 1 {
		t.Fatalf("entries = %d, want 1", logs.Len())
	}
	if got := logs.All()[0].ContextMap()["request_id"]; got != "r-1" {
		t.Fatalf("request_id = %v, want r-1", got)
	}

	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext returned nil without an attached logger")
	}
}
