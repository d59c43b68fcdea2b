package services_test

import (
	"context"
	"testing"

	"framewise/internal/services"
)

func TestContextValuesRoundTrip(t *testing.T) {
	ctx := context.Background()

	if _, ok := services.FrameIndexFromContext(ctx); ok {
		t.Fatal("empty context should carry no frame index")
	}

	ctx = services.WithFrameIndex(ctx, 42)
	ctx = services.WithAction(ctx, "process")
	ctx = services.WithRequestID(ctx, "req-1")

	if index, ok := services.FrameIndexFromContext(ctx); !ok || index != 42 {
		t.Fatalf("frame index = %d, %v", index, ok)
	}
	if action, ok := services.ActionFromContext(ctx); !ok || action != "process" {
		t.Fatalf("action = %q, %v", action, ok)
	}
	if id, ok := services.RequestIDFromContext(ctx); !ok || id != "req-1" {
		t.Fatalf("request id = %q, %v", id, ok)
	}
}
