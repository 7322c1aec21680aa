package services_test

import (
	"context"
	"testing"

	"cardwatch/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithEventID(ctx, 42)
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.EventIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected event id: %v %v", id, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestRequestIDBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRequestID(ctx, "")
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id value")
	}
}
