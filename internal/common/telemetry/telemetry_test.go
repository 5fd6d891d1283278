// File path: internal/common/telemetry/telemetry_test.go
package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestStartSpanCarriesDuration(t *testing.T) {
	ctx, done := StartSpan(context.Background(), "test.operation")
	defer done()

	time.Sleep(5 * time.Millisecond)
	if d := SpanDuration(ctx); d <= 0 {
		t.Fatalf("expected a positive span duration, got %v", d)
	}
}

func TestSpanDurationWithoutSpan(t *testing.T) {
	if d := SpanDuration(context.Background()); d != 0 {
		t.Fatalf("expected zero duration for a bare context, got %v", d)
	}
}
