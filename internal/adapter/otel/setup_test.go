package otel

import (
	"context"
	"testing"

	"github.com/openagora/agora/internal/config"
)

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(config.Telemetry{Enabled: false}, "agora-test", "v0.0.1")
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if shutdown == nil {
		t.Fatal("shutdown function should not be nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}
}

func TestSetupEnabledRequiresEndpoint(t *testing.T) {
	if _, err := Setup(config.Telemetry{Enabled: true}, "agora-test", "v0.0.1"); err == nil {
		t.Fatal("expected error for enabled telemetry without endpoint")
	}
}

func TestNewMetrics(t *testing.T) {
	m, err := NewMetrics()
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	if m.RunsStarted == nil || m.RunsCompleted == nil || m.RunsFailed == nil {
		t.Error("run counters should not be nil")
	}
	if m.TurnsExecuted == nil || m.AgentsRegistered == nil {
		t.Error("turn and registration counters should not be nil")
	}
	if m.InvokeDuration == nil {
		t.Error("invoke duration histogram should not be nil")
	}

	// Instruments from the no-op provider still accept recordings.
	m.RunsStarted.Add(context.Background(), 1)
	m.InvokeDuration.Record(context.Background(), 0.25)
}

func TestSpanHelpers(t *testing.T) {
	ctx := context.Background()

	_, span := StartRunSpan(ctx, "run-1", "orchestrate")
	span.End()

	_, span = StartTurnSpan(ctx, "run-1", 1, "research-agent")
	span.End()

	_, span = StartInvokeSpan(ctx, "research-agent", "http://localhost:9101")
	span.End()
}
