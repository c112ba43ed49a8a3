package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "agora"

// Metrics holds the control plane metric instruments.
type Metrics struct {
	RunsStarted      metric.Int64Counter
	RunsCompleted    metric.Int64Counter
	RunsFailed       metric.Int64Counter
	TurnsExecuted    metric.Int64Counter
	AgentsRegistered metric.Int64Counter
	InvokeDuration   metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.RunsStarted, err = meter.Int64Counter("agora.runs.started",
		metric.WithDescription("Number of runs started"))
	if err != nil {
		return nil, err
	}

	m.RunsCompleted, err = meter.Int64Counter("agora.runs.completed",
		metric.WithDescription("Number of runs that reached a terminal state without failure"))
	if err != nil {
		return nil, err
	}

	m.RunsFailed, err = meter.Int64Counter("agora.runs.failed",
		metric.WithDescription("Number of runs that ended in failure"))
	if err != nil {
		return nil, err
	}

	m.TurnsExecuted, err = meter.Int64Counter("agora.turns",
		metric.WithDescription("Number of agent turns executed"))
	if err != nil {
		return nil, err
	}

	m.AgentsRegistered, err = meter.Int64Counter("agora.agents.registered",
		metric.WithDescription("Number of agent card registrations"))
	if err != nil {
		return nil, err
	}

	m.InvokeDuration, err = meter.Float64Histogram("agora.invoke.duration_seconds",
		metric.WithDescription("Duration of remote agent invocations in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
