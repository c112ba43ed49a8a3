package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/openagora/agora/internal/adapter/otel"
	"github.com/openagora/agora/internal/adapter/ws"
	"github.com/openagora/agora/internal/domain/orchestration"
	"github.com/openagora/agora/internal/port/broadcast"
	"github.com/openagora/agora/internal/port/messagequeue"
)

// eventSink fans run lifecycle events out to the message queue, the
// WebSocket hub, and telemetry. All targets are optional; a nil target
// is skipped. Embedded by every service that executes runs so they
// share one wiring surface.
type eventSink struct {
	queue   messagequeue.Queue
	hub     broadcast.Broadcaster
	metrics *otel.Metrics
	notify  *NotificationService
}

// SetQueue attaches a message queue for run events.
func (e *eventSink) SetQueue(q messagequeue.Queue) {
	e.queue = q
}

// SetBroadcaster attaches a hub for real-time run events.
func (e *eventSink) SetBroadcaster(hub broadcast.Broadcaster) {
	e.hub = hub
}

// SetMetrics attaches telemetry instruments.
func (e *eventSink) SetMetrics(m *otel.Metrics) {
	e.metrics = m
}

// SetNotifier attaches outbound notifications for terminal run states.
func (e *eventSink) SetNotifier(n *NotificationService) {
	e.notify = n
}

// runStarted announces a new run. Mode is "pipeline", "hub", or
// "dynamic"; template is set only for template-driven runs.
func (e *eventSink) runStarted(ctx context.Context, runID, mode, template, correlationID string, maxTurns int) {
	if e.metrics != nil {
		e.metrics.RunsStarted.Add(ctx, 1)
	}

	e.publish(ctx, messagequeue.SubjectRunStarted, messagequeue.RunStartedPayload{
		RunID:         runID,
		Mode:          mode,
		Template:      template,
		CorrelationID: correlationID,
		MaxTurns:      maxTurns,
	})

	if e.hub != nil {
		e.hub.BroadcastEvent(ctx, ws.EventRunStarted, ws.RunStartedEvent{
			RunID:         runID,
			Mode:          mode,
			Template:      template,
			CorrelationID: correlationID,
		})
	}
}

// runTurn announces one finished turn. invokeDur is the wall time of
// the remote invocation, zero when the turn never reached an agent.
func (e *eventSink) runTurn(ctx context.Context, runID string, rec orchestration.TurnRecord, invokeDur time.Duration) {
	if e.metrics != nil {
		e.metrics.TurnsExecuted.Add(ctx, 1)
		if invokeDur > 0 {
			e.metrics.InvokeDuration.Record(ctx, invokeDur.Seconds())
		}
	}

	e.publish(ctx, messagequeue.SubjectRunTurn, messagequeue.RunTurnPayload{
		RunID:   runID,
		Turn:    rec.Turn,
		Agent:   rec.Agent,
		Summary: rec.Summary,
		Error:   rec.Err,
	})

	if e.hub != nil {
		e.hub.BroadcastEvent(ctx, ws.EventRunTurn, ws.RunTurnEvent{
			RunID:   runID,
			Turn:    rec.Turn,
			Agent:   rec.Agent,
			Summary: rec.Summary,
			Error:   rec.Err,
		})
	}
}

// runCompleted announces a terminal state.
func (e *eventSink) runCompleted(ctx context.Context, runID string, out orchestration.Outcome, runErr error) {
	if e.metrics != nil {
		if out.State == orchestration.StateFailed {
			e.metrics.RunsFailed.Add(ctx, 1)
		} else {
			e.metrics.RunsCompleted.Add(ctx, 1)
		}
	}

	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}

	e.publish(ctx, messagequeue.SubjectRunCompleted, messagequeue.RunCompletedPayload{
		RunID:      runID,
		FinalState: string(out.State),
		Turns:      len(out.Transcript),
		Error:      errText,
	})

	if e.hub != nil {
		e.hub.BroadcastEvent(ctx, ws.EventRunCompleted, ws.RunCompletedEvent{
			RunID:      runID,
			FinalState: string(out.State),
			Turns:      len(out.Transcript),
			Error:      errText,
		})
	}

	if e.notify != nil {
		e.notify.Notify(ctx, outcomeNotification(runID, out, runErr))
	}
}

// publish marshals and sends one payload (best-effort, logs errors).
func (e *eventSink) publish(ctx context.Context, subject string, payload any) {
	if e.queue == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal run event", "subject", subject, "error", err)
		return
	}

	if err := e.queue.Publish(ctx, subject, data); err != nil {
		slog.Error("publish run event", "subject", subject, "error", err)
	}
}
