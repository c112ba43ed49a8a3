package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/openagora/agora/internal/port/broadcast"
	"github.com/openagora/agora/internal/port/messagequeue"
)

// Event type constants for WebSocket messages.
const (
	EventAgentRegistered = "agent.registered"
	EventRunStarted      = "run.started"
	EventRunTurn         = "run.turn"
	EventRunCompleted    = "run.completed"
)

// AgentRegisteredEvent is broadcast when a card enters the directory.
type AgentRegisteredEvent struct {
	Name     string   `json:"name"`
	Endpoint string   `json:"endpoint"`
	Skills   []string `json:"skills"`
	Replaced bool     `json:"replaced"`
}

// RunStartedEvent is broadcast when a pipeline, hub, or dynamic run begins.
type RunStartedEvent struct {
	RunID         string `json:"run_id"`
	Mode          string `json:"mode"`
	Template      string `json:"template,omitempty"`
	CorrelationID string `json:"correlation_id"`
}

// RunTurnEvent is broadcast after each turn of a run.
type RunTurnEvent struct {
	RunID   string `json:"run_id"`
	Turn    int    `json:"turn"`
	Agent   string `json:"agent"`
	Summary string `json:"summary"`
	Error   string `json:"error,omitempty"`
}

// RunCompletedEvent is broadcast when a run reaches a terminal state.
type RunCompletedEvent struct {
	RunID      string `json:"run_id"`
	FinalState string `json:"final_state"`
	Turns      int    `json:"turns"`
	Error      string `json:"error,omitempty"`
}

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}

// subjectEvents maps queue subjects onto WebSocket event types.
var subjectEvents = map[string]string{
	messagequeue.SubjectAgentRegistered: EventAgentRegistered,
	messagequeue.SubjectRunStarted:      EventRunStarted,
	messagequeue.SubjectRunTurn:         EventRunTurn,
	messagequeue.SubjectRunCompleted:    EventRunCompleted,
}

// AttachQueue subscribes the hub to the run and directory subjects and
// rebroadcasts each message to connected clients. The returned stop
// function cancels all subscriptions.
func (h *Hub) AttachQueue(ctx context.Context, q messagequeue.Queue) (func(), error) {
	var stops []func()
	stopAll := func() {
		for _, stop := range stops {
			stop()
		}
	}

	for subject, eventType := range subjectEvents {
		et := eventType
		stop, err := q.Subscribe(ctx, subject, func(msgCtx context.Context, _ string, data []byte) error {
			h.Broadcast(msgCtx, Message{Type: et, Payload: json.RawMessage(data)})
			return nil
		})
		if err != nil {
			stopAll()
			return nil, err
		}
		stops = append(stops, stop)
	}

	return stopAll, nil
}

var _ broadcast.Broadcaster = (*Hub)(nil)
