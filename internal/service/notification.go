package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openagora/agora/internal/domain/orchestration"
	"github.com/openagora/agora/internal/port/notifier"
)

// NotificationService dispatches notifications to all configured
// notifiers. Delivery is best-effort: a provider failure is logged and
// the remaining providers still receive the notification.
type NotificationService struct {
	notifiers     []notifier.Notifier
	enabledEvents map[string]bool
}

// NewNotificationService creates a NotificationService with the given
// notifiers and list of enabled event sources (e.g. "run.completed",
// "run.failed"). If enabledEvents is nil or empty, all events are
// enabled.
func NewNotificationService(notifiers []notifier.Notifier, enabledEvents []string) *NotificationService {
	enabled := make(map[string]bool, len(enabledEvents))
	for _, e := range enabledEvents {
		enabled[e] = true
	}
	return &NotificationService{
		notifiers:     notifiers,
		enabledEvents: enabled,
	}
}

// Notify sends a notification to all registered notifiers.
func (s *NotificationService) Notify(ctx context.Context, n notifier.Notification) {
	if len(s.enabledEvents) > 0 && !s.enabledEvents[n.Source] {
		return
	}

	for _, provider := range s.notifiers {
		if err := provider.Send(ctx, n); err != nil {
			slog.Warn("notification send failed",
				"provider", provider.Name(),
				"title", n.Title,
				"error", err,
			)
			continue
		}
		slog.Debug("notification sent", "provider", provider.Name(), "title", n.Title)
	}
}

// NotifierCount returns the number of registered notifiers.
func (s *NotificationService) NotifierCount() int {
	return len(s.notifiers)
}

// outcomeNotification renders a terminal run state as a notification.
// Each terminal state maps to its own source so a config can subscribe
// to failures only.
func outcomeNotification(runID string, out orchestration.Outcome, runErr error) notifier.Notification {
	n := notifier.Notification{RunID: runID}

	switch out.State {
	case orchestration.StateCompleted:
		n.Title = "Run completed"
		n.Level = "success"
		n.Source = "run.completed"
	case orchestration.StateTurnLimit:
		n.Title = "Run hit the turn limit"
		n.Level = "warning"
		n.Source = "run.turn_limit"
	default:
		n.Title = "Run failed"
		n.Level = "error"
		n.Source = "run.failed"
	}

	n.Message = fmt.Sprintf("%d turns, final state %s", len(out.Transcript), out.State)
	if runErr != nil {
		n.Message += "\n" + runErr.Error()
	}
	return n
}
