// Package notifier defines the outbound notification port. Run
// services push run outcomes through it to chat webhooks and similar
// channels; delivery is best-effort and never affects the run itself.
package notifier

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a notifier is missing the
// configuration it needs to deliver (for example an empty webhook URL).
var ErrNotConfigured = errors.New("notifier: not configured")

// Notification is the payload sent through a Notifier.
type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Level   string `json:"level"`            // "info", "success", "warning", "error"
	Source  string `json:"source"`           // e.g. "run.completed", "run.failed"
	RunID   string `json:"run_id,omitempty"` // set for run-scoped notifications
}

// Capabilities declares which features a notifier supports.
type Capabilities struct {
	RichFormatting bool `json:"rich_formatting"`
	Threads        bool `json:"threads"`
}

// Notifier is the port interface for sending notifications.
type Notifier interface {
	// Name returns the unique identifier for this notifier (e.g. "slack").
	Name() string

	// Capabilities returns what this notifier supports.
	Capabilities() Capabilities

	// Send delivers a notification.
	Send(ctx context.Context, notification Notification) error
}
