// Package task defines the Task domain entity.
package task

import (
	"strings"

	"github.com/google/uuid"
)

// Task is the unit of work handed to agents. It is passed by value
// through every hop: routers derive new Tasks for follow-on prompts
// and never mutate one they received. The CorrelationID is attached
// when the task enters the system and rides unchanged through all
// resulting agent calls.
type Task struct {
	Text          string `json:"taskText"`
	CorrelationID string `json:"correlationId"`
}

// Result holds the output of a completed agent invocation.
type Result struct {
	Text string `json:"resultText"`
}

// New creates a Task with a fresh correlation ID.
func New(text string) Task {
	return Task{Text: text, CorrelationID: uuid.NewString()}
}

// NewWithCorrelation creates a Task keeping a caller-supplied
// correlation ID, generating one only when it is empty.
func NewWithCorrelation(text, correlationID string) Task {
	if correlationID == "" {
		return New(text)
	}
	return Task{Text: text, CorrelationID: correlationID}
}

// WithText returns a copy of the task carrying new text. The
// correlation ID is preserved so multi-hop flows stay traceable.
func (t Task) WithText(text string) Task {
	t.Text = text
	return t
}

// summaryLimit bounds turn-record summaries to keep transcripts small.
const summaryLimit = 140

// Summarize reduces a result text to a single bounded line for
// transcript records: first line only, at most summaryLimit runes.
func Summarize(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	runes := []rune(s)
	if len(runes) > summaryLimit {
		return string(runes[:summaryLimit]) + "…"
	}
	return s
}
