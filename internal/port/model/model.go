// Package model defines the language model completion port shared by
// the planner oracle and prompt-driven workers.
package model

import (
	"context"
	"errors"
	"sync"
)

// Request is a single completion request. Zero values defer to the
// adapter's configured defaults.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int64
	Temperature float64
}

// Model produces one text completion per call. Implementations wrap a
// provider SDK and surface its failures as plain errors; callers
// decide retry policy.
type Model interface {
	// Name identifies the concrete model, e.g. "claude-sonnet-4-5".
	Name() string

	Complete(ctx context.Context, req Request) (string, error)
}

// ErrMockExhausted is returned by Mock when its canned replies run out.
var ErrMockExhausted = errors.New("model: mock exhausted")

// Mock replays canned completions in order. Test double.
type Mock struct {
	mu      sync.Mutex
	replies []string
	reqs    []Request
}

// NewMock returns a Model that answers with replies in order.
func NewMock(replies ...string) *Mock {
	return &Mock{replies: replies}
}

func (m *Mock) Name() string { return "mock" }

// Complete pops the next canned reply.
func (m *Mock) Complete(_ context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqs = append(m.reqs, req)
	if len(m.replies) == 0 {
		return "", ErrMockExhausted
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	return r, nil
}

// Requests returns the requests observed so far, for assertions.
func (m *Mock) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.reqs))
	copy(out, m.reqs)
	return out
}

var _ Model = (*Mock)(nil)
