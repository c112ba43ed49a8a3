// Package oracle defines the routing decision port for dynamic
// orchestration.
package oracle

import (
	"context"
	"sync"

	"github.com/openagora/agora/internal/domain"
	"github.com/openagora/agora/internal/domain/card"
	"github.com/openagora/agora/internal/domain/orchestration"
	"github.com/openagora/agora/internal/domain/task"
)

// Context is everything an oracle may consider for one routing turn:
// the original task, the current roster, and the transcript so far.
// All fields are snapshots; the oracle cannot mutate loop state.
type Context struct {
	Task       task.Task
	Roster     []card.Card
	Transcript orchestration.Transcript
}

// Decision is a single routing verdict. Exactly one of Agent or
// Terminate is meaningful: a named agent to invoke next, or the signal
// that the task is complete.
type Decision struct {
	Agent     string
	Terminate bool
}

// Oracle chooses the next step of an orchestration run. A decision
// that names an agent absent from the roster is not the oracle's
// problem to detect; the loop validates names against the directory.
type Oracle interface {
	Decide(ctx context.Context, oc Context) (Decision, error)
}

// Scripted replays a fixed sequence of decisions. It is the test
// double for deterministic loop behavior; exhausting the script is an
// oracle failure.
type Scripted struct {
	mu    sync.Mutex
	steps []Decision
	calls []Context
}

// NewScripted returns an oracle that answers with steps in order.
func NewScripted(steps ...Decision) *Scripted {
	return &Scripted{steps: steps}
}

// Decide pops the next scripted decision.
func (s *Scripted) Decide(_ context.Context, oc Context) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, oc)
	if len(s.steps) == 0 {
		return Decision{}, domain.ErrOracle
	}
	d := s.steps[0]
	s.steps = s.steps[1:]
	return d, nil
}

// Calls returns the contexts observed so far, for assertions.
func (s *Scripted) Calls() []Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Context, len(s.calls))
	copy(out, s.calls)
	return out
}

var _ Oracle = (*Scripted)(nil)
