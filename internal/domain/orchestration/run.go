// Package orchestration defines the shared vocabulary of multi-agent
// runs: terminal states, per-turn records, and run outcomes.
package orchestration

import (
	"fmt"

	"github.com/openagora/agora/internal/domain/task"
)

// State is the lifecycle state of an orchestration run.
type State string

const (
	// StateRunning means the loop is still taking turns.
	StateRunning State = "running"
	// StateCompleted means the oracle decided the task is done.
	StateCompleted State = "completed"
	// StateTurnLimit means the configured turn budget ran out before
	// the oracle terminated. Distinct from StateCompleted so callers
	// can tell "finished" from "gave up".
	StateTurnLimit State = "turn_limit_reached"
	// StateFailed means a turn could not be completed: the oracle
	// errored, the chosen agent was unknown, or the invocation failed.
	StateFailed State = "failed"
)

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateTurnLimit || s == StateFailed
}

// TurnRecord documents a single turn of a run. Agent is empty when the
// turn was a terminate decision or an oracle failure; Err is set when
// the turn failed.
type TurnRecord struct {
	Turn    int    `json:"turnNumber"`
	Agent   string `json:"agentInvoked,omitempty"`
	Summary string `json:"resultSummary,omitempty"`
	Err     string `json:"error,omitempty"`
}

// Transcript is the ordered history of turns taken so far.
type Transcript []TurnRecord

// Clone returns an independent copy so decision contexts and outcomes
// never alias the loop's working slice.
func (t Transcript) Clone() Transcript {
	if t == nil {
		return nil
	}
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

// Outcome is what every terminal state returns: the full transcript
// plus the last successfully produced result (zero when no agent
// succeeded before the run ended).
type Outcome struct {
	RunID      string      `json:"runId,omitempty"`
	State      State       `json:"finalState"`
	Transcript Transcript  `json:"transcript"`
	Result     task.Result `json:"result"`
}

// HopError reports a failed hop in an ordered pipeline: which position
// failed and which agent was being invoked. Wraps the underlying cause.
type HopError struct {
	Hop   int
	Agent string
	Err   error
}

// Error implements the error interface.
func (e *HopError) Error() string {
	return fmt.Sprintf("hop %d (%s): %v", e.Hop, e.Agent, e.Err)
}

// Unwrap exposes the cause for errors.Is / errors.As.
func (e *HopError) Unwrap() error {
	return e.Err
}
