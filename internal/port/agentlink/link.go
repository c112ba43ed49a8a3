// Package agentlink defines the outbound communication port for
// talking to a single remote agent.
package agentlink

import (
	"context"

	"github.com/openagora/agora/internal/domain/card"
	"github.com/openagora/agora/internal/domain/task"
)

// Link is a handle to one remote agent. A Link performs exactly one
// network attempt per call: no retries, no queuing. Recovery policy
// belongs to callers.
//
// Invoke outcomes map onto the domain error taxonomy:
//   - success: the agent's result
//   - domain.ErrUnreachable: transport-level failure, nothing usable came back
//   - *domain.RemoteError: the agent answered with a structured failure
//   - domain.ErrTimeout: the bounded wait elapsed first
type Link interface {
	// Resolve fetches the agent's self-described card. The returned
	// card reflects what the agent claims right now, which may differ
	// from the directory's snapshot.
	Resolve(ctx context.Context) (card.Card, error)

	// Invoke sends the task and blocks until a result, a failure, or
	// the deadline. The task is passed by value and never mutated.
	Invoke(ctx context.Context, t task.Task) (task.Result, error)
}

// Dialer builds Links from directory cards. Dialing is cheap and does
// not touch the network; the first Resolve or Invoke does.
type Dialer interface {
	Dial(c card.Card) Link
}
