// Package domain provides shared domain-level sentinel errors.
package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates the input failed domain validation.
var ErrValidation = errors.New("validation failed")

// ErrInvalidCard indicates an agent card is missing required fields.
var ErrInvalidCard = errors.New("invalid agent card")

// ErrUnknownAgent indicates a routing decision named an agent the
// directory does not know.
var ErrUnknownAgent = errors.New("unknown agent")

// ErrUnreachable indicates the agent endpoint could not be reached
// at the transport level.
var ErrUnreachable = errors.New("agent unreachable")

// ErrTimeout indicates a remote call exceeded its deadline.
var ErrTimeout = errors.New("agent call timed out")

// ErrOracle indicates the decision oracle failed or produced output
// that could not be interpreted.
var ErrOracle = errors.New("oracle decision failed")

// RemoteError is an error reported by the remote agent itself: the
// call reached the agent, and the agent answered with a structured
// failure instead of a result.
type RemoteError struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error %s: %s", e.Code, e.Message)
}

// AsRemote unwraps err into a *RemoteError if one is in the chain.
func AsRemote(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
