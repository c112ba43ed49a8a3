package a2a

// WellKnownCardPath is where an agent publishes its self-description.
// Resolvers fetch this path relative to the card's endpoint.
const WellKnownCardPath = "/.well-known/agent-card.json"

// InvokeRequest is the wire form of a task delivered to an agent.
type InvokeRequest struct {
	TaskText      string `json:"taskText"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// InvokeResponse is the wire form of a successful invocation.
type InvokeResponse struct {
	ResultText string `json:"resultText"`
}

// ErrorBody is the structured failure an agent returns alongside a
// non-2xx status. Callers surface it verbatim as a remote error.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes an agent host emits.
const (
	CodeInvalidRequest = "invalid_request"
	CodeWorkerError    = "worker_error"
)
