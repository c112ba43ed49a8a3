package messagequeue

// AgentRegisteredPayload is the schema for agents.registered messages.
type AgentRegisteredPayload struct {
	Name     string   `json:"name"`
	Endpoint string   `json:"endpoint"`
	Skills   []string `json:"skills"`
	Replaced bool     `json:"replaced"`
}

// RunStartedPayload is the schema for runs.started messages.
type RunStartedPayload struct {
	RunID         string `json:"run_id"`
	Mode          string `json:"mode"` // pipeline | hub | dynamic
	Template      string `json:"template,omitempty"`
	CorrelationID string `json:"correlation_id"`
	MaxTurns      int    `json:"max_turns,omitempty"`
}

// RunTurnPayload is the schema for runs.turn messages.
type RunTurnPayload struct {
	RunID   string `json:"run_id"`
	Turn    int    `json:"turn"`
	Agent   string `json:"agent"`
	Summary string `json:"summary"`
	Error   string `json:"error,omitempty"`
}

// RunCompletedPayload is the schema for runs.completed messages.
type RunCompletedPayload struct {
	RunID      string `json:"run_id"`
	FinalState string `json:"final_state"`
	Turns      int    `json:"turns"`
	Error      string `json:"error,omitempty"`
}
