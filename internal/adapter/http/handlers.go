package http

import (
	"net/http"

	"github.com/openagora/agora/internal/domain/card"
	"github.com/openagora/agora/internal/domain/orchestration"
	"github.com/openagora/agora/internal/domain/pipeline"
	"github.com/openagora/agora/internal/domain/task"
	"github.com/openagora/agora/internal/port/messagequeue"
	"github.com/openagora/agora/internal/service"
)

// BreakerReporter exposes circuit breaker state per agent endpoint.
type BreakerReporter interface {
	BreakerStates() map[string]string
}

// Handlers aggregates the services behind the public API.
type Handlers struct {
	Registry     *service.RegistryService
	Pipeline     *service.PipelineService
	Hub          *service.HubService
	Orchestrator *service.OrchestratorService

	queue    messagequeue.Queue
	breakers BreakerReporter
}

// NewHandlers creates the handler set for the API.
func NewHandlers(reg *service.RegistryService, pipe *service.PipelineService, hub *service.HubService, orch *service.OrchestratorService) *Handlers {
	return &Handlers{Registry: reg, Pipeline: pipe, Hub: hub, Orchestrator: orch}
}

// SetQueue attaches the message queue for health reporting.
func (h *Handlers) SetQueue(q messagequeue.Queue) {
	h.queue = q
}

// SetBreakerReporter attaches breaker state for health reporting.
func (h *Handlers) SetBreakerReporter(b BreakerReporter) {
	h.breakers = b
}

// ---------------------------------------------------------------------------
// Wire shapes
// ---------------------------------------------------------------------------

// runResponse is the uniform reply of every run entry point: a final
// state tag plus the transcript, never a silent partial result.
type runResponse struct {
	RunID      string                   `json:"runId"`
	FinalState orchestration.State      `json:"finalState"`
	Transcript orchestration.Transcript `json:"transcript"`
	ResultText string                   `json:"resultText"`
}

func toRunResponse(out orchestration.Outcome) runResponse {
	tr := out.Transcript
	if tr == nil {
		tr = orchestration.Transcript{}
	}
	return runResponse{
		RunID:      out.RunID,
		FinalState: out.State,
		Transcript: tr,
		ResultText: out.Result.Text,
	}
}

type runPipelineRequest struct {
	Agents        []string          `json:"agents"`
	PassMode      pipeline.PassMode `json:"passMode"`
	TaskText      string            `json:"taskText"`
	CorrelationID string            `json:"correlationId"`
}

type runHubRequest struct {
	Stages        []pipeline.Stage  `json:"stages"`
	PassMode      pipeline.PassMode `json:"passMode"`
	TaskText      string            `json:"taskText"`
	CorrelationID string            `json:"correlationId"`
}

type runTemplateRequest struct {
	TaskText      string `json:"taskText"`
	CorrelationID string `json:"correlationId"`
}

type orchestrateRequest struct {
	TaskText      string `json:"taskText"`
	MaxTurns      int    `json:"maxTurns"`
	CorrelationID string `json:"correlationId"`
}

// ---------------------------------------------------------------------------
// Directory
// ---------------------------------------------------------------------------

// RegisterAgent handles POST /register: card intake into the directory.
func (h *Handlers) RegisterAgent(w http.ResponseWriter, r *http.Request) {
	c, ok := readJSON[card.Card](w, r)
	if !ok {
		return
	}

	if err := h.Registry.Register(r.Context(), c); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// ListAgents handles GET /agents. With ?skill=<tag> it answers with
// the zero-or-one card advertising the tag; without it, the full
// roster.
func (h *Handlers) ListAgents(w http.ResponseWriter, r *http.Request) {
	if tag := r.URL.Query().Get("skill"); tag != "" {
		if c, found := h.Registry.FindBySkillTag(tag); found {
			writeJSON(w, http.StatusOK, []card.Card{c})
			return
		}
		writeJSON(w, http.StatusOK, []card.Card{})
		return
	}

	cards := h.Registry.List()
	if cards == nil {
		cards = []card.Card{}
	}
	writeJSON(w, http.StatusOK, cards)
}

// GetAgent handles GET /agents/{name}.
func (h *Handlers) GetAgent(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")
	c, found := h.Registry.FindByName(name)
	if !found {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ---------------------------------------------------------------------------
// Pipelines
// ---------------------------------------------------------------------------

// ListTemplates handles GET /pipeline/templates.
func (h *Handlers) ListTemplates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Pipeline.List())
}

// CreateTemplate handles POST /pipeline/templates.
func (h *Handlers) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, ok := readJSON[pipeline.Template](w, r)
	if !ok {
		return
	}
	tpl.Builtin = false

	if err := h.Pipeline.Register(&tpl); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

// RunPipeline handles POST /pipeline/run: an ad-hoc ordered route over
// named agents, bound before the first call.
func (h *Handlers) RunPipeline(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[runPipelineRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.TaskText, "taskText") {
		return
	}
	if len(req.Agents) == 0 {
		writeError(w, http.StatusBadRequest, "agents is required")
		return
	}
	if req.PassMode == "" {
		req.PassMode = pipeline.PassConcat
	}

	t := task.NewWithCorrelation(req.TaskText, req.CorrelationID)
	out, err := h.Pipeline.Run(r.Context(), req.Agents, req.PassMode, t)
	h.writeRunOutcome(w, out, err)
}

// RunTemplate handles POST /pipeline/templates/{id}/run.
func (h *Handlers) RunTemplate(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[runTemplateRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.TaskText, "taskText") {
		return
	}

	t := task.NewWithCorrelation(req.TaskText, req.CorrelationID)
	out, err := h.Pipeline.RunTemplate(r.Context(), urlParam(r, "id"), t)
	h.writeRunOutcome(w, out, err)
}

// ---------------------------------------------------------------------------
// Hub dispatch
// ---------------------------------------------------------------------------

// RunHub handles POST /hub/run: ordered stages resolved against the
// directory at each hop.
func (h *Handlers) RunHub(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[runHubRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.TaskText, "taskText") {
		return
	}
	if len(req.Stages) == 0 {
		writeError(w, http.StatusBadRequest, "stages is required")
		return
	}
	if req.PassMode == "" {
		req.PassMode = pipeline.PassConcat
	}

	t := task.NewWithCorrelation(req.TaskText, req.CorrelationID)
	out, err := h.Hub.Run(r.Context(), req.Stages, req.PassMode, t)
	h.writeRunOutcome(w, out, err)
}

// ---------------------------------------------------------------------------
// Dynamic orchestration
// ---------------------------------------------------------------------------

// Orchestrate handles POST /orchestrate: the dynamic routing loop.
func (h *Handlers) Orchestrate(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[orchestrateRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.TaskText, "taskText") {
		return
	}
	if req.MaxTurns < 0 {
		writeError(w, http.StatusBadRequest, "maxTurns must not be negative")
		return
	}

	t := task.NewWithCorrelation(req.TaskText, req.CorrelationID)
	out, err := h.Orchestrator.Run(r.Context(), t, req.MaxTurns)
	h.writeRunOutcome(w, out, err)
}

// writeRunOutcome distinguishes runs that never started (input or
// binding errors, reported as request errors) from runs that started
// and reached a terminal state (always 200 with the transcript, even
// when that state is failed).
func (h *Handlers) writeRunOutcome(w http.ResponseWriter, out orchestration.Outcome, err error) {
	if out.RunID == "" {
		if err == nil {
			writeInternalError(w, errNoOutcome)
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(out))
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

type healthResponse struct {
	Status   string            `json:"status"`
	Agents   int               `json:"agents"`
	Queue    string            `json:"queue,omitempty"`
	Breakers map[string]string `json:"breakers,omitempty"`
}

// Health handles GET /healthz.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status: "ok",
		Agents: len(h.Registry.List()),
	}
	if h.queue != nil {
		resp.Queue = "connected"
		if !h.queue.IsConnected() {
			resp.Queue = "disconnected"
		}
	}
	if h.breakers != nil {
		resp.Breakers = h.breakers.BreakerStates()
	}
	writeJSON(w, http.StatusOK, resp)
}
