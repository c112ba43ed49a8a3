package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openagora/agora/internal/domain"
	"github.com/openagora/agora/internal/domain/orchestration"
	"github.com/openagora/agora/internal/domain/pipeline"
	"github.com/openagora/agora/internal/domain/task"
	"github.com/openagora/agora/internal/port/agentlink"
	"github.com/openagora/agora/internal/port/directory"
)

// boundHop is one position of a pipeline with its agent already
// resolved and dialed.
type boundHop struct {
	name string
	link agentlink.Link
}

// FixedPipeline is a constant ordered route bound at construction:
// every agent name was resolved against the directory and dialed
// before the first call. Re-registrations after construction do not
// affect it.
type FixedPipeline struct {
	hops []boundHop
	mode pipeline.PassMode
}

// NewFixedPipeline resolves names in order and binds each hop. An
// unknown name fails immediately with ErrUnknownAgent; nothing is
// invoked until Run.
func NewFixedPipeline(names []string, mode pipeline.PassMode, dir directory.Directory, dialer agentlink.Dialer) (*FixedPipeline, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", pipeline.ErrInvalidPassMode, mode)
	}
	if len(names) == 0 {
		return nil, pipeline.ErrNoStages
	}

	hops := make([]boundHop, 0, len(names))
	for i, name := range names {
		c, ok := dir.FindByName(name)
		if !ok {
			return nil, fmt.Errorf("pipeline hop %d (%s): %w", i+1, name, domain.ErrUnknownAgent)
		}
		hops = append(hops, boundHop{name: c.Name, link: dialer.Dial(c)})
	}

	return &FixedPipeline{hops: hops, mode: mode}, nil
}

// Names returns the bound agent names in hop order.
func (p *FixedPipeline) Names() []string {
	out := make([]string, len(p.hops))
	for i, h := range p.hops {
		out[i] = h.name
	}
	return out
}

// Run invokes every hop in order, fail-fast. The outcome carries the
// transcript of completed hops and the last good result even when a
// hop failed mid-route.
func (p *FixedPipeline) Run(ctx context.Context, t task.Task) (orchestration.Outcome, error) {
	return p.run(ctx, t, nil)
}

func (p *FixedPipeline) run(ctx context.Context, t task.Task, onTurn turnFunc) (orchestration.Outcome, error) {
	resolve := func(i int) (string, agentlink.Link, error) {
		return p.hops[i].name, p.hops[i].link, nil
	}
	return runSequence(ctx, len(p.hops), resolve, p.mode, t, onTurn)
}

// turnFunc observes each finished turn of a sequence run. invokeDur
// is zero when no remote call was made.
type turnFunc func(rec orchestration.TurnRecord, invokeDur time.Duration)

// runSequence drives an ordered multi-hop run. resolve is called once
// per hop immediately before that hop's invocation; how early agents
// were bound is the caller's concern. Semantics shared by fixed
// pipelines and hub dispatch:
//
//   - hops run strictly in order, one invocation each, no retries
//   - concat mode passes the original text plus all prior results;
//     substitute mode passes only the previous hop's result
//   - the first failure aborts the run with a HopError naming the
//     1-based hop index and agent; later hops are never invoked
//   - the task's correlation ID rides unchanged through every hop
func runSequence(ctx context.Context, n int, resolve func(i int) (string, agentlink.Link, error), mode pipeline.PassMode, t task.Task, onTurn turnFunc) (orchestration.Outcome, error) {
	var (
		transcript orchestration.Transcript
		lastGood   task.Result
		input      = t.Text
	)

	fail := func(hop int, agent string, cause error, invokeDur time.Duration) (orchestration.Outcome, error) {
		hopErr := &orchestration.HopError{Hop: hop, Agent: agent, Err: cause}
		rec := orchestration.TurnRecord{Turn: hop, Agent: agent, Err: cause.Error()}
		transcript = append(transcript, rec)
		if onTurn != nil {
			onTurn(rec, invokeDur)
		}
		out := orchestration.Outcome{
			State:      orchestration.StateFailed,
			Transcript: transcript,
			Result:     lastGood,
		}
		return out, hopErr
	}

	for i := 0; i < n; i++ {
		hop := i + 1

		// Cancellation is honored between hops, never mid-invocation.
		if err := ctx.Err(); err != nil {
			return fail(hop, "", err, 0)
		}

		name, link, err := resolve(i)
		if err != nil {
			return fail(hop, name, err, 0)
		}

		start := time.Now()
		res, err := link.Invoke(ctx, t.WithText(input))
		invokeDur := time.Since(start)
		if err != nil {
			return fail(hop, name, err, invokeDur)
		}

		rec := orchestration.TurnRecord{
			Turn:    hop,
			Agent:   name,
			Summary: task.Summarize(res.Text),
		}
		transcript = append(transcript, rec)
		if onTurn != nil {
			onTurn(rec, invokeDur)
		}

		lastGood = res
		input = nextInput(mode, input, name, res.Text)
	}

	out := orchestration.Outcome{
		State:      orchestration.StateCompleted,
		Transcript: transcript,
		Result:     lastGood,
	}
	return out, nil
}

// nextInput computes what the following hop receives under the pass
// mode.
func nextInput(mode pipeline.PassMode, accumulated, agent, result string) string {
	if mode == pipeline.PassSubstitute {
		return result
	}
	return accumulated + "\n\n[" + agent + " result]\n" + result
}

// PipelineService manages route templates and runs fixed pipelines.
// Templates with skill-tag stages are delegated to hub dispatch so
// their agents resolve at call time.
type PipelineService struct {
	mu        sync.RWMutex
	templates map[string]pipeline.Template

	directory directory.Directory
	dialer    agentlink.Dialer
	hub       *HubService

	eventSink
}

// NewPipelineService creates a PipelineService pre-loaded with the
// built-in templates.
func NewPipelineService(dir directory.Directory, dialer agentlink.Dialer, hub *HubService) *PipelineService {
	s := &PipelineService{
		templates: make(map[string]pipeline.Template),
		directory: dir,
		dialer:    dialer,
		hub:       hub,
	}
	for _, t := range pipeline.BuiltinTemplates() {
		s.templates[t.ID] = t
	}
	return s
}

// LoadTemplatesDir registers every template found in dir. A missing
// directory is not an error.
func (s *PipelineService) LoadTemplatesDir(dir string) (int, error) {
	if dir == "" {
		return 0, nil
	}

	loaded, err := pipeline.LoadFromDirectory(dir)
	if err != nil {
		return 0, fmt.Errorf("load templates: %w", err)
	}

	for i := range loaded {
		if err := s.Register(&loaded[i]); err != nil {
			return 0, fmt.Errorf("register template %q: %w", loaded[i].ID, err)
		}
	}

	if len(loaded) > 0 {
		slog.Info("pipeline templates loaded", "dir", dir, "count", len(loaded))
	}
	return len(loaded), nil
}

// List returns all registered templates, ordered by ID.
func (s *PipelineService) List() []pipeline.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]pipeline.Template, 0, len(s.templates))
	for _, t := range s.templates {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Get returns a template by ID.
func (s *PipelineService) Get(id string) (*pipeline.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("pipeline template %q: %w", id, domain.ErrNotFound)
	}
	return &t, nil
}

// Register adds a custom template. Built-in templates cannot be
// overwritten.
func (s *PipelineService) Register(t *pipeline.Template) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validate template: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.templates[t.ID]; ok && existing.Builtin {
		return fmt.Errorf("cannot overwrite built-in template %q", t.ID)
	}
	s.templates[t.ID] = *t
	return nil
}

// Run executes an ad-hoc fixed pipeline over the named agents. All
// names bind before the first invocation; an unknown name fails the
// whole run without calling anyone.
func (s *PipelineService) Run(ctx context.Context, names []string, mode pipeline.PassMode, t task.Task) (orchestration.Outcome, error) {
	fp, err := NewFixedPipeline(names, mode, s.directory, s.dialer)
	if err != nil {
		return orchestration.Outcome{State: orchestration.StateFailed}, err
	}

	runID := uuid.NewString()
	s.runStarted(ctx, runID, "pipeline", "", t.CorrelationID, 0)

	out, err := fp.run(ctx, t, func(rec orchestration.TurnRecord, dur time.Duration) {
		s.runTurn(ctx, runID, rec, dur)
	})
	out.RunID = runID

	s.runCompleted(ctx, runID, out, err)
	s.logRun(runID, "pipeline", out, err)
	return out, err
}

// RunTemplate executes a registered template. Templates whose stages
// all name agents bind early like a fixed pipeline; any skill-tag
// stage switches the whole run to hub dispatch.
func (s *PipelineService) RunTemplate(ctx context.Context, id string, t task.Task) (orchestration.Outcome, error) {
	tpl, err := s.Get(id)
	if err != nil {
		return orchestration.Outcome{State: orchestration.StateFailed}, err
	}

	if names, allNamed := stageNames(tpl.Stages); allNamed {
		fp, err := NewFixedPipeline(names, tpl.PassMode, s.directory, s.dialer)
		if err != nil {
			return orchestration.Outcome{State: orchestration.StateFailed}, err
		}

		runID := uuid.NewString()
		s.runStarted(ctx, runID, "pipeline", tpl.ID, t.CorrelationID, 0)

		out, err := fp.run(ctx, t, func(rec orchestration.TurnRecord, dur time.Duration) {
			s.runTurn(ctx, runID, rec, dur)
		})
		out.RunID = runID

		s.runCompleted(ctx, runID, out, err)
		s.logRun(runID, "pipeline", out, err)
		return out, err
	}

	return s.hub.runTemplate(ctx, tpl, t)
}

// logRun emits the terminal log line shared by pipeline runs.
func (s *PipelineService) logRun(runID, mode string, out orchestration.Outcome, err error) {
	if err != nil {
		slog.Warn("run failed", "run_id", runID, "mode", mode, "turns", len(out.Transcript), "error", err)
		return
	}
	slog.Info("run completed", "run_id", runID, "mode", mode, "state", out.State, "turns", len(out.Transcript))
}

// stageNames extracts the agent names when every stage selects by
// name.
func stageNames(stages []pipeline.Stage) ([]string, bool) {
	names := make([]string, 0, len(stages))
	for _, st := range stages {
		if st.Agent == "" {
			return nil, false
		}
		names = append(names, st.Agent)
	}
	return names, true
}
