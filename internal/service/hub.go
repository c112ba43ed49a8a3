package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/openagora/agora/internal/domain"
	"github.com/openagora/agora/internal/domain/orchestration"
	"github.com/openagora/agora/internal/domain/pipeline"
	"github.com/openagora/agora/internal/domain/task"
	"github.com/openagora/agora/internal/port/agentlink"
	"github.com/openagora/agora/internal/port/directory"
)

// HubService routes ordered stage sequences with late binding: every
// stage is resolved against the directory immediately before its
// invocation, so a re-registration between hops takes effect on the
// next hop. Ordering, pass modes, and fail-fast semantics match
// FixedPipeline; only the binding time differs.
type HubService struct {
	directory directory.Directory
	dialer    agentlink.Dialer

	eventSink
}

// NewHubService creates a new HubService.
func NewHubService(dir directory.Directory, dialer agentlink.Dialer) *HubService {
	return &HubService{directory: dir, dialer: dialer}
}

// Run executes the stages in order. A stage that resolves to no
// registered agent fails the run at that hop with ErrUnknownAgent;
// earlier hops keep their results in the outcome.
func (s *HubService) Run(ctx context.Context, stages []pipeline.Stage, mode pipeline.PassMode, t task.Task) (orchestration.Outcome, error) {
	if err := validateStages(stages, mode); err != nil {
		return orchestration.Outcome{State: orchestration.StateFailed}, err
	}
	return s.dispatch(ctx, "", stages, mode, t)
}

// runTemplate executes a template through hub dispatch, tagging run
// events with the template ID.
func (s *HubService) runTemplate(ctx context.Context, tpl *pipeline.Template, t task.Task) (orchestration.Outcome, error) {
	return s.dispatch(ctx, tpl.ID, tpl.Stages, tpl.PassMode, t)
}

func (s *HubService) dispatch(ctx context.Context, template string, stages []pipeline.Stage, mode pipeline.PassMode, t task.Task) (orchestration.Outcome, error) {
	runID := uuid.NewString()
	s.runStarted(ctx, runID, "hub", template, t.CorrelationID, 0)

	resolve := func(i int) (string, agentlink.Link, error) {
		return s.resolveStage(stages[i])
	}

	out, err := runSequence(ctx, len(stages), resolve, mode, t, func(rec orchestration.TurnRecord, dur time.Duration) {
		s.runTurn(ctx, runID, rec, dur)
	})
	out.RunID = runID

	s.runCompleted(ctx, runID, out, err)
	if err != nil {
		slog.Warn("run failed", "run_id", runID, "mode", "hub", "turns", len(out.Transcript), "error", err)
	} else {
		slog.Info("run completed", "run_id", runID, "mode", "hub", "state", out.State, "turns", len(out.Transcript))
	}
	return out, err
}

// resolveStage looks the stage's agent up in the directory, by name
// or by skill tag.
func (s *HubService) resolveStage(st pipeline.Stage) (string, agentlink.Link, error) {
	key, bySkill := st.Selector()

	if bySkill {
		c, ok := s.directory.FindBySkillTag(key)
		if !ok {
			return key, nil, fmt.Errorf("no agent with skill %q: %w", key, domain.ErrUnknownAgent)
		}
		return c.Name, s.dialer.Dial(c), nil
	}

	c, ok := s.directory.FindByName(key)
	if !ok {
		return key, nil, fmt.Errorf("no agent named %q: %w", key, domain.ErrUnknownAgent)
	}
	return c.Name, s.dialer.Dial(c), nil
}

// validateStages rejects structurally broken stage lists before any
// directory lookup.
func validateStages(stages []pipeline.Stage, mode pipeline.PassMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", pipeline.ErrInvalidPassMode, mode)
	}
	if len(stages) == 0 {
		return pipeline.ErrNoStages
	}
	for i, st := range stages {
		if (st.Agent == "") == (st.SkillTag == "") {
			return fmt.Errorf("stage %d (%s): %w", i, st.Name, pipeline.ErrStageSelector)
		}
	}
	return nil
}
