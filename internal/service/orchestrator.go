package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/openagora/agora/internal/adapter/otel"
	"github.com/openagora/agora/internal/config"
	"github.com/openagora/agora/internal/domain"
	"github.com/openagora/agora/internal/domain/orchestration"
	"github.com/openagora/agora/internal/domain/pipeline"
	"github.com/openagora/agora/internal/domain/task"
	"github.com/openagora/agora/internal/port/agentlink"
	"github.com/openagora/agora/internal/port/directory"
	"github.com/openagora/agora/internal/port/oracle"
)

const defaultOracleTimeout = 30 * time.Second

// OrchestratorService runs the dynamic routing loop: each turn asks
// the oracle which agent moves the task forward, invokes exactly that
// one agent, and feeds the result back into the task text for the
// next decision. The route is not known in advance; it emerges one
// decision at a time until the oracle terminates, the turn budget
// runs out, or a turn fails.
type OrchestratorService struct {
	directory     directory.Directory
	dialer        agentlink.Dialer
	oracle        oracle.Oracle
	cfg           config.Orchestrator
	oracleTimeout time.Duration

	eventSink
}

// NewOrchestratorService creates a new OrchestratorService. Every
// oracle decision runs under oracleTimeout; a non-positive value
// falls back to the default so decisions are always bounded.
func NewOrchestratorService(dir directory.Directory, dialer agentlink.Dialer, orc oracle.Oracle, cfg config.Orchestrator, oracleTimeout time.Duration) *OrchestratorService {
	if oracleTimeout <= 0 {
		oracleTimeout = defaultOracleTimeout
	}
	return &OrchestratorService{
		directory:     dir,
		dialer:        dialer,
		oracle:        orc,
		cfg:           cfg,
		oracleTimeout: oracleTimeout,
	}
}

// Run drives the loop until a terminal state. maxTurns bounds how
// many agent invocations the run may make; a non-positive value uses
// the configured default. Every terminal state returns the transcript
// and the last good result; the returned error is non-nil only for
// StateFailed and carries the cause.
//
// One agent per turn, no retries at this layer. A terminate decision
// ends the run without appending a record; every other turn, including
// failed ones, appends exactly one.
func (s *OrchestratorService) Run(ctx context.Context, t task.Task, maxTurns int) (orchestration.Outcome, error) {
	if maxTurns <= 0 {
		maxTurns = s.cfg.MaxTurns
	}

	runID := uuid.NewString()
	ctx, span := otel.StartRunSpan(ctx, runID, "dynamic")
	defer span.End()

	s.runStarted(ctx, runID, "dynamic", "", t.CorrelationID, maxTurns)
	slog.Info("orchestration started",
		"run_id", runID,
		"correlation_id", t.CorrelationID,
		"max_turns", maxTurns)

	var (
		transcript orchestration.Transcript
		lastGood   task.Result
		current    = t
		state      = orchestration.StateRunning
		runErr     error
	)

	for turn := 1; turn <= maxTurns; turn++ {
		// Cancellation is honored between turns, never mid-turn: an
		// in-flight invocation always runs to its own deadline.
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("run cancelled: %w", err)
			rec := orchestration.TurnRecord{Turn: turn, Err: runErr.Error()}
			transcript = append(transcript, rec)
			s.eventSink.runTurn(ctx, runID, rec, 0)
			state = orchestration.StateFailed
			break
		}

		tr := s.takeTurn(ctx, runID, turn, current, transcript)
		if tr.hasRec {
			transcript = append(transcript, tr.rec)
			s.eventSink.runTurn(ctx, runID, tr.rec, tr.invokeDur)
		}

		if tr.terminate {
			state = orchestration.StateCompleted
			break
		}
		if tr.err != nil {
			state = orchestration.StateFailed
			runErr = tr.err
			break
		}

		lastGood = tr.res
		// Accumulate: the next decision and invocation see the
		// original task plus every result so far, not just the last.
		current = current.WithText(nextInput(pipeline.PassConcat, current.Text, tr.rec.Agent, tr.res.Text))
	}

	if state == orchestration.StateRunning {
		state = orchestration.StateTurnLimit
	}

	out := orchestration.Outcome{
		RunID:      runID,
		State:      state,
		Transcript: transcript,
		Result:     lastGood,
	}

	s.runCompleted(ctx, runID, out, runErr)
	if runErr != nil {
		slog.Warn("run failed", "run_id", runID, "mode", "dynamic", "turns", len(transcript), "error", runErr)
	} else {
		slog.Info("run completed", "run_id", runID, "mode", "dynamic", "state", state, "turns", len(transcript))
	}
	return out, runErr
}

// turnResult is everything one loop turn produced.
type turnResult struct {
	terminate bool
	hasRec    bool
	rec       orchestration.TurnRecord
	res       task.Result
	err       error
	invokeDur time.Duration
}

// takeTurn executes one turn: decide, resolve, invoke. It never
// mutates loop state; the caller owns the transcript and the task.
func (s *OrchestratorService) takeTurn(ctx context.Context, runID string, turn int, current task.Task, transcript orchestration.Transcript) turnResult {
	decision, err := s.decide(ctx, current, transcript)
	if err != nil {
		return turnResult{
			hasRec: true,
			rec:    orchestration.TurnRecord{Turn: turn, Err: err.Error()},
			err:    err,
		}
	}

	if decision.Terminate {
		slog.Info("oracle terminated run", "run_id", runID, "turn", turn)
		return turnResult{terminate: true}
	}

	if decision.Agent == "" {
		err := fmt.Errorf("oracle decision named no agent: %w", domain.ErrOracle)
		return turnResult{
			hasRec: true,
			rec:    orchestration.TurnRecord{Turn: turn, Err: err.Error()},
			err:    err,
		}
	}

	ctx, span := otel.StartTurnSpan(ctx, runID, turn, decision.Agent)
	defer span.End()

	c, ok := s.directory.FindByName(decision.Agent)
	if !ok {
		// The oracle may answer with a capability rather than a
		// registered name; fall back to skill-tag lookup before
		// declaring the agent unknown.
		c, ok = s.directory.FindBySkillTag(decision.Agent)
	}
	if !ok {
		err := fmt.Errorf("agent %q: %w", decision.Agent, domain.ErrUnknownAgent)
		return turnResult{
			hasRec: true,
			rec:    orchestration.TurnRecord{Turn: turn, Agent: decision.Agent, Err: err.Error()},
			err:    err,
		}
	}

	ictx, invokeSpan := otel.StartInvokeSpan(ctx, c.Name, c.Endpoint)
	start := time.Now()
	res, err := s.dialer.Dial(c).Invoke(ictx, current)
	invokeDur := time.Since(start)
	invokeSpan.End()

	if err != nil {
		err = fmt.Errorf("invoke %s: %w", c.Name, err)
		return turnResult{
			hasRec:    true,
			rec:       orchestration.TurnRecord{Turn: turn, Agent: c.Name, Err: err.Error()},
			err:       err,
			invokeDur: invokeDur,
		}
	}

	return turnResult{
		hasRec:    true,
		rec:       orchestration.TurnRecord{Turn: turn, Agent: c.Name, Summary: task.Summarize(res.Text)},
		res:       res,
		invokeDur: invokeDur,
	}
}

// decide asks the oracle for the next step under the mandatory
// decision deadline. A deadline overrun is reported as ErrTimeout,
// the same failure an overrunning agent invocation produces.
func (s *OrchestratorService) decide(ctx context.Context, current task.Task, transcript orchestration.Transcript) (oracle.Decision, error) {
	dctx, cancel := context.WithTimeout(ctx, s.oracleTimeout)
	defer cancel()

	oc := oracle.Context{
		Task:       current,
		Roster:     s.directory.List(),
		Transcript: transcript.Clone(),
	}

	d, err := s.oracle.Decide(dctx, oc)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return oracle.Decision{}, fmt.Errorf("oracle decision: %w", domain.ErrTimeout)
		}
		return oracle.Decision{}, fmt.Errorf("oracle decision: %w", err)
	}
	return d, nil
}
