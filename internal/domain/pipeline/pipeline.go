// Package pipeline defines reusable multi-hop route templates. A
// template names an ordered list of stages, each selecting an agent by
// registered name or by skill tag, plus the pass mode that decides how
// intermediate results flow between hops.
package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrIDRequired      = errors.New("template id is required")
	ErrNameRequired    = errors.New("template name is required")
	ErrNoStages        = errors.New("template must have at least one stage")
	ErrStageSelector   = errors.New("stage must set exactly one of agent or skill_tag")
	ErrInvalidPassMode = errors.New("invalid pass mode")
)

// PassMode controls what each hop after the first receives as input.
type PassMode string

const (
	// PassConcat accumulates: every hop sees the original task text
	// plus all prior hop results appended in order.
	PassConcat PassMode = "concat"
	// PassSubstitute chains: every hop sees only the previous hop's
	// result text.
	PassSubstitute PassMode = "substitute"
)

// Valid reports whether the mode is one of the known pass modes.
func (m PassMode) Valid() bool {
	return m == PassConcat || m == PassSubstitute
}

// Template defines a reusable pipeline: stages in execution order and
// the pass mode applied between them. Templates are loaded from YAML
// files or registered through the API.
type Template struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Builtin     bool     `json:"builtin" yaml:"-"`
	PassMode    PassMode `json:"pass_mode" yaml:"pass_mode"`
	Stages      []Stage  `json:"stages" yaml:"stages"`
}

// Stage selects one agent in the pipeline order. Exactly one of Agent
// (a registered name, bound early) or SkillTag (resolved against the
// directory at dispatch time) must be set.
type Stage struct {
	Name     string `json:"name" yaml:"name"`
	Agent    string `json:"agent,omitempty" yaml:"agent,omitempty"`
	SkillTag string `json:"skill_tag,omitempty" yaml:"skill_tag,omitempty"`
}

// Selector returns the stage's routing key and whether it is a skill
// tag rather than an agent name.
func (s *Stage) Selector() (key string, bySkill bool) {
	if s.Agent != "" {
		return s.Agent, false
	}
	return s.SkillTag, true
}

// Validate checks the template for structural correctness.
func (t *Template) Validate() error {
	if t.ID == "" {
		return ErrIDRequired
	}
	if t.Name == "" {
		return ErrNameRequired
	}
	if !t.PassMode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPassMode, t.PassMode)
	}
	if len(t.Stages) == 0 {
		return ErrNoStages
	}
	for i, s := range t.Stages {
		if (s.Agent == "") == (s.SkillTag == "") {
			return fmt.Errorf("stage %d (%s): %w", i, s.Name, ErrStageSelector)
		}
	}
	return nil
}

// AgentNames returns the agent names of all name-selected stages, in
// order. Skill-tag stages contribute nothing here; they resolve late.
func (t *Template) AgentNames() []string {
	var names []string
	for _, s := range t.Stages {
		if s.Agent != "" {
			names = append(names, s.Agent)
		}
	}
	return names
}
