package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// --- Validate ---

func TestValidate_Valid(t *testing.T) {
	tmpl := Template{
		ID:       "test",
		Name:     "Test",
		PassMode: PassConcat,
		Stages: []Stage{
			{Name: "Research", Agent: "research"},
			{Name: "Scan", SkillTag: "security"},
		},
	}
	if err := tmpl.Validate(); err != nil {
		t.Fatalf("expected valid, got: %v", err)
	}
}

func TestValidate_MissingID(t *testing.T) {
	tmpl := Template{
		Name:     "Test",
		PassMode: PassConcat,
		Stages:   []Stage{{Name: "S", Agent: "a"}},
	}
	if err := tmpl.Validate(); !errors.Is(err, ErrIDRequired) {
		t.Fatalf("expected ErrIDRequired, got: %v", err)
	}
}

func TestValidate_MissingName(t *testing.T) {
	tmpl := Template{
		ID:       "test",
		PassMode: PassConcat,
		Stages:   []Stage{{Name: "S", Agent: "a"}},
	}
	if err := tmpl.Validate(); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got: %v", err)
	}
}

func TestValidate_InvalidPassMode(t *testing.T) {
	tmpl := Template{
		ID:       "test",
		Name:     "Test",
		PassMode: "broadcast",
		Stages:   []Stage{{Name: "S", Agent: "a"}},
	}
	if err := tmpl.Validate(); !errors.Is(err, ErrInvalidPassMode) {
		t.Fatalf("expected ErrInvalidPassMode, got: %v", err)
	}
}

func TestValidate_NoStages(t *testing.T) {
	tmpl := Template{ID: "test", Name: "Test", PassMode: PassSubstitute}
	if err := tmpl.Validate(); !errors.Is(err, ErrNoStages) {
		t.Fatalf("expected ErrNoStages, got: %v", err)
	}
}

func TestValidate_StageWithBothSelectors(t *testing.T) {
	tmpl := Template{
		ID:       "test",
		Name:     "Test",
		PassMode: PassConcat,
		Stages:   []Stage{{Name: "S", Agent: "a", SkillTag: "research"}},
	}
	if err := tmpl.Validate(); !errors.Is(err, ErrStageSelector) {
		t.Fatalf("expected ErrStageSelector, got: %v", err)
	}
}

func TestValidate_StageWithNeitherSelector(t *testing.T) {
	tmpl := Template{
		ID:       "test",
		Name:     "Test",
		PassMode: PassConcat,
		Stages:   []Stage{{Name: "S"}},
	}
	if err := tmpl.Validate(); !errors.Is(err, ErrStageSelector) {
		t.Fatalf("expected ErrStageSelector, got: %v", err)
	}
}

// --- Selector / AgentNames ---

func TestStage_Selector(t *testing.T) {
	byName := Stage{Agent: "research"}
	key, bySkill := byName.Selector()
	if key != "research" || bySkill {
		t.Fatalf("expected (research, false), got (%s, %v)", key, bySkill)
	}

	byTag := Stage{SkillTag: "writing"}
	key, bySkill = byTag.Selector()
	if key != "writing" || !bySkill {
		t.Fatalf("expected (writing, true), got (%s, %v)", key, bySkill)
	}
}

func TestAgentNames_SkipsSkillStages(t *testing.T) {
	tmpl := Template{
		ID:       "t",
		Name:     "T",
		PassMode: PassConcat,
		Stages: []Stage{
			{Name: "A", Agent: "alpha"},
			{Name: "B", SkillTag: "writing"},
			{Name: "C", Agent: "gamma"},
		},
	}
	names := tmpl.AgentNames()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "gamma" {
		t.Fatalf("unexpected agent names: %v", names)
	}
}

// --- Builtins ---

func TestBuiltinTemplates_AllValid(t *testing.T) {
	for _, tmpl := range BuiltinTemplates() {
		if err := tmpl.Validate(); err != nil {
			t.Errorf("builtin template %q invalid: %v", tmpl.ID, err)
		}
		if !tmpl.Builtin {
			t.Errorf("builtin template %q not flagged Builtin", tmpl.ID)
		}
	}
}

func TestBuiltinTemplates_ResearchReport(t *testing.T) {
	var found *Template
	builtins := BuiltinTemplates()
	for i := range builtins {
		if builtins[i].ID == "research-report" {
			found = &builtins[i]
			break
		}
	}
	if found == nil {
		t.Fatal("research-report builtin missing")
	}
	if len(found.Stages) != 3 {
		t.Fatalf("expected 3 stages, got %d", len(found.Stages))
	}
	wantTags := []string{"research", "writing", "security"}
	for i, tag := range wantTags {
		if found.Stages[i].SkillTag != tag {
			t.Errorf("stage %d skill tag = %q, want %q", i, found.Stages[i].SkillTag, tag)
		}
	}
}

// --- YAML loading ---

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "review.yaml")
	content := `id: review
name: Review
description: Route through a reviewer.
pass_mode: substitute
stages:
  - name: Review
    agent: reviewer
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	tmpl, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if tmpl.ID != "review" || tmpl.PassMode != PassSubstitute {
		t.Fatalf("unexpected template: %+v", tmpl)
	}
	if len(tmpl.Stages) != 1 || tmpl.Stages[0].Agent != "reviewer" {
		t.Fatalf("unexpected stages: %+v", tmpl.Stages)
	}
}

func TestLoadFromFile_InvalidTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("id: bad\nname: Bad\npass_mode: concat\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("expected validation error for template without stages")
	}
}

func TestLoadFromDirectory_Missing(t *testing.T) {
	templates, err := LoadFromDirectory(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing directory should not error, got: %v", err)
	}
	if templates != nil {
		t.Fatalf("expected nil templates, got: %v", templates)
	}
}

func TestLoadFromDirectory_SkipsNonYAML(t *testing.T) {
	dir := t.TempDir()
	good := `id: a
name: A
pass_mode: concat
stages:
  - name: S
    skill_tag: research
`
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(good), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o600); err != nil {
		t.Fatal(err)
	}

	templates, err := LoadFromDirectory(dir)
	if err != nil {
		t.Fatalf("LoadFromDirectory failed: %v", err)
	}
	if len(templates) != 1 {
		t.Fatalf("expected 1 template, got %d", len(templates))
	}
}
