package service

import (
	"context"
	"fmt"

	"github.com/openagora/agora/internal/domain/task"
	"github.com/openagora/agora/internal/port/agentwork"
	"github.com/openagora/agora/internal/port/model"
)

// defaultWorkerPrompt is used when the agent host configures no
// system prompt of its own.
const defaultWorkerPrompt = "You are an agent in a multi-agent system. Complete the task you are given and answer with the result only, no preamble."

// PromptWorker answers tasks with a language model completion: the
// task text is the user prompt, the configured system prompt sets the
// agent's role. This is how a single config tree yields a research
// agent, a writing agent, or any other persona from the same binary.
type PromptWorker struct {
	model  model.Model
	system string
}

// NewPromptWorker creates a prompt worker with the given system
// prompt, falling back to a generic one when empty.
func NewPromptWorker(m model.Model, systemPrompt string) *PromptWorker {
	if systemPrompt == "" {
		systemPrompt = defaultWorkerPrompt
	}
	return &PromptWorker{model: m, system: systemPrompt}
}

var _ agentwork.Worker = (*PromptWorker)(nil)

// Work completes the task text under the worker's system prompt.
func (w *PromptWorker) Work(ctx context.Context, t task.Task) (task.Result, error) {
	text, err := w.model.Complete(ctx, model.Request{
		System: w.system,
		Prompt: t.Text,
	})
	if err != nil {
		return task.Result{}, fmt.Errorf("prompt worker: %w", err)
	}
	return task.Result{Text: text}, nil
}
