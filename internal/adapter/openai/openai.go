// Package openai implements the model port on the OpenAI Chat Completions API.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/openagora/agora/internal/config"
	"github.com/openagora/agora/internal/port/model"
)

// Model wraps the OpenAI Chat Completions API behind the model port.
type Model struct {
	client *openai.Client
	cfg    config.LLM
}

var _ model.Model = (*Model)(nil)

// New creates a model backed by the official OpenAI client. The API key
// falls back to OPENAI_API_KEY when the config leaves it empty.
func New(cfg config.LLM) *Model {
	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	return &Model{client: &client, cfg: cfg}
}

// Name reports the configured model id.
func (m *Model) Name() string { return m.cfg.Model }

// Complete sends a single-turn prompt and returns the first choice's text.
// Deadlines come from the caller's context.
func (m *Model) Complete(ctx context.Context, req model.Request) (string, error) {
	resp, err := m.client.Chat.Completions.New(ctx, m.buildParams(req))
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// buildParams assembles the request, using config values where the request
// leaves max tokens or temperature unset.
func (m *Model) buildParams(req model.Request) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = m.cfg.MaxTokens
	}
	temp := req.Temperature
	if temp == 0 {
		temp = m.cfg.Temperature
	}

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.cfg.Model,
		MaxCompletionTokens: openai.Int(maxTokens),
	}
	if temp > 0 {
		params.Temperature = openai.Float(temp)
	}
	return params
}
