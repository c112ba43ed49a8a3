// Package anthropic implements the model port on the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/openagora/agora/internal/config"
	"github.com/openagora/agora/internal/port/model"
)

// Model wraps the Anthropic Messages API behind the model port.
type Model struct {
	client *anthropic.Client
	cfg    config.LLM
}

var _ model.Model = (*Model)(nil)

// New creates a model backed by the official Anthropic client. The API key
// falls back to ANTHROPIC_API_KEY when the config leaves it empty.
func New(cfg config.LLM) *Model {
	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)
	return &Model{client: &client, cfg: cfg}
}

// Name reports the configured model id.
func (m *Model) Name() string { return m.cfg.Model }

// Complete sends a single-turn prompt and returns the concatenated text blocks.
// Deadlines come from the caller's context.
func (m *Model) Complete(ctx context.Context, req model.Request) (string, error) {
	resp, err := m.client.Messages.New(ctx, m.buildParams(req))
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.AsText().Text)
		}
	}
	return b.String(), nil
}

// buildParams assembles the request, using config values where the request
// leaves max tokens or temperature unset.
func (m *Model) buildParams(req model.Request) anthropic.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = m.cfg.MaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.cfg.Model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	temp := req.Temperature
	if temp == 0 {
		temp = m.cfg.Temperature
	}
	if temp > 0 {
		params.Temperature = anthropic.Float(temp)
	}
	return params
}
