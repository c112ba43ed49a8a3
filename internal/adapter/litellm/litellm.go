// Package litellm implements the model port against a LiteLLM proxy or
// any other gateway that speaks the OpenAI chat completions wire format.
// Unlike the anthropic and openai adapters it carries no vendor SDK, so
// it also serves self-hosted gateways with nonstandard base URLs.
package litellm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openagora/agora/internal/config"
	"github.com/openagora/agora/internal/port/model"
	"github.com/openagora/agora/internal/resilience"
)

const defaultTimeout = 60 * time.Second

// Model wraps an OpenAI-compatible chat completions endpoint behind
// the model port.
type Model struct {
	cfg        config.LLM
	httpClient *http.Client
	breaker    *resilience.Breaker
}

var _ model.Model = (*Model)(nil)

// New creates a model backed by the gateway at cfg.BaseURL. The URL
// must include any /v1 prefix the gateway expects.
func New(cfg config.LLM) *Model {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Model{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (m *Model) SetBreaker(b *resilience.Breaker) {
	m.breaker = b
}

// Name reports the configured model id.
func (m *Model) Name() string { return m.cfg.Model }

// chatRequest is the OpenAI-compatible completion request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int64         `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends a single-turn prompt and returns the first choice's text.
func (m *Model) Complete(ctx context.Context, req model.Request) (string, error) {
	body, err := json.Marshal(m.buildRequest(req))
	if err != nil {
		return "", fmt.Errorf("marshal completion: %w", err)
	}

	data, err := m.doRequest(ctx, http.MethodPost, "/chat/completions", body)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("unmarshal completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("gateway returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Health checks whether the gateway answers its health endpoint.
func (m *Model) Health(ctx context.Context) (bool, error) {
	_, err := m.doRequest(ctx, http.MethodGet, "/health", nil)
	return err == nil, err
}

// buildRequest assembles the request, using config values where the
// request leaves max tokens or temperature unset.
func (m *Model) buildRequest(req model.Request) chatRequest {
	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = m.cfg.MaxTokens
	}
	temp := req.Temperature
	if temp == 0 {
		temp = m.cfg.Temperature
	}

	return chatRequest{
		Model:       m.cfg.Model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temp,
	}
}

func (m *Model) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, m.cfg.BaseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		if m.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
		}

		resp, err := m.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			return fmt.Errorf("gateway API error %d: %s", resp.StatusCode, string(data))
		}

		result = data
		return nil
	}

	if m.breaker != nil {
		if err := m.breaker.Execute(call); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}
