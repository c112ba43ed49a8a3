package litellm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openagora/agora/internal/adapter/litellm"
	"github.com/openagora/agora/internal/config"
	"github.com/openagora/agora/internal/port/model"
	"github.com/openagora/agora/internal/resilience"
)

func testConfig(baseURL string) config.LLM {
	return config.LLM{
		Provider:    "litellm",
		Model:       "groq/llama-3.3-70b",
		BaseURL:     baseURL,
		APIKey:      "test-key",
		MaxTokens:   512,
		Temperature: 0.2,
	}
}

func TestCompleteSendsChatRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Fatalf("unexpected auth: %q", auth)
		}

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			MaxTokens   int64   `json:"max_tokens"`
			Temperature float64 `json:"temperature"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "groq/llama-3.3-70b" {
			t.Fatalf("unexpected model: %q", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Fatalf("unexpected messages: %+v", req.Messages)
		}
		if req.MaxTokens != 512 {
			t.Fatalf("expected config max tokens fallback, got %d", req.MaxTokens)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"the answer"}}]}`))
	}))
	defer srv.Close()

	m := litellm.New(testConfig(srv.URL))
	out, err := m.Complete(context.Background(), model.Request{
		System: "You are terse.",
		Prompt: "Answer.",
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != "the answer" {
		t.Fatalf("unexpected completion: %q", out)
	}
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	m := litellm.New(testConfig(srv.URL))
	if _, err := m.Complete(context.Background(), model.Request{Prompt: "hi"}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"upstream unavailable"}`))
	}))
	defer srv.Close()

	m := litellm.New(testConfig(srv.URL))
	if _, err := m.Complete(context.Background(), model.Request{Prompt: "hi"}); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestCompleteBreakerOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := litellm.New(testConfig(srv.URL))
	m.SetBreaker(resilience.NewBreaker(1, time.Minute))

	if _, err := m.Complete(context.Background(), model.Request{Prompt: "hi"}); err == nil {
		t.Fatal("expected first call to fail")
	}
	_, err := m.Complete(context.Background(), model.Request{Prompt: "hi"})
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected open breaker, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	m := litellm.New(testConfig(srv.URL))
	ok, err := m.Health(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected healthy, got ok=%v err=%v", ok, err)
	}
}

func TestNameReportsModel(t *testing.T) {
	m := litellm.New(testConfig("http://localhost:4000"))
	if m.Name() != "groq/llama-3.3-70b" {
		t.Fatalf("unexpected name: %q", m.Name())
	}
}
