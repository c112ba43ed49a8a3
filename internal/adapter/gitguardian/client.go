// Package gitguardian provides an HTTP client for the GitGuardian scan API.
package gitguardian

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openagora/agora/internal/config"
	"github.com/openagora/agora/internal/resilience"
)

// ScanResult is the outcome of scanning a single document.
type ScanResult struct {
	PolicyBreakCount int           `json:"policy_break_count"`
	Policies         []string      `json:"policies"`
	PolicyBreaks     []PolicyBreak `json:"policy_breaks"`
}

// PolicyBreak describes one detected policy violation.
type PolicyBreak struct {
	Type     string  `json:"type"`
	Policy   string  `json:"policy"`
	Validity string  `json:"validity,omitempty"`
	Matches  []Match `json:"matches"`
}

// Match pinpoints the matched fragment inside the document.
type Match struct {
	Type       string `json:"type"`
	Match      string `json:"match"`
	IndexStart int    `json:"index_start,omitempty"`
	IndexEnd   int    `json:"index_end,omitempty"`
}

// Client talks to the GitGuardian public API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a GitGuardian client from config.
func NewClient(cfg config.GitGuardian) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// ScanContent scans one document for secrets and policy violations.
func (c *Client) ScanContent(ctx context.Context, document string) (*ScanResult, error) {
	body, err := json.Marshal(map[string]string{"document": document})
	if err != nil {
		return nil, fmt.Errorf("marshal scan request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/scan", body)
	if err != nil {
		return nil, fmt.Errorf("scan content: %w", err)
	}

	var result ScanResult
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("unmarshal scan result: %w", err)
	}
	return &result, nil
}

// Health checks that the API accepts the configured token.
func (c *Client) Health(ctx context.Context) (bool, error) {
	_, err := c.doRequest(ctx, http.MethodGet, "/v1/health", nil)
	return err == nil, err
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Token "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			return fmt.Errorf("gitguardian API error %d: %s", resp.StatusCode, string(data))
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}
