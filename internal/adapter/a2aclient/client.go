// Package a2aclient implements the agentlink port over HTTP. It is the
// calling half of the agent protocol served by port/a2a: card discovery
// via the well-known manifest and task delivery via POST /invoke.
//
// Every link performs exactly one attempt per Invoke. Failures are
// classified into the domain taxonomy (unreachable, remote error,
// timeout) and recovery is left to callers.
package a2aclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/openagora/agora/internal/domain"
	"github.com/openagora/agora/internal/domain/card"
	"github.com/openagora/agora/internal/domain/task"
	"github.com/openagora/agora/internal/port/a2a"
	"github.com/openagora/agora/internal/port/agentlink"
	"github.com/openagora/agora/internal/port/cache"
	"github.com/openagora/agora/internal/resilience"
)

// Config holds dialer tuning. Zero values fall back to the defaults
// below.
type Config struct {
	// Timeout bounds a single Invoke including connection setup.
	Timeout time.Duration
	// ResolveTimeout bounds a single card discovery fetch.
	ResolveTimeout time.Duration
	// CardTTL is how long resolved cards stay cached.
	CardTTL time.Duration
	// MaxConcurrent caps in-flight invocations across all links.
	MaxConcurrent int
	// BreakerMaxFailures and BreakerTimeout configure the per-endpoint
	// circuit breaker.
	BreakerMaxFailures int
	BreakerTimeout     time.Duration
}

const (
	defaultTimeout        = 120 * time.Second
	defaultResolveTimeout = 10 * time.Second
	defaultCardTTL        = 5 * time.Minute
	defaultMaxConcurrent  = 8
	defaultBreakerMax     = 5
	defaultBreakerTimeout = 30 * time.Second

	// errBodyLimit caps how much of a non-JSON error body is kept.
	errBodyLimit = 512
)

// Dialer builds HTTP links to remote agents. One Dialer is shared by
// the whole process; per-endpoint breakers and the invocation pool
// live here so every link to the same agent shares them.
type Dialer struct {
	cfg        Config
	httpClient *http.Client
	cardCache  cache.Cache // nil disables card caching
	pool       *Pool

	mu       sync.Mutex
	breakers map[string]*resilience.Breaker
}

// NewDialer creates a Dialer. The cache is optional; pass nil to fetch
// the card on every Resolve.
func NewDialer(cfg Config, cardCache cache.Cache) *Dialer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = defaultResolveTimeout
	}
	if cfg.CardTTL <= 0 {
		cfg.CardTTL = defaultCardTTL
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	if cfg.BreakerMaxFailures <= 0 {
		cfg.BreakerMaxFailures = defaultBreakerMax
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = defaultBreakerTimeout
	}
	return &Dialer{
		cfg: cfg,
		// Per-call deadlines come from contexts, not the client.
		httpClient: &http.Client{},
		cardCache:  cardCache,
		pool:       NewPool(cfg.MaxConcurrent),
		breakers:   make(map[string]*resilience.Breaker),
	}
}

// Dial returns a link to the agent described by c. Dialing never
// touches the network.
func (d *Dialer) Dial(c card.Card) agentlink.Link {
	return &link{
		dialer:  d,
		card:    c,
		breaker: d.breakerFor(c.Endpoint),
	}
}

// BreakerStates reports the circuit state per known endpoint.
func (d *Dialer) BreakerStates() map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[string]string, len(d.breakers))
	for endpoint, b := range d.breakers {
		out[endpoint] = b.State()
	}
	return out
}

func (d *Dialer) breakerFor(endpoint string) *resilience.Breaker {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, ok := d.breakers[endpoint]
	if !ok {
		b = resilience.NewBreaker(d.cfg.BreakerMaxFailures, d.cfg.BreakerTimeout)
		d.breakers[endpoint] = b
	}
	return b
}

type link struct {
	dialer  *Dialer
	card    card.Card
	breaker *resilience.Breaker
}

// Resolve fetches the agent's live card from its well-known path,
// consulting the card cache first.
func (l *link) Resolve(ctx context.Context) (card.Card, error) {
	d := l.dialer
	key := "card:" + l.card.Endpoint

	if d.cardCache != nil {
		if data, ok, err := d.cardCache.Get(ctx, key); err == nil && ok {
			var c card.Card
			if err := json.Unmarshal(data, &c); err == nil {
				return c, nil
			}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.ResolveTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.card.Endpoint+a2a.WellKnownCardPath, nil)
	if err != nil {
		return card.Card{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return card.Card{}, classifyTransport(err, l.card.Name)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return card.Card{}, fmt.Errorf("%w: agent %s returned %d for card manifest",
			domain.ErrUnreachable, l.card.Name, resp.StatusCode)
	}

	var c card.Card
	if err := json.NewDecoder(resp.Body).Decode(&c); err != nil {
		return card.Card{}, fmt.Errorf("%w: agent %s served an unreadable card: %v",
			domain.ErrUnreachable, l.card.Name, err)
	}

	if d.cardCache != nil {
		if data, err := json.Marshal(c); err == nil {
			_ = d.cardCache.Set(ctx, key, data, d.cfg.CardTTL)
		}
	}
	return c, nil
}

// Invoke delivers the task with a single bounded attempt.
func (l *link) Invoke(ctx context.Context, t task.Task) (task.Result, error) {
	d := l.dialer

	var result task.Result
	err := d.pool.Run(ctx, func() error {
		ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()

		body, err := json.Marshal(a2a.InvokeRequest{
			TaskText:      t.Text,
			CorrelationID: t.CorrelationID,
		})
		if err != nil {
			return fmt.Errorf("marshal invoke: %w", err)
		}

		call := func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.card.Endpoint+"/invoke", bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("create request: %w", err)
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := d.httpClient.Do(req)
			if err != nil {
				return classifyTransport(err, l.card.Name)
			}
			defer func() { _ = resp.Body.Close() }()

			data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			if err != nil {
				return fmt.Errorf("%w: reading response from %s: %v", domain.ErrUnreachable, l.card.Name, err)
			}

			if resp.StatusCode >= 400 {
				return remoteFailure(resp.StatusCode, data)
			}

			var ir a2a.InvokeResponse
			if err := json.Unmarshal(data, &ir); err != nil {
				return fmt.Errorf("%w: agent %s returned malformed result: %v",
					domain.ErrUnreachable, l.card.Name, err)
			}
			result = task.Result{Text: ir.ResultText}
			return nil
		}

		if err := l.breaker.Execute(call); err != nil {
			if errors.Is(err, resilience.ErrCircuitOpen) {
				return fmt.Errorf("%w: circuit open for agent %s", domain.ErrUnreachable, l.card.Name)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return task.Result{}, err
	}
	return result, nil
}

// classifyTransport maps a transport-level failure onto the domain
// taxonomy. Deadline expiry is a timeout; caller cancellation passes
// through; everything else means the agent was unreachable.
func classifyTransport(err error, agent string) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: agent %s did not answer in time", domain.ErrTimeout, agent)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: agent %s: %v", domain.ErrUnreachable, agent, err)
	}
}

// remoteFailure turns a non-2xx response into a RemoteError, keeping
// the agent's structured code and message when it sent one.
func remoteFailure(status int, body []byte) error {
	var eb a2a.ErrorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Code != "" {
		return &domain.RemoteError{Code: eb.Code, Message: eb.Message}
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > errBodyLimit {
		msg = msg[:errBodyLimit]
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &domain.RemoteError{
		Code:    fmt.Sprintf("http_%d", status),
		Message: msg,
	}
}

var _ agentlink.Dialer = (*Dialer)(nil)
