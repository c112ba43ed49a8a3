package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/openagora/agora/internal/adapter/otel"
	"github.com/openagora/agora/internal/adapter/ws"
	"github.com/openagora/agora/internal/config"
	"github.com/openagora/agora/internal/domain/card"
	"github.com/openagora/agora/internal/port/agentlink"
	"github.com/openagora/agora/internal/port/broadcast"
	"github.com/openagora/agora/internal/port/directory"
	"github.com/openagora/agora/internal/port/messagequeue"
)

// RegistryService owns the agent directory. All card intake goes
// through Register so validation, optional endpoint verification, and
// event fan-out happen in one place.
type RegistryService struct {
	directory directory.Directory
	dialer    agentlink.Dialer
	cfg       config.Registry

	queue   messagequeue.Queue
	hub     broadcast.Broadcaster
	metrics *otel.Metrics
}

// NewRegistryService creates a new RegistryService.
func NewRegistryService(dir directory.Directory, dialer agentlink.Dialer, cfg config.Registry) *RegistryService {
	return &RegistryService{directory: dir, dialer: dialer, cfg: cfg}
}

// SetQueue attaches a message queue for registration events.
func (s *RegistryService) SetQueue(q messagequeue.Queue) {
	s.queue = q
}

// SetBroadcaster attaches a hub for real-time registration events.
func (s *RegistryService) SetBroadcaster(hub broadcast.Broadcaster) {
	s.hub = hub
}

// SetMetrics attaches telemetry instruments.
func (s *RegistryService) SetMetrics(m *otel.Metrics) {
	s.metrics = m
}

// Register validates the card, optionally checks the endpoint is
// alive, and upserts it into the directory. Re-registering a name
// replaces the previous card.
func (s *RegistryService) Register(ctx context.Context, c card.Card) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validate card: %w", err)
	}

	if s.cfg.VerifyCards {
		if err := s.verifyEndpoint(ctx, c); err != nil {
			return err
		}
	}

	_, replaced := s.directory.FindByName(c.Name)
	if err := s.directory.Register(c); err != nil {
		return fmt.Errorf("register card: %w", err)
	}

	slog.Info("agent registered",
		"agent", c.Name,
		"endpoint", c.Endpoint,
		"skills", len(c.Skills),
		"replaced", replaced)

	if s.metrics != nil {
		s.metrics.AgentsRegistered.Add(ctx, 1)
	}

	s.publishRegistered(ctx, c, replaced)

	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventAgentRegistered, ws.AgentRegisteredEvent{
			Name:     c.Name,
			Endpoint: c.Endpoint,
			Skills:   c.SkillTags(),
			Replaced: replaced,
		})
	}

	return nil
}

// verifyEndpoint fetches the live card from the agent's endpoint so
// dead registrations are rejected up front.
func (s *RegistryService) verifyEndpoint(ctx context.Context, c card.Card) error {
	timeout := s.cfg.VerifyTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	vctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	link := s.dialer.Dial(c)
	if _, err := link.Resolve(vctx); err != nil {
		return fmt.Errorf("verify endpoint %s: %w", c.Endpoint, err)
	}
	return nil
}

// List returns a snapshot of all registered cards.
func (s *RegistryService) List() []card.Card {
	return s.directory.List()
}

// FindBySkillTag returns the first registered card advertising the
// tag, in registration order.
func (s *RegistryService) FindBySkillTag(tag string) (card.Card, bool) {
	return s.directory.FindBySkillTag(tag)
}

// FindByName returns the card registered under the exact name.
func (s *RegistryService) FindByName(name string) (card.Card, bool) {
	return s.directory.FindByName(name)
}

// publishRegistered emits the registration event to the queue
// (best-effort, logs errors).
func (s *RegistryService) publishRegistered(ctx context.Context, c card.Card, replaced bool) {
	if s.queue == nil {
		return
	}

	data, err := json.Marshal(messagequeue.AgentRegisteredPayload{
		Name:     c.Name,
		Endpoint: c.Endpoint,
		Skills:   c.SkillTags(),
		Replaced: replaced,
	})
	if err != nil {
		slog.Error("marshal registration event", "agent", c.Name, "error", err)
		return
	}

	if err := s.queue.Publish(ctx, messagequeue.SubjectAgentRegistered, data); err != nil {
		slog.Error("publish registration event", "agent", c.Name, "error", err)
	}
}
