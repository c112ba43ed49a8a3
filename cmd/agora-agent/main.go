package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/openagora/agora/internal/adapter/gitguardian"
	agorahttp "github.com/openagora/agora/internal/adapter/http"
	"github.com/openagora/agora/internal/config"
	"github.com/openagora/agora/internal/domain/card"
	"github.com/openagora/agora/internal/logger"
	"github.com/openagora/agora/internal/middleware"
	"github.com/openagora/agora/internal/port/a2a"
	"github.com/openagora/agora/internal/port/agentwork"
	"github.com/openagora/agora/internal/service"
)

const registerTimeout = 5 * time.Second

func main() {
	// Bootstrap logger; run() swaps in the configured one.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	flags, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		return err
	}
	cfg, cfgPath, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	// For the agent host, --port means the agent's own port.
	if flags.Port != nil {
		cfg.Agent.Port = *flags.Port
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log.With("agent", cfg.Agent.Name))
	defer func() { logCloser.Close() }()

	slog.Info("config loaded",
		"path", cfgPath,
		"port", cfg.Agent.Port,
		"worker", cfg.Agent.Worker,
		"registry_url", cfg.Agent.RegistryURL,
	)

	worker, err := selectWorker(cfg)
	if err != nil {
		return err
	}

	agentCard := buildCard(cfg.Agent)
	if err := agentCard.Validate(); err != nil {
		return fmt.Errorf("agent card: %w", err)
	}

	handler := a2a.NewHandler(agentCard, worker, cfg.Agent.WorkTimeout)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(agorahttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	handler.MountRoutes(r)

	addr := ":" + cfg.Agent.Port

	// WriteTimeout leaves room for the worker plus protocol overhead.
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Agent.WorkTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting agent", "addr", addr, "endpoint", cfg.Agent.Endpoint)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("agent server failed", "error", err)
		}
	}()

	// Self-registration is retried in the background so a directory
	// that boots later still picks this agent up.
	regCtx, regCancel := context.WithCancel(context.Background())
	defer regCancel()
	if cfg.Agent.RegistryURL != "" {
		go registerLoop(regCtx, cfg.Agent.RegistryURL, agentCard)
	}

	<-done
	slog.Info("shutting down agent")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// selectWorker builds the worker named by the config. Workers that
// need credentials are only constructed when selected.
func selectWorker(cfg *config.Config) (agentwork.Worker, error) {
	workers := agentwork.NewRegistry()
	workers.Register("echo", agentwork.Echo{})
	workers.Register("secret-scan", gitguardian.NewWorker(gitguardian.NewClient(cfg.GitGuardian)))
	if cfg.Agent.Worker == "prompt" {
		m, err := buildModel(cfg.Agent.LLM)
		if err != nil {
			return nil, fmt.Errorf("prompt worker model: %w", err)
		}
		workers.Register("prompt", service.NewPromptWorker(m, cfg.Agent.Prompt))
	}
	return workers.Lookup(cfg.Agent.Worker)
}

// buildCard assembles the card this agent registers and serves.
func buildCard(cfg config.Agent) card.Card {
	skills := make([]card.Skill, 0, len(cfg.Skills))
	for _, s := range cfg.Skills {
		skills = append(skills, card.Skill{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Tags:        s.Tags,
		})
	}
	return a2a.BuildCard(cfg.Name, cfg.Description, cfg.Endpoint, cfg.Version, skills)
}

// registerLoop announces the agent to the directory, retrying with a
// fixed delay until it succeeds or the context ends.
func registerLoop(ctx context.Context, registryURL string, c card.Card) {
	const retryDelay = 3 * time.Second

	for attempt := 1; ; attempt++ {
		err := registerOnce(ctx, registryURL, c)
		if err == nil {
			slog.Info("registered with directory", "registry_url", registryURL, "attempt", attempt)
			return
		}
		slog.Warn("registration failed, retrying", "registry_url", registryURL, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
	}
}

func registerOnce(ctx context.Context, registryURL string, c card.Card) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal card: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, registerTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, registryURL+"/api/v1/register", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("post register: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("register: directory answered %d", resp.StatusCode)
	}
	return nil
}
