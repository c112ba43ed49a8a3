package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/openagora/agora/internal/adapter/a2aclient"
	agorahttp "github.com/openagora/agora/internal/adapter/http"
	"github.com/openagora/agora/internal/adapter/inmem"
	"github.com/openagora/agora/internal/adapter/mcp"
	agoranats "github.com/openagora/agora/internal/adapter/nats"
	"github.com/openagora/agora/internal/adapter/natskv"
	"github.com/openagora/agora/internal/adapter/otel"
	"github.com/openagora/agora/internal/adapter/ristretto"
	"github.com/openagora/agora/internal/adapter/tiered"
	"github.com/openagora/agora/internal/adapter/ws"
	"github.com/openagora/agora/internal/config"
	"github.com/openagora/agora/internal/logger"
	"github.com/openagora/agora/internal/middleware"
	"github.com/openagora/agora/internal/port/cache"
	"github.com/openagora/agora/internal/port/notifier"
	"github.com/openagora/agora/internal/service"
)

const version = "0.1.0"

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

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer func() { logCloser.Close() }()

	slog.Info("config loaded",
		"path", cfgPath,
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"max_turns", cfg.Orchestrator.MaxTurns,
	)

	ctx := context.Background()

	// --- Telemetry ---
	otelShutdown, err := otel.Setup(cfg.Telemetry, "agorad", version)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()
	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	// NATS is best-effort: runs work without it, events just stay local.
	queue, err := agoranats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, continuing without queue", "url", cfg.NATS.URL, "error", err)
		queue = nil
	} else {
		defer func() { _ = queue.Close() }()
	}

	cardCache, err := buildCardCache(ctx, cfg.Cache, queue)
	if err != nil {
		return fmt.Errorf("card cache: %w", err)
	}

	dialer := a2aclient.NewDialer(a2aclient.Config{
		Timeout:            cfg.Link.Timeout,
		CardTTL:            cfg.Cache.CardTTL,
		MaxConcurrent:      cfg.Link.MaxConcurrent,
		BreakerMaxFailures: cfg.Breaker.MaxFailures,
		BreakerTimeout:     cfg.Breaker.Timeout,
	}, cardCache)

	hub := ws.NewHub()
	if queue != nil {
		detach, err := hub.AttachQueue(ctx, queue)
		if err != nil {
			return fmt.Errorf("attach queue to ws hub: %w", err)
		}
		defer detach()
	}

	// --- Services ---
	dir := inmem.NewDirectory()

	oracleModel, err := buildModel(cfg.Oracle)
	if err != nil {
		return fmt.Errorf("oracle model: %w", err)
	}
	planner := service.NewPlanner(oracleModel)

	registrySvc := service.NewRegistryService(dir, dialer, cfg.Registry)
	hubSvc := service.NewHubService(dir, dialer)
	pipelineSvc := service.NewPipelineService(dir, dialer, hubSvc)
	orchestratorSvc := service.NewOrchestratorService(dir, dialer, planner, cfg.Orchestrator, cfg.Oracle.Timeout)

	if cfg.Pipeline.TemplatesDir != "" {
		n, err := pipelineSvc.LoadTemplatesDir(cfg.Pipeline.TemplatesDir)
		if err != nil {
			return fmt.Errorf("load pipeline templates: %w", err)
		}
		slog.Info("pipeline templates loaded", "dir", cfg.Pipeline.TemplatesDir, "count", n)
	}

	registrySvc.SetBroadcaster(hub)
	hubSvc.SetBroadcaster(hub)
	pipelineSvc.SetBroadcaster(hub)
	orchestratorSvc.SetBroadcaster(hub)
	registrySvc.SetMetrics(metrics)
	hubSvc.SetMetrics(metrics)
	pipelineSvc.SetMetrics(metrics)
	orchestratorSvc.SetMetrics(metrics)
	if queue != nil {
		registrySvc.SetQueue(queue)
		hubSvc.SetQueue(queue)
		pipelineSvc.SetQueue(queue)
		orchestratorSvc.SetQueue(queue)
	}

	if notifySvc := buildNotifiers(cfg.Notify); notifySvc != nil {
		hubSvc.SetNotifier(notifySvc)
		pipelineSvc.SetNotifier(notifySvc)
		orchestratorSvc.SetNotifier(notifySvc)
		slog.Info("run notifications enabled", "providers", notifySvc.NotifierCount())
	}

	// --- HTTP ---
	handlers := agorahttp.NewHandlers(registrySvc, pipelineSvc, hubSvc, orchestratorSvc)
	handlers.SetBreakerReporter(dialer)
	if queue != nil {
		handlers.SetQueue(queue)
	}

	rateLimiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := rateLimiter.StartCleanup(time.Minute, 10*time.Minute)
	defer stopCleanup()

	r := chi.NewRouter()
	r.Use(agorahttp.SecurityHeaders)
	r.Use(agorahttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(agorahttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(rateLimiter.Handler)

	r.Get("/ws", hub.HandleWS)
	agorahttp.MountRoutes(r, handlers)

	// --- MCP ---
	if cfg.MCP.Enabled {
		mcpServer := mcp.NewServer(mcp.ServerConfig{
			Addr:    ":" + cfg.MCP.Port,
			Name:    "agora",
			Version: version,
			APIKey:  cfg.MCP.APIKey,
		}, mcp.ServerDeps{
			Directory: registrySvc,
			Runner:    orchestratorSvc,
		})
		if err := mcpServer.Start(); err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mcpServer.Stop(stopCtx)
		}()
		slog.Info("mcp server started", "port", cfg.MCP.Port)
	}

	addr := ":" + cfg.Server.Port

	// WriteTimeout is sized for orchestration runs, which block on
	// multiple LLM and agent round-trips before answering.
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      15 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// buildCardCache assembles the card cache: the in-process ristretto
// tier, plus a shared NATS KV tier when configured and the queue is up.
func buildCardCache(ctx context.Context, cfg config.Cache, queue *agoranats.Queue) (cache.Cache, error) {
	mem, err := ristretto.New(cfg.MaxSizeMB * 1024 * 1024)
	if err != nil {
		return nil, err
	}

	if !cfg.Shared {
		return mem, nil
	}
	if queue == nil {
		slog.Warn("shared card cache requested but nats is unavailable, using in-process cache only")
		return mem, nil
	}

	kv, err := queue.KeyValue(ctx, "agora_cards", cfg.CardTTL)
	if err != nil {
		return nil, fmt.Errorf("shared tier: %w", err)
	}
	slog.Info("card cache sharing enabled", "bucket", "agora_cards")
	return tiered.New(mem, natskv.New(kv), cfg.CardTTL), nil
}

// buildNotifiers instantiates every configured notification provider.
// Returns nil when none are configured; a broken provider entry is
// logged and skipped rather than failing boot.
func buildNotifiers(cfg config.Notify) *service.NotificationService {
	var notifiers []notifier.Notifier
	for name, settings := range cfg.Providers {
		n, err := notifier.New(name, settings)
		if err != nil {
			slog.Warn("notifier skipped", "provider", name, "error", err)
			continue
		}
		notifiers = append(notifiers, n)
	}
	if len(notifiers) == 0 {
		return nil
	}
	return service.NewNotificationService(notifiers, cfg.Events)
}
