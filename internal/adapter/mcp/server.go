// Package mcp exposes the agent directory and orchestration engine over the
// Model Context Protocol, so MCP-capable clients can list agents and run tasks.
package mcp

import (
	"context"
	"log/slog"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/openagora/agora/internal/domain/card"
	"github.com/openagora/agora/internal/domain/orchestration"
	"github.com/openagora/agora/internal/domain/task"
)

// AgentDirectory is the slice of the directory the MCP surface reads.
type AgentDirectory interface {
	List() []card.Card
	FindBySkillTag(tag string) (card.Card, bool)
}

// TaskRunner drives an orchestrated run to a terminal state. A maxTurns
// of zero means the runner's configured default.
type TaskRunner interface {
	Run(ctx context.Context, t task.Task, maxTurns int) (orchestration.Outcome, error)
}

// ServerConfig holds MCP server settings.
type ServerConfig struct {
	Addr    string
	Name    string
	Version string
	APIKey  string
}

// ServerDeps wires the directory and run services into tool handlers.
// Nil deps turn the corresponding tools into error results, not panics.
type ServerDeps struct {
	Directory AgentDirectory
	Runner    TaskRunner
}

// Server wraps an MCP server with streamable HTTP transport.
type Server struct {
	cfg        ServerConfig
	deps       ServerDeps
	mcpServer  *mcpserver.MCPServer
	httpServer *http.Server
}

// NewServer creates the MCP server and registers all tools and resources.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(true),
			mcpserver.WithResourceCapabilities(true, true),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server for transports and tests.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Start serves the MCP streamable HTTP transport in the background.
func (s *Server) Start() error {
	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer)
	s.httpServer = &http.Server{
		Addr:    s.cfg.Addr,
		Handler: AuthMiddleware(s.cfg.APIKey, streamable),
	}
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mcp server failed", "error", err)
		}
	}()
	slog.Info("mcp server listening", "addr", s.cfg.Addr)
	return nil
}

// Stop gracefully shuts the HTTP transport down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
