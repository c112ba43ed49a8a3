package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/openagora/agora/internal/domain/task"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.listAgentsTool(),
		s.findAgentTool(),
		s.runTaskTool(),
	)
}

func (s *Server) listAgentsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_agents",
		mcplib.WithDescription("List all agents registered in the directory"),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleListAgents,
	}
}

func (s *Server) findAgentTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("find_agent",
		mcplib.WithDescription("Find the first registered agent advertising a skill tag"),
		mcplib.WithString("skill",
			mcplib.Required(),
			mcplib.Description("The skill tag to search for"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleFindAgent,
	}
}

func (s *Server) runTaskTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("run_task",
		mcplib.WithDescription("Run a task through the dynamic orchestrator and return the outcome"),
		mcplib.WithString("task_text",
			mcplib.Required(),
			mcplib.Description("The task to orchestrate"),
		),
		mcplib.WithNumber("max_turns",
			mcplib.Description("Turn budget for the run; server default when omitted"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleRunTask,
	}
}

func (s *Server) handleListAgents(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Directory == nil {
		return mcplib.NewToolResultError("directory not configured"), nil
	}
	cards := s.deps.Directory.List()
	data, err := json.Marshal(cards)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal agents", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleFindAgent(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Directory == nil {
		return mcplib.NewToolResultError("directory not configured"), nil
	}
	args := req.GetArguments()
	skill, ok := args["skill"].(string)
	if !ok || strings.TrimSpace(skill) == "" {
		return mcplib.NewToolResultError("skill is required"), nil
	}
	c, found := s.deps.Directory.FindBySkillTag(skill)
	if !found {
		return mcplib.NewToolResultError(
			fmt.Sprintf("no agent advertises skill %q", skill),
		), nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal agent", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleRunTask(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Runner == nil {
		return mcplib.NewToolResultError("runner not configured"), nil
	}
	args := req.GetArguments()
	text, ok := args["task_text"].(string)
	if !ok || strings.TrimSpace(text) == "" {
		return mcplib.NewToolResultError("task_text is required"), nil
	}
	maxTurns := 0
	if v, ok := args["max_turns"].(float64); ok {
		maxTurns = int(v)
	}

	outcome, err := s.deps.Runner.Run(ctx, task.New(text), maxTurns)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("run failed", err), nil
	}
	data, err := json.Marshal(outcome)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal outcome", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func toolResultJSON(data string) *mcplib.CallToolResult {
	return mcplib.NewToolResultText(data)
}
