// Package mcp exposes the orchestrator and advisor as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"infrax/backend/internal/agents"
	"infrax/backend/internal/orchestrator"
	"infrax/backend/internal/repository"
	"infrax/backend/pkg/models"
)

type Server struct {
	mcpServer    *server.MCPServer
	orchestrator *orchestrator.Orchestrator
	advisor      *agents.Advisor
	history      repository.Store
}

func NewServer(o *orchestrator.Orchestrator, advisor *agents.Advisor, history repository.Store) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Brahma Infrastructure",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		orchestrator: o,
		advisor:      advisor,
		history:      history,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"generate_infrastructure",
			mcp.WithDescription("Generate infrastructure code from a natural-language description"),
			mcp.WithString("prompt", mcp.Required(), mcp.Description("Description of the application to build infrastructure for")),
			mcp.WithString("location", mcp.Description("Geographic location of the users, e.g. india")),
			mcp.WithString("iac_tool", mcp.Description("IaC dialect: terraform, cloudformation, or pulumi")),
		),
		s.handleGenerate,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_workflow",
			mcp.WithDescription("Retrieve a workflow record by id"),
			mcp.WithString("workflow_id", mcp.Required(), mcp.Description("The workflow id")),
		),
		s.handleGetWorkflow,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_workflows",
			mcp.WithDescription("List all workflow runs, most recent first"),
		),
		s.handleListWorkflows,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"analyze_code",
			mcp.WithDescription("Analyze a workflow's generated infrastructure code"),
			mcp.WithString("workflow_id", mcp.Required(), mcp.Description("The workflow id")),
		),
		s.handleAnalyzeCode,
	)
}

func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	prompt, ok := args["prompt"].(string)
	if !ok || prompt == "" {
		return mcp.NewToolResultError("Missing required parameter: prompt"), nil
	}
	location, _ := args["location"].(string)
	dialect, _ := args["iac_tool"].(string)

	record, err := s.orchestrator.Run(ctx, models.WorkflowInput{
		Prompt:   prompt,
		Location: location,
		Dialect:  dialect,
	})
	if err != nil && record == nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to generate: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(record)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetWorkflow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	id, ok := args["workflow_id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("Missing required parameter: workflow_id"), nil
	}

	record, err := s.history.GetWorkflow(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load workflow: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(record)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleListWorkflows(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listings, err := s.history.ListWorkflows(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list workflows: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(listings)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleAnalyzeCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	id, ok := args["workflow_id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("Missing required parameter: workflow_id"), nil
	}

	record, err := s.history.GetWorkflow(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load workflow: %v", err)), nil
	}
	if record.Steps.IaC == nil {
		return mcp.NewToolResultError("Workflow has no generated code"), nil
	}

	code := record.Steps.IaC.Code
	if latest, err := s.history.LatestCodeVersion(ctx, id); err == nil {
		code = latest.Code
	}

	analysis, err := s.advisor.Analyze(ctx, code, &agents.WorkflowContext{Prompt: record.Input.Prompt})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to analyze: %v", err)), nil
	}
	return mcp.NewToolResultText(analysis), nil
}

func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	// Use SSE server for /mcp/sse and /mcp/message endpoints
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		// Direct POST for tool calls
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	// SSE endpoints
	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
