package mcp

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"mhmd-mcp/backend/internal/dispatch"
)

// Server exposes the dispatcher's methods as MCP tools. Every tool handler
// funnels into Dispatch, so the envelope and error semantics are identical to
// the REST surface.
type Server struct {
	mcpServer  *server.MCPServer
	dispatcher *dispatch.Dispatcher
}

func NewServer(dispatcher *dispatch.Dispatcher) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"MHMD Preference Automation",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		dispatcher: dispatcher,
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
			"mhmd_toggle_workflow",
			mcp.WithDescription("Drive the MHMD preference form in a headless browser: toggle or set the consent preference, save, persist the profile, and verify the stored value"),
			mcp.WithString("name", mcp.Description("Profile name to fill into the form (default: Test User)")),
			mcp.WithString("email", mcp.Description("Profile email; omit or pass 'random' to generate one")),
			mcp.WithString("preference", mcp.Description("Target preference, OPT_IN or OPT_OUT; omitted means toggle the stored value")),
		),
		s.forward("run_preference_toggle"),
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"ai_browser_automation",
			mcp.WithDescription("Interpret a free-text command into browser actions and execute them step by step"),
			mcp.WithString("command", mcp.Required(), mcp.Description("Natural-language description of what to do in the browser")),
			mcp.WithString("target_base", mcp.Description("Base URL the command operates against")),
		),
		s.forward("run_free_text_command"),
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"take_screenshot",
			mcp.WithDescription("Navigate to a URL and capture a full-page screenshot"),
			mcp.WithString("url", mcp.Required(), mcp.Description("The URL to capture")),
			mcp.WithString("wait_for", mcp.Description("CSS selector to wait for before capturing")),
		),
		s.forward("take_screenshot"),
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"run_api_probe",
			mcp.WithDescription("Seed a test profile, screenshot the API docs page, and verify the stored record"),
			mcp.WithString("base_url", mcp.Description("Base URL of the backend under probe")),
		),
		s.forward("run_api_probe"),
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"echo",
			mcp.WithDescription("Echo a message back, useful for connectivity checks"),
			mcp.WithString("message", mcp.Required(), mcp.Description("The message to echo")),
		),
		s.forward("echo"),
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"calculate",
			mcp.WithDescription("Perform a basic arithmetic operation"),
			mcp.WithString("operation", mcp.Required(), mcp.Description("One of add, subtract, multiply, divide")),
			mcp.WithNumber("a", mcp.Required(), mcp.Description("First operand")),
			mcp.WithNumber("b", mcp.Required(), mcp.Description("Second operand")),
		),
		s.forward("calculate"),
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"system_info",
			mcp.WithDescription("Report service name, version, and runtime details"),
		),
		s.forward("system_info"),
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_methods",
			mcp.WithDescription("List every dispatchable method with its description"),
		),
		s.forward("list_methods"),
	)
}

// forward builds a tool handler that routes the call through the dispatcher
// under the tool's wire method name.
func (s *Server) forward(method string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			args = map[string]interface{}{}
		}

		env := s.dispatcher.Dispatch(ctx, method, args)
		if !env.Success {
			return mcp.NewToolResultError(env.Error), nil
		}

		jsonBytes, err := json.Marshal(env.Data)
		if err != nil {
			return mcp.NewToolResultError("failed to encode result"), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	}
}

func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	// SSE server backs /mcp/sse and /mcp/message; plain POST /mcp also works.
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
