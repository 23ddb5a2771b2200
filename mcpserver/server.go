package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/isdmx/envbox/config"
	"github.com/isdmx/envbox/sandbox"
)

// MCPServer represents the MCP server
type MCPServer struct {
	config    *config.Config
	logger    *zap.Logger
	executor  sandbox.CommandExecutor
	probe     func() (probeReport, error)
	mcpServer *server.MCPServer
}

type probeReport struct {
	ScopeDir    string `json:"scope_dir"`
	OriginalDir string `json:"original_dir"`
	Restored    bool   `json:"restored"`
}

type commandReport struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
	ScopeDir string `json:"scope_dir"`
}

// New creates a new MCPServer
func New(cfg *config.Config, logger *zap.Logger, executor sandbox.CommandExecutor) (*MCPServer, error) {
	s := &MCPServer{
		config:   cfg,
		logger:   logger,
		executor: executor,
		probe:    defaultScopeProbe,
	}

	logger.Info("configuration loaded",
		zap.String("server.transport", cfg.Server.Transport),
		zap.Int("server.http_port", cfg.Server.HTTPPort),
		zap.String("scope.temp_root", cfg.Scope.TempRoot),
		zap.String("scope.dir_pattern", cfg.Scope.DirPattern),
		zap.Int("scope.command_timeout_sec", cfg.Scope.CommandTimeoutSec),
	)

	s.mcpServer = server.NewMCPServer("envbox", "Hermetic scoped command execution server")

	s.registerRunScopedCommandTool()
	s.registerScopeProbeTool()

	return s, nil
}

// registerRunScopedCommandTool registers the run_scoped_command tool
func (s *MCPServer) registerRunScopedCommandTool() {
	tool := mcp.Tool{
		Name:        "run_scoped_command",
		Description: "Run a command inside a hermetic working-directory and environment scope",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"argv": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Command and arguments",
				},
				"env": map[string]any{
					"type":        "object",
					"description": "Environment variables set inside the scope (optional)",
				},
				"preserve_env": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Variable names exempt from restoration when the scope closes (optional)",
				},
				"stdin": map[string]any{
					"type":        "string",
					"description": "Standard input for the command (optional)",
				},
				"timeout_sec": map[string]any{
					"type":        "number",
					"description": "Execution timeout in seconds (optional, defaults to server config)",
				},
			},
			Required: []string{"argv"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleRunScopedCommand)
}

// registerScopeProbeTool registers the scope_probe tool
func (s *MCPServer) registerScopeProbeTool() {
	tool := mcp.Tool{
		Name:        "scope_probe",
		Description: "Open and close an empty hermetic scope, reporting the ephemeral directory and restored state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}

	s.mcpServer.AddTool(tool, s.handleScopeProbe)
}

// handleRunScopedCommand handles the run_scoped_command tool
func (s *MCPServer) handleRunScopedCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	argv, err := stringSlice(args["argv"])
	if err != nil {
		return nil, fmt.Errorf("argv parameter: %w", err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("argv parameter must not be empty")
	}

	env, err := stringMap(args["env"])
	if err != nil {
		return nil, fmt.Errorf("env parameter: %w", err)
	}

	preserveEnv, err := stringSlice(args["preserve_env"])
	if err != nil {
		return nil, fmt.Errorf("preserve_env parameter: %w", err)
	}

	stdin := request.GetString("stdin", "")

	timeoutSec := s.config.Scope.CommandTimeoutSec
	if raw, ok := args["timeout_sec"].(float64); ok && raw > 0 {
		timeoutSec = int(raw)
	}

	s.logger.Info("scoped command requested",
		zap.Strings("argv", argv),
		zap.Int("env_overrides", len(env)),
		zap.Strings("preserve_env", preserveEnv))

	result, err := s.executor.Execute(ctx, sandbox.CommandRequest{
		Argv:        argv,
		Env:         env,
		PreserveEnv: preserveEnv,
		Stdin:       stdin,
		TimeoutSec:  timeoutSec,
	})
	if err != nil {
		s.logger.Error("scoped command failed",
			zap.Error(err),
			zap.Strings("argv", argv))
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf("Execution failed: %v", err),
				},
			},
			IsError: true,
		}, nil
	}

	s.logger.Info("scoped command completed",
		zap.Strings("argv", argv),
		zap.Int("exit_code", result.ExitCode),
		zap.Int("stdout_len", len(result.Stdout)),
		zap.Int("stderr_len", len(result.Stderr)))

	return jsonResult(commandReport{
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
		ExitCode: result.ExitCode,
		ScopeDir: result.Dir,
	})
}

// handleScopeProbe handles the scope_probe tool
func (s *MCPServer) handleScopeProbe(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.probe()
	if err != nil {
		s.logger.Error("scope probe failed", zap.Error(err))
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf("Probe failed: %v", err),
				},
			},
			IsError: true,
		}, nil
	}

	s.logger.Info("scope probe completed",
		zap.String("scope_dir", report.ScopeDir),
		zap.Bool("restored", report.Restored))

	return jsonResult(report)
}

// defaultScopeProbe opens a real scope, records its state, and closes it.
func defaultScopeProbe() (probeReport, error) {
	var report probeReport
	err := sandbox.Run(func(scope *sandbox.EnvScope) error {
		report.ScopeDir = scope.Dir()
		report.OriginalDir = scope.OriginalDir()
		return nil
	})
	if err != nil {
		return probeReport{}, err
	}

	wd, err := os.Getwd()
	if err != nil {
		return probeReport{}, err
	}
	report.Restored = wd == report.OriginalDir
	return report, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: string(data),
			},
		},
	}, nil
}

func stringSlice(v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected an array of strings, got %T", v)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string element, got %T", item)
		}
		out = append(out, s)
	}
	return out, nil
}

func stringMap(v any) (map[string]string, error) {
	if v == nil {
		return nil, nil
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object of strings, got %T", v)
	}
	out := make(map[string]string, len(raw))
	for key, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string value for %s, got %T", key, item)
		}
		out[key] = s
	}
	return out, nil
}

// ServeStdio starts the server on stdio
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP starts the server on HTTP
func (s *MCPServer) ServeHTTP() error {
	port := s.config.Server.HTTPPort
	s.logger.Info("starting MCP server on HTTP", zap.Int("port", port))

	httpServer := server.NewStreamableHTTPServer(s.mcpServer)
	return httpServer.Start(fmt.Sprintf(":%d", port))
}

// GetMCPServer returns the underlying MCP server for fx
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
