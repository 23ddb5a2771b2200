package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isdmx/envbox/config"
	"github.com/isdmx/envbox/sandbox"
)

// MockCommandExecutor implements sandbox.CommandExecutor for testing
type MockCommandExecutor struct {
	result      sandbox.CommandResult
	err         error
	lastRequest sandbox.CommandRequest
}

func (m *MockCommandExecutor) Execute(_ context.Context, req sandbox.CommandRequest) (sandbox.CommandResult, error) {
	m.lastRequest = req
	return m.result, m.err
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Transport: "stdio", HTTPPort: 8080},
		Scope: config.ScopeConfig{
			DirPattern:        "envbox-*",
			CommandTimeoutSec: 30,
		},
		Logging: config.LoggingConfig{Mode: "production", Level: "info"},
	}
}

func toolRequest(args map[string]any) mcp.CallToolRequest {
	request := mcp.CallToolRequest{}
	request.Params.Arguments = args
	return request
}

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	content, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return content.Text
}

func TestNewMCPServer(t *testing.T) {
	executor := &MockCommandExecutor{}
	srv, err := New(testConfig(), zaptest.NewLogger(t), executor)
	require.NoError(t, err)
	require.NotNil(t, srv)
	assert.Equal(t, executor, srv.executor)
	assert.NotNil(t, srv.GetMCPServer())
}

func TestHandleRunScopedCommand(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		executor := &MockCommandExecutor{
			result: sandbox.CommandResult{
				Stdout:   "hello\n",
				ExitCode: 0,
				Dir:      "/tmp/envbox-abc",
			},
		}
		srv, err := New(testConfig(), zaptest.NewLogger(t), executor)
		require.NoError(t, err)

		result, err := srv.handleRunScopedCommand(context.Background(), toolRequest(map[string]any{
			"argv":         []any{"echo", "hello"},
			"env":          map[string]any{"GREETING": "hello"},
			"preserve_env": []any{"GREETING"},
			"stdin":        "unused",
		}))
		require.NoError(t, err)
		require.False(t, result.IsError)

		var report commandReport
		require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &report))
		assert.Equal(t, "hello\n", report.Stdout)
		assert.Equal(t, 0, report.ExitCode)
		assert.Equal(t, "/tmp/envbox-abc", report.ScopeDir)

		assert.Equal(t, []string{"echo", "hello"}, executor.lastRequest.Argv)
		assert.Equal(t, map[string]string{"GREETING": "hello"}, executor.lastRequest.Env)
		assert.Equal(t, []string{"GREETING"}, executor.lastRequest.PreserveEnv)
		assert.Equal(t, "unused", executor.lastRequest.Stdin)
		// Timeout falls back to the server configuration.
		assert.Equal(t, 30, executor.lastRequest.TimeoutSec)
	})

	t.Run("MissingArgv", func(t *testing.T) {
		srv, err := New(testConfig(), zaptest.NewLogger(t), &MockCommandExecutor{})
		require.NoError(t, err)

		_, err = srv.handleRunScopedCommand(context.Background(), toolRequest(map[string]any{}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "argv")
	})

	t.Run("NonStringArgv", func(t *testing.T) {
		srv, err := New(testConfig(), zaptest.NewLogger(t), &MockCommandExecutor{})
		require.NoError(t, err)

		_, err = srv.handleRunScopedCommand(context.Background(), toolRequest(map[string]any{
			"argv": []any{"echo", 42},
		}))
		require.Error(t, err)
	})

	t.Run("ExecutorError", func(t *testing.T) {
		executor := &MockCommandExecutor{err: errors.New("scope lock wedged")}
		srv, err := New(testConfig(), zaptest.NewLogger(t), executor)
		require.NoError(t, err)

		result, err := srv.handleRunScopedCommand(context.Background(), toolRequest(map[string]any{
			"argv": []any{"true"},
		}))
		require.NoError(t, err)
		require.True(t, result.IsError)
		assert.Contains(t, textContent(t, result), "scope lock wedged")
	})
}

func TestHandleScopeProbe(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv, err := New(testConfig(), zaptest.NewLogger(t), &MockCommandExecutor{})
		require.NoError(t, err)
		srv.probe = func() (probeReport, error) {
			return probeReport{
				ScopeDir:    "/tmp/envbox-probe",
				OriginalDir: "/home/original",
				Restored:    true,
			}, nil
		}

		result, err := srv.handleScopeProbe(context.Background(), mcp.CallToolRequest{})
		require.NoError(t, err)
		require.False(t, result.IsError)

		var report probeReport
		require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &report))
		assert.True(t, report.Restored)
		assert.Equal(t, "/tmp/envbox-probe", report.ScopeDir)
	})

	t.Run("Failure", func(t *testing.T) {
		srv, err := New(testConfig(), zaptest.NewLogger(t), &MockCommandExecutor{})
		require.NoError(t, err)
		srv.probe = func() (probeReport, error) {
			return probeReport{}, errors.New("temp storage unavailable")
		}

		result, err := srv.handleScopeProbe(context.Background(), mcp.CallToolRequest{})
		require.NoError(t, err)
		require.True(t, result.IsError)
		assert.Contains(t, textContent(t, result), "temp storage unavailable")
	})

	t.Run("DefaultProbeUsesRealScope", func(t *testing.T) {
		report, err := defaultScopeProbe()
		require.NoError(t, err)
		assert.True(t, report.Restored)
		assert.NotEmpty(t, report.ScopeDir)
		assert.NotEqual(t, report.OriginalDir, report.ScopeDir)
	})
}

func TestArgumentHelpers(t *testing.T) {
	t.Run("StringSlice", func(t *testing.T) {
		out, err := stringSlice([]any{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, out)

		out, err = stringSlice(nil)
		require.NoError(t, err)
		assert.Nil(t, out)

		_, err = stringSlice("not-an-array")
		require.Error(t, err)
	})

	t.Run("StringMap", func(t *testing.T) {
		out, err := stringMap(map[string]any{"K": "v"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"K": "v"}, out)

		out, err = stringMap(nil)
		require.NoError(t, err)
		assert.Nil(t, out)

		_, err = stringMap(map[string]any{"K": 1})
		require.Error(t, err)
	})
}
