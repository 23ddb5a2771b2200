// Package mcpserver provides the Model Context Protocol (MCP) server
// implementation.
//
// The mcpserver package exposes the hermetic scope machinery over MCP using
// the mark3labs/mcp-go library. The run_scoped_command tool executes a
// command inside a fresh working-directory and environment scope; the
// scope_probe tool opens and closes an empty scope as a health check for the
// restore machinery.
package mcpserver
