// Package main is the entry point for the envbox MCP server.
//
// The envbox server exposes hermetic scoped command execution over the Model
// Context Protocol: each command runs in a fresh ephemeral working directory
// with an isolated environment table, and both are restored when the command
// finishes. The server supports stdio and HTTP transports.
//
// The application uses Uber's fx framework for dependency injection and
// lifecycle management, with zap for structured logging and viper for
// configuration.
package main
