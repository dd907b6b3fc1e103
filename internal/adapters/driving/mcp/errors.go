// Package mcp provides an MCP (Model Context Protocol) server adapter for medivault.
// It lets AI assistants ask questions about the records and read them directly.
package mcp

import "errors"

// ErrMissingAssistantService is returned when the assistant service is not provided.
var ErrMissingAssistantService = errors.New("mcp: assistant service is required")
