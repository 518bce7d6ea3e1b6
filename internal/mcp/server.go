// Package mcp exposes product search and needs lists as MCP tools.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/services"
)

// Tools holds what the tool handlers call into.
type Tools struct {
	Resolver *services.Resolver
	Lists    *services.ListService
	Adder    *services.Adder
	// Token is the session used when a call does not pass one.
	Token string
}

// NewServer returns an MCP server with every tool registered.
func NewServer(t *Tools) *server.MCPServer {
	s := server.NewMCPServer(
		"myneedfully-search",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	t.register(s)
	return s
}

// Serve runs the MCP stdio server until stdin closes.
func Serve(t *Tools) error {
	return server.ServeStdio(NewServer(t))
}
