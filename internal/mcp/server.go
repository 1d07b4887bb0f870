package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/sprouts/internal/ask"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Asker runs a conversation through the safety pipeline.
type Asker interface {
	Handle(ctx context.Context, endpoint string, req ask.Request) (*ask.Response, error)
}

// Server wraps an MCP server that exposes the kid-safe chat tools.
type Server struct {
	asker Asker
	mcp   *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(asker Asker) *Server {
	s := &Server{asker: asker}

	s.mcp = server.NewMCPServer(
		"sprouts",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(askKidSafeTool, s.handleAskKidSafe)
	s.mcp.AddTool(maskPIITool, s.handleMaskPII)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
