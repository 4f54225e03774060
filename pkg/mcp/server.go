// Package mcp exposes the fixers as MCP tools over stdio.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/propfix/pkg/infer"
	"github.com/gnana997/propfix/pkg/lint"
	"github.com/gnana997/propfix/pkg/transform"
)

const serverVersion = "0.1.0-dev"

// Fixers are the lint-driven fixers. A nil driver makes its tool report
// an error.
type Fixers struct {
	Hooks  *lint.Driver
	Unused *lint.Driver
}

// Server implements the MCP server for propfix.
type Server struct {
	mcpServer   *server.MCPServer
	transformer *transform.Transformer
	inferencer  *infer.Inferencer
	fixers      Fixers
	calls       *CallLog
	logger      *slog.Logger
}

// NewServer creates a server over tr. A nil inferencer uses the built-in
// tables; a nil call log disables call logging.
func NewServer(tr *transform.Transformer, in *infer.Inferencer, fixers Fixers, calls *CallLog, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if in == nil {
		in = infer.New(nil)
	}
	s := &Server{
		transformer: tr,
		inferencer:  in,
		fixers:      fixers,
		calls:       calls,
		logger:      logger,
	}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if calls != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.callLogMiddleware()))
	}
	s.mcpServer = server.NewMCPServer("propfix", serverVersion, opts...)
	s.mcpServer.AddTools(s.tools()...)

	return s
}

func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: transformPathTool(), Handler: s.handleTransformPath},
		{Tool: previewPropTypesTool(), Handler: s.handlePreviewPropTypes},
		{Tool: inferPropTypeTool(), Handler: s.handleInferPropType},
		{Tool: fixHooksDepsTool(), Handler: s.handleFixHooksDeps},
		{Tool: fixUnusedImportsTool(), Handler: s.handleFixUnusedImports},
	}
}

// ServeStdio serves on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
