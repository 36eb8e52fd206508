package mcp

import (
	"context"
	"fmt"
	"io"
	"os"

	"taskprompt/internal/config"
	"taskprompt/internal/logging"
	"taskprompt/internal/prompts"
	"taskprompt/internal/templates"

	"github.com/mark3labs/mcp-go/server"
)

const (
	ServerName    = "taskprompt"
	ServerVersion = "0.1.0"
)

// Server represents an MCP server instance using mcp-go
type Server struct {
	config    *config.Config
	logger    *logging.AppLogger
	loader    *templates.Loader
	builder   *prompts.Builder
	registry  *promptRegistry
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance. Nothing is registered until
// Setup or Start is called.
func NewServer(cfg *config.Config, loader *templates.Loader, builder *prompts.Builder, logger *logging.AppLogger) *Server {
	if logger == nil {
		logger = logging.GetDefault()
	}
	return &Server{
		config:  cfg,
		logger:  logger.With("component", "mcp"),
		loader:  loader,
		builder: builder,
	}
}

// Setup creates the mcp-go server and registers prompts and tools.
func (s *Server) Setup(ctx context.Context) error {
	if s.loader == nil || s.builder == nil {
		return fmt.Errorf("template loader not initialized")
	}

	s.mcpServer = server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithPromptCapabilities(true),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	registry, err := s.discoverPrompts(ctx)
	if err != nil {
		return fmt.Errorf("failed to discover prompt templates: %w", err)
	}
	s.registry = registry

	for _, entry := range registry.entries() {
		s.mcpServer.AddPrompt(entry.definition(), s.promptHandler(entry))
	}
	s.registerTools()

	s.logger.Info("MCP server configured",
		"templatesDir", s.templatesDir(),
		"prompts", registry.len())
	return nil
}

// Start sets the server up and serves stdio until ctx ends or stdin closes.
func (s *Server) Start(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve sets the server up and speaks JSON-RPC over in and out.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	if err := s.Setup(ctx); err != nil {
		return err
	}

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(s.logger.StandardLog())

	s.logger.Info("MCP server listening on stdio")
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	s.logger.Info("MCP server stopped")
	return nil
}

func (s *Server) templatesDir() string {
	if s.config == nil {
		return ""
	}
	return s.config.TemplatesDir
}
