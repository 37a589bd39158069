package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragchat/internal/agent"
)

// Server is an MCP server over a set of agent tools.
type Server struct {
	mcp     *mcp.Server
	tools   []agent.Tool
	metrics *Metrics
	logger  *zap.Logger
}

// Config configures the MCP server.
type Config struct {
	// Name is the server implementation name (default: "ragchat")
	Name string

	// Version is the server version (default: "dev")
	Version string

	Logger *zap.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "ragchat",
		Version: "dev",
		Logger:  zap.NewNop(),
	}
}

// NewServer registers every tool on a new MCP server.
func NewServer(cfg *Config, tools []agent.Tool) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if len(tools) == 0 {
		return nil, fmt.Errorf("at least one tool is required")
	}

	s := &Server{
		mcp:     mcp.NewServer(&mcp.Implementation{Name: cfg.Name, Version: cfg.Version}, nil),
		tools:   tools,
		metrics: NewMetrics(cfg.Logger),
		logger:  cfg.Logger,
	}
	for _, t := range tools {
		s.registerTool(t)
	}
	return s, nil
}

// Run starts the MCP server on the stdio transport.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server on stdio transport", zap.Int("tools", len(s.tools)))
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}
