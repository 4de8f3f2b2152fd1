package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tallyforge/erpd/internal/erp"
	"github.com/tallyforge/erpd/internal/logging"
	"github.com/tallyforge/erpd/internal/session"
)

// Server exposes the operation catalog over the MCP stdio transport.
type Server struct {
	mcp      *mcp.Server
	ops      *erp.Service
	sessions *session.Manager
	metrics  *Metrics
	logger   *logging.Logger
}

// Config configures the MCP server.
type Config struct {
	// Name is the server implementation name (default: "erpd").
	Name string

	// Version is the advertised server version (default: "1.0.0").
	Version string

	// Logger for structured logging. Must never write to stdout.
	Logger *logging.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "erpd",
		Version: "1.0.0",
		Logger:  logging.NewNop(),
	}
}

// NewServer creates an MCP server bound to the given operation service and
// session manager.
func NewServer(cfg *Config, ops *erp.Service, sessions *session.Manager) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if ops == nil {
		return nil, fmt.Errorf("operation service is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		},
		nil,
	)

	s := &Server{
		mcp:      mcpServer,
		ops:      ops,
		sessions: sessions,
		metrics:  NewMetrics(cfg.Logger),
		logger:   cfg.Logger,
	}
	s.registerTools()

	return s, nil
}

// Run serves the MCP protocol on the stdio transport until the context is
// cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info(ctx, "starting MCP server on stdio transport")
	transport := &mcp.StdioTransport{}
	if err := s.mcp.Run(ctx, transport); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}

// Close releases the backend session.
func (s *Server) Close() error {
	s.sessions.Disconnect(context.Background())
	return nil
}

// registerTools registers the full tool catalog.
func (s *Server) registerTools() {
	s.registerAuthTools()
	s.registerDocumentTools()
	s.registerSalesTools()
}
