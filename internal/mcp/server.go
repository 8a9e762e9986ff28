package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/JulieCB/tvb-root/internal/config"
	"github.com/JulieCB/tvb-root/internal/logging"
	"github.com/JulieCB/tvb-root/internal/ratelimit"
	"github.com/JulieCB/tvb-root/internal/workspace"
)

// Server wraps the MCP SDK server and exposes tsimport operations as tools.
type Server struct {
	server       *sdk.Server
	ws           *workspace.Workspace
	toolLimiters ratelimit.ToolLimiters
	logger       *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "tsimport")
	Version string // Server version
	Root    string // Project root directory
	// Settings defaults to config.Load() when nil.
	Settings *config.TsimportConfig
	// Logger receives operational logs. It must not write to stdout,
	// which carries the protocol.
	Logger *slog.Logger
}

// NewServer opens the workspace under cfg.Root and registers the tools.
func NewServer(cfg *Config) (*Server, error) {
	settings := cfg.Settings
	if settings == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		settings = loaded
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	ws, err := workspace.Open(cfg.Root, settings, logger)
	if err != nil {
		return nil, err
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		ws:           ws,
		toolLimiters: ratelimit.NewToolLimiters(),
		logger:       logger.With(logging.Component("mcp")),
	}
	s.registerTools()

	return s, nil
}

// Run serves over stdio until the client disconnects or the process is
// interrupted.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})

	if cerr := s.ws.Close(); cerr != nil {
		s.logger.Warn("closing workspace", logging.Error(cerr))
	}
	return err
}

// Close releases the workspace.
func (s *Server) Close() error {
	return s.ws.Close()
}
