// Package mcp hosts the task tools over MCP's streamable HTTP transport.
package mcp

import (
	"context"
	"errors"
	"log/slog"

	mcpgo "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/middleware"

	mcplocal "github.com/felixgeelhaar/tasktrack/adapter/mcp"
	"github.com/felixgeelhaar/tasktrack/pkg/config"
)

// ServerName identifies the server to MCP clients.
const ServerName = "tasktrack-mcp"

// NewServer registers the task tools, resources and prompts on a fresh
// server. Only a tool registration failure is fatal.
func NewServer(deps mcplocal.ToolDependencies, version string, logger *slog.Logger) (*mcpgo.Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if version == "" {
		version = "dev"
	}

	srv := mcpgo.NewServer(mcpgo.ServerInfo{
		Name:    ServerName,
		Version: version,
		Capabilities: mcpgo.Capabilities{
			Tools:     true,
			Resources: true,
			Prompts:   true,
		},
	})

	if err := mcplocal.RegisterTools(srv, deps); err != nil {
		return nil, err
	}
	// Tools are the core surface; resources and prompts are optional extras.
	if err := mcplocal.RegisterResources(srv, deps); err != nil {
		logger.Warn("failed to register MCP resources", "error", err)
	}
	if err := mcplocal.RegisterPrompts(srv, deps); err != nil {
		logger.Warn("failed to register MCP prompts", "error", err)
	}
	return srv, nil
}

// Serve listens on cfg.MCPAddr until ctx ends. When cfg.MCPAuthToken is
// set every request must carry it as a bearer token.
func Serve(ctx context.Context, cfg *config.Config, deps mcplocal.ToolDependencies, version string, logger *slog.Logger) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	srv, err := NewServer(deps, version, logger)
	if err != nil {
		return err
	}

	logger.Info("mcp server listening", "addr", cfg.MCPAddr)
	return mcpgo.ServeHTTPWithMiddleware(ctx, srv, cfg.MCPAddr, nil, mcpgo.WithMiddleware(middlewareStack(cfg.MCPAuthToken, logger)...))
}

// middlewareStack is the library default stack, preceded by bearer auth
// when token is non-empty.
func middlewareStack(token string, logger *slog.Logger) []middleware.Middleware {
	log := slogAdapter{logger}
	stack := middleware.DefaultStack(log)
	if token == "" {
		logger.Warn("MCP auth token not set; requests will be unauthenticated")
		return stack
	}

	tokens := middleware.StaticTokens(map[string]*middleware.Identity{token: {ID: "mcp", Name: "mcp"}})
	auth := middleware.Auth(middleware.BearerTokenAuthenticator(tokens), middleware.WithAuthLogger(log))
	return append([]middleware.Middleware{auth}, stack...)
}

// slogAdapter satisfies the middleware logger with slog.
type slogAdapter struct {
	l *slog.Logger
}

func (a slogAdapter) Debug(msg string, fields ...middleware.Field) { a.l.Debug(msg, fieldsToArgs(fields)...) }
func (a slogAdapter) Info(msg string, fields ...middleware.Field)  { a.l.Info(msg, fieldsToArgs(fields)...) }
func (a slogAdapter) Warn(msg string, fields ...middleware.Field)  { a.l.Warn(msg, fieldsToArgs(fields)...) }
func (a slogAdapter) Error(msg string, fields ...middleware.Field) { a.l.Error(msg, fieldsToArgs(fields)...) }

func fieldsToArgs(fields []middleware.Field) []any {
	args := make([]any, 0, 2*len(fields))
	for _, f := range fields {
		args = append(args, f.Key, f.Value)
	}
	return args
}
