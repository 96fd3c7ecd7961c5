// Package mcp is the "tasktrack mcp" command group.
package mcp

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tasktrack/adapter/cli"
	mcplocal "github.com/felixgeelhaar/tasktrack/adapter/mcp"
	"github.com/felixgeelhaar/tasktrack/internal/app"
	mcpinternal "github.com/felixgeelhaar/tasktrack/internal/mcp"
)

// Cmd groups the MCP subcommands.
var Cmd = &cobra.Command{
	Use:   "mcp",
	Short: "Manage the tasktrack MCP interface",
}

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Expose the task operations as MCP tools over HTTP. When MCP_AUTH_TOKEN
is set every request must carry it as a bearer token.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := cli.Config()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.MCPAddr = serveAddr
		}
		logger := cli.Logger()

		container, err := app.NewContainer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer container.Close()

		if cfg.OutboxProcessorEnabled {
			if err := container.StartOutboxProcessor(ctx); err != nil {
				return err
			}
		}

		err = mcpinternal.Serve(ctx, cfg, mcplocal.DependenciesFromContainer(container), cli.Version, logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	Cmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides MCP_ADDR)")
}
