package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tasktrack/adapter/api"
	internalApp "github.com/felixgeelhaar/tasktrack/internal/app"
	"github.com/felixgeelhaar/tasktrack/pkg/observability"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the task API over HTTP until SIGINT or SIGTERM.

Pending migrations are applied before the task routes are attached. Outside
production a storage failure is logged and the routes answer 503.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := Config()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		log := Logger()

		health := observability.NewHealthRegistry()
		metrics := observability.NewInMemoryMetrics()
		var backend *api.TaskBackend

		container, err := internalApp.NewContainer(ctx, c, log)
		switch {
		case err == nil:
			defer container.Close()
			health = container.Health
			metrics = container.Metrics
			backend = api.BackendFromContainer(container)
			if c.OutboxProcessorEnabled {
				if err := container.StartOutboxProcessor(ctx); err != nil {
					return err
				}
			}
		case c.IsProduction():
			return err
		default:
			log.Error("storage unavailable, task routes will answer 503", "error", err)
			health.Register("database", storageDownChecker(err))
		}

		handler := api.NewTaskHandler(api.TaskHandlerConfig{
			Logger:            log,
			Metrics:           metrics,
			ExposeErrorDetail: !c.IsProduction(),
		})
		if backend != nil {
			handler.Attach(backend)
		}

		addr := c.HTTPAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		serverCfg := api.DefaultServerConfig()
		serverCfg.Addr = addr
		server := api.NewServer(serverCfg, handler, health, metrics, log)

		errCh := make(chan error, 1)
		go func() {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		handler.Detach()
		return nil
	},
}

func storageDownChecker(cause error) observability.HealthChecker {
	return func(ctx context.Context) observability.HealthCheckResult {
		return observability.HealthCheckResult{
			Status:  observability.HealthStatusUnhealthy,
			Message: cause.Error(),
		}
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
