package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/felixgeelhaar/tasktrack/adapter/cli"
	"github.com/felixgeelhaar/tasktrack/adapter/cli/events"
	"github.com/felixgeelhaar/tasktrack/adapter/cli/mcp"
	"github.com/felixgeelhaar/tasktrack/adapter/cli/task"
	"github.com/felixgeelhaar/tasktrack/internal/app"
	"github.com/felixgeelhaar/tasktrack/pkg/config"
	"github.com/felixgeelhaar/tasktrack/pkg/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat, cli.Version))
	cli.SetLogger(logger)
	cli.SetConfig(cfg)

	// The container is only built for commands that touch storage.
	var (
		mu        sync.Mutex
		container *app.Container
	)
	cli.SetAppFactory(func(ctx context.Context) (*cli.App, error) {
		c, err := app.NewContainer(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		mu.Lock()
		container = c
		mu.Unlock()
		return cli.NewApp(c), nil
	})

	cli.AddCommand(task.Cmd)
	cli.AddCommand(mcp.Cmd)
	cli.AddCommand(events.Cmd)

	err = cli.Execute(ctx)

	mu.Lock()
	if container != nil {
		container.Close()
	}
	mu.Unlock()

	if err != nil {
		os.Exit(1)
	}
}
