package cli

import (
	"context"
	"errors"
	"sync"

	internalApp "github.com/felixgeelhaar/tasktrack/internal/app"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/application/commands"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/application/queries"
)

// ErrNotInitialized is returned when a command needs storage and no
// application could be built.
var ErrNotInitialized = errors.New("application not initialized - storage connection required")

// App holds the CLI application dependencies.
type App struct {
	// Task Command Handlers
	CreateTaskHandler *commands.CreateTaskHandler
	UpdateTaskHandler *commands.UpdateTaskHandler
	DeleteTaskHandler *commands.DeleteTaskHandler

	// Task Query Handlers
	ListTasksHandler *queries.ListTasksHandler
	GetTaskHandler   *queries.GetTaskHandler

	// Container is nil when the app was assembled by hand.
	Container *internalApp.Container
}

// NewApp creates the CLI application from a wired container.
func NewApp(c *internalApp.Container) *App {
	return &App{
		CreateTaskHandler: c.CreateTaskHandler,
		UpdateTaskHandler: c.UpdateTaskHandler,
		DeleteTaskHandler: c.DeleteTaskHandler,
		ListTasksHandler:  c.ListTasksHandler,
		GetTaskHandler:    c.GetTaskHandler,
		Container:         c,
	}
}

// AppFactory builds the application on first use.
type AppFactory func(ctx context.Context) (*App, error)

var (
	appMu   sync.Mutex
	app     *App
	factory AppFactory
)

// SetApp sets the application directly.
func SetApp(a *App) {
	appMu.Lock()
	defer appMu.Unlock()
	app = a
}

// SetAppFactory registers the function that builds the application the
// first time a command asks for it.
func SetAppFactory(f AppFactory) {
	appMu.Lock()
	defer appMu.Unlock()
	factory = f
}

// GetApp returns the application, building it on first use.
func GetApp(ctx context.Context) (*App, error) {
	appMu.Lock()
	defer appMu.Unlock()
	if app != nil {
		return app, nil
	}
	if factory == nil {
		return nil, ErrNotInitialized
	}
	a, err := factory(ctx)
	if err != nil {
		return nil, err
	}
	app = a
	return app, nil
}
