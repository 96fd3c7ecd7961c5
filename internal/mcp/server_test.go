package mcp

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/mcp-go/middleware"
	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcplocal "github.com/felixgeelhaar/tasktrack/adapter/mcp"
	"github.com/felixgeelhaar/tasktrack/pkg/observability"
)

func TestNewServer_RegistersTaskTools(t *testing.T) {
	srv, err := NewServer(mcplocal.ToolDependencies{}, "", observability.Discard())
	require.NoError(t, err)

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)
	assert.Len(t, tools, 5)
}

func TestServe_RequiresConfig(t *testing.T) {
	err := Serve(context.Background(), nil, mcplocal.ToolDependencies{}, "", observability.Discard())
	assert.EqualError(t, err, "config is required")
}

func TestFieldsToArgs(t *testing.T) {
	args := fieldsToArgs([]middleware.Field{
		{Key: "tool", Value: "task.create"},
		{Key: "duration_ms", Value: 12},
	})

	assert.Equal(t, []any{"tool", "task.create", "duration_ms", 12}, args)
}

func TestMiddlewareStack_PrependsAuth(t *testing.T) {
	open := middlewareStack("", observability.Discard())
	guarded := middlewareStack("secret", observability.Discard())

	assert.Len(t, guarded, len(open)+1)
}
