package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type greetInput struct {
	Name string `json:"name" jsonschema:"Name to greet"`
}

type emptyInput struct{}

// newGreetServer advertises a single "greet" tool.
func newGreetServer(serverName, toolName string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: "test"}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        toolName,
		Description: "Greets a person by name.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input greetInput) (*mcp.CallToolResult, any, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "hello " + input.Name + " from " + serverName}},
		}, nil, nil
	})
	return server
}

// newMultiServer has one tool returning two text parts and one that always
// reports an error.
func newMultiServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "multi", Version: "test"}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "two_parts",
		Description: "Returns two text content parts.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, any, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: "part one"},
				&mcp.TextContent{Text: "part two"},
			},
		}, nil, nil
	})
	mcp.AddTool(server, &mcp.Tool{
		Name:        "always_fails",
		Description: "Always reports a tool error.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, any, error) {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: "boom"}},
		}, nil, nil
	})
	return server
}

// serve runs an in-process server over the SDK's in-memory transport pair
// and returns the client side wrapped as a Transport.
func serve(t *testing.T, server *mcp.Server) Transport {
	t.Helper()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	go func() {
		_ = server.Run(context.Background(), serverTransport)
	}()
	return &DirectTransport{Transport: clientTransport}
}

type failingTransport struct{}

func (failingTransport) Kind() string { return "failing" }

func (failingTransport) Connect(ctx context.Context) (*mcp.ClientSession, error) {
	return nil, fmt.Errorf("connection refused")
}

func TestConnectAll_MergesTools(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry(quietLogger(), 0)

	err := registry.ConnectAll(ctx, []ServerSpec{
		{Name: "alpha", Transport: serve(t, newGreetServer("alpha", "greet_alpha"))},
		{Name: "beta", Transport: serve(t, newGreetServer("beta", "greet_beta"))},
	})
	require.NoError(t, err)
	defer registry.DisconnectAll()

	tools := registry.Tools()
	require.Len(t, tools, 2)
	require.Equal(t, "greet_alpha", tools[0].Name)
	require.Equal(t, "alpha", tools[0].Server)
	require.Equal(t, "greet_beta", tools[1].Name)

	tool, ok := registry.Tool("greet_alpha")
	require.True(t, ok)
	require.Contains(t, tool.InputSchema, "properties")
}

func TestConnectAll_Idempotent(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry(quietLogger(), 0)

	err := registry.ConnectAll(ctx, []ServerSpec{
		{Name: "alpha", Transport: serve(t, newGreetServer("alpha", "greet"))},
	})
	require.NoError(t, err)
	defer registry.DisconnectAll()

	// Second call with different specs must be a no-op.
	err = registry.ConnectAll(ctx, []ServerSpec{
		{Name: "beta", Transport: serve(t, newGreetServer("beta", "other"))},
	})
	require.NoError(t, err)
	require.Len(t, registry.Tools(), 1)
}

func TestConnectAll_CollisionLastWins(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry(quietLogger(), 0)

	err := registry.ConnectAll(ctx, []ServerSpec{
		{Name: "first", Transport: serve(t, newGreetServer("first", "greet"))},
		{Name: "second", Transport: serve(t, newGreetServer("second", "greet"))},
	})
	require.NoError(t, err)
	defer registry.DisconnectAll()

	require.Len(t, registry.Tools(), 1)

	result, err := registry.Invoke(ctx, "greet", map[string]any{"name": "x"})
	require.NoError(t, err)
	require.Equal(t, "hello x from second", result)
}

func TestConnectAll_FailureAborts(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry(quietLogger(), 0)

	err := registry.ConnectAll(ctx, []ServerSpec{
		{Name: "good", Transport: serve(t, newGreetServer("good", "greet"))},
		{Name: "bad", Transport: failingTransport{}},
	})
	require.Error(t, err)

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, "bad", terr.Server)

	// Startup failed loudly: nothing stays registered.
	require.Empty(t, registry.Tools())
}

func TestInvoke(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry(quietLogger(), 0)

	err := registry.ConnectAll(ctx, []ServerSpec{
		{Name: "multi", Transport: serve(t, newMultiServer())},
	})
	require.NoError(t, err)
	defer registry.DisconnectAll()

	// Text-bearing parts are concatenated with newline separators.
	result, err := registry.Invoke(ctx, "two_parts", map[string]any{})
	require.NoError(t, err)
	require.Equal(t, "part one\npart two", result)
}

func TestInvoke_UnknownTool(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry(quietLogger(), 0)

	err := registry.ConnectAll(ctx, []ServerSpec{
		{Name: "multi", Transport: serve(t, newMultiServer())},
	})
	require.NoError(t, err)
	defer registry.DisconnectAll()

	_, err = registry.Invoke(ctx, "no_such_tool", nil)
	require.ErrorIs(t, err, ErrUnknownTool)
}

func TestInvoke_RemoteError(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry(quietLogger(), 0)

	err := registry.ConnectAll(ctx, []ServerSpec{
		{Name: "multi", Transport: serve(t, newMultiServer())},
	})
	require.NoError(t, err)
	defer registry.DisconnectAll()

	_, err = registry.Invoke(ctx, "always_fails", map[string]any{})
	require.Error(t, err)

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	require.Contains(t, terr.Error(), "boom")
}

func TestDisconnectAll_ClearsState(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry(quietLogger(), 0)

	err := registry.ConnectAll(ctx, []ServerSpec{
		{Name: "alpha", Transport: serve(t, newGreetServer("alpha", "greet"))},
	})
	require.NoError(t, err)
	require.Len(t, registry.Tools(), 1)

	registry.DisconnectAll()
	require.Empty(t, registry.Tools())

	_, err = registry.Invoke(ctx, "greet", nil)
	require.ErrorIs(t, err, ErrUnknownTool)

	// A registry can reconnect after a full disconnect.
	err = registry.ConnectAll(ctx, []ServerSpec{
		{Name: "beta", Transport: serve(t, newGreetServer("beta", "greet_again"))},
	})
	require.NoError(t, err)
	defer registry.DisconnectAll()
	require.Len(t, registry.Tools(), 1)
}
