// Package session owns the connections to tool-providing MCP servers: one
// transport per server, one long-lived client session per transport, and a
// flat registry of every advertised tool.
package session

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const clientName = "agenkampus"
const clientVersion = "0.1.0"

// Transport dials one MCP server and yields an initialized client session.
// Implementations cover spawned-process stdio and streamable HTTP; tests
// plug in the SDK's in-memory transport pair through DirectTransport.
type Transport interface {
	Connect(ctx context.Context) (*mcp.ClientSession, error)
	Kind() string
}

func newClient() *mcp.Client {
	return mcp.NewClient(&mcp.Implementation{Name: clientName, Version: clientVersion}, nil)
}

// StdioTransport spawns a local server process and speaks MCP over its
// standard streams.
type StdioTransport struct {
	Command string
	Args    []string
	Env     map[string]string
}

func (t *StdioTransport) Kind() string { return "stdio" }

func (t *StdioTransport) Connect(ctx context.Context) (*mcp.ClientSession, error) {
	if t.Command == "" {
		return nil, fmt.Errorf("stdio transport requires a command")
	}

	cmd := exec.Command(t.Command, t.Args...)
	if len(t.Env) > 0 {
		env := os.Environ()
		for k, v := range t.Env {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
		cmd.Env = env
	}

	return newClient().Connect(ctx, &mcp.CommandTransport{Command: cmd}, nil)
}

// StreamableTransport opens a persistent streamable-HTTP connection to a
// remote server. ConnectTimeout bounds connection establishment;
// ReadTimeout bounds idle time on the long-lived stream, which may sit
// quiet between events.
type StreamableTransport struct {
	URL            string
	Headers        map[string]string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

func (t *StreamableTransport) Kind() string { return "http" }

func (t *StreamableTransport) Connect(ctx context.Context) (*mcp.ClientSession, error) {
	if t.URL == "" {
		return nil, fmt.Errorf("http transport requires a url")
	}

	connectTimeout := t.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}
	readTimeout := t.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 5 * time.Minute
	}

	httpClient := &http.Client{
		Transport: &headerRoundTripper{
			headers: t.Headers,
			next: &http.Transport{
				ResponseHeaderTimeout: connectTimeout,
				IdleConnTimeout:       readTimeout,
			},
		},
	}

	transport := &mcp.StreamableClientTransport{
		Endpoint:   t.URL,
		HTTPClient: httpClient,
		MaxRetries: 5,
	}
	return newClient().Connect(ctx, transport, nil)
}

// headerRoundTripper injects static headers (auth tokens and the like) into
// every request of the streamable connection.
type headerRoundTripper struct {
	headers map[string]string
	next    http.RoundTripper
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(h.headers) > 0 {
		req = req.Clone(req.Context())
		for k, v := range h.headers {
			req.Header.Set(k, v)
		}
	}
	return h.next.RoundTrip(req)
}

// DirectTransport adapts an already-constructed SDK transport, typically an
// in-memory pipe to an in-process server. It is the trivial transport: no
// spawning, no network.
type DirectTransport struct {
	Transport mcp.Transport
}

func (t *DirectTransport) Kind() string { return "direct" }

func (t *DirectTransport) Connect(ctx context.Context) (*mcp.ClientSession, error) {
	return newClient().Connect(ctx, t.Transport, nil)
}
