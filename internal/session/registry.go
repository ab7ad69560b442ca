package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrUnknownTool reports a call for a tool name no connected server
// advertises. The agent loop feeds it back to the decision model as an
// observation so the model can self-correct.
var ErrUnknownTool = errors.New("unknown tool")

// TransportError wraps a connection, handshake or call failure on one
// server's transport.
type TransportError struct {
	Server string
	Op     string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("server %s: %s: %v", e.Server, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerSpec names one configured server and the transport to reach it.
type ServerSpec struct {
	Name      string
	Transport Transport
}

const defaultCallTimeout = 10 * time.Second

// Registry connects to all configured servers, merges their advertised
// tools into one flat table keyed by tool name, and routes calls to the
// owning session. Connections are established once and shared read-mostly
// across concurrent queries; the mutex only guards the connect and
// disconnect transitions.
type Registry struct {
	mu          sync.Mutex
	logger      *slog.Logger
	callTimeout time.Duration

	sessions  []*Session
	byName    map[string]*binding
	toolOrder []string
}

type binding struct {
	tool    Tool
	session *Session
}

// NewRegistry creates an empty registry. callTimeout bounds each tool
// invocation when the caller's context carries no deadline; zero applies
// the default of a few seconds.
func NewRegistry(logger *slog.Logger, callTimeout time.Duration) *Registry {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	return &Registry{
		logger:      logger,
		callTimeout: callTimeout,
		byName:      make(map[string]*binding),
	}
}

// ConnectAll establishes exactly one session per spec, performs the
// handshake and tool listing, and merges every advertised tool into the
// flat table. A second call while sessions exist is a no-op. Any connect
// failure closes the sessions opened so far and is returned: startup fails
// loudly when a declared server cannot be reached.
func (r *Registry) ConnectAll(ctx context.Context, specs []ServerSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sessions) > 0 {
		r.logger.Debug("Sessions already established", "servers", len(r.sessions))
		return nil
	}

	for _, spec := range specs {
		s, err := connect(ctx, spec.Name, spec.Transport, r.logger)
		if err != nil {
			r.closeAllLocked()
			return fmt.Errorf("connect %s: %w", spec.Name, err)
		}
		r.sessions = append(r.sessions, s)

		for _, tool := range s.Tools() {
			if existing, ok := r.byName[tool.Name]; ok {
				// Last registered server wins.
				r.logger.Warn("Tool name collision, overriding",
					"tool", tool.Name,
					"previous", existing.tool.Server,
					"server", tool.Server)
			} else {
				r.toolOrder = append(r.toolOrder, tool.Name)
			}
			r.byName[tool.Name] = &binding{tool: tool, session: s}
		}
	}

	r.logger.Info("All servers connected", "servers", len(r.sessions), "tools", len(r.byName))
	return nil
}

// DisconnectAll closes every open session in reverse registration order,
// tolerating and logging individual close failures, then clears all
// registry state.
func (r *Registry) DisconnectAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeAllLocked()
}

func (r *Registry) closeAllLocked() {
	for i := len(r.sessions) - 1; i >= 0; i-- {
		s := r.sessions[i]
		if err := s.Close(); err != nil {
			r.logger.Warn("Error closing session", "server", s.server, "error", err)
		} else {
			r.logger.Info("Closed session", "server", s.server)
		}
	}
	r.sessions = nil
	r.byName = make(map[string]*binding)
	r.toolOrder = nil
}

// Tools returns every registered tool in first-registration order.
func (r *Registry) Tools() []Tool {
	r.mu.Lock()
	defer r.mu.Unlock()

	tools := make([]Tool, 0, len(r.toolOrder))
	for _, name := range r.toolOrder {
		tools = append(tools, r.byName[name].tool)
	}
	return tools
}

// Tool looks up one registered tool by name.
func (r *Registry) Tool(name string) (Tool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.byName[name]
	if !ok {
		return Tool{}, false
	}
	return b.tool, true
}

// Invoke routes a call to the session owning the named tool and returns
// the textual result. Unregistered names yield ErrUnknownTool; transport
// and remote failures yield a TransportError.
func (r *Registry) Invoke(ctx context.Context, name string, arguments map[string]any) (string, error) {
	r.mu.Lock()
	b, ok := r.byName[name]
	r.mu.Unlock()

	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.callTimeout)
		defer cancel()
	}

	r.logger.Info("Invoking tool", "tool", name, "server", b.tool.Server)
	return b.session.Call(ctx, name, arguments)
}
