package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool is one tool advertised by a connected server, with the schema it
// declared over tools/list.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
	Server      string
}

// Session is one live connection to a tool-providing server. It is created
// by the registry on connect, reused for every call and closed on
// disconnect.
type Session struct {
	server  string
	kind    string
	session *mcp.ClientSession
	tools   []Tool
	logger  *slog.Logger
}

func connect(ctx context.Context, name string, transport Transport, logger *slog.Logger) (*Session, error) {
	cs, err := transport.Connect(ctx)
	if err != nil {
		return nil, &TransportError{Server: name, Op: "connect", Err: err}
	}

	s := &Session{server: name, kind: transport.Kind(), session: cs, logger: logger}

	if err := s.listTools(ctx); err != nil {
		cs.Close()
		return nil, err
	}

	logger.Info("Connected to server", "server", name, "transport", s.kind, "tools", len(s.tools))
	return s, nil
}

// listTools fetches the advertised tool list once, at connect time.
func (s *Session) listTools(ctx context.Context) error {
	result, err := s.session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return &TransportError{Server: s.server, Op: "tools/list", Err: err}
	}

	s.tools = make([]Tool, 0, len(result.Tools))
	for _, t := range result.Tools {
		schema := map[string]any{}
		if t.InputSchema != nil {
			if m, ok := t.InputSchema.(map[string]any); ok {
				schema = m
			}
		}
		s.tools = append(s.tools, Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
			Server:      s.server,
		})
	}
	return nil
}

// Tools returns the advertised tools in the order the server listed them.
func (s *Session) Tools() []Tool {
	return s.tools
}

// Call invokes a tool and returns its textual result: every text-bearing
// content part concatenated in order with newline separators. A remote
// error payload surfaces as a TransportError carrying the message.
func (s *Session) Call(ctx context.Context, name string, arguments map[string]any) (string, error) {
	result, err := s.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: arguments,
	})
	if err != nil {
		return "", &TransportError{Server: s.server, Op: "tools/call " + name, Err: err}
	}

	text := joinTextContent(result.Content)
	if result.IsError {
		msg := text
		if msg == "" {
			msg = "tool reported an error"
		}
		return "", &TransportError{Server: s.server, Op: "tools/call " + name, Err: fmt.Errorf("%s", msg)}
	}
	return text, nil
}

// Close terminates the session and its transport.
func (s *Session) Close() error {
	if err := s.session.Close(); err != nil {
		return &TransportError{Server: s.server, Op: "close", Err: err}
	}
	return nil
}

func joinTextContent(content []mcp.Content) string {
	var parts []string
	for _, c := range content {
		if tc, ok := c.(*mcp.TextContent); ok && tc.Text != "" {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
