// Package agent runs the decide/invoke loop that answers a query: the
// retriever narrows the candidate tool set, an opaque decision model picks
// a tool or finalizes, and the session registry executes the call.
package agent

import (
	"context"
	"encoding/json"
)

// ToolInfo is the view of a tool presented to the decision model: name,
// description and the JSON-schema parameter map it advertised.
type ToolInfo struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a tool-call request emitted by the decision model. Arguments
// is the raw payload as emitted; normalization happens later.
type ToolCall struct {
	Name      string
	Arguments json.RawMessage
}

// Decision is one round's outcome: either a final answer or exactly one
// tool call.
type Decision struct {
	Answer string
	Call   *ToolCall
}

// Turn is one completed decide/observe cycle within a query.
type Turn struct {
	Step        int            `json:"step"`
	Tool        string         `json:"tool"`
	Arguments   map[string]any `json:"arguments,omitempty"`
	Observation string         `json:"observation"`
}

// Request is the full context handed to the decision model each round.
type Request struct {
	Query string
	Tools []ToolInfo
	Turns []Turn
}

// DecisionModel is the opaque decision-making capability: given a query, a
// candidate tool list and the prior turns, it emits either a final answer
// or a single tool-call request. The model never sees tools outside the
// candidate list.
type DecisionModel interface {
	Decide(ctx context.Context, req Request) (Decision, error)
}
