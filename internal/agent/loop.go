package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agenkampus/agenkampus/internal/args"
	"github.com/agenkampus/agenkampus/internal/index"
	"github.com/agenkampus/agenkampus/internal/retriever"
	"github.com/agenkampus/agenkampus/internal/session"
)

// EmptyRetrievalPolicy decides what happens when retrieval returns zero
// candidates for a query.
type EmptyRetrievalPolicy string

const (
	// FallbackFullCatalog exposes the full registered tool table instead.
	FallbackFullCatalog EmptyRetrievalPolicy = "full_catalog"
	// AnswerNoTool finalizes immediately with a "no relevant tool" answer.
	AnswerNoTool EmptyRetrievalPolicy = "no_tool_answer"
)

const noToolAnswer = "No available tool is relevant to this request."

// Options bounds and tunes the loop.
type Options struct {
	MaxRounds        int
	TopK             int
	ScoreThreshold   float64
	OnEmptyRetrieval EmptyRetrievalPolicy
}

func (o *Options) applyDefaults() {
	if o.MaxRounds <= 0 {
		o.MaxRounds = 5
	}
	if o.TopK <= 0 {
		o.TopK = 3
	}
	if o.OnEmptyRetrieval == "" {
		o.OnEmptyRetrieval = FallbackFullCatalog
	}
}

// Result is the structured outcome of one query. A failed query carries
// Err and whatever turns were accumulated; the process never terminates
// because of a single query's failure.
type Result struct {
	Success bool   `json:"success"`
	Answer  string `json:"answer,omitempty"`
	Steps   []Turn `json:"steps,omitempty"`
	Err     string `json:"error,omitempty"`
}

// Loop orchestrates retrieval narrowing, decision rounds and tool
// invocation for queries. A Loop is shared across queries; each query owns
// its own turn sequence.
type Loop struct {
	retriever *retriever.Retriever
	registry  *session.Registry
	model     DecisionModel
	opts      Options
	logger    *slog.Logger
}

// New wires a loop. The retriever may be nil, which disables RAG narrowing
// entirely (every query sees the full tool table).
func New(ret *retriever.Retriever, reg *session.Registry, model DecisionModel, opts Options, logger *slog.Logger) *Loop {
	opts.applyDefaults()
	return &Loop{retriever: ret, registry: reg, model: model, opts: opts, logger: logger}
}

// Query runs one query to completion: Start, Retrieving (unless useRAG is
// false), then Deciding/Invoking rounds until the model finalizes or the
// round limit aborts the loop.
func (l *Loop) Query(ctx context.Context, text string, useRAG bool) *Result {
	candidates, early := l.selectCandidates(ctx, text, useRAG)
	if early != nil {
		return early
	}
	if len(candidates) == 0 {
		return &Result{Success: false, Err: "no tools registered"}
	}

	infos := make([]ToolInfo, len(candidates))
	allowed := make(map[string]bool, len(candidates))
	for i, t := range candidates {
		infos[i] = ToolInfo{Name: t.Name, Description: t.Description, Parameters: t.InputSchema}
		allowed[t.Name] = true
	}

	var turns []Turn
	for round := 1; round <= l.opts.MaxRounds; round++ {
		decision, err := l.model.Decide(ctx, Request{Query: text, Tools: infos, Turns: turns})
		if err != nil {
			return &Result{Success: false, Err: err.Error(), Steps: turns}
		}

		if decision.Call == nil {
			l.logger.Info("Query finished", "rounds", round)
			return &Result{Success: true, Answer: decision.Answer, Steps: turns}
		}

		turns = append(turns, l.invoke(ctx, decision.Call, allowed, len(turns)+1))
	}

	l.logger.Warn("Round limit reached", "query", text, "max_rounds", l.opts.MaxRounds)
	return &Result{
		Success: false,
		Err:     fmt.Sprintf("no final answer after %d rounds", l.opts.MaxRounds),
		Steps:   turns,
	}
}

// selectCandidates runs the Retrieving state. It returns either the
// candidate tool set or an early final result (the no-relevant-tool
// answer).
func (l *Loop) selectCandidates(ctx context.Context, text string, useRAG bool) ([]session.Tool, *Result) {
	full := l.registry.Tools()
	if !useRAG || l.retriever == nil {
		return full, nil
	}

	hits, err := l.retriever.Retrieve(ctx, text, l.opts.TopK, l.opts.ScoreThreshold)
	if err != nil {
		if errors.Is(err, index.ErrRetrievalUnavailable) {
			l.logger.Warn("Retrieval unavailable, using full tool table", "error", err)
			return full, nil
		}
		l.logger.Warn("Retrieval failed, using full tool table", "error", err)
		return full, nil
	}

	if len(hits) == 0 {
		if l.opts.OnEmptyRetrieval == AnswerNoTool {
			return nil, &Result{Success: true, Answer: noToolAnswer}
		}
		l.logger.Info("No retrieval hits, falling back to full tool table")
		return full, nil
	}

	selected := make([]session.Tool, 0, len(hits))
	for _, h := range hits {
		if t, ok := l.registry.Tool(h.Tool.Name); ok {
			selected = append(selected, t)
		} else {
			l.logger.Debug("Retrieved tool not registered", "tool", h.Tool.Name)
		}
	}
	if len(selected) == 0 {
		l.logger.Warn("No overlap between retrieval hits and registered tools, using full table")
		return full, nil
	}
	return selected, nil
}

// invoke runs one Invoking step: normalize the payload against the tool's
// declared schema, call through the registry, and record the observation.
// Unknown tools, out-of-candidate requests and per-call transport failures
// all land in the observation so the model can react next round.
func (l *Loop) invoke(ctx context.Context, call *ToolCall, allowed map[string]bool, step int) Turn {
	turn := Turn{Step: step, Tool: call.Name}

	if !allowed[call.Name] {
		l.logger.Warn("Model requested tool outside candidate set", "tool", call.Name)
		turn.Observation = fmt.Sprintf("tool %q is not available for this request", call.Name)
		return turn
	}

	tool, _ := l.registry.Tool(call.Name)
	properties, required := args.SchemaParams(tool.InputSchema)
	turn.Arguments = args.Normalize(args.Parse(call.Arguments), required, properties)

	observation, err := l.registry.Invoke(ctx, call.Name, turn.Arguments)
	switch {
	case errors.Is(err, session.ErrUnknownTool):
		turn.Observation = err.Error()
	case err != nil:
		l.logger.Warn("Tool call failed", "tool", call.Name, "error", err)
		turn.Observation = "tool call failed: " + err.Error()
	default:
		turn.Observation = observation
	}
	return turn
}
