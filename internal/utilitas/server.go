// Package utilitas provides the utility demo MCP server: current time and
// a safe calculator.
package utilitas

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/agenkampus/agenkampus/internal/calc"
)

// TimeInput is the (empty) argument set of get_waktu_saat_ini.
type TimeInput struct{}

// CalculatorInput is the argument to kalkulator_sederhana.
type CalculatorInput struct {
	Ekspresi string `json:"ekspresi" jsonschema:"Mathematical expression to evaluate, e.g. 2+2 or min(3, 5)*2"`
}

// Clock supplies the current time; tests substitute a fixed one.
type Clock func() time.Time

// NewServer builds the utility MCP server.
func NewServer(version string, now Clock) *mcp.Server {
	if now == nil {
		now = time.Now
	}

	server := mcp.NewServer(&mcp.Implementation{Name: "Utilitas", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_waktu_saat_ini",
		Description: "Get the current date and time in YYYY-MM-DD HH:MM:SS format.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input TimeInput) (*mcp.CallToolResult, any, error) {
		return textResult(now().Format("2006-01-02 15:04:05")), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "kalkulator_sederhana",
		Description: "Calculate a simple mathematical expression: numbers, + - * / **, parentheses and abs/round/min/max/pow.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input CalculatorInput) (*mcp.CallToolResult, any, error) {
		result, err := calc.Eval(input.Ekspresi)
		if err != nil {
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Error: %v", err)}},
			}, nil, nil
		}
		return textResult(calc.Format(result)), nil, nil
	})

	return server
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
