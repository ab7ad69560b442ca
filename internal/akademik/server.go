package akademik

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AdvisorInput is the argument to get_dosen_pembimbing.
type AdvisorInput struct {
	NamaMahasiswa string `json:"nama_mahasiswa" jsonschema:"Full name of the student (case-sensitive)"`
}

// TranscriptInput is the argument to get_mata_kuliah_mahasiswa.
type TranscriptInput struct {
	NamaMahasiswa string `json:"nama_mahasiswa" jsonschema:"Full name of the student (case-sensitive)"`
}

// NewServer builds the academic MCP server over a store. All tools are
// read-only by construction: they run fixed parameterized SELECTs.
func NewServer(store *Store, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "Akademik", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_dosen_pembimbing",
		Description: "Find the academic advisor (dosen pembimbing) assigned to a student.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input AdvisorInput) (*mcp.CallToolResult, any, error) {
		advisor, err := store.Advisor(ctx, input.NamaMahasiswa)
		if err != nil {
			return errorResult(lookupMessage(input.NamaMahasiswa, err)), nil, nil
		}
		return textResult(fmt.Sprintf("Dosen pembimbing %s: %s", input.NamaMahasiswa, advisor)), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_mata_kuliah_mahasiswa",
		Description: "List all courses taken by a student together with the grades received.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input TranscriptInput) (*mcp.CallToolResult, any, error) {
		courses, err := store.Transcript(ctx, input.NamaMahasiswa)
		if err != nil {
			return errorResult(lookupMessage(input.NamaMahasiswa, err)), nil, nil
		}

		lines := make([]string, len(courses))
		for i, c := range courses {
			lines[i] = fmt.Sprintf("%s (%s)", c.Name, c.Grade)
		}
		return textResult(fmt.Sprintf("Mata kuliah %s: %s", input.NamaMahasiswa, strings.Join(lines, ", "))), nil, nil
	})

	return server
}

func lookupMessage(student string, err error) string {
	if errors.Is(err, ErrStudentNotFound) {
		return fmt.Sprintf("Mahasiswa '%s' tidak ditemukan dalam database", student)
	}
	return fmt.Sprintf("Error saat mengakses database: %v", err)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
