package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleCatalog = `[
  {
    "name": "get_time",
    "description": "Get the current time.",
    "category": "utility",
    "keywords": ["time", "clock"],
    "examples": ["What time is it?"],
    "server": "utilitas",
    "input_schema": {}
  },
  {
    "name": "get_advisor",
    "description": "Find the advisor of a student.",
    "category": "academic",
    "keywords": ["advisor", "pembimbing"],
    "server": "akademik",
    "input_schema": {
      "properties": {"name": {"type": "string"}},
      "required": ["name"]
    }
  }
]`

func TestParse(t *testing.T) {
	c, err := Parse(strings.NewReader(sampleCatalog))
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	require.Equal(t, []string{"get_time", "get_advisor"}, c.Names())

	advisor := c.Get("get_advisor")
	require.NotNil(t, advisor)
	require.Equal(t, "akademik", advisor.Server)
	require.Equal(t, []string{"name"}, advisor.InputSchema.Required)
	require.Contains(t, advisor.InputSchema.Properties, "name")

	// Examples are the only optional field.
	require.Empty(t, advisor.Examples)

	require.Nil(t, c.Get("nonexistent"))
}

func TestParse_MissingMandatoryField(t *testing.T) {
	_, err := Parse(strings.NewReader(`[{"name": "x", "description": "d", "category": "c", "server": "s"}]`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "keywords")
}

func TestParse_DuplicateName(t *testing.T) {
	doc := `[
	  {"name": "a", "description": "d", "category": "c", "keywords": ["k"], "server": "s"},
	  {"name": "a", "description": "d", "category": "c", "keywords": ["k"], "server": "s"}
	]`
	_, err := Parse(strings.NewReader(doc))
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate")
}

func TestSearchableText(t *testing.T) {
	c, err := Parse(strings.NewReader(sampleCatalog))
	require.NoError(t, err)

	text := SearchableText(c.Get("get_time"))
	require.Contains(t, text, "Tool: get_time")
	require.Contains(t, text, "Description: Get the current time.")
	require.Contains(t, text, "Category: utility")
	require.Contains(t, text, "Keywords: time, clock")
	require.Contains(t, text, "Examples: What time is it?")
}
