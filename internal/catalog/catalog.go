// Package catalog holds the static registry of tool descriptors that the
// retriever indexes. The catalog is independent of which servers are
// currently reachable: it describes every tool the system knows about,
// including its keywords and usage examples used for semantic search.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// PropertySchema describes a single declared tool parameter.
type PropertySchema struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// InputSchema describes the parameters a tool accepts.
type InputSchema struct {
	Properties map[string]PropertySchema `json:"properties,omitempty"`
	Required   []string                  `json:"required,omitempty"`
}

// ToolDescriptor is one catalog entry. Descriptors are created at load time
// and immutable thereafter; Name is the unique key.
type ToolDescriptor struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Keywords    []string    `json:"keywords"`
	Examples    []string    `json:"examples,omitempty"`
	Server      string      `json:"server"`
	InputSchema InputSchema `json:"input_schema"`
}

// Catalog is a loaded set of tool descriptors keyed by name.
type Catalog struct {
	byName  map[string]*ToolDescriptor
	ordered []*ToolDescriptor
}

// Load reads a catalog from a JSON file.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a catalog from a JSON array of descriptors.
func Parse(r io.Reader) (*Catalog, error) {
	var descriptors []*ToolDescriptor
	dec := json.NewDecoder(r)
	if err := dec.Decode(&descriptors); err != nil {
		return nil, fmt.Errorf("decode descriptors: %w", err)
	}

	c := &Catalog{byName: make(map[string]*ToolDescriptor, len(descriptors))}
	for _, d := range descriptors {
		if err := validate(d); err != nil {
			return nil, err
		}
		if _, exists := c.byName[d.Name]; exists {
			return nil, fmt.Errorf("duplicate tool descriptor: %s", d.Name)
		}
		c.byName[d.Name] = d
		c.ordered = append(c.ordered, d)
	}
	return c, nil
}

func validate(d *ToolDescriptor) error {
	switch {
	case d.Name == "":
		return fmt.Errorf("tool descriptor missing name")
	case d.Description == "":
		return fmt.Errorf("tool %s: missing description", d.Name)
	case d.Category == "":
		return fmt.Errorf("tool %s: missing category", d.Name)
	case len(d.Keywords) == 0:
		return fmt.Errorf("tool %s: missing keywords", d.Name)
	case d.Server == "":
		return fmt.Errorf("tool %s: missing server", d.Name)
	}
	return nil
}

// Get returns the descriptor for name, or nil if unknown.
func (c *Catalog) Get(name string) *ToolDescriptor {
	return c.byName[name]
}

// All returns descriptors in file order.
func (c *Catalog) All() []*ToolDescriptor {
	return c.ordered
}

// Names returns all tool names in file order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.ordered))
	for i, d := range c.ordered {
		names[i] = d.Name
	}
	return names
}

// Len returns the number of descriptors.
func (c *Catalog) Len() int {
	return len(c.ordered)
}

// SearchableText builds the text blob embedded for a descriptor. It combines
// name, description, category, keywords and examples so a query can match
// any aspect of the tool.
func SearchableText(d *ToolDescriptor) string {
	parts := []string{
		"Tool: " + d.Name,
		"Description: " + d.Description,
		"Category: " + d.Category,
		"Keywords: " + strings.Join(d.Keywords, ", "),
		"Examples: " + strings.Join(d.Examples, " | "),
	}
	return strings.Join(parts, " ")
}
