// Package args reconciles a decision model's tool-call payload with a
// tool's declared parameter schema. Models are inconsistent about call
// conventions: arguments may arrive as a structured object, a bare scalar,
// malformed JSON, or nothing at all. Normalization is deliberately
// permissive best-effort coercion, never an error.
package args

import (
	"encoding/json"

	"github.com/kaptinlin/jsonrepair"
)

// Kind tags the shape of a raw argument payload.
type Kind int

const (
	// Empty means no usable payload was provided.
	Empty Kind = iota
	// Structured means the payload was a JSON object.
	Structured
	// Scalar means the payload was a bare primitive value.
	Scalar
)

// Raw is a tagged variant over the argument shapes a model can emit.
type Raw struct {
	kind   Kind
	object map[string]any
	scalar any
}

// NewStructured wraps a JSON-object payload.
func NewStructured(m map[string]any) Raw {
	if len(m) == 0 {
		return Raw{kind: Structured, object: map[string]any{}}
	}
	return Raw{kind: Structured, object: m}
}

// NewScalar wraps a bare primitive payload.
func NewScalar(v any) Raw {
	return Raw{kind: Scalar, scalar: v}
}

// NewEmpty is the absent payload.
func NewEmpty() Raw {
	return Raw{kind: Empty}
}

// Kind returns the payload tag.
func (r Raw) Kind() Kind {
	return r.kind
}

// Parse classifies a serialized argument payload. Objects that fail strict
// decoding are run through jsonrepair first, since models frequently emit
// almost-JSON (trailing commas, single quotes, unquoted keys). Anything
// that still does not decode is treated as a bare string scalar.
func Parse(data []byte) Raw {
	if len(data) == 0 {
		return NewEmpty()
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(string(data))
		if repairErr != nil || json.Unmarshal([]byte(repaired), &v) != nil {
			return NewScalar(string(data))
		}
	}

	switch val := v.(type) {
	case nil:
		return NewEmpty()
	case map[string]any:
		return NewStructured(val)
	default:
		return NewScalar(val)
	}
}

// Normalize applies the coercion policy, in order:
//
//  1. A tool with no properties and no required parameters always gets an
//     empty mapping, whatever was passed.
//  2. A structured payload keeps only keys declared in properties; when
//     nothing intersects but a required parameter exists, the first
//     required parameter is bound from the payload under that same name.
//  3. A bare scalar binds to the first required parameter.
//  4. An empty payload yields an empty mapping.
func Normalize(raw Raw, required []string, properties map[string]any) map[string]any {
	if len(properties) == 0 && len(required) == 0 {
		return map[string]any{}
	}

	switch raw.kind {
	case Structured:
		if len(properties) == 0 {
			// Schema declared required names but omitted properties.
			return map[string]any{required[0]: raw.object[required[0]]}
		}

		filtered := make(map[string]any)
		for k, v := range raw.object {
			if _, declared := properties[k]; declared {
				filtered[k] = v
			}
		}
		if len(filtered) > 0 {
			return filtered
		}
		if len(required) > 0 {
			return map[string]any{required[0]: raw.object[required[0]]}
		}
		return map[string]any{}

	case Scalar:
		if len(required) > 0 {
			return map[string]any{required[0]: raw.scalar}
		}
		return map[string]any{}

	default:
		return map[string]any{}
	}
}

// SchemaParams extracts the declared properties and required parameter
// names from a JSON-schema map as advertised over tools/list.
func SchemaParams(schema map[string]any) (map[string]any, []string) {
	if schema == nil {
		return nil, nil
	}

	var properties map[string]any
	if props, ok := schema["properties"].(map[string]any); ok {
		properties = props
	}

	var required []string
	if raw, ok := schema["required"].([]any); ok {
		for _, r := range raw {
			if name, ok := r.(string); ok {
				required = append(required, name)
			}
		}
	} else if names, ok := schema["required"].([]string); ok {
		required = names
	}

	return properties, required
}
