package schema

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// Portable is the JSON-schema-like tree handed to wire protocols (e.g. the
// MCP tool definition's inputSchema). It intentionally drops the wrapper
// kinds (optional/default/nullable) present in Schema, since those are an
// implementation detail of this codebase's schema combinators, not part of
// JSON Schema.
type Portable struct {
	Type       string               `json:"type"`
	Properties map[string]*Portable `json:"properties,omitempty"`
	Required   []string             `json:"required,omitempty"`
	Items      *Portable            `json:"items,omitempty"`
	Enum       []string             `json:"enum,omitempty"`
	Default    any                  `json:"default,omitempty"`
}

// ToPortable derives a JSON-schema-like tree from s, unwrapping optional/
// default/nullable markers along the way. Pure: no IO, no mutation of s.
func ToPortable(s *Schema) *Portable {
	if s == nil {
		return &Portable{Type: string(KindUnknown)}
	}
	inner, _, def, hasDefault := unwrap(s)
	if inner == nil {
		return &Portable{Type: string(KindUnknown)}
	}

	p := &Portable{Type: jsonType(inner.Kind)}
	if hasDefault {
		p.Default = def
	} else if inner.Default != nil {
		p.Default = inner.Default
	}

	switch inner.Kind {
	case KindEnum:
		p.Enum = inner.Enum
	case KindArray:
		p.Items = ToPortable(inner.Items)
	case KindObject:
		p.Properties = make(map[string]*Portable, len(inner.Properties))
		for name, prop := range inner.Properties {
			p.Properties[name] = ToPortable(prop)
		}
		p.Required = requiredNames(inner)
	}
	return p
}

// requiredNames computes which declared properties are required, by
// unwrapping each property's own wrapper chain rather than trusting a
// possibly-stale Required list on the object schema itself.
func requiredNames(obj *Schema) []string {
	var out []string
	for _, name := range obj.PropertyOrder {
		prop := obj.Properties[name]
		if prop == nil {
			continue
		}
		_, required, _, _ := unwrap(prop)
		if required {
			out = append(out, name)
		}
	}
	return out
}

// ToJSONSchema converts p into the jsonschema-go tree an MCP Tool.InputSchema
// expects, so an MCP client sees the app's real field shape instead of a
// schema inferred by reflection over a Go handler type. Pure: walks p
// top-down, never mutates it.
func ToJSONSchema(p *Portable) *jsonschema.Schema {
	if p == nil {
		return &jsonschema.Schema{Type: "object"}
	}

	js := &jsonschema.Schema{Type: p.Type}

	if len(p.Enum) > 0 {
		js.Enum = make([]any, len(p.Enum))
		for i, v := range p.Enum {
			js.Enum[i] = v
		}
	}
	if p.Items != nil {
		js.Items = ToJSONSchema(p.Items)
	}
	if len(p.Properties) > 0 {
		js.Properties = make(map[string]*jsonschema.Schema, len(p.Properties))
		for name, prop := range p.Properties {
			js.Properties[name] = ToJSONSchema(prop)
		}
	}
	if len(p.Required) > 0 {
		js.Required = append([]string(nil), p.Required...)
	}
	if p.Default != nil {
		if raw, err := json.Marshal(p.Default); err == nil {
			js.Default = raw
		}
	}
	return js
}

func jsonType(k Kind) string {
	switch k {
	case KindString, KindEnum, KindFile:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "string"
	}
}
