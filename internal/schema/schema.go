// Package schema defines the structural schema representation consumed by
// manifest introspection and emitted as the portable JSON-schema-like tree
// handed to wire protocols such as MCP tool definitions.
package schema

import (
	"encoding/json"
)

// Kind enumerates the primitive and composite types a Schema node can take.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindEnum    Kind = "enum"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
	KindFile    Kind = "file"
	KindUnknown Kind = "unknown"

	// Wrapper kinds unwrap to an underlying Schema with Required=false.
	KindOptional Kind = "optional"
	KindDefault  Kind = "default"
	KindNullable Kind = "nullable"
)

// Schema is a recursive structural description of a value, modelling both
// an app's inputSchema/outputSchema and the wrapper markers (optional,
// default, nullable) that deriveFields unwraps.
type Schema struct {
	Kind        Kind               `json:"kind"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	// PropertyOrder preserves declaration order for deterministic traversal;
	// Properties alone (a map) would not.
	PropertyOrder []string `json:"-"`
	Required      []string `json:"required,omitempty"`
	Items         *Schema  `json:"items,omitempty"`
	Enum          []string `json:"enum,omitempty"`
	Default       any      `json:"default,omitempty"`
	// Inner is the wrapped schema for Optional/Default/Nullable kinds.
	Inner *Schema `json:"inner,omitempty"`
}

// Object builds an object schema, recording property declaration order.
func Object(order []string, props map[string]*Schema, required ...string) *Schema {
	return &Schema{
		Kind:          KindObject,
		Properties:    props,
		PropertyOrder: order,
		Required:      required,
	}
}

// unwrap peels Optional/Default/Nullable wrappers, reporting whether any
// wrapper marked the field non-required and what default value (if any)
// was attached.
func unwrap(s *Schema) (inner *Schema, required bool, def any, hasDefault bool) {
	required = true
	cur := s
	for cur != nil {
		switch cur.Kind {
		case KindOptional, KindNullable:
			required = false
			cur = cur.Inner
		case KindDefault:
			required = false
			if !hasDefault {
				def = cur.Default
				hasDefault = true
			}
			cur = cur.Inner
		default:
			return cur, required, def, hasDefault
		}
	}
	return cur, required, def, hasDefault
}

// MarshalJSON encodes the Schema struct as it is, wrapper kinds included.
// It does not produce the portable JSON-schema-like tree used by wire
// protocols; ToPortable does that.
func (s *Schema) MarshalJSON() ([]byte, error) {
	type alias Schema
	return json.Marshal((*alias)(s))
}
