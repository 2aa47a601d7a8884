package schema

import (
	"encoding/json"
	"strings"
	"unicode"
)

// FieldType is the descriptor-level type, distinct from Kind only in that
// it never exposes the wrapper kinds — deriveFields always unwraps first.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldEnum    FieldType = "enum"
	FieldArray   FieldType = "array"
	FieldObject  FieldType = "object"
	FieldFile    FieldType = "file"
	FieldUnknown FieldType = "unknown"
)

// Hints carries UI metadata decoupled from semantic validation: hints live
// in a separate map keyed by field name rather than riding on the schema
// itself.
type Hints map[string]any

// Field is a Field Descriptor as specified: a pure, deterministic
// projection of one property of an object-like schema.
type Field struct {
	Name          string
	Label         string
	Type          FieldType
	Required      bool
	DefaultValue  any
	EnumValues    []string
	ArrayItemType FieldType
	ObjectFields  []Field
	UIHints       Hints
}

// DeriveFields walks an object-like input schema and returns an ordered
// sequence of Field Descriptors. Traversal is structural and referentially
// transparent: the same schema always yields the same sequence, and no IO
// or mutation occurs.
func DeriveFields(input *Schema) []Field {
	if input == nil {
		return nil
	}
	root, _, _, _ := unwrap(input)
	if root == nil || root.Kind != KindObject {
		return nil
	}

	fields := make([]Field, 0, len(root.PropertyOrder))
	for _, name := range root.PropertyOrder {
		prop := root.Properties[name]
		if prop == nil {
			continue
		}
		fields = append(fields, deriveField(name, prop))
	}
	return fields
}

func deriveField(name string, s *Schema) Field {
	inner, required, def, hasDefault := unwrap(s)

	f := Field{
		Name:     name,
		Required: required,
		Label:    defaultLabel(name),
	}
	if hasDefault {
		f.DefaultValue = def
	}

	if inner == nil {
		f.Type = FieldUnknown
		return f
	}

	switch inner.Kind {
	case KindString:
		f.Type = FieldString
	case KindNumber:
		f.Type = FieldNumber
	case KindBoolean:
		f.Type = FieldBoolean
	case KindEnum:
		f.Type = FieldEnum
		f.EnumValues = inner.Enum
	case KindArray:
		f.Type = FieldArray
		if inner.Items != nil {
			itemInner, _, _, _ := unwrap(inner.Items)
			if itemInner != nil {
				f.ArrayItemType = kindToFieldType(itemInner.Kind)
			}
		}
	case KindObject:
		f.Type = FieldObject
		f.ObjectFields = make([]Field, 0, len(inner.PropertyOrder))
		for _, name := range inner.PropertyOrder {
			prop := inner.Properties[name]
			if prop == nil {
				continue
			}
			f.ObjectFields = append(f.ObjectFields, deriveField(name, prop))
		}
	case KindFile:
		f.Type = FieldFile
	default:
		f.Type = FieldUnknown
	}

	if inner.Default != nil && !hasDefault {
		f.DefaultValue = inner.Default
	}

	if hints, label, ok := parseHints(inner.Description); ok {
		f.UIHints = hints
	} else if label != "" {
		f.Label = label
	}

	return f
}

func kindToFieldType(k Kind) FieldType {
	switch k {
	case KindString:
		return FieldString
	case KindNumber:
		return FieldNumber
	case KindBoolean:
		return FieldBoolean
	case KindEnum:
		return FieldEnum
	case KindArray:
		return FieldArray
	case KindObject:
		return FieldObject
	case KindFile:
		return FieldFile
	default:
		return FieldUnknown
	}
}

// parseHints interprets a schema's description field: when it is
// syntactically valid JSON object it becomes the hints structure, otherwise
// it is treated as the field's label.
func parseHints(description string) (hints Hints, label string, isHints bool) {
	desc := strings.TrimSpace(description)
	if desc == "" {
		return nil, "", false
	}
	if strings.HasPrefix(desc, "{") {
		var m map[string]any
		if err := json.Unmarshal([]byte(desc), &m); err == nil {
			return Hints(m), "", true
		}
	}
	return nil, desc, false
}

// defaultLabel splits camel-/snake-/kebab-case field names on word
// boundaries and upper-cases the first letter of each word, e.g.
// "firstName" -> "First Name"; the rest of a word keeps its case, so an
// acronym run stays intact ("HTTPStatus" -> "HTTP Status").
func defaultLabel(name string) string {
	var words []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}

	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case unicode.IsUpper(r) && i > 0 && !unicode.IsUpper(runes[i-1]):
			flush()
			cur.WriteRune(r)
		case unicode.IsUpper(r) && i > 0 && i+1 < len(runes) && unicode.IsUpper(runes[i-1]) && unicode.IsLower(runes[i+1]):
			// boundary inside an acronym run, e.g. "HTTPStatus" -> "HTTP", "Status"
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()

	for i, w := range words {
		words[i] = titleCase(w)
	}
	return strings.Join(words, " ")
}

func titleCase(w string) string {
	if w == "" {
		return w
	}
	r := []rune(w)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
