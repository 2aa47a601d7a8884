package schema

import "fmt"

// ValidationError reports that a value failed structural validation against
// a Schema, naming the offending field path.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Path, e.Reason)
}

// Validate checks value against s, unwrapping optional/default/nullable
// markers and recursing into objects and arrays. It reports the first
// structural mismatch found.
func Validate(s *Schema, value any) error {
	return validateAt("", s, value)
}

func validateAt(path string, s *Schema, value any) error {
	inner, required, _, _ := unwrap(s)
	if inner == nil {
		return nil
	}

	if value == nil {
		if required {
			return &ValidationError{Path: path, Reason: "required field missing"}
		}
		return nil
	}

	switch inner.Kind {
	case KindString, KindFile:
		if _, ok := value.(string); !ok {
			return &ValidationError{Path: path, Reason: "expected string"}
		}
	case KindNumber:
		switch value.(type) {
		case float64, float32, int, int64:
		default:
			return &ValidationError{Path: path, Reason: "expected number"}
		}
	case KindBoolean:
		if _, ok := value.(bool); !ok {
			return &ValidationError{Path: path, Reason: "expected boolean"}
		}
	case KindEnum:
		str, ok := value.(string)
		if !ok {
			return &ValidationError{Path: path, Reason: "expected enum value (string)"}
		}
		found := false
		for _, v := range inner.Enum {
			if v == str {
				found = true
				break
			}
		}
		if !found {
			return &ValidationError{Path: path, Reason: fmt.Sprintf("%q is not one of %v", str, inner.Enum)}
		}
	case KindArray:
		arr, ok := value.([]any)
		if !ok {
			return &ValidationError{Path: path, Reason: "expected array"}
		}
		if inner.Items != nil {
			for i, item := range arr {
				if err := validateAt(fmt.Sprintf("%s[%d]", path, i), inner.Items, item); err != nil {
					return err
				}
			}
		}
	case KindObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return &ValidationError{Path: path, Reason: "expected object"}
		}
		for _, name := range inner.PropertyOrder {
			prop := inner.Properties[name]
			childPath := name
			if path != "" {
				childPath = path + "." + name
			}
			if err := validateAt(childPath, prop, obj[name]); err != nil {
				return err
			}
		}
	}
	return nil
}
