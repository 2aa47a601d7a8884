// Package manifest defines the declarative identity and schema pairing of a
// Protocol-Driven Application.
package manifest

import (
	"fmt"

	"github.com/oriys/nova/internal/schema"
	"gopkg.in/yaml.v3"
)

// Manifest is the immutable identity, schema pairing, and UI hints of a PDA.
// It never changes for the lifetime of an app.
type Manifest struct {
	ID           string
	Name         string
	Description  string
	Version      string
	InputSchema  *schema.Schema
	OutputSchema *schema.Schema
	UIHints      schema.Hints
}

// Validate checks that the manifest carries the minimum identity required
// to be registered with an App: a non-empty ID and an input schema.
func (m *Manifest) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("manifest: id is required")
	}
	if m.InputSchema == nil {
		return fmt.Errorf("manifest: %s: inputSchema is required", m.ID)
	}
	return nil
}

// DeriveFields is a convenience wrapper around schema.DeriveFields for this
// manifest's input schema.
func (m *Manifest) DeriveFields() []schema.Field {
	return schema.DeriveFields(m.InputSchema)
}

// ToPortableInputSchema exposes the manifest's input schema as the
// JSON-schema-like tree consumed by wire protocols (e.g. MCP tool
// definitions).
func (m *Manifest) ToPortableInputSchema() *schema.Portable {
	return schema.ToPortable(m.InputSchema)
}

// yamlManifest mirrors Manifest for hand-authored YAML manifests, since
// schema.Schema's wrapper-kind recursion isn't a natural YAML shape to
// author by hand; LoadYAML exists for the common "flat fields" case only.
type yamlManifest struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Version     string `yaml:"version"`
	Fields      []struct {
		Name     string   `yaml:"name"`
		Type     string   `yaml:"type"`
		Required bool     `yaml:"required"`
		Label    string   `yaml:"label"`
		Enum     []string `yaml:"enum"`
	} `yaml:"fields"`
}

// LoadYAML parses a flat, hand-authored manifest description: a list of
// top-level input fields rather than an arbitrarily nested schema tree.
func LoadYAML(data []byte) (*Manifest, error) {
	var y yamlManifest
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("manifest: parse yaml: %w", err)
	}

	order := make([]string, 0, len(y.Fields))
	props := make(map[string]*schema.Schema, len(y.Fields))
	for _, f := range y.Fields {
		order = append(order, f.Name)
		var s *schema.Schema
		switch f.Type {
		case "enum":
			s = &schema.Schema{Kind: schema.KindEnum, Enum: f.Enum, Description: f.Label}
		case "number":
			s = &schema.Schema{Kind: schema.KindNumber, Description: f.Label}
		case "boolean":
			s = &schema.Schema{Kind: schema.KindBoolean, Description: f.Label}
		default:
			s = &schema.Schema{Kind: schema.KindString, Description: f.Label}
		}
		if !f.Required {
			s = &schema.Schema{Kind: schema.KindOptional, Inner: s}
		}
		props[f.Name] = s
	}

	return &Manifest{
		ID:          y.ID,
		Name:        y.Name,
		Description: y.Description,
		Version:     y.Version,
		InputSchema: schema.Object(order, props),
	}, nil
}
