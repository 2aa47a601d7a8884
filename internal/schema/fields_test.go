package schema

import (
	"reflect"
	"testing"
)

func TestDeriveFieldsUnwrapsAndOrders(t *testing.T) {
	input := Object([]string{"firstName", "age", "op"}, map[string]*Schema{
		"firstName": {Kind: KindOptional, Inner: &Schema{Kind: KindString}},
		"age":       {Kind: KindDefault, Default: float64(18), Inner: &Schema{Kind: KindNumber}},
		"op":        {Kind: KindEnum, Enum: []string{"add", "sub"}},
	})

	fields := DeriveFields(input)
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}

	if fields[0].Name != "firstName" || fields[0].Required || fields[0].Type != FieldString {
		t.Fatalf("unexpected firstName field: %+v", fields[0])
	}
	if fields[0].Label != "First Name" {
		t.Fatalf("expected default label 'First Name', got %q", fields[0].Label)
	}

	if fields[1].Name != "age" || fields[1].Required || fields[1].DefaultValue != float64(18) {
		t.Fatalf("unexpected age field: %+v", fields[1])
	}

	if fields[2].Type != FieldEnum || !reflect.DeepEqual(fields[2].EnumValues, []string{"add", "sub"}) {
		t.Fatalf("unexpected op field: %+v", fields[2])
	}
}

func TestDeriveFieldsIsDeterministic(t *testing.T) {
	input := Object([]string{"a", "b"}, map[string]*Schema{
		"a": {Kind: KindString},
		"b": {Kind: KindBoolean},
	})

	first := DeriveFields(input)
	second := DeriveFields(input)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("DeriveFields is not deterministic: %+v vs %+v", first, second)
	}
}

func TestParseHintsJSONObject(t *testing.T) {
	input := Object([]string{"x"}, map[string]*Schema{
		"x": {Kind: KindString, Description: `{"widget":"slider","min":0}`},
	})
	fields := DeriveFields(input)
	if fields[0].UIHints == nil {
		t.Fatal("expected UIHints to be parsed from JSON description")
	}
	if fields[0].UIHints["widget"] != "slider" {
		t.Fatalf("unexpected hints: %+v", fields[0].UIHints)
	}
}

func TestParseHintsPlainLabel(t *testing.T) {
	input := Object([]string{"x"}, map[string]*Schema{
		"x": {Kind: KindString, Description: "Your full name"},
	})
	fields := DeriveFields(input)
	if fields[0].Label != "Your full name" {
		t.Fatalf("expected plain description as label, got %q", fields[0].Label)
	}
	if fields[0].UIHints != nil {
		t.Fatalf("did not expect UIHints for a plain label, got %+v", fields[0].UIHints)
	}
}

func TestDefaultLabelSplitsCaseBoundaries(t *testing.T) {
	cases := map[string]string{
		"firstName":   "First Name",
		"first_name":  "First Name",
		"first-name":  "First Name",
		"op":          "Op",
		"HTTPStatus":  "HTTP Status",
	}
	for name, want := range cases {
		got := defaultLabel(name)
		if got != want {
			t.Errorf("defaultLabel(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestToPortableObject(t *testing.T) {
	input := Object([]string{"a", "b"}, map[string]*Schema{
		"a": {Kind: KindOptional, Inner: &Schema{Kind: KindString}},
		"b": {Kind: KindNumber},
	})
	p := ToPortable(input)
	if p.Type != "object" {
		t.Fatalf("expected object type, got %q", p.Type)
	}
	if len(p.Required) != 1 || p.Required[0] != "b" {
		t.Fatalf("expected only 'b' required, got %v", p.Required)
	}
}

func TestValidateRejectsWrongType(t *testing.T) {
	input := Object([]string{"a"}, map[string]*Schema{
		"a": {Kind: KindNumber},
	})
	err := Validate(input, map[string]any{"a": "not a number"})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestValidateAllowsMissingOptional(t *testing.T) {
	input := Object([]string{"a"}, map[string]*Schema{
		"a": {Kind: KindOptional, Inner: &Schema{Kind: KindString}},
	})
	if err := Validate(input, map[string]any{}); err != nil {
		t.Fatalf("expected no error for missing optional field, got %v", err)
	}
}

func TestValidateRejectsMissingRequired(t *testing.T) {
	input := Object([]string{"a"}, map[string]*Schema{
		"a": {Kind: KindString},
	})
	if err := Validate(input, map[string]any{}); err == nil {
		t.Fatal("expected validation error for missing required field")
	}
}
