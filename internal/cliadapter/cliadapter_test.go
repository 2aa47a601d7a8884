package cliadapter

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/oriys/nova/internal/interaction"
	"github.com/oriys/nova/internal/manifest"
	"github.com/oriys/nova/internal/result"
	"github.com/oriys/nova/internal/schema"
)

func calcManifest() *manifest.Manifest {
	return &manifest.Manifest{
		ID: "calc",
		InputSchema: schema.Object(
			[]string{"a", "b", "op", "verbose"},
			map[string]*schema.Schema{
				"a":       {Kind: schema.KindNumber},
				"b":       {Kind: schema.KindNumber},
				"op":      {Kind: schema.KindEnum, Enum: []string{"add", "sub"}},
				"verbose": {Kind: schema.KindOptional, Inner: &schema.Schema{Kind: schema.KindBoolean}},
			},
		),
	}
}

func TestCollectInputParsesAndCoerces(t *testing.T) {
	c := New([]string{"--a=10", "--b=5", "--op=add", "--verbose=true", "ignored", "--malformed"})

	got, err := c.CollectInput(context.Background(), calcManifest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := got.(map[string]any)
	if in["a"] != 10.0 || in["b"] != 5.0 {
		t.Fatalf("expected numeric coercion, got %+v", in)
	}
	if in["op"] != "add" {
		t.Fatalf("expected op=add, got %+v", in["op"])
	}
	if in["verbose"] != true {
		t.Fatalf("expected verbose=true, got %+v", in["verbose"])
	}
}

func TestCollectInputRejectsBadNumber(t *testing.T) {
	c := New([]string{"--a=ten"})
	_, err := c.CollectInput(context.Background(), calcManifest())
	if err == nil || !strings.Contains(err.Error(), "--a") {
		t.Fatalf("expected a coercion error naming the flag, got %v", err)
	}
}

func TestHandleInteractionConfirmReadsStdin(t *testing.T) {
	var errBuf bytes.Buffer
	c := &CLI{In: strings.NewReader("y\n"), Out: &bytes.Buffer{}, Err: &errBuf}

	req := interaction.NewRequest("r1", interaction.Confirm, "continue?", nil)
	resp, err := c.HandleInteraction(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Value != true || resp.RequestID != "r1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !strings.Contains(errBuf.String(), "continue?") {
		t.Fatalf("expected the prompt on stderr, got %q", errBuf.String())
	}
}

func TestHandleInteractionProgressGoesToStderr(t *testing.T) {
	var errBuf bytes.Buffer
	c := &CLI{In: strings.NewReader(""), Out: &bytes.Buffer{}, Err: &errBuf}

	req := interaction.NewRequest("r1", interaction.Progress, "halfway", nil)
	if _, err := c.HandleInteraction(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(errBuf.String(), "halfway") {
		t.Fatalf("expected progress on stderr, got %q", errBuf.String())
	}
}

func TestRenderOutputSuccessAndFailure(t *testing.T) {
	var out, errBuf bytes.Buffer
	c := &CLI{Out: &out, Err: &errBuf}

	ok := result.Execution{Success: true, Data: map[string]any{"total": 15.0}}
	if err := c.RenderOutput(context.Background(), ok, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "15") {
		t.Fatalf("expected rendered data, got %q", out.String())
	}

	bad := result.Execution{Success: false, Error: "boom"}
	if err := c.RenderOutput(context.Background(), bad, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(errBuf.String(), "boom") {
		t.Fatalf("expected error on stderr, got %q", errBuf.String())
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(result.Execution{Success: true}) != 0 {
		t.Fatalf("expected 0 for success")
	}
	if ExitCode(result.Execution{Success: false}) == 0 {
		t.Fatalf("expected non-zero for failure")
	}
}
