package mcpadapter

import (
	"context"
	"strings"
	"testing"

	"github.com/oriys/nova/internal/interaction"
	"github.com/oriys/nova/internal/result"
)

func TestCollectInputPassesArgumentsThrough(t *testing.T) {
	m := &MCP{Input: map[string]any{"a": 1.0, "b": 2.0}}
	got, err := m.CollectInput(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	args := got.(map[string]any)
	if args["a"] != 1.0 || args["b"] != 2.0 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestHandleInteractionWithoutResponderFallsBackToDefault(t *testing.T) {
	m := &MCP{}
	req := interaction.NewRequest("r1", interaction.Prompt, "name?", nil)
	req.DefaultValue = "anon"
	resp, err := m.HandleInteraction(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Skipped || resp.Value != "anon" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHandleInteractionConfirmParsesYesNo(t *testing.T) {
	m := &MCP{Respond: func(ctx context.Context, prompt string) (string, error) {
		if !strings.Contains(prompt, "yes or no") {
			t.Fatalf("expected a yes/no prompt, got %q", prompt)
		}
		return "No thanks", nil
	}}
	req := interaction.NewRequest("r1", interaction.Confirm, "continue?", nil)
	resp, err := m.HandleInteraction(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Value != false {
		t.Fatalf("expected false, got %+v", resp.Value)
	}
}

func TestHandleInteractionSelectMatchesCaseInsensitively(t *testing.T) {
	m := &MCP{Respond: func(ctx context.Context, prompt string) (string, error) {
		return "CSV", nil
	}}
	req := interaction.NewRequest("r1", interaction.Select, "format?", []string{"csv", "json"})
	resp, err := m.HandleInteraction(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Value != "csv" {
		t.Fatalf("expected canonical option 'csv', got %+v", resp.Value)
	}
}

func TestHandleInteractionMultiselectSplitsAndMatches(t *testing.T) {
	m := &MCP{Respond: func(ctx context.Context, prompt string) (string, error) {
		return "Json, CSV", nil
	}}
	req := interaction.NewRequest("r1", interaction.Multiselect, "formats?", []string{"csv", "json", "xml"})
	resp, err := m.HandleInteraction(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := resp.Value.([]string)
	if len(got) != 2 || got[0] != "json" || got[1] != "csv" {
		t.Fatalf("unexpected selection: %+v", got)
	}
}

func TestHandleInteractionProgressNeverBlocksOnResponder(t *testing.T) {
	called := false
	m := &MCP{Respond: func(ctx context.Context, prompt string) (string, error) {
		called = true
		return "", nil
	}}
	req := interaction.NewRequest("r1", interaction.Progress, "working", nil)
	resp, err := m.HandleInteraction(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("expected Respond not to be called for a non-blocking request")
	}
	if resp.Skipped || resp.Value != nil {
		t.Fatalf("expected an empty response, got %+v", resp)
	}
}

func TestToMCPResultSuccessIncludesFileBlocks(t *testing.T) {
	res := result.Execution{
		Success: true,
		Data:    map[string]any{"total": 42.0},
		Files: []result.FileRef{
			{Handle: "h1", Filename: "out.csv", MimeType: "text/csv", Size: 10},
		},
	}
	out := ToMCPResult(res)
	if out.IsError {
		t.Fatalf("expected IsError=false")
	}
	if len(out.Content) != 2 {
		t.Fatalf("expected a data block and a file block, got %d", len(out.Content))
	}
}

func TestToMCPResultFailureSetsIsError(t *testing.T) {
	res := result.Execution{Success: false, Error: "division by zero"}
	out := ToMCPResult(res)
	if !out.IsError {
		t.Fatalf("expected IsError=true")
	}
	if len(out.Content) != 1 {
		t.Fatalf("expected a single error block, got %d", len(out.Content))
	}
}
