package pdaexec

import (
	"context"
	"testing"

	"github.com/oriys/nova/internal/filestore"
	"github.com/oriys/nova/internal/interaction"
)

func newTestContext() *ExecutionContext {
	return &ExecutionContext{
		Context: context.Background(),
		Files:   filestore.NewMemory(),
	}
}

func TestCoroutineCompletesWithoutYielding(t *testing.T) {
	ec := newTestContext()
	c := Start(ec, func(ec *ExecutionContext) (any, error) {
		return 42, nil
	})

	step := c.Advance()
	if !step.Done || step.Request != nil {
		t.Fatalf("expected immediate completion, got %+v", step)
	}
	if step.Value != 42 || step.Err != nil {
		t.Fatalf("unexpected result: %+v", step)
	}
}

func TestCoroutineSuspendsAndResumes(t *testing.T) {
	ec := newTestContext()
	c := Start(ec, func(ec *ExecutionContext) (any, error) {
		ok := ec.Confirm("proceed?", nil)
		if !ok {
			return nil, nil
		}
		return "confirmed", nil
	})

	step := c.Advance()
	if step.Done || step.Request == nil {
		t.Fatalf("expected a suspended request, got %+v", step)
	}
	if step.Request.Type != interaction.Confirm || !step.Request.RequiresResponse {
		t.Fatalf("unexpected request: %+v", step.Request)
	}

	c.Resume(interaction.Response{RequestID: step.Request.RequestID, Value: true})
	final := c.Advance()
	if !final.Done || final.Value != "confirmed" {
		t.Fatalf("expected completion with confirmed, got %+v", final)
	}
}

func TestProgressAndInfoDoNotSuspend(t *testing.T) {
	ec := newTestContext()
	c := Start(ec, func(ec *ExecutionContext) (any, error) {
		total := 10
		ec.Progress(5, &total, "halfway")
		ec.Info("working", "debug")
		return "done", nil
	})

	step := c.Advance()
	if step.Done || step.Request == nil || step.Request.Type != interaction.Progress {
		t.Fatalf("expected progress request, got %+v", step)
	}
	if step.Request.RequiresResponse {
		t.Fatalf("progress must not require a response")
	}

	step = c.Advance()
	if step.Done || step.Request == nil || step.Request.Type != interaction.Info {
		t.Fatalf("expected info request, got %+v", step)
	}

	final := c.Advance()
	if !final.Done || final.Value != "done" {
		t.Fatalf("expected completion, got %+v", final)
	}
}

func TestCoroutinePanicBecomesTerminalError(t *testing.T) {
	ec := newTestContext()
	c := Start(ec, func(ec *ExecutionContext) (any, error) {
		panic("boom")
	})

	step := c.Advance()
	if !step.Done || step.Err == nil {
		t.Fatalf("expected a terminal error from recovered panic, got %+v", step)
	}
	if step.Stack == "" {
		t.Fatalf("expected a captured stack trace for a recovered panic")
	}
}

func TestSkippedResponseFallsBackToDefault(t *testing.T) {
	ec := newTestContext()
	c := Start(ec, func(ec *ExecutionContext) (any, error) {
		v := ec.Prompt("name?", PromptOptions{DefaultValue: "anon"})
		return v, nil
	})

	step := c.Advance()
	c.Resume(interaction.Response{RequestID: step.Request.RequestID, Skipped: true})
	final := c.Advance()
	if final.Value != "anon" {
		t.Fatalf("expected default value on skip, got %+v", final)
	}
}
