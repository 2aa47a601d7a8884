package pdaexec

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/oriys/nova/internal/interaction"
)

// Func is an app's executor body. It receives an ExecutionContext carrying
// cancellation, storage, and the interaction helpers, and returns the app's
// final output or an error.
type Func func(ec *ExecutionContext) (any, error)

// Step is what one advance of the coroutine produces: either a yielded
// request awaiting a response, or a terminal outcome (value or error).
type Step struct {
	Request *interaction.Request // non-nil when the coroutine suspended
	Done    bool
	Value   any
	Err     error
	Stack   string // set only when Err came from a recovered panic
}

// Coroutine drives a Func as a resumable producer of interaction requests.
// The contract: produce a request, wait for a response, produce the next.
type Coroutine struct {
	driver *coroutine
}

// Start launches fn on its own goroutine and returns a Coroutine ready to be
// driven with Advance/Resume. The goroutine blocks immediately on its first
// yield (or runs straight to completion for a fn that never yields).
func Start(ec *ExecutionContext, fn Func) *Coroutine {
	d := &coroutine{
		toFunc:   make(chan any),
		fromFunc: make(chan Step),
	}
	ec.driver = d

	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.fromFunc <- Step{Done: true, Err: fmt.Errorf("executor panicked: %v", r), Stack: string(debug.Stack())}
			}
		}()
		value, err := fn(ec)
		d.fromFunc <- Step{Done: true, Value: value, Err: err}
	}()

	return &Coroutine{driver: d}
}

// Advance blocks until the coroutine either yields its next request or
// completes. It must only be called after the previous Step's request (if
// any) has been resolved via Resume.
func (c *Coroutine) Advance() Step {
	return <-c.driver.fromFunc
}

// Resume supplies a response to the most recently yielded request and lets
// the coroutine continue. Call Advance afterward to get the next Step.
func (c *Coroutine) Resume(response interaction.Response) {
	c.driver.toFunc <- response
}

// coroutine is the channel pair linking the driving goroutine (Orchestrator)
// to the running Func goroutine.
type coroutine struct {
	toFunc   chan any
	fromFunc chan Step
}

// yield is called from within the Func goroutine by the interaction
// helpers in context.go. It publishes a fresh request and, for blocking
// types, waits until the response arrives on toFunc. Non-blocking types
// (progress/info) publish the request and return immediately without
// suspending — the executor is never blocked on a notification.
func (d *coroutine) yield(t interaction.Type, message string, data any, def any, timeoutMs int64) any {
	req := interaction.NewRequest(uuid.NewString(), t, message, data)
	req.DefaultValue = def
	if timeoutMs > 0 {
		req.Timeout = time.Duration(timeoutMs) * time.Millisecond
	}

	d.fromFunc <- Step{Request: &req}

	if !req.RequiresResponse {
		return nil
	}

	resp := (<-d.toFunc).(interaction.Response)
	if resp.Skipped {
		return def
	}
	return resp.Value
}
