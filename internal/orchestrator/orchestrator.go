// Package orchestrator implements the validated Orchestrator state machine
// that drives one PDA run: transitions through IDLE → PRE_FLIGHT → RUNNING
// ↔ AWAITING_USER → SUCCESS/ERROR, routing executor yields to an Adapter
// and enforcing interaction timeouts. State transitions are checked
// against a single table, never ad hoc.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/oriys/nova/internal/adapter"
	"github.com/oriys/nova/internal/eventbus"
	"github.com/oriys/nova/internal/filestore"
	"github.com/oriys/nova/internal/interaction"
	"github.com/oriys/nova/internal/logging"
	"github.com/oriys/nova/internal/manifest"
	"github.com/oriys/nova/internal/orchestrator/state"
	"github.com/oriys/nova/internal/pdaexec"
	"github.com/oriys/nova/internal/result"
	"github.com/oriys/nova/internal/schema"
)

// StateChangePayload is the payload published on eventbus.StateChange.
type StateChangePayload struct {
	From state.State
	To   state.State
}

// Orchestrator drives a single app (manifest + executor) to completion,
// once per Run call, with Reset required between runs.
type Orchestrator struct {
	manifest *manifest.Manifest
	fn       pdaexec.Func
	files    filestore.Store
	bus      *eventbus.Bus
	log      *logging.Logger

	mu           sync.Mutex
	st           state.State
	cancel       context.CancelFunc
	runID        string
	interactions atomic.Int64
}

// New creates an Orchestrator for the given manifest and executor body,
// starting in IDLE.
func New(m *manifest.Manifest, fn pdaexec.Func, files filestore.Store) *Orchestrator {
	return &Orchestrator{
		manifest: m,
		fn:       fn,
		files:    files,
		bus:      eventbus.New(),
		log:      logging.Default(),
		st:       state.Idle,
	}
}

// Bus returns the event bus observers subscribe to.
func (o *Orchestrator) Bus() *eventbus.Bus { return o.bus }

// State returns the orchestrator's current state.
func (o *Orchestrator) State() state.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.st
}

// Cancel trips the cancellation token for the in-flight run, if any.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Reset returns a terminal orchestrator to IDLE without clearing
// subscribers. It fails if the current state is not terminal.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !state.IsTerminal(o.st) {
		return &StateTransitionError{From: o.st, To: state.Idle}
	}
	o.transitionLocked(nil, state.Idle)
	return nil
}

// transitionLocked applies from→to, publishing state:change and invoking
// the adapter's observer hook. Caller must hold o.mu.
func (o *Orchestrator) transitionLocked(ad adapter.Adapter, to state.State) {
	from := o.st
	o.st = to
	o.bus.Publish(eventbus.StateChange, StateChangePayload{From: from, To: to})
	if ad != nil {
		ad.OnStateChange(from, to)
	}
}

// transition validates from→to against the legal graph, applies it under
// lock, and returns a StateTransitionError without mutating state if the
// edge is illegal.
func (o *Orchestrator) transition(ad adapter.Adapter, to state.State) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !state.CanTransition(o.st, to) {
		return &StateTransitionError{From: o.st, To: to}
	}
	o.transitionLocked(ad, to)
	return nil
}

// Run executes the app once against ad. If input is non-nil it is used
// directly and ad.CollectInput is never consulted: caller-supplied input
// always wins when both paths are available.
func (o *Orchestrator) Run(ctx context.Context, ad adapter.Adapter, input any) (result.Execution, error) {
	o.mu.Lock()
	if o.st != state.Idle {
		err := &StateTransitionError{From: o.st, To: state.PreFlight}
		o.mu.Unlock()
		return result.Execution{}, err
	}
	o.mu.Unlock()

	start := time.Now()
	runCtx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancel = cancel
	o.runID = uuid.NewString()
	o.mu.Unlock()
	o.interactions.Store(0)
	defer cancel()

	// 2: IDLE -> PRE_FLIGHT, collect + validate input.
	if err := o.transition(ad, state.PreFlight); err != nil {
		return result.Execution{}, err
	}

	if input == nil {
		collected, err := ad.CollectInput(runCtx, o.manifest)
		if err != nil {
			return o.fail(ad, start, fmt.Errorf("collect input: %w", err))
		}
		input = collected
	}
	if err := schema.Validate(o.manifest.InputSchema, input); err != nil {
		return o.fail(ad, start, err)
	}

	// 3: PRE_FLIGHT -> RUNNING, build the execution context.
	if err := o.transition(ad, state.Running); err != nil {
		return result.Execution{}, err
	}

	ec := &pdaexec.ExecutionContext{Context: runCtx, Files: o.files, Input: input}
	co := pdaexec.Start(ec, o.fn)

	// 4-6: drive the executor to completion, routing yields to the adapter.
	for {
		if runCtx.Err() != nil {
			return o.fail(ad, start, &ExecutionCancelledError{})
		}

		step := co.Advance()
		if step.Done {
			if step.Err != nil {
				return o.failWithStack(ad, start, step.Err, step.Stack)
			}
			return o.succeed(ad, start, step.Value)
		}

		req := *step.Request
		resp, err := o.handleRequest(runCtx, ad, req)
		if err != nil {
			return o.fail(ad, start, err)
		}
		// A non-blocking request (progress/info) never suspended the
		// coroutine in the first place, so there is nothing to resume —
		// the coroutine is already past its yield and running toward its
		// next step or completion.
		if req.RequiresResponse {
			co.Resume(resp)
		}
	}
}

// handleRequest transitions RUNNING->AWAITING_USER, dispatches req to the
// adapter (racing the adapter's response against req.Timeout when one is
// set), transitions back to RUNNING, and returns the response to feed the
// coroutine. Non-blocking requests are handed to the adapter fire-and-
// forget and never block the caller.
func (o *Orchestrator) handleRequest(ctx context.Context, ad adapter.Adapter, req interaction.Request) (interaction.Response, error) {
	if err := o.transition(ad, state.AwaitingUser); err != nil {
		return interaction.Response{}, err
	}
	o.interactions.Add(1)

	switch req.Type {
	case interaction.Progress:
		o.bus.Publish(eventbus.Progress, req)
	case interaction.Info:
		o.bus.Publish(eventbus.Info, req)
	default:
		o.bus.Publish(eventbus.InteractionRequest, req)
	}

	var resp interaction.Response
	var err error

	if !req.RequiresResponse {
		go safeHandle(ctx, ad, req) // fire-and-forget; caller does not wait
	} else {
		resp, err = o.raceInteraction(ctx, ad, req)
		if err != nil {
			return interaction.Response{}, err
		}
		if resp.RequestID != req.RequestID {
			return interaction.Response{}, fmt.Errorf("orchestrator: response id %q does not match outstanding request %q", resp.RequestID, req.RequestID)
		}
		o.bus.Publish(eventbus.InteractionResponse, resp)
	}

	if terr := o.transition(ad, state.Running); terr != nil {
		return interaction.Response{}, terr
	}
	return resp, nil
}

// safeHandle invokes HandleInteraction for a non-blocking request and
// discards both the result and any error, per the Adapter contract: "for
// non-blocking requests, the return value is ignored."
func safeHandle(ctx context.Context, ad adapter.Adapter, req interaction.Request) {
	_, _ = ad.HandleInteraction(ctx, req)
}

// raceInteraction races the adapter's response against req.Timeout. The
// losing side is always neutralized: the timer is
// stopped when the adapter wins, and the adapter's eventual response (if
// any) is drained in the background when the timer wins so it cannot
// block a goroutine forever or crash on an unobserved send.
func (o *Orchestrator) raceInteraction(ctx context.Context, ad adapter.Adapter, req interaction.Request) (interaction.Response, error) {
	if req.Timeout <= 0 {
		return ad.HandleInteraction(ctx, req)
	}

	type outcome struct {
		resp interaction.Response
		err  error
	}
	ch := make(chan outcome, 1)
	go func() {
		resp, err := ad.HandleInteraction(ctx, req)
		ch <- outcome{resp, err}
	}()

	timer := time.NewTimer(req.Timeout)
	defer timer.Stop()

	select {
	case out := <-ch:
		return out.resp, out.err
	case <-timer.C:
		go func() { <-ch }() // absorb the late response
		return interaction.Response{RequestID: req.RequestID, Value: req.DefaultValue, Skipped: true}, nil
	}
}

// succeed transitions RUNNING -> SUCCESS, delivers the result, and emits
// complete.
func (o *Orchestrator) succeed(ad adapter.Adapter, start time.Time, value any) (result.Execution, error) {
	if err := o.transition(ad, state.Success); err != nil {
		return result.Execution{}, err
	}
	res := result.Execution{Success: true, Data: value, Duration: time.Since(start)}
	o.deliver(ad, res)
	o.logRun(res)
	o.bus.Publish(eventbus.Complete, res)
	return res, nil
}

// fail transitions the current state to ERROR (from whichever state the
// failure occurred in — PRE_FLIGHT or RUNNING are both legal sources),
// delivers the result, and emits error + complete.
func (o *Orchestrator) fail(ad adapter.Adapter, start time.Time, cause error) (result.Execution, error) {
	return o.failWithStack(ad, start, cause, "")
}

// failWithStack is fail plus an optional captured stack trace, set only when
// cause originated from a recovered executor panic.
func (o *Orchestrator) failWithStack(ad adapter.Adapter, start time.Time, cause error, stack string) (result.Execution, error) {
	if err := o.transition(ad, state.Error); err != nil {
		return result.Execution{}, err
	}
	res := result.Execution{Success: false, Error: cause.Error(), Stack: stack, Duration: time.Since(start)}
	o.deliver(ad, res)
	o.logRun(res)
	o.bus.Publish(eventbus.Error, res)
	o.bus.Publish(eventbus.Complete, res)
	return res, nil
}

// logRun records the settled run's outcome through the run-completion
// logger, distinct from the operational Component loggers used for
// infrastructure warnings.
func (o *Orchestrator) logRun(res result.Execution) {
	cancelled := res.Error == (&ExecutionCancelledError{}).Error()
	o.log.Log(&logging.RunLog{
		RunID:        o.runID,
		ManifestID:   o.manifest.ID,
		DurationMs:   res.Duration.Milliseconds(),
		Success:      res.Success,
		Error:        res.Error,
		Interactions: int(o.interactions.Load()),
		Cancelled:    cancelled,
	})
}

// deliver calls the adapter's render hook; the run outcome itself is logged
// separately by logRun. A render error is logged, not propagated:
// RenderOutput is a side effect of an already-terminal run.
func (o *Orchestrator) deliver(ad adapter.Adapter, res result.Execution) {
	if err := ad.RenderOutput(context.Background(), res, o.manifest); err != nil {
		logging.Component("orchestrator").Warn("render output failed", "manifest", o.manifest.ID, "err", err)
	}
}
