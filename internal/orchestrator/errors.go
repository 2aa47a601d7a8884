package orchestrator

import (
	"fmt"

	"github.com/oriys/nova/internal/orchestrator/state"
)

// StateTransitionError reports an attempted transition outside the legal
// graph declared in package state.
type StateTransitionError struct {
	From state.State
	To   state.State
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("orchestrator: illegal transition %s -> %s", e.From, e.To)
}

// InteractionTimeoutError names a blocking interaction whose timeout
// elapsed. The Orchestrator does not produce it: when a timeout elapses the
// race synthesizes a skipped response carrying the request's default value
// instead.
type InteractionTimeoutError struct {
	RequestID string
}

func (e *InteractionTimeoutError) Error() string {
	return fmt.Sprintf("orchestrator: interaction %s timed out", e.RequestID)
}

// ExecutionCancelledError reports that the run's cancellation token tripped
// before or during the executor's work.
type ExecutionCancelledError struct{}

func (e *ExecutionCancelledError) Error() string { return "cancelled" }
