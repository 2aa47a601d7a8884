package vendorpool

import (
	"fmt"
	"time"

	"github.com/oriys/nova/internal/vendor"
)

// TimeoutError reports that a dispatch exceeded its total time budget
// across all retries. It is never retried.
type TimeoutError struct {
	Budget  time.Duration
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("pool: dispatch exceeded timeout budget %s (elapsed %s)", e.Budget, e.Elapsed)
}

// NoVendorAvailableError reports that every vendor is frozen and either no
// timeout budget remains or the earliest unfreeze lies beyond it; Do returns
// it without waiting out the budget.
type NoVendorAvailableError struct {
	Frozen           []string
	EarliestUnfreeze time.Time
}

func (e *NoVendorAvailableError) Error() string {
	return fmt.Sprintf("pool: no vendor available, frozen=%v earliest unfreeze=%s", e.Frozen, e.EarliestUnfreeze.Format(time.RFC3339))
}

// EscalationContext captures the state of a dispatch at the moment it gives
// up after exhausting its retry or consecutive-failure budget.
type EscalationContext struct {
	TotalRetries        int
	ConsecutiveFailures int
	ElapsedTime         time.Duration
	VendorStates        map[string]vendor.State
	LastError           error
	TaskInput           any
}

// EscalationError surfaces a dispatch failure after the retry/failure
// budget is exhausted, carrying the full EscalationContext.
type EscalationError struct {
	Context EscalationContext
}

func (e *EscalationError) Error() string {
	return fmt.Sprintf("pool: escalated after %d retries (%d consecutive failures): %v",
		e.Context.TotalRetries, e.Context.ConsecutiveFailures, e.Context.LastError)
}

func (e *EscalationError) Unwrap() error { return e.Context.LastError }
