// Package pdaexec implements the executor coroutine: a lazy, suspendable
// producer of interaction requests that resumes with externally supplied
// responses, driven by the orchestrator.
//
// # Why a goroutine + channel pair, not a thread-per-run
//
// The underlying requirement is a lazy sequence of requests whose next
// step depends on a value supplied externally. Go has no native
// generator/yield syntax, so this package implements that contract (yield
// a request, wait for a response, yield the next) as one goroutine per
// run, synchronized through two unbuffered channels.
package pdaexec

import (
	"context"

	"github.com/oriys/nova/internal/filestore"
	"github.com/oriys/nova/internal/interaction"
)

// ExecutionContext is the bundle of capabilities a Func body receives: the
// run's cancellation signal, the file store, the validated input, and the
// progress/info emitters. It is constructed fresh by the Orchestrator for
// every run.
type ExecutionContext struct {
	Context context.Context
	Files   filestore.Store
	Input   any // the PRE_FLIGHT-validated input this run was started with
	driver  *coroutine
}

// Progress emits a non-blocking progress interaction. total may be nil when
// the total unit count is unknown.
func (c *ExecutionContext) Progress(current int, total *int, status string) {
	c.yield(interaction.Progress, status, map[string]any{"current": current, "total": total}, nil, 0)
}

// Info emits a non-blocking informational interaction.
func (c *ExecutionContext) Info(message string, level string) {
	c.yield(interaction.Info, message, map[string]any{"level": level}, nil, 0)
}

// Cancelled reports whether the run's cancellation token has tripped.
func (c *ExecutionContext) Cancelled() bool {
	select {
	case <-c.Context.Done():
		return true
	default:
		return false
	}
}

// Confirm yields a confirm interaction request and blocks until answered.
func (c *ExecutionContext) Confirm(message string, defaultValue *bool) bool {
	def := false
	if defaultValue != nil {
		def = *defaultValue
	}
	v := c.yield(interaction.Confirm, message, nil, def, 0)
	b, _ := v.(bool)
	return b
}

// PromptOptions configures a free-text prompt.
type PromptOptions struct {
	Placeholder  string
	Multiline    bool
	DefaultValue string
	Timeout      int64 // milliseconds; zero means no timeout
}

// Prompt yields a free-text prompt request and blocks until answered.
func (c *ExecutionContext) Prompt(message string, opts PromptOptions) string {
	v := c.yield(interaction.Prompt, message, map[string]any{
		"placeholder": opts.Placeholder,
		"multiline":   opts.Multiline,
	}, opts.DefaultValue, opts.Timeout)
	s, _ := v.(string)
	return s
}

// Select yields a single-choice selection request and blocks until
// answered.
func (c *ExecutionContext) Select(message string, options []string, def string) string {
	v := c.yield(interaction.Select, message, options, def, 0)
	s, _ := v.(string)
	return s
}

// MultiselectOptions configures a multi-choice selection. Only Default is
// carried on the request (as its default value); Min and Max are neither
// sent to the adapter nor enforced on the response.
type MultiselectOptions struct {
	Min     int
	Max     int
	Default []string
}

// Multiselect yields a multi-choice selection request and blocks until
// answered.
func (c *ExecutionContext) Multiselect(message string, options []string, opts MultiselectOptions) []string {
	v := c.yield(interaction.Multiselect, message, options, opts.Default, 0)
	s, _ := v.([]string)
	return s
}

// yield is implemented in coroutine.go; it is a method so helper functions
// above can be small and declarative.
func (c *ExecutionContext) yield(t interaction.Type, message string, data any, def any, timeoutMs int64) any {
	return c.driver.yield(t, message, data, def, timeoutMs)
}
