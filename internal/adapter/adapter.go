// Package adapter defines the boundary interface between the Orchestrator
// and a concrete surface (CLI, MCP, GUI), described as a capability set
// rather than a class hierarchy: Adapter is the set {CollectInput,
// HandleInteraction, RenderOutput, OnStateChange}.
package adapter

import (
	"context"

	"github.com/oriys/nova/internal/interaction"
	"github.com/oriys/nova/internal/manifest"
	"github.com/oriys/nova/internal/orchestrator/state"
	"github.com/oriys/nova/internal/result"
)

// Adapter is the boundary contract an Orchestrator drives a run through.
// The Orchestrator never initiates a state transition on the adapter's
// behalf and never hands it a reference to the executor.
type Adapter interface {
	// CollectInput produces raw input for validation. Called once, during
	// PRE_FLIGHT, only when the caller did not supply input directly.
	CollectInput(ctx context.Context, m *manifest.Manifest) (any, error)

	// HandleInteraction answers a yielded request. For requests with
	// RequiresResponse=false, the Orchestrator calls this fire-and-forget
	// and discards the result.
	HandleInteraction(ctx context.Context, req interaction.Request) (interaction.Response, error)

	// RenderOutput is called exactly once per run, after a terminal state
	// is reached.
	RenderOutput(ctx context.Context, res result.Execution, m *manifest.Manifest) error

	// OnStateChange is an optional observer hook. Adapters that don't care
	// may embed NoStateObserver to satisfy the interface.
	OnStateChange(from, to state.State)
}

// NoStateObserver is embedded by adapters that don't need OnStateChange.
type NoStateObserver struct{}

func (NoStateObserver) OnStateChange(from, to state.State) {}
