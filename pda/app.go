// Package pda is the embedder-facing API: it wires a Manifest and an
// executor body into an App that can be driven by any Adapter, run
// headlessly from a CLI, or exposed as a single MCP tool. Every surface
// ultimately calls the same orchestrated run path, just through a
// different adapter.
package pda

import (
	"context"

	"github.com/oriys/nova/internal/adapter"
	"github.com/oriys/nova/internal/cliadapter"
	"github.com/oriys/nova/internal/filestore"
	"github.com/oriys/nova/internal/manifest"
	"github.com/oriys/nova/internal/mcpadapter"
	"github.com/oriys/nova/internal/orchestrator"
	"github.com/oriys/nova/internal/pdaexec"
	"github.com/oriys/nova/internal/result"
	"github.com/oriys/nova/internal/schema"
)

// Config describes the single app an App wraps.
type Config struct {
	Manifest *manifest.Manifest
	Execute  pdaexec.Func
	Files    filestore.Store // defaults to filestore.NewMemory() when nil
}

// ToolDefinition is the portable MCP tool spec derived from an app's
// manifest: {name, description, inputSchema}.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema *schema.Portable
}

// App wraps one manifest + executor pairing behind the orchestrator state
// machine, ready to be driven by any adapter.
type App struct {
	manifest *manifest.Manifest
	execute  pdaexec.Func
	files    filestore.Store
}

// CreateApp validates cfg.Manifest and returns a ready-to-run App.
func CreateApp(cfg Config) (*App, error) {
	if cfg.Manifest == nil {
		return nil, &InvalidConfigError{Reason: "manifest is required"}
	}
	if err := cfg.Manifest.Validate(); err != nil {
		return nil, err
	}
	if cfg.Execute == nil {
		return nil, &InvalidConfigError{Reason: "execute is required"}
	}
	files := cfg.Files
	if files == nil {
		files = filestore.NewMemory()
	}
	return &App{manifest: cfg.Manifest, execute: cfg.Execute, files: files}, nil
}

// Run drives one execution of the app against ad. If input is nil,
// ad.CollectInput supplies it.
func (a *App) Run(ctx context.Context, ad adapter.Adapter, input any) (result.Execution, error) {
	o := orchestrator.New(a.manifest, a.execute, a.files)
	return o.Run(ctx, ad, input)
}

// RunCLI wires a fresh cliadapter.CLI over args and os.Stdin/Stdout/Stderr,
// runs the app to completion, and returns the process exit code alongside
// the settled result.
func (a *App) RunCLI(ctx context.Context, args []string) (result.Execution, int, error) {
	cli := cliadapter.New(args)
	res, err := a.Run(ctx, cli, nil)
	if err != nil {
		return res, 1, err
	}
	return res, cliadapter.ExitCode(res), nil
}

// GetMCPToolDefinition returns the portable tool spec an MCP server should
// register this app under.
func (a *App) GetMCPToolDefinition() ToolDefinition {
	return ToolDefinition{
		Name:        a.manifest.ID,
		Description: a.manifest.Description,
		InputSchema: a.manifest.ToPortableInputSchema(),
	}
}

// CreateMCPAdapter returns a fresh MCP adapter for one tool call, seeded
// with args and an optional Responder for resolving mid-run interactions.
func (a *App) CreateMCPAdapter(args map[string]any, respond mcpadapter.Responder) *mcpadapter.MCP {
	return &mcpadapter.MCP{Input: args, Respond: respond}
}

// RunMCP runs the app under a fresh MCP adapter and returns the call result
// already wrapped in MCP content format.
func (a *App) RunMCP(ctx context.Context, args map[string]any, respond mcpadapter.Responder) any {
	ad := a.CreateMCPAdapter(args, respond)
	if _, err := a.Run(ctx, ad, nil); err != nil {
		return mcpadapter.ToMCPResult(result.Execution{Success: false, Error: err.Error()})
	}
	return mcpadapter.ToMCPResult(ad.Result)
}
