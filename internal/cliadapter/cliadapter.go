// Package cliadapter implements the reference CLI Adapter: it parses
// `--field=value` process arguments against a manifest's input schema,
// renders blocking interactions as prompts on stderr answered on stdin,
// and prints a
// formatted text summary of the final result. Parsing is a schema-driven
// loop rather than a fixed flag set, since a PDA's input fields are not
// known until its manifest is loaded.
package cliadapter

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/oriys/nova/internal/interaction"
	"github.com/oriys/nova/internal/manifest"
	"github.com/oriys/nova/internal/orchestrator/state"
	"github.com/oriys/nova/internal/result"
	"github.com/oriys/nova/internal/schema"
)

// CLI is the reference Adapter implementation for headless terminal use.
type CLI struct {
	Args []string // raw "--field=value" tokens, e.g. os.Args[1:]
	In   io.Reader
	Out  io.Writer
	Err  io.Writer

	reader *bufio.Reader
}

// New creates a CLI adapter over args, defaulting In/Out/Err to the
// process's standard streams.
func New(args []string) *CLI {
	return &CLI{Args: args, In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

func (c *CLI) stdin() *bufio.Reader {
	if c.reader == nil {
		c.reader = bufio.NewReader(c.In)
	}
	return c.reader
}

// CollectInput parses c.Args against m's derived fields, coercing each
// value by FieldType.
func (c *CLI) CollectInput(ctx context.Context, m *manifest.Manifest) (any, error) {
	raw := make(map[string]string)
	for _, arg := range c.Args {
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		kv := strings.SplitN(arg[2:], "=", 2)
		if len(kv) != 2 {
			continue
		}
		raw[kv[0]] = kv[1]
	}

	fields := m.DeriveFields()
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		v, present := raw[f.Name]
		if !present {
			continue
		}
		coerced, err := coerce(f, v)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", f.Name, err)
		}
		out[f.Name] = coerced
	}
	return out, nil
}

func coerce(f schema.Field, v string) (any, error) {
	switch f.Type {
	case schema.FieldNumber:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number: %w", err)
		}
		return n, nil
	case schema.FieldBoolean:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("expected a boolean: %w", err)
		}
		return b, nil
	case schema.FieldArray:
		if v == "" {
			return []any{}, nil
		}
		parts := strings.Split(v, ",")
		items := make([]any, len(parts))
		for i, p := range parts {
			items[i] = p
		}
		return items, nil
	default:
		return v, nil
	}
}

// HandleInteraction renders the interaction on standard streams. Blocking
// requests read a single line of stdin; non-blocking requests (progress,
// info) are printed to stderr and their return value discarded by the
// orchestrator.
func (c *CLI) HandleInteraction(ctx context.Context, req interaction.Request) (interaction.Response, error) {
	switch req.Type {
	case interaction.Progress:
		fmt.Fprintf(c.Err, "[progress] %s\n", req.Message)
		return interaction.Response{}, nil
	case interaction.Info:
		fmt.Fprintf(c.Err, "[info] %s\n", req.Message)
		return interaction.Response{}, nil
	case interaction.Confirm:
		fmt.Fprintf(c.Err, "%s [y/N] ", req.Message)
		line, _ := c.readLine()
		line = strings.ToLower(strings.TrimSpace(line))
		return interaction.Response{RequestID: req.RequestID, Value: line == "y" || line == "yes"}, nil
	case interaction.Select:
		options, _ := req.Data.([]string)
		fmt.Fprintf(c.Err, "%s %v: ", req.Message, options)
		line, _ := c.readLine()
		return interaction.Response{RequestID: req.RequestID, Value: strings.TrimSpace(line)}, nil
	case interaction.Multiselect:
		options, _ := req.Data.([]string)
		fmt.Fprintf(c.Err, "%s %v (comma-separated): ", req.Message, options)
		line, _ := c.readLine()
		var values []string
		for _, s := range strings.Split(line, ",") {
			if s = strings.TrimSpace(s); s != "" {
				values = append(values, s)
			}
		}
		return interaction.Response{RequestID: req.RequestID, Value: values}, nil
	default: // prompt, form, workflow
		fmt.Fprintf(c.Err, "%s: ", req.Message)
		line, _ := c.readLine()
		return interaction.Response{RequestID: req.RequestID, Value: strings.TrimRight(line, "\n")}, nil
	}
}

func (c *CLI) readLine() (string, error) {
	line, err := c.stdin().ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}

// RenderOutput prints a formatted text summary of the run result.
func (c *CLI) RenderOutput(ctx context.Context, res result.Execution, m *manifest.Manifest) error {
	if res.Success {
		data, _ := json.MarshalIndent(res.Data, "", "  ")
		fmt.Fprintf(c.Out, "%s\n", data)
		for _, f := range res.Files {
			fmt.Fprintf(c.Out, "  [file] %s %s (%s, %d bytes)\n", f.Handle, f.Filename, f.MimeType, f.Size)
		}
		return nil
	}
	fmt.Fprintf(c.Err, "error: %s\n", res.Error)
	return nil
}

// OnStateChange logs nothing by default; embedders that want a trace can
// wrap CLI and override this.
func (c *CLI) OnStateChange(from, to state.State) {}

// ExitCode returns the process exit code a runCLI wrapper should use for a
// settled result: non-zero when the run ended in ERROR.
func ExitCode(res result.Execution) int {
	if res.Success {
		return 0
	}
	return 1
}
