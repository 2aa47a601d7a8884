// Package mcpadapter implements the reference MCP Adapter: it feeds a tool
// call's already-decoded arguments straight through as executor input,
// turns interactions into natural-language prompts for a Responder to
// answer, and formats the terminal result as MCP tool content: one JSON
// text block for the data plus one text block per output file.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/oriys/nova/internal/interaction"
	"github.com/oriys/nova/internal/logging"
	"github.com/oriys/nova/internal/manifest"
	"github.com/oriys/nova/internal/orchestrator/state"
	"github.com/oriys/nova/internal/result"
)

// Responder answers one interaction prompt, already rendered to natural
// language by formatInteractionForAI. A nil Responder causes every blocking
// interaction to resolve to its DefaultValue, as if it had timed out.
type Responder func(ctx context.Context, prompt string) (string, error)

// MCP is the reference Adapter implementation for a single tool call: it
// carries the call's decoded arguments as input and an optional Responder
// for resolving interactions raised mid-run.
type MCP struct {
	Input    map[string]any
	Respond  Responder
	Result   result.Execution // set by RenderOutput once the run settles
	rendered bool
}

// CollectInput returns the arguments the tool call already decoded; the
// manifest is unused since MCP arguments arrive pre-validated shape-wise by
// the tool's own input schema.
func (m *MCP) CollectInput(ctx context.Context, _ *manifest.Manifest) (any, error) {
	return m.Input, nil
}

// HandleInteraction formats req for a language model and parses its reply
// back into the type the executor expects. Non-blocking requests are
// logged and otherwise ignored, matching the Adapter contract.
func (m *MCP) HandleInteraction(ctx context.Context, req interaction.Request) (interaction.Response, error) {
	if !req.RequiresResponse {
		logging.Component("mcpadapter").Info("notice", "type", req.Type, "message", req.Message)
		return interaction.Response{}, nil
	}

	if m.Respond == nil {
		return interaction.Response{RequestID: req.RequestID, Value: req.DefaultValue, Skipped: true}, nil
	}

	prompt := formatInteractionForAI(req)
	raw, err := m.Respond(ctx, prompt)
	if err != nil {
		return interaction.Response{}, fmt.Errorf("mcpadapter: resolve interaction: %w", err)
	}

	value, err := parseAIResponse(req, raw)
	if err != nil {
		return interaction.Response{}, err
	}
	return interaction.Response{RequestID: req.RequestID, Value: value}, nil
}

// RenderOutput captures the terminal result for the caller to hand to
// ToMCPResult; it performs no I/O itself.
func (m *MCP) RenderOutput(ctx context.Context, res result.Execution, _ *manifest.Manifest) error {
	m.Result = res
	m.rendered = true
	return nil
}

// OnStateChange is a no-op; MCP tool calls are one-shot and have no
// out-of-band channel to stream state transitions through.
func (m *MCP) OnStateChange(from, to state.State) {}

// formatInteractionForAI renders req as a natural-language prompt a
// language model can answer in free text.
func formatInteractionForAI(req interaction.Request) string {
	switch req.Type {
	case interaction.Confirm:
		return fmt.Sprintf("%s (answer yes or no)", req.Message)
	case interaction.Select:
		options, _ := req.Data.([]string)
		return fmt.Sprintf("%s Choose one of: %s.", req.Message, strings.Join(options, ", "))
	case interaction.Multiselect:
		options, _ := req.Data.([]string)
		return fmt.Sprintf("%s Choose any number of: %s (comma-separated).", req.Message, strings.Join(options, ", "))
	default: // prompt, form, workflow
		return req.Message
	}
}

// parseAIResponse parses a language model's free-text reply back into the
// value type req's interaction.Type implies.
func parseAIResponse(req interaction.Request, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch req.Type {
	case interaction.Confirm:
		// A free-text reply is judged by its first word, so "No thanks"
		// reads as no.
		answer := strings.ToLower(raw)
		if words := strings.FieldsFunc(answer, func(r rune) bool { return !unicode.IsLetter(r) }); len(words) > 0 {
			answer = words[0]
		}
		switch answer {
		case "yes", "y", "true", "confirm", "confirmed":
			return true, nil
		case "no", "n", "false", "cancel", "cancelled":
			return false, nil
		default:
			return nil, fmt.Errorf("mcpadapter: %q is not a yes/no answer", raw)
		}
	case interaction.Select:
		options, _ := req.Data.([]string)
		for _, opt := range options {
			if strings.EqualFold(opt, raw) {
				return opt, nil
			}
		}
		return raw, nil
	case interaction.Multiselect:
		options, _ := req.Data.([]string)
		var picked []string
		for _, tok := range strings.Split(raw, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			matched := tok
			for _, opt := range options {
				if strings.EqualFold(opt, tok) {
					matched = opt
					break
				}
			}
			picked = append(picked, matched)
		}
		return picked, nil
	case interaction.Prompt:
		if n, err := strconv.ParseFloat(raw, 64); err == nil && looksNumeric(req) {
			return n, nil
		}
		return raw, nil
	default: // form, workflow
		return raw, nil
	}
}

// looksNumeric reports whether req's default value hints the expected reply
// is numeric, so a bare "42" parses to a float rather than staying a string.
func looksNumeric(req interaction.Request) bool {
	switch req.DefaultValue.(type) {
	case float64, float32, int, int64:
		return true
	default:
		return false
	}
}

// ToMCPResult wraps res as an MCP tool result: one JSON text block for
// res.Data on success, followed by one text block per output file naming
// its handle, filename, mime type, and size; IsError is set on failure with
// res.Error as the sole content block.
func ToMCPResult(res result.Execution) *mcp.CallToolResult {
	if !res.Success {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Error: %s", res.Error)}},
		}
	}

	data, err := json.Marshal(res.Data)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("encode result: %v", err)}},
		}
	}

	content := []mcp.Content{&mcp.TextContent{Text: string(data)}}
	for _, f := range res.Files {
		content = append(content, &mcp.TextContent{
			Text: fmt.Sprintf("file: handle=%s filename=%s mime=%s size=%d", f.Handle, f.Filename, f.MimeType, f.Size),
		})
	}
	return &mcp.CallToolResult{Content: content}
}
