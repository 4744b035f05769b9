// Package intent maps free-text user instructions to validated action
// sequences. The oracle's output is untrusted: everything is decoded
// defensively and validated per candidate, and any failure in the full
// sequence degrades to a clarification request instead of an error.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"codeforge/internal/logging"
	"codeforge/internal/oracle"
	"codeforge/internal/schema"
)

// Context carries the workbench state relevant to a parse.
type Context struct {
	ProjectID   string
	CurrentFile string
	FileContent string
}

// ParseResult is the outcome of one parse. NeedsMoreInfo=true implies
// Actions is empty; an empty Actions without NeedsMoreInfo is legal
// (every candidate failed validation).
type ParseResult struct {
	Actions       []*schema.Action
	NeedsMoreInfo bool
	Clarification string
}

// Fallback clarifications shown when the oracle's output is unusable.
const (
	clarifyNotUnderstood = "I couldn't understand that request. Could you rephrase what you'd like to do?"
	clarifyInternalError = "An error occurred processing your request. Please try again."
)

// Parser turns user messages into validated action lists.
type Parser struct {
	client  oracle.Client
	timeout time.Duration
}

// NewParser creates a parser. timeout bounds each oracle call; zero
// means 60s.
func NewParser(client oracle.Client, timeout time.Duration) *Parser {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Parser{client: client, timeout: timeout}
}

// Parse maps (message, context) to a ParseResult. It never returns an
// error: oracle failures, timeouts, and undecodable output all degrade
// to NeedsMoreInfo with a generic clarification.
func (p *Parser) Parse(ctx context.Context, message string, pctx Context) ParseResult {
	timer := logging.StartTimer(logging.CategoryIntent, "Parse")
	defer timer.Stop()

	prompt := p.buildPrompt(message, pctx)

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Generate(callCtx, prompt, true)
	if err != nil {
		logging.IntentWarn("Oracle call failed: %v", err)
		return ParseResult{NeedsMoreInfo: true, Clarification: clarifyInternalError}
	}

	return p.interpret(resp, pctx)
}

// buildPrompt assembles the single prompt: instruction set, serialized
// context, and the verbatim user message.
func (p *Parser) buildPrompt(message string, pctx Context) string {
	var sb strings.Builder
	sb.WriteString(systemPrompt)

	if pctx.ProjectID != "" || pctx.CurrentFile != "" {
		sb.WriteString("\n## CURRENT CONTEXT\n")
		if pctx.ProjectID != "" {
			fmt.Fprintf(&sb, "Active project id: %s\n", pctx.ProjectID)
		}
		if pctx.CurrentFile != "" {
			fmt.Fprintf(&sb, "Open file: %s\n", pctx.CurrentFile)
		}
		if pctx.FileContent != "" {
			content := pctx.FileContent
			if len(content) > 2000 {
				content = content[:2000] + "\n... (truncated)"
			}
			fmt.Fprintf(&sb, "Open file content:\n%s\n", content)
		}
	}

	fmt.Fprintf(&sb, "\nRequest: %q\nResponse:\n", message)
	return sb.String()
}

// interpret decodes the oracle's raw reply into a ParseResult.
func (p *Parser) interpret(resp string, pctx Context) ParseResult {
	decoded, err := decodeUntrusted(resp)
	if err != nil {
		logging.IntentWarn("Undecodable oracle response (%d bytes): %v", len(resp), err)
		return ParseResult{NeedsMoreInfo: true, Clarification: clarifyNotUnderstood}
	}

	// A top-level clarification request passes through verbatim.
	if obj, ok := decoded.(map[string]any); ok {
		if needs, _ := obj["needsMoreInfo"].(bool); needs {
			msg, _ := obj["clarificationMessage"].(string)
			if msg == "" {
				msg = clarifyNotUnderstood
			}
			return ParseResult{NeedsMoreInfo: true, Clarification: msg}
		}
	}

	candidates := normalize(decoded)
	if candidates == nil {
		logging.IntentWarn("Oracle response decoded to neither object nor array")
		return ParseResult{NeedsMoreInfo: true, Clarification: clarifyNotUnderstood}
	}

	actions := make([]*schema.Action, 0, len(candidates))
	for i, candidate := range candidates {
		resolveCurrentProject(candidate, pctx)

		action, err := schema.Decode(candidate)
		if err != nil {
			// One bad candidate never discards its siblings.
			logging.IntentWarn("Dropped candidate %d: %v (candidate: %v)", i, err, candidate)
			continue
		}
		actions = append(actions, action)
	}

	logging.Intent("Parsed %d/%d candidates into actions", len(actions), len(candidates))
	return ParseResult{Actions: actions}
}

// decodeUntrusted extracts the first JSON value from possibly noisy
// oracle output: markdown fences stripped, leading/trailing prose
// ignored.
func decodeUntrusted(resp string) (any, error) {
	cleaned := stripFences(resp)

	start := strings.IndexAny(cleaned, "{[")
	if start == -1 {
		return nil, fmt.Errorf("no JSON value found in response")
	}

	decoder := json.NewDecoder(strings.NewReader(cleaned[start:]))
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return value, nil
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// normalize coerces the decoded value to a list of candidate objects:
// a single object becomes a one-element list, an array keeps its order,
// and non-object array elements are dropped.
func normalize(decoded any) []map[string]any {
	switch v := decoded.(type) {
	case map[string]any:
		return []map[string]any{v}
	case []any:
		candidates := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				candidates = append(candidates, obj)
			}
		}
		return candidates
	default:
		return nil
	}
}

// resolveCurrentProject substitutes the "current" placeholder with the
// real project id from context, in place, before validation. Without a
// context project the placeholder is left alone.
func resolveCurrentProject(candidate map[string]any, pctx Context) {
	if pctx.ProjectID == "" {
		return
	}
	if id, ok := candidate["projectId"].(string); ok && id == currentPlaceholder {
		candidate["projectId"] = pctx.ProjectID
		logging.IntentDebug("Substituted current project placeholder with %s", pctx.ProjectID)
	}
}
