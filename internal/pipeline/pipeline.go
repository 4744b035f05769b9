// Package pipeline is the public surface of the action intent pipeline:
// parse a user message into actions, execute one action, resolve a
// pending confirmation. None of the entry points return errors; failures
// surface inside ParseResult and ActionOutcome.
package pipeline

import (
	"context"

	"codeforge/internal/confirm"
	"codeforge/internal/executor"
	"codeforge/internal/intent"
	"codeforge/internal/logging"
	"codeforge/internal/schema"
)

// Pipeline ties the parser, the executor, and the confirmation gate
// together behind the three application-facing operations.
type Pipeline struct {
	parser *intent.Parser
	exec   *executor.Executor
	gate   *confirm.Gate
}

// New creates a pipeline. The gate must be the same instance the
// executor registers deferred actions with.
func New(parser *intent.Parser, exec *executor.Executor, gate *confirm.Gate) *Pipeline {
	return &Pipeline{parser: parser, exec: exec, gate: gate}
}

// ParseUserRequest maps a free-text message plus workbench context to a
// validated action list or a clarification request.
func (p *Pipeline) ParseUserRequest(ctx context.Context, message string, pctx intent.Context) intent.ParseResult {
	return p.parser.Parse(ctx, message, pctx)
}

// ExecuteAction runs one validated action and returns its outcome.
func (p *Pipeline) ExecuteAction(ctx context.Context, action *schema.Action, userID string) executor.ActionOutcome {
	return p.exec.Execute(ctx, action, userID)
}

// ConfirmAction resolves a pending confirmation. The gate entry is
// removed before any execution, so a duplicate confirmation races to a
// "not found" outcome instead of a double execution.
func (p *Pipeline) ConfirmAction(ctx context.Context, token string, confirmed bool) executor.ActionOutcome {
	pending, ok := p.gate.Take(token)
	if !ok {
		return executor.ActionOutcome{Success: false, Message: "action not found or already processed"}
	}

	if !confirmed {
		logging.Confirm("Denied pending %s action, token %s", pending.Action.Type, token)
		return executor.ActionOutcome{Success: false, Message: "cancelled by user"}
	}

	logging.Confirm("Confirmed pending %s action, token %s", pending.Action.Type, token)
	return p.exec.ExecuteConfirmed(ctx, pending.Action, pending.RequestedBy)
}

// PendingCount reports how many confirmations are outstanding.
func (p *Pipeline) PendingCount() int {
	return p.gate.Len()
}
