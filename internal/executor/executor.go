// Package executor applies validated actions to the project store, the
// filesystem mirror, and the execution sandbox. Every call produces
// exactly one ActionOutcome; failures are captured in the outcome, never
// returned as errors or allowed to escape as panics.
package executor

import (
	"context"
	"fmt"
	"time"

	"codeforge/internal/confirm"
	"codeforge/internal/logging"
	"codeforge/internal/mirror"
	"codeforge/internal/oracle"
	"codeforge/internal/sandbox"
	"codeforge/internal/schema"
	"codeforge/internal/store"
)

// ActionOutcome is the uniform result of executing one action.
type ActionOutcome struct {
	Success              bool           `json:"success"`
	Message              string         `json:"message"`
	Data                 map[string]any `json:"data,omitempty"`
	RequiresConfirmation bool           `json:"requiresConfirmation,omitempty"`
	ConfirmationMessage  string         `json:"confirmationMessage,omitempty"`
	ActionID             string         `json:"actionId,omitempty"`
}

// CodeRunner is the sandbox surface the executor needs: one-shot
// execution with exit-code-derived success. *sandbox.Runner satisfies it.
type CodeRunner interface {
	RunOnce(ctx context.Context, code string) (*sandbox.Result, error)
}

// Executor dispatches validated actions to per-variant handlers.
type Executor struct {
	store   *store.ProjectStore
	mirror  *mirror.Mirror
	runner  CodeRunner
	oracle  oracle.Client
	gate    *confirm.Gate
	timeout time.Duration
}

// New creates an executor over its collaborators. timeout bounds each
// oracle call; zero means 60s.
func New(st *store.ProjectStore, mir *mirror.Mirror, runner CodeRunner, client oracle.Client, gate *confirm.Gate, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Executor{
		store:   st,
		mirror:  mir,
		runner:  runner,
		oracle:  client,
		gate:    gate,
		timeout: timeout,
	}
}

// Execute runs one validated action and returns its outcome. The unknown
// discriminant branch is unreachable after validation but checked anyway.
func (e *Executor) Execute(ctx context.Context, action *schema.Action, userID string) ActionOutcome {
	timer := logging.StartTimer(logging.CategoryExecutor, string(action.Type))
	defer timer.Stop()

	switch action.Type {
	case schema.ActionCreateProject:
		return e.createProject(ctx, action)
	case schema.ActionAddFile:
		return e.addFile(action)
	case schema.ActionUpdateFile:
		return e.updateFile(action)
	case schema.ActionDeleteFile:
		return e.deleteFile(action)
	case schema.ActionCreateWebPage:
		return e.createWebPage(ctx, action)
	case schema.ActionModifyAPK:
		return e.deferAPK(action, userID)
	case schema.ActionRunPython:
		return e.runPython(ctx, action)
	case schema.ActionGenerateSnippet:
		return e.generateSnippet(ctx, action)
	default:
		logging.ExecutorWarn("Unsupported action type %q reached the executor", action.Type)
		return failure("unsupported action type")
	}
}

// ExecuteConfirmed runs an action that already passed the confirmation
// gate. Variants that normally defer execute for real here; everything
// else dispatches as usual.
func (e *Executor) ExecuteConfirmed(ctx context.Context, action *schema.Action, userID string) ActionOutcome {
	if action.Type == schema.ActionModifyAPK {
		return e.applyAPK(action)
	}
	return e.Execute(ctx, action, userID)
}

// deferAPK never executes the mutation. The action goes into the gate
// unconditionally and the caller gets a confirmation token.
func (e *Executor) deferAPK(action *schema.Action, userID string) ActionOutcome {
	token := e.gate.Register(action, userID)
	logging.Executor("Deferred modify_apk (%s) on project %s, token %s", action.APKAction, action.ProjectID, token)
	return ActionOutcome{
		Success:              false,
		Message:              "confirmation required",
		RequiresConfirmation: true,
		ConfirmationMessage:  fmt.Sprintf("Apply APK modification %q to project %s? This change cannot be undone.", action.APKAction, action.ProjectID),
		ActionID:             token,
	}
}

// applyAPK performs a confirmed APK modification. The change is recorded
// against the project; an audit line goes into its conversation history.
func (e *Executor) applyAPK(action *schema.Action) ActionOutcome {
	project, ok, err := e.store.GetProject(action.ProjectID)
	if err != nil {
		return failure(fmt.Sprintf("failed to look up project: %v", err))
	}
	if !ok {
		return failure("project not found")
	}

	note := fmt.Sprintf("apk modification applied: %s", action.APKAction)
	if _, err := e.store.AppendMessage(project.ID, "system", note); err != nil {
		logging.ExecutorWarn("Failed to record APK audit line for %s: %v", project.ID, err)
	}

	logging.Executor("Applied APK modification %s to project %s", action.APKAction, project.ID)
	return success(fmt.Sprintf("applied APK modification %s to %s", action.APKAction, project.Name), map[string]any{
		"projectId":  project.ID,
		"action":     action.APKAction,
		"parameters": action.Parameters,
	})
}

func (e *Executor) runPython(ctx context.Context, action *schema.Action) ActionOutcome {
	result, err := e.runner.RunOnce(ctx, action.Code)
	if err != nil {
		logging.ExecutorWarn("Sandbox run failed: %v", err)
		return failure(fmt.Sprintf("failed to run code: %v", err))
	}

	msg := "code executed"
	if !result.Success {
		msg = "code execution failed"
	}
	return ActionOutcome{
		Success: result.Success,
		Message: msg,
		Data: map[string]any{
			"output":   result.Output,
			"error":    result.Error,
			"exitCode": result.ExitCode,
		},
	}
}

func failure(message string) ActionOutcome {
	return ActionOutcome{Success: false, Message: message}
}

func success(message string, data map[string]any) ActionOutcome {
	return ActionOutcome{Success: true, Message: message, Data: data}
}
