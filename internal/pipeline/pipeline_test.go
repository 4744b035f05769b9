package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"codeforge/internal/confirm"
	"codeforge/internal/executor"
	"codeforge/internal/intent"
	"codeforge/internal/mirror"
	"codeforge/internal/sandbox"
	"codeforge/internal/schema"
	"codeforge/internal/store"
)

type stubOracle struct {
	resp string
	err  error
}

func (s *stubOracle) Generate(ctx context.Context, prompt string, wantJSON bool) (string, error) {
	return s.resp, s.err
}

type fakeRunner struct {
	result *sandbox.Result
}

func (f *fakeRunner) RunOnce(ctx context.Context, code string) (*sandbox.Result, error) {
	return f.result, nil
}

type fixture struct {
	pipe   *Pipeline
	store  *store.ProjectStore
	oracle *stubOracle
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := store.NewProjectStore(filepath.Join(t.TempDir(), "forge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	mir, err := mirror.New(t.TempDir())
	require.NoError(t, err)

	o := &stubOracle{}
	gate := confirm.NewGate()
	exec := executor.New(st, mir, &fakeRunner{result: &sandbox.Result{Success: true, Output: "ok"}}, o, gate, 5*time.Second)
	parser := intent.NewParser(o, 5*time.Second)

	return &fixture{pipe: New(parser, exec, gate), store: st, oracle: o}
}

func (f *fixture) deferAPK(t *testing.T, projectID string) string {
	t.Helper()
	out := f.pipe.ExecuteAction(context.Background(), &schema.Action{
		Type:       schema.ActionModifyAPK,
		ProjectID:  projectID,
		APKAction:  "change_icon",
		Parameters: map[string]any{"icon": "new.png"},
	}, "user-1")
	require.True(t, out.RequiresConfirmation)
	require.NotEmpty(t, out.ActionID)
	return out.ActionID
}

func TestParseThenExecute(t *testing.T) {
	f := newFixture(t)
	f.oracle.resp = `[{"type": "run_python", "code": "print('hi')"}]`

	result := f.pipe.ParseUserRequest(context.Background(), "run hello", intent.Context{})
	require.False(t, result.NeedsMoreInfo, result.Clarification)
	require.Len(t, result.Actions, 1)

	out := f.pipe.ExecuteAction(context.Background(), result.Actions[0], "user-1")
	require.True(t, out.Success, out.Message)
	require.Equal(t, "ok", out.Data["output"])
}

func TestConfirmExecutesExactlyOnce(t *testing.T) {
	f := newFixture(t)

	project, err := f.store.CreateProject(store.ProjectFields{Name: "app", Type: "apk"})
	require.NoError(t, err)
	token := f.deferAPK(t, project.ID)

	first := f.pipe.ConfirmAction(context.Background(), token, true)
	require.True(t, first.Success, first.Message)
	require.False(t, first.RequiresConfirmation)

	second := f.pipe.ConfirmAction(context.Background(), token, true)
	require.False(t, second.Success)
	require.Equal(t, "action not found or already processed", second.Message)

	// Exactly one audit line: the action executed once.
	messages, err := f.store.Messages(project.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
}

func TestDenialDiscards(t *testing.T) {
	f := newFixture(t)

	project, err := f.store.CreateProject(store.ProjectFields{Name: "app", Type: "apk"})
	require.NoError(t, err)
	token := f.deferAPK(t, project.ID)

	denied := f.pipe.ConfirmAction(context.Background(), token, false)
	require.False(t, denied.Success)
	require.Equal(t, "cancelled by user", denied.Message)

	retry := f.pipe.ConfirmAction(context.Background(), token, true)
	require.False(t, retry.Success)
	require.Equal(t, "action not found or already processed", retry.Message)

	messages, err := f.store.Messages(project.ID)
	require.NoError(t, err)
	require.Empty(t, messages, "denied action must never execute")
}

func TestConfirmUnknownToken(t *testing.T) {
	f := newFixture(t)

	out := f.pipe.ConfirmAction(context.Background(), "never-issued", true)
	require.False(t, out.Success)
	require.Equal(t, "action not found or already processed", out.Message)
}

func TestPendingCount(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, 0, f.pipe.PendingCount())

	token := f.deferAPK(t, "p1")
	require.Equal(t, 1, f.pipe.PendingCount())

	f.pipe.ConfirmAction(context.Background(), token, false)
	require.Equal(t, 0, f.pipe.PendingCount())
}
