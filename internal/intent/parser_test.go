package intent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"codeforge/internal/schema"
)

// stubOracle returns a canned response (or error) and records the prompt.
type stubOracle struct {
	resp      string
	err       error
	gotPrompt string
}

func (s *stubOracle) Generate(ctx context.Context, prompt string, wantJSON bool) (string, error) {
	s.gotPrompt = prompt
	return s.resp, s.err
}

func newParser(o *stubOracle) *Parser {
	return NewParser(o, 5*time.Second)
}

func TestParseActionArray(t *testing.T) {
	o := &stubOracle{resp: `[
		{"type": "create_project", "name": "scraper", "projectType": "python"},
		{"type": "run_python", "code": "print('hi')"}
	]`}

	result := newParser(o).Parse(context.Background(), "make a scraper project", Context{})
	if result.NeedsMoreInfo {
		t.Fatalf("unexpected clarification: %s", result.Clarification)
	}
	if len(result.Actions) != 2 {
		t.Fatalf("got %d actions, want 2", len(result.Actions))
	}
	if result.Actions[0].Type != schema.ActionCreateProject {
		t.Errorf("first action = %s", result.Actions[0].Type)
	}
	if result.Actions[1].Type != schema.ActionRunPython {
		t.Errorf("second action = %s", result.Actions[1].Type)
	}
}

func TestParseSingleObjectNormalized(t *testing.T) {
	o := &stubOracle{resp: `{"type": "run_python", "code": "print(1)"}`}

	result := newParser(o).Parse(context.Background(), "run it", Context{})
	if len(result.Actions) != 1 {
		t.Fatalf("got %d actions, want 1", len(result.Actions))
	}
}

func TestBatchIsolation(t *testing.T) {
	// One well-formed candidate next to one missing a required field:
	// the malformed sibling must not block the good one.
	o := &stubOracle{resp: `[
		{"type": "run_python", "code": "print(1)"},
		{"type": "create_project", "projectType": "web"}
	]`}

	result := newParser(o).Parse(context.Background(), "do both", Context{})
	if result.NeedsMoreInfo {
		t.Fatal("unexpected clarification")
	}
	if len(result.Actions) != 1 {
		t.Fatalf("got %d actions, want exactly the well-formed one", len(result.Actions))
	}
	if result.Actions[0].Type != schema.ActionRunPython {
		t.Errorf("surviving action = %s", result.Actions[0].Type)
	}
}

func TestCurrentPlaceholderSubstitution(t *testing.T) {
	o := &stubOracle{resp: `[
		{"type": "create_web_page", "projectId": "current", "pageName": "contact", "pageType": "contact"}
	]`}

	result := newParser(o).Parse(context.Background(), "add a contact page here", Context{ProjectID: "proj-42"})
	if len(result.Actions) != 1 {
		t.Fatalf("got %d actions, want 1", len(result.Actions))
	}
	if result.Actions[0].ProjectID != "proj-42" {
		t.Errorf("projectId = %q, want proj-42", result.Actions[0].ProjectID)
	}
}

func TestPlaceholderWithoutContextLeftAlone(t *testing.T) {
	o := &stubOracle{resp: `[{"type": "delete_file", "fileId": "f1"},
		{"type": "create_web_page", "projectId": "current", "pageName": "about", "pageType": "about"}]`}

	result := newParser(o).Parse(context.Background(), "cleanup", Context{})
	if len(result.Actions) != 2 {
		t.Fatalf("got %d actions, want 2", len(result.Actions))
	}
	if result.Actions[1].ProjectID != "current" {
		t.Errorf("projectId = %q, want literal placeholder preserved", result.Actions[1].ProjectID)
	}
}

func TestDecodeFailureFallsBackToClarification(t *testing.T) {
	o := &stubOracle{resp: "Sure! I'd be happy to help you with that."}

	result := newParser(o).Parse(context.Background(), "do something", Context{})
	if !result.NeedsMoreInfo {
		t.Fatal("expected NeedsMoreInfo for prose response")
	}
	if len(result.Actions) != 0 {
		t.Errorf("got %d actions, want 0", len(result.Actions))
	}
	if result.Clarification == "" {
		t.Error("clarification must be non-empty")
	}
}

func TestOracleErrorFallsBackToClarification(t *testing.T) {
	o := &stubOracle{err: errors.New("connection refused")}

	result := newParser(o).Parse(context.Background(), "do something", Context{})
	if !result.NeedsMoreInfo {
		t.Fatal("expected NeedsMoreInfo when the oracle fails")
	}
	if result.Clarification == "" {
		t.Error("clarification must be non-empty")
	}
}

func TestNeedsMoreInfoPassthrough(t *testing.T) {
	o := &stubOracle{resp: `{"needsMoreInfo": true, "clarificationMessage": "Which project do you mean?"}`}

	result := newParser(o).Parse(context.Background(), "delete it", Context{})
	if !result.NeedsMoreInfo {
		t.Fatal("expected NeedsMoreInfo passthrough")
	}
	if result.Clarification != "Which project do you mean?" {
		t.Errorf("clarification = %q, want verbatim passthrough", result.Clarification)
	}
	if len(result.Actions) != 0 {
		t.Error("NeedsMoreInfo implies no actions")
	}
}

func TestFencedResponseStripped(t *testing.T) {
	o := &stubOracle{resp: "```json\n[{\"type\": \"run_python\", \"code\": \"print(1)\"}]\n```"}

	result := newParser(o).Parse(context.Background(), "run", Context{})
	if len(result.Actions) != 1 {
		t.Fatalf("got %d actions, want 1 after fence stripping", len(result.Actions))
	}
}

func TestEmptyArrayIsLegalWithoutClarification(t *testing.T) {
	o := &stubOracle{resp: `[]`}

	result := newParser(o).Parse(context.Background(), "noop", Context{})
	if result.NeedsMoreInfo {
		t.Error("empty action list must not force a clarification")
	}
	if len(result.Actions) != 0 {
		t.Errorf("got %d actions, want 0", len(result.Actions))
	}
}

func TestPromptCarriesContextAndMessage(t *testing.T) {
	o := &stubOracle{resp: `[]`}
	newParser(o).Parse(context.Background(), "rename the header", Context{
		ProjectID:   "proj-9",
		CurrentFile: "index.html",
		FileContent: "<h1>old</h1>",
	})

	for _, want := range []string{"proj-9", "index.html", "<h1>old</h1>", "rename the header"} {
		if !strings.Contains(o.gotPrompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
