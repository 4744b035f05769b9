package confirm

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"codeforge/internal/schema"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func apkAction() *schema.Action {
	return &schema.Action{
		Type:       schema.ActionModifyAPK,
		ProjectID:  "p1",
		APKAction:  "change_icon",
		Parameters: map[string]any{"icon": "new.png"},
	}
}

func TestRegisterAndTake(t *testing.T) {
	g := NewGate()

	token := g.Register(apkAction(), "user-1")
	if token == "" {
		t.Fatal("empty token")
	}
	if g.Len() != 1 {
		t.Errorf("Len = %d, want 1", g.Len())
	}

	p, ok := g.Take(token)
	if !ok {
		t.Fatal("Take failed for registered token")
	}
	if p.Action.Type != schema.ActionModifyAPK {
		t.Errorf("action type = %s", p.Action.Type)
	}
	if p.RequestedBy != "user-1" {
		t.Errorf("requestedBy = %q", p.RequestedBy)
	}

	// Second take must miss: the entry is gone.
	if _, ok := g.Take(token); ok {
		t.Error("second Take succeeded; take-once semantics violated")
	}
}

func TestTakeUnknownToken(t *testing.T) {
	g := NewGate()
	if _, ok := g.Take("never-registered"); ok {
		t.Error("Take succeeded for unknown token")
	}
}

func TestTokensAreFresh(t *testing.T) {
	g := NewGate()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := g.Register(apkAction(), "")
		if seen[token] {
			t.Fatalf("token %s issued twice", token)
		}
		seen[token] = true
	}
}

func TestConcurrentTakeResolvesOnce(t *testing.T) {
	g := NewGate()
	token := g.Register(apkAction(), "")

	const workers = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := g.Take(token); ok {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	if count != 1 {
		t.Errorf("%d workers took the same token, want exactly 1", count)
	}
}

func TestSweep(t *testing.T) {
	g := NewGate()
	token := g.Register(apkAction(), "")

	// Zero max age disables eviction entirely.
	if n := g.Sweep(0); n != 0 {
		t.Errorf("Sweep(0) removed %d entries", n)
	}

	// Fresh entries survive a long max age.
	if n := g.Sweep(time.Hour); n != 0 {
		t.Errorf("Sweep(1h) removed %d fresh entries", n)
	}

	// Backdate the entry to force eviction.
	g.mu.Lock()
	g.pending[token].CreatedAt = time.Now().Add(-2 * time.Hour)
	g.mu.Unlock()

	if n := g.Sweep(time.Hour); n != 1 {
		t.Errorf("Sweep removed %d entries, want 1", n)
	}
	if _, ok := g.Take(token); ok {
		t.Error("swept token still takeable")
	}
}
