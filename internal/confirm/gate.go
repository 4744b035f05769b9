// Package confirm holds actions that must not execute until a user
// explicitly approves them. Entries are keyed by one-time tokens with
// atomic take-once semantics: a token can be resolved exactly once.
package confirm

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"codeforge/internal/logging"
	"codeforge/internal/schema"
)

// Pending is one deferred action awaiting a decision.
type Pending struct {
	Token       string
	Action      *schema.Action
	RequestedBy string
	CreatedAt   time.Time
}

// Persister spills pending entries to durable storage so tokens survive
// process restarts. Implemented by the project store.
type Persister interface {
	SavePending(p *Pending) error
	DeletePending(token string) (bool, error)
	LoadPending() ([]*Pending, error)
}

// Gate is the pending-confirmation table. Safe for concurrent use.
type Gate struct {
	mu        sync.Mutex
	pending   map[string]*Pending
	persister Persister
}

// NewGate creates an empty in-memory gate.
func NewGate() *Gate {
	return &Gate{pending: make(map[string]*Pending)}
}

// NewPersistentGate creates a gate backed by durable storage, seeded
// with any entries left over from previous runs.
func NewPersistentGate(p Persister) (*Gate, error) {
	loaded, err := p.LoadPending()
	if err != nil {
		return nil, err
	}

	g := &Gate{pending: make(map[string]*Pending, len(loaded)), persister: p}
	for _, entry := range loaded {
		g.pending[entry.Token] = entry
	}
	if len(loaded) > 0 {
		logging.Confirm("Restored %d pending confirmations", len(loaded))
	}
	return g, nil
}

// Register stores an action awaiting confirmation and returns its token.
func (g *Gate) Register(action *schema.Action, requestedBy string) string {
	token := uuid.NewString()
	entry := &Pending{
		Token:       token,
		Action:      action,
		RequestedBy: requestedBy,
		CreatedAt:   time.Now(),
	}

	g.mu.Lock()
	g.pending[token] = entry
	g.mu.Unlock()

	if g.persister != nil {
		if err := g.persister.SavePending(entry); err != nil {
			logging.ConfirmDebug("Failed to persist pending %s: %v", token, err)
		}
	}

	logging.Confirm("Registered pending %s action, token %s", action.Type, token)
	return token
}

// Take removes and returns the entry for token. The remove happens under
// the same lock acquisition as the lookup, so two concurrent confirmations
// can never both observe the token as present.
func (g *Gate) Take(token string) (*Pending, bool) {
	g.mu.Lock()
	p, ok := g.pending[token]
	if ok {
		delete(g.pending, token)
	}
	g.mu.Unlock()

	if !ok {
		return nil, false
	}
	if g.persister != nil {
		if _, err := g.persister.DeletePending(token); err != nil {
			logging.ConfirmDebug("Failed to delete persisted pending %s: %v", token, err)
		}
	}
	return p, true
}

// Len returns the number of outstanding confirmations.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

// Sweep evicts entries older than maxAge and returns how many were
// removed. A maxAge of zero disables eviction: entries live until
// explicitly resolved.
func (g *Gate) Sweep(maxAge time.Duration) int {
	if maxAge <= 0 {
		return 0
	}

	cutoff := time.Now().Add(-maxAge)

	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for token, p := range g.pending {
		if p.CreatedAt.Before(cutoff) {
			delete(g.pending, token)
			if g.persister != nil {
				if _, err := g.persister.DeletePending(token); err != nil {
					logging.ConfirmDebug("Failed to delete persisted pending %s: %v", token, err)
				}
			}
			removed++
		}
	}
	if removed > 0 {
		logging.Confirm("Swept %d stale pending confirmations", removed)
	}
	return removed
}
