package store

import (
	"encoding/json"
	"fmt"
	"time"

	"codeforge/internal/confirm"
	"codeforge/internal/logging"
	"codeforge/internal/schema"
)

// ProjectStore doubles as the confirmation gate's persister so pending
// tokens survive process restarts. Actions are stored as JSON.

// SavePending writes one pending confirmation.
func (s *ProjectStore) SavePending(p *confirm.Pending) error {
	encoded, err := json.Marshal(p.Action)
	if err != nil {
		return fmt.Errorf("failed to encode pending action: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO pending_confirmations (token, action, requested_by, created_at) VALUES (?, ?, ?, ?)`,
		p.Token, string(encoded), p.RequestedBy, p.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save pending confirmation: %w", err)
	}
	return nil
}

// DeletePending removes one pending confirmation by token.
func (s *ProjectStore) DeletePending(token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM pending_confirmations WHERE token = ?`, token)
	if err != nil {
		return false, fmt.Errorf("failed to delete pending confirmation: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// LoadPending returns all stored pending confirmations. Rows whose
// action no longer decodes are dropped with a warning.
func (s *ProjectStore) LoadPending() ([]*confirm.Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT token, action, requested_by, created_at FROM pending_confirmations`)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending confirmations: %w", err)
	}
	defer rows.Close()

	var pending []*confirm.Pending
	for rows.Next() {
		var token, encoded, requestedBy string
		var createdAt int64
		if err := rows.Scan(&token, &encoded, &requestedBy, &createdAt); err != nil {
			return nil, err
		}

		var action schema.Action
		if err := json.Unmarshal([]byte(encoded), &action); err != nil {
			logging.StoreDebug("Dropping undecodable pending confirmation %s: %v", token, err)
			continue
		}

		pending = append(pending, &confirm.Pending{
			Token:       token,
			Action:      &action,
			RequestedBy: requestedBy,
			CreatedAt:   time.UnixMilli(createdAt).UTC(),
		})
	}
	return pending, rows.Err()
}
