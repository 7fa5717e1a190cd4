package storage

import (
	"database/sql"
	"fmt"
	"time"
)

func (s *Store) EnqueuePrompt(p Prompt) error {
	now := time.Now().UTC().Format(time.RFC3339)
	createdAt := now
	if !p.CreatedAt.IsZero() {
		createdAt = p.CreatedAt.UTC().Format(time.RFC3339)
	}
	_, err := s.db.Exec(`
		INSERT INTO prompts (id, question, status, attempts, created_at, updated_at)
		VALUES (?, ?, 'pending', 0, ?, ?)`,
		p.ID, p.Question, createdAt, now,
	)
	return err
}

// ClaimNextPrompt atomically moves the oldest pending prompt to running and
// returns it. Returns nil when the queue is empty.
func (s *Store) ClaimNextPrompt() (*Prompt, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning claim transaction: %w", err)
	}

	var p Prompt
	var createdAt, updatedAt string
	var lastError sql.NullString
	err = tx.QueryRow(`
		SELECT id, question, status, attempts, created_at, updated_at, last_error
		FROM prompts WHERE status = 'pending'
		ORDER BY created_at ASC LIMIT 1`,
	).Scan(&p.ID, &p.Question, &p.Status, &p.Attempts, &createdAt, &updatedAt, &lastError)
	if err == sql.ErrNoRows {
		tx.Rollback()
		return nil, nil
	}
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("selecting next prompt: %w", err)
	}

	res, err := tx.Exec(`UPDATE prompts SET status = 'running', updated_at = ? WHERE id = ? AND status = 'pending'`, now, p.ID)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("updating prompt status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("checking updated prompt rows: %w", err)
	}
	if n != 1 {
		tx.Rollback()
		return nil, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing claim: %w", err)
	}

	p.Status = "running"
	p.LastError = lastError.String
	if p.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at for prompt %s: %w", p.ID, err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339, now); err != nil {
		return nil, fmt.Errorf("parsing updated_at for prompt %s: %w", p.ID, err)
	}
	return &p, nil
}

func (s *Store) CompletePrompt(id string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`UPDATE prompts SET status = 'completed', updated_at = ? WHERE id = ?`, now, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) FailPrompt(id string, errMsg string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`
		UPDATE prompts SET status = 'failed', attempts = attempts + 1, last_error = ?, updated_at = ?
		WHERE id = ?`,
		errMsg, now, id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
