package storage

import (
	"database/sql"
	"fmt"
	"time"
)

func (s *Store) SaveReflection(r Reflection) error {
	_, err := s.db.Exec(`
		INSERT INTO reflections (id, created_at, prompt, essence, resonance, mode, content)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.UTC().Format(time.RFC3339), r.Prompt, r.Essence, r.Resonance, r.Mode, r.Content,
	)
	return err
}

func (s *Store) GetReflection(id string) (Reflection, error) {
	var r Reflection
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, created_at, prompt, essence, resonance, mode, content
		FROM reflections WHERE id = ?`, id,
	).Scan(&r.ID, &createdAt, &r.Prompt, &r.Essence, &r.Resonance, &r.Mode, &r.Content)
	if err == sql.ErrNoRows {
		return Reflection{}, ErrNotFound
	}
	if err != nil {
		return Reflection{}, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Reflection{}, fmt.Errorf("parsing created_at: %w", err)
	}
	r.CreatedAt = t
	return r, nil
}

func (s *Store) ListReflections(limit int) ([]Reflection, error) {
	rows, err := s.db.Query(`
		SELECT id, created_at, prompt, essence, resonance, mode, content
		FROM reflections ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Reflection
	for rows.Next() {
		var r Reflection
		var createdAt string
		if err := rows.Scan(&r.ID, &createdAt, &r.Prompt, &r.Essence, &r.Resonance, &r.Mode, &r.Content); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		r.CreatedAt = t
		results = append(results, r)
	}
	return results, rows.Err()
}
