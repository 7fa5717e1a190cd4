package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// LoadVoiceSnapshot reads the persisted voice profile. A database with no
// saved profile yields an empty snapshot, not an error.
func (s *Store) LoadVoiceSnapshot() (VoiceSnapshot, error) {
	snap := VoiceSnapshot{Counts: make(map[string]map[string]int)}

	rows, err := s.db.Query("SELECT category, key, count FROM voice_counts")
	if err != nil {
		return VoiceSnapshot{}, fmt.Errorf("querying voice counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category, key string
		var count int
		if err := rows.Scan(&category, &key, &count); err != nil {
			return VoiceSnapshot{}, err
		}
		if snap.Counts[category] == nil {
			snap.Counts[category] = make(map[string]int)
		}
		snap.Counts[category][key] = count
	}
	if err := rows.Err(); err != nil {
		return VoiceSnapshot{}, err
	}

	var lastEvolution sql.NullString
	err = s.db.QueryRow("SELECT total_reflections, last_evolution FROM voice_meta WHERE id = 1").
		Scan(&snap.TotalReflections, &lastEvolution)
	if err == sql.ErrNoRows {
		return snap, nil
	}
	if err != nil {
		return VoiceSnapshot{}, fmt.Errorf("querying voice meta: %w", err)
	}
	if lastEvolution.Valid && lastEvolution.String != "" {
		t, err := time.Parse(time.RFC3339, lastEvolution.String)
		if err != nil {
			return VoiceSnapshot{}, fmt.Errorf("parsing last_evolution: %w", err)
		}
		snap.LastEvolution = t
	}

	return snap, nil
}

// SaveVoiceSnapshot replaces the persisted profile wholesale inside a single
// transaction: either the new profile lands completely or the previous state
// stays untouched.
func (s *Store) SaveVoiceSnapshot(snap VoiceSnapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning save transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM voice_counts"); err != nil {
		return fmt.Errorf("clearing voice counts: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO voice_counts (category, key, count) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for category, keys := range snap.Counts {
		for key, count := range keys {
			if _, err := stmt.Exec(category, key, count); err != nil {
				return fmt.Errorf("inserting %s/%q: %w", category, key, err)
			}
		}
	}

	var lastEvolution any
	if !snap.LastEvolution.IsZero() {
		lastEvolution = snap.LastEvolution.UTC().Format(time.RFC3339)
	}
	if _, err := tx.Exec(`
		INSERT INTO voice_meta (id, total_reflections, last_evolution) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET total_reflections = excluded.total_reflections, last_evolution = excluded.last_evolution`,
		snap.TotalReflections, lastEvolution,
	); err != nil {
		return fmt.Errorf("saving voice meta: %w", err)
	}

	return tx.Commit()
}
