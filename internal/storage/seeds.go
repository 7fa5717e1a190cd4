package storage

import (
	"database/sql"
	"fmt"
	"time"
)

func (s *Store) PlantSeed(seed Seed) error {
	_, err := s.db.Exec(`
		INSERT INTO seeds (id, planted_at, question, reflection, tended_at)
		VALUES (?, ?, ?, '', NULL)`,
		seed.ID, seed.PlantedAt.UTC().Format(time.RFC3339), seed.Question,
	)
	return err
}

// NextUntendedSeed returns the oldest seed without a reflection, mirroring
// the one-at-a-time tending flow.
func (s *Store) NextUntendedSeed() (Seed, error) {
	row := s.db.QueryRow(`
		SELECT id, planted_at, question, reflection, tended_at
		FROM seeds WHERE tended_at IS NULL ORDER BY planted_at ASC LIMIT 1`)
	return scanSeed(row)
}

// TendSeed records a reflection against a planted seed.
func (s *Store) TendSeed(id, reflection string, tendedAt time.Time) error {
	res, err := s.db.Exec(`
		UPDATE seeds SET reflection = ?, tended_at = ? WHERE id = ? AND tended_at IS NULL`,
		reflection, tendedAt.UTC().Format(time.RFC3339), id,
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

func (s *Store) ListSeeds(limit int) ([]Seed, error) {
	rows, err := s.db.Query(`
		SELECT id, planted_at, question, reflection, tended_at
		FROM seeds ORDER BY planted_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Seed
	for rows.Next() {
		seed, err := scanSeed(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, seed)
	}
	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSeed(row rowScanner) (Seed, error) {
	var seed Seed
	var plantedAt string
	var tendedAt sql.NullString
	err := row.Scan(&seed.ID, &plantedAt, &seed.Question, &seed.Reflection, &tendedAt)
	if err == sql.ErrNoRows {
		return Seed{}, ErrNotFound
	}
	if err != nil {
		return Seed{}, err
	}
	t, err := time.Parse(time.RFC3339, plantedAt)
	if err != nil {
		return Seed{}, fmt.Errorf("parsing planted_at: %w", err)
	}
	seed.PlantedAt = t
	if tendedAt.Valid && tendedAt.String != "" {
		t, err := time.Parse(time.RFC3339, tendedAt.String)
		if err != nil {
			return Seed{}, fmt.Errorf("parsing tended_at: %w", err)
		}
		seed.TendedAt = t
	}
	return seed, nil
}
