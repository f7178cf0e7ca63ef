package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/qj0r9j0vc2/mention-bridge/internal/domain/repository"
)

// PatternRepository provides MySQL implementation of repository.PatternRepository.
type PatternRepository struct {
	db *DB
}

// NewPatternRepository creates a new MySQL-backed pattern repository.
func NewPatternRepository(db *DB) *PatternRepository {
	return &PatternRepository{db: db}
}

// ListPatterns returns every stored pattern in insertion order.
func (r *PatternRepository) ListPatterns(ctx context.Context) ([]string, error) {
	rows, err := r.db.Primary().QueryContext(ctx, `SELECT pattern FROM moderation_patterns ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying patterns: %w", err)
	}
	defer rows.Close()

	patterns := make([]string, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning pattern: %w", err)
		}
		patterns = append(patterns, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating patterns: %w", err)
	}

	return patterns, nil
}

// AddPattern stores a new pattern.
func (r *PatternRepository) AddPattern(ctx context.Context, pattern string) error {
	result, err := r.db.Primary().ExecContext(ctx,
		`INSERT IGNORE INTO moderation_patterns (pattern, created_at) VALUES (?, ?)`,
		pattern, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting pattern: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrAlreadyExists
	}

	return nil
}

// RemovePattern deletes a stored pattern.
func (r *PatternRepository) RemovePattern(ctx context.Context, pattern string) error {
	result, err := r.db.Primary().ExecContext(ctx, `DELETE FROM moderation_patterns WHERE pattern = ?`, pattern)
	if err != nil {
		return fmt.Errorf("deleting pattern: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
