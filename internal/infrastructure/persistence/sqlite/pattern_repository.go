package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/qj0r9j0vc2/mention-bridge/internal/domain/repository"
)

// PatternRepository provides SQLite implementation of repository.PatternRepository.
type PatternRepository struct {
	db *DB
}

// NewPatternRepository creates a new SQLite-backed pattern repository.
func NewPatternRepository(db *DB) *PatternRepository {
	return &PatternRepository{db: db}
}

// ListPatterns returns every stored pattern in insertion order.
func (r *PatternRepository) ListPatterns(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT pattern FROM moderation_patterns ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query patterns: %w", err)
	}
	defer rows.Close()

	patterns := make([]string, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		patterns = append(patterns, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patterns: %w", err)
	}

	return patterns, nil
}

// AddPattern stores a new pattern.
func (r *PatternRepository) AddPattern(ctx context.Context, pattern string) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO moderation_patterns (pattern, created_at) VALUES (?, ?)
		ON CONFLICT(pattern) DO NOTHING
	`, pattern, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert pattern: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrAlreadyExists
	}

	return nil
}

// RemovePattern deletes a stored pattern.
func (r *PatternRepository) RemovePattern(ctx context.Context, pattern string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM moderation_patterns WHERE pattern = ?`, pattern)
	if err != nil {
		return fmt.Errorf("delete pattern: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
