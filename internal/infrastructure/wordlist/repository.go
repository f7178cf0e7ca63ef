package wordlist

import (
	"context"

	"github.com/qj0r9j0vc2/mention-bridge/internal/domain/repository"
)

// RepositorySource serves the word list from a PatternRepository (SQLite or MySQL).
type RepositorySource struct {
	repo repository.PatternRepository
	name string
}

// NewRepositorySource wraps repo. name identifies the backend (e.g., "sqlite").
func NewRepositorySource(repo repository.PatternRepository, name string) *RepositorySource {
	return &RepositorySource{repo: repo, name: name}
}

// Name returns the backend name.
func (s *RepositorySource) Name() string {
	return s.name
}

// Load returns every stored pattern.
func (s *RepositorySource) Load(ctx context.Context) ([]string, error) {
	return s.repo.ListPatterns(ctx)
}
