package repository

import "context"

// PatternRepository defines the contract for moderation pattern storage.
// Implementations back the dynamic moderation gate; every call reads the
// current contents of the store.
type PatternRepository interface {
	// ListPatterns returns the stored patterns in insertion order.
	// Returns an empty slice (not an error) when the store is empty.
	ListPatterns(ctx context.Context) ([]string, error)

	// AddPattern stores a new pattern.
	// Returns ErrAlreadyExists if the pattern is already stored.
	AddPattern(ctx context.Context, pattern string) error

	// RemovePattern deletes a stored pattern.
	// Returns ErrNotFound if the pattern is not stored.
	RemovePattern(ctx context.Context, pattern string) error
}
