package sqlite

// Repositories holds all SQLite repository implementations.
type Repositories struct {
	Patterns *PatternRepository
}

// NewRepositories creates all SQLite repositories with a shared database connection.
func NewRepositories(db *DB) *Repositories {
	return &Repositories{
		Patterns: NewPatternRepository(db),
	}
}
