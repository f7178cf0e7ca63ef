package mysql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrator_LoadMigrations(t *testing.T) {
	m := &Migrator{}

	migrations, err := m.loadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "moderation_patterns", migrations[0].Name)
	assert.Contains(t, migrations[0].SQL, "CREATE TABLE IF NOT EXISTS moderation_patterns")

	for i := 1; i < len(migrations); i++ {
		assert.Greater(t, migrations[i].Version, migrations[i-1].Version)
	}
}

func TestMigrator_Up(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, _ = db.Primary().Exec("DROP TABLE IF EXISTS schema_migrations")
	_, _ = db.Primary().Exec("DROP TABLE IF EXISTS moderation_patterns")

	m := NewMigrator(db.Primary())

	version, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, version)

	require.NoError(t, m.Up(ctx))

	version, err = m.Version(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, version, 1)

	var tableExists bool
	err = db.Primary().QueryRow(`
		SELECT COUNT(*) > 0
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		AND table_name = 'moderation_patterns'
	`).Scan(&tableExists)
	require.NoError(t, err)
	assert.True(t, tableExists)

	// Running Up again is a no-op
	require.NoError(t, m.Up(ctx))

	newVersion, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, version, newVersion)
}

func TestMigrator_Down(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, _ = db.Primary().Exec("DROP TABLE IF EXISTS schema_migrations")

	m := NewMigrator(db.Primary())
	require.NoError(t, m.Up(ctx))
	require.NoError(t, m.Down(ctx))

	version, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, version)
}
