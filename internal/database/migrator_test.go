package database

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMigrations_Embedded(t *testing.T) {
	names, err := ListMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "000001_init.up.sql", names[0])

	for _, name := range names {
		assert.True(t, strings.HasSuffix(name, ".up.sql"), name)
	}
}

func TestListMigrations_SortsAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000002_b.up.sql":   {Data: []byte("SELECT 2;")},
		"m/000001_a.up.sql":   {Data: []byte("SELECT 1;")},
		"m/000001_a.down.sql": {Data: []byte("SELECT 0;")},
		"m/README.md":         {Data: []byte("docs")},
	}

	names, err := listMigrations(fsys, "m")
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_a.up.sql", "000002_b.up.sql"}, names)
}

func TestInitMigrationCreatesCoreTables(t *testing.T) {
	raw, err := migrationsFS.ReadFile("migrations/000001_init.up.sql")
	require.NoError(t, err)

	schema := string(raw)
	for _, table := range []string{"users", "admins", "fields", "movies", "serials", "episodes", "watch_history",
		"mandatory_channels", "channel_members", "database_channels", "payments", "settings"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
}
