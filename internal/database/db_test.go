package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/expense-tracker/internal/config"
)

func TestOpen_SQLiteRunsMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.db")

	db, err := Open(context.Background(), config.DBConfig{Driver: DriverSQLite, SQLitePath: path})
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"users", "expenses"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s missing", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(context.Background(), db, DriverSQLite))
	require.NoError(t, Migrate(context.Background(), db, DriverSQLite))
}

func TestOpenSQLite_EnforcesForeignKeys(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, Migrate(context.Background(), db, DriverSQLite))

	_, err = db.Exec(`INSERT INTO expenses (user_id, category, sub_category, amount, spent_on)
		VALUES (999, 'Food', 'Market', '1.00', '2024-12-21')`)
	assert.Error(t, err, "orphan expense must be rejected")
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DBConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestMigrate_UnknownDriver(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	assert.Error(t, Migrate(context.Background(), db, "oracle"))
}
