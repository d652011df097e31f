package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRejectsEmptyDSN(t *testing.T) {
	_, err := Open(DriverSQLite, "  ")
	assert.Error(t, err)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "dsn")
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestMigrateCreatesHistoryTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	require.NoError(t, Migrate(DriverSQLite, path))
	// second run is a no-op
	require.NoError(t, Migrate(DriverSQLite, path))

	conn, err := Open(DriverSQLite, path)
	require.NoError(t, err)
	defer conn.Close()

	for _, table := range []string{"calculations", "iot_readings", "energy_data", "lab_reports"} {
		var count int
		require.NoError(t, conn.Get(&count, "SELECT COUNT(*) FROM "+table), table)
		assert.Zero(t, count, table)
	}

	var id int64
	require.NoError(t, conn.QueryRowx(
		conn.Rebind("INSERT INTO calculations (module, input_data, result, warnings) VALUES (?, ?, ?, ?) RETURNING id"),
		"ohms_law", "{}", "{}", "",
	).Scan(&id))
	assert.Equal(t, int64(1), id)
}

func TestRollbackDropsTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	require.NoError(t, Migrate(DriverSQLite, path))
	require.NoError(t, Rollback(DriverSQLite, path))

	conn, err := Open(DriverSQLite, path)
	require.NoError(t, err)
	defer conn.Close()

	var count int
	assert.Error(t, conn.Get(&count, "SELECT COUNT(*) FROM calculations"))
}
