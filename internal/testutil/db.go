// Package testutil provides builders and fakes shared by package tests.
package testutil

import (
	"database/sql"
	"testing"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stretchr/testify/require"
)

// NewTestDB opens an in-memory SQLite database and applies schema.
// The database is closed when the test ends.
func NewTestDB(t *testing.T, schema string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Every pooled connection to ":memory:" would see its own empty database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	if schema != "" {
		_, err = db.Exec(schema)
		require.NoError(t, err)
	}
	return db
}
