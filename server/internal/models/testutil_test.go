package models

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE sensor_readings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME NOT NULL,
			sensor TEXT NOT NULL,
			value REAL,
			unit TEXT,
			device TEXT
		);`,
		`CREATE TABLE actuator_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME NOT NULL,
			relay_id INTEGER NOT NULL,
			state INTEGER NOT NULL,
			source TEXT
		);`,
		`CREATE TABLE relay_desired (
			id INTEGER PRIMARY KEY,
			mask TEXT NOT NULL
		);`,
		`CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password CHAR(60) NOT NULL,
			authorised INTEGER DEFAULT 0,
			admin INTEGER DEFAULT 0,
			created DATETIME NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}
