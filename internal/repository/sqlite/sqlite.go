// Package sqlite implements the repository interfaces on top of SQLite.
//
// WHY SQLITE?
// The reference host is a single process on one machine, usually a laptop on
// the same network as the terminal client. An embedded database means there is
// nothing to install: the whole collection lives in one file (DB_PATH).
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the host builds
// without a C compiler and cross-compiles like any other Go program.
//
// DATABASE/SQL RECAP:
//   - sql.DB: a connection pool (NOT a single connection!)
//   - sql.Tx: a transaction, used by AddMedia's read-modify-write
//   - sql.Row: a single result row
//   - sql.Rows: multiple result rows (must be closed!)
package sqlite

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool. It implements both
// repository.SnippetRepository and repository.DeviceRepository.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/snippets.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" gets its own empty database, so the pool
	// must never open a second one.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// Ping forces a real connection so a bad path fails here, not on the
	// first request.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets the list endpoint read while an autosave is writing.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Defer it right after New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS makes it safe to run
// on every start.
//
// media_paths holds a JSON array of strings; categories holds the same
// comma-joined string the wire format uses.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS snippets (
			id                     TEXT PRIMARY KEY,
			description            TEXT NOT NULL DEFAULT '',
			full_description       TEXT NOT NULL DEFAULT '',
			code_content           TEXT NOT NULL DEFAULT '',
			media_paths            TEXT NOT NULL DEFAULT '[]',
			categories             TEXT NOT NULL DEFAULT '',
			creation_date          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_modification_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_snippets_last_modification
			ON snippets(last_modification_date);
	`)
	if err != nil {
		return fmt.Errorf("creating snippets table: %w", err)
	}

	// device_source arrived after the first release; older databases get the
	// column added in place.
	if err := db.addColumnIfNotExists("snippets", "device_source",
		"TEXT NOT NULL DEFAULT ''"); err != nil {
		return fmt.Errorf("adding device_source to snippets: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS devices (
			id        TEXT PRIMARY KEY,
			name      TEXT NOT NULL DEFAULT '',
			paired_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_seen DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating devices table: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
// ALTER TABLE errors on a duplicate column, so pragma_table_info is checked first.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}
