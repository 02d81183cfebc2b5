package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrSessionNotFound is returned for session IDs the log does not hold.
var ErrSessionNotFound = errors.New("session not found")

// pragma is one connection setting applied on Open.
type pragma struct {
	name  string
	value string // as set
	want  string // as read back
}

// A cycle log is written by one lock driver and read by trace, sessions
// and replay, possibly while the driver is still running.
var pragmas = []pragma{
	{"journal_mode", "WAL", "wal"},
	{"synchronous", "NORMAL", "1"},
	{"busy_timeout", "5000", "5000"},
	{"foreign_keys", "ON", "1"},
}

// migration upgrades a log written at user_version < version.
type migration struct {
	version int
	stmt    string
}

var migrations = []migration{
	// One cycle per (session, seq). Logs written before v1 only had the
	// non-unique lookup index, so two drivers sharing a session token
	// could interleave edges.
	{1, `CREATE UNIQUE INDEX IF NOT EXISTS idx_cycles_session_seq_unique
		ON cycles(session_id, seq)`},
}

// currentSchemaVersion is the user_version of a fully migrated log.
var currentSchemaVersion = migrations[len(migrations)-1].version

// Store is the durable cycle log: sessions and the clock edges recorded
// under them.
type Store struct {
	db *sql.DB
}

// Open creates or opens the cycle log at path, applies the pragmas and
// brings the schema up to date. Opening an existing log is a no-op apart
// from pending migrations.
//
// Pass ":memory:" for a throwaway log; the single pooled connection keeps
// the in-memory database alive until Close.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cycle log %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open cycle log %s: %w", path, err)
	}

	// SQLite has one writer; a single connection avoids SQLITE_BUSY
	// between the driver's own statements.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure cycle log %s: %w", path, err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize cycle log %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

// Close closes the log. Closing a zero Store is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the connection for ad hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

func applyPragmas(db *sql.DB) error {
	for _, p := range pragmas {
		stmt := fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	for _, m := range migrations {
		if version >= m.version {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
		// PRAGMA takes no bind parameters.
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			return fmt.Errorf("set user_version %d: %w", m.version, err)
		}
		version = m.version
	}
	return nil
}

// verifyPragma compares one pragma against its read-back value.
func (s *Store) verifyPragma(name, want string) error {
	var got string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&got); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if got != want {
		return fmt.Errorf("%s = %q, want %q", name, got, want)
	}
	return nil
}
