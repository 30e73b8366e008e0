// Package store persists the set of known session ids, plus enough metadata
// to resubscribe, so that server pushes resume after a cold start of the
// dashboard client.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Record is the persisted slice of a session: its id and the metadata worth
// showing before the first session_state push arrives.
type Record struct {
	ID            string
	Name          string
	Cwd           string
	ExecutionMode string
	UpdatedAt     time.Time
}

// DB is a SQLite-backed session store.
type DB struct {
	db *sql.DB
}

// Open creates or opens the store at the given path. Parent directories are
// created as needed and the schema is applied automatically.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &DB{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *DB) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL DEFAULT '',
			cwd            TEXT NOT NULL DEFAULT '',
			execution_mode TEXT NOT NULL DEFAULT '',
			updated_at     TIMESTAMP NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Save upserts one session record.
func (s *DB) Save(rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("save session: empty id")
	}
	_, err := s.db.Exec(`
		INSERT INTO sessions (id, name, cwd, execution_mode, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			cwd = excluded.cwd,
			execution_mode = excluded.execution_mode,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Name, rec.Cwd, rec.ExecutionMode, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save session %s: %w", rec.ID, err)
	}
	return nil
}

// Load returns every persisted session record.
func (s *DB) Load() ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT id, name, cwd, execution_mode, updated_at FROM sessions ORDER BY updated_at`)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Cwd, &rec.ExecutionMode, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes one session record. Missing ids are not an error.
func (s *DB) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *DB) Close() error {
	return s.db.Close()
}
