package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitemigration"
	"zombiezen.com/go/sqlite/sqlitex"
)

// ErrNotFound is returned by lookups that match no participant.
var ErrNotFound = errors.New("participant not found")

// Store is the durable participant directory. All mutations are single-row,
// field-level updates so concurrent tasks can interleave safely.
type Store struct {
	pool *sqlitex.Pool
}

// Open checks for an existing SQLite database at the given path, creating one
// if needed, applies migrations, and returns a ready connection pool.
func Open(path string) (*Store, error) {
	cleaned := filepath.Clean(path)

	if err := initializeDatabase(cleaned); err != nil {
		return nil, fmt.Errorf("could not create database: %w", err)
	}
	if err := makeMigrations(cleaned); err != nil {
		return nil, fmt.Errorf("could not make database migrations: %w", err)
	}

	pool, err := sqlitex.NewPool(cleaned, sqlitex.PoolOptions{
		Flags: sqlite.OpenReadWrite | sqlite.OpenCreate | sqlite.OpenWAL,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create database pool: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	return s.pool.Close()
}

func initializeDatabase(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not get info on file '%s': %w", path, err)
	}

	// create intermediate folders
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("could not create intermediate folders: %w", err)
	}

	// create the new database file
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite, sqlite.OpenCreate)
	if err != nil {
		return fmt.Errorf("could not create new database file: %w", err)
	}
	conn.Close()

	return nil
}

// Updates database schema as needed
func makeMigrations(path string) error {
	schema := []string{`
		CREATE TABLE IF NOT EXISTS participants (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			display_name TEXT NOT NULL UNIQUE,
			chat_handle TEXT,
			is_admin INTEGER NOT NULL DEFAULT 0,
			is_cam_on INTEGER NOT NULL DEFAULT 0,
			last_status_change INTEGER NOT NULL DEFAULT 0,
			last_leave_time INTEGER,
			status_kind TEXT NOT NULL DEFAULT '',
			status_set_at INTEGER,
			alarm_blocked_until INTEGER,
			status_auto_reset INTEGER,
			is_excused INTEGER NOT NULL DEFAULT 0,
			excused_type TEXT NOT NULL DEFAULT '',
			last_alert_sent INTEGER,
			alert_count INTEGER NOT NULL DEFAULT 0,
			last_absence_alert INTEGER,
			last_admin_leave_alert INTEGER,
			last_return_request INTEGER,
			response_status TEXT,
			response_time INTEGER,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`, `
		CREATE INDEX IF NOT EXISTS idx_participants_chat_handle
			ON participants (chat_handle);
	`}

	pool := sqlitemigration.NewPool(
		filepath.Clean(path),
		sqlitemigration.Schema{
			Migrations: schema,
		},
		sqlitemigration.Options{
			Flags: sqlite.OpenReadWrite | sqlite.OpenCreate,
			PrepareConn: func(conn *sqlite.Conn) error {
				return sqlitex.ExecuteTransient(conn, "PRAGMA foreign_keys = ON;", nil)
			},
			OnError: func(e error) {
				log.Println("could not make database migrations: ", e)
			},
		})
	defer pool.Close()

	// Migrations are blocking, so use a new connection as an indicator for their completion before closing the pool
	conn, err := pool.Get(context.TODO())
	if err != nil {
		return fmt.Errorf("could not open connection to database: %w", err)
	}
	pool.Put(conn)

	return nil
}
