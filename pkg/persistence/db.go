// Package persistence provides SQLite-based storage for dead letters, session
// snapshots, and planner snapshots. The engine works without it; wiring a
// Store in simply makes crash recovery and operator replay possible.
package persistence

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver (CGO-free)

	"jobpilot/pkg/logx"
)

// Store owns one SQLite database. Construct with Open and inject where
// needed; there is no process-global instance.
type Store struct {
	db     *sql.DB
	logger *logx.Logger
}

// Open creates or opens the database at path and brings the schema up to the
// current version. Idempotent and safe to call on an existing database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_foreign_keys=ON&_journal_mode=WAL&_busy_timeout=5000",
		path,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	logger := logx.NewLogger("persistence")
	logger.Info("📦 database ready: %s", path)

	return &Store{db: db, logger: logger}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
