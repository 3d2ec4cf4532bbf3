package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/raysh454/sitesearch/internal/logging"

	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema.sql
var schemaFS embed.FS

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Store keeps login sessions and the deletion audit log in SQLite.
// Provider site data is never persisted here.
type Store struct {
	db     *sql.DB
	logger logging.Logger
	now    func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a Store on db and runs migrations from schema.sql.
func New(db *sql.DB, logger logging.Logger, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}
	if err := migrate(db); err != nil {
		return nil, err
	}

	s := &Store{db: db, logger: logger.With(logging.Component("store")), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Open creates rootDir if needed and opens rootDir/sitesearch.db.
func Open(rootDir string, logger logging.Logger, opts ...Option) (*Store, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("rootDir is required")
	}
	rootDir = filepath.Clean(rootDir)
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure rootDir %s: %w", rootDir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(rootDir, "sitesearch.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;`); err != nil {
		logger.Warn("setting sqlite pragmas", logging.Err(err))
	}

	s, err := New(db, logger, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate brings databases created before a column existed up to date.
// schema.sql only creates missing tables.
func migrate(db *sql.DB) error {
	for _, c := range []struct{ table, column string }{
		{"sessions", "user_id"},
		{"deletions", "user_id"},
	} {
		if err := ensureColumn(db, c.table, c.column); err != nil {
			return err
		}
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_deletions_user_id ON deletions(user_id, deleted_at)`); err != nil {
		return fmt.Errorf("create deletions index: %w", err)
	}
	return nil
}

func ensureColumn(db *sql.DB, table, column string) error {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&n)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	if n > 0 {
		return nil
	}
	stmt := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s TEXT NOT NULL DEFAULT ''`, table, column)
	if _, err := db.Exec(stmt); err != nil {
		return fmt.Errorf("add %s.%s: %w", table, column, err)
	}
	return nil
}
