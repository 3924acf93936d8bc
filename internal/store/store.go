package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database holding finalized sessions and the
// model request log.
type Store struct {
	db *sql.DB
}

// Open creates a Store connected to the SQLite database at dsn.
// It applies recommended pragmas and creates missing tables.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		section TEXT NOT NULL,
		level TEXT NOT NULL,
		language TEXT NOT NULL,
		percentage INTEGER NOT NULL,
		correct_count INTEGER NOT NULL,
		total_count INTEGER NOT NULL,
		cefr_level TEXT NOT NULL DEFAULT '',
		passed INTEGER NOT NULL DEFAULT 0,
		grading_failed INTEGER NOT NULL DEFAULT 0,
		finalized_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS item_results (
		session_id TEXT NOT NULL,
		item_key TEXT NOT NULL,
		answer TEXT NOT NULL DEFAULT '',
		correct INTEGER,
		total_score INTEGER,
		max_score INTEGER,
		penalty INTEGER NOT NULL DEFAULT 0,
		cefr_level TEXT NOT NULL DEFAULT '',
		strengths TEXT NOT NULL DEFAULT '',
		weaknesses TEXT NOT NULL DEFAULT '',
		warmup INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (session_id, item_key),
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);

	CREATE TABLE IF NOT EXISTS progression (
		session_id TEXT PRIMARY KEY,
		level TEXT NOT NULL,
		percentage INTEGER NOT NULL,
		passed INTEGER NOT NULL,
		recorded_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS llm_requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		purpose TEXT NOT NULL,
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		success INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// applyPragmas configures SQLite for single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. KIELO_DB environment variable
// 2. $XDG_DATA_HOME/kielo/kielo.db
// 3. ~/.local/share/kielo/kielo.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("KIELO_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "kielo", "kielo.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
