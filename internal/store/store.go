package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database holding collected posts and generated
// reports. It doubles as the duplicate oracle for the deduplicator.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &Store{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalPosts  int
	ScoredPosts int
	Reports     int
	LastReport  string
}

// GetStats returns aggregate counts for the status command.
func (s *Store) GetStats() (*Stats, error) {
	st := &Stats{}
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM posts").Scan(&st.TotalPosts); err != nil {
		return nil, err
	}
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM posts WHERE rank_score IS NOT NULL").Scan(&st.ScoredPosts); err != nil {
		return nil, err
	}
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM reports").Scan(&st.Reports); err != nil {
		return nil, err
	}
	var last sql.NullString
	if err := s.conn.QueryRow("SELECT MAX(date) FROM reports").Scan(&last); err != nil {
		return nil, err
	}
	if last.Valid {
		st.LastReport = last.String
	}
	return st, nil
}
