// Package store owns the feedback record container: an insertion-ordered
// sqlite table behind a single-writer discipline. Records are appended at
// submission time and mutated in place only by sentiment reprocessing.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a feedback record does not exist.
var ErrNotFound = errors.New("feedback record not found")

// Store wraps the sqlite connection holding feedback records.
type Store struct {
	conn *sql.DB

	// idMu guards lastID so generated record IDs stay unique and
	// monotonically increasing even for same-millisecond submissions.
	idMu   sync.Mutex
	lastID int64
}

// New opens (or creates) the sqlite database at path.
func New(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// sqlite allows a single writer; serializing connections keeps the
	// reprocessing pass from racing concurrent submissions.
	conn.SetMaxOpenConns(1)

	return &Store{conn: conn}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Conn returns the underlying database connection.
func (s *Store) Conn() *sql.DB {
	return s.conn
}

// NextID returns a time-based record ID, unique and monotonically
// increasing across the process.
func (s *Store) NextID() string {
	s.idMu.Lock()
	defer s.idMu.Unlock()

	id := time.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}
