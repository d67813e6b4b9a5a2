package fault

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS faults (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT    NOT NULL UNIQUE,
	event       TEXT    NOT NULL,
	piece       TEXT    NOT NULL,
	message     TEXT    NOT NULL,
	stack       TEXT    NOT NULL DEFAULT '',
	occurred_ns INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS faults_piece ON faults (piece);
`

// SQLiteStore is a durable fault journal. Rows are never pruned.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	insert *sql.Stmt
	list   *sql.Stmt
	closed bool
}

// NewSQLiteStore opens or creates the journal at path. ":memory:" gives a
// private in-memory journal.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open fault journal: %w", err)
	}
	// One connection, so ":memory:" is a single database.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		return nil, errors.Join(fmt.Errorf("init fault journal %s: %w", path, err), db.Close())
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return err
	}
	if _, err := s.db.Exec(sqliteSchema); err != nil {
		return err
	}

	var err error
	s.insert, err = s.db.Prepare(`INSERT INTO faults (id, event, piece, message, stack, occurred_ns) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	// A negative LIMIT means no limit in SQLite.
	s.list, err = s.db.Prepare(`SELECT id, event, piece, message, stack, occurred_ns FROM faults ORDER BY seq DESC LIMIT ?`)
	return err
}

// Record implements Store.
func (s *SQLiteStore) Record(f Fault) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	if f.OccurredAt.IsZero() {
		f.OccurredAt = time.Now()
	}
	if _, err := s.insert.Exec(f.ID, f.Event, f.Piece, f.Message, f.Stack, f.OccurredAt.UnixNano()); err != nil {
		return fmt.Errorf("record fault %s: %w", f.ID, err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(limit int) ([]Fault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.list.Query(limit)
	if err != nil {
		return nil, fmt.Errorf("list faults: %w", err)
	}
	defer rows.Close()

	var out []Fault
	for rows.Next() {
		var (
			f  Fault
			ns int64
		)
		if err := rows.Scan(&f.ID, &f.Event, &f.Piece, &f.Message, &f.Stack, &ns); err != nil {
			return nil, fmt.Errorf("scan fault: %w", err)
		}
		f.OccurredAt = time.Unix(0, ns).UTC()
		out = append(out, f)
	}
	return out, rows.Err()
}

// Count implements Store.
func (s *SQLiteStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrStoreClosed
	}

	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM faults`).Scan(&n)
	return n, err
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return errors.Join(s.insert.Close(), s.list.Close(), s.db.Close())
}
