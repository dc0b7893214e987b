// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a SQLite ledger of completed exports.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/records2csv/pkg/types"
)

const (
	dbFile = "history.db"

	defaultListLimit = 20

	// timeLayout is fixed-width so created_at sorts lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Entry is one completed export.
type Entry struct {
	ID        string    `json:"id" yaml:"id"`
	Input     string    `json:"input" yaml:"input"`
	Output    string    `json:"output" yaml:"output"`
	Rows      int       `json:"rows" yaml:"rows"`
	Columns   []string  `json:"columns" yaml:"columns"`
	Bytes     int       `json:"bytes" yaml:"bytes"`
	Mode      string    `json:"mode" yaml:"mode"`
	Encoding  string    `json:"encoding" yaml:"encoding"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// ListOptions filters List results.
type ListOptions struct {
	// Output restricts results to exports written to this path.
	Output string
	// Limit caps the number of entries (0 = default of 20, negative = all).
	Limit int
}

// Store manages the history database.
type Store struct {
	db  *sql.DB
	dir string
}

// Open opens or creates the ledger at cfg.Dir/history.db and ensures the
// schema exists.
func Open(cfg types.HistoryConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, dbFile)
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS exports (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			input TEXT NOT NULL,
			output TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			column_names TEXT NOT NULL,
			bytes INTEGER NOT NULL,
			mode TEXT NOT NULL,
			encoding TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exports_output ON exports(output)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Add records a completed export. A missing ID or timestamp is filled in.
func (s *Store) Add(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.Columns == nil {
		e.Columns = []string{}
	}
	cols, err := json.Marshal(e.Columns)
	if err != nil {
		return fmt.Errorf("encoding columns: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO exports (id, input, output, row_count, column_names, bytes, mode, encoding, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Input, e.Output, e.Rows, string(cols), e.Bytes, e.Mode, e.Encoding,
		e.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting export %s: %w", e.ID, err)
	}
	return nil
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if opts.Output != "" {
		where = append(where, "output = ?")
		args = append(args, opts.Output)
	}

	q := `SELECT id, input, output, row_count, column_names, bytes, mode, encoding, created_at FROM exports`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, rowid DESC"

	limit := opts.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			cols    string
			created string
		)
		if err := rows.Scan(&e.ID, &e.Input, &e.Output, &e.Rows, &cols, &e.Bytes, &e.Mode, &e.Encoding, &created); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		if err := json.Unmarshal([]byte(cols), &e.Columns); err != nil {
			return nil, fmt.Errorf("decoding columns for %s: %w", e.ID, err)
		}
		e.CreatedAt, err = time.Parse(timeLayout, created)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp for %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
