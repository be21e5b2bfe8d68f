// Package store persists journal entries in SQLite and provides the one
// query capability the assistant needs: author/date filtering plus FTS5
// relevance search with a score usable for ordering.
//
// The schema includes an FTS5 virtual table, which mattn/go-sqlite3 only
// compiles in behind the sqlite_fts5 build tag. Build and test with
// -tags sqlite_fts5 (see the Makefile); Open fails fast with guidance
// otherwise.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"pairjournal/internal/journal"
)

// Store wraps the SQLite database holding journal entries.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open initializes the SQLite database at the given path, creating the
// schema on first use.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if dir := filepath.Dir(path); dir != "." && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Debug("failed to set busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logger.Debug("failed to set journal_mode=WAL", zap.Error(err))
	}

	s := &Store{db: db, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			id         TEXT PRIMARY KEY,
			author     TEXT NOT NULL,
			date       TEXT NOT NULL,
			text       TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_author_date ON entries(author, date)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
			text,
			content='entries',
			content_rowid='rowid'
		)`,
		`CREATE TRIGGER IF NOT EXISTS entries_fts_insert AFTER INSERT ON entries BEGIN
			INSERT INTO entries_fts(rowid, text) VALUES (new.rowid, new.text);
		END`,
		`CREATE TRIGGER IF NOT EXISTS entries_fts_delete AFTER DELETE ON entries BEGIN
			INSERT INTO entries_fts(entries_fts, rowid, text) VALUES ('delete', old.rowid, old.text);
		END`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return schemaError(err)
		}
	}
	return nil
}

// schemaError wraps schema init failures. The FTS5 module is compiled into
// mattn/go-sqlite3 only under the sqlite_fts5 build tag, so a missing-module
// error names the tag instead of leaving a bare driver message.
func schemaError(err error) error {
	if strings.Contains(err.Error(), "no such module: fts5") {
		return fmt.Errorf("sqlite was built without FTS5; rebuild with -tags sqlite_fts5: %w", err)
	}
	return fmt.Errorf("schema statement failed: %w", err)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists a new entry, assigning its ID and creation time.
func (s *Store) Save(ctx context.Context, e *journal.Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if _, err := journal.ParseDate(e.Date); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (id, author, date, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, string(e.Author), e.Date, e.Text, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	s.logger.Debug("entry saved",
		zap.String("id", e.ID),
		zap.String("author", string(e.Author)),
		zap.String("date", e.Date))
	return nil
}

// ListByAuthor returns an author's entries, newest date first.
func (s *Store) ListByAuthor(ctx context.Context, author journal.Author, limit int) ([]journal.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, author, date, text, created_at FROM entries
		 WHERE author = ? ORDER BY date DESC, created_at DESC LIMIT ?`,
		string(author), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Delete removes an entry by ID. Returns sql.ErrNoRows if the ID is unknown.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanEntries(rows *sql.Rows) ([]journal.Entry, error) {
	var entries []journal.Entry
	for rows.Next() {
		var e journal.Entry
		var author string
		if err := rows.Scan(&e.ID, &author, &e.Date, &e.Text, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.Author = journal.Author(author)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return entries, nil
}
