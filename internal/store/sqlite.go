package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/graaaaa/rolecall/internal/event"
)

// documentName is the row key of the single persisted document.
const documentName = "default"

// SQLiteStore keeps the document as one row of a SQLite table together with
// a version that increases on every save. Save only applies when the row is
// still at the version this handle last loaded or saved.
type SQLiteStore struct {
	db       *sql.DB
	defaults DefaultsFunc

	mu   sync.Mutex
	seen int64 // version last read or written; 0 means no row
}

// OpenSQLite opens a SQLite database with WAL mode and busy_timeout.
// The path should be an absolute path to the database file.
func OpenSQLite(path string, defaults DefaultsFunc) (*SQLiteStore, error) {
	// URL-escape the path to handle special characters (?, #, spaces, etc.)
	escapedPath := url.PathEscape(path)

	// DSN with WAL mode and busy_timeout for per-connection settings
	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", escapedPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify connection and PRAGMAs
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Whole-document writes go through one connection.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, defaults: defaults}

	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads the document. An empty table yields the defaults.
func (s *SQLiteStore) Load(ctx context.Context) (*event.Document, error) {
	var (
		body    string
		version int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT body, version FROM documents WHERE name = ?",
		documentName,
	).Scan(&body, &version)
	if errors.Is(err, sql.ErrNoRows) {
		s.setSeen(0)
		return s.defaults(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}
	doc, err := decode([]byte(body))
	if err != nil {
		return nil, err
	}
	s.setSeen(version)
	return doc, nil
}

// Save replaces the stored document and bumps its version. It returns
// ErrVersionConflict when another writer saved since this handle's last
// Load or Save.
func (s *SQLiteStore) Save(ctx context.Context, doc *event.Document) error {
	body, err := encode(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(TimeFormat)
	var res sql.Result
	if s.seen == 0 {
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO documents (name, body, version, updated_at)
			VALUES (?, ?, 1, ?)
			ON CONFLICT(name) DO NOTHING`,
			documentName, string(body), now,
		)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE documents SET body = ?, version = version + 1, updated_at = ?
			WHERE name = ? AND version = ?`,
			string(body), now, documentName, s.seen,
		)
	}
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("save document at version %d: %w", s.seen, ErrVersionConflict)
	}
	s.seen++
	return nil
}

func (s *SQLiteStore) setSeen(version int64) {
	s.mu.Lock()
	s.seen = version
	s.mu.Unlock()
}

// Version returns the number of saves applied to the document, 0 if it was
// never saved.
func (s *SQLiteStore) Version(ctx context.Context) (int64, error) {
	var version int64
	err := s.db.QueryRowContext(ctx,
		"SELECT version FROM documents WHERE name = ?",
		documentName,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query version: %w", err)
	}
	return version, nil
}

// journalMode returns the current journal mode (for testing).
func (s *SQLiteStore) journalMode() (string, error) {
	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		return "", err
	}
	return mode, nil
}
