package store

import (
	"context"
	"fmt"
)

// CurrentSchemaVersion is the current database schema version.
const CurrentSchemaVersion = 1

// migrate runs database migrations.
func (s *SQLiteStore) migrate(ctx context.Context) error {
	if err := s.createDocumentsTable(ctx); err != nil {
		return err
	}

	if err := s.createMetadataTable(ctx); err != nil {
		return err
	}

	return nil
}

func (s *SQLiteStore) createDocumentsTable(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS documents (
		name       TEXT PRIMARY KEY,
		body       TEXT NOT NULL,
		version    INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) createMetadataTable(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS metadata (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create metadata table: %w", err)
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', ?)",
		fmt.Sprint(CurrentSchemaVersion),
	)
	if err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}
