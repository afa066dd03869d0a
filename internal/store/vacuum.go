package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"
)

// VacuumInterval is the minimum interval between VACUUM operations.
const VacuumInterval = 30 * 24 * time.Hour

const metadataKeyLastVacuum = "last_vacuum_at"

// VacuumIfNeeded compacts the database if the last VACUUM was more than
// VacuumInterval ago. Every save rewrites the document row, so free pages
// accumulate over a long-running bot.
// Returns true if VACUUM was performed, false if skipped.
func (s *SQLiteStore) VacuumIfNeeded(ctx context.Context) (bool, error) {
	lastVacuum, err := s.getLastVacuumTime(ctx)
	if err != nil {
		return false, err
	}

	if time.Since(lastVacuum) < VacuumInterval {
		return false, nil
	}

	start := time.Now()
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return false, err
	}
	slog.Info("database vacuumed", "last_run", lastVacuum, "elapsed", time.Since(start))

	if err := s.setLastVacuumTime(ctx, time.Now()); err != nil {
		// VACUUM itself succeeded.
		slog.Warn("failed to record vacuum time", "error", err)
	}

	return true, nil
}

func (s *SQLiteStore) getLastVacuumTime(ctx context.Context) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM metadata WHERE key = ?",
		metadataKeyLastVacuum,
	).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		// Never vacuumed
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}

	t, err := time.Parse(TimeFormat, value)
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}

func (s *SQLiteStore) setLastVacuumTime(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)",
		metadataKeyLastVacuum,
		t.UTC().Format(TimeFormat),
	)
	return err
}
