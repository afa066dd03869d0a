package store

import "errors"

// Sentinel errors for the store package.
var (
	// ErrSkipSave is returned by an Update callback that made no change.
	// Update returns nil and leaves the persisted document untouched.
	ErrSkipSave = errors.New("skip save")

	// ErrCorruptDocument is returned when the persisted document cannot be decoded.
	ErrCorruptDocument = errors.New("corrupt document")

	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown store backend")

	// ErrVersionConflict is returned by SQLiteStore.Save when the document
	// changed since it was last loaded through the same handle.
	ErrVersionConflict = errors.New("document version conflict")
)
