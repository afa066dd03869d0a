package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/graaaaa/rolecall/internal/event"
	"github.com/graaaaa/rolecall/internal/fsutil"
)

// FileStore keeps the document in a single JSON file, replaced atomically on
// every save.
type FileStore struct {
	path     string
	defaults DefaultsFunc
}

// NewFileStore returns a FileStore backed by path.
func NewFileStore(path string, defaults DefaultsFunc) *FileStore {
	return &FileStore{path: path, defaults: defaults}
}

// Load reads the document. A missing file yields the defaults.
func (s *FileStore) Load(ctx context.Context) (*event.Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s.defaults(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return decode(data)
}

// Save replaces the file with doc.
func (s *FileStore) Save(ctx context.Context, doc *event.Document) error {
	if doc.Events == nil {
		doc = &event.Document{Emojis: doc.Emojis, Events: []event.Event{}}
	}
	if err := fsutil.WriteJSONAtomic(s.path, doc); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}
