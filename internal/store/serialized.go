package store

import (
	"context"
	"errors"
	"sync"

	"github.com/graaaaa/rolecall/internal/event"
)

// Serialized runs every load-mutate-save cycle against a DocumentStore one at
// a time, so a save never overwrites a change it did not load.
type Serialized struct {
	mu    sync.Mutex
	store DocumentStore
}

// NewSerialized wraps store.
func NewSerialized(store DocumentStore) *Serialized {
	return &Serialized{store: store}
}

// Update loads the document, passes it to fn and saves the result.
// If fn returns ErrSkipSave nothing is saved and Update returns nil. Any
// other error from fn aborts the cycle and is returned unchanged.
func (s *Serialized) Update(ctx context.Context, fn func(doc *event.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		if errors.Is(err, ErrSkipSave) {
			return nil
		}
		return err
	}
	return s.store.Save(ctx, doc)
}

// View loads the document and passes it to fn without saving. fn must not
// retain doc.
func (s *Serialized) View(ctx context.Context, fn func(doc *event.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	return fn(doc)
}
