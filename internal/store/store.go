// Package store persists the rolecall document: the role registry plus every
// open event. The document is always read and written whole.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/graaaaa/rolecall/internal/event"
	"github.com/graaaaa/rolecall/internal/roles"
)

// TimeFormat is the UTC RFC3339 layout used for stored timestamps.
const TimeFormat = "2006-01-02T15:04:05.000000000Z"

// DocumentStore loads and saves the whole document.
// Load returns the defaults when nothing has been saved yet.
type DocumentStore interface {
	Load(ctx context.Context) (*event.Document, error)
	Save(ctx context.Context, doc *event.Document) error
}

// DefaultsFunc builds the document used when none is persisted.
type DefaultsFunc func() *event.Document

// DefaultSymbols are the reaction symbols preassigned to the stock roles.
var DefaultSymbols = map[string]string{
	"DPS":     "😎",
	"Tank":    "💩",
	"Support": "💀",
}

// Defaults returns a DefaultsFunc knowing roleNames in order. Stock roles get
// their DefaultSymbols; any other role starts unset.
func Defaults(roleNames []string) DefaultsFunc {
	names := append([]string(nil), roleNames...)
	return func() *event.Document {
		reg := roles.New(names...)
		for _, name := range names {
			if symbol, ok := DefaultSymbols[name]; ok {
				// Stock symbols are distinct, so Set cannot collide here.
				_ = reg.Set(name, symbol)
			}
		}
		return &event.Document{Emojis: reg, Events: []event.Event{}}
	}
}

// Options selects and configures a backend.
type Options struct {
	Backend  string // file, sqlite or redis
	Path     string // file and sqlite
	RedisURL string
	RedisKey string
}

// Open opens the backend named by opts. The returned closer releases the
// backend's resources.
func Open(ctx context.Context, opts Options, defaults DefaultsFunc) (DocumentStore, io.Closer, error) {
	switch opts.Backend {
	case "", BackendFile:
		st := NewFileStore(opts.Path, defaults)
		return st, st, nil

	case BackendSQLite:
		st, err := OpenSQLite(opts.Path, defaults)
		if err != nil {
			return nil, nil, err
		}
		return st, st, nil

	case BackendRedis:
		st, err := OpenRedis(ctx, opts.RedisURL, opts.RedisKey, defaults)
		if err != nil {
			return nil, nil, err
		}
		return st, st, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// Backend names.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

func encode(doc *event.Document) ([]byte, error) {
	if doc.Events == nil {
		doc = &event.Document{Emojis: doc.Emojis, Events: []event.Event{}}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*event.Document, error) {
	var doc event.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	if doc.Events == nil {
		doc.Events = []event.Event{}
	}
	return &doc, nil
}
