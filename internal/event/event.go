// Package event provides the persisted event model and its signup ledger.
// This package is used by bot, reconcile, assemble, store and api.
package event

import (
	"errors"
	"time"

	"github.com/graaaaa/rolecall/internal/roles"
)

// ErrDuplicate is returned when an event with the same title and start time
// is already open.
var ErrDuplicate = errors.New("identical event already exists")

// Entry is one member's current set of preferred roles for an event.
// Roles is never empty for an entry stored in an Event.
type Entry struct {
	ID    string   `json:"id"`
	Roles []string `json:"roles"`
}

// HasRole reports whether the entry prefers role.
func (e Entry) HasRole(role string) bool {
	for _, r := range e.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Event is an open group-formation event. MessageID, the announcement the
// members react to, identifies it.
type Event struct {
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	MessageID string    `json:"message_id"`
	Entries   []Entry   `json:"entries"`
}

// Clone returns a deep copy of the event.
func (e Event) Clone() Event {
	c := e
	c.Entries = make([]Entry, len(e.Entries))
	for i, entry := range e.Entries {
		c.Entries[i] = Entry{ID: entry.ID, Roles: append([]string(nil), entry.Roles...)}
	}
	return c
}

// Document is the whole persisted state: the role registry plus every open
// event in creation order.
type Document struct {
	Emojis roles.Registry `json:"emojis"`
	Events []Event        `json:"events"`
}

// Find returns the open event announced by messageID, or nil.
func (d *Document) Find(messageID string) *Event {
	for i := range d.Events {
		if d.Events[i].MessageID == messageID {
			return &d.Events[i]
		}
	}
	return nil
}

// Remove deletes the event announced by messageID.
// Reports whether an event was removed.
func (d *Document) Remove(messageID string) bool {
	for i := range d.Events {
		if d.Events[i].MessageID == messageID {
			d.Events = append(d.Events[:i], d.Events[i+1:]...)
			return true
		}
	}
	return false
}

// HasDuplicate reports whether an open event already has this title and start.
func (d *Document) HasDuplicate(title string, start time.Time) bool {
	for _, ev := range d.Events {
		if ev.Title == title && ev.StartTime.Equal(start) {
			return true
		}
	}
	return false
}

// Add appends ev unless it duplicates an open event.
func (d *Document) Add(ev Event) error {
	if d.HasDuplicate(ev.Title, ev.StartTime) {
		return ErrDuplicate
	}
	d.Events = append(d.Events, ev)
	return nil
}

// Latest returns the most recently created open event, or nil.
func (d *Document) Latest() *Event {
	if len(d.Events) == 0 {
		return nil
	}
	return &d.Events[len(d.Events)-1]
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := &Document{Emojis: d.Emojis.Clone()}
	if d.Events != nil {
		c.Events = make([]Event, len(d.Events))
		for i, ev := range d.Events {
			c.Events[i] = ev.Clone()
		}
	}
	return c
}
