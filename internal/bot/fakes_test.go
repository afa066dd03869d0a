package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/graaaaa/rolecall/internal/chat"
	"github.com/graaaaa/rolecall/internal/event"
)

const selfID = "bot"

type awaitResult struct {
	symbol string
	err    error
}

// fakeMessenger implements chat.Messenger in memory.
type fakeMessenger struct {
	mu        sync.Mutex
	nextID    int
	messages  map[string]chat.Embed
	reactions map[string]map[string][]string
	sent      []sentMessage
	edits     []sentMessage
	deleted   []string
	reacts    []string
	awaits    []awaitResult
	failSend  bool
}

type sentMessage struct {
	ID    string
	Embed chat.Embed
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		messages:  make(map[string]chat.Embed),
		reactions: make(map[string]map[string][]string),
	}
}

// addMessage registers an existing message, e.g. an announcement posted
// before a restart.
func (f *fakeMessenger) addMessage(id string, reactions map[string][]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[id] = chat.Embed{}
	f.reactions[id] = reactions
}

func (f *fakeMessenger) SelfID() string { return selfID }

func (f *fakeMessenger) FetchMessage(ctx context.Context, id string) (chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.messages[id]; !ok {
		return chat.Message{}, chat.ErrNotFound
	}
	return chat.Message{ID: id}, nil
}

func (f *fakeMessenger) Reactions(ctx context.Context, id string) (map[string][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.messages[id]; !ok {
		return nil, fmt.Errorf("fetch message: %w", chat.ErrNotFound)
	}
	out := make(map[string][]string)
	for symbol, ids := range f.reactions[id] {
		out[symbol] = append([]string(nil), ids...)
	}
	return out, nil
}

func (f *fakeMessenger) Send(ctx context.Context, embed chat.Embed) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend {
		return "", errors.New("send failed")
	}
	f.nextID++
	id := fmt.Sprintf("msg-%d", f.nextID)
	f.messages[id] = embed
	f.sent = append(f.sent, sentMessage{ID: id, Embed: embed})
	return id, nil
}

func (f *fakeMessenger) Edit(ctx context.Context, id string, embed chat.Embed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.messages[id]; !ok {
		return chat.ErrNotFound
	}
	f.messages[id] = embed
	f.edits = append(f.edits, sentMessage{ID: id, Embed: embed})
	return nil
}

func (f *fakeMessenger) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.messages[id]; !ok {
		return chat.ErrNotFound
	}
	delete(f.messages, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeMessenger) React(ctx context.Context, id, symbol string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reacts = append(f.reacts, id+":"+symbol)
	return nil
}

func (f *fakeMessenger) AwaitReaction(ctx context.Context, id string, timeout time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.awaits) == 0 {
		return "", chat.ErrTimeout
	}
	r := f.awaits[0]
	f.awaits = f.awaits[1:]
	return r.symbol, r.err
}

func (f *fakeMessenger) Sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeMessenger) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func (f *fakeMessenger) Reacts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reacts...)
}

func (f *fakeMessenger) Edits() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.edits...)
}

// memoryStore is a DocumentStore handing out deep copies.
type memoryStore struct {
	mu      sync.Mutex
	doc     *event.Document
	saves   int
	loadErr error
}

func (m *memoryStore) Load(ctx context.Context) (*event.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.doc.Clone(), nil
}

func (m *memoryStore) Save(ctx context.Context, doc *event.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = doc.Clone()
	m.saves++
	return nil
}

func (m *memoryStore) snapshot() (*event.Document, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc.Clone(), m.saves
}
