//go:build integration

// Package integration provides end-to-end tests wiring the bot, a SQLite
// document store and the status API together.
package integration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/graaaaa/rolecall/internal/api"
	"github.com/graaaaa/rolecall/internal/app"
	"github.com/graaaaa/rolecall/internal/assemble"
	"github.com/graaaaa/rolecall/internal/bot"
	"github.com/graaaaa/rolecall/internal/chat"
	"github.com/graaaaa/rolecall/internal/store"
)

const botID = "bot"

// fakeChat is an in-memory channel. Messages keep their reactions so a
// restarted bot can reconcile against them.
type fakeChat struct {
	mu        sync.Mutex
	next      int
	messages  map[string]chat.Embed
	reactions map[string]map[string][]string
	sent      []chat.Embed
}

func newFakeChat() *fakeChat {
	return &fakeChat{
		messages:  make(map[string]chat.Embed),
		reactions: make(map[string]map[string][]string),
	}
}

func (f *fakeChat) SelfID() string { return botID }

func (f *fakeChat) FetchMessage(ctx context.Context, id string) (chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.messages[id]; !ok {
		return chat.Message{}, chat.ErrNotFound
	}
	return chat.Message{ID: id, AuthorID: botID}, nil
}

func (f *fakeChat) Reactions(ctx context.Context, id string) (map[string][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.messages[id]; !ok {
		return nil, chat.ErrNotFound
	}
	out := make(map[string][]string)
	for symbol, ids := range f.reactions[id] {
		out[symbol] = append([]string(nil), ids...)
	}
	return out, nil
}

func (f *fakeChat) Send(ctx context.Context, embed chat.Embed) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	id := fmt.Sprintf("%d", 1000+f.next)
	f.messages[id] = embed
	f.sent = append(f.sent, embed)
	return id, nil
}

func (f *fakeChat) Edit(ctx context.Context, id string, embed chat.Embed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.messages[id]; !ok {
		return chat.ErrNotFound
	}
	f.messages[id] = embed
	return nil
}

func (f *fakeChat) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.messages[id]; !ok {
		return chat.ErrNotFound
	}
	delete(f.messages, id)
	delete(f.reactions, id)
	return nil
}

func (f *fakeChat) React(ctx context.Context, id, symbol string) error {
	f.addReaction(id, botID, symbol)
	return nil
}

func (f *fakeChat) AwaitReaction(ctx context.Context, id string, timeout time.Duration) (string, error) {
	return "", chat.ErrTimeout
}

// addReaction records a reaction without notifying any bot, as if it
// happened while the bot was offline.
func (f *fakeChat) addReaction(id, member, symbol string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reactions[id] == nil {
		f.reactions[id] = make(map[string][]string)
	}
	f.reactions[id][symbol] = append(f.reactions[id][symbol], member)
}

func (f *fakeChat) lastSent() chat.Embed {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return chat.Embed{}
	}
	return f.sent[len(f.sent)-1]
}

// TestApp holds all dependencies for integration tests.
type TestApp struct {
	Server *httptest.Server
	Chat   *fakeChat
	Bot    *bot.Bot

	dbPath string
	st     *store.SQLiteStore
	now    time.Time
}

var testNow = time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

// NewTestApp opens a SQLite store in a temp dir, starts a bot on it and
// serves the status API. Resources are released with t.Cleanup.
func NewTestApp(t *testing.T) *TestApp {
	t.Helper()
	a := &TestApp{
		Chat:   newFakeChat(),
		dbPath: filepath.Join(t.TempDir(), "test.sqlite"),
		now:    testNow,
	}
	a.start(t)
	return a
}

// start opens the database and starts a fresh bot and server on it. Calling
// stop then start simulates a restart against the same channel.
func (a *TestApp) start(t *testing.T) {
	t.Helper()

	names := []string{"DPS", "Tank", "Support"}
	st, err := store.OpenSQLite(a.dbPath, store.Defaults(names))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	a.st = st

	settings := bot.Settings{
		Prefix: "!rc",
		Roles: []assemble.Capacity{
			{Role: "DPS", Count: 1},
			{Role: "Tank", Count: 1},
			{Role: "Support", Count: 1},
		},
		Location: time.UTC,
		Templates: bot.Templates{
			Announcement: "{title} @ {time}",
			Start:        "{title} is starting!",
			Description:  "Groups for {title}:",
			Empty:        "Nobody signed up for {title}.",
		},
		ConfigureTimeout: time.Second,
	}
	a.Bot = bot.New(settings, store.NewSerialized(st), a.Chat,
		bot.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		bot.WithClock(func() time.Time { return a.now }),
		bot.WithRand(rand.New(rand.NewSource(1))),
	)
	if err := a.Bot.Start(context.Background()); err != nil {
		t.Fatalf("failed to start bot: %v", err)
	}

	server := api.NewServer("127.0.0.1:0",
		app.HealthService{Version: "test", Scheduler: a.Bot},
		api.WithEventsUsecase(&app.EventsService{Source: a.Bot}),
	)
	a.Server = httptest.NewServer(server.Handler())
	t.Cleanup(a.stop)
}

func (a *TestApp) stop() {
	if a.Server != nil {
		a.Server.Close()
		a.Server = nil
	}
	if a.st != nil {
		a.st.Close()
		a.st = nil
	}
}

// URL returns the base URL of the test server.
func (a *TestApp) URL() string {
	return a.Server.URL
}

// Command delivers a channel message to the bot.
func (a *TestApp) Command(content string) {
	a.Bot.HandleCommand(context.Background(), chat.Command{
		ChannelID: "channel",
		MessageID: "",
		AuthorID:  "operator",
		Content:   content,
	})
}

// React adds a reaction and delivers it to the running bot.
func (a *TestApp) React(messageID, member, symbol string) {
	a.Chat.addReaction(messageID, member, symbol)
	a.Bot.HandleReactionAdd(context.Background(), chat.Reaction{
		MessageID: messageID,
		MemberID:  member,
		Symbol:    symbol,
	})
}
