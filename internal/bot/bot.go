// Package bot runs the event lifecycle: it turns channel commands and
// reaction changes into document updates, reconciles signups after downtime,
// and assembles and announces teams when an event starts.
package bot

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/graaaaa/rolecall/internal/assemble"
	"github.com/graaaaa/rolecall/internal/chat"
	"github.com/graaaaa/rolecall/internal/event"
	"github.com/graaaaa/rolecall/internal/schedule"
	"github.com/graaaaa/rolecall/internal/store"
)

// Templates are the configurable message texts. {title} and {time} are
// replaced with the event's title and formatted start time.
type Templates struct {
	Announcement string
	Start        string
	Description  string
	Empty        string
}

// Settings is the bot's static configuration.
type Settings struct {
	Prefix           string
	Roles            []assemble.Capacity
	FlexRoles        bool
	RandomBackfill   bool
	Scramble         bool
	Location         *time.Location
	Templates        Templates
	ConfigureTimeout time.Duration
	ReactInterval    time.Duration
}

// RoleNames returns the configured roles in order.
func (s Settings) RoleNames() []string {
	names := make([]string, len(s.Roles))
	for i, c := range s.Roles {
		names[i] = c.Role
	}
	return names
}

// ErrorReporter receives unhandled command failures.
type ErrorReporter func(ctx context.Context, err error)

// Bot owns the event lifecycle for one channel.
type Bot struct {
	settings Settings
	docs     *store.Serialized
	chat     chat.Messenger
	sched    *schedule.Scheduler
	limiter  *rate.Limiter
	logger   *slog.Logger
	now      func() time.Time
	report   ErrorReporter

	rngMu sync.Mutex
	rng   *rand.Rand

	schedOpts []schedule.Option

	ready     chan struct{}
	readyOnce sync.Once
}

var _ chat.Handler = (*Bot)(nil)

// Option configures a Bot.
type Option func(*Bot)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) { b.logger = logger }
}

// WithRand sets the random source used for team assembly.
func WithRand(rng *rand.Rand) Option {
	return func(b *Bot) { b.rng = rng }
}

// WithClock sets the time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(b *Bot) { b.now = now }
}

// WithErrorReporter sets where unhandled command failures are forwarded.
func WithErrorReporter(report ErrorReporter) Option {
	return func(b *Bot) { b.report = report }
}

// WithSchedulerOptions passes options to the bot's scheduler.
func WithSchedulerOptions(opts ...schedule.Option) Option {
	return func(b *Bot) { b.schedOpts = append(b.schedOpts, opts...) }
}

// New creates a Bot. Call Start before delivering events, then Run.
func New(settings Settings, docs *store.Serialized, messenger chat.Messenger, opts ...Option) *Bot {
	if settings.Location == nil {
		settings.Location = time.UTC
	}

	b := &Bot{
		settings: settings,
		docs:     docs,
		chat:     messenger,
		logger:   slog.Default(),
		now:      time.Now,
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.rng == nil {
		b.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	limit := rate.Inf
	if settings.ReactInterval > 0 {
		limit = rate.Every(settings.ReactInterval)
	}
	b.limiter = rate.NewLimiter(limit, 1)

	schedOpts := append([]schedule.Option{
		schedule.WithLogger(b.logger),
		schedule.WithClock(b.now),
	}, b.schedOpts...)
	b.sched = schedule.New(b.Fire, schedOpts...)

	return b
}

// Start reconciles every open event against its announcement's live
// reactions, drops events whose announcement is gone, schedules the rest
// and saves the corrected document. Live handlers are held until Start
// completes.
func (b *Bot) Start(ctx context.Context) error {
	defer b.readyOnce.Do(func() { close(b.ready) })
	return b.reconcileAll(ctx)
}

// Run drives scheduled starts until ctx is cancelled or Stop is called.
func (b *Bot) Run(ctx context.Context) {
	b.sched.Run(ctx)
}

// Stop stops the scheduler.
func (b *Bot) Stop(ctx context.Context) error {
	return b.sched.Stop(ctx)
}

// Pending returns the scheduled starts in fire order.
func (b *Bot) Pending() []schedule.Pending {
	return b.sched.Pending()
}

// OpenEvents returns a copy of every open event in creation order.
func (b *Bot) OpenEvents(ctx context.Context) ([]event.Event, error) {
	var out []event.Event
	err := b.docs.View(ctx, func(doc *event.Document) error {
		out = doc.Clone().Events
		return nil
	})
	return out, err
}

// waitReady blocks until Start has finished. Reports false if ctx ends first.
func (b *Bot) waitReady(ctx context.Context) bool {
	select {
	case <-b.ready:
		return true
	case <-ctx.Done():
		return false
	}
}

func (b *Bot) assemble(entries []event.Entry) []assemble.Team {
	b.rngMu.Lock()
	defer b.rngMu.Unlock()

	return assemble.Assemble(entries, assemble.Options{
		Capacities:     b.settings.Roles,
		FlexRoles:      b.settings.FlexRoles,
		RandomBackfill: b.settings.RandomBackfill,
		Scramble:       b.settings.Scramble,
		Rand:           b.rng,
	})
}
