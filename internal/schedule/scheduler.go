// Package schedule runs deferred event starts. Pending starts live in a
// priority queue ordered by fire time; a single run loop keeps exactly one
// timer armed for the head of the queue and invokes the fire callback for
// each due entry, one at a time.
package schedule

import (
	"container/heap"
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// FireFunc is called from the run loop when a scheduled start is due.
type FireFunc func(ctx context.Context, messageID string)

// Pending describes one scheduled start.
type Pending struct {
	MessageID string
	At        time.Time
}

// Scheduler fires FireFunc for each message id at its scheduled time.
// Schedule and Cancel are safe to call from any goroutine, before or after
// Run starts.
type Scheduler struct {
	fire      FireFunc
	afterFunc AfterFunc
	now       func() time.Time
	logger    *slog.Logger

	wakeCh chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}

	// protected by mu
	mu    sync.Mutex
	queue queue
	byID  map[string]*item
	seq   uint64
	timer TimerHandle

	stopOnce sync.Once
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithAfterFunc sets the timer function (for testing).
func WithAfterFunc(af AfterFunc) Option {
	return func(s *Scheduler) { s.afterFunc = af }
}

// WithClock sets the time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// New creates a Scheduler. Call Run to start firing.
func New(fire FireFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		fire:      fire,
		afterFunc: DefaultAfterFunc,
		now:       time.Now,
		logger:    slog.Default(),
		wakeCh:    make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		byID:      make(map[string]*item),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule arranges for messageID to fire at at. An existing entry for the
// same id is moved to the new time. A time in the past fires as soon as the
// run loop gets to it.
func (s *Scheduler) Schedule(messageID string, at time.Time) {
	s.mu.Lock()
	if it, ok := s.byID[messageID]; ok {
		it.at = at
		heap.Fix(&s.queue, it.offset)
	} else {
		s.seq++
		it := &item{id: messageID, at: at, seq: s.seq}
		heap.Push(&s.queue, it)
		s.byID[messageID] = it
	}
	s.mu.Unlock()

	s.logger.Debug("start scheduled", "message_id", messageID, "at", at)
	s.wake()
}

// Cancel removes the pending start for messageID. Reports whether one was
// pending.
func (s *Scheduler) Cancel(messageID string) bool {
	s.mu.Lock()
	it, ok := s.byID[messageID]
	if ok {
		heap.Remove(&s.queue, it.offset)
		delete(s.byID, messageID)
	}
	s.mu.Unlock()

	if ok {
		s.logger.Debug("start cancelled", "message_id", messageID)
		s.wake()
	}
	return ok
}

// Pending returns the scheduled starts in fire order.
func (s *Scheduler) Pending() []Pending {
	s.mu.Lock()
	items := append([]*item(nil), s.queue...)
	s.mu.Unlock()

	sort.Slice(items, func(i, j int) bool { return queue(items).Less(i, j) })
	out := make([]Pending, len(items))
	for i, it := range items {
		out[i] = Pending{MessageID: it.id, At: it.at}
	}
	return out
}

// Run drains due starts until Stop is called or ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.doneCh)
	defer s.disarm()

	for {
		select {
		case <-s.wakeCh:
			s.drain(ctx)

		case <-s.stopCh:
			return

		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the run loop. Pending starts are not fired.
// Waits for the run loop to finish or until ctx is cancelled.
// Safe to call multiple times.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})

	select {
	case <-s.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

func (s *Scheduler) drain(ctx context.Context) {
	for {
		id, ok := s.popDue()
		if !ok {
			return
		}
		if ctx.Err() != nil {
			return
		}
		s.logger.Info("firing scheduled start", "message_id", id)
		s.fire(ctx, id)
	}
}

// popDue removes and returns the head if it is due. Otherwise it rearms the
// timer for the head and reports false.
func (s *Scheduler) popDue() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	head := s.queue.peek()
	if head != nil && !head.at.After(s.now()) {
		heap.Pop(&s.queue)
		delete(s.byID, head.id)
		return head.id, true
	}

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if head != nil {
		s.timer = s.afterFunc(head.at.Sub(s.now()), s.wake)
	}
	return "", false
}

func (s *Scheduler) disarm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
