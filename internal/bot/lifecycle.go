package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/graaaaa/rolecall/internal/chat"
	"github.com/graaaaa/rolecall/internal/event"
	"github.com/graaaaa/rolecall/internal/reconcile"
	"github.com/graaaaa/rolecall/internal/store"
)

// reconcileAll corrects every persisted event from live reaction state, in
// persisted order, and schedules the survivors.
func (b *Bot) reconcileAll(ctx context.Context) error {
	self := b.chat.SelfID()
	var survivors []event.Event

	err := b.docs.Update(ctx, func(doc *event.Document) error {
		kept := make([]event.Event, 0, len(doc.Events))
		for i := range doc.Events {
			ev := &doc.Events[i]

			live, err := b.chat.Reactions(ctx, ev.MessageID)
			if err != nil {
				// Missing or unreadable announcements both mean the event is gone.
				b.logger.Warn("announcement unavailable, cancelling event",
					"event", ev.Title,
					"message_id", ev.MessageID,
					"not_found", errors.Is(err, chat.ErrNotFound),
					"error", err,
				)
				continue
			}

			for _, c := range reconcile.Event(ev, &doc.Emojis, live, self) {
				if c.Added {
					b.logger.Info("member reacted while offline",
						"event", ev.Title, "member", c.Member, "role", c.Role)
				} else {
					b.logger.Info("member unreacted while offline",
						"event", ev.Title, "member", c.Member, "role", c.Role)
				}
			}
			kept = append(kept, *ev)
		}
		doc.Events = kept
		survivors = kept
		return nil
	})
	if err != nil {
		return fmt.Errorf("reconcile events: %w", err)
	}

	for _, ev := range survivors {
		b.sched.Schedule(ev.MessageID, ev.StartTime)
	}
	b.logger.Info("startup reconciliation complete", "events", len(survivors))
	return nil
}

// HandleReactionAdd records a signup for the role behind the reaction.
func (b *Bot) HandleReactionAdd(ctx context.Context, r chat.Reaction) {
	b.handleReaction(ctx, r, true)
}

// HandleReactionRemove withdraws a signup for the role behind the reaction.
func (b *Bot) HandleReactionRemove(ctx context.Context, r chat.Reaction) {
	b.handleReaction(ctx, r, false)
}

func (b *Bot) handleReaction(ctx context.Context, r chat.Reaction, added bool) {
	if !b.waitReady(ctx) {
		return
	}
	if r.MemberID == b.chat.SelfID() {
		return
	}

	err := b.docs.Update(ctx, func(doc *event.Document) error {
		ev := doc.Find(r.MessageID)
		if ev == nil {
			return store.ErrSkipSave
		}
		role, ok := doc.Emojis.RoleFor(r.Symbol)
		if !ok {
			return store.ErrSkipSave
		}

		var changed bool
		if added {
			changed = ev.AddRole(r.MemberID, role)
		} else {
			changed = ev.RemoveRole(r.MemberID, role)
		}
		if !changed {
			return store.ErrSkipSave
		}

		b.logger.Info("signup changed",
			"event", ev.Title,
			"member", r.MemberID,
			"role", role,
			"added", added,
		)
		return nil
	})
	if err != nil {
		b.logger.Error("failed to record reaction",
			"message_id", r.MessageID,
			"member", r.MemberID,
			"error", err,
		)
	}
}

// Fire starts the event announced by messageID. The document is reloaded so
// a trigger for an event that was reset, force-started or deleted in the
// meantime does nothing. If the announcement is gone the event is dropped
// without output. Otherwise teams are assembled and posted in place of the
// announcement.
func (b *Bot) Fire(ctx context.Context, messageID string) {
	err := b.docs.Update(ctx, func(doc *event.Document) error {
		ev := doc.Find(messageID)
		if ev == nil {
			b.logger.Debug("stale start trigger ignored", "message_id", messageID)
			return store.ErrSkipSave
		}

		if _, err := b.chat.FetchMessage(ctx, messageID); err != nil {
			b.logger.Warn("announcement unavailable at start, cancelling event",
				"event", ev.Title,
				"message_id", messageID,
				"error", err,
			)
			doc.Remove(messageID)
			return nil
		}

		b.logger.Info("starting event", "event", ev.Title, "signups", len(ev.Entries))
		teams := b.assemble(ev.Entries)
		result := b.resultEmbed(*ev, teams)

		if err := b.chat.Delete(ctx, messageID); err != nil && !errors.Is(err, chat.ErrNotFound) {
			b.logger.Warn("failed to delete announcement", "message_id", messageID, "error", err)
		}
		if _, err := b.chat.Send(ctx, result); err != nil {
			b.logger.Error("failed to post teams", "event", ev.Title, "error", err)
		}

		doc.Remove(messageID)
		b.logger.Info("event started", "event", ev.Title, "teams", len(teams))
		return nil
	})
	if err != nil {
		b.logger.Error("failed to start event", "message_id", messageID, "error", err)
	}
}
