package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/graaaaa/rolecall/internal/chat"
	"github.com/graaaaa/rolecall/internal/event"
	"github.com/graaaaa/rolecall/internal/roles"
)

// ParseStartTime parses free-form date/time text. Text without an explicit
// zone is read in loc.
func ParseStartTime(text string, loc *time.Location) (time.Time, error) {
	return dateparse.ParseIn(strings.TrimSpace(text), loc)
}

// Create posts an announcement for a new event, records it and schedules
// its start. commandID, when set, is the invoking message, deleted once the
// announcement is up.
func (b *Bot) Create(ctx context.Context, logger *slog.Logger, commandID, title, startText string) error {
	if title == "" {
		return validation("Missing title!")
	}
	if startText == "" {
		return validation("Missing start time!")
	}
	start, err := ParseStartTime(startText, b.settings.Location)
	if err != nil {
		return validation("Invalid start time format!")
	}
	if start.Before(b.now()) {
		return validation("Start time cannot be in the past!")
	}

	ev := event.Event{Title: title, StartTime: start.UTC(), Entries: []event.Entry{}}

	var reg roles.Registry
	var duplicate bool
	err = b.docs.View(ctx, func(doc *event.Document) error {
		duplicate = doc.HasDuplicate(ev.Title, ev.StartTime)
		reg = doc.Emojis.Clone()
		return nil
	})
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	if duplicate {
		return validation("An identical event has already been created!")
	}

	messageID, err := b.chat.Send(ctx, b.announcementEmbed(ev, &reg))
	if err != nil {
		return fmt.Errorf("send announcement: %w", err)
	}
	ev.MessageID = messageID

	// Record before reacting so early signups find the event.
	err = b.docs.Update(ctx, func(doc *event.Document) error {
		return doc.Add(ev)
	})
	if errors.Is(err, event.ErrDuplicate) {
		b.deleteQuietly(ctx, logger, messageID)
		return validation("An identical event has already been created!")
	}
	if err != nil {
		b.deleteQuietly(ctx, logger, messageID)
		return fmt.Errorf("save event: %w", err)
	}
	b.sched.Schedule(ev.MessageID, ev.StartTime)

	if commandID != "" {
		b.deleteQuietly(ctx, logger, commandID)
	}

	for _, role := range b.settings.RoleNames() {
		symbol, ok := reg.Symbol(role)
		if !ok {
			continue
		}
		if err := b.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := b.chat.React(ctx, messageID, symbol); err != nil {
			logger.Warn("failed to add role reaction", "role", role, "symbol", symbol, "error", err)
		}
	}

	logger.Info("event created",
		"event", ev.Title,
		"start", b.formatTime(ev.StartTime),
		"message_id", messageID,
	)
	return nil
}

// ForceStart starts the most recently created open event now.
func (b *Bot) ForceStart(ctx context.Context, logger *slog.Logger) error {
	var latest *event.Event
	err := b.docs.View(ctx, func(doc *event.Document) error {
		if ev := doc.Latest(); ev != nil {
			c := ev.Clone()
			latest = &c
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	if latest == nil {
		return validation("There are no scheduled events!")
	}

	logger.Info("force starting event", "event", latest.Title, "message_id", latest.MessageID)
	b.sched.Cancel(latest.MessageID)
	b.Fire(ctx, latest.MessageID)
	return nil
}

// Reset cancels every open event without starting it.
func (b *Bot) Reset(ctx context.Context, logger *slog.Logger) error {
	if err := b.clearEvents(ctx, logger, nil); err != nil {
		return err
	}
	_, err := b.chat.Send(ctx, chat.Embed{
		Title:       "Resetting Events",
		Description: "Success!",
		Color:       chat.ColorGreen,
	})
	return err
}

// clearEvents deletes every announcement, cancels its start and empties the
// event list. If reg is non-nil it replaces the registry in the same save.
func (b *Bot) clearEvents(ctx context.Context, logger *slog.Logger, reg *roles.Registry) error {
	err := b.docs.Update(ctx, func(doc *event.Document) error {
		for _, ev := range doc.Events {
			b.sched.Cancel(ev.MessageID)
			b.deleteQuietly(ctx, logger, ev.MessageID)
		}
		logger.Info("events reset", "count", len(doc.Events))
		doc.Events = []event.Event{}
		if reg != nil {
			doc.Emojis = *reg
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reset events: %w", err)
	}
	return nil
}

// ConfigureRoles asks for one reaction per configured role on a prompt
// message and installs the collected symbols. A role with no reaction in
// time, or whose reaction is already taken, is reported and left unset.
// Every open event is cancelled.
func (b *Bot) ConfigureRoles(ctx context.Context, logger *slog.Logger) error {
	prompt := chat.Embed{
		Title:  "Configuring Emojis",
		Color:  chat.ColorGreen,
		Footer: "Warning: This will cancel any current events",
	}
	promptID, err := b.chat.Send(ctx, prompt)
	if err != nil {
		return fmt.Errorf("send configuration prompt: %w", err)
	}

	reg := roles.New(b.settings.RoleNames()...)
	for _, role := range b.settings.RoleNames() {
		step := prompt
		step.Description = "React below with the emoji to use for the `" + role + "` role"
		if err := b.chat.Edit(ctx, promptID, step); err != nil {
			return fmt.Errorf("edit configuration prompt: %w", err)
		}

		symbol, err := b.chat.AwaitReaction(ctx, promptID, b.settings.ConfigureTimeout)
		if err == nil {
			err = reg.Set(role, symbol)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.fail(ctx, logger, wrap(KindConfigurationIncomplete,
				"No emoji for role "+role+" detected!", err))
			continue
		}
		logger.Info("role symbol captured", "role", role, "symbol", symbol)
	}

	if err := b.clearEvents(ctx, logger, &reg); err != nil {
		return err
	}

	done := prompt
	done.Description = "Success!"
	if err := b.chat.Edit(ctx, promptID, done); err != nil {
		return fmt.Errorf("edit configuration prompt: %w", err)
	}
	return nil
}

// Help posts the command reference.
func (b *Bot) Help(ctx context.Context) error {
	_, err := b.chat.Send(ctx, b.helpEmbed())
	return err
}

// deleteQuietly deletes a message, logging failures other than absence.
func (b *Bot) deleteQuietly(ctx context.Context, logger *slog.Logger, messageID string) {
	if err := b.chat.Delete(ctx, messageID); err != nil && !errors.Is(err, chat.ErrNotFound) {
		logger.Warn("failed to delete message", "message_id", messageID, "error", err)
	}
}
