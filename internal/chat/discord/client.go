// Package discord implements chat.Messenger on a Discord bot session.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/graaaaa/rolecall/internal/chat"
)

// reactionPageSize is the Discord API maximum for one reactions page.
const reactionPageSize = 100

// Intents requested by the bot.
const Intents = discordgo.IntentGuilds |
	discordgo.IntentGuildMessages |
	discordgo.IntentGuildMessageReactions |
	discordgo.IntentMessageContent

// Client is a chat.Messenger bound to one channel.
type Client struct {
	session   *discordgo.Session
	channelID string
	logger    *slog.Logger
	backoff   *BackoffCalculator
	attempts  int

	mu     sync.RWMutex
	selfID string
}

var _ chat.Messenger = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithConnectRetry sets how often Open retries the gateway connection and
// the backoff between attempts.
func WithConnectRetry(attempts int, cfg BackoffConfig) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		c.backoff = NewBackoffCalculator(cfg)
	}
}

// New creates a Client for the bot token. Call Open before use.
func New(token, channelID string, opts ...Option) (*Client, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	session.Identify.Intents = Intents

	c := &Client{
		session:   session,
		channelID: channelID,
		logger:    slog.Default(),
		backoff:   NewBackoffCalculator(DefaultBackoffConfig),
		attempts:  5,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Open connects to the gateway, retrying with backoff, and resolves the
// bot's own id.
func (c *Client) Open(ctx context.Context) error {
	var err error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if err = c.session.Open(); err == nil {
			break
		}
		delay := c.backoff.Calculate(attempt)
		c.logger.Warn("gateway connect failed, retrying",
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}

	me, err := c.session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		c.session.Close()
		return fmt.Errorf("resolve bot user: %w", err)
	}
	c.mu.Lock()
	c.selfID = me.ID
	c.mu.Unlock()

	c.logger.Info("connected to Discord", "user", me.Username, "channel_id", c.channelID)
	return nil
}

// Close disconnects from the gateway.
func (c *Client) Close() error {
	return c.session.Close()
}

// Listen routes inbound messages and reaction changes in the bound channel to
// h. The returned func unregisters the handlers.
func (c *Client) Listen(ctx context.Context, h chat.Handler) (remove func()) {
	removers := []func(){
		c.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
			if m.Author == nil || m.ChannelID != c.channelID {
				return
			}
			h.HandleCommand(ctx, chat.Command{
				ChannelID: m.ChannelID,
				MessageID: m.ID,
				AuthorID:  m.Author.ID,
				Content:   m.Content,
			})
		}),
		c.session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
			if r.MessageReaction == nil || r.ChannelID != c.channelID {
				return
			}
			h.HandleReactionAdd(ctx, toReaction(r.MessageReaction))
		}),
		c.session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionRemove) {
			if r.MessageReaction == nil || r.ChannelID != c.channelID {
				return
			}
			h.HandleReactionRemove(ctx, toReaction(r.MessageReaction))
		}),
	}
	return func() {
		for _, rm := range removers {
			rm()
		}
	}
}

func toReaction(r *discordgo.MessageReaction) chat.Reaction {
	return chat.Reaction{
		MessageID: r.MessageID,
		MemberID:  r.UserID,
		Symbol:    r.Emoji.MessageFormat(),
	}
}

// SelfID implements chat.Messenger.
func (c *Client) SelfID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selfID
}

// FetchMessage implements chat.Messenger.
func (c *Client) FetchMessage(ctx context.Context, messageID string) (chat.Message, error) {
	m, err := c.session.ChannelMessage(c.channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return chat.Message{}, mapError("fetch message", err)
	}
	msg := chat.Message{ID: m.ID, ChannelID: m.ChannelID, Content: m.Content}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
	}
	return msg, nil
}

// Reactions implements chat.Messenger.
func (c *Client) Reactions(ctx context.Context, messageID string) (map[string][]string, error) {
	m, err := c.session.ChannelMessage(c.channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError("fetch message", err)
	}

	out := make(map[string][]string, len(m.Reactions))
	for _, r := range m.Reactions {
		if r.Emoji == nil {
			continue
		}
		symbol := r.Emoji.MessageFormat()
		users, err := c.reactors(ctx, messageID, symbol)
		if err != nil {
			return nil, err
		}
		out[symbol] = users
	}
	return out, nil
}

// reactors pages through every user who reacted with symbol.
func (c *Client) reactors(ctx context.Context, messageID, symbol string) ([]string, error) {
	ids, err := collectPages(reactionPageSize, func(after string) ([]*discordgo.User, error) {
		return c.session.MessageReactions(c.channelID, messageID, emojiAPIName(symbol),
			reactionPageSize, "", after, discordgo.WithContext(ctx))
	})
	if err != nil {
		return nil, mapError("fetch reactions", err)
	}
	return ids, nil
}

// collectPages calls fetch with the last id seen until it returns a page
// shorter than size.
func collectPages(size int, fetch func(after string) ([]*discordgo.User, error)) ([]string, error) {
	var ids []string
	after := ""
	for {
		page, err := fetch(after)
		if err != nil {
			return nil, err
		}
		for _, u := range page {
			ids = append(ids, u.ID)
		}
		if len(page) < size {
			return ids, nil
		}
		after = page[len(page)-1].ID
	}
}

// Send implements chat.Messenger.
func (c *Client) Send(ctx context.Context, embed chat.Embed) (string, error) {
	m, err := c.session.ChannelMessageSendEmbed(c.channelID, toEmbed(embed), discordgo.WithContext(ctx))
	if err != nil {
		return "", mapError("send message", err)
	}
	return m.ID, nil
}

// Edit implements chat.Messenger.
func (c *Client) Edit(ctx context.Context, messageID string, embed chat.Embed) error {
	_, err := c.session.ChannelMessageEditEmbed(c.channelID, messageID, toEmbed(embed), discordgo.WithContext(ctx))
	if err != nil {
		return mapError("edit message", err)
	}
	return nil
}

// Delete implements chat.Messenger.
func (c *Client) Delete(ctx context.Context, messageID string) error {
	if err := c.session.ChannelMessageDelete(c.channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return mapError("delete message", err)
	}
	return nil
}

// React implements chat.Messenger.
func (c *Client) React(ctx context.Context, messageID, symbol string) error {
	err := c.session.MessageReactionAdd(c.channelID, messageID, emojiAPIName(symbol), discordgo.WithContext(ctx))
	if err != nil {
		return mapError("add reaction", err)
	}
	return nil
}

// AwaitReaction implements chat.Messenger.
func (c *Client) AwaitReaction(ctx context.Context, messageID string, timeout time.Duration) (string, error) {
	got := make(chan string, 1)
	self := c.SelfID()
	remove := c.session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
		if r.MessageReaction == nil || r.MessageID != messageID || r.UserID == self {
			return
		}
		select {
		case got <- r.Emoji.MessageFormat():
		default:
		}
	})
	defer remove()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case symbol := <-got:
		return symbol, nil
	case <-timer.C:
		return "", chat.ErrTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func toEmbed(e chat.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	if e.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return out
}

// emojiAPIName converts a rendered emoji to the form the reaction endpoints
// take: unicode emoji pass through, custom emoji <:name:id> and
// <a:name:id> become name:id.
func emojiAPIName(symbol string) string {
	if !strings.HasPrefix(symbol, "<") || !strings.HasSuffix(symbol, ">") {
		return symbol
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(symbol, "<"), ">")
	inner = strings.TrimPrefix(inner, "a")
	return strings.TrimPrefix(inner, ":")
}

// mapError converts unknown-message responses to chat.ErrNotFound.
func mapError(op string, err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMessage {
			return fmt.Errorf("%s: %w", op, chat.ErrNotFound)
		}
		if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%s: %w", op, chat.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
