// Package chat defines the messaging collaborator the bot drives: sending and
// editing embeds in its channel, reading reactions, and delivering inbound
// commands and reaction changes.
package chat

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for Messenger implementations.
var (
	// ErrNotFound is returned when a message no longer exists.
	ErrNotFound = errors.New("message not found")

	// ErrTimeout is returned by AwaitReaction when no reaction arrives in time.
	ErrTimeout = errors.New("timed out waiting for reaction")
)

// Embed colors.
const (
	ColorGreen = 0x00FF00
	ColorRed   = 0xFF0000
)

// Embed is a formatted message.
type Embed struct {
	Title       string
	Description string
	Color       int
	Footer      string
	Fields      []Field
}

// Field is one titled block of an Embed.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Message is a posted message in the bot's channel.
type Message struct {
	ID        string
	ChannelID string
	AuthorID  string
	Content   string
}

// Messenger is the channel-scoped messaging surface. All message ids refer
// to the configured channel.
type Messenger interface {
	// SelfID returns the bot's own member id.
	SelfID() string

	// FetchMessage returns the message or ErrNotFound.
	FetchMessage(ctx context.Context, messageID string) (Message, error)

	// Reactions returns reactor ids keyed by reaction symbol. The bot's own
	// reactions are included.
	Reactions(ctx context.Context, messageID string) (map[string][]string, error)

	// Send posts embed and returns the new message id.
	Send(ctx context.Context, embed Embed) (string, error)

	// Edit replaces the embed of a message.
	Edit(ctx context.Context, messageID string, embed Embed) error

	// Delete removes a message. Deleting a missing message returns ErrNotFound.
	Delete(ctx context.Context, messageID string) error

	// React adds the bot's reaction. Callers must space repeated calls.
	React(ctx context.Context, messageID, symbol string) error

	// AwaitReaction returns the symbol of the first reaction added to the
	// message by anyone but the bot, or ErrTimeout.
	AwaitReaction(ctx context.Context, messageID string, timeout time.Duration) (string, error)
}

// Command is an inbound channel message that may hold a bot command.
type Command struct {
	ChannelID string
	MessageID string
	AuthorID  string
	Content   string
}

// Reaction is an inbound reaction change on a message.
type Reaction struct {
	MessageID string
	MemberID  string
	Symbol    string
}

// Handler receives inbound events from a Messenger implementation.
type Handler interface {
	HandleCommand(ctx context.Context, cmd Command)
	HandleReactionAdd(ctx context.Context, r Reaction)
	HandleReactionRemove(ctx context.Context, r Reaction)
}

// Mention returns the platform mention markup for a member.
func Mention(memberID string) string {
	return "<@" + memberID + ">"
}
