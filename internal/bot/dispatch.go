package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/graaaaa/rolecall/internal/chat"
)

// errUnterminatedQuote is returned by Tokenize for an odd number of quotes.
var errUnterminatedQuote = errors.New("unterminated quote")

// Tokenize splits a command on spaces. Double quotes group words into one
// token and are removed. Consecutive spaces outside quotes count as one
// separator.
func Tokenize(content string) ([]string, error) {
	var (
		tokens  []string
		current strings.Builder
		quoted  bool
		pending bool // current holds a token, possibly empty ("")
	)
	for _, r := range content {
		switch {
		case r == '"':
			quoted = !quoted
			pending = true
		case r == ' ' && !quoted:
			if pending {
				tokens = append(tokens, current.String())
				current.Reset()
				pending = false
			}
		default:
			current.WriteRune(r)
			pending = true
		}
	}
	if quoted {
		return nil, errUnterminatedQuote
	}
	if pending {
		tokens = append(tokens, current.String())
	}
	return tokens, nil
}

// HandleCommand runs a channel message as a command if it starts with the
// configured prefix. Failures never escape: validation problems are shown
// to the user, anything else is logged and reported and the user sees a
// generic error.
func (b *Bot) HandleCommand(ctx context.Context, cmd chat.Command) {
	if !b.waitReady(ctx) {
		return
	}
	if cmd.AuthorID == b.chat.SelfID() || !b.hasPrefix(cmd.Content) {
		return
	}

	logger := b.logger.With("command_id", uuid.NewString(), "author", cmd.AuthorID)

	defer func() {
		if r := recover(); r != nil {
			b.fail(ctx, logger, fmt.Errorf("panic: %v", r))
		}
	}()

	tokens, err := Tokenize(cmd.Content)
	if err != nil {
		b.fail(ctx, logger, validation("Unterminated quote in command!"))
		return
	}
	logger.Info("handling command", "tokens", tokens)

	if err := b.dispatch(ctx, logger, cmd, tokens[1:]); err != nil {
		b.fail(ctx, logger, err)
	}
}

func (b *Bot) hasPrefix(content string) bool {
	p := b.settings.Prefix
	return content == p || strings.HasPrefix(content, p+" ")
}

func (b *Bot) dispatch(ctx context.Context, logger *slog.Logger, cmd chat.Command, args []string) error {
	sub := ""
	if len(args) > 0 {
		sub = args[0]
		args = args[1:]
	}

	switch sub {
	case "create":
		var title, start string
		if len(args) > 0 {
			title = args[0]
		}
		if len(args) > 1 {
			start = args[1]
		}
		return b.Create(ctx, logger, cmd.MessageID, title, start)
	case "forcestart":
		return b.ForceStart(ctx, logger)
	case "reset":
		return b.Reset(ctx, logger)
	case "config":
		return b.ConfigureRoles(ctx, logger)
	case "help":
		return b.Help(ctx)
	default:
		return validation("Unknown command!")
	}
}

// fail reports err to the channel. Errors carrying a user message are shown
// as is; anything else is logged, forwarded to the reporter and shown as a
// generic failure.
func (b *Bot) fail(ctx context.Context, logger *slog.Logger, err error) {
	var embed chat.Embed
	var e *Error
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfigurationIncomplete):
		errors.As(err, &e)
		logger.Warn("command rejected", "kind", e.Kind.String(), "reason", e.Message)
		embed = errorEmbed(e.Message)
	default:
		logger.Error("command failed", "kind", KindOf(err).String(), "error", err)
		if b.report != nil {
			b.report(ctx, err)
		}
		embed = commandErrorEmbed()
	}

	if _, err := b.chat.Send(ctx, embed); err != nil {
		logger.Error("failed to send error message", "error", err)
	}
}
