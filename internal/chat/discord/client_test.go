package discord

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/graaaaa/rolecall/internal/chat"
)

func TestEmojiAPIName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"😎", "😎"},
		{"💩", "💩"},
		{"<:pepe:123456>", "pepe:123456"},
		{"<a:dance:987>", "dance:987"},
		{"<:alpaca:42>", "alpaca:42"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := emojiAPIName(tt.in); got != tt.want {
				t.Errorf("emojiAPIName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEmojiAPIName_MatchesMessageFormat(t *testing.T) {
	emojis := []discordgo.Emoji{
		{Name: "😎"},
		{Name: "pepe", ID: "123"},
		{Name: "dance", ID: "987", Animated: true},
	}
	for _, e := range emojis {
		want := e.Name
		if e.ID != "" {
			want = e.Name + ":" + e.ID
		}
		if got := emojiAPIName(e.MessageFormat()); got != want {
			t.Errorf("emojiAPIName(%q) = %q, want %q", e.MessageFormat(), got, want)
		}
	}
}

func TestToEmbed(t *testing.T) {
	e := toEmbed(chat.Embed{
		Title:       "Title",
		Description: "Desc",
		Color:       chat.ColorGreen,
		Footer:      "careful",
		Fields: []chat.Field{
			{Name: "Group 1", Value: "`DPS` - <@1>", Inline: true},
		},
	})

	if e.Title != "Title" || e.Description != "Desc" || e.Color != chat.ColorGreen {
		t.Errorf("embed = %+v", e)
	}
	if e.Footer == nil || e.Footer.Text != "careful" {
		t.Errorf("footer = %+v", e.Footer)
	}
	if len(e.Fields) != 1 || !e.Fields[0].Inline || e.Fields[0].Name != "Group 1" {
		t.Errorf("fields = %+v", e.Fields)
	}

	if bare := toEmbed(chat.Embed{Title: "x"}); bare.Footer != nil || bare.Fields != nil {
		t.Errorf("bare embed = %+v", bare)
	}
}

func TestMapError(t *testing.T) {
	unknown := &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusNotFound},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMessage},
	}
	if err := mapError("fetch", unknown); !errors.Is(err, chat.ErrNotFound) {
		t.Errorf("unknown message: %v, want ErrNotFound", err)
	}

	bare404 := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}
	if err := mapError("fetch", bare404); !errors.Is(err, chat.ErrNotFound) {
		t.Errorf("404: %v, want ErrNotFound", err)
	}

	forbidden := &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusForbidden},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingPermissions},
	}
	err := mapError("fetch", forbidden)
	if errors.Is(err, chat.ErrNotFound) {
		t.Errorf("403 mapped to ErrNotFound")
	}
	if !errors.Is(err, forbidden) {
		t.Errorf("403 should wrap the REST error")
	}
}

func TestBackoffCalculator(t *testing.T) {
	cfg := BackoffConfig{
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
	}
	b := NewBackoffCalculatorWithSeed(cfg, 1)

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second}
	for attempt, w := range want {
		if got := b.Calculate(attempt); got != w {
			t.Errorf("Calculate(%d) = %v, want %v", attempt, got, w)
		}
	}
	if got := b.Calculate(-3); got != time.Second {
		t.Errorf("Calculate(-3) = %v, want 1s", got)
	}
}

func TestBackoffCalculator_JitterBounds(t *testing.T) {
	cfg := DefaultBackoffConfig
	b := NewBackoffCalculatorWithSeed(cfg, 42)

	for i := 0; i < 100; i++ {
		got := b.Calculate(2)
		base := 4 * time.Second
		lo := time.Duration(float64(base) * (1 - cfg.JitterFactor))
		hi := time.Duration(float64(base) * (1 + cfg.JitterFactor))
		if got < lo || got > hi {
			t.Fatalf("Calculate(2) = %v, want within [%v, %v]", got, lo, hi)
		}
	}
}

func TestNew_SetsIntents(t *testing.T) {
	c, err := New("token", "chan")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.session.Identify.Intents != Intents {
		t.Errorf("intents = %v, want %v", c.session.Identify.Intents, Intents)
	}
	if c.session.Token != "Bot token" {
		t.Errorf("token = %q", c.session.Token)
	}
	if c.SelfID() != "" {
		t.Errorf("SelfID before Open = %q", c.SelfID())
	}
}

func users(prefix string, n int) []*discordgo.User {
	out := make([]*discordgo.User, n)
	for i := range out {
		out[i] = &discordgo.User{ID: fmt.Sprintf("%s%d", prefix, i)}
	}
	return out
}

func TestCollectPages(t *testing.T) {
	tests := []struct {
		name      string
		pages     [][]*discordgo.User
		wantIDs   int
		wantAfter []string
	}{
		{"empty", [][]*discordgo.User{nil}, 0, []string{""}},
		{"single short page", [][]*discordgo.User{users("a", 3)}, 3, []string{""}},
		{
			"full pages then short",
			[][]*discordgo.User{users("a", 4), users("b", 4), users("c", 1)},
			9,
			[]string{"", "a3", "b3"},
		},
		{
			"full page then empty",
			[][]*discordgo.User{users("a", 4), nil},
			4,
			[]string{"", "a3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var afters []string
			ids, err := collectPages(4, func(after string) ([]*discordgo.User, error) {
				afters = append(afters, after)
				if len(afters) > len(tt.pages) {
					t.Fatalf("fetched page %d of %d", len(afters), len(tt.pages))
				}
				return tt.pages[len(afters)-1], nil
			})
			if err != nil {
				t.Fatalf("collectPages: %v", err)
			}
			if len(ids) != tt.wantIDs {
				t.Errorf("ids = %d, want %d", len(ids), tt.wantIDs)
			}
			if fmt.Sprint(afters) != fmt.Sprint(tt.wantAfter) {
				t.Errorf("after cursors = %v, want %v", afters, tt.wantAfter)
			}
		})
	}
}

func TestCollectPages_Error(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	ids, err := collectPages(2, func(after string) ([]*discordgo.User, error) {
		calls++
		if calls == 2 {
			return nil, boom
		}
		return users("a", 2), nil
	})
	if !errors.Is(err, boom) || ids != nil {
		t.Errorf("collectPages = %v, %v; want nil, boom", ids, err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestWithConnectRetry(t *testing.T) {
	cfg := BackoffConfig{InitialDelay: time.Second, MaxDelay: 2 * time.Second, Multiplier: 2}
	c, err := New("token", "chan", WithConnectRetry(8, cfg))
	if err != nil {
		t.Fatal(err)
	}
	if c.attempts != 8 {
		t.Errorf("attempts = %d, want 8", c.attempts)
	}
	if got := c.backoff.Calculate(5); got != 2*time.Second {
		t.Errorf("Calculate(5) = %v, want capped at 2s", got)
	}

	c, err = New("token", "chan", WithConnectRetry(0, cfg))
	if err != nil {
		t.Fatal(err)
	}
	if c.attempts != 5 {
		t.Errorf("attempts = %d, want default 5", c.attempts)
	}
}
