package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/graaaaa/rolecall/internal/assemble"
	"github.com/graaaaa/rolecall/internal/chat"
	"github.com/graaaaa/rolecall/internal/event"
	"github.com/graaaaa/rolecall/internal/roles"
)

// TimeLayout formats start times for display.
const TimeLayout = "1/2/2006, 3:04:05 PM"

// placeholderName stands in for a backfilled seat.
const placeholderName = "[RANDOM]"

// formatTime renders t in the configured zone followed by the zone name.
func (b *Bot) formatTime(t time.Time) string {
	loc := b.settings.Location
	return t.In(loc).Format(TimeLayout) + " " + loc.String()
}

// fill replaces {title} and {time} in template.
func (b *Bot) fill(template string, ev event.Event) string {
	return strings.NewReplacer(
		"{title}", ev.Title,
		"{time}", b.formatTime(ev.StartTime),
	).Replace(template)
}

func (b *Bot) announcementEmbed(ev event.Event, reg *roles.Registry) chat.Embed {
	lines := []string{"React with these emojis to pick a role!"}
	for _, role := range b.settings.RoleNames() {
		if symbol, ok := reg.Symbol(role); ok {
			lines = append(lines, symbol+" - "+role)
		}
	}
	return chat.Embed{
		Title:       b.fill(b.settings.Templates.Announcement, ev),
		Description: strings.Join(lines, "\n"),
		Color:       chat.ColorGreen,
	}
}

func (b *Bot) resultEmbed(ev event.Event, teams []assemble.Team) chat.Embed {
	embed := chat.Embed{
		Title: b.fill(b.settings.Templates.Start, ev),
		Color: chat.ColorGreen,
	}
	if len(teams) == 0 {
		embed.Description = b.fill(b.settings.Templates.Empty, ev)
		return embed
	}

	embed.Description = b.fill(b.settings.Templates.Description, ev)
	for i, team := range teams {
		lines := make([]string, len(team))
		for j, m := range team {
			lines[j] = memberLine(m)
		}
		embed.Fields = append(embed.Fields, chat.Field{
			Name:   fmt.Sprintf("Group %d", i+1),
			Value:  strings.Join(lines, "\n"),
			Inline: true,
		})
	}
	return embed
}

// memberLine renders one seat as `Role` - @member. A forced role carries the
// member's preferences, e.g. `Support(DPS/Tank)`.
func memberLine(m assemble.Member) string {
	label := m.Role
	if m.Forced {
		label += "(" + strings.Join(m.Preferred, "/") + ")"
	}
	name := placeholderName
	if !m.Placeholder {
		name = chat.Mention(m.MemberID)
	}
	return "`" + label + "` - " + name
}

func errorEmbed(message string) chat.Embed {
	return chat.Embed{Title: "Error", Description: message, Color: chat.ColorRed}
}

func commandErrorEmbed() chat.Embed {
	return chat.Embed{Title: "Command Error", Description: "See console for more info.", Color: chat.ColorRed}
}

func (b *Bot) helpEmbed() chat.Embed {
	p := b.settings.Prefix
	info := []string{
		p + ` create "` + "`TITLE`" + `" "` + "`DATE/TIME`" + `" - Create a new event. Example: ` +
			"`" + p + ` create "Tomato Town" "2030-07-01 19:30"` + "`",
		p + " forcestart - Forces the most recent scheduled event to start",
		p + " reset - Cancel all scheduled events",
		p + " config - Configure which emojis are used for role reactions. (WILL CANCEL ALL SCHEDULED EVENTS!)",
	}
	return chat.Embed{
		Title:       "Help",
		Description: strings.Join(info, "\n\n"),
		Color:       chat.ColorGreen,
	}
}
