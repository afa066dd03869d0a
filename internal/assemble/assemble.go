// Package assemble partitions signed-up members into fixed-size teams that
// satisfy role capacities. It is a greedy heuristic: when a clean partition
// does not exist it degrades first to flex roles (members forced into roles
// they did not pick) and then to random backfill (placeholder members).
package assemble

import (
	"math/rand"
	"sort"

	"github.com/graaaaa/rolecall/internal/event"
)

// Capacity is how many members of Role a complete team needs.
type Capacity struct {
	Role  string
	Count int
}

// Options configures one assembly run.
type Options struct {
	// Capacities is expanded, in order, into the required role slots.
	Capacities []Capacity
	// FlexRoles allows forcing members into non-preferred roles once a
	// clean team could not be built.
	FlexRoles bool
	// RandomBackfill fills missing slots with placeholders once a clean
	// team could not be built.
	RandomBackfill bool
	// Scramble shuffles the entries once before assembly.
	Scramble bool
	// Rand breaks role ties and drives Scramble. Required.
	Rand *rand.Rand
}

// Member is one seat in a team.
type Member struct {
	// MemberID is empty for a placeholder.
	MemberID string
	// Role is the role the member was assigned.
	Role string
	// Preferred is the member's original preference list.
	Preferred []string
	// Forced is set when Role is not one of Preferred.
	Forced bool
	// Placeholder marks an unfilled seat produced by backfill.
	Placeholder bool
}

// Team is an accepted team, sorted by assigned role.
type Team []Member

// TeamSize returns the number of seats in a complete team.
func TeamSize(caps []Capacity) int {
	n := 0
	for _, c := range caps {
		if c.Count > 0 {
			n += c.Count
		}
	}
	return n
}

func slots(caps []Capacity) []string {
	out := make([]string, 0, TeamSize(caps))
	for _, c := range caps {
		for i := 0; i < c.Count; i++ {
			out = append(out, c.Role)
		}
	}
	return out
}

// Assemble builds as many complete teams as it can from entries.
// entries is not modified. Every real member appears in at most one team;
// members left over when assembly stops are dropped.
func Assemble(entries []event.Entry, opts Options) []Team {
	size := TeamSize(opts.Capacities)
	if len(entries) == 0 || size == 0 {
		return nil
	}

	pool := make([]event.Entry, len(entries))
	for i, e := range entries {
		pool[i] = event.Entry{ID: e.ID, Roles: append([]string(nil), e.Roles...)}
	}
	if opts.Scramble {
		opts.Rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}

	b := builder{opts: opts, size: size}
	var teams []Team
	degraded := false

	for len(pool) > 0 {
		team, placed := b.build(pool)
		if placed && len(team) == size {
			sort.SliceStable(team, func(i, j int) bool { return team[i].Role < team[j].Role })
			teams = append(teams, team)
			pool = without(pool, team)
			continue
		}

		// A failure after degradation is already on ends the run.
		if degraded {
			break
		}
		degraded = true
		b.flex = opts.FlexRoles
		b.backfill = opts.RandomBackfill
	}

	return teams
}

type builder struct {
	opts     Options
	size     int
	flex     bool
	backfill bool
}

// build makes one attempt at a team from the head of pool. placed reports
// whether at least one real member was seated.
func (b *builder) build(pool []event.Entry) (team Team, placed bool) {
	required := slots(b.opts.Capacities)
	seated := make(map[string]struct{}, b.size)
	second := false

	// restart rewinds to the head of the pool for the flex pass.
	restart := func(i int) bool {
		return i == len(pool)-1 && !second && b.flex
	}

	for i := 0; i < len(pool); i++ {
		if len(required) == 0 {
			break
		}
		entry := pool[i]
		if _, ok := seated[entry.ID]; ok {
			continue
		}

		possible := eligible(entry.Roles, required)
		forced := false
		if len(possible) == 0 {
			if !(b.flex && second) {
				if restart(i) {
					i = -1
					second = true
				}
				continue
			}
			possible = append([]string(nil), required...)
			forced = true
		}

		chosen := possible[b.opts.Rand.Intn(len(possible))]
		required = removeOne(required, chosen)
		team = append(team, Member{
			MemberID:  entry.ID,
			Role:      chosen,
			Preferred: append([]string(nil), entry.Roles...),
			Forced:    forced,
		})
		seated[entry.ID] = struct{}{}
		placed = true

		if restart(i) {
			i = -1
			second = true
		}
	}

	if b.backfill && placed && len(team) != b.size {
		for _, role := range required {
			team = append(team, Member{Role: role, Placeholder: true})
		}
	}

	return team, placed
}

// eligible returns the preferred roles that still have an open slot.
func eligible(preferred, required []string) []string {
	var out []string
	for _, role := range preferred {
		for _, r := range required {
			if r == role {
				out = append(out, role)
				break
			}
		}
	}
	return out
}

func removeOne(list []string, v string) []string {
	for i, s := range list {
		if s == v {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

func without(pool []event.Entry, team Team) []event.Entry {
	taken := make(map[string]struct{}, len(team))
	for _, m := range team {
		if !m.Placeholder {
			taken[m.MemberID] = struct{}{}
		}
	}
	out := pool[:0:0]
	for _, e := range pool {
		if _, ok := taken[e.ID]; !ok {
			out = append(out, e)
		}
	}
	return out
}
