// Package reconcile rebuilds signup state from the live reactions on an
// announcement, picking up adds and removals that happened while the bot was
// offline.
package reconcile

import (
	"github.com/graaaaa/rolecall/internal/event"
	"github.com/graaaaa/rolecall/internal/roles"
)

// Change is one correction applied to the ledger.
type Change struct {
	Member string
	Role   string
	Added  bool
}

// Event corrects ev in place so that, for every reaction symbol on the
// announcement that maps to a known role, the members holding that role are
// exactly the reactors. live maps symbol to reactor ids; self is excluded.
// Symbols that map to no role are ignored.
func Event(ev *event.Event, reg *roles.Registry, live map[string][]string, self string) []Change {
	var changes []Change

	for _, role := range reg.Roles() {
		symbol, ok := reg.Symbol(role)
		if !ok {
			continue
		}
		reactors, ok := live[symbol]
		if !ok {
			continue
		}

		liveSet := make(map[string]struct{}, len(reactors))
		liveOrder := make([]string, 0, len(reactors))
		for _, id := range reactors {
			if id == "" || id == self {
				continue
			}
			if _, dup := liveSet[id]; dup {
				continue
			}
			liveSet[id] = struct{}{}
			liveOrder = append(liveOrder, id)
		}

		recorded := ev.MembersWithRole(role)
		recordedSet := make(map[string]struct{}, len(recorded))
		for _, id := range recorded {
			recordedSet[id] = struct{}{}
		}

		for _, id := range liveOrder {
			if _, ok := recordedSet[id]; ok {
				continue
			}
			if ev.AddRole(id, role) {
				changes = append(changes, Change{Member: id, Role: role, Added: true})
			}
		}

		for _, id := range recorded {
			if _, ok := liveSet[id]; ok {
				continue
			}
			if ev.RemoveRole(id, role) {
				changes = append(changes, Change{Member: id, Role: role, Added: false})
			}
		}
	}

	return changes
}
