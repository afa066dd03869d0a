package event

// index returns the position of member's entry, or -1.
func (e *Event) index(member string) int {
	for i := range e.Entries {
		if e.Entries[i].ID == member {
			return i
		}
	}
	return -1
}

// Entry returns a copy of member's entry.
func (e *Event) Entry(member string) (Entry, bool) {
	i := e.index(member)
	if i < 0 {
		return Entry{}, false
	}
	entry := e.Entries[i]
	entry.Roles = append([]string(nil), entry.Roles...)
	return entry, true
}

// AddRole records that member is willing to play role, creating the entry if
// needed. Adding a role already present is a no-op.
// Reports whether the ledger changed.
func (e *Event) AddRole(member, role string) bool {
	if member == "" || role == "" {
		return false
	}
	i := e.index(member)
	if i < 0 {
		e.Entries = append(e.Entries, Entry{ID: member, Roles: []string{role}})
		return true
	}
	if e.Entries[i].HasRole(role) {
		return false
	}
	e.Entries[i].Roles = append(e.Entries[i].Roles, role)
	return true
}

// RemoveRole withdraws member from role. An entry left without roles is
// removed in the same step. Removing an absent role is a no-op.
// Reports whether the ledger changed.
func (e *Event) RemoveRole(member, role string) bool {
	i := e.index(member)
	if i < 0 {
		return false
	}
	roles := e.Entries[i].Roles
	for j, r := range roles {
		if r != role {
			continue
		}
		e.Entries[i].Roles = append(roles[:j:j], roles[j+1:]...)
		if len(e.Entries[i].Roles) == 0 {
			e.Entries = append(e.Entries[:i], e.Entries[i+1:]...)
		}
		return true
	}
	return false
}

// MembersWithRole returns the ids of members whose entry contains role,
// in ledger order.
func (e *Event) MembersWithRole(role string) []string {
	var ids []string
	for _, entry := range e.Entries {
		if entry.HasRole(role) {
			ids = append(ids, entry.ID)
		}
	}
	return ids
}
