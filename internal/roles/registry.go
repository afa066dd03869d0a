// Package roles maps semantic role names to the reaction symbols that select
// them. Both directions are indexed so reaction lookups never scan.
package roles

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors for registry mutation.
var (
	// ErrSymbolTaken is returned when a symbol is already bound to another role.
	ErrSymbolTaken = errors.New("symbol already assigned to another role")

	// ErrEmptyRole is returned for an empty role name.
	ErrEmptyRole = errors.New("role name is empty")
)

// Registry is an ordered, bidirectional role/symbol mapping.
// A role may be known without a symbol, in which case no reaction selects it.
// The zero value is an empty registry ready to use.
type Registry struct {
	order    []string
	symbols  map[string]string // role -> symbol
	bySymbol map[string]string // symbol -> role
}

// New returns a registry knowing the given roles, all unset.
func New(names ...string) Registry {
	var r Registry
	for _, name := range names {
		r.addRole(name)
	}
	return r
}

func (r *Registry) init() {
	if r.symbols == nil {
		r.symbols = make(map[string]string)
	}
	if r.bySymbol == nil {
		r.bySymbol = make(map[string]string)
	}
}

func (r *Registry) addRole(name string) {
	if name == "" {
		return
	}
	for _, existing := range r.order {
		if existing == name {
			return
		}
	}
	r.order = append(r.order, name)
}

// Set binds symbol to role, adding the role if it is not yet known.
// An empty symbol unsets the role.
func (r *Registry) Set(role, symbol string) error {
	if role == "" {
		return ErrEmptyRole
	}
	r.init()

	if symbol != "" {
		if owner, ok := r.bySymbol[symbol]; ok && owner != role {
			return fmt.Errorf("%w: %s is used by %s", ErrSymbolTaken, symbol, owner)
		}
	}

	r.addRole(role)
	if old, ok := r.symbols[role]; ok {
		delete(r.bySymbol, old)
		delete(r.symbols, role)
	}
	if symbol == "" {
		return nil
	}
	r.symbols[role] = symbol
	r.bySymbol[symbol] = role
	return nil
}

// Symbol returns the symbol bound to role.
func (r *Registry) Symbol(role string) (string, bool) {
	s, ok := r.symbols[role]
	return s, ok
}

// RoleFor returns the role selected by symbol.
func (r *Registry) RoleFor(symbol string) (string, bool) {
	role, ok := r.bySymbol[symbol]
	return role, ok
}

// Roles returns every known role name in registry order.
func (r *Registry) Roles() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of known roles.
func (r *Registry) Len() int {
	return len(r.order)
}

// Clone returns a deep copy.
func (r *Registry) Clone() Registry {
	c := New(r.order...)
	for _, role := range r.order {
		if s, ok := r.symbols[role]; ok {
			c.init()
			c.symbols[role] = s
			c.bySymbol[s] = role
		}
	}
	return c
}

// MarshalJSON encodes the registry as an object of role -> symbol in
// registry order. Unset roles are omitted.
func (r Registry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, role := range r.order {
		symbol, ok := r.symbols[role]
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, err := json.Marshal(role)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(symbol)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of role -> symbol, keeping key order.
// Null or empty symbols leave the role unset.
func (r *Registry) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*r = Registry{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("roles: expected object, got %v", tok)
	}

	out := Registry{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		role, _ := keyTok.(string)

		var symbol *string
		if err := dec.Decode(&symbol); err != nil {
			return fmt.Errorf("roles: decode symbol for %q: %w", role, err)
		}
		value := ""
		if symbol != nil {
			value = *symbol
		}
		if err := out.Set(role, value); err != nil {
			return fmt.Errorf("roles: %w", err)
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = out
	return nil
}
