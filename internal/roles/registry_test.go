package roles

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRegistry_SetAndLookup(t *testing.T) {
	r := New("DPS", "Tank", "Support")

	if err := r.Set("DPS", "😎"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := r.Set("Tank", "💩"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if role, ok := r.RoleFor("😎"); !ok || role != "DPS" {
		t.Errorf("RoleFor(😎) = %q, %v; want DPS, true", role, ok)
	}
	if s, ok := r.Symbol("Tank"); !ok || s != "💩" {
		t.Errorf("Symbol(Tank) = %q, %v; want 💩, true", s, ok)
	}
	if _, ok := r.Symbol("Support"); ok {
		t.Error("Support should be unset")
	}
	if _, ok := r.RoleFor("💀"); ok {
		t.Error("unknown symbol should not resolve")
	}
}

func TestRegistry_RebindKeepsIndexesConsistent(t *testing.T) {
	r := New("DPS")
	_ = r.Set("DPS", "a")
	_ = r.Set("DPS", "b")

	if _, ok := r.RoleFor("a"); ok {
		t.Error("old symbol should be released")
	}
	if role, _ := r.RoleFor("b"); role != "DPS" {
		t.Errorf("RoleFor(b) = %q, want DPS", role)
	}

	_ = r.Set("DPS", "")
	if _, ok := r.RoleFor("b"); ok {
		t.Error("unset should release symbol")
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1 (role stays known)", r.Len())
	}
}

func TestRegistry_SymbolTaken(t *testing.T) {
	r := New("DPS", "Tank")
	_ = r.Set("DPS", "x")

	err := r.Set("Tank", "x")
	if !errors.Is(err, ErrSymbolTaken) {
		t.Fatalf("err = %v, want ErrSymbolTaken", err)
	}
	if _, ok := r.Symbol("Tank"); ok {
		t.Error("Tank should remain unset after rejected Set")
	}
}

func TestRegistry_SetEmptyRole(t *testing.T) {
	var r Registry
	if err := r.Set("", "x"); !errors.Is(err, ErrEmptyRole) {
		t.Errorf("err = %v, want ErrEmptyRole", err)
	}
}

func TestRegistry_JSONKeepsOrder(t *testing.T) {
	r := New("Tank", "DPS", "Support")
	_ = r.Set("Tank", "t")
	_ = r.Set("DPS", "d")

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"Tank":"t","DPS":"d"}` {
		t.Errorf("json = %s", data)
	}

	var back Registry
	if err := json.Unmarshal([]byte(`{"Support":"s","DPS":"d","Tank":null}`), &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	got := back.Roles()
	want := []string{"Support", "DPS", "Tank"}
	if len(got) != len(want) {
		t.Fatalf("Roles = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Roles[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if _, ok := back.Symbol("Tank"); ok {
		t.Error("null symbol should decode as unset")
	}
}

func TestRegistry_UnmarshalRejectsDuplicateSymbols(t *testing.T) {
	var r Registry
	if err := json.Unmarshal([]byte(`{"DPS":"x","Tank":"x"}`), &r); err == nil {
		t.Fatal("expected error for duplicate symbols")
	}
}

func TestRegistry_CloneIsIndependent(t *testing.T) {
	r := New("DPS")
	_ = r.Set("DPS", "d")

	c := r.Clone()
	_ = c.Set("DPS", "e")

	if s, _ := r.Symbol("DPS"); s != "d" {
		t.Errorf("original changed to %q", s)
	}
}
