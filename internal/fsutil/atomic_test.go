package fsutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteJSONAtomic_CreatesDirAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	if err := WriteJSONAtomic(path, map[string]int{"a": 1}); err != nil {
		t.Fatalf("WriteJSONAtomic: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got map[string]int
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["a"] != 1 {
		t.Errorf("a = %d, want 1", got["a"])
	}
}

func TestWriteJSONAtomic_ReplacesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	if err := WriteJSONAtomic(path, []string{"old"}); err != nil {
		t.Fatal(err)
	}
	if err := WriteJSONAtomic(path, []string{"new"}); err != nil {
		t.Fatal(err)
	}

	var got []string
	data, _ := os.ReadFile(path)
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "new" {
		t.Errorf("content = %v, want [new]", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestWriteJSONAtomic_EncodeErrorKeepsOriginal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := WriteJSONAtomic(path, "keep"); err != nil {
		t.Fatal(err)
	}

	// Channels cannot be encoded
	if err := WriteJSONAtomic(path, make(chan int)); err == nil {
		t.Fatal("expected encode error")
	}

	data, _ := os.ReadFile(path)
	var got string
	if err := json.Unmarshal(data, &got); err != nil || got != "keep" {
		t.Errorf("original content lost: %q (%v)", got, err)
	}
}
