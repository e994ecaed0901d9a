package repl

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestHistory_Add(t *testing.T) {
	h := NewHistory("")
	h.Add("PING")
	h.Add("PING")
	h.Add("DISPLAY_ALL")

	if got, want := h.Entries(), []string{"PING", "DISPLAY_ALL"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Entries = %v, want %v", got, want)
	}
}

func TestHistory_Add_MaxSize(t *testing.T) {
	h := NewHistory("")
	h.maxSize = 3

	for _, cmd := range []string{"cmd1", "cmd2", "cmd3", "cmd4"} {
		h.Add(cmd)
	}

	if got, want := h.Entries(), []string{"cmd2", "cmd3", "cmd4"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Entries = %v, want %v", got, want)
	}
}

func TestHistory_Get(t *testing.T) {
	h := NewHistory("")
	h.Add("first")
	h.Add("second")
	h.Add("third")

	tests := []struct {
		index int
		want  string
	}{
		{0, "third"},
		{1, "second"},
		{2, "first"},
		{3, ""},
		{-1, ""},
	}

	for _, tt := range tests {
		if got := h.Get(tt.index); got != tt.want {
			t.Errorf("Get(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestHistory_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "history")

	h := NewHistory(path)
	h.Add("CREATE SAVINGS 101 Alice 1000 0.03")
	h.Add("DISPLAY_ALL")
	if err := h.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("mode = %o, want 600", perm)
	}

	loaded := NewHistory(path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(loaded.Entries(), h.Entries()) {
		t.Errorf("loaded %v, want %v", loaded.Entries(), h.Entries())
	}
}

func TestHistory_LoadMissingFile(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "nope"))
	if err := h.Load(); err != nil {
		t.Errorf("Load of a missing file: %v", err)
	}
	if len(h.Entries()) != 0 {
		t.Errorf("Entries = %v, want empty", h.Entries())
	}
}

func TestHistory_InMemory(t *testing.T) {
	h := NewHistory("")
	h.Add("PING")
	if err := h.Save(); err != nil {
		t.Errorf("Save: %v", err)
	}
	if err := h.Load(); err != nil {
		t.Errorf("Load: %v", err)
	}
}
