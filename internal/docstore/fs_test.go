package docstore

import (
	"os"
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempStore(t)
	content := []byte(`{"root":{"type":"root"}}`)
	if err := s.Write("note", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("note")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempStore(t)
	if err := s.Write("a/b/c", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "a", "b", "c.json")); err != nil {
		t.Errorf("expected file on disk: %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := tempStore(t)
	_ = s.Write("del", []byte("bye"))
	if err := s.Delete("del"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del"); err == nil {
		t.Error("expected error reading deleted document")
	}
}

func TestMove(t *testing.T) {
	s := tempStore(t)
	_ = s.Write("old", []byte("data"))
	if err := s.Move("old", "sub/new"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	got, err := s.Read("sub/new")
	if err != nil {
		t.Fatalf("Read after move: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("content = %q", got)
	}
	if _, err := s.Read("old"); err == nil {
		t.Error("old id should not exist")
	}
}

func TestList(t *testing.T) {
	s := tempStore(t)
	_ = s.Write("a", []byte("a"))
	_ = s.Write("sub/b", []byte("b"))
	if err := os.WriteFile(filepath.Join(s.Root(), "readme.txt"), []byte("not a doc"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len = %d, want 2", len(items))
	}
	for _, m := range items {
		if m.Checksum == "" {
			t.Errorf("document %s missing checksum", m.ID)
		}
		if m.UpdatedAt.IsZero() {
			t.Errorf("document %s missing mod time", m.ID)
		}
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempStore(t)

	cases := []string{
		"../../etc/passwd",
		"../outside",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for id %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoLeftoverTemp(t *testing.T) {
	s := tempStore(t)
	_ = s.Write("atomic", []byte("original content"))
	if err := s.Write("atomic", []byte("updated content")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic")
	if string(got) != "updated content" {
		t.Errorf("content = %q", got)
	}

	entries, err := os.ReadDir(s.Root())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "atomic.json" {
			t.Errorf("unexpected file left behind: %s", e.Name())
		}
	}
}

func TestIDFromPath(t *testing.T) {
	s := tempStore(t)
	abs := filepath.Join(s.Root(), "sub", "doc.json")
	id, ok := s.IDFromPath(abs)
	if !ok || id != "sub/doc" {
		t.Errorf("IDFromPath = %q, %v", id, ok)
	}
	if _, ok := s.IDFromPath(filepath.Join(s.Root(), "sub", "img.png")); ok {
		t.Error("non-document path should not map to an id")
	}
	if _, ok := s.IDFromPath("/elsewhere/doc.json"); ok {
		t.Error("path outside root should not map to an id")
	}
}
