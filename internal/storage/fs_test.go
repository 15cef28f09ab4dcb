package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func tempProject(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempProject(t)
	content := []byte("# Hello\nWorld\n")
	if err := s.Write("adr.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("adr.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempProject(t)
	if err := s.Write("docs/adr/c.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("docs/adr/c.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestExists(t *testing.T) {
	s := tempProject(t)
	_ = s.Write("docs/a.md", []byte("a"))

	ok, err := s.Exists("docs/a.md")
	if err != nil || !ok {
		t.Errorf("Exists(docs/a.md) = %v, %v", ok, err)
	}
	ok, err = s.Exists("docs/missing.md")
	if err != nil || ok {
		t.Errorf("Exists(missing) = %v, %v", ok, err)
	}
	ok, _ = s.Exists("docs")
	if ok {
		t.Error("directories must not count as existing files")
	}
}

func TestListIsFlat(t *testing.T) {
	s := tempProject(t)
	_ = s.Write("docs/adr/a.md", []byte("a"))
	_ = s.Write("docs/adr/b.md", []byte("b"))
	_ = s.Write("docs/adr/nested/c.md", []byte("c"))
	_ = s.Write("docs/adr/readme.txt", []byte("not md"))

	items, err := s.List("./docs/adr")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].Path != "docs/adr/a.md" || items[1].Path != "docs/adr/b.md" {
		t.Errorf("paths = %q, %q", items[0].Path, items[1].Path)
	}
	if items[0].Checksum != Checksum([]byte("a")) {
		t.Errorf("checksum = %q", items[0].Checksum)
	}
}

func TestListMissingDir(t *testing.T) {
	s := tempProject(t)
	items, err := s.List("nope")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("len = %d, want 0", len(items))
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempProject(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	s := tempProject(t)
	_ = s.Write("atomic.md", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("atomic.md", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.md")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, ".adrbook-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "adrbook-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
