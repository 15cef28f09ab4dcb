// Package testutil provides shared test helpers for setting up projects and databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/adrbook/internal/index"
	"github.com/starford/adrbook/internal/project"
	"github.com/starford/adrbook/internal/storage"
)

// ProjectFile declares a global folder and two packages. package1 ships its
// own template, package2 falls back to the global one.
const ProjectFile = `project:
  name: fixture
  tz: UTC
  adr_folder: docs/adr
  packages:
    - name: package1
      path: packages/package1
      adr_folder: packages/package1/docs/adr
    - name: package2
      path: packages/package2
      adr_folder: packages/package2/docs/adr
`

// GlobalTemplate is the fixture's project-wide template.
const GlobalTemplate = `---
title: "{{title}}"
---

# {{title}}

Global template for {{slug}} created {{date}}.
`

// Package1Template is the fixture's package1 template.
const Package1Template = `---
title: "{{title}}"
owner: team-one
---

# {{title}}

Package one template for {{slug}}.
`

// Now is the instant fixture clocks are pinned to.
var Now = time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "adrbook-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates an empty temporary project directory with a storage.Provider.
func TestStore(t *testing.T) (string, storage.Provider) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}

// TestProject lays out the fixture project in a temporary directory and
// returns its root, store and resolved package table.
func TestProject(t *testing.T) (string, storage.Provider, *project.Project) {
	t.Helper()
	root, store := TestStore(t)
	WriteFile(t, root, project.FileName, ProjectFile)
	WriteFile(t, root, "docs/adr/template.md", GlobalTemplate)
	WriteFile(t, root, "packages/package1/docs/adr/template.md", Package1Template)
	if err := os.MkdirAll(filepath.Join(root, "packages/package2/docs/adr"), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := project.LoadConfig(root)
	if err != nil {
		t.Fatal(err)
	}
	proj, err := project.Load(store, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return root, store, proj
}

// WriteFile writes content to rel under root, creating parent directories.
func WriteFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ReadFile returns the content of rel under root.
func ReadFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
