package internal

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/adrbook/internal/testutil"
)

func testRuntime(t *testing.T) (string, *Runtime) {
	t.Helper()
	root, _, _ := testutil.TestProject(t)
	testutil.WriteFile(t, root, "docs/adr/20240101-use-go.md",
		"---\ntitle: Use Go\nstatus: accepted\ndate: 2024-01-01\n---\n\n# Use Go\n")

	cfg := NewDefaultConfig()
	cfg.Project.Root = root
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "index.db")
	cfg.Watch.Debounce = 20 * time.Millisecond

	rt, err := NewRuntime(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	t.Cleanup(func() { rt.Close() })
	return root, rt
}

func TestNewRuntime_LoadsAndIndexes(t *testing.T) {
	_, rt := testRuntime(t)
	ctx := context.Background()

	if got := len(rt.Project.Packages()); got != 2 {
		t.Errorf("packages = %d, want 2", got)
	}
	d, err := rt.Service.GetADR(ctx, "20240101-use-go")
	if err != nil {
		t.Fatalf("GetADR: %v", err)
	}
	if d.ADR.Status != "accepted" || d.ADR.Body.EnhancedMDX == "" {
		t.Errorf("adr = %+v", d.ADR)
	}

	results, err := rt.Service.Search(ctx, "Use Go", 10)
	if err != nil || len(results) != 1 {
		t.Errorf("Search = %+v, %v", results, err)
	}
}

func TestNewRuntime_MissingRoot(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Project.Root = filepath.Join(t.TempDir(), "missing")
	if _, err := NewRuntime(context.Background(), cfg, nil, nil); err == nil {
		t.Fatal("expected error for missing project root")
	}
}

func TestRuntime_WatchReloads(t *testing.T) {
	root, rt := testRuntime(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Watch(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watcher time to register its folders.
	time.Sleep(100 * time.Millisecond)
	testutil.WriteFile(t, root, "packages/package2/docs/adr/20240202-edited.md",
		"---\ntitle: Edited by hand\n---\n")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := rt.Service.Repository().GetBySlug("package2/20240202-edited"); ok {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("watcher did not reload the new ADR")
}
