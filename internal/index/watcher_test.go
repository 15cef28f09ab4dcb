package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// recorder collects the paths reported by Watch.
type recorder struct {
	mu    sync.Mutex
	calls int
	paths map[string]bool
}

func newRecorder() *recorder { return &recorder{paths: make(map[string]bool)} }

func (r *recorder) fn(_ context.Context, paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	for _, p := range paths {
		r.paths[p] = true
	}
}

func (r *recorder) seen(p string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paths[p]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func watcherLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestWatcher_NewFileReported(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "docs", "adr")
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := newRecorder()
	go Watch(ctx, root, []string{"docs/adr"}, 50*time.Millisecond, watcherLogger(), rec.fn)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(folder, "0001-new.md"), []byte("# New"), 0o644)
	_ = os.WriteFile(filepath.Join(folder, "notes.txt"), []byte("ignored"), 0o644)
	_ = os.WriteFile(filepath.Join(folder, ".adrbook-tmp-1.md"), []byte("ignored"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.seen("docs/adr/0001-new.md")
	}, "new ADR file not reported")
	if rec.seen("docs/adr/notes.txt") || rec.seen("docs/adr/.adrbook-tmp-1.md") {
		t.Error("non-ADR files should be ignored")
	}
}

func TestWatcher_Debounces(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "adr")
	_ = os.MkdirAll(folder, 0o755)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := newRecorder()
	go Watch(ctx, root, []string{"adr"}, 300*time.Millisecond, watcherLogger(), rec.fn)
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		_ = os.WriteFile(filepath.Join(folder, "burst.md"), []byte{byte('a' + i)}, 0o644)
		time.Sleep(20 * time.Millisecond)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.seen("adr/burst.md")
	}, "burst not reported")
	time.Sleep(500 * time.Millisecond)
	if n := rec.count(); n != 1 {
		t.Errorf("callback ran %d times, want 1", n)
	}
}

func TestWatcher_FolderCreatedLater(t *testing.T) {
	root := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := newRecorder()
	go Watch(ctx, root, []string{"packages/p1/adr"}, 50*time.Millisecond, watcherLogger(), rec.fn)
	time.Sleep(100 * time.Millisecond)

	folder := filepath.Join(root, "packages", "p1", "adr")
	_ = os.MkdirAll(folder, 0o755)
	time.Sleep(200 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(folder, "late.md"), []byte("# Late"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.seen("packages/p1/adr/late.md")
	}, "file in folder created after start not reported")
}

func TestWatcher_RemoveReported(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "adr")
	_ = os.MkdirAll(folder, 0o755)
	_ = os.WriteFile(filepath.Join(folder, "del.md"), []byte("# Delete Me"), 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := newRecorder()
	go Watch(ctx, root, []string{"adr"}, 50*time.Millisecond, watcherLogger(), rec.fn)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(folder, "del.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.seen("adr/del.md")
	}, "removal not reported")
}
