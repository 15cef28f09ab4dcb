package index

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period Watch waits for before reporting.
const DefaultDebounce = 200 * time.Millisecond

// ChangeFunc is called after a burst of file changes has settled. paths are
// the changed markdown files relative to the project root, slash-separated
// and sorted.
type ChangeFunc func(ctx context.Context, paths []string)

// Watch starts an fsnotify watcher on the ADR folders under root and calls fn
// once changes have been quiet for debounce, until ctx is cancelled.
//
// Folders that do not exist yet are picked up when they are created: the
// nearest existing ancestor is watched until then. Hidden files, such as the
// temporary files of atomic writes, are ignored.
func Watch(ctx context.Context, root string, folders []string, debounce time.Duration, logger *slog.Logger, fn ChangeFunc) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	targets := make(map[string]struct{}, len(folders))
	for _, f := range folders {
		targets[filepath.Join(root, filepath.FromSlash(f))] = struct{}{}
	}
	for dir := range targets {
		if err := watchFolder(w, dir, root); err != nil {
			return err
		}
	}

	logger.Info("watcher: started", slog.String("root", root), slog.Int("folders", len(targets)))

	var timer *time.Timer
	var timerCh <-chan time.Time
	pending := make(map[string]struct{})

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			logger.Debug("watcher: changes settled", slog.Int("files", len(paths)))
			if fn != nil {
				fn(ctx, paths)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			absPath := ev.Name

			// A watched folder (or one of its ancestors) appeared.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if n := addCreatedDir(w, absPath, targets, logger); n > 0 {
						collectExisting(absPath, root, targets, pending)
						schedule()
					}
					continue
				}
			}

			if !relevant(absPath, targets) {
				continue
			}
			rel, relErr := filepath.Rel(root, absPath)
			if relErr != nil {
				continue
			}
			logger.Debug("watcher: change", slog.String("path", rel), slog.String("op", ev.Op.String()))
			pending[filepath.ToSlash(rel)] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// relevant reports whether p is a visible markdown file directly inside one
// of the target folders.
func relevant(p string, targets map[string]struct{}) bool {
	name := filepath.Base(p)
	if !strings.HasSuffix(name, ".md") || strings.HasPrefix(name, ".") {
		return false
	}
	_, ok := targets[filepath.Dir(p)]
	return ok
}

// watchFolder watches dir, or its nearest existing ancestor inside root when
// dir does not exist yet.
func watchFolder(w *fsnotify.Watcher, dir, root string) error {
	for {
		err := w.Add(dir)
		if err == nil {
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		parent := filepath.Dir(dir)
		if parent == dir || !strings.HasPrefix(dir, root) {
			return err
		}
		dir = parent
	}
}

// addCreatedDir watches a newly created directory and any subdirectories
// that lead to target folders. It returns how many target folders became
// watched.
func addCreatedDir(w *fsnotify.Watcher, dir string, targets map[string]struct{}, logger *slog.Logger) int {
	found := 0
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if !leadsToTarget(p, targets) {
			return filepath.SkipDir
		}
		if addErr := w.Add(p); addErr != nil {
			logger.Warn("watcher: add dir failed", slog.String("path", p), slog.String("error", addErr.Error()))
			return nil
		}
		if _, ok := targets[p]; ok {
			found++
			logger.Debug("watcher: watching new folder", slog.String("path", p))
		}
		return nil
	})
	return found
}

func leadsToTarget(dir string, targets map[string]struct{}) bool {
	for t := range targets {
		if t == dir || strings.HasPrefix(t, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// collectExisting records markdown files already present in target folders
// under a newly created directory.
func collectExisting(dir, root string, targets map[string]struct{}, pending map[string]struct{}) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !relevant(p, targets) {
			return nil
		}
		if rel, relErr := filepath.Rel(root, p); relErr == nil {
			pending[filepath.ToSlash(rel)] = struct{}{}
		}
		return nil
	})
}
