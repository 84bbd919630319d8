// Package watch maps file system changes to the steps that must re-run.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/fsutil"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
)

// DefaultDebounce is how long the watcher waits for further events before
// acting on a burst of changes.
const DefaultDebounce = 300 * time.Millisecond

// Rule binds file patterns to tasks. A rule without tasks only reloads.
type Rule struct {
	Name     string
	Patterns []string // slash separated, relative to the watcher root
	Tasks    []string
}

// Change is a debounced batch of matched changes.
type Change struct {
	Paths []string // root-relative, sorted
	Tasks []string // in rule order, without duplicates
}

// Watcher watches directories below Root and reports matched changes.
type Watcher struct {
	Root     string
	Dirs     []string // root-relative directories to watch recursively
	Rules    []Rule
	Debounce time.Duration

	// OnChange is called serially for every debounced batch.
	OnChange func(ctx context.Context, c Change)
}

// Match returns the rules a root-relative path matches.
func (w *Watcher) Match(rel string) []Rule {
	rel = filepath.ToSlash(rel)
	var out []Rule
	for _, r := range w.Rules {
		for _, p := range r.Patterns {
			if fsutil.Match(p, rel) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Plan turns a set of changed paths into a Change. It reports false when
// no path matches any rule.
func (w *Watcher) Plan(paths []string) (Change, bool) {
	var c Change
	matched := false
	for _, r := range w.Rules {
		hit := false
		for _, p := range paths {
			if slices.ContainsFunc(r.Patterns, func(pat string) bool { return fsutil.Match(pat, p) }) {
				hit = true
				break
			}
		}
		if !hit {
			continue
		}
		matched = true
		for _, task := range r.Tasks {
			if !slices.Contains(c.Tasks, task) {
				c.Tasks = append(c.Tasks, task)
			}
		}
	}
	c.Paths = slices.Clone(paths)
	slices.Sort(c.Paths)
	return c, matched
}

// Run watches until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return ferrors.ServerError("create file watcher").WithCause(err).Build()
	}
	defer func() { _ = fw.Close() }()

	for _, d := range w.Dirs {
		if err := addDirsRecursive(fw, filepath.Join(w.Root, d)); err != nil {
			return err
		}
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	pending := map[string]struct{}{}
	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	slog.Info("Watching for changes", slog.Any("dirs", w.Dirs))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if shouldIgnoreEvent(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = addDirsRecursive(fw, ev.Name)
				}
			}
			rel, err := filepath.Rel(w.Root, ev.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if len(w.Match(rel)) == 0 {
				continue
			}
			slog.Debug("File change detected", logfields.Path(rel), slog.String("op", ev.Op.String()))
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			if c, ok := w.Plan(paths); ok && w.OnChange != nil {
				w.OnChange(ctx, c)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for hidden, editor swap and lock files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
