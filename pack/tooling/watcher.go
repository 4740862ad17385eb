package tooling

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/sendarcade/alphapack/kit/colorlog"
)

// DefaultDebounce batches editor save bursts into one rebuild.
const DefaultDebounce = 100 * time.Millisecond

// Ignore patterns, anchored to the project root. These are glob patterns,
// not path segments.
const (
	globGit         = "**/.git"
	globNodeModules = "**/node_modules"
)

// WatchDirs are the project-relative directories watched for changes.
var WatchDirs = []string{"src", "static"}

// Watcher watches a project's sources and reports batches of changes.
type Watcher struct {
	log     *slog.Logger
	fsWatch *fsnotify.Watcher

	watchedDirs sync.Map

	// Patterns stored as absolute paths with forward slashes
	ignoredDirs []string
	absRoot     string
}

// NewWatcher creates a watcher rooted at projectDir. outDirs are ignored
// along with version control and dependency directories.
func NewWatcher(projectDir string, outDirs []string, log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = colorlog.New("alphapack")
	}

	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{log: log, fsWatch: fsWatch}
	w.absRoot = w.norm(projectDir)
	w.ignoredDirs = []string{
		w.absRoot + "/" + globGit,
		w.absRoot + "/" + globNodeModules,
	}
	for _, d := range outDirs {
		nd := w.norm(d)
		w.ignoredDirs = append(w.ignoredDirs, nd, nd+"/**")
	}
	return w, nil
}

// norm converts a path to absolute with forward slashes for consistent matching
func (w *Watcher) norm(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(abs)
}

func (w *Watcher) Close() error {
	return w.fsWatch.Close()
}

// AddDir adds a directory and its subdirectories to the watcher
func (w *Watcher) AddDir(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}

		if w.IsIgnored(path) {
			return filepath.SkipDir
		}

		absPath := w.norm(path)
		if _, exists := w.watchedDirs.Load(absPath); exists {
			return nil
		}

		if err := w.fsWatch.Add(path); err != nil {
			return err
		}

		w.watchedDirs.Store(absPath, true)
		return nil
	})
}

// AddDefaultDirs watches every existing entry of WatchDirs.
func (w *Watcher) AddDefaultDirs() error {
	for _, d := range WatchDirs {
		p := filepath.Join(filepath.FromSlash(w.absRoot), d)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := w.AddDir(p); err != nil {
			return err
		}
	}
	return nil
}

// RemoveStale removes watches for directories that no longer exist
func (w *Watcher) RemoveStale() {
	w.watchedDirs.Range(func(key, _ any) bool {
		path := key.(string)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			w.fsWatch.Remove(path)
			w.watchedDirs.Delete(path)
		}
		return true
	})
}

// IsIgnored reports whether path, or a directory containing it, matches
// an ignored pattern.
func (w *Watcher) IsIgnored(path string) bool {
	np := w.norm(path)
	for _, pattern := range w.ignoredDirs {
		matches, err := doublestar.Match(pattern, np)
		if err != nil {
			w.log.Error("Pattern match error", "pattern", pattern, "path", np, "error", err)
			continue
		}
		if matches {
			return true
		}
		if ok, _ := doublestar.Match(pattern+"/**", np); ok {
			return true
		}
	}
	return false
}

// Run delivers debounced batches of relevant events to onChange until ctx
// is done. onChange calls never overlap, and Run returns only after an
// in-flight call has finished.
func (w *Watcher) Run(ctx context.Context, debounce time.Duration, onChange func([]fsnotify.Event)) error {
	ctx, cancel := context.WithCancel(ctx)
	b := newBatcher(debounce, func(events []fsnotify.Event) {
		w.RemoveStale()
		onChange(events)
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-w.fsWatch.Events:
			if !ok {
				return nil
			}
			if w.IsIgnored(evt.Name) || isNonEmptyChmodOnly(evt) {
				continue
			}
			if evt.Has(fsnotify.Create) {
				if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
					if err := w.AddDir(evt.Name); err != nil {
						w.log.Warn("watch new dir", "dir", evt.Name, "error", err)
					}
				}
			}
			select {
			case b.in <- evt:
			case <-ctx.Done():
				return ctx.Err()
			}
		case err, ok := <-w.fsWatch.Errors:
			if !ok {
				return nil
			}
			w.log.Error("Watcher error", "error", err)
		}
	}
}

// batcher groups events that arrive within window of each other. A batch
// that becomes ready while onChange is still running is held and delivered,
// merged with anything newer, once that call returns.
type batcher struct {
	window   time.Duration
	onChange func([]fsnotify.Event)
	in       chan fsnotify.Event
}

func newBatcher(window time.Duration, onChange func([]fsnotify.Event)) *batcher {
	return &batcher{window: window, onChange: onChange, in: make(chan fsnotify.Event)}
}

// run owns all batching state. Pending events are dropped when ctx ends.
func (b *batcher) run(ctx context.Context) {
	var (
		pending []fsnotify.Event
		timer   *time.Timer
		quiet   <-chan time.Time
		busy    <-chan struct{}
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
		if busy != nil {
			<-busy
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-b.in:
			pending = append(pending, evt)
			if timer == nil {
				timer = time.NewTimer(b.window)
			} else {
				timer.Reset(b.window)
			}
			quiet = timer.C
		case <-quiet:
			quiet = nil
			if busy == nil {
				busy = b.start(pending)
				pending = nil
			}
		case <-busy:
			busy = nil
			if quiet == nil && len(pending) > 0 {
				busy = b.start(pending)
				pending = nil
			}
		}
	}
}

func (b *batcher) start(events []fsnotify.Event) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.onChange(events)
	}()
	return done
}

// isNonEmptyChmodOnly reports a chmod-only event on a non-empty file.
// Chmod on an empty file may be part of an editor's create sequence.
func isNonEmptyChmodOnly(evt fsnotify.Event) bool {
	if evt.Has(fsnotify.Write) || evt.Has(fsnotify.Create) || evt.Has(fsnotify.Remove) ||
		evt.Has(fsnotify.Rename) {
		return false
	}

	info, err := os.Stat(evt.Name)
	if err != nil {
		return false
	}

	return info.Size() > 0
}
