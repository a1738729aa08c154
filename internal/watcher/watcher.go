// # internal/watcher/watcher.go
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"markprep/internal/core/config"
	"markprep/internal/shared/observability"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// Watcher reports debounced batches of changed component files.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	extensions   map[string]bool
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
	batches      *debouncer
}

// debouncer collects paths until quiet has passed since the last add, then
// hands the sorted set to flush. Flushes never overlap.
type debouncer struct {
	quiet time.Duration
	flush func([]string)

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer

	flushMu sync.Mutex
}

func (d *debouncer) add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending[path] = struct{}{}
	if d.timer == nil {
		d.timer = time.AfterFunc(d.quiet, d.fire)
		return
	}
	d.timer.Reset(d.quiet)
}

func (d *debouncer) fire() {
	d.mu.Lock()
	paths := make([]string, 0, len(d.pending))
	for path := range d.pending {
		paths = append(paths, path)
	}
	clear(d.pending)
	d.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)

	d.flushMu.Lock()
	defer d.flushMu.Unlock()
	d.flush(paths)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

// NewWatcher compiles the exclude patterns of cfg. onChange receives sorted
// paths as found under the watched roots, never concurrently.
func NewWatcher(cfg config.Watch, onChange func([]string)) (*Watcher, error) {
	w := &Watcher{
		extensions: make(map[string]bool, len(cfg.Extensions)),
		batches: &debouncer{
			quiet:   cfg.Debounce,
			flush:   onChange,
			pending: make(map[string]struct{}),
		},
	}
	for _, ext := range cfg.Extensions {
		w.extensions[strings.ToLower(ext)] = true
	}

	var err error
	if w.excludeDirs, err = compileGlobs(cfg.ExcludeDirs); err != nil {
		return nil, err
	}
	if w.excludeFiles, err = compileGlobs(cfg.ExcludeFiles); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.fsWatcher = fsw
	return w, nil
}

// Watch adds every root recursively and starts delivering events. A file root
// watches its directory.
func (w *Watcher) Watch(roots []string) error {
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			if err := w.fsWatcher.Add(filepath.Dir(root)); err != nil {
				return err
			}
			continue
		}
		if err := w.watchRecursive(root); err != nil {
			return err
		}
	}

	go w.run()
	return nil
}

// Scan lists the accepted files under roots, honoring the exclusions.
func (w *Watcher) Scan(roots []string) ([]string, error) {
	var files []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && w.shouldExcludeDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if w.accepts(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.shouldExcludeDir(path) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()
			w.handle(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addDir(event.Name)
			return
		}
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	if w.accepts(event.Name) {
		w.batches.add(event.Name)
	}
}

// addDir starts watching a directory created after Watch and queues the
// files that appeared in it before the watch was in place.
func (w *Watcher) addDir(dir string) {
	if w.shouldExcludeDir(dir) {
		return
	}
	if err := w.watchRecursive(dir); err != nil {
		slog.Warn("failed to watch new directory", "path", dir, "error", err)
		return
	}
	files, err := w.Scan([]string{dir})
	if err != nil {
		slog.Warn("failed to scan new directory", "path", dir, "error", err)
	}
	for _, f := range files {
		w.batches.add(f)
	}
}

func (w *Watcher) shouldExcludeDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range w.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// accepts reports whether path has a watched extension and is not excluded.
func (w *Watcher) accepts(path string) bool {
	if len(w.extensions) > 0 && !w.extensions[strings.ToLower(filepath.Ext(path))] {
		return false
	}
	base := filepath.Base(path)
	for _, g := range w.excludeFiles {
		if g.Match(base) {
			return false
		}
	}
	return true
}

func (w *Watcher) Close() error {
	w.batches.stop()
	return w.fsWatcher.Close()
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}
