// # internal/watcher/watcher.go
package watcher

import (
	"crypto/sha256"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"exportfix/internal/shared/observability"
	"exportfix/internal/shared/util"
)

// Watcher observes project directories and reports changed source files in
// debounced batches. Saves that do not alter file content are absorbed by
// content hashing, and batch delivery can be rate limited so editor noise
// never triggers back-to-back runs.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	debounce     time.Duration
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob

	extFilters map[string]bool
	skipTests  bool

	onChange   func([]string)
	callbackMu sync.Mutex

	limiter *util.Limiter

	pending   map[string]time.Time
	pendingMu sync.Mutex
	timer     *time.Timer

	hashes map[string][sha256.Size]byte
	hashMu sync.Mutex
}

// NewWatcher builds a watcher that calls onChange with each debounced batch
// of changed paths. The exclude patterns match base names, the same as
// discovery.
func NewWatcher(debounce time.Duration, excludeDirs, excludeFiles []string, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsw,
		debounce:  debounce,
		onChange:  onChange,
		pending:   make(map[string]time.Time),
		hashes:    make(map[string][sha256.Size]byte),
	}

	for _, pattern := range excludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		w.excludeDirs = append(w.excludeDirs, g)
	}

	for _, pattern := range excludeFiles {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		w.excludeFiles = append(w.excludeFiles, g)
	}

	return w, nil
}

// SetLanguageFilters restricts events to files with the given extensions.
// When skipTests is set, .test and .spec modules are ignored too. Minified
// bundles are always ignored.
func (w *Watcher) SetLanguageFilters(extensions []string, skipTests bool) {
	w.extFilters = make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		w.extFilters[ext] = true
	}
	w.skipTests = skipTests
}

// SetRateLimit caps batch delivery at perSecond batches. Changes arriving
// while over budget stay pending and coalesce into the next allowed batch.
// A non-positive rate disables the cap.
func (w *Watcher) SetRateLimit(perSecond float64) {
	if perSecond <= 0 {
		w.limiter = nil
		return
	}
	w.limiter = util.NewLimiter(perSecond, 1)
}

// Watch registers the given roots recursively and starts the event loop.
func (w *Watcher) Watch(paths []string) error {
	for _, path := range paths {
		if err := w.watchRecursive(path); err != nil {
			return err
		}
	}

	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if w.shouldExcludeDir(path) {
				return filepath.SkipDir
			}
			return w.fsWatcher.Add(path)
		}

		return nil
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

			if event.Op&fsnotify.Create == fsnotify.Create {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if !w.shouldExcludeDir(event.Name) {
						if err := w.watchRecursive(event.Name); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
						} else {
							w.enqueueExistingFiles(event.Name)
						}
					}
					continue
				}
			}

			if w.shouldExcludeFile(event.Name) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if w.contentChanged(event.Name) {
					w.scheduleChange(event.Name)
				}
			} else if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				w.forgetHash(event.Name)
				w.scheduleChange(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

// contentChanged reports whether the file's content differs from the last
// event. Touches and no-op saves fire filesystem events without changing
// bytes; hashing filters those out.
func (w *Watcher) contentChanged(path string) bool {
	content, err := os.ReadFile(path)
	if err != nil {
		// Unreadable mid-write; let the run find out.
		w.forgetHash(path)
		return true
	}

	sum := sha256.Sum256(content)

	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	if prev, ok := w.hashes[path]; ok && prev == sum {
		return false
	}
	w.hashes[path] = sum
	return true
}

func (w *Watcher) forgetHash(path string) {
	w.hashMu.Lock()
	delete(w.hashes, path)
	w.hashMu.Unlock()
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = time.Now()

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		w.flushChanges()
	})
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}

	if w.limiter != nil && !w.limiter.Allow(1) {
		// Over budget: keep the batch pending and retry after another
		// debounce interval so changes coalesce instead of dropping.
		if w.timer != nil {
			w.timer.Stop()
		}
		w.timer = time.AfterFunc(w.debounce, func() {
			w.flushChanges()
		})
		w.pendingMu.Unlock()
		return
	}

	paths := util.SortedStringKeys(w.pending)
	w.pending = make(map[string]time.Time)
	w.pendingMu.Unlock()

	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
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

func (w *Watcher) shouldExcludeFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	if strings.HasSuffix(stem, ".min") {
		return true
	}

	if w.skipTests && (strings.HasSuffix(stem, ".test") || strings.HasSuffix(stem, ".spec")) {
		return true
	}

	if len(w.extFilters) > 0 && !w.extFilters[ext] {
		return true
	}

	for _, g := range w.excludeFiles {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// Close stops the event loop and any pending flush.
func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}

// enqueueExistingFiles schedules files that already exist inside a newly
// created directory, which fsnotify reports only as a single directory
// create when the directory was moved in.
func (w *Watcher) enqueueExistingFiles(root string) {
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if w.shouldExcludeFile(path) {
			return nil
		}
		if w.contentChanged(path) {
			w.scheduleChange(path)
		}
		return nil
	})
}
