package runner

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for events to settle before
// extracting a batch.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches the root directory and extracts created or modified source
// files after the initial run. Each batch is a separate run of the driver.
type Watcher struct {
	driver       *Driver
	rootDir      string
	watcher      *fsnotify.Watcher
	debounceTime time.Duration
	onBatch      func(*Stats, error)
	stopCh       chan struct{}
	doneCh       chan struct{}
	stopOnce     sync.Once
}

// NewWatcher creates a watcher over the driver's root directory. onBatch, if
// non-nil, receives the result of every extracted batch.
func NewWatcher(driver *Driver, debounce time.Duration, onBatch func(*Stats, error)) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		driver:       driver,
		rootDir:      driver.cfg.RootDir,
		watcher:      watcher,
		debounceTime: debounce,
		onBatch:      onBatch,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}

	if err := w.addDirectoriesRecursively(w.rootDir); err != nil {
		watcher.Close()
		return nil, err
	}

	return w, nil
}

// Start begins watching for file changes.
func (w *Watcher) Start(ctx context.Context) {
	go w.watch(ctx)
}

// Stop stops the watcher and waits for an in-flight batch to finish.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		<-w.doneCh
		w.watcher.Close()
	})
}

// Done is closed when the event loop exits.
func (w *Watcher) Done() <-chan struct{} {
	return w.doneCh
}

func (w *Watcher) watch(ctx context.Context) {
	defer close(w.doneCh)

	var debounceTimer *time.Timer
	flushCh := make(chan struct{}, 1)
	changed := make(map[string]bool)

	stopTimer := func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			return

		case <-w.stopCh:
			stopTimer()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if isNewDirectory(event) {
				if w.driver.discovery.IgnoresDir(event.Name) {
					continue
				}
				if err := w.addDirectoriesRecursively(event.Name); err != nil {
					log.Printf("Warning: failed to watch new directory %s: %v\n", event.Name, err)
				}
				// Files moved in with the directory produce no events of their own.
				if w.queueExistingFiles(event.Name, changed) == 0 {
					continue
				}
			} else {
				if !w.shouldProcessEvent(event) {
					continue
				}
				changed[event.Name] = true
			}

			stopTimer()
			debounceTimer = time.AfterFunc(w.debounceTime, func() {
				select {
				case flushCh <- struct{}{}:
				default:
				}
			})

		case <-flushCh:
			w.extractBatch(ctx, changed)
			changed = make(map[string]bool)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v\n", err)
		}
	}
}

// extractBatch runs the driver over the changed files that still exist.
func (w *Watcher) extractBatch(ctx context.Context, changed map[string]bool) {
	files := make([]string, 0, len(changed))
	for path := range changed {
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			files = append(files, path)
		}
	}
	if len(files) == 0 {
		return
	}
	sort.Strings(files)

	stats, err := w.driver.ProcessFiles(ctx, files)
	if w.onBatch != nil {
		w.onBatch(stats, err)
	}
}

// shouldProcessEvent reports whether an event names a candidate file that now
// has content to extract.
func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	return w.driver.discovery.Matches(event.Name)
}

func isNewDirectory(event fsnotify.Event) bool {
	if event.Op&fsnotify.Create == 0 {
		return false
	}
	info, err := os.Stat(event.Name)
	return err == nil && info.IsDir()
}

// queueExistingFiles marks every candidate file under dir as changed and
// returns how many were found.
func (w *Watcher) queueExistingFiles(dir string, changed map[string]bool) int {
	found := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if w.driver.discovery.IgnoresDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && w.driver.discovery.Matches(path) {
			changed[path] = true
			found++
		}
		return nil
	})
	if err != nil {
		log.Printf("Warning: failed to scan new directory %s: %v\n", dir, err)
	}
	return found
}

// addDirectoriesRecursively adds every directory that is not ignored.
func (w *Watcher) addDirectoriesRecursively(rootPath string) error {
	return filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Printf("Warning: error accessing %s: %v\n", path, err)
			return nil
		}

		if !info.IsDir() {
			return nil
		}

		if w.driver.discovery.IgnoresDir(path) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			log.Printf("Warning: failed to watch directory %s: %v\n", path, err)
		}
		return nil
	})
}
