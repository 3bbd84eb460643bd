// Package watch monitors a Calibre library for catalog changes so watch mode
// can re-run sync passes when the metadata database is rewritten.
package watch

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/bjpolzin/calibre2yac/pkg/syncer/catalog"
)

// LibraryWatcher watches the library root and emits a signal whenever the
// catalog database file is created, written, or renamed into place. Calibre
// rewrites metadata.db via temp-file swaps, so renames count as changes.
type LibraryWatcher struct {
	watcher *fsnotify.Watcher
	changes chan struct{}
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// NewLibraryWatcher creates a watcher on the library root and starts its
// event loop. Stop with Close.
func NewLibraryWatcher(libraryPath string) (*LibraryWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	// Watch the directory, not the file: editors and Calibre replace the db
	// file, which would orphan a direct file watch.
	if err := fw.Add(libraryPath); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch library directory %s: %w", libraryPath, err)
	}

	lw := &LibraryWatcher{
		watcher: fw,
		changes: make(chan struct{}, 16),
		errors:  make(chan error, 4),
		done:    make(chan struct{}),
		running: true,
	}
	lw.wg.Add(1)
	go lw.processEvents()
	return lw, nil
}

// Changes returns the channel signalling catalog database changes.
// It is closed when the watcher is closed.
func (lw *LibraryWatcher) Changes() <-chan struct{} {
	return lw.changes
}

// Errors returns the channel carrying watcher errors.
func (lw *LibraryWatcher) Errors() <-chan error {
	return lw.errors
}

// Close stops the watcher and blocks until the event loop has exited.
func (lw *LibraryWatcher) Close() error {
	lw.mu.Lock()
	if !lw.running {
		lw.mu.Unlock()
		return nil
	}
	lw.running = false
	lw.mu.Unlock()

	close(lw.done)
	err := lw.watcher.Close()
	lw.wg.Wait()
	close(lw.changes)
	close(lw.errors)
	if err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

func (lw *LibraryWatcher) processEvents() {
	defer lw.wg.Done()
	for {
		select {
		case <-lw.done:
			return

		case event, ok := <-lw.watcher.Events:
			if !ok {
				return
			}
			if !isCatalogChange(event) {
				continue
			}
			select {
			case lw.changes <- struct{}{}:
			case <-lw.done:
				return
			default:
				// A change signal is already pending; coalesce.
			}

		case err, ok := <-lw.watcher.Errors:
			if !ok {
				return
			}
			select {
			case lw.errors <- err:
			case <-lw.done:
				return
			default:
			}
		}
	}
}

// isCatalogChange reports whether the event affects the catalog database.
func isCatalogChange(event fsnotify.Event) bool {
	if filepath.Base(event.Name) != catalog.MetadataDBName {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename)
}
