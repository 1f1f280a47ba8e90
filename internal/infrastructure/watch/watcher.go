package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultSettle = 500 * time.Millisecond

// DataWatcher observes the schedule database and config file for writes
// made outside the running process and fires onChange when they settle.
// The typical callback invalidates the conflict scan cache.
type DataWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	settle   time.Duration
	onChange func(path string)
}

// NewDataWatcher watches the given files. The settle window bounds how
// often onChange can fire; zero uses a default.
func NewDataWatcher(files []string, settle time.Duration, onChange func(path string)) (*DataWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if settle == 0 {
		settle = defaultSettle
	}

	w := &DataWatcher{
		watcher:  fw,
		files:    make(map[string]bool, len(files)),
		settle:   settle,
		onChange: onChange,
	}

	// Watch parent directories so the watch survives atomic
	// rename-over-replace writes of the files themselves.
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("resolve %s: %w", f, err)
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run blocks processing events until the context is cancelled.
func (w *DataWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var changed string
	debouncer := NewDebouncer(w.settle, func() {
		if w.onChange != nil {
			w.onChange(changed)
		}
	})
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			changed = event.Name
			debouncer.Trigger()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func (w *DataWatcher) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	if w.files[abs] {
		return true
	}
	// SQLite writes land in sidecar journal files first.
	base := abs
	for _, suffix := range []string{"-wal", "-shm", "-journal"} {
		if len(base) > len(suffix) && base[len(base)-len(suffix):] == suffix {
			return w.files[base[:len(base)-len(suffix)]]
		}
	}
	return false
}
