package scripting

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changed .lua files under a scripts root. Events are
// debounced per file; the game loop drains Events and calls Engine.Reload.
type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

const debounce = 100 * time.Millisecond

// NewWatcher watches root and every directory below it.
func NewWatcher(root string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if _, err := addTree(w, root); err != nil {
		_ = w.Close()
		return nil, err
	}

	watcher := &Watcher{
		watcher: w,
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops the watcher. Events and Errors are closed once the
// forwarding goroutine has exited.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run() {
	defer func() {
		close(w.Events)
		close(w.Errors)
		close(w.done)
	}()
	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					// Scripts may land in the new directory before it is watched.
					scripts, err := addTree(w.watcher, event.Name)
					if err != nil {
						w.report(err)
					}
					for _, path := range scripts {
						if !w.emit(path, last) {
							return
						}
					}
					continue
				}
			}
			if !isScriptFile(event.Name) {
				continue
			}
			if !w.emit(event.Name, last) {
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.report(err)
		case <-w.closeCh:
			return
		}
	}
}

// emit forwards a changed script unless it fired within the debounce window.
// It returns false once the watcher is closing.
func (w *Watcher) emit(path string, last map[string]time.Time) bool {
	now := time.Now()
	if t, ok := last[path]; ok && now.Sub(t) < debounce {
		return true
	}
	last[path] = now
	select {
	case w.Events <- path:
		return true
	case <-w.closeCh:
		return false
	}
}

func (w *Watcher) report(err error) {
	select {
	case w.Errors <- err:
	default:
	}
}

// addTree watches root and every directory below it, returning the script
// files already present.
func addTree(w *fsnotify.Watcher, root string) ([]string, error) {
	var scripts []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		if isScriptFile(path) {
			scripts = append(scripts, path)
		}
		return nil
	})
	return scripts, err
}

func isScriptFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".lua")
}
