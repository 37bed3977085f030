package reload

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/charmbracelet/log"
)

const debounce = 100 * time.Millisecond

// Watcher monitors the project source tree and notifies the hub on change.
// Generated output directories are skipped so builds never retrigger
// themselves.
type Watcher struct {
	hub     *Hub
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Watch recursively watches root, ignoring dot directories and
// node_modules.
func Watch(root string, hub *Hub, logger *log.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if name != "." && (strings.HasPrefix(name, ".") || name == "node_modules") {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
	if err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{hub: hub, watcher: fw, done: make(chan struct{})}
	go w.run(logger)
	return w, nil
}

func (w *Watcher) run(logger *log.Logger) {
	var timer *time.Timer
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("source changed", "path", event.Name, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, w.hub.Notify)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
