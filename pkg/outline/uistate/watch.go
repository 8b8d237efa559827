package uistate

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/arbor-sh/arbor/pkg/outline/logging"
)

// Watcher observes a shared state file and reports external rewrites,
// so one window can pick up another window's tabs. The parent directory
// is watched because atomic saves replace the file by rename.
type Watcher struct {
	fsw  *fsnotify.Watcher
	path string
	log  *logging.Logger
	done chan struct{}
}

// Watch starts watching the state file at path. onChange receives the
// validated state after every external rewrite.
func Watch(path string, onChange func(State)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:  fsw,
		path: path,
		log:  logging.Get("uistate"),
		done: make(chan struct{}),
	}

	go w.loop(onChange)
	return w, nil
}

func (w *Watcher) loop(onChange func(State)) {
	defer close(w.done)
	base := filepath.Base(w.path)

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			state, err := readState(w.path)
			if err != nil {
				w.log.Warn("reloading ui state failed", "path", w.path, "err", err)
				continue
			}
			onChange(state)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("ui state watch error", "err", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}

func readState(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, err
	}
	return state.Validate(), nil
}
