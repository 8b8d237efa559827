package uistate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/arbor-sh/arbor/pkg/outline/logging"
)

// DefaultSaveInterval is the period of the coalesced save loop.
const DefaultSaveInterval = 2 * time.Second

// Saver persists a State to one file. Updates are instant and
// in-memory; a periodic flush writes only when the canonical
// serialization has changed, and an immediate path exists for
// termination-time saves. Writes are atomic (temp file then rename) so
// a crash mid-write cannot corrupt the file.
type Saver struct {
	path     string
	interval time.Duration
	log      *logging.Logger

	mu        sync.Mutex
	current   State
	lastSaved []byte

	stop chan struct{}
	done chan struct{}
}

// NewSaver creates a saver for the given file path.
func NewSaver(path string, interval time.Duration) *Saver {
	if interval <= 0 {
		interval = DefaultSaveInterval
	}
	return &Saver{
		path:     path,
		interval: interval,
		log:      logging.Get("uistate"),
		current:  DefaultState(),
	}
}

// Load reads and validates the persisted state. A missing file yields
// the default state; the result becomes the saver's current state.
func (s *Saver) Load() (State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			state := DefaultState()
			s.Update(state)
			return state, nil
		}
		return State{}, fmt.Errorf("reading ui state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("parsing ui state: %w", err)
	}

	state = state.Validate()
	s.mu.Lock()
	s.current = state
	s.lastSaved = canonical(state)
	s.mu.Unlock()
	return state, nil
}

// Update replaces the in-memory state. It never touches the disk; the
// periodic loop or an explicit flush does.
func (s *Saver) Update(state State) {
	s.mu.Lock()
	s.current = state
	s.mu.Unlock()
}

// SaveNow flushes the current state if it differs from what was last
// written. On I/O failure the in-memory state is retained so the next
// attempt can retry.
func (s *Saver) SaveNow() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := canonical(s.current)
	if s.lastSaved != nil && string(data) == string(s.lastSaved) {
		return nil
	}
	return s.flushLocked(data)
}

// SaveImmediately replaces the state and writes it unconditionally.
// Intended for termination-time saves.
func (s *Saver) SaveImmediately(state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = state
	return s.flushLocked(canonical(state))
}

// flushLocked writes data atomically. Caller holds the lock.
func (s *Saver) flushLocked(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming state file: %w", err)
	}

	s.lastSaved = data
	return nil
}

// Start runs the periodic flush loop until Stop is called.
func (s *Saver) Start() {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.SaveNow(); err != nil {
					s.log.Error("periodic save failed", "path", s.path, "err", err)
				}
			case <-stop:
				return
			}
		}
	}()
}

// Stop ends the periodic loop and performs a final flush.
func (s *Saver) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done

	if err := s.SaveNow(); err != nil {
		s.log.Error("final save failed", "path", s.path, "err", err)
	}
}

// Path returns the state file path.
func (s *Saver) Path() string {
	return s.path
}

// canonical is the serialization used both for the file contents and
// for the content-equality dirty check.
func canonical(state State) []byte {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		// State contains only strings and ints; this cannot happen.
		return nil
	}
	return append(data, '\n')
}
