// Package uistate persists per-window view state (tabs, focus) across
// process restarts. It owns only ephemeral UI state; authoritative node
// data never passes through here.
package uistate

import "github.com/google/uuid"

// SchemaVersion is the version written to new state files. Files with
// newer versions are loaded permissively, without migration.
const SchemaVersion = 1

// Tab is one persisted tab: identity, display title, and the focus
// root to restore, if any.
type Tab struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	FocusedNodeID string `json:"focusedNodeId,omitempty"`
}

// State is the consumer-facing snapshot written to disk, one per
// window in multi-window deployments or one shared file otherwise.
type State struct {
	Tabs    []Tab `json:"tabs"`
	Version int   `json:"version"`
}

// DefaultState returns a state with a single fresh tab.
func DefaultState() State {
	return State{
		Tabs:    []Tab{{ID: uuid.New().String(), Title: "Home"}},
		Version: SchemaVersion,
	}
}

// Validate normalizes a loaded state: duplicate tab ids are dropped
// keeping the first occurrence, an empty tab list is replaced with one
// default tab, and unknown future versions are kept as-is.
func (s State) Validate() State {
	seen := make(map[string]bool, len(s.Tabs))
	tabs := make([]Tab, 0, len(s.Tabs))
	for _, tab := range s.Tabs {
		if tab.ID == "" || seen[tab.ID] {
			continue
		}
		seen[tab.ID] = true
		tabs = append(tabs, tab)
	}

	if len(tabs) == 0 {
		tabs = DefaultState().Tabs
	}
	if s.Version == 0 {
		s.Version = SchemaVersion
	}

	s.Tabs = tabs
	return s
}
