// Package view holds the ephemeral per-view state of an outline tree
// and the pure navigation and reorder engines that operate on it.
package view

import "github.com/arbor-sh/arbor/pkg/outline/node"

// CreateRequest carries the parameters of a pending create dialog.
type CreateRequest struct {
	ParentID string
	Type     node.Type
}

// Dialogs tracks the targets of transient dialogs and sheets. A zero
// value means the dialog is closed.
type Dialogs struct {
	Create       *CreateRequest
	DeleteID     string
	DetailsID    string
	TagPickerID  string
	NoteEditorID string
}

// State is the ephemeral UI state of one tree-view instance. It is
// never persisted directly; the uistate package snapshots the parts
// that survive restarts.
type State struct {
	Expanded   map[string]bool
	SelectedID string
	FocusedID  string // non-empty scopes navigation to this subtree
	IsEditing  bool
	Dialogs    Dialogs
}

// NewState returns an empty view state.
func NewState() *State {
	return &State{Expanded: make(map[string]bool)}
}

// IsExpanded reports whether the node is expanded.
func (s *State) IsExpanded(id string) bool {
	return s.Expanded[id]
}

// Expand marks the node expanded.
func (s *State) Expand(id string) {
	s.Expanded[id] = true
}

// Collapse marks the node collapsed.
func (s *State) Collapse(id string) {
	delete(s.Expanded, id)
}

// InFocusMode reports whether navigation is scoped to a subtree.
func (s *State) InFocusMode() bool {
	return s.FocusedID != ""
}
