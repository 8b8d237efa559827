package view

import (
	"github.com/arbor-sh/arbor/pkg/outline/index"
	"github.com/arbor-sh/arbor/pkg/outline/node"
)

// Navigator resolves directional movement against the tree index and a
// view state. It is purely in-memory; the one side effect it cannot
// perform itself, smart-folder rule execution, is returned to the
// caller as a pending node.
type Navigator struct {
	ix    *index.Index
	state *State
}

// NewNavigator creates a navigator over an index and view state.
func NewNavigator(ix *index.Index, state *State) *Navigator {
	return &Navigator{ix: ix, state: state}
}

// Visible returns the nodes in display order: a depth-first walk from
// the focused node's children (focus mode) or the root set, descending
// only into expanded nodes.
func (nv *Navigator) Visible() []node.Node {
	var start []node.Node
	if nv.state.InFocusMode() {
		start = nv.ix.Children(nv.state.FocusedID)
	} else {
		start = nv.ix.Roots()
	}

	var visible []node.Node
	for _, n := range start {
		nv.appendVisible(n, &visible)
	}
	return visible
}

func (nv *Navigator) appendVisible(n node.Node, out *[]node.Node) {
	*out = append(*out, n)
	if !nv.state.IsExpanded(n.ID) {
		return
	}
	for _, child := range nv.ix.Children(n.ID) {
		nv.appendVisible(child, out)
	}
}

// MoveDown selects the next visible node. With no selection it selects
// the first visible node.
func (nv *Navigator) MoveDown() {
	if nv.state.IsEditing {
		return
	}
	visible := nv.Visible()
	if len(visible) == 0 {
		return
	}
	idx := indexOf(visible, nv.state.SelectedID)
	if idx < 0 {
		nv.state.SelectedID = visible[0].ID
		return
	}
	if idx+1 < len(visible) {
		nv.state.SelectedID = visible[idx+1].ID
	}
}

// MoveUp selects the previous visible node.
func (nv *Navigator) MoveUp() {
	if nv.state.IsEditing {
		return
	}
	visible := nv.Visible()
	idx := indexOf(visible, nv.state.SelectedID)
	if idx > 0 {
		nv.state.SelectedID = visible[idx-1].ID
	}
}

// MoveRight expands a collapsed node, or moves focus into an expanded
// one. When the selected node is a collapsed smart folder it is
// returned so the caller can route it through rule execution, which
// marks it expanded on the caller's side; nothing is changed here.
func (nv *Navigator) MoveRight() *node.Node {
	if nv.state.IsEditing {
		return nil
	}
	current, ok := nv.ix.Node(nv.state.SelectedID)
	if !ok {
		return nil
	}

	if !nv.state.IsExpanded(current.ID) {
		if current.Type == node.TypeSmartFolder {
			return &current
		}
		if len(nv.ix.Children(current.ID)) > 0 {
			nv.state.Expand(current.ID)
		}
		return nil
	}

	// Already expanded: focus into it. Selection follows the focus root.
	if len(nv.ix.Children(current.ID)) > 0 {
		nv.state.FocusedID = current.ID
		nv.state.SelectedID = current.ID
	}
	return nil
}

// MoveLeft collapses the selected node; on an already-collapsed focus
// root it moves focus up, exiting focus mode at a true root; otherwise
// it selects the parent. Leftward movement never escapes above the
// focused subtree implicitly.
func (nv *Navigator) MoveLeft() {
	if nv.state.IsEditing {
		return
	}
	current, ok := nv.ix.Node(nv.state.SelectedID)
	if !ok {
		return
	}

	if nv.state.IsExpanded(current.ID) {
		nv.state.Collapse(current.ID)
		return
	}

	if current.ID == nv.state.FocusedID {
		if current.IsRoot() {
			nv.state.FocusedID = ""
			return
		}
		nv.state.FocusedID = current.ParentID
		nv.state.SelectedID = current.ParentID
		return
	}

	if current.ParentID != "" {
		nv.state.SelectedID = current.ParentID
	}
}

// ExitFocus leaves focus mode. This is the only way selection scope
// widens past the focused subtree.
func (nv *Navigator) ExitFocus() {
	nv.state.FocusedID = ""
}

func indexOf(nodes []node.Node, id string) int {
	if id == "" {
		return -1
	}
	for i, n := range nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}
