package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/arbor-sh/arbor/pkg/outline/index"
	"github.com/arbor-sh/arbor/pkg/outline/node"
	"github.com/arbor-sh/arbor/pkg/outline/view"
)

// Outline icons using Unicode symbols.
const (
	iconExpanded    = "▼" // Black down-pointing triangle
	iconCollapsed   = "▶" // Black right-pointing triangle
	iconLeaf        = "·" // Middle dot
	iconTaskOpen    = "[ ]"
	iconTaskDone    = "[x]"
	iconNote        = "✎" // Pencil
	iconTemplate    = "❖" // Diamond with inset
	iconSmartFolder = "◈" // Diamond containing small diamond
)

// TreeView renders the visible slice of the outline with per-type
// icons, indentation, and a scroll window around the selection.
type TreeView struct {
	ix     *index.Index
	state  *view.State
	offset int
}

// NewTreeView creates a tree view over the shared index and view state.
func NewTreeView(ix *index.Index, state *view.State) *TreeView {
	return &TreeView{ix: ix, state: state}
}

// Render draws the visible nodes into a box of the given dimensions.
func (tv *TreeView) Render(visible []node.Node, width, height int) string {
	if len(visible) == 0 {
		return mutedTextStyle.Render("  (empty outline, press 'a' to add a node)")
	}

	cursor := 0
	for i, n := range visible {
		if n.ID == tv.state.SelectedID {
			cursor = i
			break
		}
	}
	tv.ensureVisible(cursor, height)

	var b strings.Builder
	end := tv.offset + height
	if end > len(visible) {
		end = len(visible)
	}
	for i := tv.offset; i < end; i++ {
		b.WriteString(tv.renderLine(visible[i], width))
		b.WriteString("\n")
	}
	return b.String()
}

// ensureVisible adjusts the scroll offset to keep the cursor on screen.
func (tv *TreeView) ensureVisible(cursor, height int) {
	if height < 1 {
		height = 1
	}
	if cursor < tv.offset {
		tv.offset = cursor
	} else if cursor >= tv.offset+height {
		tv.offset = cursor - height + 1
	}
	if tv.offset < 0 {
		tv.offset = 0
	}
}

// renderLine draws one node with indentation relative to the focus
// root, a type icon, the title, and trailing metadata.
func (tv *TreeView) renderLine(n node.Node, width int) string {
	indent := strings.Repeat("  ", tv.depth(n))
	line := fmt.Sprintf("%s%s %s%s", indent, tv.icon(n), n.Title, tv.meta(n))

	if len(line) > width && width > 1 {
		line = line[:width-1] + "…"
	}

	switch {
	case n.ID == tv.state.SelectedID:
		return selectedItemStyle.Render(line)
	case n.Completed():
		return doneItemStyle.Render(line)
	default:
		return normalItemStyle.Render(line)
	}
}

// depth counts ancestors below the focus root.
func (tv *TreeView) depth(n node.Node) int {
	ancestors := tv.ix.Ancestors(n.ID)
	if !tv.state.InFocusMode() {
		return len(ancestors)
	}
	for i, id := range ancestors {
		if id == tv.state.FocusedID {
			return i
		}
	}
	return len(ancestors)
}

func (tv *TreeView) icon(n node.Node) string {
	if task, ok := n.Task(); ok {
		if task.Status == node.StatusDone {
			return checkedStyle.Render(iconTaskDone)
		}
		return iconTaskOpen
	}

	switch n.Type {
	case node.TypeNote:
		return iconNote
	case node.TypeTemplate:
		return iconTemplate
	case node.TypeSmartFolder:
		return iconSmartFolder
	}

	if len(tv.ix.Children(n.ID)) == 0 {
		return iconLeaf
	}
	if tv.state.IsExpanded(n.ID) {
		return iconExpanded
	}
	return iconCollapsed
}

// meta renders trailing tags and due information.
func (tv *TreeView) meta(n node.Node) string {
	var parts []string

	for _, tag := range n.Tags {
		parts = append(parts, tagStyle.Render("#"+tag))
	}

	if task, ok := n.Task(); ok && task.Due != nil && task.Status == node.StatusOpen {
		due := humanize.Time(*task.Due)
		if task.Due.Before(time.Now()) {
			parts = append(parts, overdueStyle.Render("due "+due))
		} else {
			parts = append(parts, dueStyle.Render("due "+due))
		}
	}

	if len(parts) == 0 {
		return ""
	}
	return "  " + strings.Join(parts, " ")
}
