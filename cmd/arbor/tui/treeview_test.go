package tui

import (
	"strings"
	"testing"

	"github.com/arbor-sh/arbor/pkg/outline/index"
	"github.com/arbor-sh/arbor/pkg/outline/node"
	"github.com/arbor-sh/arbor/pkg/outline/view"
)

func buildIndex(nodes []node.Node) *index.Index {
	ix := index.New()
	ix.Rebuild(nodes)
	return ix
}

func outlineNodes() []node.Node {
	return []node.Node{
		{ID: "p", Title: "Projects", Type: node.TypeFolder, SortOrder: 100, Payload: node.Folder{}},
		{
			ID: "t1", Title: "Write report", Type: node.TypeTask, ParentID: "p", SortOrder: 100,
			Tags:    []string{"work"},
			Payload: node.Task{Status: node.StatusOpen},
		},
		{
			ID: "t2", Title: "Old chore", Type: node.TypeTask, ParentID: "p", SortOrder: 200,
			Payload: node.Task{Status: node.StatusDone},
		},
	}
}

func TestTreeViewRender(t *testing.T) {
	ix := buildIndex(outlineNodes())
	state := view.NewState()
	state.SelectedID = "p"
	state.Expand("p")
	tv := NewTreeView(ix, state)

	nav := view.NewNavigator(ix, state)
	out := tv.Render(nav.Visible(), 80, 20)

	if !strings.Contains(out, "Projects") {
		t.Error("render missing root folder title")
	}
	if !strings.Contains(out, "Write report") {
		t.Error("render missing expanded child")
	}
	if !strings.Contains(out, iconTaskDone) {
		t.Error("completed task not rendered with a checked box")
	}
	if !strings.Contains(out, "#work") {
		t.Error("tags not rendered")
	}
}

func TestTreeViewCollapsedHidesChildren(t *testing.T) {
	ix := buildIndex(outlineNodes())
	state := view.NewState()
	state.SelectedID = "p"
	tv := NewTreeView(ix, state)

	nav := view.NewNavigator(ix, state)
	out := tv.Render(nav.Visible(), 80, 20)

	if strings.Contains(out, "Write report") {
		t.Error("collapsed folder should hide its children")
	}
	if !strings.Contains(out, iconCollapsed) {
		t.Error("collapsed folder missing collapse marker")
	}
}

func TestTreeViewScrollKeepsSelectionVisible(t *testing.T) {
	var nodes []node.Node
	for i := 0; i < 30; i++ {
		id := string(rune('a' + i%26))
		nodes = append(nodes, node.Node{
			ID: id + "-" + string(rune('0'+i/26)), Title: "item",
			Type: node.TypeTask, SortOrder: (i + 1) * 100,
			Payload: node.Task{Status: node.StatusOpen},
		})
	}
	ix := buildIndex(nodes)
	state := view.NewState()
	state.SelectedID = nodes[29].ID
	tv := NewTreeView(ix, state)

	nav := view.NewNavigator(ix, state)
	tv.Render(nav.Visible(), 80, 10)

	if tv.offset != 20 {
		t.Errorf("offset = %d, want 20 to keep the last row visible", tv.offset)
	}
}

func TestTreeViewDepthInFocusMode(t *testing.T) {
	nodes := []node.Node{
		{ID: "root", Title: "root", Type: node.TypeFolder, SortOrder: 100, Payload: node.Folder{}},
		{ID: "mid", Title: "mid", Type: node.TypeFolder, ParentID: "root", SortOrder: 100, Payload: node.Folder{}},
		{
			ID: "leaf", Title: "leaf", Type: node.TypeTask, ParentID: "mid", SortOrder: 100,
			Payload: node.Task{Status: node.StatusOpen},
		},
	}
	ix := buildIndex(nodes)
	state := view.NewState()
	tv := NewTreeView(ix, state)

	leaf, _ := ix.Node("leaf")
	if got := tv.depth(leaf); got != 2 {
		t.Errorf("depth outside focus = %d, want 2", got)
	}

	state.FocusedID = "mid"
	if got := tv.depth(leaf); got != 0 {
		t.Errorf("depth under focus root = %d, want 0", got)
	}
}
