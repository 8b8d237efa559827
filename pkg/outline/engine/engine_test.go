package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/arbor-sh/arbor/pkg/backend"
	"github.com/arbor-sh/arbor/pkg/outline/engine"
	"github.com/arbor-sh/arbor/pkg/outline/node"
	"github.com/arbor-sh/arbor/pkg/outline/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func task(id, parentID string, sortOrder int) node.Node {
	return node.Node{
		ID: id, Title: id, Type: node.TypeTask, ParentID: parentID, SortOrder: sortOrder,
		Payload: node.Task{Status: node.StatusOpen},
	}
}

// newEngine returns an engine over a fresh memory remote, synced once.
func newEngine(t *testing.T, seed []node.Node) (*engine.Engine, *backend.Memory) {
	t.Helper()
	remote := backend.NewMemory(seed)
	e := engine.New(remote, engine.Options{RetryDelay: 0, Debug: true})
	require.True(t, e.Refresh(context.Background()))
	return e, remote
}

func TestRefresh(t *testing.T) {
	t.Run("failure leaves the index untouched", func(t *testing.T) {
		e, remote := newEngine(t, []node.Node{task("a", "", 100)})
		remote.SetOffline(true)

		assert.False(t, e.Refresh(context.Background()))
		assert.True(t, e.Index().Contains("a"))
	})

	t.Run("rebuild supersedes the previous index", func(t *testing.T) {
		e, remote := newEngine(t, []node.Node{task("a", "", 100)})
		_, err := remote.CreateNode(context.Background(), "new", node.TypeTask, "", nil)
		require.NoError(t, err)

		require.True(t, e.Refresh(context.Background()))
		assert.Equal(t, 2, e.Index().Len())
	})
}

func TestCreate(t *testing.T) {
	t.Run("expands the parent and defers insertion to the next push", func(t *testing.T) {
		e, _ := newEngine(t, []node.Node{task("p", "", 100)})

		created, ok := e.Create(context.Background(), node.TypeTask, "child", "p")
		require.True(t, ok)
		assert.True(t, e.State().IsExpanded("p"))
		assert.False(t, e.Index().Contains(created.ID), "arrives with the next flat-list push")

		require.True(t, e.Refresh(context.Background()))
		assert.True(t, e.Index().Contains(created.ID))
	})

	t.Run("backend failure is a no-op", func(t *testing.T) {
		e, remote := newEngine(t, []node.Node{task("p", "", 100)})
		remote.SetOffline(true)

		_, ok := e.Create(context.Background(), node.TypeTask, "child", "p")
		assert.False(t, ok)
		assert.False(t, e.State().IsExpanded("p"))
	})
}

func TestRename(t *testing.T) {
	t.Run("patches the sibling slot for immediate feedback", func(t *testing.T) {
		e, _ := newEngine(t, []node.Node{
			task("p", "", 100),
			task("a", "p", 100),
			task("b", "p", 200),
		})

		updated, ok := e.Rename(context.Background(), "a", "renamed")
		require.True(t, ok)
		assert.Equal(t, "renamed", updated.Title)

		children := e.Index().Children("p")
		require.Len(t, children, 2)
		assert.Equal(t, "renamed", children[0].Title)
	})

	t.Run("preserves all non-title fields", func(t *testing.T) {
		seed := task("a", "", 100)
		seed.Tags = []string{"keep"}
		e, _ := newEngine(t, []node.Node{seed})

		updated, ok := e.Rename(context.Background(), "a", "renamed")
		require.True(t, ok)
		assert.Equal(t, []string{"keep"}, updated.Tags)
		assert.Equal(t, node.TypeTask, updated.Type)
	})

	t.Run("stale id is a logged no-op", func(t *testing.T) {
		e, _ := newEngine(t, []node.Node{task("a", "", 100)})
		_, ok := e.Rename(context.Background(), "ghost", "x")
		assert.False(t, ok)
	})
}

func TestDelete(t *testing.T) {
	t.Run("spec scenario: reselects next sibling and removes the closure", func(t *testing.T) {
		e, _ := newEngine(t, []node.Node{
			task("a", "", 100),
			task("b", "", 200),
			task("c", "a", 100),
		})
		e.State().SelectedID = "a"

		a, _ := e.Index().Node("a")
		require.True(t, e.Delete(context.Background(), a))

		assert.Equal(t, "b", e.State().SelectedID)
		assert.False(t, e.Index().Contains("a"))
		assert.False(t, e.Index().Contains("c"))
		assert.Empty(t, e.Index().Children("a"))
	})

	t.Run("prefers the previous sibling", func(t *testing.T) {
		e, _ := newEngine(t, []node.Node{
			task("p", "", 100),
			task("a", "p", 100),
			task("b", "p", 200),
			task("c", "p", 300),
		})
		e.State().SelectedID = "b"

		b, _ := e.Index().Node("b")
		require.True(t, e.Delete(context.Background(), b))
		assert.Equal(t, "a", e.State().SelectedID)
	})

	t.Run("last sibling clears the selection", func(t *testing.T) {
		e, _ := newEngine(t, []node.Node{task("only", "", 100)})
		e.State().SelectedID = "only"

		only, _ := e.Index().Node("only")
		require.True(t, e.Delete(context.Background(), only))
		assert.Empty(t, e.State().SelectedID)
	})

	t.Run("clears focus when the focused node is inside the closure", func(t *testing.T) {
		e, _ := newEngine(t, []node.Node{
			task("a", "", 100),
			task("c", "a", 100),
			task("d", "c", 100),
		})
		e.State().FocusedID = "d"
		e.State().SelectedID = "d"

		a, _ := e.Index().Node("a")
		require.True(t, e.Delete(context.Background(), a))
		assert.Empty(t, e.State().FocusedID)
	})

	t.Run("backend failure leaves state exactly as before", func(t *testing.T) {
		e, remote := newEngine(t, []node.Node{
			task("a", "", 100),
			task("b", "", 200),
		})
		e.State().SelectedID = "a"
		remote.SetOffline(true)

		a, _ := e.Index().Node("a")
		assert.False(t, e.Delete(context.Background(), a))
		assert.Equal(t, "a", e.State().SelectedID)
		assert.True(t, e.Index().Contains("a"))
	})
}

func TestToggleTask(t *testing.T) {
	t.Run("flips completion and patches the record", func(t *testing.T) {
		e, _ := newEngine(t, []node.Node{task("a", "", 100)})

		a, _ := e.Index().Node("a")
		updated, ok := e.ToggleTask(context.Background(), a)
		require.True(t, ok)
		assert.True(t, updated.Completed())

		got, _ := e.Index().Node("a")
		assert.True(t, got.Completed())
	})

	t.Run("non-task is rejected", func(t *testing.T) {
		folder := node.Node{ID: "f", Title: "f", Type: node.TypeFolder, SortOrder: 100, Payload: node.Folder{}}
		e, _ := newEngine(t, []node.Node{folder})

		_, ok := e.ToggleTask(context.Background(), folder)
		assert.False(t, ok)
	})
}

func TestInstantiateTemplate(t *testing.T) {
	seed := func() []node.Node {
		return []node.Node{
			{ID: "target", Title: "Projects", Type: node.TypeFolder, SortOrder: 100, Payload: node.Folder{}},
			{
				ID: "tmpl", Title: "Weekly Review", Type: node.TypeTemplate, SortOrder: 200,
				Payload: node.Template{TargetNodeID: "target"},
			},
		}
	}

	t.Run("converges within the retry budget", func(t *testing.T) {
		e, remote := newEngine(t, seed())
		remote.SetReplicationLag(2)

		tmpl, _ := e.Index().Node("tmpl")
		created, ok := e.InstantiateTemplate(context.Background(), tmpl)
		require.True(t, ok)

		assert.True(t, e.Index().Contains(created.ID))
		assert.Equal(t, "target", created.ParentID, "template target wins over any caller-chosen parent")
		assert.Contains(t, created.Title, "Weekly Review")
		assert.Equal(t, created.ID, e.State().SelectedID)
		assert.Equal(t, created.ID, e.State().FocusedID)
		assert.True(t, e.State().IsExpanded("target"))
	})

	t.Run("selection is optimistic even when replication never catches up", func(t *testing.T) {
		e, remote := newEngine(t, seed())
		remote.SetReplicationLag(1000)

		tmpl, _ := e.Index().Node("tmpl")
		created, ok := e.InstantiateTemplate(context.Background(), tmpl)
		require.True(t, ok)

		assert.False(t, e.Index().Contains(created.ID))
		assert.Equal(t, created.ID, e.State().SelectedID)
		assert.Equal(t, created.ID, e.State().FocusedID)
	})

	t.Run("create failure leaves view state untouched", func(t *testing.T) {
		e, remote := newEngine(t, seed())
		e.State().SelectedID = "tmpl"
		remote.SetOffline(true)

		tmpl := task("x", "", 0)
		tmpl.Type = node.TypeTemplate
		tmpl.Payload = node.Template{TargetNodeID: "target"}
		_, ok := e.InstantiateTemplate(context.Background(), tmpl)
		assert.False(t, ok)
		assert.Equal(t, "tmpl", e.State().SelectedID)
	})

	t.Run("non-template is rejected", func(t *testing.T) {
		e, _ := newEngine(t, seed())
		_, ok := e.InstantiateTemplate(context.Background(), task("a", "", 100))
		assert.False(t, ok)
	})
}

func TestExecuteSmartFolder(t *testing.T) {
	seed := func() []node.Node {
		done := task("done", "", 300)
		done.Payload = node.Task{Status: node.StatusDone}
		return []node.Node{
			{
				ID: "sf", Title: "Completed", Type: node.TypeSmartFolder, SortOrder: 100,
				Payload: node.SmartFolder{RuleID: "completed-tasks"},
			},
			task("open", "", 200),
			done,
		}
	}

	t.Run("stores results and marks the folder expanded", func(t *testing.T) {
		e, _ := newEngine(t, seed())

		sf, _ := e.Index().Node("sf")
		require.True(t, e.ExecuteSmartFolder(context.Background(), sf))

		assert.True(t, e.State().IsExpanded("sf"))
		results := e.Index().Children("sf")
		require.Len(t, results, 1)
		assert.Equal(t, "done", results[0].ID)
	})

	t.Run("failure leaves prior overlay and expansion untouched", func(t *testing.T) {
		e, remote := newEngine(t, seed())
		sf, _ := e.Index().Node("sf")
		require.True(t, e.ExecuteSmartFolder(context.Background(), sf))
		e.State().Collapse("sf")

		remote.SetOffline(true)
		assert.False(t, e.ExecuteSmartFolder(context.Background(), sf))
		assert.False(t, e.State().IsExpanded("sf"))
		assert.Len(t, e.Index().Children("sf"), 1)
	})

	t.Run("re-execution with zero matches replaces the entry", func(t *testing.T) {
		e, _ := newEngine(t, seed())
		sf, _ := e.Index().Node("sf")
		require.True(t, e.ExecuteSmartFolder(context.Background(), sf))

		done, _ := e.Index().Node("done")
		_, ok := e.ToggleTask(context.Background(), done)
		require.True(t, ok)

		require.True(t, e.ExecuteSmartFolder(context.Background(), sf))
		assert.Empty(t, e.Index().Children("sf"))
		_, executed := e.Index().Overlay("sf")
		assert.True(t, executed)
	})
}

func TestApplyReorder(t *testing.T) {
	t.Run("pushes changed orders and re-sorts the sibling group", func(t *testing.T) {
		e, _ := newEngine(t, []node.Node{
			task("p", "", 100),
			task("a", "p", 100),
			task("b", "p", 200),
			task("c", "p", 300),
		})

		plan := planFor(t, e, "p", "c", "a")
		require.True(t, e.ApplyReorder(context.Background(), plan))

		children := e.Index().Children("p")
		require.Len(t, children, 3)
		assert.Equal(t, []string{"c", "a", "b"}, []string{children[0].ID, children[1].ID, children[2].ID})

		// Strictly increasing multiples of 100 in final display order.
		for i, child := range children {
			assert.Equal(t, (i+1)*100, child.SortOrder)
		}
	})

	t.Run("any failed update aborts the local patch", func(t *testing.T) {
		e, remote := newEngine(t, []node.Node{
			task("p", "", 100),
			task("a", "p", 100),
			task("b", "p", 200),
		})
		plan := planFor(t, e, "p", "b", "a")

		remote.SetOffline(true)
		assert.False(t, e.ApplyReorder(context.Background(), plan))

		children := e.Index().Children("p")
		assert.Equal(t, "a", children[0].ID)
	})
}

// planFor plans dragging draggedID above targetID within parent's group.
func planFor(t *testing.T, e *engine.Engine, parentID, draggedID, targetID string) view.ReorderPlan {
	t.Helper()
	plan, err := view.PlanMove(e.Index().Children(parentID), draggedID, targetID, view.PlaceAbove)
	require.NoError(t, err)
	return plan
}

func TestNavigationPassthrough(t *testing.T) {
	t.Run("move right executes a collapsed smart folder", func(t *testing.T) {
		done := task("done", "", 200)
		done.Payload = node.Task{Status: node.StatusDone}
		e, _ := newEngine(t, []node.Node{
			{
				ID: "sf", Title: "Completed", Type: node.TypeSmartFolder, SortOrder: 100,
				Payload: node.SmartFolder{RuleID: "completed-tasks"},
			},
			done,
		})
		e.State().SelectedID = "sf"

		e.MoveRight(context.Background())
		assert.True(t, e.State().IsExpanded("sf"))
		assert.Len(t, e.Index().Children("sf"), 1)
	})
}

func TestEvents(t *testing.T) {
	t.Run("subscribers observe tree changes", func(t *testing.T) {
		e, _ := newEngine(t, []node.Node{task("a", "", 100)})
		sub := e.Events().Subscribe()
		defer e.Events().Unsubscribe(sub.ID)

		require.True(t, e.Refresh(context.Background()))

		select {
		case change := <-sub.Changes:
			assert.True(t, change.Tree)
		case <-time.After(time.Second):
			t.Fatal("no change received")
		}
	})
}
