// Package engine coordinates mutations between the backend collaborator
// and the in-memory tree index and view state. All methods are confined
// to one owner goroutine; the only suspension points are backend calls.
package engine

import (
	"context"
	"time"

	"github.com/arbor-sh/arbor/pkg/outline/index"
	"github.com/arbor-sh/arbor/pkg/outline/logging"
	"github.com/arbor-sh/arbor/pkg/outline/node"
	"github.com/arbor-sh/arbor/pkg/outline/view"
)

// Defaults for the eventual-consistency retry in template instantiation.
const (
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 500 * time.Millisecond
)

// Options configures an Engine.
type Options struct {
	// RetryAttempts bounds the template-instantiation poll. Zero uses
	// DefaultRetryAttempts.
	RetryAttempts int

	// RetryDelay is the fixed delay between poll attempts. Tests inject
	// zero to run the loop without sleeping.
	RetryDelay time.Duration

	// Debug runs the structural validator after every mutation and
	// logs violations.
	Debug bool

	Logger *logging.Logger
}

// Engine is the mutation coordinator. Backend failures are logged and
// surfaced as failure results; view state is never changed by a failed
// operation, and no error escapes the engine boundary.
type Engine struct {
	backend Backend
	ix      *index.Index
	state   *view.State
	nav     *view.Navigator
	events  *Broadcaster
	log     *logging.Logger

	retryAttempts int
	retryDelay    time.Duration
	debug         bool
}

// New creates an engine over a backend collaborator.
func New(backend Backend, opts Options) *Engine {
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = DefaultRetryAttempts
	}
	if opts.Logger == nil {
		opts.Logger = logging.Get("engine")
	}

	ix := index.New()
	state := view.NewState()
	return &Engine{
		backend:       backend,
		ix:            ix,
		state:         state,
		nav:           view.NewNavigator(ix, state),
		events:        NewBroadcaster(),
		log:           opts.Logger,
		retryAttempts: opts.RetryAttempts,
		retryDelay:    opts.RetryDelay,
		debug:         opts.Debug,
	}
}

// Index exposes the tree index for read-only use by the hosting layer.
func (e *Engine) Index() *index.Index { return e.ix }

// State exposes the view state.
func (e *Engine) State() *view.State { return e.state }

// Navigator exposes the navigation engine.
func (e *Engine) Navigator() *view.Navigator { return e.nav }

// Events exposes the change broadcaster.
func (e *Engine) Events() *Broadcaster { return e.events }

// Refresh pulls the full flat list and rebuilds the index. A rebuild
// supersedes any previously derived index; in-flight mutation results
// landing afterwards are reapplied as narrow patches.
func (e *Engine) Refresh(ctx context.Context) bool {
	list, err := e.backend.SyncAll(ctx)
	if err != nil {
		e.log.Error("sync failed", "err", err)
		return false
	}
	e.ix.Rebuild(list)
	e.validate("refresh")
	e.events.Notify(Change{Tree: true})
	return true
}

// Create creates a node under parentID and expands the parent so the
// node is visible once the next flat-list push supplies it.
func (e *Engine) Create(ctx context.Context, typ node.Type, title, parentID string) (node.Node, bool) {
	created, err := e.backend.CreateNode(ctx, title, typ, parentID, nil)
	if err != nil {
		e.log.Error("create failed", "type", typ, "title", title, "err", err)
		return node.Node{}, false
	}

	if parentID != "" {
		e.state.Expand(parentID)
	}
	e.log.Info("created node", "id", created.ID, "type", typ)
	e.events.Notify(Change{View: true})
	return created, true
}

// Rename updates a node's title, preserving all other fields, and
// patches the returned record into the index for immediate feedback
// ahead of the next full sync.
func (e *Engine) Rename(ctx context.Context, id, newTitle string) (node.Node, bool) {
	if _, ok := e.ix.Node(id); !ok {
		e.log.Warn("rename target not found", "id", id)
		return node.Node{}, false
	}

	updated, err := e.backend.UpdateNode(ctx, id, NodeUpdate{Title: &newTitle})
	if err != nil {
		e.log.Error("rename failed", "id", id, "err", err)
		return node.Node{}, false
	}

	e.ix.Patch(updated)
	e.validate("rename")
	e.events.Notify(Change{Tree: true})
	return updated, true
}

// Delete removes a node and its whole descendant closure. Reselection
// is precomputed from the current sibling ordering: previous sibling,
// else next sibling, else nothing. Focus is cleared if the focused node
// was inside the removed closure. The local patch applies atomically:
// on backend failure nothing changes.
func (e *Engine) Delete(ctx context.Context, n node.Node) bool {
	if _, ok := e.ix.Node(n.ID); !ok {
		e.log.Warn("delete target not found", "id", n.ID)
		return false
	}

	reselect := e.reselectionFor(n)
	closure := append([]string{n.ID}, e.ix.Descendants(n.ID)...)
	inClosure := make(map[string]bool, len(closure))
	for _, id := range closure {
		inClosure[id] = true
	}

	if err := e.backend.DeleteNode(ctx, n); err != nil {
		e.log.Error("delete failed", "id", n.ID, "err", err)
		return false
	}

	if inClosure[e.state.FocusedID] {
		e.state.FocusedID = ""
	}
	if inClosure[e.state.SelectedID] {
		e.state.SelectedID = reselect
	}
	for _, id := range closure {
		e.state.Collapse(id)
	}
	e.ix.RemoveSubtree(n.ID)

	e.validate("delete")
	e.log.Info("deleted subtree", "id", n.ID, "nodes", len(closure))
	e.events.Notify(Change{Tree: true, View: true})
	return true
}

// reselectionFor picks the node to select after n is deleted, using
// the current ordering of n's sibling group.
func (e *Engine) reselectionFor(n node.Node) string {
	var siblings []node.Node
	if n.IsRoot() {
		siblings = e.ix.Roots()
	} else {
		siblings = e.ix.Children(n.ParentID)
	}

	for i, sibling := range siblings {
		if sibling.ID != n.ID {
			continue
		}
		if i > 0 {
			return siblings[i-1].ID
		}
		if i+1 < len(siblings) {
			return siblings[i+1].ID
		}
	}
	return ""
}

// ToggleTask flips a task's completion state. It is routed through the
// engine, not a lower data layer, so callers can re-execute any smart
// folder whose membership depends on completion afterwards.
func (e *Engine) ToggleTask(ctx context.Context, n node.Node) (node.Node, bool) {
	if _, ok := e.ix.Node(n.ID); !ok {
		e.log.Warn("toggle target not found", "id", n.ID)
		return node.Node{}, false
	}
	if _, ok := n.Task(); !ok {
		e.log.Warn("toggle target is not a task", "id", n.ID, "type", n.Type)
		return node.Node{}, false
	}

	updated, err := e.backend.ToggleCompletion(ctx, n)
	if err != nil {
		e.log.Error("toggle failed", "id", n.ID, "err", err)
		return node.Node{}, false
	}

	e.ix.Patch(updated)
	e.validate("toggle")
	e.events.Notify(Change{Tree: true})
	return updated, true
}

// InstantiateTemplate creates an instance of a template named after the
// template's title plus the current date. The instance is created under
// the template's own target node; an explicit parent chosen by a caller
// is intentionally not honored. Because list replication is eventually
// consistent, the engine polls a bounded number of times for the new id
// to appear in a fresh flat list, refreshing the target subtree between
// attempts. Selection and focus move to the new node as soon as the
// create call itself succeeds, whether or not the poll converges.
func (e *Engine) InstantiateTemplate(ctx context.Context, tmpl node.Node) (node.Node, bool) {
	payload, ok := tmpl.Template()
	if !ok {
		e.log.Warn("instantiate target is not a template", "id", tmpl.ID, "type", tmpl.Type)
		return node.Node{}, false
	}

	name := tmpl.Title + " " + time.Now().Format("2006-01-02")
	created, err := e.backend.InstantiateTemplate(ctx, tmpl.ID, name, payload.TargetNodeID)
	if err != nil {
		e.log.Error("instantiate failed", "template", tmpl.ID, "err", err)
		return node.Node{}, false
	}

	e.state.SelectedID = created.ID
	e.state.FocusedID = created.ID
	if payload.TargetNodeID != "" {
		e.state.Expand(payload.TargetNodeID)
	}
	e.events.Notify(Change{View: true})

	for attempt := 1; attempt <= e.retryAttempts; attempt++ {
		if attempt > 1 && e.retryDelay > 0 {
			time.Sleep(e.retryDelay)
		}
		if payload.TargetNodeID != "" {
			if err := e.backend.RefreshNode(ctx, payload.TargetNodeID); err != nil {
				e.log.Warn("target refresh failed", "id", payload.TargetNodeID, "err", err)
			}
		}
		if !e.Refresh(ctx) {
			continue
		}
		if e.ix.Contains(created.ID) {
			e.log.Info("instantiated template", "template", tmpl.ID, "node", created.ID, "attempts", attempt)
			return created, true
		}
	}

	e.log.Warn("instance not yet replicated", "template", tmpl.ID, "node", created.ID,
		"attempts", e.retryAttempts)
	return created, true
}

// ExecuteSmartFolder evaluates a smart folder's rule and replaces its
// overlay entry with the result, empty results included. The folder is
// marked expanded on success; a failed execution leaves both the prior
// overlay entry and the expansion state untouched.
func (e *Engine) ExecuteSmartFolder(ctx context.Context, sf node.Node) bool {
	if _, ok := sf.SmartFolder(); !ok {
		e.log.Warn("execute target is not a smart folder", "id", sf.ID, "type", sf.Type)
		return false
	}

	results, err := e.backend.ExecuteSmartFolderRule(ctx, sf.ID)
	if err != nil {
		e.log.Error("smart folder execution failed", "id", sf.ID, "err", err)
		return false
	}

	e.state.Expand(sf.ID)
	e.ix.SetOverlay(sf.ID, results)
	e.log.Debug("smart folder executed", "id", sf.ID, "matches", len(results))
	e.events.Notify(Change{Tree: true, View: true})
	return true
}

// ApplyReorder pushes a reorder plan's changed sort orders to the
// backend and patches the results in. The local patch is all-or-nothing:
// results are collected first and applied only if every update succeeds.
func (e *Engine) ApplyReorder(ctx context.Context, plan view.ReorderPlan) bool {
	updated := make([]node.Node, 0, len(plan.Moves))
	for _, move := range plan.Moves {
		order := move.SortOrder
		result, err := e.backend.UpdateNode(ctx, move.NodeID, NodeUpdate{SortOrder: &order})
		if err != nil {
			e.log.Error("reorder update failed", "id", move.NodeID, "err", err)
			return false
		}
		updated = append(updated, result)
	}

	for _, n := range updated {
		e.ix.Patch(n)
	}
	e.validate("reorder")
	if plan.Description != "" {
		e.log.Info(plan.Description)
	}
	e.events.Notify(Change{Tree: true})
	return true
}

// MoveUp moves selection to the previous visible node.
func (e *Engine) MoveUp() {
	e.nav.MoveUp()
	e.events.Notify(Change{View: true})
}

// MoveDown moves selection to the next visible node.
func (e *Engine) MoveDown() {
	e.nav.MoveDown()
	e.events.Notify(Change{View: true})
}

// MoveLeft collapses, or moves focus and selection toward the root.
func (e *Engine) MoveLeft() {
	e.nav.MoveLeft()
	e.events.Notify(Change{View: true})
}

// MoveRight expands or focuses into the selected node, executing the
// smart-folder rule when expansion requires it.
func (e *Engine) MoveRight(ctx context.Context) {
	if pending := e.nav.MoveRight(); pending != nil {
		e.ExecuteSmartFolder(ctx, *pending)
		return
	}
	e.events.Notify(Change{View: true})
}

// ExitFocus leaves focus mode.
func (e *Engine) ExitFocus() {
	e.nav.ExitFocus()
	e.events.Notify(Change{View: true})
}

// validate audits the index after a mutation in debug builds.
// Violations are reported, never corrected.
func (e *Engine) validate(op string) {
	if !e.debug {
		return
	}
	for _, v := range index.Validate(e.ix) {
		e.log.Warn("structural inconsistency", "op", op, "violation", v.String())
	}
}
