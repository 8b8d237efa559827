// Package backend provides a reference implementation of the engine's
// backend collaborator: a remote store contract, an in-memory remote,
// and a client that falls back to a local cache when offline.
package backend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arbor-sh/arbor/pkg/outline/engine"
	"github.com/arbor-sh/arbor/pkg/outline/node"
)

// Backend errors.
var (
	ErrNotFound    = errors.New("node not found")
	ErrUnavailable = errors.New("backend unavailable")
)

// pendingNode is a created node that has not yet replicated into the
// list served by SyncAll.
type pendingNode struct {
	n         node.Node
	remaining int
}

// Memory is an in-process remote with seedable data, failure injection,
// and a configurable replication lag: created nodes become visible to
// SyncAll only after a number of sync or refresh rounds, which mimics
// the eventually consistent list replication of the real store.
type Memory struct {
	mu      sync.Mutex
	order   []string
	nodes   map[string]node.Node
	pending []pendingNode
	lag     int
	offline bool
	now     func() time.Time
}

// NewMemory creates a memory remote seeded with the given nodes.
func NewMemory(seed []node.Node) *Memory {
	m := &Memory{
		nodes: make(map[string]node.Node, len(seed)),
		now:   time.Now,
	}
	for _, n := range seed {
		m.nodes[n.ID] = n
		m.order = append(m.order, n.ID)
	}
	return m
}

// SetReplicationLag makes subsequent creates invisible to SyncAll for
// the given number of sync/refresh rounds.
func (m *Memory) SetReplicationLag(rounds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lag = rounds
}

// SetOffline toggles failure injection for every call.
func (m *Memory) SetOffline(offline bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offline = offline
}

// SyncAll returns the full flat list and advances replication.
func (m *Memory) SyncAll(_ context.Context) ([]node.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline {
		return nil, ErrUnavailable
	}

	m.advanceLocked("")

	list := make([]node.Node, 0, len(m.order))
	for _, id := range m.order {
		list = append(list, m.nodes[id])
	}
	return list, nil
}

// advanceLocked matures pending nodes by one round. A non-empty scope
// restricts maturing to direct children of that node.
func (m *Memory) advanceLocked(scope string) {
	var still []pendingNode
	for _, p := range m.pending {
		if scope != "" && p.n.ParentID != scope {
			still = append(still, p)
			continue
		}
		p.remaining--
		if p.remaining <= 0 {
			m.nodes[p.n.ID] = p.n
			m.order = append(m.order, p.n.ID)
			continue
		}
		still = append(still, p)
	}
	m.pending = still
}

// CreateNode creates a node with a server-assigned id and the next
// free sort order in its sibling group.
func (m *Memory) CreateNode(_ context.Context, title string, typ node.Type, parentID string, tags []string) (node.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline {
		return node.Node{}, ErrUnavailable
	}
	if parentID != "" {
		if _, ok := m.nodes[parentID]; !ok {
			return node.Node{}, fmt.Errorf("%w: parent %s", ErrNotFound, parentID)
		}
	}

	now := m.now()
	created := node.Node{
		ID:        uuid.New().String(),
		Title:     title,
		Type:      typ,
		ParentID:  parentID,
		SortOrder: m.nextSortOrderLocked(parentID),
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
		Payload:   defaultPayload(typ),
	}

	m.admitLocked(created)
	return created, nil
}

// admitLocked makes a node visible now, or queues it behind the lag.
func (m *Memory) admitLocked(n node.Node) {
	if m.lag > 0 {
		m.pending = append(m.pending, pendingNode{n: n, remaining: m.lag})
		return
	}
	m.nodes[n.ID] = n
	m.order = append(m.order, n.ID)
}

func (m *Memory) nextSortOrderLocked(parentID string) int {
	max := 0
	for _, id := range m.order {
		if n := m.nodes[id]; n.ParentID == parentID && n.SortOrder > max {
			max = n.SortOrder
		}
	}
	return max + 100
}

func defaultPayload(typ node.Type) node.Payload {
	switch typ {
	case node.TypeTask:
		return node.Task{Status: node.StatusOpen}
	case node.TypeNote:
		return node.Note{}
	case node.TypeFolder:
		return node.Folder{}
	default:
		return nil
	}
}

// UpdateNode applies non-nil update fields and returns the result.
func (m *Memory) UpdateNode(_ context.Context, id string, update engine.NodeUpdate) (node.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline {
		return node.Node{}, ErrUnavailable
	}

	n, ok := m.nodes[id]
	if !ok {
		return node.Node{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if update.Title != nil {
		n.Title = *update.Title
	}
	if update.ParentID != nil {
		n.ParentID = *update.ParentID
	}
	if update.SortOrder != nil {
		n.SortOrder = *update.SortOrder
	}
	if update.Tags != nil {
		n.Tags = *update.Tags
	}
	if update.Payload != nil {
		n.Payload = update.Payload
	}
	n.UpdatedAt = m.now()

	m.nodes[id] = n
	return n, nil
}

// DeleteNode removes a node and its descendant closure.
func (m *Memory) DeleteNode(_ context.Context, target node.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline {
		return ErrUnavailable
	}
	if _, ok := m.nodes[target.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, target.ID)
	}

	doomed := map[string]bool{target.ID: true}
	for changed := true; changed; {
		changed = false
		for _, id := range m.order {
			n := m.nodes[id]
			if !doomed[id] && doomed[n.ParentID] {
				doomed[id] = true
				changed = true
			}
		}
	}

	var order []string
	for _, id := range m.order {
		if doomed[id] {
			delete(m.nodes, id)
			continue
		}
		order = append(order, id)
	}
	m.order = order
	return nil
}

// ToggleCompletion flips a task's completion state.
func (m *Memory) ToggleCompletion(ctx context.Context, n node.Node) (node.Node, error) {
	m.mu.Lock()
	if m.offline {
		m.mu.Unlock()
		return node.Node{}, ErrUnavailable
	}
	stored, ok := m.nodes[n.ID]
	m.mu.Unlock()
	if !ok {
		return node.Node{}, fmt.Errorf("%w: %s", ErrNotFound, n.ID)
	}

	task, ok := stored.Task()
	if !ok {
		return node.Node{}, fmt.Errorf("node %s is not a task", n.ID)
	}

	if task.Status == node.StatusDone {
		task.Status = node.StatusOpen
		task.CompletedAt = nil
	} else {
		task.Status = node.StatusDone
		completed := m.now()
		task.CompletedAt = &completed
	}

	return m.UpdateNode(ctx, n.ID, engine.NodeUpdate{Payload: task})
}

// GetNode fetches one node by id.
func (m *Memory) GetNode(_ context.Context, id string) (node.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline {
		return node.Node{}, ErrUnavailable
	}
	n, ok := m.nodes[id]
	if !ok {
		return node.Node{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return n, nil
}

// InstantiateTemplate creates an instance of a template under the given
// parent and bumps the template's usage count. The instance replicates
// subject to the configured lag, like any other create.
func (m *Memory) InstantiateTemplate(ctx context.Context, templateID, name, parentID string) (node.Node, error) {
	m.mu.Lock()
	if m.offline {
		m.mu.Unlock()
		return node.Node{}, ErrUnavailable
	}

	tmpl, ok := m.nodes[templateID]
	if !ok {
		m.mu.Unlock()
		return node.Node{}, fmt.Errorf("%w: template %s", ErrNotFound, templateID)
	}
	payload, ok := tmpl.Template()
	if !ok {
		m.mu.Unlock()
		return node.Node{}, fmt.Errorf("node %s is not a template", templateID)
	}

	typ := node.TypeTask
	if payload.CreateContainer {
		typ = node.TypeFolder
	}
	now := m.now()
	created := node.Node{
		ID:        uuid.New().String(),
		Title:     name,
		Type:      typ,
		ParentID:  parentID,
		SortOrder: m.nextSortOrderLocked(parentID),
		CreatedAt: now,
		UpdatedAt: now,
		Payload:   defaultPayload(typ),
	}
	m.admitLocked(created)
	m.mu.Unlock()

	payload.UsageCount++
	if _, err := m.UpdateNode(ctx, templateID, engine.NodeUpdate{Payload: payload}); err != nil {
		return node.Node{}, err
	}
	return created, nil
}

// ExecuteSmartFolderRule evaluates a smart folder's stored rule against
// the full node set. Supported rule ids: completed-tasks, open-tasks,
// overdue-tasks, and tagged:<tag>.
func (m *Memory) ExecuteSmartFolderRule(_ context.Context, smartFolderID string) ([]node.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline {
		return nil, ErrUnavailable
	}

	sf, ok := m.nodes[smartFolderID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, smartFolderID)
	}
	payload, ok := sf.SmartFolder()
	if !ok {
		return nil, fmt.Errorf("node %s is not a smart folder", smartFolderID)
	}

	match := rulePredicate(payload.RuleID, m.now())
	var results []node.Node
	for _, id := range m.order {
		n := m.nodes[id]
		if n.ID != smartFolderID && match(n) {
			results = append(results, n)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SortOrder < results[j].SortOrder
	})
	return results, nil
}

func rulePredicate(ruleID string, now time.Time) func(node.Node) bool {
	switch {
	case ruleID == "completed-tasks":
		return node.Node.Completed
	case ruleID == "open-tasks":
		return func(n node.Node) bool {
			t, ok := n.Task()
			return ok && t.Status == node.StatusOpen
		}
	case ruleID == "overdue-tasks":
		return func(n node.Node) bool {
			t, ok := n.Task()
			return ok && t.Status == node.StatusOpen && t.Due != nil && t.Due.Before(now)
		}
	case strings.HasPrefix(ruleID, "tagged:"):
		tag := strings.TrimPrefix(ruleID, "tagged:")
		return func(n node.Node) bool { return n.HasTag(tag) }
	default:
		return func(node.Node) bool { return false }
	}
}

// RefreshNode advances replication for pending children of the given
// node, modeling a narrow server-side re-sync of one subtree.
func (m *Memory) RefreshNode(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline {
		return ErrUnavailable
	}
	m.advanceLocked(id)
	return nil
}

// compile-time contract check
var _ engine.Backend = (*Memory)(nil)
