// Package index maintains the derived parent-to-children view over the
// authoritative flat node list, including the virtual smart-folder overlay.
package index

import (
	"sort"

	"github.com/arbor-sh/arbor/pkg/outline/node"
)

// Index maps parent ids to ordered child lists. It is rebuilt in full
// whenever the backend pushes a new flat list; only the smart-folder
// overlay survives a rebuild.
type Index struct {
	flat     []node.Node
	nodes    map[string]node.Node
	children map[string][]node.Node
	overlay  map[string][]node.Node
}

// New returns an empty index.
func New() *Index {
	return &Index{
		nodes:    make(map[string]node.Node),
		children: make(map[string][]node.Node),
		overlay:  make(map[string][]node.Node),
	}
}

// Build constructs an index from a flat list.
func Build(list []node.Node) *Index {
	ix := New()
	ix.Rebuild(list)
	return ix
}

// Rebuild replaces the index contents from a new authoritative flat list.
// Overlay entries whose key still names a live smart folder, and whose
// prior result list is non-empty, are carried forward and written back
// into the children map after regrouping. Smart folders never have real
// children, so a carried entry overwrites any accidental real bucket.
func (ix *Index) Rebuild(list []node.Node) {
	nodes := make(map[string]node.Node, len(list))
	for _, n := range list {
		nodes[n.ID] = n
	}

	carry := make(map[string][]node.Node)
	for id, results := range ix.overlay {
		if len(results) == 0 {
			continue
		}
		if n, ok := nodes[id]; ok && n.Type == node.TypeSmartFolder {
			carry[id] = results
		}
	}

	children := make(map[string][]node.Node)
	for _, n := range list {
		if n.ParentID == "" {
			continue
		}
		children[n.ParentID] = append(children[n.ParentID], n)
	}
	for parentID := range children {
		group := children[parentID]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].SortOrder < group[j].SortOrder
		})
	}

	for id, results := range carry {
		children[id] = results
	}

	ix.flat = append([]node.Node(nil), list...)
	ix.nodes = nodes
	ix.children = children
	ix.overlay = carry
}

// Node returns the node with the given id.
func (ix *Index) Node(id string) (node.Node, bool) {
	n, ok := ix.nodes[id]
	return n, ok
}

// Contains reports whether the id is present in the authoritative list.
func (ix *Index) Contains(id string) bool {
	_, ok := ix.nodes[id]
	return ok
}

// Children returns the ordered child list for a parent id. For smart
// folders this is the overlay result set.
func (ix *Index) Children(parentID string) []node.Node {
	return ix.children[parentID]
}

// Roots returns the root nodes, sorted by sort order. The root set is
// not cached; it is recovered from the flat list on demand.
func (ix *Index) Roots() []node.Node {
	var roots []node.Node
	for _, n := range ix.flat {
		if n.IsRoot() {
			roots = append(roots, n)
		}
	}
	sort.SliceStable(roots, func(i, j int) bool {
		return roots[i].SortOrder < roots[j].SortOrder
	})
	return roots
}

// Flat returns the authoritative flat list.
func (ix *Index) Flat() []node.Node {
	return ix.flat
}

// Len returns the number of authoritative nodes.
func (ix *Index) Len() int {
	return len(ix.flat)
}

// SetOverlay replaces the overlay entry for a smart folder. An empty
// result list is a valid state ("no matches") and replaces any prior
// non-empty entry.
func (ix *Index) SetOverlay(smartFolderID string, results []node.Node) {
	cp := append([]node.Node(nil), results...)
	ix.overlay[smartFolderID] = cp
	ix.children[smartFolderID] = cp
}

// Overlay returns the overlay entry for a smart folder, and whether the
// folder has been executed at all.
func (ix *Index) Overlay(smartFolderID string) ([]node.Node, bool) {
	results, ok := ix.overlay[smartFolderID]
	return results, ok
}

// Patch applies a narrow update for one node: the node record itself,
// the flat list, and the node's slot in its parent's bucket. Used for
// immediate feedback on mutation results that land ahead of (or after)
// the next full rebuild.
func (ix *Index) Patch(n node.Node) {
	if _, ok := ix.nodes[n.ID]; !ok {
		return
	}
	ix.nodes[n.ID] = n
	for i := range ix.flat {
		if ix.flat[i].ID == n.ID {
			ix.flat[i] = n
			break
		}
	}
	bucket := ix.children[n.ParentID]
	for i := range bucket {
		if bucket[i].ID == n.ID {
			bucket[i] = n
			sort.SliceStable(bucket, func(a, b int) bool {
				return bucket[a].SortOrder < bucket[b].SortOrder
			})
			break
		}
	}
}

// RemoveSubtree removes a node and its descendant closure from the
// index. Overlay buckets are dropped for removed smart folders but
// nodes matched by their rules are untouched. Returns the removed ids.
func (ix *Index) RemoveSubtree(id string) []string {
	removed := append([]string{id}, ix.Descendants(id)...)

	gone := make(map[string]bool, len(removed))
	for _, rid := range removed {
		gone[rid] = true
	}

	for _, rid := range removed {
		delete(ix.nodes, rid)
		delete(ix.children, rid)
		delete(ix.overlay, rid)
	}

	flat := ix.flat[:0]
	for _, n := range ix.flat {
		if !gone[n.ID] {
			flat = append(flat, n)
		}
	}
	ix.flat = flat

	for parentID, bucket := range ix.children {
		if _, isOverlay := ix.overlay[parentID]; isOverlay {
			continue
		}
		kept := bucket[:0]
		for _, n := range bucket {
			if !gone[n.ID] {
				kept = append(kept, n)
			}
		}
		ix.children[parentID] = kept
	}

	return removed
}
