package index

import "github.com/arbor-sh/arbor/pkg/outline/node"

// Ancestors returns the parent chain of a node, nearest first, ending
// at a root. Unknown ids and broken parent links yield a short chain.
func (ix *Index) Ancestors(id string) []string {
	var chain []string
	seen := map[string]bool{id: true}

	current, ok := ix.nodes[id]
	for ok && current.ParentID != "" {
		if seen[current.ParentID] {
			break // cycle in transiently inconsistent data
		}
		seen[current.ParentID] = true
		chain = append(chain, current.ParentID)
		current, ok = ix.nodes[current.ParentID]
	}
	return chain
}

// Descendants returns every node id below the given one, depth first.
// Smart-folder buckets hold virtual rule results, not real children,
// so traversal never descends through a smart folder.
func (ix *Index) Descendants(id string) []string {
	var ids []string
	ix.walkDescendants(id, &ids)
	return ids
}

func (ix *Index) walkDescendants(id string, out *[]string) {
	if n, ok := ix.nodes[id]; ok && n.Type == node.TypeSmartFolder {
		return
	}
	for _, child := range ix.children[id] {
		*out = append(*out, child.ID)
		ix.walkDescendants(child.ID, out)
	}
}

// IsDescendant reports whether id lies anywhere below ancestorID.
func (ix *Index) IsDescendant(id, ancestorID string) bool {
	for _, a := range ix.Ancestors(id) {
		if a == ancestorID {
			return true
		}
	}
	return false
}
