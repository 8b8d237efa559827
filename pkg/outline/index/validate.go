package index

import (
	"fmt"

	"github.com/arbor-sh/arbor/pkg/outline/node"
)

// Violation describes one structural inconsistency between the index
// and the authoritative flat list.
type Violation struct {
	Code     string
	NodeID   string
	ParentID string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: node=%s parent=%s", v.Code, v.NodeID, v.ParentID)
}

// Violation codes.
const (
	ViolationOrphanChild   = "child_not_in_flat_list"
	ViolationMissingParent = "parent_not_in_flat_list"
	ViolationUnindexed     = "node_missing_from_parent_bucket"
	ViolationStaleOverlay  = "overlay_key_not_smart_folder"
)

// Validate audits the index against its flat list. It is a read-only
// debugging aid: violations are collected and returned, never thrown,
// and the index is never corrected.
func Validate(ix *Index) []Violation {
	var violations []Violation

	// Every child in a real bucket must exist in the flat list. Overlay
	// buckets hold virtual nodes and are exempt, but their keys must
	// still name live smart folders.
	for parentID, bucket := range ix.children {
		if _, isOverlay := ix.overlay[parentID]; isOverlay {
			if n, ok := ix.nodes[parentID]; !ok || n.Type != node.TypeSmartFolder {
				violations = append(violations, Violation{
					Code:     ViolationStaleOverlay,
					ParentID: parentID,
				})
			}
			continue
		}
		for _, child := range bucket {
			if !ix.Contains(child.ID) {
				violations = append(violations, Violation{
					Code:     ViolationOrphanChild,
					NodeID:   child.ID,
					ParentID: parentID,
				})
			}
		}
	}

	for _, n := range ix.flat {
		if n.ParentID == "" {
			continue
		}
		if !ix.Contains(n.ParentID) {
			violations = append(violations, Violation{
				Code:     ViolationMissingParent,
				NodeID:   n.ID,
				ParentID: n.ParentID,
			})
			continue
		}
		if parent, ok := ix.nodes[n.ParentID]; ok && parent.Type == node.TypeSmartFolder {
			// A smart folder's real bucket is shadowed by its overlay;
			// membership cannot be checked there.
			continue
		}
		found := false
		for _, sibling := range ix.children[n.ParentID] {
			if sibling.ID == n.ID {
				found = true
				break
			}
		}
		if !found {
			violations = append(violations, Violation{
				Code:     ViolationUnindexed,
				NodeID:   n.ID,
				ParentID: n.ParentID,
			})
		}
	}

	return violations
}
