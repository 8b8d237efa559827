package view

import (
	"errors"
	"fmt"

	"github.com/arbor-sh/arbor/pkg/outline/node"
)

// Placement says where a dragged node lands relative to the target.
type Placement int

// Drop placements.
const (
	PlaceAbove Placement = iota
	PlaceBelow
)

// Sort orders are renumbered in gaps of 100, leaving headroom for
// future insertions without a full renumber.
const sortOrderGap = 100

// Reorder planning errors. Cross-parent and self drops are rejected by
// the hosting layer before planning; these are defensive.
var (
	ErrSelfTarget  = errors.New("cannot drop a node onto itself")
	ErrNotSiblings = errors.New("dragged and target nodes are not siblings")
)

// SortMove is one changed sort-order assignment.
type SortMove struct {
	NodeID    string
	SortOrder int
}

// ReorderPlan is the outcome of planning a drag-drop: the assignments
// that actually changed, plus a human-readable description of the move.
type ReorderPlan struct {
	Moves       []SortMove
	Description string
}

// PlanMove computes new sort orders for one sibling group after
// dragging draggedID above or below targetID. Both must be members of
// siblings, which is the group in current display order. Only nodes
// whose sort order changes are emitted, bounding backend writes to the
// moved span rather than the whole group.
func PlanMove(siblings []node.Node, draggedID, targetID string, place Placement) (ReorderPlan, error) {
	if draggedID == targetID {
		return ReorderPlan{}, ErrSelfTarget
	}

	draggedIdx := indexOf(siblings, draggedID)
	targetIdx := indexOf(siblings, targetID)
	if draggedIdx < 0 || targetIdx < 0 {
		return ReorderPlan{}, ErrNotSiblings
	}

	description := describeMove(siblings, draggedIdx, targetIdx, place)

	// Remove the dragged node, then adjust the insertion index for the
	// shift that removal causes when the dragged node preceded the target.
	reordered := make([]node.Node, 0, len(siblings))
	reordered = append(reordered, siblings[:draggedIdx]...)
	reordered = append(reordered, siblings[draggedIdx+1:]...)

	insertIdx := targetIdx
	if draggedIdx < targetIdx {
		insertIdx--
	}
	if place == PlaceBelow {
		insertIdx++
	}

	reordered = append(reordered, node.Node{})
	copy(reordered[insertIdx+1:], reordered[insertIdx:])
	reordered[insertIdx] = siblings[draggedIdx]

	var moves []SortMove
	for i, n := range reordered {
		want := (i + 1) * sortOrderGap
		if n.SortOrder != want {
			moves = append(moves, SortMove{NodeID: n.ID, SortOrder: want})
		}
	}

	return ReorderPlan{Moves: moves, Description: description}, nil
}

// describeMove derives UI feedback from the pre-removal target position.
func describeMove(siblings []node.Node, draggedIdx, targetIdx int, place Placement) string {
	dragged := siblings[draggedIdx].Title

	if place == PlaceAbove {
		if targetIdx == 0 {
			return fmt.Sprintf("moved %q to the beginning", dragged)
		}
		return fmt.Sprintf("moved %q between %q and %q",
			dragged, siblings[targetIdx-1].Title, siblings[targetIdx].Title)
	}

	if targetIdx == len(siblings)-1 {
		return fmt.Sprintf("moved %q to the end", dragged)
	}
	return fmt.Sprintf("moved %q between %q and %q",
		dragged, siblings[targetIdx].Title, siblings[targetIdx+1].Title)
}
