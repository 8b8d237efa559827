package engine

import (
	"context"

	"github.com/arbor-sh/arbor/pkg/outline/node"
)

// NodeUpdate carries the fields of a node update. Nil fields are left
// unchanged by the backend.
type NodeUpdate struct {
	Title     *string
	ParentID  *string
	SortOrder *int
	Tags      *[]string
	Payload   node.Payload
}

// Backend is the authoritative data collaborator. It may suspend on
// network I/O; SyncAll may serve from a local cache when the remote is
// unreachable. All state the engine derives from it is replaced
// wholesale on the next SyncAll.
type Backend interface {
	// SyncAll returns the full authoritative flat node list.
	SyncAll(ctx context.Context) ([]node.Node, error)

	// CreateNode creates a node and returns the server-assigned record.
	CreateNode(ctx context.Context, title string, typ node.Type, parentID string, tags []string) (node.Node, error)

	// UpdateNode applies an update and returns the resulting record.
	UpdateNode(ctx context.Context, id string, update NodeUpdate) (node.Node, error)

	// DeleteNode deletes a node and its descendants.
	DeleteNode(ctx context.Context, n node.Node) error

	// ToggleCompletion flips a task's completion state.
	ToggleCompletion(ctx context.Context, n node.Node) (node.Node, error)

	// GetNode fetches a single node by id.
	GetNode(ctx context.Context, id string) (node.Node, error)

	// InstantiateTemplate creates a new instance of a template under
	// the given parent.
	InstantiateTemplate(ctx context.Context, templateID, name, parentID string) (node.Node, error)

	// ExecuteSmartFolderRule evaluates a smart folder's rule against
	// the full node set and returns the matches.
	ExecuteSmartFolderRule(ctx context.Context, smartFolderID string) ([]node.Node, error)

	// RefreshNode narrowly re-syncs one subtree on the backend side.
	RefreshNode(ctx context.Context, id string) error
}
