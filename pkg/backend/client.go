package backend

import (
	"context"

	"github.com/arbor-sh/arbor/pkg/outline/engine"
	"github.com/arbor-sh/arbor/pkg/outline/logging"
	"github.com/arbor-sh/arbor/pkg/outline/node"
)

// NodeCache is the offline store the client writes sync results through
// and falls back to when the remote is unreachable.
type NodeCache interface {
	ReplaceAll(nodes []node.Node) error
	GetAll() ([]node.Node, error)
}

// Client implements the engine's backend contract over a remote store,
// with read-through caching of the full list. Mutations always need the
// remote; only SyncAll has an offline path.
type Client struct {
	remote engine.Backend
	cache  NodeCache
	log    *logging.Logger
}

// NewClient wraps a remote store. cache may be nil to disable the
// offline path.
func NewClient(remote engine.Backend, cache NodeCache) *Client {
	return &Client{
		remote: remote,
		cache:  cache,
		log:    logging.Get("backend"),
	}
}

// SyncAll returns the authoritative list from the remote, updating the
// cache; when the remote is unreachable it serves the cached list.
func (c *Client) SyncAll(ctx context.Context) ([]node.Node, error) {
	nodes, err := c.remote.SyncAll(ctx)
	if err != nil {
		if c.cache == nil {
			return nil, err
		}
		cached, cacheErr := c.cache.GetAll()
		if cacheErr != nil {
			c.log.Error("offline fallback failed", "err", cacheErr)
			return nil, err
		}
		c.log.Warn("remote unreachable, serving cached list", "nodes", len(cached), "err", err)
		return cached, nil
	}

	if c.cache != nil {
		if err := c.cache.ReplaceAll(nodes); err != nil {
			c.log.Error("cache write failed", "err", err)
		}
	}
	return nodes, nil
}

// CreateNode delegates to the remote.
func (c *Client) CreateNode(ctx context.Context, title string, typ node.Type, parentID string, tags []string) (node.Node, error) {
	return c.remote.CreateNode(ctx, title, typ, parentID, tags)
}

// UpdateNode delegates to the remote.
func (c *Client) UpdateNode(ctx context.Context, id string, update engine.NodeUpdate) (node.Node, error) {
	return c.remote.UpdateNode(ctx, id, update)
}

// DeleteNode delegates to the remote.
func (c *Client) DeleteNode(ctx context.Context, n node.Node) error {
	return c.remote.DeleteNode(ctx, n)
}

// ToggleCompletion delegates to the remote.
func (c *Client) ToggleCompletion(ctx context.Context, n node.Node) (node.Node, error) {
	return c.remote.ToggleCompletion(ctx, n)
}

// GetNode delegates to the remote.
func (c *Client) GetNode(ctx context.Context, id string) (node.Node, error) {
	return c.remote.GetNode(ctx, id)
}

// InstantiateTemplate delegates to the remote.
func (c *Client) InstantiateTemplate(ctx context.Context, templateID, name, parentID string) (node.Node, error) {
	return c.remote.InstantiateTemplate(ctx, templateID, name, parentID)
}

// ExecuteSmartFolderRule delegates to the remote.
func (c *Client) ExecuteSmartFolderRule(ctx context.Context, smartFolderID string) ([]node.Node, error) {
	return c.remote.ExecuteSmartFolderRule(ctx, smartFolderID)
}

// RefreshNode delegates to the remote.
func (c *Client) RefreshNode(ctx context.Context, id string) error {
	return c.remote.RefreshNode(ctx, id)
}

var _ engine.Backend = (*Client)(nil)
