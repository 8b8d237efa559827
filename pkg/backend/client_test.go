package backend_test

import (
	"context"
	"errors"
	"testing"

	"github.com/arbor-sh/arbor/pkg/backend"
	"github.com/arbor-sh/arbor/pkg/outline/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCache is an in-process NodeCache for exercising the offline path
// without touching disk.
type memCache struct {
	nodes   []node.Node
	readErr error
	writes  int
}

func (c *memCache) ReplaceAll(nodes []node.Node) error {
	c.nodes = append([]node.Node(nil), nodes...)
	c.writes++
	return nil
}

func (c *memCache) GetAll() ([]node.Node, error) {
	if c.readErr != nil {
		return nil, c.readErr
	}
	return c.nodes, nil
}

func TestClientSyncAll(t *testing.T) {
	ctx := context.Background()

	t.Run("writes every successful sync through the cache", func(t *testing.T) {
		remote := backend.NewMemory([]node.Node{seedTask("a", "", 100)})
		cache := &memCache{}
		client := backend.NewClient(remote, cache)

		list, err := client.SyncAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, ids(list))
		assert.Equal(t, 1, cache.writes)
		assert.Equal(t, []string{"a"}, ids(cache.nodes))
	})

	t.Run("serves the cached list when the remote is unreachable", func(t *testing.T) {
		remote := backend.NewMemory([]node.Node{seedTask("a", "", 100)})
		cache := &memCache{}
		client := backend.NewClient(remote, cache)

		_, err := client.SyncAll(ctx)
		require.NoError(t, err)

		remote.SetOffline(true)
		list, err := client.SyncAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, ids(list))
	})

	t.Run("surfaces the remote error when the cache also fails", func(t *testing.T) {
		remote := backend.NewMemory(nil)
		remote.SetOffline(true)
		cache := &memCache{readErr: errors.New("corrupt")}
		client := backend.NewClient(remote, cache)

		_, err := client.SyncAll(ctx)
		assert.ErrorIs(t, err, backend.ErrUnavailable)
	})

	t.Run("nil cache disables the offline path", func(t *testing.T) {
		remote := backend.NewMemory(nil)
		remote.SetOffline(true)
		client := backend.NewClient(remote, nil)

		_, err := client.SyncAll(ctx)
		assert.ErrorIs(t, err, backend.ErrUnavailable)
	})
}

func TestClientMutationsNeedTheRemote(t *testing.T) {
	ctx := context.Background()
	remote := backend.NewMemory([]node.Node{seedTask("a", "", 100)})
	cache := &memCache{}
	client := backend.NewClient(remote, cache)

	_, err := client.SyncAll(ctx)
	require.NoError(t, err)
	remote.SetOffline(true)

	_, err = client.CreateNode(ctx, "x", node.TypeTask, "", nil)
	assert.ErrorIs(t, err, backend.ErrUnavailable, "no cached writes for mutations")

	a, _ := cache.GetAll()
	require.Len(t, a, 1)
	assert.ErrorIs(t, client.DeleteNode(ctx, a[0]), backend.ErrUnavailable)
}
