package node_test

import (
	"testing"
	"time"

	"github.com/arbor-sh/arbor/pkg/outline/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadAccessors(t *testing.T) {
	task := node.Node{ID: "t", Type: node.TypeTask, Payload: node.Task{Status: node.StatusOpen}}
	note := node.Node{ID: "n", Type: node.TypeNote, Payload: node.Note{Body: "text"}}

	t.Run("matching variant", func(t *testing.T) {
		payload, ok := task.Task()
		require.True(t, ok)
		assert.Equal(t, node.StatusOpen, payload.Status)
	})

	t.Run("mismatched variant", func(t *testing.T) {
		_, ok := task.Note()
		assert.False(t, ok)
		_, ok = note.Task()
		assert.False(t, ok)
	})

	t.Run("nil payload", func(t *testing.T) {
		bare := node.Node{ID: "b", Type: node.TypeTask}
		_, ok := bare.Task()
		assert.False(t, ok)
	})
}

func TestCompleted(t *testing.T) {
	now := time.Now()
	done := node.Node{Type: node.TypeTask, Payload: node.Task{Status: node.StatusDone, CompletedAt: &now}}
	open := node.Node{Type: node.TypeTask, Payload: node.Task{Status: node.StatusOpen}}
	folder := node.Node{Type: node.TypeFolder, Payload: node.Folder{}}

	assert.True(t, done.Completed())
	assert.False(t, open.Completed())
	assert.False(t, folder.Completed(), "only tasks can be completed")
}

func TestIsRoot(t *testing.T) {
	assert.True(t, node.Node{ID: "a"}.IsRoot())
	assert.False(t, node.Node{ID: "a", ParentID: "p"}.IsRoot())
}

func TestHasTag(t *testing.T) {
	n := node.Node{Tags: []string{"work", "urgent"}}
	assert.True(t, n.HasTag("urgent"))
	assert.False(t, n.HasTag("home"))
	assert.False(t, node.Node{}.HasTag("work"))
}
