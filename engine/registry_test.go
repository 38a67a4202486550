package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberforge/ember/engine/core"
	"github.com/emberforge/ember/engine/renderer/metadata"
)

func TestWindowRegistryDrainPendingOnce(t *testing.T) {
	specs := []*metadata.WindowSpec{
		{Title: "one"},
		{Title: "two"},
	}
	wr := NewWindowRegistry(specs...)

	drained := wr.DrainPending()
	require.Len(t, drained, 2)
	assert.Equal(t, "one", drained[0].Title)

	assert.Nil(t, wr.DrainPending())
}

func TestWindowRegistryRootIsFirstAdded(t *testing.T) {
	wr := NewWindowRegistry()

	_, ok := wr.Root()
	assert.False(t, ok)

	first := core.NewWindowID()
	second := core.NewWindowID()
	require.NoError(t, wr.Add(first, nil, nil))
	require.NoError(t, wr.Add(second, nil, nil))

	root, ok := wr.Root()
	require.True(t, ok)
	assert.Equal(t, first, root)
	assert.True(t, wr.IsRoot(first))
	assert.False(t, wr.IsRoot(second))
}

func TestWindowRegistryRejectsDuplicateID(t *testing.T) {
	wr := NewWindowRegistry()
	id := core.NewWindowID()

	require.NoError(t, wr.Add(id, nil, nil))
	assert.Error(t, wr.Add(id, nil, nil))
	assert.Equal(t, 1, wr.Len())
}

func TestWindowRegistryRemovePreservesOthers(t *testing.T) {
	wr := NewWindowRegistry()
	ids := []core.WindowID{core.NewWindowID(), core.NewWindowID(), core.NewWindowID()}
	for _, id := range ids {
		require.NoError(t, wr.Add(id, nil, []string{"h_" + id.String()}))
	}

	entry, ok := wr.Remove(ids[1])
	require.True(t, ok)
	assert.Equal(t, ids[1], entry.id)
	assert.Equal(t, 2, wr.Len())
	assert.Equal(t, []core.WindowID{ids[0], ids[2]}, wr.Order())

	_, ok = wr.Remove(ids[1])
	assert.False(t, ok)

	// root stays put even when a non-root entry leaves
	assert.True(t, wr.IsRoot(ids[0]))
}

func TestWindowRegistryOrderIsACopy(t *testing.T) {
	wr := NewWindowRegistry()
	id := core.NewWindowID()
	require.NoError(t, wr.Add(id, nil, nil))

	order := wr.Order()
	order[0] = core.NewWindowID()
	assert.Equal(t, []core.WindowID{id}, wr.Order())
}
