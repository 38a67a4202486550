package testbed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberforge/ember/engine/core"
	"github.com/emberforge/ember/engine/renderer/metadata"
)

func pressKey(g *Game, key core.KeyCode) {
	g.HandleEvent(core.EventContext{
		Type:   core.EVENT_CODE_KEY_PRESSED,
		Window: core.NewWindowID(),
		Data:   &core.KeyEvent{KeyCode: key, Pressed: true},
	})
}

func TestGamePhysicsBouncesAtBounds(t *testing.T) {
	g := NewGame("t")

	for i := 0; i < 2000; i++ {
		g.PhysicsUpdate(1.0/120.0, nil)
		require.LessOrEqual(t, g.position.X, float32(10.2))
		require.GreaterOrEqual(t, g.position.X, float32(-10.2))
	}
}

func TestGameSpawnCommand(t *testing.T) {
	g := NewGame("t")
	ctx := &metadata.RenderContext{}

	batch, err := g.Update(0.016, ctx)
	require.NoError(t, err)
	assert.Empty(t, batch)

	pressKey(g, core.KEY_N)
	batch, err = g.Update(0.016, ctx)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, metadata.COMMAND_REQUEST_WINDOW, batch[0].Type)
	require.NotNil(t, batch[0].Window)
	assert.Len(t, batch[0].Window.Bindings, 1)

	// the request is one-shot
	batch, err = g.Update(0.016, ctx)
	require.NoError(t, err)
	assert.Empty(t, batch)
}

func TestGameQuitCommandCarriesHook(t *testing.T) {
	g := NewGame("t")
	ctx := &metadata.RenderContext{}

	pressKey(g, core.KEY_ESCAPE)
	batch, err := g.Update(0.016, ctx)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, metadata.COMMAND_QUIT, batch[0].Type)
	require.NotNil(t, batch[0].PreExit)
	assert.NoError(t, batch[0].PreExit())
}

func TestGameFPSCycle(t *testing.T) {
	g := NewGame("t")
	ctx := &metadata.RenderContext{}

	seen := map[int]bool{}
	for i := 0; i < len(fpsCycle); i++ {
		pressKey(g, core.KEY_F)
		batch, err := g.Update(0.016, ctx)
		require.NoError(t, err)
		require.Len(t, batch, 1)
		require.Equal(t, metadata.COMMAND_SET_TARGET_FPS, batch[0].Type)
		seen[batch[0].FPS] = true
	}
	assert.Len(t, seen, len(fpsCycle))
}

func TestGameViewportToggle(t *testing.T) {
	g := NewGame("t")
	ctx := &metadata.RenderContext{}

	pressKey(g, core.KEY_V)
	batch, err := g.Update(0.016, ctx)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, metadata.COMMAND_RESIZE_VIEWPORT, batch[0].Type)
	assert.Equal(t, uint32(640), batch[0].Width)

	pressKey(g, core.KEY_V)
	batch, err = g.Update(0.016, ctx)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, uint32(1280), batch[0].Width)
}
