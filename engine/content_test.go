package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberforge/ember/engine/core"
	"github.com/emberforge/ember/engine/renderer/metadata"
)

type recordingContent struct {
	attachCalls int
	keyboard    string
	mouse       string
	controller  string
	events      []core.EventContext
}

func (c *recordingContent) Update(delta float64, ctx *metadata.RenderContext) (metadata.CommandBatch, error) {
	return nil, nil
}

func (c *recordingContent) PhysicsUpdate(step float64, ctx *metadata.RenderContext) {}

func (c *recordingContent) Render(ctx *metadata.RenderContext) error { return nil }

func (c *recordingContent) HandleEvent(event core.EventContext) {
	c.events = append(c.events, event)
}

func (c *recordingContent) AttachInput(keyboard, mouse, controller string) {
	c.attachCalls++
	c.keyboard = keyboard
	c.mouse = mouse
	c.controller = controller
}

func TestAttachBindingsRegistersHandlerTriples(t *testing.T) {
	for _, n := range []int{0, 1, 3} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			e := newTestEngine(t)

			spec := &metadata.WindowSpec{Title: "test"}
			contents := make([]*recordingContent, n)
			for i := range contents {
				contents[i] = &recordingContent{}
				spec.Bindings = append(spec.Bindings, metadata.Binding{
					Name:    fmt.Sprintf("content%d", i),
					Content: contents[i],
				})
			}

			names, err := e.attachBindings(nil, spec, core.NewWindowID())
			require.NoError(t, err)
			assert.Len(t, names, 3*n)

			kb, m, ctl := e.input.HandlerCount()
			assert.Equal(t, n, kb)
			assert.Equal(t, n, m)
			assert.Equal(t, n, ctl)

			for i, c := range contents {
				assert.Equal(t, 1, c.attachCalls)
				assert.Equal(t, fmt.Sprintf("content%d_keyboard", i), c.keyboard)
				assert.Equal(t, fmt.Sprintf("content%d_mouse", i), c.mouse)
				assert.Equal(t, fmt.Sprintf("content%d_controller", i), c.controller)
				assert.True(t, e.input.HasKeyboard(c.keyboard))
				assert.True(t, e.input.HasMouse(c.mouse))
				assert.True(t, e.input.HasController(c.controller))
			}
		})
	}
}

func TestAttachBindingsCollidingNames(t *testing.T) {
	e := newTestEngine(t)

	spec := &metadata.WindowSpec{
		Bindings: []metadata.Binding{
			{Name: "same", Content: &recordingContent{}},
			{Name: "same", Content: &recordingContent{}},
		},
	}

	_, err := e.attachBindings(nil, spec, core.NewWindowID())
	assert.Error(t, err)
}

func TestAttachBindingsActivatesInitialBinding(t *testing.T) {
	e := newTestEngine(t)

	first := &recordingContent{}
	second := &recordingContent{}
	spec := &metadata.WindowSpec{
		Bindings: []metadata.Binding{
			{Name: "editor", Content: first},
			{Name: "game", Content: second},
		},
		ActiveBinding: "game",
	}

	_, err := e.attachBindings(nil, spec, core.NewWindowID())
	require.NoError(t, err)

	// only the active binding's keyboard handler receives the key
	e.input.ProcessKey(core.KEY_SPACE, true)
	assert.Empty(t, first.events)
	require.Len(t, second.events, 1)
	assert.Equal(t, core.EVENT_CODE_KEY_PRESSED, second.events[0].Type)
}
