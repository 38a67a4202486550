package testbed

import (
	"context"
	"fmt"
	"time"

	"github.com/emberforge/ember/engine/core"
	"github.com/emberforge/ember/engine/jobs"
	"github.com/emberforge/ember/engine/math"
	"github.com/emberforge/ember/engine/renderer/metadata"
)

var fpsCycle = []int{30, 60, 120, 240}

// Game is a minimal content binding used to exercise the engine: it moves a
// body with fixed-step physics, loads a fake asset through the job bridge
// and emits window commands from key presses.
type Game struct {
	name     string
	windowID core.WindowID

	keyboardName   string
	mouseName      string
	controllerName string

	position math.Vec3
	velocity math.Vec3

	loadHandle jobs.Handle
	loading    bool

	fpsIndex int

	spawnRequested    bool
	closeRequested    bool
	quitRequested     bool
	fpsCycleRequested bool
	viewportToggle    bool
	viewportSmall     bool

	spawned int
}

func NewGame(name string) *Game {
	return &Game{
		name:     name,
		velocity: math.NewVec3(1, 0, 0),
		fpsIndex: 1,
	}
}

func (g *Game) Name() string {
	return g.name
}

func (g *Game) AttachInput(keyboard, mouse, controller string) {
	g.keyboardName = keyboard
	g.mouseName = mouse
	g.controllerName = controller
	core.LogDebug("%s attached as %s/%s/%s", g.name, keyboard, mouse, controller)
}

func (g *Game) HandleEvent(event core.EventContext) {
	switch event.Type {
	case core.EVENT_CODE_KEY_PRESSED:
		ev, ok := event.Data.(*core.KeyEvent)
		if !ok {
			return
		}
		g.windowID = event.Window
		switch ev.KeyCode {
		case core.KEY_N:
			g.spawnRequested = true
		case core.KEY_W:
			g.closeRequested = true
		case core.KEY_ESCAPE:
			g.quitRequested = true
		case core.KEY_F:
			g.fpsCycleRequested = true
		case core.KEY_V:
			g.viewportToggle = true
		}
	case core.EVENT_CODE_RESIZED:
		if ev, ok := event.Data.(*core.SystemEvent); ok {
			core.LogDebug("%s sees resize to %dx%d", g.name, ev.WindowWidth, ev.WindowHeight)
		}
	}
}

func (g *Game) PhysicsUpdate(step float64, ctx *metadata.RenderContext) {
	g.position = g.position.Add(g.velocity.Scale(float32(step)))
	if g.position.X > 10 || g.position.X < -10 {
		g.velocity = g.velocity.Scale(-1)
	}
}

func (g *Game) Update(delta float64, ctx *metadata.RenderContext) (metadata.CommandBatch, error) {
	g.pollAssetLoad(ctx)

	var batch metadata.CommandBatch

	if g.spawnRequested {
		g.spawnRequested = false
		g.spawned++
		child := NewGame(fmt.Sprintf("%s_child%d", g.name, g.spawned))
		batch = append(batch, metadata.RequestWindow(&metadata.WindowSpec{
			Title:  fmt.Sprintf("Ember Testbed %d", g.spawned),
			X:      200,
			Y:      200,
			Width:  640,
			Height: 480,
			Bindings: []metadata.Binding{
				{Name: child.name, Content: child},
			},
		}))
	}
	if g.closeRequested {
		g.closeRequested = false
		batch = append(batch, metadata.CloseWindow(g.windowID))
	}
	if g.fpsCycleRequested {
		g.fpsCycleRequested = false
		g.fpsIndex = (g.fpsIndex + 1) % len(fpsCycle)
		batch = append(batch, metadata.SetTargetFPS(fpsCycle[g.fpsIndex]))
	}
	if g.viewportToggle {
		g.viewportToggle = false
		g.viewportSmall = !g.viewportSmall
		if g.viewportSmall {
			batch = append(batch, metadata.ResizeViewport(640, 360))
		} else {
			batch = append(batch, metadata.ResizeViewport(1280, 720))
		}
	}
	if g.quitRequested {
		g.quitRequested = false
		batch = append(batch, metadata.Quit(func() error {
			core.LogInfo("%s says goodbye at x=%.2f", g.name, g.position.X)
			return nil
		}))
	}
	return batch, nil
}

// pollAssetLoad pushes a fake scene load once and exchanges its result when
// it lands, caching it in the shared resource registry.
func (g *Game) pollAssetLoad(ctx *metadata.RenderContext) {
	if ctx.Jobs == nil {
		return
	}
	key := g.name + "/scene"
	if !g.loading {
		if _, ok := ctx.Resources.Get(key); ok {
			return
		}
		g.loading = true
		g.loadHandle = ctx.Jobs.Push(func(c context.Context) (interface{}, error) {
			select {
			case <-time.After(50 * time.Millisecond):
				return fmt.Sprintf("scene data for %s", g.name), nil
			case <-c.Done():
				return nil, c.Err()
			}
		})
		return
	}
	if scene, ok := jobs.ExchangeAs[string](ctx.Jobs, g.loadHandle); ok {
		ctx.Resources.Set(key, scene)
		g.loading = false
		core.LogInfo("%s loaded %q", g.name, scene)
	}
}

func (g *Game) Render(ctx *metadata.RenderContext) error {
	// draw work for the body would be recorded here
	return nil
}
