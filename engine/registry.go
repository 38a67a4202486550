package engine

import (
	"fmt"

	"github.com/emberforge/ember/engine/core"
	"github.com/emberforge/ember/engine/renderer"
	"github.com/emberforge/ember/engine/renderer/metadata"
)

// windowEntry ties a live window to its surface and to the input handler
// names its bindings registered, so closing the window can unregister them.
type windowEntry struct {
	id           core.WindowID
	surface      *renderer.Surface
	handlerNames []string
}

// WindowRegistry tracks every live window in creation order. The first
// window added becomes the root window; closing the root quits the
// application. Startup window specs are staged as pending until the loop
// drains them on its first iteration.
type WindowRegistry struct {
	entries map[core.WindowID]*windowEntry
	order   []core.WindowID

	root    core.WindowID
	hasRoot bool

	pending []*metadata.WindowSpec
	drained bool
}

func NewWindowRegistry(pending ...*metadata.WindowSpec) *WindowRegistry {
	return &WindowRegistry{
		entries: make(map[core.WindowID]*windowEntry),
		pending: pending,
	}
}

// DrainPending hands out the staged startup specs exactly once.
func (wr *WindowRegistry) DrainPending() []*metadata.WindowSpec {
	if wr.drained {
		return nil
	}
	wr.drained = true
	pending := wr.pending
	wr.pending = nil
	return pending
}

// Add registers a live window. The first registered window becomes root.
func (wr *WindowRegistry) Add(id core.WindowID, surface *renderer.Surface, handlerNames []string) error {
	if _, exists := wr.entries[id]; exists {
		return fmt.Errorf("window %s already registered", id)
	}
	wr.entries[id] = &windowEntry{id: id, surface: surface, handlerNames: handlerNames}
	wr.order = append(wr.order, id)
	if !wr.hasRoot {
		wr.root = id
		wr.hasRoot = true
	}
	return nil
}

// Remove drops the window and returns its entry for teardown. The root slot
// is never reassigned; once the root window is gone the application is
// already quitting.
func (wr *WindowRegistry) Remove(id core.WindowID) (*windowEntry, bool) {
	entry, ok := wr.entries[id]
	if !ok {
		return nil, false
	}
	delete(wr.entries, id)
	for i, other := range wr.order {
		if other == id {
			wr.order = append(wr.order[:i], wr.order[i+1:]...)
			break
		}
	}
	return entry, true
}

func (wr *WindowRegistry) Get(id core.WindowID) (*windowEntry, bool) {
	entry, ok := wr.entries[id]
	return entry, ok
}

func (wr *WindowRegistry) Len() int {
	return len(wr.entries)
}

// Order returns the live window ids in creation order. The slice is a copy;
// callers iterate it while closing windows mid-frame.
func (wr *WindowRegistry) Order() []core.WindowID {
	out := make([]core.WindowID, len(wr.order))
	copy(out, wr.order)
	return out
}

func (wr *WindowRegistry) Root() (core.WindowID, bool) {
	return wr.root, wr.hasRoot
}

func (wr *WindowRegistry) IsRoot(id core.WindowID) bool {
	return wr.hasRoot && wr.root == id
}
