package core

import (
	"time"

	"github.com/emberforge/ember/engine/math"
)

// MaxFrameDelta is the longest frame delta folded into the accumulator in a
// single Consume call. Anything above it (debugger pause, window drag, long
// stall) is treated as lost wall-clock time, not simulation time.
const MaxFrameDelta = 250 * time.Millisecond

const (
	DefaultStepsPerSecond = 120.0
	DefaultMaxSteps       = 4
)

// FixedTimestep converts variable frame deltas into zero or more fixed-size
// simulation steps. One instance exists per window that runs simulation; it
// is additive and never reset after construction.
type FixedTimestep struct {
	accumulator time.Duration
	step        time.Duration
	maxSteps    int
}

func NewFixedTimestep(stepsPerSecond float64, maxSteps int) *FixedTimestep {
	if stepsPerSecond <= 0 {
		stepsPerSecond = DefaultStepsPerSecond
	}
	if maxSteps < 1 {
		maxSteps = 1
	}
	return &FixedTimestep{
		step:     time.Duration(float64(time.Second) / stepsPerSecond),
		maxSteps: maxSteps,
	}
}

func (ft *FixedTimestep) StepSize() time.Duration {
	return ft.step
}

func (ft *FixedTimestep) MaxSteps() int {
	return ft.maxSteps
}

// Accumulated returns the leftover time carried into the next frame.
func (ft *FixedTimestep) Accumulated() time.Duration {
	return ft.accumulator
}

// Consume folds frameDelta into the accumulator and invokes stepFn once per
// whole step, at most maxSteps times, in increasing time order. Returns the
// number of steps taken.
//
// When the step cap is hit, whole steps still left in the accumulator are
// discarded: the leftover is reduced below one step size. Simulation slows
// down under sustained overload instead of inflating every following frame
// with catch-up work.
func (ft *FixedTimestep) Consume(frameDelta time.Duration, stepFn func(step time.Duration)) int {
	ft.accumulator += math.Clamp(frameDelta, 0, MaxFrameDelta)

	steps := 0
	for ft.accumulator >= ft.step && steps < ft.maxSteps {
		stepFn(ft.step)
		ft.accumulator -= ft.step
		steps++
	}

	if steps == ft.maxSteps && ft.accumulator >= ft.step {
		ft.accumulator %= ft.step
	}
	return steps
}
