package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedTimestepDefaults(t *testing.T) {
	ft := NewFixedTimestep(0, 0)
	stepsPerSecond := float64(DefaultStepsPerSecond)
	assert.Equal(t, time.Duration(float64(time.Second)/stepsPerSecond), ft.StepSize())
	assert.Equal(t, 1, ft.MaxSteps())
}

func TestFixedTimestepStepCount(t *testing.T) {
	ft := NewFixedTimestep(120, 4)
	step := ft.StepSize()

	steps := ft.Consume(step*2+step/2, func(d time.Duration) {
		assert.Equal(t, step, d)
	})
	assert.Equal(t, 2, steps)
	assert.Equal(t, step/2, ft.Accumulated())

	// leftover carries over into the next frame
	steps = ft.Consume(step/2, func(time.Duration) {})
	assert.Equal(t, 1, steps)
	assert.Equal(t, time.Duration(0), ft.Accumulated())
}

func TestFixedTimestepNeverExceedsMaxSteps(t *testing.T) {
	ft := NewFixedTimestep(120, 4)

	ran := 0
	steps := ft.Consume(time.Second, func(time.Duration) { ran++ })
	assert.Equal(t, 4, steps)
	assert.Equal(t, 4, ran)
}

func TestFixedTimestepClampsFrameDelta(t *testing.T) {
	ft := NewFixedTimestep(10, 100)

	// one minute of stall folds in as 250ms, not 60s
	steps := ft.Consume(time.Minute, func(time.Duration) {})
	assert.Equal(t, 2, steps)
	assert.Less(t, ft.Accumulated(), ft.StepSize())
}

func TestFixedTimestepDiscardsBacklogAtCap(t *testing.T) {
	ft := NewFixedTimestep(120, 4)

	// a 250ms frame holds 30 steps worth of time; only 4 run and the rest
	// is discarded
	steps := ft.Consume(250*time.Millisecond, func(time.Duration) {})
	require.Equal(t, 4, steps)
	assert.Less(t, ft.Accumulated(), ft.StepSize())

	// next ordinary frame is not inflated by catch-up work
	steps = ft.Consume(8*time.Millisecond, func(time.Duration) {})
	assert.LessOrEqual(t, steps, 2)
	assert.Less(t, ft.Accumulated(), ft.StepSize())
}

func TestFixedTimestepNegativeDelta(t *testing.T) {
	ft := NewFixedTimestep(120, 4)
	steps := ft.Consume(-time.Second, func(time.Duration) {})
	assert.Equal(t, 0, steps)
	assert.Equal(t, time.Duration(0), ft.Accumulated())
}

func TestFixedTimestepNoUnboundedGrowth(t *testing.T) {
	ft := NewFixedTimestep(120, 4)
	step := ft.StepSize()

	for i := 0; i < 1000; i++ {
		ft.Consume(16*time.Millisecond, func(time.Duration) {})
		require.Less(t, ft.Accumulated(), step)
	}
}
