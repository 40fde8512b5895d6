package scale

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFilter = FilterConfig{ZeroThreshold: 0.1, StabilityThreshold: 0.1}

func TestStabilizeBelowZeroThresholdIsStableZero(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		prev := Reading{
			Weight:     rng.Float64() * 10,
			Stable:     rng.Intn(2) == 0,
			TareOffset: rng.Float64() * 0.5,
		}
		raw := rng.Float64()*0.2 - 0.1 // [-0.1, 0.1)
		got := Stabilize(prev, raw, testFilter)
		require.Equal(t, 0.0, got.Weight, "raw=%v prev=%+v", raw, prev)
		require.True(t, got.Stable, "raw=%v prev=%+v", raw, prev)
		require.Equal(t, prev.TareOffset, got.TareOffset)
	}
}

func TestStabilizeAppliesTareAndRounds(t *testing.T) {
	prev := Reading{Weight: 1.0, TareOffset: 0.5}
	got := Stabilize(prev, 1.5349, testFilter)
	assert.Equal(t, 1.03, got.Weight)
	assert.True(t, got.Stable)
	assert.Equal(t, 0.5, got.TareOffset)
}

func TestStabilizeTaredEmptyPlatformIsStableZero(t *testing.T) {
	prev := Reading{TareOffset: 0.5}
	got := Stabilize(prev, 0.52, FilterConfig{ZeroThreshold: 0.1, StabilityThreshold: 0.02})
	assert.Equal(t, 0.0, got.Weight)
	assert.True(t, got.Stable)
}

func TestStabilizeLargeJumpIsUnstable(t *testing.T) {
	prev := Reading{Weight: 0.4}
	got := Stabilize(prev, 1.4, testFilter)
	assert.False(t, got.Stable)
	assert.Equal(t, 1.4, got.Weight)
}

func TestStabilizeConvergingSequenceSettles(t *testing.T) {
	cfg := FilterConfig{ZeroThreshold: 0.1, StabilityThreshold: 0.02}
	state := Reading{}
	raw := 0.0
	target := 1.5
	settledAt := -1
	for i := 0; i < 200; i++ {
		raw += (target - raw) * 0.1
		state = Stabilize(state, raw, cfg)
		if state.Stable && settledAt < 0 && raw > 1.4 {
			settledAt = i
		}
		if settledAt >= 0 {
			require.True(t, state.Stable, "tick %d regressed to unstable after settling", i)
		}
	}
	require.GreaterOrEqual(t, settledAt, 0, "sequence never settled")
	assert.InDelta(t, target, state.Weight, 0.01)
}

func TestStabilizeStaysStableWithinThreshold(t *testing.T) {
	cfg := FilterConfig{ZeroThreshold: 0.1, StabilityThreshold: 0.1}
	state := Reading{Weight: 2.0}
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		raw := state.Weight + (rng.Float64()*2-1)*0.04
		state = Stabilize(state, raw, cfg)
		require.True(t, state.Stable, "tick %d raw=%v", i, raw)
	}
}

func TestStabilizeWeightNeverNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	state := Reading{TareOffset: 0.3}
	for i := 0; i < 1000; i++ {
		state = Stabilize(state, rng.Float64()*4-1, testFilter)
		require.GreaterOrEqual(t, state.Weight, 0.0)
	}
}
