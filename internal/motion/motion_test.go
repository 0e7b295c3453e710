package motion

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/inertial_pdr/internal/step"
)

func newIntegrator(t *testing.T, cfg Config) *Integrator {
	t.Helper()
	m, err := NewIntegrator(cfg, 1000, 1000)
	require.NoError(t, err)
	return m
}

func TestStepThenDecay(t *testing.T) {
	m := newIntegrator(t, Config{StepSize: 5, Decay: 0.9, Epsilon: 0.01, Margin: 20})

	m.OnStep(step.Event{Heading: 0})
	assert.InDelta(t, 0, m.Velocity().X, 1e-12)
	assert.InDelta(t, 5, m.Velocity().Y, 1e-12)

	m.Tick()
	assert.InDelta(t, 0, m.Position().X, 1e-12)
	assert.InDelta(t, 5, m.Position().Y, 1e-12)
	assert.InDelta(t, 4.5, m.Velocity().Y, 1e-12)

	for i := 0; i < 50; i++ {
		m.Tick()
	}
	assert.InDelta(t, 0, m.Velocity().Len(), 0.05)

	settled := m.Position()
	for i := 0; i < 100; i++ {
		m.Tick()
	}
	assert.Equal(t, Vec2{}, m.Velocity())
	assert.InDelta(t, settled.Y, m.Position().Y, 0.5)
	// Total distance is the geometric series 5 / (1 - 0.9), minus the snapped tail.
	assert.InDelta(t, 50, m.Position().Y, 0.1)
}

func TestHeadingConvention(t *testing.T) {
	tests := []struct {
		heading float64
		want    Vec2
	}{
		{0, Vec2{0, 1}},
		{90, Vec2{1, 0}},
		{180, Vec2{0, -1}},
		{270, Vec2{-1, 0}},
	}
	for _, tt := range tests {
		m := newIntegrator(t, Config{StepSize: 1, Decay: 0.5, Epsilon: 0})
		m.OnStep(step.Event{Heading: tt.heading})
		assert.InDelta(t, tt.want.X, m.Velocity().X, 1e-12, "heading %v", tt.heading)
		assert.InDelta(t, tt.want.Y, m.Velocity().Y, 1e-12, "heading %v", tt.heading)
	}
}

func TestDecayReachesExactZero(t *testing.T) {
	m := newIntegrator(t, DefaultConfig())
	m.OnStep(step.Event{Heading: 33})
	m.OnStep(step.Event{Heading: 250})

	prev := m.Velocity().Len()
	ticks := 0
	for m.Velocity() != (Vec2{}) {
		m.Tick()
		cur := m.Velocity().Len()
		require.Less(t, cur, prev)
		prev = cur
		ticks++
		require.Less(t, ticks, 200, "velocity never reached zero")
	}

	p := m.Position()
	m.Tick()
	assert.Equal(t, p, m.Position(), "fixed point once at rest")
}

func TestPositionAlwaysInBounds(t *testing.T) {
	m, err := NewIntegrator(Config{StepSize: 40, Decay: 0.95, Epsilon: 0.01, Margin: 20}, 390, 844)
	require.NoError(t, err)
	bound := m.Bound()
	assert.Equal(t, Vec2{X: 175, Y: 402}, bound)

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 5000; i++ {
		if rng.Intn(3) == 0 {
			m.OnStep(step.Event{Heading: rng.Float64() * 360})
		}
		m.Tick()
		p := m.Position()
		require.LessOrEqual(t, math.Abs(p.X), bound.X)
		require.LessOrEqual(t, math.Abs(p.Y), bound.Y)
	}
}

func TestViewportShrinkReclamps(t *testing.T) {
	m := newIntegrator(t, Config{StepSize: 100, Decay: 0.5, Epsilon: 0.01, Margin: 20})
	m.OnStep(step.Event{Heading: 90})
	m.Tick()
	assert.InDelta(t, 100, m.Position().X, 1e-12)

	m.SetViewport(100, 100)
	m.Tick()
	assert.InDelta(t, 30, m.Position().X, 1e-12)

	m.SetViewport(10, 10)
	m.Tick()
	assert.Equal(t, 0.0, m.Position().X, "bound never goes negative")
}

func TestNonFiniteHeadingIgnored(t *testing.T) {
	m := newIntegrator(t, DefaultConfig())
	m.OnStep(step.Event{Heading: math.NaN()})
	m.OnStep(step.Event{Heading: math.Inf(1)})
	assert.Equal(t, Vec2{}, m.Velocity())
}

func TestConfigValidation(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	tests := []struct {
		name string
		cfg  Config
	}{
		{"decay of one", Config{StepSize: 3, Decay: 1}},
		{"nan decay", Config{StepSize: 3, Decay: nan}},
		{"negative epsilon", Config{StepSize: 3, Decay: 0.9, Epsilon: -1}},
		{"nan epsilon", Config{StepSize: 3, Decay: 0.9, Epsilon: nan}},
		{"negative step size", Config{StepSize: -3, Decay: 0.9}},
		{"nan step size", Config{StepSize: nan, Decay: 0.9}},
		{"infinite step size", Config{StepSize: inf, Decay: 0.9}},
		{"nan margin", Config{StepSize: 3, Decay: 0.9, Margin: nan}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIntegrator(tt.cfg, 100, 100)
			assert.Error(t, err)
		})
	}

	_, err := NewIntegrator(DefaultConfig(), 100, 100)
	assert.NoError(t, err)
}

func TestReset(t *testing.T) {
	m := newIntegrator(t, DefaultConfig())
	m.OnStep(step.Event{Heading: 10})
	m.Tick()
	m.Reset()
	assert.Equal(t, Vec2{}, m.Position())
	assert.Equal(t, Vec2{}, m.Velocity())
}
