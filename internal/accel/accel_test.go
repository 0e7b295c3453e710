package accel

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/inertial_pdr/internal/sensor"
)

func sample(x, y, z float64, ts int64) sensor.AccelerationSample {
	return sensor.AccelerationSample{X: x, Y: y, Z: z, Timestamp: ts}
}

func TestMovingAverageConstantInput(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, size := range []int{1, 3, 4, 5} {
		for _, v := range []float64{0.7, 0.1, -9.81} {
			m, err := NewMovingAverage(size)
			require.NoError(t, err)

			// A long varied prefix must leave no residue in the mean.
			for i := 0; i < 1000; i++ {
				m.Update(sample(rng.NormFloat64()*5, rng.NormFloat64()*5, 9.81+rng.NormFloat64()*5, int64(i)))
			}

			var sig Signal
			for i := 0; i < 10*size; i++ {
				var ok bool
				sig, ok = m.Update(sample(v, v, v, int64(1000+i)))
				require.True(t, ok)
			}
			assert.Equal(t, v, sig.X, "size %d", size)
			assert.Equal(t, v, sig.Y, "size %d", size)
			assert.Equal(t, v, sig.Z, "size %d", size)
			assert.Equal(t, v, sig.Vertical, "size %d", size)
			assert.Equal(t, 0.0, sig.Delta, "size %d", size)
		}
	}
}

func TestMovingAverageEvictsOldest(t *testing.T) {
	m, err := NewMovingAverage(3)
	require.NoError(t, err)

	for i, z := range []float64{3, 6, 9} {
		m.Update(sample(0, 0, z, int64(i)))
	}
	sig, _ := m.Update(sample(0, 0, 12, 3))
	assert.InDelta(t, 9, sig.Z, 1e-12, "mean of 6, 9, 12")
	assert.InDelta(t, 9, sig.Magnitude, 1e-12)
	assert.Equal(t, int64(3), sig.Timestamp)
}

func TestMovingAveragePartialWindow(t *testing.T) {
	m, _ := NewMovingAverage(5)
	m.Update(sample(0, 0, 2, 0))
	sig, _ := m.Update(sample(0, 0, 4, 1))
	assert.InDelta(t, 3, sig.Z, 1e-12)
}

func TestMovingAverageDelta(t *testing.T) {
	m, _ := NewMovingAverage(1)
	first, _ := m.Update(sample(0, 0, 0, 0))
	assert.Equal(t, 0.0, first.Delta)

	sig, _ := m.Update(sample(3, 4, 12, 1))
	assert.InDelta(t, 13, sig.Delta, 1e-12)
}

func TestMovingAverageSkipsNonFinite(t *testing.T) {
	m, _ := NewMovingAverage(2)
	m.Update(sample(0, 0, 4, 0))

	_, ok := m.Update(sample(math.NaN(), 0, 0, 1))
	assert.False(t, ok)
	_, ok = m.Update(sample(0, math.Inf(-1), 0, 2))
	assert.False(t, ok)

	sig, ok := m.Update(sample(0, 0, 4, 3))
	require.True(t, ok)
	assert.InDelta(t, 4, sig.Z, 1e-12, "NaN must not reach the window")
}

func TestMovingAverageReset(t *testing.T) {
	m, _ := NewMovingAverage(3)
	m.Update(sample(0, 0, 100, 0))
	m.Reset()
	sig, _ := m.Update(sample(0, 0, 1, 1))
	assert.InDelta(t, 1, sig.Z, 1e-12)
	assert.Equal(t, 0.0, sig.Delta)
}

func TestNewMovingAverageRejectsEmptyWindow(t *testing.T) {
	_, err := NewMovingAverage(0)
	assert.Error(t, err)
}

func TestHighPassRemovesGravity(t *testing.T) {
	h, err := NewHighPass(DefaultGravityAlpha, DefaultHighPassAlpha)
	require.NoError(t, err)

	var sig Signal
	for i := 0; i < 500; i++ {
		sig, _ = h.Update(sample(0, 0, 9.81, int64(i)))
	}
	assert.InDelta(t, 9.81, h.Gravity(), 1e-9)
	assert.InDelta(t, 0, sig.Vertical, 1e-9)
	assert.InDelta(t, 0, sig.Magnitude, 1e-9)
}

func TestHighPassFollowsFormula(t *testing.T) {
	h, _ := NewHighPass(0.99, 0.9)
	h.Update(sample(0, 0, 10, 0))

	sig, _ := h.Update(sample(0, 0, 12, 1))
	g := 0.99*10 + 0.01*12
	hp := 0.1 * (12 - g)
	assert.InDelta(t, g, h.Gravity(), 1e-12)
	assert.InDelta(t, hp, sig.Vertical, 1e-12)
	assert.InDelta(t, math.Abs(hp), sig.Magnitude, 1e-12)
}

func TestHighPassPreservesZeroCrossings(t *testing.T) {
	h, _ := NewHighPass(DefaultGravityAlpha, DefaultHighPassAlpha)
	crossings := 0
	prev := 0.0
	for i := 0; i < 2000; i++ {
		tSec := float64(i) / 100
		z := 9.81 + 3*math.Sin(2*math.Pi*1.8*tSec)
		sig, _ := h.Update(sample(0, 0, z, int64(i*10)))
		if i > 200 && prev < 0 && sig.Vertical >= 0 {
			crossings++
		}
		prev = sig.Vertical
	}
	// 18 s of 1.8 Hz motion after the settle period.
	assert.InDelta(t, 32, crossings, 2)
}

func TestNew(t *testing.T) {
	f, err := New(DefaultOptions())
	require.NoError(t, err)
	assert.IsType(t, &MovingAverage{}, f)

	f, err = New(Options{Kind: KindHighPass, GravityAlpha: 0.99, HighPassAlpha: 0.9})
	require.NoError(t, err)
	assert.IsType(t, &HighPass{}, f)

	_, err = New(Options{Kind: "kalman"})
	assert.Error(t, err)

	_, err = New(Options{Kind: KindHighPass, GravityAlpha: 1, HighPassAlpha: 0.9})
	assert.Error(t, err)
}
