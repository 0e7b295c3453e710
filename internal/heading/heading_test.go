package heading

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/inertial_pdr/internal/sensor"
)

func compass(v float64) sensor.OrientationSample {
	return sensor.OrientationSample{CompassHeading: sensor.Float(v)}
}

func TestRaw(t *testing.T) {
	tests := []struct {
		name   string
		sample sensor.OrientationSample
		want   float64
		ok     bool
	}{
		{"compass wins", sensor.OrientationSample{CompassHeading: sensor.Float(42), Alpha: sensor.Float(10)}, 42, true},
		{"alpha mirrored", sensor.OrientationSample{Alpha: sensor.Float(90)}, 270, true},
		{"alpha zero is north", sensor.OrientationSample{Alpha: sensor.Float(0)}, 0, true},
		{"compass wraps", compass(725), 5, true},
		{"nan compass falls back to alpha", sensor.OrientationSample{CompassHeading: sensor.Float(math.NaN()), Alpha: sensor.Float(350)}, 10, true},
		{"missing", sensor.OrientationSample{}, 0, false},
		{"inf alpha", sensor.OrientationSample{Alpha: sensor.Float(math.Inf(1))}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Raw(tt.sample)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestFilterSmoothing(t *testing.T) {
	f := NewFilter(0.85)

	h, ok := f.Update(compass(100))
	require.True(t, ok)
	assert.InDelta(t, 100, h, 1e-9, "first sample seeds the filter")

	h, ok = f.Update(compass(200))
	require.True(t, ok)
	assert.InDelta(t, 100*0.85+200*0.15, h, 1e-9)
}

func TestFilterIgnoresMissingField(t *testing.T) {
	f := NewFilter(0.5)
	f.Update(compass(30))

	h, ok := f.Update(sensor.OrientationSample{})
	assert.False(t, ok)
	assert.InDelta(t, 30, h, 1e-9)

	h, ok = f.Update(compass(math.NaN()))
	assert.False(t, ok)
	assert.InDelta(t, 30, h, 1e-9)
	assert.InDelta(t, 30, f.Heading(), 1e-9)
}

func TestFilterWraparoundStaysInRange(t *testing.T) {
	f := NewFilter(DefaultSmoothing)
	for i := 0; i < 1000; i++ {
		v := 359.0
		if i%2 == 1 {
			v = 1
		}
		h, _ := f.Update(compass(v))
		require.GreaterOrEqual(t, h, 0.0)
		require.Less(t, h, 360.0)
		assert.LessOrEqual(t, math.Abs(Delta(0, h)), 1.0, "heading should stay near north, got %v", h)
	}
}

func TestFilterCrossesNorthTheShortWay(t *testing.T) {
	f := NewFilter(0.5)
	f.Update(compass(350))
	h, _ := f.Update(compass(10))
	assert.InDelta(t, 0, Delta(0, h), 1e-9)
}

func TestNormalize(t *testing.T) {
	for _, v := range []float64{-720, -360, -1e-14, -0.5, 0, 359.999, 360, 1e6, -1e6} {
		n := Normalize(v)
		assert.GreaterOrEqual(t, n, 0.0, "Normalize(%v)", v)
		assert.Less(t, n, 360.0, "Normalize(%v)", v)
	}
	assert.InDelta(t, 359.5, Normalize(-0.5), 1e-9)
}

func TestDelta(t *testing.T) {
	assert.InDelta(t, 20, Delta(350, 10), 1e-9)
	assert.InDelta(t, -20, Delta(10, 350), 1e-9)
	assert.InDelta(t, 180, Delta(0, 180), 1e-9)
}

func TestNewFilterRejectsBadFactor(t *testing.T) {
	assert.Equal(t, DefaultSmoothing, NewFilter(1.5).k)
	assert.Equal(t, DefaultSmoothing, NewFilter(-0.1).k)
	assert.Equal(t, 0.0, NewFilter(0).k)
}
