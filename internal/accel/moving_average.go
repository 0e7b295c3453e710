package accel

import (
	"fmt"
	"math"

	"github.com/relabs-tech/inertial_pdr/internal/sensor"
)

// MovingAverage averages each axis over the last Window samples.
type MovingAverage struct {
	window [3][]float64
	size   int
	next   int
	count  int
	delta  delta
}

// NewMovingAverage returns a moving average over size samples. A size of 1
// passes samples through unchanged.
func NewMovingAverage(size int) (*MovingAverage, error) {
	if size < 1 {
		return nil, fmt.Errorf("accel: moving average window must be >= 1, got %d", size)
	}
	m := &MovingAverage{size: size}
	for i := range m.window {
		m.window[i] = make([]float64, size)
	}
	return m, nil
}

// Update pushes s, evicting the oldest sample once the window is full, and
// returns the per-axis means.
func (m *MovingAverage) Update(s sensor.AccelerationSample) (Signal, bool) {
	if !s.Finite() {
		return Signal{}, false
	}
	m.window[0][m.next] = s.X
	m.window[1][m.next] = s.Y
	m.window[2][m.next] = s.Z
	m.next = (m.next + 1) % m.size
	if m.count < m.size {
		m.count++
	}

	x, y, z := m.mean(0, s.X), m.mean(1, s.Y), m.mean(2, s.Z)
	return Signal{
		Timestamp: s.Timestamp,
		X:         x,
		Y:         y,
		Z:         z,
		Vertical:  z,
		Magnitude: math.Sqrt(x*x + y*y + z*z),
		Delta:     m.delta.next(x, y, z),
	}, true
}

// mean averages the filled part of one axis as offsets from ref, the newest
// value, so a window of identical values returns that value exactly.
func (m *MovingAverage) mean(axis int, ref float64) float64 {
	var off float64
	for _, v := range m.window[axis][:m.count] {
		off += v - ref
	}
	return ref + off/float64(m.count)
}

func (m *MovingAverage) Reset() {
	for i := range m.window {
		clear(m.window[i])
	}
	m.next, m.count = 0, 0
	m.delta = delta{}
}
