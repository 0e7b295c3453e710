package accel

import (
	"fmt"
	"math"

	"github.com/relabs-tech/inertial_pdr/internal/sensor"
)

const (
	DefaultGravityAlpha  = 0.99
	DefaultHighPassAlpha = 0.9
)

// HighPass removes gravity from the vertical axis with a slow running
// estimate, then smooths the remainder with a single-pole filter:
//
//	g      = ga*g + (1-ga)*z
//	linear = z - g
//	hp     = a*hp + (1-a)*linear
//
// X and Y pass through unfiltered.
type HighPass struct {
	gravityAlpha float64
	alpha        float64

	gravity float64
	hp      float64
	seeded  bool
	delta   delta
}

// NewHighPass returns a high-pass filter. Both weights must be in [0, 1).
func NewHighPass(gravityAlpha, alpha float64) (*HighPass, error) {
	if gravityAlpha < 0 || gravityAlpha >= 1 {
		return nil, fmt.Errorf("accel: gravity alpha must be in [0,1), got %v", gravityAlpha)
	}
	if alpha < 0 || alpha >= 1 {
		return nil, fmt.Errorf("accel: high-pass alpha must be in [0,1), got %v", alpha)
	}
	return &HighPass{gravityAlpha: gravityAlpha, alpha: alpha}, nil
}

func (h *HighPass) Update(s sensor.AccelerationSample) (Signal, bool) {
	if !s.Finite() {
		return Signal{}, false
	}
	// The estimate starts at the first reading, not at zero.
	if !h.seeded {
		h.gravity = s.Z
		h.seeded = true
	}
	h.gravity = h.gravityAlpha*h.gravity + (1-h.gravityAlpha)*s.Z
	linear := s.Z - h.gravity
	h.hp = h.alpha*h.hp + (1-h.alpha)*linear

	return Signal{
		Timestamp: s.Timestamp,
		X:         s.X,
		Y:         s.Y,
		Z:         h.hp,
		Vertical:  h.hp,
		Magnitude: math.Abs(h.hp),
		Delta:     h.delta.next(s.X, s.Y, h.hp),
	}, true
}

// Gravity returns the current gravity estimate.
func (h *HighPass) Gravity() float64 { return h.gravity }

func (h *HighPass) Reset() {
	h.gravity, h.hp, h.seeded = 0, 0, false
	h.delta = delta{}
}
