// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package heading turns raw orientation readings into a smoothed compass
// heading in degrees clockwise from north, normalised to [0, 360).
package heading

import (
	"math"

	"github.com/relabs-tech/inertial_pdr/internal/sensor"
)

// DefaultSmoothing is the weight kept from the previous heading on each update.
const DefaultSmoothing = 0.85

// Filter is an exponential smoother over compass headings.
type Filter struct {
	k        float64
	smoothed float64
	seeded   bool
}

// NewFilter returns a filter with smoothing factor k in [0, 1). Out of range
// values fall back to DefaultSmoothing.
func NewFilter(k float64) *Filter {
	if k < 0 || k >= 1 || math.IsNaN(k) {
		k = DefaultSmoothing
	}
	return &Filter{k: k}
}

// Raw converts a sample to an unsmoothed compass heading. A direct compass
// heading wins; otherwise the counter-clockwise alpha is mirrored.
func Raw(s sensor.OrientationSample) (float64, bool) {
	switch {
	case s.CompassHeading != nil && finite(*s.CompassHeading):
		return Normalize(*s.CompassHeading), true
	case s.Alpha != nil && finite(*s.Alpha):
		return Normalize(360 - *s.Alpha), true
	}
	return 0, false
}

// Update folds s into the filter and returns the current heading. ok is false
// when s had no usable heading; the previous value is returned unchanged.
//
// The blend smoothed*k + new*(1-k) is taken along the shortest arc, so a
// heading flickering between 359° and 1° stays near north.
func (f *Filter) Update(s sensor.OrientationSample) (float64, bool) {
	raw, ok := Raw(s)
	if !ok {
		return f.smoothed, false
	}
	if !f.seeded {
		f.smoothed = raw
		f.seeded = true
		return f.smoothed, true
	}
	f.smoothed = Normalize(f.smoothed + (1-f.k)*Delta(f.smoothed, raw))
	return f.smoothed, true
}

// Heading returns the last smoothed value.
func (f *Filter) Heading() float64 { return f.smoothed }

// Seeded reports whether any sample has been accepted.
func (f *Filter) Seeded() bool { return f.seeded }

// Normalize maps any angle in degrees onto [0, 360).
func Normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// -1e-14 + 360 rounds to 360.
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// Delta returns the signed shortest rotation from a to b, in (-180, 180].
func Delta(a, b float64) float64 {
	d := Normalize(b - a)
	if d > 180 {
		d -= 360
	}
	return d
}

// Radians converts a compass heading to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
