// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensor

import "math"

// OrientationSample is a single heading reading from the device orientation
// source. Exactly one of CompassHeading or Alpha is normally set; when both
// are nil the sample carries no heading and is ignored downstream.
type OrientationSample struct {
	CompassHeading *float64 `json:"compass_heading,omitempty"` // degrees clockwise from north
	Alpha          *float64 `json:"alpha,omitempty"`           // degrees counter-clockwise
	Timestamp      int64    `json:"ts"`                        // unix ms
}

// AccelerationSample is a single 3-axis accelerometer reading in m/s².
type AccelerationSample struct {
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Z               float64 `json:"z"`
	IncludesGravity bool    `json:"includes_gravity"`
	Timestamp       int64   `json:"ts"` // unix ms
}

// Finite reports whether all three axes hold usable numbers.
func (s AccelerationSample) Finite() bool {
	return finite(s.X) && finite(s.Y) && finite(s.Z)
}

// Float returns a pointer to v, for building samples in code.
func Float(v float64) *float64 {
	return &v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
