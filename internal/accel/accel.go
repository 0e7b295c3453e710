// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package accel filters raw accelerometer samples into a signal that step
// detectors can read: per-axis filtered values, a vertical component, a gait
// magnitude and the frame-to-frame change of the filtered vector.
package accel

import (
	"fmt"
	"math"

	"github.com/relabs-tech/inertial_pdr/internal/sensor"
)

// Signal is the output of a Filter for one sample.
type Signal struct {
	Timestamp int64 // unix ms, copied from the sample

	X, Y, Z float64 // filtered axes

	// Vertical is the component step detectors treat as up/down motion.
	Vertical float64
	// Magnitude is the strategy's gait intensity: the filtered vector norm
	// for MovingAverage, |Vertical| for HighPass.
	Magnitude float64
	// Delta is sqrt(dx²+dy²+dz²) between this and the previous filtered
	// vector, 0 on the first sample.
	Delta float64
}

// Filter consumes samples one at a time in O(1).
type Filter interface {
	// Update returns the filtered signal, or ok=false when the sample was
	// skipped (non-finite axes). Skipped samples leave state untouched.
	Update(sensor.AccelerationSample) (Signal, bool)
	Reset()
}

// Kind names a filter strategy in configuration.
type Kind string

const (
	KindMovingAverage Kind = "moving_average"
	KindHighPass      Kind = "high_pass"
)

// Options configures New.
type Options struct {
	Kind          Kind
	Window        int     // moving average window
	GravityAlpha  float64 // high-pass gravity tracker weight, 0.99
	HighPassAlpha float64 // high-pass smoothing weight, 0.9
}

// DefaultOptions matches the handheld tuning: a short moving average over
// gravity-inclusive readings.
func DefaultOptions() Options {
	return Options{
		Kind:          KindMovingAverage,
		Window:        4,
		GravityAlpha:  DefaultGravityAlpha,
		HighPassAlpha: DefaultHighPassAlpha,
	}
}

// New builds the filter selected by opts.Kind.
func New(opts Options) (Filter, error) {
	switch opts.Kind {
	case KindMovingAverage, "":
		return NewMovingAverage(opts.Window)
	case KindHighPass:
		return NewHighPass(opts.GravityAlpha, opts.HighPassAlpha)
	}
	return nil, fmt.Errorf("accel: unknown filter kind %q", opts.Kind)
}

// delta tracks the previous filtered vector.
type delta struct {
	prev [3]float64
	have bool
}

func (d *delta) next(x, y, z float64) float64 {
	var out float64
	if d.have {
		dx, dy, dz := x-d.prev[0], y-d.prev[1], z-d.prev[2]
		out = math.Sqrt(dx*dx + dy*dy + dz*dz)
	}
	d.prev = [3]float64{x, y, z}
	d.have = true
	return out
}
