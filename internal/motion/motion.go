// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package motion integrates step impulses into a damped, bounded 2-D
// position in screen pixels.
//
// Axes follow the compass: +Y is the direction of heading 0°, +X is 90°.
// A step taken while facing heading h adds (sin h, cos h) * StepSize to the
// velocity.
package motion

import (
	"fmt"
	"math"

	"github.com/relabs-tech/inertial_pdr/internal/heading"
	"github.com/relabs-tech/inertial_pdr/internal/step"
)

// Vec2 is a 2-D vector in pixels (position) or pixels per tick (velocity).
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Len returns the Euclidean norm.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Config holds the integrator constants. They are tuned for ~60 ticks/s.
type Config struct {
	StepSize float64 // impulse per step, px/tick
	Decay    float64 // velocity factor per tick, (0, 1)
	Epsilon  float64 // |v| below this snaps to 0
	Margin   float64 // kept free at each viewport edge, px
}

// DefaultConfig returns the handheld defaults.
func DefaultConfig() Config {
	return Config{StepSize: 3, Decay: 0.9, Epsilon: 0.01, Margin: 20}
}

func (c Config) validate() error {
	if !(c.Decay > 0 && c.Decay < 1) {
		return fmt.Errorf("motion: decay must be in (0,1), got %v", c.Decay)
	}
	if !(c.Epsilon >= 0) || math.IsInf(c.Epsilon, 0) {
		return fmt.Errorf("motion: invalid epsilon %v", c.Epsilon)
	}
	if !(c.StepSize >= 0) || math.IsInf(c.StepSize, 0) {
		return fmt.Errorf("motion: invalid step size %v", c.StepSize)
	}
	if !(c.Margin >= 0) || math.IsInf(c.Margin, 0) {
		return fmt.Errorf("motion: invalid margin %v", c.Margin)
	}
	return nil
}

// Integrator owns the kinematic state. It is not safe for concurrent use;
// callers serialize OnStep and Tick.
type Integrator struct {
	cfg      Config
	position Vec2
	velocity Vec2
	bound    Vec2
}

// NewIntegrator returns an integrator at the origin with bounds derived from
// a width x height viewport.
func NewIntegrator(cfg Config, width, height float64) (*Integrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	m := &Integrator{cfg: cfg}
	m.SetViewport(width, height)
	return m, nil
}

// SetViewport recomputes the bounds as half the viewport minus the margin
// on each axis. Takes effect on the next Tick.
func (m *Integrator) SetViewport(width, height float64) {
	m.bound = Vec2{
		X: halfExtent(width, m.cfg.Margin),
		Y: halfExtent(height, m.cfg.Margin),
	}
}

func halfExtent(size, margin float64) float64 {
	if math.IsNaN(size) || math.IsInf(size, 0) {
		return 0
	}
	return math.Max(0, size/2-margin)
}

// OnStep applies a velocity impulse along the step's heading.
func (m *Integrator) OnStep(ev step.Event) {
	if math.IsNaN(ev.Heading) || math.IsInf(ev.Heading, 0) {
		return
	}
	rad := heading.Radians(ev.Heading)
	m.velocity.X += math.Sin(rad) * m.cfg.StepSize
	m.velocity.Y += math.Cos(rad) * m.cfg.StepSize
}

// Tick advances one frame: integrate, damp, snap small velocities to zero,
// clamp into bounds.
func (m *Integrator) Tick() {
	m.position.X += m.velocity.X
	m.position.Y += m.velocity.Y

	m.velocity.X = m.damp(m.velocity.X)
	m.velocity.Y = m.damp(m.velocity.Y)

	m.position.X = clamp(m.position.X, m.bound.X)
	m.position.Y = clamp(m.position.Y, m.bound.Y)
}

func (m *Integrator) damp(v float64) float64 {
	v *= m.cfg.Decay
	if math.Abs(v) < m.cfg.Epsilon {
		return 0
	}
	return v
}

func clamp(v, bound float64) float64 {
	return math.Max(-bound, math.Min(bound, v))
}

// Position returns the current position.
func (m *Integrator) Position() Vec2 { return m.position }

// Velocity returns the current velocity.
func (m *Integrator) Velocity() Vec2 { return m.velocity }

// Bound returns the per-axis position limit.
func (m *Integrator) Bound() Vec2 { return m.bound }

// Reset returns to the origin at rest.
func (m *Integrator) Reset() {
	m.position = Vec2{}
	m.velocity = Vec2{}
}
