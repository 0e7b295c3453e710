// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package pdr wires the heading, acceleration, step, motion and activity
// components into a pedestrian dead-reckoning tracker, and runs it as a
// session fed by sensor sources and a frame clock.
package pdr

import (
	"fmt"
	"slices"
	"time"

	"github.com/relabs-tech/inertial_pdr/internal/accel"
	"github.com/relabs-tech/inertial_pdr/internal/activity"
	"github.com/relabs-tech/inertial_pdr/internal/heading"
	"github.com/relabs-tech/inertial_pdr/internal/motion"
	"github.com/relabs-tech/inertial_pdr/internal/sensor"
	"github.com/relabs-tech/inertial_pdr/internal/step"
)

// Options configures a Tracker.
type Options struct {
	SessionID         string
	HeadingSmoothing  float64
	Accel             accel.Options
	Step              step.Options
	Motion            motion.Config
	Viewport          sensor.Viewport
	InactivityTimeout time.Duration

	// Now is the tracker clock. Nil means time.Now.
	Now func() time.Time
}

// DefaultOptions returns the handheld tuning on a 390x844 viewport.
func DefaultOptions() Options {
	return Options{
		HeadingSmoothing:  heading.DefaultSmoothing,
		Accel:             accel.DefaultOptions(),
		Step:              step.DefaultOptions(),
		Motion:            motion.DefaultConfig(),
		Viewport:          sensor.Viewport{Width: 390, Height: 844},
		InactivityTimeout: activity.DefaultTimeout,
	}
}

// Tracker holds the whole PDR state. It is not safe for concurrent use;
// Session serializes access to it.
type Tracker struct {
	id  string
	now func() time.Time

	heading  *heading.Filter
	accel    accel.Filter
	detector *step.Detector
	motion   *motion.Integrator
	activity *activity.Monitor

	headingDeg    float64
	permissionErr string
	disabled      map[string]error
	updatedAt     int64
}

// NewTracker builds the components described by opts.
func NewTracker(opts Options) (*Tracker, error) {
	filter, err := accel.New(opts.Accel)
	if err != nil {
		return nil, fmt.Errorf("pdr: acceleration filter: %w", err)
	}
	detector, err := step.New(opts.Step)
	if err != nil {
		return nil, fmt.Errorf("pdr: step detector: %w", err)
	}
	integrator, err := motion.NewIntegrator(opts.Motion, opts.Viewport.Width, opts.Viewport.Height)
	if err != nil {
		return nil, fmt.Errorf("pdr: motion: %w", err)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		id:       opts.SessionID,
		now:      now,
		heading:  heading.NewFilter(opts.HeadingSmoothing),
		accel:    filter,
		detector: detector,
		motion:   integrator,
		activity: activity.NewMonitor(opts.InactivityTimeout),
		disabled: make(map[string]error),
	}, nil
}

func (t *Tracker) stamp(ts int64) int64 {
	if ts == 0 {
		return t.now().UnixMilli()
	}
	return ts
}

// HandleOrientation updates the heading. Every call counts as sensor
// activity, including samples without a usable heading.
func (t *Tracker) HandleOrientation(s sensor.OrientationSample) (float64, bool) {
	s.Timestamp = t.stamp(s.Timestamp)
	t.activity.Mark(t.now().UnixMilli())

	h, ok := t.heading.Update(s)
	if ok {
		t.headingDeg = h
	}
	return t.headingDeg, ok
}

// HandleMotion filters s, runs step detection against the current heading
// and applies the impulse of an accepted step.
func (t *Tracker) HandleMotion(s sensor.AccelerationSample) (step.Event, bool) {
	s.Timestamp = t.stamp(s.Timestamp)
	t.activity.Mark(t.now().UnixMilli())

	sig, ok := t.accel.Update(s)
	if !ok {
		return step.Event{}, false
	}
	ev, ok := t.detector.Detect(sig, t.headingDeg)
	if !ok {
		return step.Event{}, false
	}
	t.motion.OnStep(ev)
	return ev, true
}

// MarkActivity records a sensor event that carried no usable sample.
func (t *Tracker) MarkActivity() {
	t.activity.Mark(t.now().UnixMilli())
}

// SetViewport resizes the area the position is clamped to.
func (t *Tracker) SetViewport(v sensor.Viewport) {
	t.motion.SetViewport(v.Width, v.Height)
}

// SetPermission records the permission outcome. A denial is kept as a
// user-visible error; listeners stay attached either way.
func (t *Tracker) SetPermission(p sensor.Permission) {
	if p.Granted() {
		t.permissionErr = ""
		return
	}
	t.permissionErr = fmt.Sprintf("IMU permission denied. DeviceMotion: %s, DeviceOrientation: %s",
		p.Motion, p.Orientation)
}

// SetPermissionError records a failed permission request.
func (t *Tracker) SetPermissionError(err error) {
	t.permissionErr = "IMU permission error: " + err.Error()
}

// DisableStream marks a source as permanently off for this session.
func (t *Tracker) DisableStream(name string, reason error) {
	t.disabled[name] = reason
}

// Tick advances the integrator one frame and recomputes activity.
func (t *Tracker) Tick() {
	t.motion.Tick()
	now := t.now().UnixMilli()
	t.activity.Update(now)
	t.updatedAt = now
}

// Snapshot copies the externally visible state.
func (t *Tracker) Snapshot() Snapshot {
	disabled := make([]string, 0, len(t.disabled))
	for name := range t.disabled {
		disabled = append(disabled, name)
	}
	slices.Sort(disabled)

	return Snapshot{
		SessionID:       t.id,
		Position:        t.motion.Position(),
		Velocity:        t.motion.Velocity(),
		Bounds:          t.motion.Bound(),
		Heading:         t.headingDeg,
		Active:          t.activity.Active(),
		Detector:        t.detector.Strategy().Name(),
		Steps:           t.detector.Count(),
		Log:             t.detector.Log().Lines(),
		PermissionError: t.permissionErr,
		Disabled:        disabled,
		UpdatedAt:       t.updatedAt,
	}
}
