// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package step detects gait events in a filtered acceleration stream.
//
// A Detector wraps one Strategy (delta threshold, vertical band, zero
// crossing or debounced peak) with a minimum inter-step interval that is
// enforced after every strategy trigger, whatever the strategy.
package step

import (
	"fmt"
	"math"
	"time"

	"github.com/relabs-tech/inertial_pdr/internal/accel"
)

// Event is one accepted step.
type Event struct {
	Timestamp int64   `json:"ts"` // unix ms
	Magnitude float64 `json:"magnitude"`
	Heading   float64 `json:"heading"` // degrees, heading applied to the step
}

// String renders the event as a log line.
func (e Event) String() string {
	return fmt.Sprintf("[%s] step magnitude=%.2f heading=%.1f°",
		time.UnixMilli(e.Timestamp).Format(time.TimeOnly), e.Magnitude, e.Heading)
}

// Strategy decides from one filtered sample whether a step just happened.
// The gate is passed in so strategies whose state transitions depend on it
// (Band, DebouncedPeak) can consult it; it is read-only to them.
type Strategy interface {
	Name() string
	// Trigger returns the step magnitude and true when the strategy fires.
	Trigger(sig accel.Signal, gate *Gate) (float64, bool)
	Reset()
}

// Gate enforces the minimum time between accepted steps.
type Gate struct {
	interval int64 // ms
	last     int64
	armed    bool
}

// NewGate returns a gate with the given minimum interval.
func NewGate(interval time.Duration) *Gate {
	return &Gate{interval: interval.Milliseconds()}
}

// Passes reports whether a step at ts would be accepted.
func (g *Gate) Passes(ts int64) bool {
	return !g.armed || ts-g.last >= g.interval
}

// Interval returns the minimum interval in ms.
func (g *Gate) Interval() int64 { return g.interval }

func (g *Gate) accept(ts int64) {
	g.last = ts
	g.armed = true
}

func (g *Gate) reset() {
	g.last, g.armed = 0, false
}

// Detector turns a filtered signal into step events.
type Detector struct {
	strategy Strategy
	gate     *Gate
	log      *Log
	count    int
}

// NewDetector wraps strategy with an interval gate and a bounded log.
func NewDetector(strategy Strategy, minInterval time.Duration, logSize int) *Detector {
	return &Detector{
		strategy: strategy,
		gate:     NewGate(minInterval),
		log:      NewLog(logSize),
	}
}

// Detect feeds one sample. When a step is accepted it is logged, counted and
// returned with heading attached.
func (d *Detector) Detect(sig accel.Signal, heading float64) (Event, bool) {
	magnitude, fired := d.strategy.Trigger(sig, d.gate)
	if !fired || !d.gate.Passes(sig.Timestamp) {
		return Event{}, false
	}
	if math.IsNaN(magnitude) || math.IsInf(magnitude, 0) {
		return Event{}, false
	}
	d.gate.accept(sig.Timestamp)
	d.count++

	ev := Event{Timestamp: sig.Timestamp, Magnitude: magnitude, Heading: heading}
	d.log.Add(ev)
	return ev, true
}

// Strategy returns the active strategy.
func (d *Detector) Strategy() Strategy { return d.strategy }

// Count returns the number of accepted steps.
func (d *Detector) Count() int { return d.count }

// Log returns the accepted-step log.
func (d *Detector) Log() *Log { return d.log }

// Reset clears strategy state, the gate and the counter. The log is kept.
func (d *Detector) Reset() {
	d.strategy.Reset()
	d.gate.reset()
	d.count = 0
}
