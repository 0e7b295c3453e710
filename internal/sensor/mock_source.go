// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensor

import (
	"context"
	"math"
	"time"
)

const standardGravity = 9.80665

type mockSource struct {
	start    time.Time
	interval time.Duration
}

// NewMockSource creates a source that simulates someone walking at about
// 1.8 steps per second while slowly turning right.
func NewMockSource(interval time.Duration) Source {
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	return &mockSource{start: time.Now(), interval: interval}
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) Run(ctx context.Context, sink Sink) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			orientation, motion := m.at(t)
			sink.Orientation(orientation)
			sink.Motion(motion)
		}
	}
}

// at returns the synthetic readings for wall time t.
func (m *mockSource) at(t time.Time) (OrientationSample, AccelerationSample) {
	return Walk(t.Sub(m.start), t.UnixMilli())
}

// Walk returns the synthetic walker's readings elapsed into the walk,
// stamped ts: a 1.8 Hz vertical gait of ±3.5 m/s² around gravity with a
// little sway, heading turning 6°/s.
func Walk(elapsed time.Duration, ts int64) (OrientationSample, AccelerationSample) {
	sec := elapsed.Seconds()
	gait := 2 * math.Pi * 1.8 * sec
	return OrientationSample{
			CompassHeading: Float(math.Mod(sec*6, 360)),
			Timestamp:      ts,
		}, AccelerationSample{
			X:               0.4 * math.Sin(gait/2),
			Y:               0.8 * math.Cos(gait),
			Z:               standardGravity + 3.5*math.Sin(gait),
			IncludesGravity: true,
			Timestamp:       ts,
		}
}
