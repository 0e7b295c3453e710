// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package activity

import "time"

// DefaultTimeout is how long without any sensor event before the session is
// reported idle.
const DefaultTimeout = 2 * time.Second

// Monitor tracks the time of the last sensor event of any kind.
type Monitor struct {
	timeout int64 // ms
	last    int64
	seen    bool
	active  bool
}

// NewMonitor returns an inactive monitor. A non-positive timeout selects
// DefaultTimeout.
func NewMonitor(timeout time.Duration) *Monitor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Monitor{timeout: timeout.Milliseconds()}
}

// Mark records an event at t (unix ms). Out-of-order marks never move the
// last-event time backwards.
func (m *Monitor) Mark(t int64) {
	if !m.seen || t > m.last {
		m.last = t
	}
	m.seen = true
}

// Update recomputes and returns the active flag for now (unix ms).
func (m *Monitor) Update(now int64) bool {
	m.active = m.seen && now-m.last < m.timeout
	return m.active
}

// Active returns the flag from the last Update.
func (m *Monitor) Active() bool { return m.active }

// Last returns the last event time and whether any event was seen.
func (m *Monitor) Last() (int64, bool) { return m.last, m.seen }

// Timeout returns the inactivity timeout.
func (m *Monitor) Timeout() time.Duration {
	return time.Duration(m.timeout) * time.Millisecond
}
