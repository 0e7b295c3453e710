// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensor

import (
	"context"
	"errors"
)

// ErrUnsupported is returned by a Source whose sensor API is not available on
// this host. The stream is disabled for the rest of the session.
var ErrUnsupported = errors.New("sensor: unsupported on this host")

// Sink receives samples pushed by a Source.
type Sink interface {
	Orientation(OrientationSample)
	Motion(AccelerationSample)
}

// ViewportSink is implemented by sinks that react to display size changes.
type ViewportSink interface {
	Viewport(Viewport)
}

// PermissionSink is implemented by sinks that surface permission results.
type PermissionSink interface {
	Permission(Permission)
}

// ActivitySink is implemented by sinks that count orientation and motion
// events as device activity even when their fields are unusable.
type ActivitySink interface {
	Activity()
}

// Source is anything that can push samples until its context is cancelled.
// Run blocks; returning detaches the source.
type Source interface {
	Name() string
	Run(ctx context.Context, sink Sink) error
}

// Dispatch routes one envelope to sink. It reports false when the envelope
// carried nothing usable (unknown type or missing fields). Unusable
// orientation and motion events still reach an ActivitySink.
func Dispatch(e Envelope, sink Sink, includeGravity bool) bool {
	switch e.Type {
	case TypeOrientation:
		var s OrientationSample
		ok := e.Orientation != nil
		if ok {
			s, ok = e.Orientation.Sample()
		}
		if !ok {
			markActivity(sink)
			return false
		}
		sink.Orientation(s)
	case TypeMotion:
		var s AccelerationSample
		ok := e.Motion != nil
		if ok {
			s, ok = e.Motion.Sample(includeGravity)
		}
		if !ok {
			markActivity(sink)
			return false
		}
		sink.Motion(s)
	case TypeViewport:
		vs, ok := sink.(ViewportSink)
		if !ok || e.Viewport == nil {
			return false
		}
		vs.Viewport(*e.Viewport)
	case TypePermission:
		ps, ok := sink.(PermissionSink)
		if !ok || e.Permission == nil {
			return false
		}
		ps.Permission(*e.Permission)
	default:
		return false
	}
	return true
}

func markActivity(sink Sink) {
	if as, ok := sink.(ActivitySink); ok {
		as.Activity()
	}
}
