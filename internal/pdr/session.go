// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pdr

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/inertial_pdr/internal/sensor"
	"github.com/relabs-tech/inertial_pdr/internal/step"
)

// PermissionGate asks the host for sensor access. It runs once, before any
// source is attached.
type PermissionGate func(ctx context.Context) (sensor.Permission, error)

// SessionConfig configures NewSession.
type SessionConfig struct {
	Tracker    Options
	Sources    []sensor.Source
	Frames     FrameClock
	Permission PermissionGate

	// OnStep and OnFrame run on the session loop. They must not block.
	OnStep  func(step.Event)
	OnFrame func(Snapshot)

	// Backlog is the number of sensor callbacks that may queue between
	// frames before sources block.
	Backlog int
}

// Session owns one tracker and everything feeding it. All sensor callbacks
// and frame ticks are applied on a single loop goroutine, in arrival order.
type Session struct {
	id      string
	tracker *Tracker
	sources []sensor.Source
	frames  FrameClock
	gate    PermissionGate
	onStep  func(step.Event)
	onFrame func(Snapshot)

	events  chan func(*Tracker)
	stopped chan struct{}

	mu   sync.RWMutex
	snap Snapshot
}

// NewSession builds the tracker and assigns a fresh session id unless one
// is set in cfg.Tracker.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Tracker.SessionID == "" {
		cfg.Tracker.SessionID = uuid.NewString()
	}
	tracker, err := NewTracker(cfg.Tracker)
	if err != nil {
		return nil, err
	}
	if cfg.Frames == nil {
		cfg.Frames = IntervalFrames(DefaultFrameInterval)
	}
	if cfg.Backlog <= 0 {
		cfg.Backlog = 256
	}
	s := &Session{
		id:      cfg.Tracker.SessionID,
		tracker: tracker,
		sources: cfg.Sources,
		frames:  cfg.Frames,
		gate:    cfg.Permission,
		onStep:  cfg.OnStep,
		onFrame: cfg.OnFrame,
		events:  make(chan func(*Tracker), cfg.Backlog),
		stopped: make(chan struct{}),
	}
	s.snap = tracker.Snapshot()
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Snapshot returns the state as of the last frame.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Session) publish(snap Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

// Run resolves the permission gate, then attaches every source and starts the
// frame loop. They share one lifetime: cancelling ctx detaches the sources
// and stops the loop together. A failing source only loses its own stream.
// Run returns nil on cancellation and must be called at most once.
func (s *Session) Run(ctx context.Context) error {
	if s.gate != nil {
		p, err := s.gate(ctx)
		if ctx.Err() != nil {
			close(s.stopped)
			return nil
		}
		if err != nil {
			log.Printf("session %s: permission request failed: %v", s.short(), err)
			s.tracker.SetPermissionError(err)
		} else {
			if !p.Granted() {
				log.Printf("session %s: permission denied (motion=%s orientation=%s), attaching anyway",
					s.short(), p.Motion, p.Orientation)
			}
			s.tracker.SetPermission(p)
		}
		s.publish(s.tracker.Snapshot())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.loop(gctx)
	})
	for _, src := range s.sources {
		src := src
		g.Go(func() error {
			s.attach(gctx, src)
			return nil
		})
	}
	return g.Wait()
}

func (s *Session) attach(ctx context.Context, src sensor.Source) {
	name := src.Name()
	log.Printf("session %s: attaching %s", s.short(), name)

	err := src.Run(ctx, s)
	switch {
	case ctx.Err() != nil:
		log.Printf("session %s: %s detached", s.short(), name)
		return
	case err == nil:
		log.Printf("session %s: %s ended", s.short(), name)
		return
	case errors.Is(err, sensor.ErrUnsupported):
		log.Printf("session %s: %s unsupported, stream disabled: %v", s.short(), name, err)
	default:
		log.Printf("session %s: %s failed, stream disabled: %v", s.short(), name, err)
	}
	s.submit(func(t *Tracker) {
		t.DisableStream(name, err)
	})
}

func (s *Session) loop(ctx context.Context) error {
	defer close(s.stopped)
	frames := s.frames.Frames(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-s.events:
			fn(s.tracker)
		case _, ok := <-frames:
			if !ok {
				return fmt.Errorf("session %s: frame clock closed", s.short())
			}
			s.drain()
			s.tracker.Tick()
			snap := s.tracker.Snapshot()
			s.publish(snap)
			if s.onFrame != nil {
				s.onFrame(snap)
			}
		}
	}
}

// drain applies every callback queued before the current frame.
func (s *Session) drain() {
	for n := len(s.events); n > 0; n-- {
		(<-s.events)(s.tracker)
	}
}

// submit queues fn for the loop. It is dropped once the loop has stopped.
func (s *Session) submit(fn func(*Tracker)) {
	select {
	case s.events <- fn:
	case <-s.stopped:
	}
}

func (s *Session) short() string {
	if len(s.id) > 8 {
		return s.id[:8]
	}
	return s.id
}

// Orientation implements sensor.Sink.
func (s *Session) Orientation(o sensor.OrientationSample) {
	s.submit(func(t *Tracker) {
		t.HandleOrientation(o)
	})
}

// Motion implements sensor.Sink.
func (s *Session) Motion(m sensor.AccelerationSample) {
	s.submit(func(t *Tracker) {
		if ev, ok := t.HandleMotion(m); ok && s.onStep != nil {
			s.onStep(ev)
		}
	})
}

// Activity implements sensor.ActivitySink.
func (s *Session) Activity() {
	s.submit(func(t *Tracker) {
		t.MarkActivity()
	})
}

// Viewport implements sensor.ViewportSink.
func (s *Session) Viewport(v sensor.Viewport) {
	s.submit(func(t *Tracker) {
		t.SetViewport(v)
	})
}

// Permission implements sensor.PermissionSink. Hosts that prompt from the
// page report the result through the event stream instead of a gate.
func (s *Session) Permission(p sensor.Permission) {
	s.submit(func(t *Tracker) {
		t.SetPermission(p)
	})
}
