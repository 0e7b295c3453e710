package pdr

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/inertial_pdr/internal/sensor"
	"github.com/relabs-tech/inertial_pdr/internal/step"
)

// scriptedSource pushes a fixed script, then idles until cancelled.
type scriptedSource struct {
	name   string
	script []func(sensor.Sink)
	pushed chan struct{}
	exited chan struct{}
}

func newScripted(name string, script ...func(sensor.Sink)) *scriptedSource {
	return &scriptedSource{
		name:   name,
		script: script,
		pushed: make(chan struct{}),
		exited: make(chan struct{}),
	}
}

func (s *scriptedSource) Name() string { return s.name }

func (s *scriptedSource) Run(ctx context.Context, sink sensor.Sink) error {
	defer close(s.exited)
	for _, fn := range s.script {
		fn(sink)
	}
	close(s.pushed)
	<-ctx.Done()
	return nil
}

type failingSource struct {
	name string
	err  error
}

func (f failingSource) Name() string                           { return f.name }
func (f failingSource) Run(context.Context, sensor.Sink) error { return f.err }

func orientation(deg float64) func(sensor.Sink) {
	return func(s sensor.Sink) {
		s.Orientation(sensor.OrientationSample{CompassHeading: sensor.Float(deg)})
	}
}

func motionAt(z float64, ts int64) func(sensor.Sink) {
	return func(s sensor.Sink) { s.Motion(motionZ(z, ts)) }
}

func startSession(t *testing.T, cfg SessionConfig) (*Session, context.CancelFunc, <-chan error) {
	t.Helper()
	cfg.Tracker = testOptions(nil)
	s, err := NewSession(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()
	t.Cleanup(cancel)
	return s, cancel, errc
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestSessionAppliesCallbacksBeforeNextFrame(t *testing.T) {
	frames := make(ManualFrames)
	snaps := make(chan Snapshot, 4)
	steps := make(chan step.Event, 4)
	src := newScripted("script",
		orientation(90),
		motionAt(9.8, 1000),
		motionAt(25, 1100),
	)

	s, _, _ := startSession(t, SessionConfig{
		Sources: []sensor.Source{src},
		Frames:  frames,
		OnStep:  func(ev step.Event) { steps <- ev },
		OnFrame: func(snap Snapshot) { snaps <- snap },
	})
	waitFor(t, src.pushed, "script")

	frames <- time.Now()
	snap := <-snaps
	assert.Equal(t, 1, snap.Steps)
	assert.Equal(t, 90.0, snap.Heading)
	assert.InDelta(t, 3, snap.Position.X, 1e-9)
	assert.True(t, snap.Active)

	ev := <-steps
	assert.Equal(t, int64(1100), ev.Timestamp)
	assert.Equal(t, snap.Steps, s.Snapshot().Steps)
}

func TestSessionCancelTearsDownEverything(t *testing.T) {
	a := newScripted("a")
	b := newScripted("b")
	_, cancel, errc := startSession(t, SessionConfig{
		Sources: []sensor.Source{a, b},
		Frames:  make(ManualFrames),
	})
	waitFor(t, a.pushed, "a attached")
	waitFor(t, b.pushed, "b attached")

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	waitFor(t, a.exited, "a detached")
	waitFor(t, b.exited, "b detached")
}

func TestSessionUnsupportedStreamOnlyDisablesItself(t *testing.T) {
	frames := make(ManualFrames)
	other := newScripted("orientation", orientation(45))
	s, _, _ := startSession(t, SessionConfig{
		Sources: []sensor.Source{
			failingSource{name: "imu", err: fmt.Errorf("open spi: %w", sensor.ErrUnsupported)},
			failingSource{name: "broken", err: errors.New("read failed")},
			other,
		},
		Frames: frames,
	})
	waitFor(t, other.pushed, "orientation source")

	require.Eventually(t, func() bool {
		frames <- time.Now()
		return len(s.Snapshot().Disabled) == 2
	}, 2*time.Second, 5*time.Millisecond)

	snap := s.Snapshot()
	assert.Equal(t, []string{"broken", "imu"}, snap.Disabled)
	assert.Equal(t, 45.0, snap.Heading)

	select {
	case <-other.exited:
		t.Fatal("healthy source was detached")
	default:
	}
}

func TestSessionPermissionDeniedStillAttaches(t *testing.T) {
	src := newScripted("script", orientation(10))
	s, _, _ := startSession(t, SessionConfig{
		Sources: []sensor.Source{src},
		Frames:  make(ManualFrames),
		Permission: func(context.Context) (sensor.Permission, error) {
			return sensor.Permission{Motion: "denied", Orientation: "denied"}, nil
		},
	})
	waitFor(t, src.pushed, "listener attached after denial")
	assert.Equal(t, "IMU permission denied. DeviceMotion: denied, DeviceOrientation: denied",
		s.Snapshot().PermissionError)
}

func TestSessionPermissionError(t *testing.T) {
	src := newScripted("script")
	s, _, _ := startSession(t, SessionConfig{
		Sources: []sensor.Source{src},
		Frames:  make(ManualFrames),
		Permission: func(context.Context) (sensor.Permission, error) {
			return sensor.Permission{}, errors.New("not supported")
		},
	})
	waitFor(t, src.pushed, "listener attached")
	assert.Equal(t, "IMU permission error: not supported", s.Snapshot().PermissionError)
}

func TestSessionViewportAndPermissionEvents(t *testing.T) {
	frames := make(ManualFrames)
	snaps := make(chan Snapshot, 1)
	feed := sensor.NewFeed("ws", 8, true)
	s, _, _ := startSession(t, SessionConfig{
		Sources: []sensor.Source{feed},
		Frames:  frames,
		OnFrame: func(snap Snapshot) { snaps <- snap },
	})

	require.True(t, feed.Push(sensor.Envelope{
		Type:       sensor.TypePermission,
		Permission: &sensor.Permission{Motion: "granted", Orientation: "denied"},
	}))
	require.Eventually(t, func() bool {
		frames <- time.Now()
		<-snaps
		return s.Snapshot().PermissionError != ""
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSessionIncompleteEventsKeepItActive(t *testing.T) {
	frames := make(ManualFrames)
	snaps := make(chan Snapshot, 1)
	feed := sensor.NewFeed("ws", 8, true)
	s, _, _ := startSession(t, SessionConfig{
		Sources: []sensor.Source{feed},
		Frames:  frames,
		OnFrame: func(snap Snapshot) { snaps <- snap },
	})

	frames <- time.Now()
	require.False(t, (<-snaps).Active)

	// alpha: null and an empty motion payload, as some browsers send.
	require.True(t, feed.Push(sensor.Envelope{Type: sensor.TypeOrientation, Orientation: &sensor.OrientationEvent{}}))
	require.True(t, feed.Push(sensor.Envelope{Type: sensor.TypeMotion, Motion: &sensor.MotionEvent{}}))
	require.Eventually(t, func() bool {
		frames <- time.Now()
		return (<-snaps).Active
	}, 2*time.Second, 5*time.Millisecond)

	snap := s.Snapshot()
	assert.Equal(t, 0, snap.Steps)
	assert.Equal(t, 0.0, snap.Heading)
}

func TestNewSessionAssignsID(t *testing.T) {
	s, err := NewSession(SessionConfig{Tracker: DefaultOptions()})
	require.NoError(t, err)
	assert.Len(t, s.ID(), 36)
	assert.Equal(t, s.ID(), s.Snapshot().SessionID)
}
