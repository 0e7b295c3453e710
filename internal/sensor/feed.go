package sensor

import "context"

// Feed is a Source backed by a buffered channel. Producers that receive events
// on their own goroutines (websocket readers, MQTT callbacks) push envelopes;
// the session drains them on its loop.
type Feed struct {
	name           string
	includeGravity bool
	ch             chan Envelope
}

// NewFeed creates a feed holding up to size pending envelopes.
func NewFeed(name string, size int, includeGravity bool) *Feed {
	if size < 1 {
		size = 1
	}
	return &Feed{name: name, includeGravity: includeGravity, ch: make(chan Envelope, size)}
}

func (f *Feed) Name() string { return f.name }

// Push enqueues e without blocking. It reports false when the feed is full
// and the envelope was dropped.
func (f *Feed) Push(e Envelope) bool {
	select {
	case f.ch <- e:
		return true
	default:
		return false
	}
}

// Run forwards queued envelopes to sink until ctx is done.
func (f *Feed) Run(ctx context.Context, sink Sink) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-f.ch:
			Dispatch(e, sink, f.includeGravity)
		}
	}
}
