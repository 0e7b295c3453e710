package step

// DefaultLogSize is the number of step lines kept for display.
const DefaultLogSize = 16

// Log is a fixed-capacity ring of accepted steps. Reads return the newest
// entry first; adding to a full log evicts the oldest.
type Log struct {
	buf   []Event
	next  int
	count int
}

// NewLog returns a log holding up to size entries (DefaultLogSize when size
// is not positive).
func NewLog(size int) *Log {
	if size <= 0 {
		size = DefaultLogSize
	}
	return &Log{buf: make([]Event, size)}
}

// Add records ev as the newest entry.
func (l *Log) Add(ev Event) {
	l.buf[l.next] = ev
	l.next = (l.next + 1) % len(l.buf)
	if l.count < len(l.buf) {
		l.count++
	}
}

// Len returns the number of entries held.
func (l *Log) Len() int { return l.count }

// Cap returns the fixed capacity.
func (l *Log) Cap() int { return len(l.buf) }

// Events returns a copy of the entries, most recent first.
func (l *Log) Events() []Event {
	out := make([]Event, 0, l.count)
	for i := 1; i <= l.count; i++ {
		out = append(out, l.buf[(l.next-i+len(l.buf))%len(l.buf)])
	}
	return out
}

// Lines renders the entries, most recent first.
func (l *Log) Lines() []string {
	events := l.Events()
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.String()
	}
	return out
}
