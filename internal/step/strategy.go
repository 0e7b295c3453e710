package step

import (
	"fmt"
	"math"
	"time"

	"github.com/relabs-tech/inertial_pdr/internal/accel"
)

// Kind names a strategy in configuration.
type Kind string

const (
	KindDelta        Kind = "delta"
	KindBand         Kind = "band"
	KindZeroCrossing Kind = "zero_crossing"
	KindPeak         Kind = "peak"
)

// Kinds lists every strategy, in documentation order.
var Kinds = []Kind{KindDelta, KindBand, KindZeroCrossing, KindPeak}

// Options configures New.
type Options struct {
	Kind        Kind
	Threshold   float64
	MinInterval time.Duration
	Epsilon     float64 // zero crossing noise floor
	LogSize     int
}

// DefaultOptions is the handheld delta-threshold setup.
func DefaultOptions() Options {
	return Options{
		Kind:        KindDelta,
		Threshold:   11,
		MinInterval: 400 * time.Millisecond,
		Epsilon:     0.05,
		LogSize:     DefaultLogSize,
	}
}

// New builds a Detector for opts.Kind.
func New(opts Options) (*Detector, error) {
	if opts.MinInterval < 0 {
		return nil, fmt.Errorf("step: negative minimum interval %s", opts.MinInterval)
	}
	var s Strategy
	switch opts.Kind {
	case KindDelta, "":
		s = NewDeltaThreshold(opts.Threshold)
	case KindBand:
		s = NewBand(opts.Threshold)
	case KindZeroCrossing:
		s = NewZeroCrossing(opts.Epsilon)
	case KindPeak:
		s = NewDebouncedPeak(opts.Threshold)
	default:
		return nil, fmt.Errorf("step: unknown detector %q", opts.Kind)
	}
	return NewDetector(s, opts.MinInterval, opts.LogSize), nil
}

// DeltaThreshold fires when the frame-to-frame change of the filtered vector
// exceeds the threshold. Stateless apart from the gate; sensitive to hand
// jitter.
type DeltaThreshold struct {
	threshold float64
}

func NewDeltaThreshold(threshold float64) *DeltaThreshold {
	return &DeltaThreshold{threshold: threshold}
}

func (d *DeltaThreshold) Name() string { return string(KindDelta) }

func (d *DeltaThreshold) Trigger(sig accel.Signal, _ *Gate) (float64, bool) {
	return sig.Delta, sig.Delta > d.threshold
}

func (d *DeltaThreshold) Reset() {}

// Band watches the vertical axis. Rising above the threshold arms it (only
// when the gate would pass); dropping below half the threshold disarms it,
// and that falling edge is what emits the step. The reported magnitude is the
// peak seen while armed.
type Band struct {
	threshold float64
	inStep    bool
	peak      float64
}

func NewBand(threshold float64) *Band {
	return &Band{threshold: threshold}
}

func (b *Band) Name() string { return string(KindBand) }

func (b *Band) Trigger(sig accel.Signal, gate *Gate) (float64, bool) {
	v := sig.Vertical
	if !b.inStep {
		if v > b.threshold && gate.Passes(sig.Timestamp) {
			b.inStep = true
			b.peak = v
		}
		return 0, false
	}

	b.peak = math.Max(b.peak, v)
	if v >= b.threshold*0.5 {
		return 0, false
	}
	b.inStep = false
	peak := b.peak
	b.peak = 0
	return peak, gate.Passes(sig.Timestamp)
}

// Armed reports whether a rising edge has been seen without its falling edge.
func (b *Band) Armed() bool { return b.inStep }

func (b *Band) Reset() {
	b.inStep = false
	b.peak = 0
}

// ZeroCrossing fires on a negative to non-negative transition of the
// vertical signal whose new value clears epsilon. Samples within epsilon of
// zero are noise: they never fire and never replace the previous sample, so
// a crossing that lands inside the band fires on the first sample past it.
// The magnitude is the swing from the trough since the last crossing.
type ZeroCrossing struct {
	epsilon float64
	prev    float64
	trough  float64
	have    bool
}

func NewZeroCrossing(epsilon float64) *ZeroCrossing {
	return &ZeroCrossing{epsilon: math.Abs(epsilon)}
}

func (z *ZeroCrossing) Name() string { return string(KindZeroCrossing) }

func (z *ZeroCrossing) Trigger(sig accel.Signal, _ *Gate) (float64, bool) {
	cur := sig.Vertical
	if cur < z.trough {
		z.trough = cur
	}
	if math.Abs(cur) <= z.epsilon {
		return 0, false
	}

	crossed := z.have && z.prev < 0 && cur >= 0
	swing := cur - z.trough
	if cur >= 0 {
		z.trough = 0
	}
	z.prev = cur
	z.have = true
	return swing, crossed
}

func (z *ZeroCrossing) Reset() {
	z.prev, z.trough, z.have = 0, 0, false
}

// DebouncedPeak fires the moment the magnitude exceeds the threshold, then
// ignores everything until a cooldown equal to the gate interval has passed.
type DebouncedPeak struct {
	threshold float64
	waiting   bool
	since     int64
}

func NewDebouncedPeak(threshold float64) *DebouncedPeak {
	return &DebouncedPeak{threshold: threshold}
}

func (p *DebouncedPeak) Name() string { return string(KindPeak) }

func (p *DebouncedPeak) Trigger(sig accel.Signal, gate *Gate) (float64, bool) {
	if p.waiting {
		if sig.Timestamp-p.since < gate.Interval() {
			return 0, false
		}
		p.waiting = false
	}
	if sig.Magnitude <= p.threshold || !gate.Passes(sig.Timestamp) {
		return 0, false
	}
	p.waiting = true
	p.since = sig.Timestamp
	return sig.Magnitude, true
}

// Waiting reports whether the cooldown window is open.
func (p *DebouncedPeak) Waiting() bool { return p.waiting }

func (p *DebouncedPeak) Reset() {
	p.waiting = false
	p.since = 0
}
