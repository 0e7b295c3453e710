package app

import (
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/inertial_pdr/internal/accel"
	"github.com/relabs-tech/inertial_pdr/internal/config"
	"github.com/relabs-tech/inertial_pdr/internal/pdr"
	"github.com/relabs-tech/inertial_pdr/internal/sensor"
	"github.com/relabs-tech/inertial_pdr/internal/step"
)

// ReplayResult is one detector's outcome over a recording.
type ReplayResult struct {
	Detector string
	// Setting is the tuning value the detector ran with: the threshold, or
	// the noise epsilon for zero_crossing.
	Setting string
	Final   pdr.Snapshot
}

// SignalStats summarises one filtered signal, for choosing thresholds.
type SignalStats struct {
	Name   string
	Count  int
	Mean   float64
	StdDev float64
	P50    float64
	P90    float64
	P99    float64
	Max    float64
}

// ReplayReport compares every detector on the same recording.
type ReplayReport struct {
	Envelopes int
	Duration  time.Duration
	Results   []ReplayResult
	Signals   []SignalStats
}

// RunReplay replays the recording at path through every detector using the
// global configuration and writes the report to out.
func RunReplay(path string, out io.Writer) error {
	cfg := config.Get()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	defer f.Close()

	envs, err := sensor.ReadRecording(f)
	if err != nil {
		return fmt.Errorf("replay: %s: %w", path, err)
	}

	report, err := Replay(envs, TrackerOptions(cfg), cfg.AccelIncludesGravity, cfg.FrameInterval())
	if err != nil {
		return err
	}
	return report.Write(out)
}

// Replay runs envs through a fresh tracker per detector kind. Time is taken
// from the envelopes: frames are ticked every frame interval of sample time.
func Replay(envs []sensor.Envelope, opts pdr.Options, includeGravity bool, frame time.Duration) (ReplayReport, error) {
	if frame <= 0 {
		frame = pdr.DefaultFrameInterval
	}
	report := ReplayReport{Envelopes: len(envs)}

	var first, last int64
	for _, e := range envs {
		if ts := e.Timestamp(); ts > 0 {
			if first == 0 {
				first = ts
			}
			last = ts
		}
	}
	report.Duration = time.Duration(last-first) * time.Millisecond

	for _, kind := range step.Kinds {
		o := opts
		o.Step.Kind = kind
		o.SessionID = "replay-" + string(kind)
		final, err := replayOne(envs, o, includeGravity, frame.Milliseconds())
		if err != nil {
			return ReplayReport{}, err
		}
		report.Results = append(report.Results, ReplayResult{
			Detector: string(kind),
			Setting:  stepSetting(o.Step),
			Final:    final,
		})
	}

	signals, err := signalStats(envs, opts.Accel, includeGravity)
	if err != nil {
		return ReplayReport{}, err
	}
	report.Signals = signals
	return report, nil
}

// stepSetting names the value that drives opts.Kind.
func stepSetting(opts step.Options) string {
	if opts.Kind == step.KindZeroCrossing {
		return fmt.Sprintf("epsilon=%g", opts.Epsilon)
	}
	return fmt.Sprintf("threshold=%g", opts.Threshold)
}

func replayOne(envs []sensor.Envelope, opts pdr.Options, includeGravity bool, frameMs int64) (pdr.Snapshot, error) {
	var now int64
	opts.Now = func() time.Time { return time.UnixMilli(now) }

	tracker, err := pdr.NewTracker(opts)
	if err != nil {
		return pdr.Snapshot{}, err
	}
	sink := trackerSink{tracker}

	var nextFrame int64
	for _, e := range envs {
		if ts := e.Timestamp(); ts > 0 {
			if nextFrame == 0 {
				nextFrame = ts
			}
			for ; nextFrame <= ts; nextFrame += frameMs {
				now = nextFrame
				tracker.Tick()
			}
			now = ts
		}
		sensor.Dispatch(e, sink, includeGravity)
	}
	tracker.Tick()
	return tracker.Snapshot(), nil
}

// trackerSink feeds a tracker directly, without a session loop.
type trackerSink struct{ t *pdr.Tracker }

func (s trackerSink) Orientation(o sensor.OrientationSample) { s.t.HandleOrientation(o) }
func (s trackerSink) Motion(m sensor.AccelerationSample)     { s.t.HandleMotion(m) }
func (s trackerSink) Activity()                              { s.t.MarkActivity() }
func (s trackerSink) Viewport(v sensor.Viewport)             { s.t.SetViewport(v) }
func (s trackerSink) Permission(p sensor.Permission)         { s.t.SetPermission(p) }

// signalCollector records the filtered signal of every motion sample.
type signalCollector struct {
	filter                     accel.Filter
	delta, vertical, magnitude []float64
}

func (c *signalCollector) Orientation(sensor.OrientationSample) {}

func (c *signalCollector) Motion(m sensor.AccelerationSample) {
	sig, ok := c.filter.Update(m)
	if !ok {
		return
	}
	c.delta = append(c.delta, sig.Delta)
	c.vertical = append(c.vertical, sig.Vertical)
	c.magnitude = append(c.magnitude, sig.Magnitude)
}

func signalStats(envs []sensor.Envelope, opts accel.Options, includeGravity bool) ([]SignalStats, error) {
	filter, err := accel.New(opts)
	if err != nil {
		return nil, err
	}
	c := &signalCollector{filter: filter}
	for _, e := range envs {
		sensor.Dispatch(e, c, includeGravity)
	}
	return []SignalStats{
		summarize("delta", c.delta),
		summarize("vertical", c.vertical),
		summarize("magnitude", c.magnitude),
	}, nil
}

func summarize(name string, x []float64) SignalStats {
	s := SignalStats{Name: name, Count: len(x)}
	if len(x) == 0 {
		return s
	}
	sorted := slices.Clone(x)
	slices.Sort(sorted)

	s.Mean, s.StdDev = stat.MeanStdDev(sorted, nil)
	s.P50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	s.P90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	s.P99 = stat.Quantile(0.99, stat.Empirical, sorted, nil)
	s.Max = floats.Max(sorted)
	return s
}

// Write prints the report as two aligned tables.
func (r ReplayReport) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "envelopes\t%d\nduration\t%s\n\n", r.Envelopes, r.Duration)

	fmt.Fprintln(tw, "detector\tsetting\tsteps\tx\ty\theading")
	for _, res := range r.Results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.1f\t%.1f\t%.1f\n",
			res.Detector, res.Setting, res.Final.Steps, res.Final.Position.X, res.Final.Position.Y, res.Final.Heading)
	}

	fmt.Fprintln(tw, "\nsignal\tn\tmean\tstddev\tp50\tp90\tp99\tmax")
	for _, s := range r.Signals {
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\n",
			s.Name, s.Count, s.Mean, s.StdDev, s.P50, s.P90, s.P99, s.Max)
	}
	return tw.Flush()
}
