package sensor

// Axes mirrors the per-axis payload of a browser devicemotion event. Any axis
// may be absent.
type Axes struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	Z *float64 `json:"z"`
}

func (a *Axes) complete() bool {
	return a != nil && a.X != nil && a.Y != nil && a.Z != nil &&
		finite(*a.X) && finite(*a.Y) && finite(*a.Z)
}

// OrientationEvent is the wire form of a deviceorientation callback.
type OrientationEvent struct {
	CompassHeading *float64 `json:"webkitCompassHeading,omitempty"`
	Alpha          *float64 `json:"alpha,omitempty"`
	Timestamp      int64    `json:"ts"`
}

// Sample converts the event, dropping non-finite fields. ok is false when no
// usable heading field remains.
func (e OrientationEvent) Sample() (OrientationSample, bool) {
	s := OrientationSample{Timestamp: e.Timestamp}
	if e.CompassHeading != nil && finite(*e.CompassHeading) {
		s.CompassHeading = Float(*e.CompassHeading)
	}
	if e.Alpha != nil && finite(*e.Alpha) {
		s.Alpha = Float(*e.Alpha)
	}
	return s, s.CompassHeading != nil || s.Alpha != nil
}

// MotionEvent is the wire form of a devicemotion callback.
type MotionEvent struct {
	Acceleration                 *Axes `json:"acceleration,omitempty"`
	AccelerationIncludingGravity *Axes `json:"accelerationIncludingGravity,omitempty"`
	Timestamp                    int64 `json:"ts"`
}

// Sample picks the gravity-inclusive or gravity-free payload depending on
// includeGravity. The other payload is never substituted: a filter tuned for
// one of them would misread the other.
func (e MotionEvent) Sample(includeGravity bool) (AccelerationSample, bool) {
	a := e.Acceleration
	if includeGravity {
		a = e.AccelerationIncludingGravity
	}
	if !a.complete() {
		return AccelerationSample{}, false
	}
	return AccelerationSample{
		X:               *a.X,
		Y:               *a.Y,
		Z:               *a.Z,
		IncludesGravity: includeGravity,
		Timestamp:       e.Timestamp,
	}, true
}

// Permission is the outcome of the host permission prompt for each sensor.
// Values follow the browser API: "granted", "denied" or an error text.
type Permission struct {
	Motion      string `json:"motion"`
	Orientation string `json:"orientation"`
}

// Granted reports whether both sensors were granted.
func (p Permission) Granted() bool {
	return p.Motion == "granted" && p.Orientation == "granted"
}

// Viewport is the size of the area the indicator is drawn in, in pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Envelope types.
const (
	TypeOrientation = "orientation"
	TypeMotion      = "motion"
	TypePermission  = "permission"
	TypeViewport    = "viewport"
)

// Envelope multiplexes the event kinds on a single stream (websocket
// messages, recorded session files).
type Envelope struct {
	Type        string            `json:"type"`
	Orientation *OrientationEvent `json:"orientation,omitempty"`
	Motion      *MotionEvent      `json:"motion,omitempty"`
	Permission  *Permission       `json:"permission,omitempty"`
	Viewport    *Viewport         `json:"viewport,omitempty"`
}

// Event returns the wire form of s.
func (s OrientationSample) Event() OrientationEvent {
	return OrientationEvent{CompassHeading: s.CompassHeading, Alpha: s.Alpha, Timestamp: s.Timestamp}
}

// Event returns the wire form of s, filling the payload that matches
// IncludesGravity.
func (s AccelerationSample) Event() MotionEvent {
	axes := &Axes{X: Float(s.X), Y: Float(s.Y), Z: Float(s.Z)}
	if s.IncludesGravity {
		return MotionEvent{AccelerationIncludingGravity: axes, Timestamp: s.Timestamp}
	}
	return MotionEvent{Acceleration: axes, Timestamp: s.Timestamp}
}
