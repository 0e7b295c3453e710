package gps

// Accuracy classes used to colour the locator dot.
const (
	ClassGood = "green"  // < 5 m
	ClassFair = "orange" // < 15 m
	ClassPoor = "red"
)

// PlotCenter is the pixel coordinate of the first fix on the 300x300 plot.
const PlotCenter = 150.0

// DefaultScale is plot pixels per degree of latitude or longitude.
const DefaultScale = 500.0

// Relative is a fix placed on the plot relative to the first fix.
type Relative struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Accuracy  float64 `json:"accuracy_m,omitempty"`
	Class     string  `json:"class"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Locator places fixes on a local plot whose centre is the first valid fix.
// It is independent of the inertial position estimate.
type Locator struct {
	scale     float64
	centerLat float64
	centerLon float64
	hasCenter bool
}

// NewLocator returns a locator with the given scale. Non-positive scale
// selects DefaultScale.
func NewLocator(scale float64) *Locator {
	if scale <= 0 {
		scale = DefaultScale
	}
	return &Locator{scale: scale}
}

// Update places f. Void fixes are ignored and never become the centre.
func (l *Locator) Update(f Fix) (Relative, bool) {
	if !f.Valid() {
		return Relative{}, false
	}
	if !l.hasCenter {
		l.centerLat, l.centerLon = f.Latitude, f.Longitude
		l.hasCenter = true
	}

	rel := Relative{
		X:         PlotCenter + (f.Longitude-l.centerLon)*l.scale,
		Y:         PlotCenter - (f.Latitude-l.centerLat)*l.scale,
		Class:     ClassPoor,
		Latitude:  f.Latitude,
		Longitude: f.Longitude,
	}
	if acc, ok := f.Accuracy(); ok {
		rel.Accuracy = acc
		rel.Class = Classify(acc)
	}
	return rel, true
}

// Center returns the plot origin once set.
func (l *Locator) Center() (lat, lon float64, ok bool) {
	return l.centerLat, l.centerLon, l.hasCenter
}

// Classify maps an accuracy in metres to a colour class.
func Classify(metres float64) string {
	switch {
	case metres < 5:
		return ClassGood
	case metres < 15:
		return ClassFair
	}
	return ClassPoor
}
