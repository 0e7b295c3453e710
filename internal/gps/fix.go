package gps

// Fix represents a single combined GPS fix suitable for JSON and MQTT.
// Position and motion come from RMC, quality from the latest GGA.
type Fix struct {
	Time       string  `json:"time"`        // e.g. "12:34:56"
	Date       string  `json:"date"`        // e.g. "23/03/94"
	Latitude   float64 `json:"lat"`         // decimal degrees
	Longitude  float64 `json:"lon"`         // decimal degrees
	SpeedKnots float64 `json:"speed_knots"` // speed over ground
	CourseDeg  float64 `json:"course_deg"`  // course over ground
	Validity   string  `json:"validity"`    // "A" (valid) / "V" (void)
	Satellites int64   `json:"satellites"`
	HDOP       float64 `json:"hdop"`
}

// UserRangeError is the assumed horizontal error in metres per unit of HDOP.
const UserRangeError = 5.0

// Valid reports whether the receiver flagged the fix as active.
func (f Fix) Valid() bool { return f.Validity == "A" }

// Accuracy estimates the horizontal error in metres. ok is false until a
// GGA sentence has supplied HDOP.
func (f Fix) Accuracy() (metres float64, ok bool) {
	if f.HDOP <= 0 {
		return 0, false
	}
	return f.HDOP * UserRangeError, true
}
