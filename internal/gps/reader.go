package gps

import (
	"bufio"
	"io"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// Reader turns a stream of NMEA sentences into fixes.
type Reader struct {
	r       *bufio.Reader
	current Fix
	skipped int
}

// NewReader reads NMEA lines from r, typically a serial port.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next blocks until the next RMC sentence and returns it merged with the
// latest GGA quality data. Lines that do not parse are skipped.
func (r *Reader) Next() (Fix, error) {
	for {
		line, err := r.r.ReadString('\n')
		if line = strings.TrimSpace(line); strings.HasPrefix(line, "$") {
			if fix, ok := r.apply(line); ok {
				return fix, nil
			}
		}
		if err != nil {
			return Fix{}, err
		}
	}
}

// Skipped returns the number of sentences that failed to parse.
func (r *Reader) Skipped() int { return r.skipped }

func (r *Reader) apply(line string) (Fix, bool) {
	sentence, err := nmea.Parse(line)
	if err != nil {
		// noisy GPS or partial sentences
		r.skipped++
		return Fix{}, false
	}

	switch m := sentence.(type) {
	case nmea.RMC:
		r.current.Time = m.Time.String()
		r.current.Date = m.Date.String()
		r.current.Latitude = m.Latitude
		r.current.Longitude = m.Longitude
		r.current.SpeedKnots = m.Speed
		r.current.CourseDeg = m.Course
		r.current.Validity = string(m.Validity)
		return r.current, true
	case nmea.GGA:
		r.current.Satellites = m.NumSatellites
		r.current.HDOP = m.HDOP
	}
	return Fix{}, false
}
