package sensor

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ReadRecording parses a JSON-lines session recording, one Envelope per line.
// Blank lines and lines starting with '#' are skipped.
func ReadRecording(r io.Reader) ([]Envelope, error) {
	var out []Envelope
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var e Envelope
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, fmt.Errorf("recording line %d: %w", lineNum, err)
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading recording: %w", err)
	}
	return out, nil
}

// Timestamp returns the sample time carried by e, or 0 for envelopes that
// have none.
func (e Envelope) Timestamp() int64 {
	switch {
	case e.Orientation != nil:
		return e.Orientation.Timestamp
	case e.Motion != nil:
		return e.Motion.Timestamp
	}
	return 0
}
