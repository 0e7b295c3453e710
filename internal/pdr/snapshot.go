package pdr

import (
	"fmt"

	"github.com/relabs-tech/inertial_pdr/internal/motion"
)

// Snapshot is a read-only copy of the tracker state for UIs and publishers.
type Snapshot struct {
	SessionID       string      `json:"session_id"`
	Position        motion.Vec2 `json:"position"`
	Velocity        motion.Vec2 `json:"velocity"`
	Bounds          motion.Vec2 `json:"bounds"`
	Heading         float64     `json:"heading"`
	Active          bool        `json:"active"`
	Detector        string      `json:"detector"`
	Steps           int         `json:"steps"`
	Log             []string    `json:"log"`
	PermissionError string      `json:"permission_error,omitempty"`
	Disabled        []string    `json:"disabled,omitempty"`
	UpdatedAt       int64       `json:"updated_at"`
}

// Info renders the status lines shown next to the indicator.
func (s Snapshot) Info() []string {
	active := "YES"
	if !s.Active {
		active = "NO (no events in 2s)"
	}
	lines := []string{
		"IMU active: " + active,
		fmt.Sprintf("Current rotation: alpha (compass): %.1f°", s.Heading),
		fmt.Sprintf("Current dot position: x=%.1f, y=%.1f", s.Position.X, s.Position.Y),
		fmt.Sprintf("Current velocity: x=%.2f, y=%.2f", s.Velocity.X, s.Velocity.Y),
	}
	if s.PermissionError != "" {
		lines = append(lines, s.PermissionError)
	}
	return lines
}
