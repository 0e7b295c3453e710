// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/relabs-tech/inertial_pdr/internal/config"
	"github.com/relabs-tech/inertial_pdr/internal/pdr"
	"github.com/relabs-tech/inertial_pdr/internal/sensor"
	"github.com/relabs-tech/inertial_pdr/internal/step"
)

// RunConsole runs a session on a local source and prints it, without MQTT.
// Useful to tune thresholds against the synthetic walker.
func RunConsole(ctx context.Context, kind string) error {
	cfg := config.Get()

	src, err := localSource(kind, cfg)
	if err != nil {
		return err
	}

	var last time.Time
	session, err := pdr.NewSession(pdr.SessionConfig{
		Tracker: TrackerOptions(cfg),
		Sources: []sensor.Source{src},
		Frames:  pdr.IntervalFrames(cfg.FrameInterval()),
		OnStep: func(ev step.Event) {
			fmt.Printf("[STEP]  %s\n", ev)
		},
		OnFrame: func(snap pdr.Snapshot) {
			if time.Since(last) < cfg.SnapshotInterval() {
				return
			}
			last = time.Now()
			printSnapshot(os.Stdout, snap)
		},
	})
	if err != nil {
		return err
	}
	return session.Run(ctx)
}
