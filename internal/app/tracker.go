// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/inertial_pdr/internal/config"
	"github.com/relabs-tech/inertial_pdr/internal/pdr"
	"github.com/relabs-tech/inertial_pdr/internal/sensor"
	"github.com/relabs-tech/inertial_pdr/internal/step"
)

// RunTracker runs a headless PDR session on the configured sensor source
// and publishes snapshots and steps to MQTT.
func RunTracker(ctx context.Context) error {
	cfg := config.Get()

	var client mqtt.Client
	if cfg.MQTTBroker != "" {
		c, err := connectMQTT("tracker", cfg.MQTTBroker, cfg.MQTTClientIDTracker)
		if err != nil {
			if cfg.SensorSource == "mqtt" {
				return err
			}
			log.Printf("tracker: %v, running without publishing", err)
		} else {
			client = c
			defer client.Disconnect(250)
		}
	}

	var src sensor.Source
	if cfg.SensorSource == "mqtt" {
		src = &MQTTSource{
			Client:           client,
			OrientationTopic: cfg.TopicOrientation,
			MotionTopic:      cfg.TopicMotion,
			IncludesGravity:  cfg.AccelIncludesGravity,
		}
	} else {
		s, err := localSource(cfg.SensorSource, cfg)
		if err != nil {
			return err
		}
		src = s
	}

	pub := newSnapshotPublisher(client, cfg.TopicSnapshot, cfg.SnapshotInterval())
	session, err := pdr.NewSession(pdr.SessionConfig{
		Tracker: TrackerOptions(cfg),
		Sources: []sensor.Source{src},
		Frames:  pdr.IntervalFrames(cfg.FrameInterval()),
		OnStep: func(ev step.Event) {
			log.Printf("tracker: %s", ev)
			if client != nil {
				publishJSON(client, cfg.TopicStep, false, ev)
			}
		},
		OnFrame: pub.frame,
	})
	if err != nil {
		return err
	}
	log.Printf("tracker: session %s using %s source, %s filter, %s detector",
		session.ID(), src.Name(), cfg.AccelFilter, cfg.StepDetector)

	err = session.Run(ctx)
	log.Printf("tracker: session %s ended after %d steps", session.ID(), session.Snapshot().Steps)
	return err
}

// snapshotPublisher rate-limits snapshot egress. frame runs on the session
// loop.
type snapshotPublisher struct {
	client   mqtt.Client
	topic    string
	interval time.Duration
	last     time.Time
}

func newSnapshotPublisher(client mqtt.Client, topic string, interval time.Duration) *snapshotPublisher {
	return &snapshotPublisher{client: client, topic: topic, interval: interval}
}

func (p *snapshotPublisher) frame(snap pdr.Snapshot) {
	if p.client == nil {
		return
	}
	now := time.Now()
	if now.Sub(p.last) < p.interval {
		return
	}
	p.last = now
	publishJSON(p.client, p.topic, true, snap)
}
