// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/inertial_pdr/internal/config"
	"github.com/relabs-tech/inertial_pdr/internal/sensor"
)

// RunProducer reads a local source ("mock" or "imu") and publishes its
// samples in the browser wire form, so a tracker on SENSOR_SOURCE=mqtt can
// consume them.
func RunProducer(ctx context.Context, kind string) error {
	cfg := config.Get()

	src, err := localSource(kind, cfg)
	if err != nil {
		return err
	}

	client, err := connectMQTT("producer", cfg.MQTTBroker, cfg.MQTTClientIDProducer)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	log.Printf("producer: publishing %s samples to %s and %s", src.Name(), cfg.TopicOrientation, cfg.TopicMotion)
	sink := &mqttSink{client: client, orientationTopic: cfg.TopicOrientation, motionTopic: cfg.TopicMotion}
	err = src.Run(ctx, sink)
	log.Printf("producer: stopped after %d orientation and %d motion samples", sink.orientations, sink.motions)
	return err
}

// mqttSink publishes every sample it receives. Sources call it from a
// single goroutine.
type mqttSink struct {
	client           mqtt.Client
	orientationTopic string
	motionTopic      string

	orientations int
	motions      int
}

func (s *mqttSink) Orientation(o sensor.OrientationSample) {
	publishJSON(s.client, s.orientationTopic, false, o.Event())
	s.orientations++
}

func (s *mqttSink) Motion(m sensor.AccelerationSample) {
	publishJSON(s.client, s.motionTopic, false, m.Event())
	s.motions++
}
