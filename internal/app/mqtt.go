// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/inertial_pdr/internal/sensor"
)

// connectMQTT connects to broker and logs under component.
func connectMQTT(component, broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("%s: MQTT connect to %s: %w", component, broker, token.Error())
	}
	log.Printf("%s: connected to MQTT broker at %s", component, broker)
	return client, nil
}

// publishJSON publishes v without waiting for the broker. Delivery errors
// are logged when the token completes.
func publishJSON(client mqtt.Client, topic string, retained bool, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("mqtt: %s marshal error: %v", topic, err)
		return
	}
	token := client.Publish(topic, 0, retained, payload)
	go func() {
		<-token.Done()
		if token.Error() != nil {
			log.Printf("mqtt: publish %s: %v", topic, token.Error())
		}
	}()
}

// subscribe subscribes and waits for the broker to acknowledge.
func subscribe(component string, client mqtt.Client, topic string, handler mqtt.MessageHandler) error {
	token := client.Subscribe(topic, 0, handler)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("%s: subscribe %s: %w", component, topic, token.Error())
	}
	log.Printf("%s: subscribed to %s", component, topic)
	return nil
}

// MQTTSource is a sensor.Source fed by orientation and motion events
// published on the bus. Payloads use the browser wire form.
type MQTTSource struct {
	Client           mqtt.Client
	OrientationTopic string
	MotionTopic      string
	IncludesGravity  bool
}

func (s *MQTTSource) Name() string { return "mqtt" }

// Run subscribes both topics and forwards events to sink until ctx is done.
func (s *MQTTSource) Run(ctx context.Context, sink sensor.Sink) error {
	if s.Client == nil || !s.Client.IsConnected() {
		return fmt.Errorf("mqtt source: not connected: %w", sensor.ErrUnsupported)
	}

	err := subscribe("mqtt source", s.Client, s.OrientationTopic, func(_ mqtt.Client, msg mqtt.Message) {
		s.handle(msg.Payload(), sensor.TypeOrientation, sink)
	})
	if err != nil {
		return err
	}
	err = subscribe("mqtt source", s.Client, s.MotionTopic, func(_ mqtt.Client, msg mqtt.Message) {
		s.handle(msg.Payload(), sensor.TypeMotion, sink)
	})
	if err != nil {
		s.Client.Unsubscribe(s.OrientationTopic).Wait()
		return err
	}

	<-ctx.Done()
	s.Client.Unsubscribe(s.OrientationTopic, s.MotionTopic).Wait()
	return nil
}

func (s *MQTTSource) handle(payload []byte, kind string, sink sensor.Sink) {
	e := sensor.Envelope{Type: kind}
	var err error
	switch kind {
	case sensor.TypeOrientation:
		e.Orientation = &sensor.OrientationEvent{}
		err = json.Unmarshal(payload, e.Orientation)
	case sensor.TypeMotion:
		e.Motion = &sensor.MotionEvent{}
		err = json.Unmarshal(payload, e.Motion)
	}
	if err != nil {
		log.Printf("mqtt source: %s unmarshal error: %v", kind, err)
		return
	}
	sensor.Dispatch(e, sink, s.IncludesGravity)
}
