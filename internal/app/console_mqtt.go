package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/inertial_pdr/internal/config"
	"github.com/relabs-tech/inertial_pdr/internal/pdr"
	"github.com/relabs-tech/inertial_pdr/internal/step"
)

// RunConsoleMQTT prints snapshots, steps and GPS fixes from the bus until
// ctx is done.
func RunConsoleMQTT(ctx context.Context) error {
	cfg := config.Get()

	client, err := connectMQTT("console", cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	out := os.Stdout
	lastSession := ""

	// Subscribe to snapshots
	err = subscribe("console", client, cfg.TopicSnapshot, func(_ mqtt.Client, msg mqtt.Message) {
		var s pdr.Snapshot
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: snapshot unmarshal error: %v", err)
			return
		}
		if s.SessionID != lastSession {
			fmt.Fprintf(out, "[PDR ]  session %s (%s detector)\n", s.SessionID, s.Detector)
			lastSession = s.SessionID
		}
		printSnapshot(out, s)
	})
	if err != nil {
		return err
	}

	// Subscribe to steps
	err = subscribe("console", client, cfg.TopicStep, func(_ mqtt.Client, msg mqtt.Message) {
		var ev step.Event
		if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
			log.Printf("console: step unmarshal error: %v", err)
			return
		}
		fmt.Fprintf(out, "[STEP]  %s\n", ev)
	})
	if err != nil {
		return err
	}

	// Subscribe to GPS
	err = subscribe("console", client, cfg.TopicGPS, func(_ mqtt.Client, msg mqtt.Message) {
		var m gpsMessage
		if err := json.Unmarshal(msg.Payload(), &m); err != nil {
			log.Printf("console: gps unmarshal error: %v", err)
			return
		}
		printGPS(out, m)
	})
	if err != nil {
		return err
	}

	<-ctx.Done()
	log.Println("console: shutting down")
	return nil
}

func printSnapshot(w io.Writer, s pdr.Snapshot) {
	fmt.Fprintf(w, "[PDR ]  %s  steps=%d\n", strings.Join(s.Info(), " | "), s.Steps)
	if len(s.Disabled) > 0 {
		fmt.Fprintf(w, "[PDR ]  streams off: %s\n", strings.Join(s.Disabled, ", "))
	}
}

func printGPS(w io.Writer, m gpsMessage) {
	f := m.Fix
	fmt.Fprintf(w,
		"[GPS ]  time=%s lat=%.6f lon=%.6f speed=%.1fkn course=%.1f° sats=%d validity=%s",
		f.Time, f.Latitude, f.Longitude, f.SpeedKnots, f.CourseDeg, f.Satellites, f.Validity,
	)
	if r := m.Relative; r != nil {
		fmt.Fprintf(w, "  plot=(%.2f, %.2f) %s", r.X, r.Y, r.Class)
		if r.Accuracy > 0 {
			fmt.Fprintf(w, " ±%.1fm", r.Accuracy)
		}
	}
	fmt.Fprintln(w)
}
