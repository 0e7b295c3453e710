package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/inertial_pdr/internal/config"
	"github.com/relabs-tech/inertial_pdr/internal/gps"
)

// RunGPSProducer opens the GPS serial port, parses NMEA sentences and
// publishes each fix with its position on the local plot.
func RunGPSProducer(ctx context.Context) error {
	cfg := config.Get()

	// ---- 1) Connect to MQTT broker ----
	client, err := connectMQTT("gps", cfg.MQTTBroker, cfg.MQTTClientIDGPS)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	// ---- 2) Open GPS serial port ----
	serialOpts := serial.OpenOptions{
		PortName:              cfg.GPSSerialPort,
		BaudRate:              uint(cfg.GPSBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return fmt.Errorf("gps: open %s: %w", serialOpts.PortName, err)
	}
	log.Printf("gps: serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	// Closing the port unblocks the pending read.
	stop := context.AfterFunc(ctx, func() { port.Close() })
	defer func() {
		if stop() {
			port.Close()
		}
	}()

	return publishFixes(ctx, port, gps.NewLocator(cfg.GPSScale), client, cfg.TopicGPS)
}

// publishFixes reads fixes from r until it fails or ctx is done.
func publishFixes(ctx context.Context, r io.Reader, locator *gps.Locator, client mqtt.Client, topic string) error {
	reader := gps.NewReader(r)
	for {
		fix, err := reader.Next()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("gps: read: %w", err)
		}

		msg := gpsMessage{Fix: fix}
		if rel, ok := locator.Update(fix); ok {
			msg.Relative = &rel
		}
		publishJSON(client, topic, true, msg)
		log.Printf("gps: fix %s lat=%.6f lon=%.6f valid=%t", fix.Time, fix.Latitude, fix.Longitude, fix.Valid())
	}
}
