// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensor

import (
	"context"
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"
)

// IMUOptions selects the MPU9250 wired to the tracker board.
type IMUOptions struct {
	SPIDevice string        // e.g. /dev/spidev6.0
	CSPin     string        // e.g. "18"
	LSBPerG   float64       // accelerometer counts per g for the configured range
	Interval  time.Duration // sampling period
}

type imuSource struct {
	opts IMUOptions
}

// NewIMUSource returns a Source that reads gravity-inclusive acceleration
// from an MPU9250 over SPI. The device is opened when Run starts; a host
// without the bus or pin reports ErrUnsupported.
func NewIMUSource(opts IMUOptions) Source {
	if opts.LSBPerG <= 0 {
		opts.LSBPerG = 16384 // ±2g
	}
	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Millisecond
	}
	return &imuSource{opts: opts}
}

func (s *imuSource) Name() string { return "imu" }

func (s *imuSource) open() (*mpu9250.MPU9250, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("imu: periph host init: %v: %w", err, ErrUnsupported)
	}

	cs := gpioreg.ByName(s.opts.CSPin)
	if cs == nil {
		return nil, fmt.Errorf("imu: CS pin %q not found: %w", s.opts.CSPin, ErrUnsupported)
	}

	tr, err := mpu9250.NewSpiTransport(s.opts.SPIDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("imu: SPI transport (%s): %v: %w", s.opts.SPIDevice, err, ErrUnsupported)
	}

	dev, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("imu: device creation: %w", err)
	}
	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("imu: initialization: %w", err)
	}
	if err := dev.Calibrate(); err != nil {
		log.Printf("imu: calibration failed, continuing uncalibrated: %v", err)
	}
	return dev, nil
}

func (s *imuSource) Run(ctx context.Context, sink Sink) error {
	dev, err := s.open()
	if err != nil {
		return err
	}
	log.Printf("imu: reading %s every %s", s.opts.SPIDevice, s.opts.Interval)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			sample, err := s.read(dev, t)
			if err != nil {
				log.Printf("imu: %v", err)
				continue
			}
			sink.Motion(sample)
		}
	}
}

func (s *imuSource) read(dev *mpu9250.MPU9250, t time.Time) (AccelerationSample, error) {
	ax, err := dev.GetAccelerationX()
	if err != nil {
		return AccelerationSample{}, fmt.Errorf("accel X: %w", err)
	}
	ay, err := dev.GetAccelerationY()
	if err != nil {
		return AccelerationSample{}, fmt.Errorf("accel Y: %w", err)
	}
	az, err := dev.GetAccelerationZ()
	if err != nil {
		return AccelerationSample{}, fmt.Errorf("accel Z: %w", err)
	}
	return CountsToSample(ax, ay, az, s.opts.LSBPerG, t.UnixMilli()), nil
}

// CountsToSample converts raw accelerometer counts to m/s².
func CountsToSample(ax, ay, az int16, lsbPerG float64, ts int64) AccelerationSample {
	scale := standardGravity / lsbPerG
	return AccelerationSample{
		X:               float64(ax) * scale,
		Y:               float64(ay) * scale,
		Z:               float64(az) * scale,
		IncludesGravity: true,
		Timestamp:       ts,
	}
}
