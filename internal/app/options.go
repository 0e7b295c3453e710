package app

import (
	"fmt"

	"github.com/relabs-tech/inertial_pdr/internal/accel"
	"github.com/relabs-tech/inertial_pdr/internal/config"
	"github.com/relabs-tech/inertial_pdr/internal/motion"
	"github.com/relabs-tech/inertial_pdr/internal/pdr"
	"github.com/relabs-tech/inertial_pdr/internal/sensor"
	"github.com/relabs-tech/inertial_pdr/internal/step"
)

// TrackerOptions maps the configuration onto the tracker components.
func TrackerOptions(cfg *config.Config) pdr.Options {
	return pdr.Options{
		HeadingSmoothing: cfg.HeadingSmoothing,
		Accel: accel.Options{
			Kind:          accel.Kind(cfg.AccelFilter),
			Window:        cfg.AccelWindow,
			GravityAlpha:  cfg.GravityAlpha,
			HighPassAlpha: cfg.HighPassAlpha,
		},
		Step: step.Options{
			Kind:        step.Kind(cfg.StepDetector),
			Threshold:   cfg.StepThreshold,
			MinInterval: cfg.StepMinInterval(),
			Epsilon:     cfg.StepZeroEpsilon,
			LogSize:     cfg.StepLogSize,
		},
		Motion: motion.Config{
			StepSize: cfg.StepSize,
			Decay:    cfg.VelocityDecay,
			Epsilon:  cfg.VelocityEpsilon,
			Margin:   cfg.ViewportMargin,
		},
		Viewport:          sensor.Viewport{Width: cfg.ViewportWidth, Height: cfg.ViewportHeight},
		InactivityTimeout: cfg.InactivityTimeout(),
	}
}

// localSource builds a source that reads on this host: the synthetic walker
// or the SPI accelerometer.
func localSource(kind string, cfg *config.Config) (sensor.Source, error) {
	switch kind {
	case "mock":
		return sensor.NewMockSource(cfg.IMUInterval()), nil
	case "imu":
		return sensor.NewIMUSource(sensor.IMUOptions{
			SPIDevice: cfg.IMUSPIDevice,
			CSPin:     cfg.IMUCSPin,
			LSBPerG:   cfg.IMUAccelLSBPerG,
			Interval:  cfg.IMUInterval(),
		}), nil
	}
	return nil, fmt.Errorf("no local sensor source %q (want mock or imu)", kind)
}
