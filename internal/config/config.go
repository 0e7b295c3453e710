package config

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDTracker  string
	MQTTClientIDWeb      string
	MQTTClientIDConsole  string
	MQTTClientIDGPS      string
	MQTTClientIDProducer string

	// Topics
	TopicOrientation string
	TopicMotion      string
	TopicSnapshot    string
	TopicStep        string
	TopicGPS         string

	// Heading
	HeadingSmoothing float64 // weight kept from the previous heading, [0,1)

	// Acceleration filter
	AccelFilter          string // "moving_average" or "high_pass"
	AccelWindow          int
	AccelIncludesGravity bool // read accelerationIncludingGravity instead of acceleration
	GravityAlpha         float64
	HighPassAlpha        float64

	// Step detection
	StepDetector      string // "delta", "band", "zero_crossing" or "peak"
	StepThreshold     float64
	StepMinIntervalMS int
	StepZeroEpsilon   float64
	StepLogSize       int

	// Motion
	StepSize        float64 // px/tick added per step
	VelocityDecay   float64
	VelocityEpsilon float64
	ViewportWidth   float64
	ViewportHeight  float64
	ViewportMargin  float64

	// Timing
	FrameIntervalMS     int
	InactivityTimeoutMS int
	SnapshotIntervalMS  int

	// Sensor source for the tracker: "mqtt", "mock" or "imu"
	SensorSource string

	// IMU Hardware
	IMUSPIDevice      string
	IMUCSPin          string
	IMUAccelLSBPerG   float64 // 16384 at ±2g
	IMUSampleInterval int     // milliseconds

	// GPS
	GPSSerialPort string
	GPSBaudRate   int
	GPSScale      float64 // plot pixels per degree

	// Web Server
	WebServerPort int
}

// Recognised values for the enumerated keys.
var (
	AccelFilters  = []string{"moving_average", "high_pass"}
	StepDetectors = []string{"delta", "band", "zero_crossing", "peak"}
	SensorSources = []string{"mqtt", "mock", "imu"}
)

// Package-level unexported variables for the singleton:
//   - globalConfig is only reachable through InitGlobal and Get.
//   - configOnce makes InitGlobal load the file once.
//   - configMu lets Get readers run concurrently.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used for keys absent from the file.
func Default() *Config {
	return &Config{
		MQTTBroker:           "tcp://localhost:1883",
		MQTTClientIDTracker:  "inertial-pdr-tracker",
		MQTTClientIDWeb:      "inertial-pdr-web",
		MQTTClientIDConsole:  "inertial-pdr-console",
		MQTTClientIDGPS:      "inertial-pdr-gps",
		MQTTClientIDProducer: "inertial-pdr-producer",

		TopicOrientation: "inertial/pdr/orientation",
		TopicMotion:      "inertial/pdr/motion",
		TopicSnapshot:    "inertial/pdr/snapshot",
		TopicStep:        "inertial/pdr/step",
		TopicGPS:         "inertial/gps",

		HeadingSmoothing: 0.85,

		AccelFilter:          "moving_average",
		AccelWindow:          4,
		AccelIncludesGravity: true,
		GravityAlpha:         0.99,
		HighPassAlpha:        0.9,

		StepDetector:      "delta",
		StepThreshold:     11,
		StepMinIntervalMS: 400,
		StepZeroEpsilon:   0.05,
		StepLogSize:       16,

		StepSize:        3,
		VelocityDecay:   0.9,
		VelocityEpsilon: 0.01,
		ViewportWidth:   390,
		ViewportHeight:  844,
		ViewportMargin:  20,

		FrameIntervalMS:     16,
		InactivityTimeoutMS: 2000,
		SnapshotIntervalMS:  100,

		SensorSource: "mqtt",

		IMUSPIDevice:      "/dev/spidev0.0",
		IMUCSPin:          "8",
		IMUAccelLSBPerG:   16384,
		IMUSampleInterval: 10,

		GPSSerialPort: "/dev/serial0",
		GPSBaudRate:   9600,
		GPSScale:      500,

		WebServerPort: 8080,
	}
}

// Load reads the configuration file on top of Default.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		if err := cfg.setValue(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_TRACKER":
		c.MQTTClientIDTracker = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value

	// Topics
	case "TOPIC_ORIENTATION":
		c.TopicOrientation = value
	case "TOPIC_MOTION":
		c.TopicMotion = value
	case "TOPIC_SNAPSHOT":
		c.TopicSnapshot = value
	case "TOPIC_STEP":
		c.TopicStep = value
	case "TOPIC_GPS":
		c.TopicGPS = value

	// Heading
	case "HEADING_SMOOTHING":
		c.HeadingSmoothing, err = parseFloat(key, value, 0, math.Nextafter(1, 0))

	// Acceleration filter
	case "ACCEL_FILTER":
		c.AccelFilter, err = parseChoice(key, value, AccelFilters)
	case "ACCEL_WINDOW":
		c.AccelWindow, err = parseInt(key, value, 1, 64)
	case "ACCEL_INCLUDES_GRAVITY":
		c.AccelIncludesGravity, err = parseBool(key, value)
	case "GRAVITY_ALPHA":
		c.GravityAlpha, err = parseFloat(key, value, 0, math.Nextafter(1, 0))
	case "HIGH_PASS_ALPHA":
		c.HighPassAlpha, err = parseFloat(key, value, 0, math.Nextafter(1, 0))

	// Step detection
	case "STEP_DETECTOR":
		c.StepDetector, err = parseChoice(key, value, StepDetectors)
	case "STEP_THRESHOLD":
		c.StepThreshold, err = parseFloat(key, value, 0, math.MaxFloat64)
	case "STEP_MIN_INTERVAL_MS":
		c.StepMinIntervalMS, err = parseInt(key, value, 0, 10000)
	case "STEP_ZERO_EPSILON":
		c.StepZeroEpsilon, err = parseFloat(key, value, 0, math.MaxFloat64)
	case "STEP_LOG_SIZE":
		c.StepLogSize, err = parseInt(key, value, 1, 1024)

	// Motion
	case "STEP_SIZE":
		c.StepSize, err = parseFloat(key, value, 0, math.MaxFloat64)
	case "VELOCITY_DECAY":
		c.VelocityDecay, err = parseFloat(key, value, math.SmallestNonzeroFloat64, math.Nextafter(1, 0))
	case "VELOCITY_EPSILON":
		c.VelocityEpsilon, err = parseFloat(key, value, 0, math.MaxFloat64)
	case "VIEWPORT_WIDTH":
		c.ViewportWidth, err = parseFloat(key, value, 0, math.MaxFloat64)
	case "VIEWPORT_HEIGHT":
		c.ViewportHeight, err = parseFloat(key, value, 0, math.MaxFloat64)
	case "VIEWPORT_MARGIN":
		c.ViewportMargin, err = parseFloat(key, value, 0, math.MaxFloat64)

	// Timing
	case "FRAME_INTERVAL_MS":
		c.FrameIntervalMS, err = parseInt(key, value, 1, 1000)
	case "INACTIVITY_TIMEOUT_MS":
		c.InactivityTimeoutMS, err = parseInt(key, value, 1, 600000)
	case "SNAPSHOT_INTERVAL_MS":
		c.SnapshotIntervalMS, err = parseInt(key, value, 1, 60000)

	case "SENSOR_SOURCE":
		c.SensorSource, err = parseChoice(key, value, SensorSources)

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_LSB_PER_G":
		c.IMUAccelLSBPerG, err = parseFloat(key, value, 1, math.MaxFloat64)
	case "IMU_SAMPLE_INTERVAL":
		c.IMUSampleInterval, err = parseInt(key, value, 1, 1000)

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		c.GPSBaudRate, err = parseInt(key, value, 1, 4000000)
	case "GPS_SCALE":
		c.GPSScale, err = parseFloat(key, value, math.SmallestNonzeroFloat64, math.MaxFloat64)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value, 1, 65535)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks the fields that depend on each other.
func (c *Config) validate() error {
	if c.MQTTBroker == "" && c.SensorSource == "mqtt" {
		return fmt.Errorf("MQTT_BROKER is required when SENSOR_SOURCE=mqtt")
	}
	if c.SensorSource == "imu" && c.IMUSPIDevice == "" {
		return fmt.Errorf("IMU_SPI_DEVICE is required when SENSOR_SOURCE=imu")
	}
	if c.ViewportWidth == 0 || c.ViewportHeight == 0 {
		return fmt.Errorf("VIEWPORT_WIDTH and VIEWPORT_HEIGHT must be positive")
	}
	return nil
}

// StepMinInterval returns STEP_MIN_INTERVAL_MS as a duration.
func (c *Config) StepMinInterval() time.Duration {
	return time.Duration(c.StepMinIntervalMS) * time.Millisecond
}

// FrameInterval returns FRAME_INTERVAL_MS as a duration.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMS) * time.Millisecond
}

// InactivityTimeout returns INACTIVITY_TIMEOUT_MS as a duration.
func (c *Config) InactivityTimeout() time.Duration {
	return time.Duration(c.InactivityTimeoutMS) * time.Millisecond
}

// SnapshotInterval returns SNAPSHOT_INTERVAL_MS as a duration.
func (c *Config) SnapshotInterval() time.Duration {
	return time.Duration(c.SnapshotIntervalMS) * time.Millisecond
}

// IMUInterval returns IMU_SAMPLE_INTERVAL as a duration.
func (c *Config) IMUInterval() time.Duration {
	return time.Duration(c.IMUSampleInterval) * time.Millisecond
}

func parseInt(key, value string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s must be %d-%d, got %d", key, lo, hi, v)
	}
	return v, nil
}

func parseFloat(key, value string, lo, hi float64) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if math.IsNaN(v) || v < lo || v > hi {
		return 0, fmt.Errorf("%s out of range, got %v", key, v)
	}
	return v, nil
}

func parseBool(key, value string) (bool, error) {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseChoice(key, value string, choices []string) (string, error) {
	for _, c := range choices {
		if value == c {
			return value, nil
		}
	}
	return "", fmt.Errorf("%s must be one of %s, got %q", key, strings.Join(choices, "|"), value)
}

// InitGlobal initializes the global configuration from file.
// Only the first call loads; later calls are no-ops and return nil.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance, or nil before InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
