package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete thermal-capture configuration
type Config struct {
	Device      DeviceConfig      `yaml:"device"`
	Capture     CaptureConfig     `yaml:"capture"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Log         LogConfig         `yaml:"log"`
}

// DeviceConfig selects the camera
type DeviceConfig struct {
	VendorID     uint16        `yaml:"vendor_id"`     // PureThermal: 0x1e4e
	ProductID    uint16        `yaml:"product_id"`    // PureThermal: 0x0100
	SysfsRoot    string        `yaml:"sysfs_root"`    // default /sys
	StartTimeout time.Duration `yaml:"start_timeout"` // wait for PLAYING, default 5s
}

// CaptureConfig contains capture loop settings
type CaptureConfig struct {
	QueueCapacity    int           `yaml:"queue_capacity"`    // frames buffered between driver and writer (default: 2)
	PopTimeout       time.Duration `yaml:"pop_timeout"`       // stall detection window (default: 5s)
	TemperatureEvery int           `yaml:"temperature_every"` // persisted frames between temperature reads (default: 100)
}

// CalibrationConfig contains periodic FFC settings
type CalibrationConfig struct {
	Schedule string `yaml:"schedule"` // cron spec, empty disables (e.g. "@every 10m")
}

// TelemetryConfig contains OpenTelemetry metrics settings
type TelemetryConfig struct {
	OTLPEndpoint string        `yaml:"otlp_endpoint"` // host:port, empty disables export
	Interval     time.Duration `yaml:"interval"`      // export interval (default: 10s)
	ServiceName  string        `yaml:"service_name"`  // default: thermal-capture
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			VendorID:     0x1e4e,
			ProductID:    0x0100,
			SysfsRoot:    "/sys",
			StartTimeout: 5 * time.Second,
		},
		Capture: CaptureConfig{
			QueueCapacity:    2,
			PopTimeout:       5 * time.Second,
			TemperatureEvery: 100,
		},
		Telemetry: TelemetryConfig{
			Interval:    10 * time.Second,
			ServiceName: "thermal-capture",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML configuration file over the defaults.
// An empty path returns the validated defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
