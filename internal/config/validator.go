package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Validate checks if the configuration is valid, filling zero values with defaults
func Validate(cfg *Config) error {
	def := Default()

	if cfg.Device.VendorID == 0 || cfg.Device.ProductID == 0 {
		return fmt.Errorf("device.vendor_id and device.product_id are required")
	}
	if cfg.Device.SysfsRoot == "" {
		cfg.Device.SysfsRoot = def.Device.SysfsRoot
	}
	if cfg.Device.StartTimeout <= 0 {
		cfg.Device.StartTimeout = def.Device.StartTimeout
	}

	if cfg.Capture.QueueCapacity < 0 {
		return fmt.Errorf("capture.queue_capacity must be >= 1")
	}
	if cfg.Capture.QueueCapacity == 0 {
		cfg.Capture.QueueCapacity = def.Capture.QueueCapacity
	}
	if cfg.Capture.PopTimeout < 0 {
		return fmt.Errorf("capture.pop_timeout must be > 0")
	}
	if cfg.Capture.PopTimeout == 0 {
		cfg.Capture.PopTimeout = def.Capture.PopTimeout
	}
	if cfg.Capture.TemperatureEvery < 0 {
		return fmt.Errorf("capture.temperature_every must be >= 1")
	}
	if cfg.Capture.TemperatureEvery == 0 {
		cfg.Capture.TemperatureEvery = def.Capture.TemperatureEvery
	}

	if cfg.Calibration.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Calibration.Schedule); err != nil {
			return fmt.Errorf("calibration.schedule: %w", err)
		}
	}

	if cfg.Telemetry.Interval <= 0 {
		cfg.Telemetry.Interval = def.Telemetry.Interval
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = def.Telemetry.ServiceName
	}

	switch cfg.Log.Level {
	case "":
		cfg.Log.Level = def.Log.Level
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error (got %q)", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "":
		cfg.Log.Format = def.Log.Format
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json (got %q)", cfg.Log.Format)
	}

	return nil
}
