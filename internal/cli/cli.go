// Package cli holds the flags and start-up shared by the commands.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/config"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/logging"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/uvc"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/xu"
)

// Version is reported by --version.
const Version = "v0.1.0"

// Common are the options every command accepts. Embed it in the argument struct.
type Common struct {
	Config string `arg:"-c,--config" help:"YAML configuration file (defaults apply when omitted)"`
	Debug  bool   `arg:"--debug" help:"enable debug logging"`
	JSON   bool   `arg:"--json" help:"log as JSON lines"`
}

// Setup loads the configuration and installs the default logger.
func (c Common) Setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	if c.Debug {
		level = slog.LevelDebug
	}

	logger := logging.Setup(logging.Options{
		Level: level,
		JSON:  c.JSON || cfg.Log.Format == "json",
	})
	return cfg, logger, nil
}

// DeviceConfig converts the device section for uvc.Open.
func DeviceConfig(cfg *config.Config) uvc.Config {
	return uvc.Config{
		VendorID:     cfg.Device.VendorID,
		ProductID:    cfg.Device.ProductID,
		SysfsRoot:    cfg.Device.SysfsRoot,
		StartTimeout: cfg.Device.StartTimeout,
	}
}

// OpenGateway opens the configured camera for vendor commands only.
// The caller closes the returned device.
func OpenGateway(cfg *config.Config) (*uvc.Device, *xu.Gateway, error) {
	dev, err := uvc.Open(DeviceConfig(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("open %04x:%04x: %w", cfg.Device.VendorID, cfg.Device.ProductID, err)
	}
	return dev, xu.NewGateway(dev), nil
}
