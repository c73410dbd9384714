// ir-stream captures frames from a PureThermal/Lepton camera into a
// directory of .rawir files until SIGINT, SIGTERM or SIGUSR2.
// SIGUSR1 runs a flat-field correction before the next frame is written.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	arg "github.com/alexflint/go-arg"
	"go.opentelemetry.io/otel"

	thermalcapture "github.com/e7canasta/orion-care-sensor/modules/thermal-capture"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/cli"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/control"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/logging"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/telemetry"
)

type args struct {
	cli.Common
	Directory string `arg:"positional,required" help:"directory to write .rawir frames to"`
}

func (args) Description() string {
	return "Capture Y16 frames from a PureThermal camera as .rawir files.\n" +
		"Signals: SIGINT/SIGTERM/SIGUSR2 stop, SIGUSR1 runs FFC."
}

func (args) Version() string { return "ir-stream " + cli.Version }

func main() {
	os.Exit(run())
}

func run() int {
	var a args
	arg.MustParse(&a)

	cfg, logger, err := a.Setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ir-stream: %v\n", err)
		return 1
	}

	ctx := context.Background()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Interval:    cfg.Telemetry.Interval,
	})
	if err != nil {
		logger.Error("ir-stream: telemetry setup failed", "error", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.Warn("ir-stream: telemetry shutdown", "error", err)
		}
	}()

	metrics, err := telemetry.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		logger.Error("ir-stream: metrics setup failed", "error", err)
		return 1
	}

	flags := control.NewFlags()
	stopSignals := control.Notify(flags)
	defer stopSignals()

	if spec := cfg.Calibration.Schedule; spec != "" {
		sched, err := control.Schedule(spec, flags, &logging.CronLogger{Logger: logger})
		if err != nil {
			logger.Error("ir-stream: calibration schedule", "error", err)
			return 1
		}
		defer sched.Stop()
		logger.Info("ir-stream: periodic calibration enabled", "schedule", spec)
	}

	capture, err := thermalcapture.New(
		thermalcapture.Config{
			VendorID:         cfg.Device.VendorID,
			ProductID:        cfg.Device.ProductID,
			OutputDir:        a.Directory,
			QueueCapacity:    cfg.Capture.QueueCapacity,
			PopTimeout:       cfg.Capture.PopTimeout,
			TemperatureEvery: cfg.Capture.TemperatureEvery,
		},
		cli.UVCOpener(cli.DeviceConfig(cfg)),
		flags,
		thermalcapture.WithLogger(logger),
		thermalcapture.WithMetrics(metrics),
	)
	if err != nil {
		logger.Error("ir-stream: invalid configuration", "error", err)
		return 1
	}

	logger.Info("ir-stream: starting",
		"version", cli.Version,
		"directory", a.Directory,
		"session_id", capture.SessionID(),
		"pid", os.Getpid(),
	)

	return thermalcapture.ExitCode(capture.Run(ctx))
}
