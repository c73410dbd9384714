// ir-reboot restarts the Lepton core through the OEM unit.
//
// The camera resets its uptime counter but stops delivering video until the
// board is power cycled. Use --wait to confirm the core came back.
package main

import (
	"context"
	"time"

	arg "github.com/alexflint/go-arg"

	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/cli"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/config"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/logging"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/uvc"
)

type args struct {
	cli.Common
	Wait bool `arg:"--wait" help:"re-open the camera after the reboot and report its uptime"`
}

func (args) Description() string {
	return "Reboot the Lepton core. Video stays off until the board is power cycled."
}

func (args) Version() string { return "ir-reboot " + cli.Version }

func main() {
	var a args
	arg.MustParse(&a)

	cfg, logger, err := a.Setup()
	if err != nil {
		logging.Fatal("ir-reboot: setup failed", "error", err)
	}

	dev, gw, err := cli.OpenGateway(cfg)
	if err != nil {
		logging.Fatal("ir-reboot: failed to open camera", "error", err)
	}

	if before, err := gw.Uptime(); err == nil {
		logger.Info("ir-reboot: camera uptime before reboot", "uptime", before)
	}

	err = gw.Reboot()
	dev.Close()
	if err != nil {
		logging.Fatal("ir-reboot: reboot failed", "error", err)
	}
	logger.Info("ir-reboot: reboot sent")

	if !a.Wait {
		return
	}

	uptime, err := waitForCamera(context.Background(), cfg)
	if err != nil {
		logging.Fatal("ir-reboot: camera did not come back", "error", err)
	}
	logger.Info("ir-reboot: camera back", "uptime", uptime)
}

// waitForCamera re-opens the camera with backoff and reads its uptime.
func waitForCamera(ctx context.Context, cfg *config.Config) (time.Duration, error) {
	return uvc.Retry(ctx, func(ctx context.Context) (time.Duration, error) {
		dev, gw, err := cli.OpenGateway(cfg)
		if err != nil {
			return 0, err
		}
		defer dev.Close()
		return gw.Uptime()
	}, uvc.DefaultRetryConfig())
}
