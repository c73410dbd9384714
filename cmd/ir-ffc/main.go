// ir-ffc runs one flat-field correction on the camera.
package main

import (
	"time"

	arg "github.com/alexflint/go-arg"

	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/cli"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/logging"
)

type args struct {
	cli.Common
}

func (args) Description() string { return "Trigger a flat-field correction (FFC)." }

func (args) Version() string { return "ir-ffc " + cli.Version }

func main() {
	var a args
	arg.MustParse(&a)

	cfg, logger, err := a.Setup()
	if err != nil {
		logging.Fatal("ir-ffc: setup failed", "error", err)
	}

	dev, gw, err := cli.OpenGateway(cfg)
	if err != nil {
		logging.Fatal("ir-ffc: failed to open camera", "error", err)
	}
	defer dev.Close()

	start := time.Now()
	if err := gw.RunFFC(); err != nil {
		dev.Close()
		logging.Fatal("ir-ffc: FFC failed", "error", err)
	}
	logger.Info("ir-ffc: FFC complete", "device", dev.Info().Path, "duration", time.Since(start))
}
