// ir-manual-ffc switches the camera to manual shutter mode so corrections
// only happen when commanded (SIGUSR1 to ir-stream, or ir-ffc).
package main

import (
	"fmt"

	arg "github.com/alexflint/go-arg"

	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/cli"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/logging"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/xu"
)

type args struct {
	cli.Common
	Period    uint32 `arg:"--period" help:"desired FFC period in ms"`
	TempDelta uint16 `arg:"--temp-delta" help:"desired FFC temperature delta in centi-kelvin"`
	Show      bool   `arg:"--show" help:"print the current shutter mode and exit"`
}

func (args) Description() string { return "Write the manual FFC shutter mode." }

func (args) Version() string { return "ir-manual-ffc " + cli.Version }

func main() {
	defaults := xu.ManualFFCMode()
	a := args{
		Period:    defaults.DesiredFFCPeriod,
		TempDelta: uint16(defaults.DesiredFFCTempDelta),
	}
	arg.MustParse(&a)

	cfg, logger, err := a.Setup()
	if err != nil {
		logging.Fatal("ir-manual-ffc: setup failed", "error", err)
	}

	dev, gw, err := cli.OpenGateway(cfg)
	if err != nil {
		logging.Fatal("ir-manual-ffc: failed to open camera", "error", err)
	}
	defer dev.Close()

	if a.Show {
		m, err := gw.FFCMode()
		if err != nil {
			dev.Close()
			logging.Fatal("ir-manual-ffc: read failed", "error", err)
		}
		fmt.Printf("%+v\n", m)
		return
	}

	mode := defaults
	mode.DesiredFFCPeriod = a.Period
	mode.DesiredFFCTempDelta = xu.CentiK(a.TempDelta)

	if err := gw.SetFFCMode(mode); err != nil {
		dev.Close()
		logging.Fatal("ir-manual-ffc: write failed", "error", err)
	}
	logger.Info("ir-manual-ffc: shutter mode written",
		"mode", "manual",
		"period_ms", mode.DesiredFFCPeriod,
		"temp_delta", mode.DesiredFFCTempDelta.String(),
	)
}
