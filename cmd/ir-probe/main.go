// ir-probe issues an arbitrary Lepton command and prints the response.
// With an unknown response size it grows the buffer until the camera
// accepts it.
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	arg "github.com/alexflint/go-arg"

	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/cli"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/logging"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/xu"
)

type args struct {
	cli.Common
	Command string `arg:"positional,required" help:"command id in hex (e.g. 0x14)"`
	Size    int    `arg:"positional,required" help:"initial buffer size, 0 to probe from 3 bytes"`
	Unit    string `arg:"--unit" default:"sys" help:"extension unit: agc, oem, rad, sys or vid"`
	Set     bool   `arg:"--set" help:"send a zeroed SET_CUR of Size bytes instead of reading"`
}

func (args) Description() string { return "Probe a Lepton vendor command." }

func (args) Version() string { return "ir-probe " + cli.Version }

func main() {
	var a args
	p := arg.MustParse(&a)

	id, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(a.Command), "0x"), 16, 8)
	if err != nil {
		p.Fail(fmt.Sprintf("invalid command id %q", a.Command))
	}
	unit, err := xu.UnitByName(a.Unit)
	if err != nil {
		p.Fail(err.Error())
	}
	if a.Size < 0 || a.Size > xu.ProbeMaxSize {
		p.Fail(fmt.Sprintf("size must be between 0 and %d", xu.ProbeMaxSize))
	}

	cfg, logger, err := a.Setup()
	if err != nil {
		logging.Fatal("ir-probe: setup failed", "error", err)
	}

	dev, gw, err := cli.OpenGateway(cfg)
	if err != nil {
		logging.Fatal("ir-probe: failed to open camera", "error", err)
	}
	defer dev.Close()

	cmd := uint8(id)
	logger.Debug("ir-probe: issuing command",
		"unit", a.Unit,
		"command", fmt.Sprintf("0x%02x", cmd),
		"selector", xu.Selector(cmd),
		"size", a.Size,
	)

	if a.Set {
		if err := gw.Set(unit, cmd, make([]byte, a.Size)); err != nil {
			dev.Close()
			report(err)
		}
		fmt.Println("ok")
		return
	}

	buf, err := gw.Probe(unit, cmd, a.Size)
	if err != nil {
		dev.Close()
		report(err)
	}
	fmt.Printf("%d bytes\n%s", len(buf), hex.Dump(buf))
}

func report(err error) {
	var cmdErr *xu.CommandError
	switch {
	case errors.As(err, &cmdErr):
		fmt.Fprintf(os.Stderr, "ir-probe: %s (%d, %s)\n", cmdErr, cmdErr.Code, xu.ResultName(cmdErr.Code))
	case errors.Is(err, xu.ErrProbeExhausted):
		fmt.Fprintf(os.Stderr, "ir-probe: no buffer up to %d bytes was accepted\n", xu.ProbeMaxSize)
	default:
		fmt.Fprintf(os.Stderr, "ir-probe: %v\n", err)
	}
	os.Exit(1)
}
