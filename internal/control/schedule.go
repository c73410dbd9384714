package control

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Schedule raises a calibration request on every tick of a cron spec
// (standard five-field or descriptors such as "@every 10m"). The job only
// sets the flag; the capture loop runs the correction between frames.
//
// The returned scheduler is already started; call Stop on shutdown.
func Schedule(spec string, flags *Flags, logger cron.Logger) (*cron.Cron, error) {
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(spec, flags.RequestCalibration); err != nil {
		return nil, fmt.Errorf("control: invalid calibration schedule %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
