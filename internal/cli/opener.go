package cli

import (
	thermalcapture "github.com/e7canasta/orion-care-sensor/modules/thermal-capture"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/uvc"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/xu"
)

// UVCOpener opens cameras through the uvcvideo driver. Ids passed to the
// opener override VendorID and ProductID in base.
func UVCOpener(base uvc.Config) thermalcapture.Opener {
	return func(vendorID, productID uint16) (thermalcapture.Device, error) {
		cfg := base
		cfg.VendorID = vendorID
		cfg.ProductID = productID

		d, err := uvc.Open(cfg)
		if err != nil {
			return nil, err
		}
		return &uvcDevice{dev: d}, nil
	}
}

// uvcDevice adapts *uvc.Device to thermalcapture.Device.
type uvcDevice struct {
	dev *uvc.Device
}

func (u *uvcDevice) NegotiateFormat() (thermalcapture.StreamConfig, error) {
	mode, err := u.dev.NegotiateFormat(uvc.PixFmtY16)
	if err != nil {
		return thermalcapture.StreamConfig{}, err
	}
	return streamConfig(mode), nil
}

func (u *uvcDevice) StartStreaming(deliver func(payload []byte)) error {
	return u.dev.StartStreaming(deliver)
}

func (u *uvcDevice) StopStreaming() error { return u.dev.StopStreaming() }

func (u *uvcDevice) Close() error { return u.dev.Close() }

func (u *uvcDevice) Control(req xu.Request, unit, selector uint8, buf []byte) int {
	return u.dev.Control(req, unit, selector, buf)
}

func (u *uvcDevice) BusErrors() thermalcapture.BusErrors {
	return busErrors(u.dev.Errors())
}

func streamConfig(m uvc.Mode) thermalcapture.StreamConfig {
	return thermalcapture.StreamConfig{
		Width:       m.Width,
		Height:      m.Height,
		IntervalNum: m.IntervalNum,
		IntervalDen: m.IntervalDen,
	}
}

func busErrors(e *uvc.ErrorCounters) thermalcapture.BusErrors {
	return thermalcapture.BusErrors{
		Device:      e.Device.Load(),
		Negotiation: e.Negotiation.Load(),
		Resource:    e.Resource.Load(),
		Unknown:     e.Unknown.Load(),
	}
}
