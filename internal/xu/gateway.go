// Package xu issues vendor commands to the camera's UVC extension units.
//
// Every command is one control transfer against (unit, selector) with a
// caller-sized buffer. The Gateway layers the three usage patterns on top of
// that primitive: Set (payload in, result code only), Get (fixed-size read)
// and Probe (grow the buffer until the device stops reporting it too small).
package xu

import (
	"errors"
	"fmt"
	"log/slog"
)

// Request is the UVC class request code sent with a control transfer.
type Request uint8

const (
	SetCur Request = 0x01
	GetCur Request = 0x81
)

func (r Request) String() string {
	switch r {
	case SetCur:
		return "SET_CUR"
	case GetCur:
		return "GET_CUR"
	default:
		return fmt.Sprintf("request(0x%02x)", uint8(r))
	}
}

// Result codes follow libuvc: 0 is success, negative values are errors.
const (
	ResultSuccess        = 0
	ResultIO             = -1
	ResultInvalidParam   = -2
	ResultAccess         = -3
	ResultNoDevice       = -4
	ResultNotFound       = -5
	ResultBusy           = -6
	ResultTimeout        = -7
	ResultOverflow       = -8
	ResultBufferTooSmall = -9 // response did not fit, retry larger
	ResultInterrupted    = -10
	ResultNoMem          = -11
	ResultNotSupported   = -12
	ResultOther          = -99
)

// Probe bounds.
const (
	ProbeStartSize = 3
	ProbeMaxSize   = 300
)

var (
	// ErrBufferTooSmall matches a CommandError carrying ResultBufferTooSmall.
	ErrBufferTooSmall = errors.New("xu: response buffer too small")

	// ErrProbeExhausted is returned when no buffer up to ProbeMaxSize fits.
	ErrProbeExhausted = errors.New("xu: probe exhausted buffer size ceiling")
)

// Transport performs one control transfer and returns its result code.
// For GetCur the response is written into buf.
type Transport interface {
	Control(req Request, unit, selector uint8, buf []byte) int
}

// CommandError reports a negative result code.
type CommandError struct {
	Request   Request
	Unit      uint8
	CommandID uint8
	Size      int
	Code      int
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("xu: %s unit=%d command=0x%02x size=%d failed: %s (%d)",
		e.Request, e.Unit, e.CommandID, e.Size, ResultName(e.Code), e.Code)
}

// Is lets errors.Is(err, ErrBufferTooSmall) match the sentinel code.
func (e *CommandError) Is(target error) bool {
	return target == ErrBufferTooSmall && e.Code == ResultBufferTooSmall
}

// ResultName returns the libuvc name for a result code.
func ResultName(code int) string {
	switch code {
	case ResultSuccess:
		return "success"
	case ResultIO:
		return "io error"
	case ResultInvalidParam:
		return "invalid param"
	case ResultAccess:
		return "access denied"
	case ResultNoDevice:
		return "no device"
	case ResultNotFound:
		return "not found"
	case ResultBusy:
		return "busy"
	case ResultTimeout:
		return "timeout"
	case ResultOverflow:
		return "overflow"
	case ResultBufferTooSmall:
		return "pipe"
	case ResultInterrupted:
		return "interrupted"
	case ResultNoMem:
		return "no memory"
	case ResultNotSupported:
		return "not supported"
	default:
		return "other"
	}
}

// Selector derives the extension-unit control selector from a Lepton
// command id. The low two bits of an SDK id select get/set/run, so ids
// sharing a base map to the same control.
func Selector(commandID uint8) uint8 {
	return (commandID >> 2) + 1
}

// Gateway issues vendor commands over a Transport.
type Gateway struct {
	t Transport
}

// NewGateway wraps t.
func NewGateway(t Transport) *Gateway {
	return &Gateway{t: t}
}

// Execute performs a single transfer for commandID on unit.
func (g *Gateway) Execute(req Request, unit, commandID uint8, buf []byte) error {
	code := g.t.Control(req, unit, Selector(commandID), buf)
	if code < 0 {
		return &CommandError{Request: req, Unit: unit, CommandID: commandID, Size: len(buf), Code: code}
	}
	return nil
}

// Set sends payload and checks only the result code.
func (g *Gateway) Set(unit, commandID uint8, payload []byte) error {
	return g.Execute(SetCur, unit, commandID, payload)
}

// Get reads a response of a known size.
func (g *Gateway) Get(unit, commandID uint8, size int) ([]byte, error) {
	buf := make([]byte, size)
	if err := g.Execute(GetCur, unit, commandID, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Probe reads a response of unknown size.
//
// It first tries initial bytes (skipped when initial <= 0), then grows from
// ProbeStartSize one byte at a time while the device answers
// ResultBufferTooSmall. Any other error ends the probe immediately.
// Returns ErrProbeExhausted when ProbeMaxSize is reached without success.
func (g *Gateway) Probe(unit, commandID uint8, initial int) ([]byte, error) {
	if initial > 0 {
		buf, err := g.Get(unit, commandID, initial)
		if err == nil {
			return buf, nil
		}
		if !errors.Is(err, ErrBufferTooSmall) {
			return nil, err
		}
		slog.Debug("xu: initial buffer too small, probing",
			"unit", unit,
			"command", fmt.Sprintf("0x%02x", commandID),
			"initial_size", initial,
		)
	}

	for size := ProbeStartSize; size <= ProbeMaxSize; size++ {
		buf, err := g.Get(unit, commandID, size)
		if err == nil {
			slog.Debug("xu: probe succeeded",
				"unit", unit,
				"command", fmt.Sprintf("0x%02x", commandID),
				"size", size,
			)
			return buf, nil
		}
		if !errors.Is(err, ErrBufferTooSmall) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: unit=%d command=0x%02x max_size=%d",
		ErrProbeExhausted, unit, commandID, ProbeMaxSize)
}
