package uvc

import (
	"fmt"
	"unsafe"

	"github.com/vladimirvivien/go4vl/v4l2"
	"golang.org/x/sys/unix"
)

const (
	capVideoCapture = 0x00000001
	capDeviceCaps   = 0x80000000

	// go4vl stops at VIDIOC_ENUM_FRAMESIZES
	vidiocEnumFrameIntervals = 0xc034564b
)

type v4l2FrmIvalEnum struct { // size 52
	index       uint32
	pixelFormat uint32
	width       uint32
	height      uint32
	typ         uint32
	// discrete: numerator, denominator
	// stepwise: min, max, step fractions
	union    [6]uint32
	reserved [2]uint32
}

// FourCC is a V4L2 pixel format code.
type FourCC uint32

// PixFmtY16 is 16-bit greyscale, little endian.
var PixFmtY16 = MakeFourCC("Y16 ")

// MakeFourCC packs a four-character code.
func MakeFourCC(code string) FourCC {
	var b [4]byte
	copy(b[:], code)
	return FourCC(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
}

func (f FourCC) String() string {
	return string([]byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)})
}

// Info describes an opened capture node.
type Info struct {
	Path       string
	Driver     string
	Card       string
	BusInfo    string
	Version    string
	DeviceCaps uint32
}

// Mode is one format/size/interval combination reported by the device.
type Mode struct {
	PixelFormat FourCC
	Description string
	Width       int
	Height      int
	// Frame interval as a fraction of a second.
	IntervalNum uint32
	IntervalDen uint32
}

// FPS returns the frame rate implied by the interval.
func (m Mode) FPS() float64 {
	if m.IntervalNum == 0 {
		return 0
	}
	return float64(m.IntervalDen) / float64(m.IntervalNum)
}

func (m Mode) String() string {
	return fmt.Sprintf("%s %dx%d@%d/%d", m.PixelFormat, m.Width, m.Height, m.IntervalDen, m.IntervalNum)
}

// nodeCaps returns the capabilities of the opened node rather than of the
// whole physical device.
func nodeCaps(c v4l2.Capability) uint32 {
	if c.Capabilities&capDeviceCaps != 0 {
		return c.DeviceCapabilities
	}
	return c.Capabilities
}

func queryCapability(fd int, path string) (Info, error) {
	c, err := v4l2.GetCapability(uintptr(fd))
	if err != nil {
		return Info{}, fmt.Errorf("VIDIOC_QUERYCAP: %w", err)
	}

	return Info{
		Path:       path,
		Driver:     c.Driver,
		Card:       c.Card,
		BusInfo:    c.BusInfo,
		Version:    fmt.Sprintf("%d.%d.%d", c.Version>>16, (c.Version>>8)&0xff, c.Version&0xff),
		DeviceCaps: nodeCaps(c),
	}, nil
}

// enumerateModes lists every format/frame size pair, each with the first
// frame interval the driver reports for it, in driver order.
func enumerateModes(fd int) ([]Mode, error) {
	descs, err := v4l2.GetAllFormatDescriptions(uintptr(fd))
	if err != nil {
		return nil, fmt.Errorf("VIDIOC_ENUM_FMT: %w", err)
	}

	var modes []Mode
	for _, desc := range descs {
		sizes, err := v4l2.GetFormatFrameSizes(uintptr(fd), desc.PixelFormat)
		if err != nil {
			return nil, fmt.Errorf("VIDIOC_ENUM_FRAMESIZES %s: %w", FourCC(desc.PixelFormat), err)
		}

		for _, size := range sizes {
			// discrete sizes report min == max; stepwise ones use the largest
			mode := Mode{
				PixelFormat: FourCC(desc.PixelFormat),
				Description: desc.Description,
				Width:       int(size.Size.MaxWidth),
				Height:      int(size.Size.MaxHeight),
			}
			mode.IntervalNum, mode.IntervalDen = firstInterval(fd, uint32(desc.PixelFormat), size.Size.MaxWidth, size.Size.MaxHeight)
			modes = append(modes, mode)

			if size.Type != v4l2.FrameSizeTypeDiscrete {
				break
			}
		}
	}

	return modes, nil
}

// firstInterval returns the first frame interval reported for a size, or
// 0/0 when the driver does not enumerate intervals.
func firstInterval(fd int, pixelFormat, width, height uint32) (num, den uint32) {
	ival := v4l2FrmIvalEnum{pixelFormat: pixelFormat, width: width, height: height}
	if err := ioctl(fd, vidiocEnumFrameIntervals, unsafe.Pointer(&ival)); err != nil {
		return 0, 0
	}
	// stepwise/continuous: union starts with the minimum interval
	return ival.union[0], ival.union[1]
}

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// selectMode returns the first mode with the requested pixel format.
func selectMode(modes []Mode, format FourCC) (Mode, bool) {
	for _, m := range modes {
		if m.PixelFormat == format {
			return m, true
		}
	}
	return Mode{}, false
}
