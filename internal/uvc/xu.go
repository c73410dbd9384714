package uvc

import (
	"errors"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/xu"
)

// uvcXuControlQuery mirrors struct uvc_xu_control_query from
// linux/uvcvideo.h. Go inserts the same padding as the C compiler.
type uvcXuControlQuery struct {
	unit     uint8
	selector uint8
	query    uint8
	size     uint16
	data     uintptr
}

// UVCIOC_CTRL_QUERY is _IOWR('u', 0x21, struct uvc_xu_control_query).
var uvciocCtrlQuery = uintptr(3<<30 | uint32(unsafe.Sizeof(uvcXuControlQuery{}))<<16 | 'u'<<8 | 0x21)

// controlQuery runs one extension-unit request against fd.
func controlQuery(fd int, req xu.Request, unit, selector uint8, buf []byte) error {
	q := uvcXuControlQuery{
		unit:     unit,
		selector: selector,
		query:    uint8(req),
		size:     uint16(len(buf)),
	}
	if len(buf) > 0 {
		q.data = uintptr(unsafe.Pointer(&buf[0]))
	}

	err := ioctl(fd, uvciocCtrlQuery, unsafe.Pointer(&q))
	runtime.KeepAlive(buf)
	return err
}

// resultCode maps an ioctl errno onto the libuvc result codes the gateway
// understands. uvcvideo rejects a size mismatch with ENOBUFS; a stalled
// control endpoint surfaces as EPIPE.
func resultCode(err error) int {
	if err == nil {
		return xu.ResultSuccess
	}

	var errno unix.Errno
	if !errors.As(err, &errno) {
		return xu.ResultOther
	}

	switch errno {
	case unix.ENOBUFS, unix.EPIPE:
		return xu.ResultBufferTooSmall
	case unix.EIO:
		return xu.ResultIO
	case unix.EINVAL:
		return xu.ResultInvalidParam
	case unix.EACCES, unix.EPERM:
		return xu.ResultAccess
	case unix.ENODEV, unix.ENOENT:
		return xu.ResultNoDevice
	case unix.EBUSY:
		return xu.ResultBusy
	case unix.ETIMEDOUT:
		return xu.ResultTimeout
	case unix.EOVERFLOW:
		return xu.ResultOverflow
	case unix.EINTR:
		return xu.ResultInterrupted
	case unix.ENOMEM:
		return xu.ResultNoMem
	case unix.ENOSYS, unix.EOPNOTSUPP:
		return xu.ResultNotSupported
	default:
		return xu.ResultOther
	}
}
