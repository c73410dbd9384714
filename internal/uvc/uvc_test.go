package uvc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
	"unsafe"

	"github.com/vladimirvivien/go4vl/v4l2"
	"golang.org/x/sys/unix"

	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/xu"
)

// TestStructLayouts pins the ioctl argument sizes to the kernel ABI
func TestStructLayouts(t *testing.T) {
	if got := unsafe.Sizeof(v4l2FrmIvalEnum{}); got != 52 {
		t.Errorf("v4l2_frmivalenum: size %d, want 52", got)
	}

	// 16 bytes with 8-byte pointers, 12 with 4-byte pointers
	wantQuery := uintptr(8 + unsafe.Sizeof(uintptr(0)))
	if got := unsafe.Sizeof(uvcXuControlQuery{}); got != wantQuery {
		t.Errorf("uvc_xu_control_query: size %d, want %d", got, wantQuery)
	}
	if unsafe.Sizeof(uintptr(0)) == 8 && uvciocCtrlQuery != 0xc0107521 {
		t.Errorf("UVCIOC_CTRL_QUERY = %#x, want 0xc0107521", uvciocCtrlQuery)
	}
}

func TestFourCC(t *testing.T) {
	if PixFmtY16 != FourCC(0x20363159) {
		t.Errorf("Y16 fourcc = %#x, want 0x20363159", uint32(PixFmtY16))
	}
	if PixFmtY16.String() != "Y16 " {
		t.Errorf("String() = %q", PixFmtY16.String())
	}
}

func TestNodeCaps(t *testing.T) {
	// uvcvideo metadata node: the device can capture, the node cannot
	meta := v4l2.Capability{Capabilities: capVideoCapture | capDeviceCaps, DeviceCapabilities: 0x00800000}
	if nodeCaps(meta)&capVideoCapture != 0 {
		t.Error("metadata node reported as video capture")
	}
	legacy := v4l2.Capability{Capabilities: capVideoCapture}
	if nodeCaps(legacy)&capVideoCapture == 0 {
		t.Error("driver without device caps lost VIDEO_CAPTURE")
	}
}

func TestSelectMode(t *testing.T) {
	modes := []Mode{
		{PixelFormat: MakeFourCC("UYVY"), Width: 160, Height: 120},
		{PixelFormat: PixFmtY16, Width: 160, Height: 120, IntervalNum: 1, IntervalDen: 9},
		{PixelFormat: PixFmtY16, Width: 160, Height: 122, IntervalNum: 1, IntervalDen: 9},
	}

	m, ok := selectMode(modes, PixFmtY16)
	if !ok {
		t.Fatal("expected Y16 mode")
	}
	if m.Height != 120 {
		t.Errorf("expected first matching mode (160x120), got %dx%d", m.Width, m.Height)
	}
	if m.FPS() != 9 {
		t.Errorf("FPS = %v, want 9", m.FPS())
	}

	if _, ok := selectMode(modes[:1], PixFmtY16); ok {
		t.Error("expected no match without Y16")
	}
}

func TestPipelineCaps(t *testing.T) {
	cfg := PipelineConfig{Width: 160, Height: 120, IntervalNum: 1, IntervalDen: 9}
	want := "video/x-raw,format=GRAY16_LE,width=160,height=120,framerate=9/1"
	if got := cfg.Caps(); got != want {
		t.Errorf("Caps() = %q, want %q", got, want)
	}

	cfg.IntervalNum = 0
	if got := cfg.Caps(); got != "video/x-raw,format=GRAY16_LE,width=160,height=120" {
		t.Errorf("Caps() without interval = %q", got)
	}
}

func TestResultCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, xu.ResultSuccess},
		{unix.ENOBUFS, xu.ResultBufferTooSmall},
		{unix.EPIPE, xu.ResultBufferTooSmall},
		{fmt.Errorf("wrapped: %w", unix.EIO), xu.ResultIO},
		{unix.EINVAL, xu.ResultInvalidParam},
		{unix.ENODEV, xu.ResultNoDevice},
		{unix.ETIMEDOUT, xu.ResultTimeout},
		{unix.EXDEV, xu.ResultOther},
		{errors.New("not an errno"), xu.ResultOther},
	}
	for _, tt := range tests {
		if got := resultCode(tt.err); got != tt.want {
			t.Errorf("resultCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestClassifyMessage(t *testing.T) {
	tests := []struct {
		msg, debug string
		want       ErrorCategory
	}{
		{"Internal data stream error.", "streaming stopped, reason not-negotiated (-4)", ErrCategoryNegotiation},
		{"Could not read from resource.", "Failed to allocate a buffer", ErrCategoryResource},
		{"Could not read from resource.", "poll error 1: No such device (19)", ErrCategoryDevice},
		{"Cannot identify device '/dev/video9'.", "system error: No such file or directory", ErrCategoryUnknown},
	}
	for _, tt := range tests {
		if got := ClassifyMessage(tt.msg, tt.debug); got != tt.want {
			t.Errorf("ClassifyMessage(%q, %q) = %s, want %s", tt.msg, tt.debug, got, tt.want)
		}
	}
}

func TestErrorCounters(t *testing.T) {
	var c ErrorCounters
	c.Add(ErrCategoryDevice)
	c.Add(ErrCategoryDevice)
	c.Add(ErrCategoryUnknown)
	if c.Device.Load() != 2 || c.Unknown.Load() != 1 || c.Negotiation.Load() != 0 {
		t.Errorf("unexpected counters: device=%d unknown=%d negotiation=%d",
			c.Device.Load(), c.Unknown.Load(), c.Negotiation.Load())
	}
}

func TestRetry(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, RetryDelay: time.Millisecond, MaxRetryDelay: 4 * time.Millisecond}

	t.Run("succeeds_after_failures", func(t *testing.T) {
		attempts := 0
		v, err := Retry(context.Background(), func(ctx context.Context) (int, error) {
			attempts++
			if attempts < 3 {
				return 0, errors.New("not yet")
			}
			return 7, nil
		}, cfg)
		if err != nil || v != 7 {
			t.Fatalf("Retry = %d, %v", v, err)
		}
		if attempts != 3 {
			t.Errorf("expected 3 attempts, got %d", attempts)
		}
	})

	t.Run("gives_up", func(t *testing.T) {
		sentinel := errors.New("gone")
		attempts := 0
		_, err := Retry(context.Background(), func(ctx context.Context) (int, error) {
			attempts++
			return 0, sentinel
		}, cfg)
		if !errors.Is(err, sentinel) {
			t.Fatalf("expected wrapped sentinel, got %v", err)
		}
		if attempts != cfg.MaxRetries+1 {
			t.Errorf("expected %d attempts, got %d", cfg.MaxRetries+1, attempts)
		}
	})

	t.Run("context_cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Retry(ctx, func(ctx context.Context) (int, error) {
			return 0, errors.New("fail")
		}, RetryConfig{MaxRetries: 5, RetryDelay: time.Second, MaxRetryDelay: time.Second})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{RetryDelay: 500 * time.Millisecond, MaxRetryDelay: 3 * time.Second}
	want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}
	for i, w := range want {
		if got := calculateBackoff(i+1, cfg); got != w {
			t.Errorf("attempt %d: %v, want %v", i+1, got, w)
		}
	}
}
