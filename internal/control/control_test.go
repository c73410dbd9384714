package control

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
)

func TestFlags_Properties(t *testing.T) {
	t.Run("Property_1_CalibrationClearedOnConsume", func(t *testing.T) {
		f := NewFlags()
		f.RequestCalibration()
		f.RequestCalibration()

		if !f.ConsumeCalibrationRequested() {
			t.Fatal("expected pending calibration")
		}
		if f.ConsumeCalibrationRequested() {
			t.Error("calibration must be false immediately after consume")
		}
		t.Log("✅ Repeated requests collapse to one consume")
	})

	t.Run("Property_2_ShutdownIsSticky", func(t *testing.T) {
		f := NewFlags()
		if f.ConsumeShutdownRequested() {
			t.Fatal("fresh flags must not request shutdown")
		}
		f.RequestShutdown()
		for i := 0; i < 3; i++ {
			if !f.ConsumeShutdownRequested() {
				t.Fatalf("shutdown lost on read %d", i)
			}
		}
	})

	t.Run("Property_3_FlagsIndependent", func(t *testing.T) {
		f := NewFlags()
		f.RequestShutdown()
		if f.CalibrationPending() {
			t.Error("shutdown must not set calibration")
		}
		f.RequestCalibration()
		f.ConsumeCalibrationRequested()
		if !f.ConsumeShutdownRequested() {
			t.Error("consuming calibration must not clear shutdown")
		}
	})
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		name            string
		sig             os.Signal
		wantShutdown    bool
		wantCalibration bool
	}{
		{"interrupt", os.Interrupt, true, false},
		{"terminate", syscall.SIGTERM, true, false},
		{"usr2", syscall.SIGUSR2, true, false},
		{"usr1", syscall.SIGUSR1, false, true},
		{"hangup ignored", syscall.SIGHUP, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFlags()
			Dispatch(f, tt.sig)
			if got := f.ConsumeShutdownRequested(); got != tt.wantShutdown {
				t.Errorf("shutdown = %v, want %v", got, tt.wantShutdown)
			}
			if got := f.CalibrationPending(); got != tt.wantCalibration {
				t.Errorf("calibration = %v, want %v", got, tt.wantCalibration)
			}
		})
	}
}

// TestNotify_DeliversProcessSignal sends SIGUSR1 to the test process itself
func TestNotify_DeliversProcessSignal(t *testing.T) {
	f := NewFlags()
	stop := Notify(f)
	defer stop()

	if err := syscall.Kill(os.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("kill: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !f.CalibrationPending() {
		if time.Now().After(deadline) {
			t.Fatal("SIGUSR1 did not set the calibration flag")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// stop is idempotent
	stop()
	stop()
	t.Log("✅ SIGUSR1 mapped to calibration request")
}

func TestSchedule(t *testing.T) {
	t.Run("invalid_spec", func(t *testing.T) {
		if _, err := Schedule("not a schedule", NewFlags(), cron.DiscardLogger); err == nil {
			t.Fatal("expected error for invalid spec")
		}
	})

	t.Run("raises_calibration", func(t *testing.T) {
		f := NewFlags()
		c, err := Schedule("@every 1s", f, cron.DiscardLogger)
		if err != nil {
			t.Fatalf("Schedule: %v", err)
		}
		defer c.Stop()

		deadline := time.Now().Add(3 * time.Second)
		for !f.CalibrationPending() {
			if time.Now().After(deadline) {
				t.Fatal("scheduled calibration never requested")
			}
			time.Sleep(20 * time.Millisecond)
		}
		if f.ConsumeShutdownRequested() {
			t.Error("schedule must not request shutdown")
		}
	})
}
