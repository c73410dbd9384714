package xu

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

// PureThermal extension unit ids.
const (
	UnitAGC uint8 = 3
	UnitOEM uint8 = 4
	UnitRAD uint8 = 5
	UnitSYS uint8 = 6
	UnitVID uint8 = 7
)

// Lepton command ids (low byte of the SDK command id).
const (
	CmdSysUptime         uint8 = 0x0C
	CmdSysFPATemperature uint8 = 0x14
	CmdSysFFCModeGet     uint8 = 0x3C
	CmdSysFFCModeSet     uint8 = 0x3D
	CmdSysRunFFC         uint8 = 0x42
	CmdOEMReboot         uint8 = 0x42
)

// UnitByName resolves the unit names accepted on command lines.
func UnitByName(name string) (uint8, error) {
	switch name {
	case "agc":
		return UnitAGC, nil
	case "oem":
		return UnitOEM, nil
	case "rad":
		return UnitRAD, nil
	case "sys":
		return UnitSYS, nil
	case "vid":
		return UnitVID, nil
	default:
		return 0, fmt.Errorf("xu: unknown unit %q (want agc, oem, rad, sys or vid)", name)
	}
}

// CentiK is temperature in 0.01°K
type CentiK uint16

// Celsius converts to degrees Celsius rounded to 0.01.
func (c CentiK) Celsius() float64 {
	return float64(int(c)-27315) / 100
}

func (c CentiK) String() string {
	return fmt.Sprintf("%01d.%02d°K", c/100, c%100)
}

// FFCShutterMode is used in FFCMode.
type FFCShutterMode uint32

const (
	FFCShutterModeManual   FFCShutterMode = 0
	FFCShutterModeAuto     FFCShutterMode = 1
	FFCShutterModeExternal FFCShutterMode = 2
)

// FFCMode is the LEP_SYS_FFC_SHUTTER_MODE_OBJ_T payload (32 bytes, little endian).
type FFCMode struct {
	ShutterMode             FFCShutterMode
	TempLockoutState        uint32
	VideoFreezeDuringFFC    uint32
	FFCDesired              uint32
	ElapsedTimeSinceLastFFC uint32 // ms
	DesiredFFCPeriod        uint32 // ms
	ExplicitCommandToOpen   uint32
	DesiredFFCTempDelta     CentiK
	ImminentDelay           uint16 // frames
}

// ManualFFCMode returns the manual-shutter settings the capture rig runs with:
// FFC only when commanded, video frozen during correction, 180 s period,
// 1.5 K temperature delta.
func ManualFFCMode() FFCMode {
	return FFCMode{
		ShutterMode:             FFCShutterModeManual,
		VideoFreezeDuringFFC:    1,
		ElapsedTimeSinceLastFFC: 0xfef2,
		DesiredFFCPeriod:        180000,
		ExplicitCommandToOpen:   1,
		DesiredFFCTempDelta:     150,
		ImminentDelay:           18,
	}
}

// MarshalBinary encodes m in device byte order.
func (m FFCMode) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, m); err != nil {
		return nil, fmt.Errorf("xu: encode ffc mode: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a 32-byte device payload.
func (m *FFCMode) UnmarshalBinary(data []byte) error {
	if len(data) != binary.Size(m) {
		return fmt.Errorf("xu: ffc mode payload is %d bytes, want %d", len(data), binary.Size(m))
	}
	return binary.Read(bytes.NewReader(data), binary.LittleEndian, m)
}

// RunFFC triggers a flat-field correction. The camera freezes video for
// the duration of the correction.
func (g *Gateway) RunFFC() error {
	return g.Set(UnitSYS, CmdSysRunFFC, make([]byte, 1))
}

// Reboot restarts the camera core.
//
// Known quirk: the command succeeds once and resets the uptime counter, but
// the sensor stops delivering video until the board is power cycled.
func (g *Gateway) Reboot() error {
	return g.Set(UnitOEM, CmdOEMReboot, nil)
}

// Uptime returns the camera uptime. Rolls over after ~1193 hours.
func (g *Gateway) Uptime() (time.Duration, error) {
	buf, err := g.Get(UnitSYS, CmdSysUptime, 4)
	if err != nil {
		return 0, err
	}
	return time.Duration(binary.LittleEndian.Uint32(buf)) * time.Millisecond, nil
}

// FPATemperature returns the focal plane array temperature.
func (g *Gateway) FPATemperature() (CentiK, error) {
	buf, err := g.Get(UnitSYS, CmdSysFPATemperature, 2)
	if err != nil {
		return 0, err
	}
	return CentiK(binary.LittleEndian.Uint16(buf)), nil
}

// FFCMode reads the current shutter/FFC configuration.
func (g *Gateway) FFCMode() (FFCMode, error) {
	var m FFCMode
	buf, err := g.Get(UnitSYS, CmdSysFFCModeGet, binary.Size(m))
	if err != nil {
		return m, err
	}
	return m, m.UnmarshalBinary(buf)
}

// SetFFCMode writes the shutter/FFC configuration.
func (g *Gateway) SetFFCMode(m FFCMode) error {
	payload, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	return g.Set(UnitSYS, CmdSysFFCModeSet, payload)
}
