package serial

import (
	"fmt"
	"io"
	"strings"

	"github.com/blackmoon/servo.go/pkg/eeprom"
)

// Frame layout.
const (
	StartByte byte = 0x30
	EndByte   byte = 0x35
	FrameLen       = 5
)

// ParamID identifies a tuning parameter.
type ParamID byte

// Tuning parameters.
const (
	ParamKP        ParamID = 0x01
	ParamKI        ParamID = 0x02
	ParamKD        ParamID = 0x03
	ParamKS        ParamID = 0x04
	ParamSetPoint  ParamID = 0x05
	ParamOutputMax ParamID = 0x06
	ParamInputMax  ParamID = 0x07
	ParamDeadZone  ParamID = 0x08
	ParamPIDPeriod ParamID = 0x09
)

var paramNames = map[ParamID]string{
	ParamKP:        "kp",
	ParamKI:        "ki",
	ParamKD:        "kd",
	ParamKS:        "ks",
	ParamSetPoint:  "setpoint",
	ParamOutputMax: "outmax",
	ParamInputMax:  "inmax",
	ParamDeadZone:  "deadzone",
	ParamPIDPeriod: "period",
}

// ParamIDs lists known parameters in ID order.
func ParamIDs() []ParamID {
	return []ParamID{
		ParamKP, ParamKI, ParamKD, ParamKS, ParamSetPoint,
		ParamOutputMax, ParamInputMax, ParamDeadZone, ParamPIDPeriod,
	}
}

// IsKnown indicates the ID is one of the tuning parameters.
func (id ParamID) IsKnown() bool {
	_, ok := paramNames[id]
	return ok
}

// String returns the short name, or hex for unknown IDs.
func (id ParamID) String() string {
	if name, ok := paramNames[id]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", byte(id))
}

// ParseParamID parses a short name (case-insensitive).
func ParseParamID(name string) (ParamID, error) {
	name = strings.ToLower(name)
	for id, n := range paramNames {
		if n == name {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown parameter %q", name)
}

// AddressMap binds parameters to storage addresses.
type AddressMap map[ParamID]eeprom.Addr

// DefaultAddressMap is the board's parameter layout.
var DefaultAddressMap = AddressMap{
	ParamKP:        eeprom.KPAddr,
	ParamKI:        eeprom.KIAddr,
	ParamKD:        eeprom.KDAddr,
	ParamKS:        eeprom.KSAddr,
	ParamSetPoint:  eeprom.SetPointAddr,
	ParamOutputMax: eeprom.OutputMaxAddr,
	ParamInputMax:  eeprom.InputMaxAddr,
	ParamDeadZone:  eeprom.DeadZoneAddr,
	ParamPIDPeriod: eeprom.PIDPeriodAddr,
}

// Param is a decoded frame.
type Param struct {
	ID    ParamID
	Value uint16
}

// Bytes returns the encoded frame.
func (p Param) Bytes() []byte {
	return []byte{StartByte, byte(p.ID), byte(p.Value >> 8), byte(p.Value), EndByte}
}

// WriteTo writes the encoded frame.
func (p Param) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p.Bytes())
	return int64(n), err
}

// String implements fmt.Stringer.
func (p Param) String() string {
	return fmt.Sprintf("%s=%d", p.ID, p.Value)
}

// DecodeFrame decodes exactly one frame.
func DecodeFrame(b []byte) (Param, error) {
	if len(b) != FrameLen || b[0] != StartByte || b[FrameLen-1] != EndByte {
		return Param{}, ErrBadFrame
	}
	return Param{ID: ParamID(b[1]), Value: uint16(b[2])<<8 | uint16(b[3])}, nil
}
