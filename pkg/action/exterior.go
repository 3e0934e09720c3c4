package action

import (
	"encoding/binary"
	"fmt"

	"github.com/m365ble/scooter-command/pkg/protocol"
)

// TailLightMode is the value of the tail light register.
type TailLightMode uint16

const (
	TailLightModeOff    TailLightMode = 0
	TailLightModeBrake  TailLightMode = 1
	TailLightModeAlways TailLightMode = 2
)

func (m TailLightMode) String() string {
	switch m {
	case TailLightModeOff:
		return "off"
	case TailLightModeBrake:
		return "brake"
	case TailLightModeAlways:
		return "on"
	}
	return fmt.Sprintf("TailLightMode(%d)", uint16(m))
}

// SetTailLightMode writes mode to the tail light register.
func SetTailLightMode(mode TailLightMode) *protocol.Frame {
	return write(protocol.AttributeTailLight, binary.LittleEndian.AppendUint16(nil, uint16(mode)))
}

// TailLightOn keeps the tail light lit.
func TailLightOn() *protocol.Frame {
	return SetTailLightMode(TailLightModeAlways)
}

// TailLightOff turns the tail light off.
func TailLightOff() *protocol.Frame {
	return SetTailLightMode(TailLightModeOff)
}

// SetTailLight returns TailLightOn or TailLightOff.
func SetTailLight(on bool) *protocol.Frame {
	if on {
		return TailLightOn()
	}
	return TailLightOff()
}
