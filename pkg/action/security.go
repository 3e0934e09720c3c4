// Package action builds the command frames understood by the scooter's motor controller.
//
// Builders return unencrypted frames. A scooter.Client (or any other holder of a session) must
// encrypt them before they are written to the link.
package action

import (
	"github.com/m365ble/scooter-command/pkg/protocol"
)

// registerOn is the value written to a command register to trigger it.
var registerOn = []byte{0x01, 0x00}

func write(attribute protocol.Attribute, value []byte) *protocol.Frame {
	return &protocol.Frame{
		Direction: protocol.DirectionControllerToMotor,
		Operation: protocol.OperationWrite,
		Attribute: attribute,
		Payload:   append([]byte{}, value...),
	}
}

// Lock disables the motor. The motor controller ignores the throttle until Unlock is sent.
func Lock() *protocol.Frame {
	return write(protocol.AttributeLock, registerOn)
}

// Unlock re-enables the motor after Lock.
func Unlock() *protocol.Frame {
	return write(protocol.AttributeUnlock, registerOn)
}

// SetLock returns Lock if locked is true and Unlock otherwise.
func SetLock(locked bool) *protocol.Frame {
	if locked {
		return Lock()
	}
	return Unlock()
}
