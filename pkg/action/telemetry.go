package action

import (
	"github.com/m365ble/scooter-command/pkg/protocol"
)

// Number of bytes returned by each telemetry register.
const (
	SerialNumberLength    = 14
	FirmwareVersionLength = 2
	BatteryLevelLength    = 2
	RemainingRangeLength  = 2
	TotalMileageLength    = 4
	SpeedLength           = 2
)

var registerLengths = map[protocol.Attribute]byte{
	protocol.AttributeSerialNumber:    SerialNumberLength,
	protocol.AttributeFirmwareVersion: FirmwareVersionLength,
	protocol.AttributeBatteryLevel:    BatteryLevelLength,
	protocol.AttributeRemainingRange:  RemainingRangeLength,
	protocol.AttributeTotalMileage:    TotalMileageLength,
	protocol.AttributeSpeed:           SpeedLength,
}

// ReadRegister returns a read of the full telemetry register at attribute. It returns false for
// registers that cannot be read.
func ReadRegister(attribute protocol.Attribute) (*protocol.Frame, bool) {
	length, ok := registerLengths[attribute]
	if !ok {
		return nil, false
	}
	return Read(attribute, length), true
}

// Read asks the motor controller for length bytes starting at attribute.
func Read(attribute protocol.Attribute, length byte) *protocol.Frame {
	return &protocol.Frame{
		Direction: protocol.DirectionControllerToMotor,
		Operation: protocol.OperationRead,
		Attribute: attribute,
		Payload:   []byte{length},
	}
}

// ReadSerialNumber fetches the ASCII serial number.
func ReadSerialNumber() *protocol.Frame {
	return Read(protocol.AttributeSerialNumber, SerialNumberLength)
}

// ReadFirmwareVersion fetches the BCD-encoded motor controller firmware version.
func ReadFirmwareVersion() *protocol.Frame {
	return Read(protocol.AttributeFirmwareVersion, FirmwareVersionLength)
}

// ReadBatteryLevel fetches the state of charge in percent.
func ReadBatteryLevel() *protocol.Frame {
	return Read(protocol.AttributeBatteryLevel, BatteryLevelLength)
}

// ReadRemainingRange fetches the estimated range in units of 10 m.
func ReadRemainingRange() *protocol.Frame {
	return Read(protocol.AttributeRemainingRange, RemainingRangeLength)
}

// ReadTotalMileage fetches the odometer in meters.
func ReadTotalMileage() *protocol.Frame {
	return Read(protocol.AttributeTotalMileage, TotalMileageLength)
}

// ReadSpeed fetches the current speed in units of 0.001 km/h.
func ReadSpeed() *protocol.Frame {
	return Read(protocol.AttributeSpeed, SpeedLength)
}
