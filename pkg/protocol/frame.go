package protocol

import (
	"fmt"
)

// HeaderLength is the number of bytes that precede the payload of an encoded Frame.
const HeaderLength = 4

// MaxPayloadLength is the largest payload that fits in the frame's length byte.
const MaxPayloadLength = 0xFF - 2

// Direction identifies the sender and receiver of a Frame.
type Direction byte

const (
	DirectionControllerToMotor Direction = 0x20
	DirectionMotorToController Direction = 0x23
)

func (d Direction) String() string {
	switch d {
	case DirectionControllerToMotor:
		return "controller->motor"
	case DirectionMotorToController:
		return "motor->controller"
	}
	return fmt.Sprintf("Direction(0x%02x)", byte(d))
}

func (d Direction) valid() bool {
	return d == DirectionControllerToMotor || d == DirectionMotorToController
}

// Operation is either a register read or a register write.
type Operation byte

const (
	OperationRead  Operation = 0x01
	OperationWrite Operation = 0x03
)

func (o Operation) String() string {
	switch o {
	case OperationRead:
		return "read"
	case OperationWrite:
		return "write"
	}
	return fmt.Sprintf("Operation(0x%02x)", byte(o))
}

func (o Operation) valid() bool {
	return o == OperationRead || o == OperationWrite
}

// Attribute is a motor controller register address.
type Attribute byte

const (
	AttributeSerialNumber    Attribute = 0x10
	AttributeFirmwareVersion Attribute = 0x1A
	AttributeBatteryLevel    Attribute = 0x22
	AttributeRemainingRange  Attribute = 0x25
	AttributeTotalMileage    Attribute = 0x29
	AttributeLock            Attribute = 0x70
	AttributeUnlock          Attribute = 0x71
	AttributeTailLight       Attribute = 0x7D
	AttributeSpeed           Attribute = 0xB5
)

var attributeNames = map[Attribute]string{
	AttributeSerialNumber:    "serial-number",
	AttributeFirmwareVersion: "firmware-version",
	AttributeBatteryLevel:    "battery-level",
	AttributeRemainingRange:  "remaining-range",
	AttributeTotalMileage:    "total-mileage",
	AttributeLock:            "lock",
	AttributeUnlock:          "unlock",
	AttributeTailLight:       "tail-light",
	AttributeSpeed:           "speed",
}

func (a Attribute) String() string {
	if name, ok := attributeNames[a]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", byte(a))
}

// AttributeByName returns the Attribute with the given String() value.
func AttributeByName(name string) (Attribute, bool) {
	for attr, n := range attributeNames {
		if n == name {
			return attr, true
		}
	}
	return 0, false
}

// Frame is a motor controller command or response. The same layout is used before and after the
// channel is encrypted; encryption wraps the encoded bytes.
type Frame struct {
	Direction Direction
	Operation Operation
	Attribute Attribute
	Payload   []byte
}

// Encode returns the wire representation of f:
//
//	[len(Payload)+2, Direction, Operation, Attribute, Payload...]
//
// Multi-byte payload values are little endian.
func (f *Frame) Encode() ([]byte, error) {
	if len(f.Payload) > MaxPayloadLength {
		return nil, NewError(CodeMalformedFrame, fmt.Sprintf("payload is %d bytes, must not exceed %d", len(f.Payload), MaxPayloadLength))
	}
	out := make([]byte, 0, HeaderLength+len(f.Payload))
	out = append(out, byte(len(f.Payload)+2), byte(f.Direction), byte(f.Operation), byte(f.Attribute))
	out = append(out, f.Payload...)
	return out, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (f *Frame) MarshalBinary() ([]byte, error) {
	return f.Encode()
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (f *Frame) UnmarshalBinary(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*f = *decoded
	return nil
}

// Decode parses an encoded Frame. The returned Payload does not alias b.
func Decode(b []byte) (*Frame, error) {
	if len(b) < HeaderLength {
		return nil, NewError(CodeMalformedFrame, fmt.Sprintf("frame is %d bytes, need at least %d", len(b), HeaderLength))
	}
	if int(b[0]) != len(b)-2 {
		return nil, NewError(CodeMalformedFrame, fmt.Sprintf("declared length %d does not match %d-byte frame", b[0], len(b)))
	}
	frame := Frame{
		Direction: Direction(b[1]),
		Operation: Operation(b[2]),
		Attribute: Attribute(b[3]),
		Payload:   append([]byte{}, b[HeaderLength:]...),
	}
	if !frame.Direction.valid() {
		return nil, NewError(CodeMalformedFrame, fmt.Sprintf("unrecognized direction %s", frame.Direction))
	}
	if !frame.Operation.valid() {
		return nil, NewError(CodeMalformedFrame, fmt.Sprintf("unrecognized operation %s", frame.Operation))
	}
	return &frame, nil
}

func (f *Frame) String() string {
	return fmt.Sprintf("%s %s %s [% x]", f.Direction, f.Operation, f.Attribute, f.Payload)
}
