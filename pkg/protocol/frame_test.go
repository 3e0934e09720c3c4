package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestKnownFrames(t *testing.T) {
	type testCase struct {
		name     string
		frame    Frame
		expected []byte
	}
	tests := []testCase{
		{
			name:     "lock",
			frame:    Frame{DirectionControllerToMotor, OperationWrite, AttributeLock, []byte{0x01, 0x00}},
			expected: []byte{0x04, 0x20, 0x03, 0x70, 0x01, 0x00},
		},
		{
			name:     "unlock",
			frame:    Frame{DirectionControllerToMotor, OperationWrite, AttributeUnlock, []byte{0x01, 0x00}},
			expected: []byte{0x04, 0x20, 0x03, 0x71, 0x01, 0x00},
		},
		{
			name:     "tail light on",
			frame:    Frame{DirectionControllerToMotor, OperationWrite, AttributeTailLight, []byte{0x02, 0x00}},
			expected: []byte{0x04, 0x20, 0x03, 0x7D, 0x02, 0x00},
		},
		{
			name:     "tail light off",
			frame:    Frame{DirectionControllerToMotor, OperationWrite, AttributeTailLight, []byte{0x00, 0x00}},
			expected: []byte{0x04, 0x20, 0x03, 0x7D, 0x00, 0x00},
		},
		{
			name:     "read serial number",
			frame:    Frame{DirectionControllerToMotor, OperationRead, AttributeSerialNumber, []byte{0x0E}},
			expected: []byte{0x03, 0x20, 0x01, 0x10, 0x0E},
		},
	}
	for _, test := range tests {
		encoded, err := test.frame.Encode()
		if err != nil {
			t.Fatalf("%s: unexpected error: %s", test.name, err)
		}
		if !bytes.Equal(encoded, test.expected) {
			t.Errorf("%s: got %02x, expected %02x", test.name, encoded, test.expected)
		}
		decoded, err := Decode(encoded)
		if err != nil {
			t.Fatalf("%s: couldn't decode encoded frame: %s", test.name, err)
		}
		if decoded.Direction != test.frame.Direction || decoded.Operation != test.frame.Operation ||
			decoded.Attribute != test.frame.Attribute || !bytes.Equal(decoded.Payload, test.frame.Payload) {
			t.Errorf("%s: round trip mismatch: %s", test.name, decoded)
		}
	}
}

func TestRoundTripPayloadLengths(t *testing.T) {
	for _, n := range []int{0, 1, 2, 17, MaxPayloadLength} {
		payload := make([]byte, n)
		for i := range payload {
			payload[i] = byte(i * 7)
		}
		frame := Frame{DirectionMotorToController, OperationRead, AttributeSpeed, payload}
		encoded, err := frame.Encode()
		if err != nil {
			t.Fatalf("Couldn't encode %d-byte payload: %s", n, err)
		}
		if int(encoded[0]) != n+2 {
			t.Errorf("Length byte is %d for %d-byte payload", encoded[0], n)
		}
		var decoded Frame
		if err := decoded.UnmarshalBinary(encoded); err != nil {
			t.Fatalf("Couldn't decode %d-byte payload: %s", n, err)
		}
		if !bytes.Equal(decoded.Payload, payload) || decoded.Attribute != AttributeSpeed {
			t.Errorf("Round trip failed for %d-byte payload", n)
		}
	}
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	frame := Frame{DirectionControllerToMotor, OperationWrite, AttributeLock, make([]byte, MaxPayloadLength+1)}
	if _, err := frame.Encode(); !errors.Is(err, ErrMalformedFrame) {
		t.Errorf("Expected ErrMalformedFrame, got %v", err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := [][]byte{
		nil,
		{0x02, 0x20, 0x03},
		{0x05, 0x20, 0x03, 0x70, 0x01, 0x00},       // declared length too long
		{0x03, 0x20, 0x03, 0x70, 0x01, 0x00},       // declared length too short
		{0x04, 0x21, 0x03, 0x70, 0x01, 0x00},       // unrecognized direction
		{0x04, 0x20, 0x02, 0x70, 0x01, 0x00},       // unrecognized operation
		{0x04, 0x20, 0x03, 0x70, 0x01, 0x00, 0x00}, // trailing byte
	}
	for _, test := range tests {
		if _, err := Decode(test); !errors.Is(err, ErrMalformedFrame) {
			t.Errorf("Decode(%02x): expected ErrMalformedFrame, got %v", test, err)
		}
	}
}

func TestDecodeDoesNotAlias(t *testing.T) {
	encoded := []byte{0x04, 0x20, 0x03, 0x70, 0x01, 0x00}
	frame, err := Decode(encoded)
	if err != nil {
		t.Fatal(err)
	}
	encoded[4] = 0xFF
	if frame.Payload[0] != 0x01 {
		t.Errorf("Decoded payload aliases the input buffer")
	}
}

func TestAttributeByName(t *testing.T) {
	attr, ok := AttributeByName("tail-light")
	if !ok || attr != AttributeTailLight {
		t.Errorf("Lookup failed: %v %v", attr, ok)
	}
	if _, ok := AttributeByName("horn"); ok {
		t.Errorf("Unexpected attribute for unknown name")
	}
	if AttributeLock.String() != "lock" || Attribute(0x42).String() != "0x42" {
		t.Errorf("Unexpected attribute strings")
	}
}
