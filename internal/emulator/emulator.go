// Package emulator implements an in-memory scooter motor controller.
//
// A Scooter plays the device side of the handshake and login, then implements connector.Connector
// so a scooter.Client can drive it exactly as it would drive hardware over BLE.
package emulator

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/m365ble/scooter-command/internal/authentication"
	"github.com/m365ble/scooter-command/internal/log"
	"github.com/m365ble/scooter-command/pkg/action"
	"github.com/m365ble/scooter-command/pkg/connector"
	"github.com/m365ble/scooter-command/pkg/protocol"
)

// RandomLength is the length of the login randoms exchanged by both sides.
const RandomLength = 16

var (
	ErrNotLoggedIn = errors.New("emulator: no session established")
	ErrClosed      = errors.New("emulator: connection closed")
)

// Registers holds the telemetry a Scooter reports.
type Registers struct {
	SerialNumber    string
	FirmwareVersion uint16
	BatteryLevel    uint16
	RemainingRange  uint16
	TotalMileage    uint32
	Speed           int16
}

// DefaultRegisters are used when New is called with nil.
var DefaultRegisters = Registers{
	SerialNumber:    "16133/00123456",
	FirmwareVersion: 0x0151,
	BatteryLevel:    87,
	RemainingRange:  2150,
	TotalMileage:    123456,
	Speed:           0,
}

// A Scooter is an emulated motor controller. It is safe for concurrent use.
type Scooter struct {
	rng       io.Reader
	responder *authentication.Responder

	lock      sync.Mutex
	pending   *authentication.DeviceLogin
	session   *authentication.Session
	counter   uint32
	registers Registers
	locked    bool
	tailLight action.TailLightMode

	outbox    chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

// New creates a Scooter that identifies itself with info. If registers is nil, DefaultRegisters
// are used.
func New(info []byte, registers *Registers) (*Scooter, error) {
	if registers == nil {
		registers = &DefaultRegisters
	}
	responder, err := authentication.NewResponder(rand.Reader, info)
	if err != nil {
		return nil, err
	}
	return &Scooter{
		rng:       rand.Reader,
		responder: responder,
		registers: *registers,
		outbox:    make(chan []byte, connector.BufferSize),
		closed:    make(chan struct{}),
	}, nil
}

// PublicKey returns the scooter's public key in its raw X||Y encoding.
func (s *Scooter) PublicKey() []byte {
	return s.responder.PublicBytes()
}

// Info returns the device info the scooter advertises with its public key.
func (s *Scooter) Info() []byte {
	return s.responder.Info()
}

// Register accepts the controller's handshake.
func (s *Scooter) Register(controllerPublic, deviceID []byte) error {
	_, err := s.responder.Register(controllerPublic, deviceID)
	if err != nil {
		return fmt.Errorf("emulator: rejected handshake: %w", err)
	}
	log.Info("Emulator bound to controller")
	return nil
}

// Login answers the controller's login random with the scooter's own random and confirmation.
// The login completes when Confirm accepts the controller's info.
func (s *Scooter) Login(controllerRandom []byte) (deviceRandom, confirmation []byte, err error) {
	deviceRandom = make([]byte, RandomLength)
	if _, err = io.ReadFull(s.rng, deviceRandom); err != nil {
		return nil, nil, protocol.NewError(protocol.CodeEntropyUnavailable, err.Error())
	}
	pending, err := s.responder.Login(controllerRandom, deviceRandom)
	if err != nil {
		return nil, nil, err
	}
	s.lock.Lock()
	s.pending = pending
	s.lock.Unlock()
	return deviceRandom, pending.Confirmation, nil
}

// Confirm checks the controller's login info and opens the session.
func (s *Scooter) Confirm(controllerInfo []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.pending == nil {
		return ErrNotLoggedIn
	}
	session, err := s.pending.Accept(controllerInfo)
	s.pending = nil
	if err != nil {
		return err
	}
	if s.session != nil {
		s.session.Wipe()
	}
	s.session = session
	s.counter = 0
	log.Info("Emulator session established")
	return nil
}

// Locked reports whether the motor is locked.
func (s *Scooter) Locked() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.locked
}

// TailLight returns the tail light mode.
func (s *Scooter) TailLight() action.TailLightMode {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.tailLight
}

// Receive implements connector.Connector.
func (s *Scooter) Receive() <-chan []byte {
	return s.outbox
}

// Send implements connector.Connector. Unlike hardware, which silently drops frames it cannot
// authenticate or parse, Send reports them as errors.
func (s *Scooter) Send(ctx context.Context, buffer []byte) error {
	select {
	case <-s.closed:
		return ErrClosed
	default:
	}

	s.lock.Lock()
	response, err := s.handle(buffer)
	s.lock.Unlock()
	if err != nil {
		log.Warning("Emulator dropped frame: %s", err)
		return err
	}
	if response == nil {
		return nil
	}
	select {
	case s.outbox <- response:
		return nil
	case <-s.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements connector.Connector.
func (s *Scooter) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.lock.Lock()
		if s.session != nil {
			s.session.Wipe()
			s.session = nil
		}
		s.lock.Unlock()
	})
}

// handle processes one encrypted frame and returns the encrypted response, if any. The caller
// must hold s.lock.
func (s *Scooter) handle(buffer []byte) ([]byte, error) {
	if s.session == nil {
		return nil, ErrNotLoggedIn
	}
	plaintext, counter, err := s.session.Decrypt(buffer, nil)
	if err != nil {
		return nil, err
	}
	frame, err := protocol.Decode(plaintext)
	if err != nil {
		return nil, err
	}
	log.Debug("Emulator received frame %d: %s", counter, frame)
	if frame.Direction != protocol.DirectionControllerToMotor {
		return nil, protocol.NewError(protocol.CodeMalformedFrame, "frame is not addressed to the motor controller")
	}

	var reply *protocol.Frame
	switch frame.Operation {
	case protocol.OperationWrite:
		err = s.write(frame)
	case protocol.OperationRead:
		reply, err = s.read(frame)
	}
	if err != nil || reply == nil {
		return nil, err
	}
	encoded, err := reply.Encode()
	if err != nil {
		return nil, err
	}
	s.counter++
	return s.session.Encrypt(encoded, s.counter, nil)
}

func (s *Scooter) write(frame *protocol.Frame) error {
	if len(frame.Payload) != 2 {
		return protocol.NewError(protocol.CodeMalformedFrame, fmt.Sprintf("write to %s carries %d bytes", frame.Attribute, len(frame.Payload)))
	}
	value := binary.LittleEndian.Uint16(frame.Payload)
	switch frame.Attribute {
	case protocol.AttributeLock:
		if value == 1 {
			s.locked = true
		}
	case protocol.AttributeUnlock:
		if value == 1 {
			s.locked = false
		}
	case protocol.AttributeTailLight:
		s.tailLight = action.TailLightMode(value)
	default:
		return protocol.NewError(protocol.CodeMalformedFrame, fmt.Sprintf("register %s is read-only", frame.Attribute))
	}
	return nil
}

func (s *Scooter) read(frame *protocol.Frame) (*protocol.Frame, error) {
	if len(frame.Payload) != 1 {
		return nil, protocol.NewError(protocol.CodeMalformedFrame, "read request must carry a length")
	}
	var value []byte
	r := &s.registers
	switch frame.Attribute {
	case protocol.AttributeSerialNumber:
		value = make([]byte, action.SerialNumberLength)
		copy(value, r.SerialNumber)
	case protocol.AttributeFirmwareVersion:
		value = binary.LittleEndian.AppendUint16(nil, r.FirmwareVersion)
	case protocol.AttributeBatteryLevel:
		value = binary.LittleEndian.AppendUint16(nil, r.BatteryLevel)
	case protocol.AttributeRemainingRange:
		value = binary.LittleEndian.AppendUint16(nil, r.RemainingRange)
	case protocol.AttributeTotalMileage:
		value = binary.LittleEndian.AppendUint32(nil, r.TotalMileage)
	case protocol.AttributeSpeed:
		value = binary.LittleEndian.AppendUint16(nil, uint16(r.Speed))
	case protocol.AttributeTailLight:
		value = binary.LittleEndian.AppendUint16(nil, uint16(s.tailLight))
	default:
		return nil, protocol.NewError(protocol.CodeMalformedFrame, fmt.Sprintf("unknown register %s", frame.Attribute))
	}
	if n := int(frame.Payload[0]); n < len(value) {
		value = value[:n]
	}
	return &protocol.Frame{
		Direction: protocol.DirectionMotorToController,
		Operation: protocol.OperationRead,
		Attribute: frame.Attribute,
		Payload:   value,
	}, nil
}
