package scooter

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/m365ble/scooter-command/pkg/action"
	"github.com/m365ble/scooter-command/pkg/protocol"
)

// Lock disables the motor.
func (c *Client) Lock(ctx context.Context) error {
	return c.Execute(ctx, action.Lock())
}

// Unlock re-enables the motor.
func (c *Client) Unlock(ctx context.Context) error {
	return c.Execute(ctx, action.Unlock())
}

// SetLock locks or unlocks the motor.
func (c *Client) SetLock(ctx context.Context, locked bool) error {
	return c.Execute(ctx, action.SetLock(locked))
}

// SetTailLight turns the tail light on or off.
func (c *Client) SetTailLight(ctx context.Context, on bool) error {
	return c.Execute(ctx, action.SetTailLight(on))
}

// SetTailLightMode sets the tail light to off, brake-only, or always on.
func (c *Client) SetTailLightMode(ctx context.Context, mode action.TailLightMode) error {
	return c.Execute(ctx, action.SetTailLightMode(mode))
}

func (c *Client) read(ctx context.Context, frame *protocol.Frame, length int) ([]byte, error) {
	response, err := c.Query(ctx, frame)
	if err != nil {
		return nil, err
	}
	if len(response.Payload) < length {
		return nil, fmt.Errorf("%w: %s returned %d bytes, expected %d", ErrUnexpectedResponse, frame.Attribute, len(response.Payload), length)
	}
	return response.Payload[:length], nil
}

func (c *Client) readUint16(ctx context.Context, frame *protocol.Frame) (uint16, error) {
	value, err := c.read(ctx, frame, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(value), nil
}

// SerialNumber returns the scooter's serial number.
func (c *Client) SerialNumber(ctx context.Context) (string, error) {
	value, err := c.read(ctx, action.ReadSerialNumber(), action.SerialNumberLength)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimRight(value, "\x00")), nil
}

// FirmwareVersion returns the motor controller firmware version, for example "1.5.1".
func (c *Client) FirmwareVersion(ctx context.Context) (string, error) {
	v, err := c.readUint16(ctx, action.ReadFirmwareVersion())
	if err != nil {
		return "", err
	}
	return FormatFirmwareVersion(v), nil
}

// FormatFirmwareVersion renders a BCD-encoded firmware register.
func FormatFirmwareVersion(v uint16) string {
	return fmt.Sprintf("%d.%d.%d", v>>8&0xF, v>>4&0xF, v&0xF)
}

// BatteryLevel returns the state of charge in percent.
func (c *Client) BatteryLevel(ctx context.Context) (int, error) {
	v, err := c.readUint16(ctx, action.ReadBatteryLevel())
	return int(v), err
}

// RemainingRange returns the estimated range in kilometers.
func (c *Client) RemainingRange(ctx context.Context) (float64, error) {
	v, err := c.readUint16(ctx, action.ReadRemainingRange())
	return float64(v) / 100, err
}

// TotalMileage returns the odometer in kilometers.
func (c *Client) TotalMileage(ctx context.Context) (float64, error) {
	value, err := c.read(ctx, action.ReadTotalMileage(), action.TotalMileageLength)
	if err != nil {
		return 0, err
	}
	return float64(binary.LittleEndian.Uint32(value)) / 1000, nil
}

// Speed returns the current speed in km/h. Negative values mean the scooter is rolling backwards.
func (c *Client) Speed(ctx context.Context) (float64, error) {
	v, err := c.readUint16(ctx, action.ReadSpeed())
	return float64(int16(v)) / 1000, err
}

// Status is a snapshot of the scooter's telemetry.
type Status struct {
	SerialNumber    string
	FirmwareVersion string
	BatteryLevel    int
	RemainingRange  float64
	TotalMileage    float64
	Speed           float64
}

func (s *Status) String() string {
	return fmt.Sprintf("serial=%s firmware=%s battery=%d%% range=%.2fkm mileage=%.3fkm speed=%.1fkm/h",
		s.SerialNumber, s.FirmwareVersion, s.BatteryLevel, s.RemainingRange, s.TotalMileage, s.Speed)
}

// Status reads every telemetry register.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var status Status
	var err error
	if status.SerialNumber, err = c.SerialNumber(ctx); err != nil {
		return nil, err
	}
	if status.FirmwareVersion, err = c.FirmwareVersion(ctx); err != nil {
		return nil, err
	}
	if status.BatteryLevel, err = c.BatteryLevel(ctx); err != nil {
		return nil, err
	}
	if status.RemainingRange, err = c.RemainingRange(ctx); err != nil {
		return nil, err
	}
	if status.TotalMileage, err = c.TotalMileage(ctx); err != nil {
		return nil, err
	}
	if status.Speed, err = c.Speed(ctx); err != nil {
		return nil, err
	}
	return &status, nil
}
