package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/m365ble/scooter-command/internal/emulator"
	"github.com/m365ble/scooter-command/pkg/action"
	"github.com/m365ble/scooter-command/pkg/protocol"
	"github.com/m365ble/scooter-command/pkg/scooter"
)

var (
	ErrCommandLineArgs = errors.New("invalid command line arguments")
	ErrUnknownCommand  = errors.New("unrecognized command")
	ErrNoSession       = errors.New("command requires a session")
)

// Registers read by the read command when neither REGISTER nor -register is given.
var telemetryRegisters = []protocol.Attribute{
	protocol.AttributeSerialNumber,
	protocol.AttributeFirmwareVersion,
	protocol.AttributeBatteryLevel,
	protocol.AttributeRemainingRange,
	protocol.AttributeTotalMileage,
	protocol.AttributeSpeed,
}

// selectedRegisters is populated from the -register flag.
var selectedRegisters []protocol.Attribute

type Argument struct {
	name string
	help string
}

type Handler func(ctx context.Context, client *scooter.Client, device *emulator.Scooter, args map[string]string) error

type Command struct {
	help            string
	requiresSession bool // True if command is sent over an encrypted session
	args            []Argument
	optional        []Argument
	handler         Handler
}

// ParseTailLightMode accepts the names printed by action.TailLightMode.String.
func ParseTailLightMode(s string) (action.TailLightMode, error) {
	switch strings.ToLower(s) {
	case "off":
		return action.TailLightModeOff, nil
	case "on", "always":
		return action.TailLightModeAlways, nil
	case "brake":
		return action.TailLightModeBrake, nil
	}
	return 0, fmt.Errorf("%w: tail light mode must be one of on, off, brake", ErrCommandLineArgs)
}

// ParseOperation accepts "read" or "write".
func ParseOperation(s string) (protocol.Operation, error) {
	switch strings.ToLower(s) {
	case "read":
		return protocol.OperationRead, nil
	case "write":
		return protocol.OperationWrite, nil
	}
	return 0, fmt.Errorf("%w: operation must be read or write", ErrCommandLineArgs)
}

// ParseAttribute accepts a register name such as "battery-level" or a hexadecimal address such
// as "0x22".
func ParseAttribute(s string) (protocol.Attribute, error) {
	if attr, ok := protocol.AttributeByName(strings.ToLower(s)); ok {
		return attr, nil
	}
	if digits, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		if value, err := strconv.ParseUint(digits, 16, 8); err == nil {
			return protocol.Attribute(value), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown register '%s'", ErrCommandLineArgs, s)
}

// ParseHex decodes s, ignoring spaces and colons between bytes.
func ParseHex(s string) ([]byte, error) {
	s = strings.NewReplacer(" ", "", ":", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCommandLineArgs, err)
	}
	return b, nil
}

// BuildFrame assembles the frame described by the arguments of the encode command.
func BuildFrame(operation, register, payload string) (*protocol.Frame, error) {
	op, err := ParseOperation(operation)
	if err != nil {
		return nil, err
	}
	attr, err := ParseAttribute(register)
	if err != nil {
		return nil, err
	}
	body, err := ParseHex(payload)
	if err != nil {
		return nil, err
	}
	return &protocol.Frame{
		Direction: protocol.DirectionControllerToMotor,
		Operation: op,
		Attribute: attr,
		Payload:   body,
	}, nil
}

// ReadRegister reads attr and formats it for display.
func ReadRegister(ctx context.Context, client *scooter.Client, attr protocol.Attribute) (string, error) {
	switch attr {
	case protocol.AttributeSerialNumber:
		return client.SerialNumber(ctx)
	case protocol.AttributeFirmwareVersion:
		return client.FirmwareVersion(ctx)
	case protocol.AttributeBatteryLevel:
		level, err := client.BatteryLevel(ctx)
		return fmt.Sprintf("%d%%", level), err
	case protocol.AttributeRemainingRange:
		km, err := client.RemainingRange(ctx)
		return fmt.Sprintf("%.2fkm", km), err
	case protocol.AttributeTotalMileage:
		km, err := client.TotalMileage(ctx)
		return fmt.Sprintf("%.3fkm", km), err
	case protocol.AttributeSpeed:
		speed, err := client.Speed(ctx)
		return fmt.Sprintf("%.1fkm/h", speed), err
	}
	return "", fmt.Errorf("%w: register %s is not readable", ErrCommandLineArgs, attr)
}

func execute(ctx context.Context, client *scooter.Client, device *emulator.Scooter, args []string) error {
	if len(args) == 0 {
		return errors.New("missing COMMAND")
	}

	info, ok := commands[args[0]]
	if !ok {
		writeErr("Unrecognized command: %s", args[0])
		return ErrUnknownCommand
	}
	if info.requiresSession && client == nil {
		return ErrNoSession
	}

	var err error
	if len(args)-1 < len(info.args) || len(args)-1 > len(info.args)+len(info.optional) {
		writeErr("Invalid number of command line arguments: %d (%d required, %d optional).", len(args)-1, len(info.args), len(info.optional))
		err = ErrCommandLineArgs
	} else {
		keywords := make(map[string]string)
		for i, argInfo := range info.args {
			keywords[argInfo.name] = args[i+1]
		}
		index := len(info.args) + 1
		for _, argInfo := range info.optional {
			if index >= len(args) {
				break
			}
			keywords[argInfo.name] = args[index]
			index++
		}
		err = info.handler(ctx, client, device, keywords)
	}

	// Print command-specific help
	if errors.Is(err, ErrCommandLineArgs) {
		info.Usage(args[0])
	}
	return err
}

func (c *Command) Usage(name string) {
	fmt.Printf("Usage: %s", name)
	maxLength := 0
	for _, arg := range c.args {
		fmt.Printf(" %s", arg.name)
		if len(arg.name) > maxLength {
			maxLength = len(arg.name)
		}
	}
	if len(c.optional) > 0 {
		fmt.Printf(" [")
	}
	for _, arg := range c.optional {
		fmt.Printf(" %s", arg.name)
		if len(arg.name) > maxLength {
			maxLength = len(arg.name)
		}
	}
	if len(c.optional) > 0 {
		fmt.Printf(" ]")
	}
	fmt.Printf("\n%s\n", c.help)
	maxLength++
	for _, arg := range c.args {
		fmt.Printf("    %s:%s%s\n", arg.name, strings.Repeat(" ", maxLength-len(arg.name)), arg.help)
	}
	for _, arg := range c.optional {
		fmt.Printf("    %s:%s%s\n", arg.name, strings.Repeat(" ", maxLength-len(arg.name)), arg.help)
	}
}

var commands = map[string]*Command{
	"unlock": &Command{
		help:            "Unlock scooter",
		requiresSession: true,
		handler: func(ctx context.Context, client *scooter.Client, device *emulator.Scooter, args map[string]string) error {
			return client.Unlock(ctx)
		},
	},
	"lock": &Command{
		help:            "Lock scooter",
		requiresSession: true,
		handler: func(ctx context.Context, client *scooter.Client, device *emulator.Scooter, args map[string]string) error {
			return client.Lock(ctx)
		},
	},
	"light": &Command{
		help:            "Set tail light to STATE",
		requiresSession: true,
		args: []Argument{
			Argument{name: "STATE", help: "One of: on, off, brake"},
		},
		handler: func(ctx context.Context, client *scooter.Client, device *emulator.Scooter, args map[string]string) error {
			mode, err := ParseTailLightMode(args["STATE"])
			if err != nil {
				return err
			}
			return client.SetTailLightMode(ctx, mode)
		},
	},
	"status": &Command{
		help:            "Read all telemetry registers",
		requiresSession: true,
		handler: func(ctx context.Context, client *scooter.Client, device *emulator.Scooter, args map[string]string) error {
			status, err := client.Status(ctx)
			if err != nil {
				return err
			}
			fmt.Println(status)
			return nil
		},
	},
	"read": &Command{
		help:            "Read REGISTER, or the registers given with -register",
		requiresSession: true,
		optional: []Argument{
			Argument{name: "REGISTER", help: "One of: serial-number, firmware-version, battery-level, remaining-range, total-mileage, speed"},
		},
		handler: func(ctx context.Context, client *scooter.Client, device *emulator.Scooter, args map[string]string) error {
			var registers []protocol.Attribute
			if name, ok := args["REGISTER"]; ok {
				attr, err := ParseAttribute(name)
				if err != nil {
					return err
				}
				registers = append(registers, attr)
			} else if len(selectedRegisters) > 0 {
				registers = selectedRegisters
			} else {
				registers = telemetryRegisters
			}
			for _, attr := range registers {
				value, err := ReadRegister(ctx, client, attr)
				if err != nil {
					return err
				}
				fmt.Printf("%s: %s\n", attr, value)
			}
			return nil
		},
	},
	"state": &Command{
		help:            "Print the emulated scooter's lock and tail light state",
		requiresSession: true,
		handler: func(ctx context.Context, client *scooter.Client, device *emulator.Scooter, args map[string]string) error {
			if device == nil {
				return errors.New("no emulated scooter")
			}
			fmt.Printf("locked=%v tail-light=%s counter=%d\n", device.Locked(), device.TailLight(), client.Counter())
			return nil
		},
	},
	"encode": &Command{
		help: "Print the plaintext encoding of a controller-to-motor frame",
		args: []Argument{
			Argument{name: "OPERATION", help: "read or write"},
			Argument{name: "REGISTER", help: "register name or hexadecimal address (e.g., 0x70)"},
		},
		optional: []Argument{
			Argument{name: "PAYLOAD", help: "hex-encoded little-endian payload"},
		},
		handler: func(ctx context.Context, client *scooter.Client, device *emulator.Scooter, args map[string]string) error {
			frame, err := BuildFrame(args["OPERATION"], args["REGISTER"], args["PAYLOAD"])
			if err != nil {
				return err
			}
			encoded, err := frame.Encode()
			if err != nil {
				return err
			}
			fmt.Println(hex.EncodeToString(encoded))
			return nil
		},
	},
	"decode": &Command{
		help: "Parse a plaintext frame",
		args: []Argument{
			Argument{name: "HEX", help: "hex-encoded frame (e.g., 04200370 0100)"},
		},
		handler: func(ctx context.Context, client *scooter.Client, device *emulator.Scooter, args map[string]string) error {
			b, err := ParseHex(args["HEX"])
			if err != nil {
				return err
			}
			frame, err := protocol.Decode(b)
			if err != nil {
				return err
			}
			fmt.Println(frame)
			return nil
		},
	},
}
