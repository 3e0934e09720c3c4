/*
Package cli facilitates building command-line applications for sending commands to scooters. It
defines a [Config] type that can be used to register common command-line flags (using the Golang
flag package) and environment variable equivalents.

# Examples

	import flag

	config, err := NewConfig(FlagAll)
	if err != nil {
		panic(err)
	}
	config.RegisterCommandLineFlags() // Adds command-line flags for session and device options.
	flag.Parse()
	config.ReadFromEnvironment()      // Fills in missing fields using environment variables

	// Pairs with an emulated scooter using the configured session options.
	client, device, err := config.ConnectEmulator()
	if err != nil {
		panic(err)
	}
	defer client.Close()

	ctx, cancel := config.Context(context.Background())
	defer cancel()
	err = client.Unlock(ctx)

Use a [Flag] mask to control what [Config] fields are populated.
*/
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/m365ble/scooter-command/internal/emulator"
	"github.com/m365ble/scooter-command/internal/log"
	"github.com/m365ble/scooter-command/pkg/bridge"
	"github.com/m365ble/scooter-command/pkg/protocol"
	"github.com/m365ble/scooter-command/pkg/scooter"
)

// AttributeList is used to translate register names provided at the command line into
// protocol.Attribute values.
type AttributeList []protocol.Attribute

// Set updates an AttributeList from a command-line argument.
func (a *AttributeList) Set(value string) error {
	if attr, ok := protocol.AttributeByName(strings.ToLower(value)); ok {
		*a = append(*a, attr)
		return nil
	}
	return fmt.Errorf("unknown register '%s'", value)
}

func (a *AttributeList) String() string {
	var names []string
	for _, attr := range *a {
		names = append(names, attr.String())
	}
	return strings.Join(names, ",")
}

// Environment variable names used are used by [Config.ReadFromEnvironment] to set common parameters.
const (
	EnvScooterVerbose          = "SCOOTER_VERBOSE"
	EnvScooterReplayProtection = "SCOOTER_REPLAY_PROTECTION"
	EnvScooterCommandTimeout   = "SCOOTER_COMMAND_TIMEOUT"
	EnvScooterDeviceInfo       = "SCOOTER_DEVICE_INFO"
)

// DefaultCommandTimeout bounds each command when neither a flag nor the environment sets one.
const DefaultCommandTimeout = 5 * time.Second

// DefaultDeviceInfo is the device info advertised by the emulated scooter.
const DefaultDeviceInfo = "blt.4.19caqmgok0000"

// Flag controls what options should be scanned from the command line and/or environment variables.
type Flag int

func (f Flag) isSet(other Flag) bool {
	return (f & other) == other
}

const (
	FlagSession Flag = 1 // Enable session options (replay protection, timeouts).
	FlagDevice  Flag = 2 // Enable emulated device options.
	FlagAll     Flag = FlagSession | FlagDevice
)

// Config fields determine how a client establishes and uses a session.
type Config struct {
	Flags            Flag // Controls which set of environment variables/CLI flags to use.
	Debug            bool // Enable debug logging
	ReplayProtection bool
	CommandTimeout   time.Duration
	DeviceInfo       string

	// Attributes lists registers to read, for commands that take them.
	Attributes AttributeList
}

func NewConfig(flags Flag) (*Config, error) {
	return &Config{Flags: flags}, nil
}

// RegisterCommandLineFlags registers c's flags on flag.CommandLine.
func (c *Config) RegisterCommandLineFlags() {
	c.RegisterFlags(flag.CommandLine)
}

// RegisterFlags registers c's flags on fs.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.Debug, "debug", false, "Enable verbose debugging messages. Defaults to $SCOOTER_VERBOSE.")
	if c.Flags.isSet(FlagSession) {
		fs.BoolVar(&c.ReplayProtection, "replay-protection", false, "Reject reused counters. Defaults to $SCOOTER_REPLAY_PROTECTION.")
		fs.DurationVar(&c.CommandTimeout, "command-timeout", 0, "Give up on a command after `duration`. Defaults to $SCOOTER_COMMAND_TIMEOUT.")
		fs.Var(&c.Attributes, "register", "Register to read (can be repeated; omit for all)")
	}
	if c.Flags.isSet(FlagDevice) {
		fs.StringVar(&c.DeviceInfo, "device-info", "", "Device `info` advertised by the emulated scooter. Defaults to $SCOOTER_DEVICE_INFO.")
	}
}

func boolFromEnvironment(name string) bool {
	value, ok := os.LookupEnv(name)
	if !ok {
		return false
	}
	if value == "" {
		return true
	}
	enabled, err := strconv.ParseBool(value)
	if err != nil {
		log.Warning("Ignoring $%s: %s", name, err)
		return false
	}
	return enabled
}

// ReadFromEnvironment populates c using environment variables. Values that are already populated
// are not overwritten.
//
// Calling ReadFromEnvironment after flag.Parse() (or other initialization method) will prevent the
// environment from overriding explicit command-line parameters and avoid potentially misleading
// debug log messages.
func (c *Config) ReadFromEnvironment() {
	if !c.Debug {
		c.Debug = boolFromEnvironment(EnvScooterVerbose)
	}
	if c.Flags.isSet(FlagSession) {
		if !c.ReplayProtection {
			c.ReplayProtection = boolFromEnvironment(EnvScooterReplayProtection)
			log.Debug("Set replay protection to '%v'", c.ReplayProtection)
		}
		if c.CommandTimeout == 0 {
			if value := os.Getenv(EnvScooterCommandTimeout); value != "" {
				timeout, err := time.ParseDuration(value)
				if err != nil {
					log.Warning("Ignoring $%s: %s", EnvScooterCommandTimeout, err)
				} else {
					c.CommandTimeout = timeout
				}
			}
			if c.CommandTimeout <= 0 {
				c.CommandTimeout = DefaultCommandTimeout
			}
			log.Debug("Set command timeout to '%s'", c.CommandTimeout)
		}
	}
	if c.Flags.isSet(FlagDevice) {
		if c.DeviceInfo == "" {
			c.DeviceInfo = os.Getenv(EnvScooterDeviceInfo)
		}
		if c.DeviceInfo == "" {
			c.DeviceInfo = DefaultDeviceInfo
		}
		log.Debug("Set device info to '%s'", c.DeviceInfo)
	}
}

// BridgeOptions returns the bridge.Options selected by c.
func (c *Config) BridgeOptions() []bridge.Option {
	return []bridge.Option{bridge.WithReplayProtection(c.ReplayProtection)}
}

// Context returns a context bounded by c.CommandTimeout.
func (c *Config) Context(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := c.CommandTimeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return context.WithTimeout(parent, timeout)
}

// ConnectEmulator creates an emulated scooter, pairs with it through a new Bridge and returns a
// client for the resulting session. Closing the client closes the emulator and frees the bridge
// session.
func (c *Config) ConnectEmulator() (*scooter.Client, *emulator.Scooter, error) {
	info := c.DeviceInfo
	if info == "" {
		info = DefaultDeviceInfo
	}
	device, err := emulator.New([]byte(info), nil)
	if err != nil {
		return nil, nil, err
	}
	br := bridge.New(c.BridgeOptions()...)
	br.Initialize()
	channel, err := device.Pair(br)
	if err != nil {
		device.Close()
		return nil, nil, err
	}
	return scooter.New(device, channel), device, nil
}
