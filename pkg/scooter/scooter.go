// Package scooter sends commands to a scooter's motor controller over an established session.
//
// The Client encrypts frames built by pkg/action, writes them to a connector.Connector and, for
// register reads, waits for the matching response:
//
//	channel := br.Channel(handle) // after handshake and login
//	client := scooter.New(conn, channel)
//	if err := client.Unlock(ctx); err != nil {
//		return err
//	}
package scooter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/m365ble/scooter-command/internal/log"
	"github.com/m365ble/scooter-command/pkg/connector"
	"github.com/m365ble/scooter-command/pkg/protocol"
)

var (
	// ErrConnectionClosed indicates the connector closed its receive channel while a response was
	// outstanding.
	ErrConnectionClosed = errors.New("scooter: connection closed")
	// ErrUnexpectedResponse indicates a response whose payload does not have the expected length.
	ErrUnexpectedResponse = errors.New("scooter: unexpected response")
)

// Channel encrypts and decrypts frames for one session. *bridge.Channel implements it.
type Channel interface {
	Encrypt(plaintext []byte, counter uint32) ([]byte, error)
	Decrypt(frame []byte) ([]byte, error)
}

// A Client issues commands to one scooter. Commands are serialized; a Client is safe for
// concurrent use.
type Client struct {
	conn    connector.Connector
	channel Channel

	lock    sync.Mutex
	counter uint32
}

// New returns a Client that sends frames through conn using channel for encryption.
func New(conn connector.Connector, channel Channel) *Client {
	return &Client{conn: conn, channel: channel}
}

// SetCounter sets the last counter used, so the next frame is sent with counter+1. Use it to
// resume a session whose earlier frames were sent by another Client.
func (c *Client) SetCounter(counter uint32) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.counter = counter
}

// Counter returns the counter of the last frame sent.
func (c *Client) Counter() uint32 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.counter
}

// send encrypts and writes frame. The caller must hold c.lock.
func (c *Client) send(ctx context.Context, frame *protocol.Frame) error {
	encoded, err := frame.Encode()
	if err != nil {
		return err
	}
	counter := c.counter + 1
	ciphertext, err := c.channel.Encrypt(encoded, counter)
	if err != nil {
		return fmt.Errorf("encrypt %s: %w", frame.Attribute, err)
	}
	// The counter is spent once the frame is encrypted, even if the write fails.
	c.counter = counter
	log.Debug("TX %d: %s", counter, frame)
	return c.conn.Send(ctx, ciphertext)
}

// Execute sends a command that the motor controller does not acknowledge, such as action.Lock().
func (c *Client) Execute(ctx context.Context, frame *protocol.Frame) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.send(ctx, frame)
}

// Query sends a register read and waits for the response to the same register. Inbound frames
// that fail to decrypt or answer a different register are discarded.
func (c *Client) Query(ctx context.Context, frame *protocol.Frame) (*protocol.Frame, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if err := c.send(ctx, frame); err != nil {
		return nil, err
	}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case buffer, ok := <-c.conn.Receive():
			if !ok {
				return nil, ErrConnectionClosed
			}
			response, err := c.open(buffer)
			if err != nil {
				log.Warning("Discarding inbound frame: %s", err)
				continue
			}
			if response.Direction != protocol.DirectionMotorToController || response.Attribute != frame.Attribute {
				log.Debug("Discarding unsolicited frame: %s", response)
				continue
			}
			log.Debug("RX: %s", response)
			return response, nil
		}
	}
}

func (c *Client) open(buffer []byte) (*protocol.Frame, error) {
	plaintext, err := c.channel.Decrypt(buffer)
	if err != nil {
		return nil, err
	}
	return protocol.Decode(plaintext)
}

// Close closes the underlying connector. If the channel has a Close method, such as
// *bridge.Channel, it is called too, releasing the session.
func (c *Client) Close() {
	c.conn.Close()
	if closer, ok := c.channel.(interface{ Close() }); ok {
		closer.Close()
	}
}
