// Package connector defines the transport a scooter.Client uses to reach a motor controller.
//
// Discovery, connection setup and characteristic plumbing belong to the implementation. A BLE
// implementation typically writes to the scooter's TX characteristic in Send and forwards RX
// notifications to the Receive channel.
package connector

import (
	"context"
)

// BufferSize is the number of inbound frames that can be queued.
const BufferSize = 5

// MaxFrameLength caps the length of frames that connectors must support: the largest plaintext
// plus encryption overhead.
const MaxFrameLength = 0xFF + 15

// Connector sends and receives raw frames ([]byte) from a scooter.
type Connector interface {
	// Receive returns a read-only channel used to receive frames sent by the scooter.
	// Implementations may close the channel when the connection terminates.
	//
	// Implementations must be thread safe.
	Receive() <-chan []byte

	// Send sends a buffer to the scooter.
	//
	// Depending on the error, the scooter may have received and even acted on the frame.
	//
	// Implementations must be thread safe.
	Send(ctx context.Context, buffer []byte) error

	// Close terminates the connection.
	//
	// Repeated calls to Close() must be idempotent, but the behavior of the interface is otherwise
	// undefined after calling this method.
	Close()
}
