package bridge

// Channel binds a session handle to its Bridge so that Go callers, such as pkg/scooter, can use a
// bridge-owned session without tracking the handle themselves.
type Channel struct {
	bridge *Bridge
	handle Handle
}

// Channel returns a Channel for the session h. The handle is not checked until the Channel is
// used.
func (b *Bridge) Channel(h Handle) *Channel {
	return &Channel{bridge: b, handle: h}
}

// Handle returns the session handle the Channel uses.
func (c *Channel) Handle() Handle {
	return c.handle
}

func (c *Channel) Encrypt(plaintext []byte, counter uint32) ([]byte, error) {
	return c.bridge.Encrypt(c.handle, plaintext, counter)
}

func (c *Channel) Decrypt(frame []byte) ([]byte, error) {
	return c.bridge.Decrypt(c.handle, frame)
}

// Close frees the underlying session.
func (c *Channel) Close() {
	c.bridge.FreeSession(c.handle)
}
