package authentication

import (
	"crypto/ecdh"
	"io"
	"sync/atomic"

	"github.com/m365ble/scooter-command/pkg/protocol"
)

const (
	// TokenLength is the length of the binding token produced by a handshake.
	TokenLength = 12
	// PublicKeyLength is the length of an uncompressed SEC1 encoding of a P-256 point.
	PublicKeyLength = 65
	// RawPublicKeyLength is the length of a P-256 point encoded as X||Y without a prefix, which is
	// how the scooter transmits its key.
	RawPublicKeyLength = 64
)

// HandshakeResult holds the outputs of a completed handshake.
type HandshakeResult struct {
	// Token binds the subsequent login to this handshake.
	Token [TokenLength]byte
	// DeviceID is the encrypted device info the controller sends back to the scooter to prove it
	// derived the same shared secret.
	DeviceID []byte
}

// A Handshake holds an ephemeral private key until it is used to complete a key exchange. The key
// can only be used once, even if Complete is called concurrently from several goroutines.
type Handshake struct {
	secret    atomic.Pointer[ecdh.PrivateKey]
	publicKey []byte
}

// BeginHandshake generates a fresh ephemeral P-256 key pair using rng.
func BeginHandshake(rng io.Reader) (*Handshake, error) {
	private, err := generateKey(rng)
	if err != nil {
		return nil, err
	}
	h := &Handshake{publicKey: private.PublicKey().Bytes()}
	h.secret.Store(private)
	return h, nil
}

// PublicBytes returns the local public key encoded without point compression.
func (h *Handshake) PublicBytes() []byte {
	return append([]byte{}, h.publicKey...)
}

// Consumed returns true once Complete or Discard has been called.
func (h *Handshake) Consumed() bool {
	return h.secret.Load() == nil
}

// Complete derives the binding token and encrypted device ID from the peer's public key and info.
//
// The ephemeral secret is consumed whether or not Complete succeeds; subsequent calls return
// protocol.ErrHandshakeAlreadyConsumed.
func (h *Handshake) Complete(peerPublic, peerInfo []byte) (*HandshakeResult, error) {
	private := h.secret.Swap(nil)
	if private == nil {
		return nil, protocol.ErrHandshakeAlreadyConsumed
	}
	peer, err := parsePublicKey(peerPublic)
	if err != nil {
		return nil, err
	}
	shared, err := private.ECDH(peer)
	if err != nil {
		return nil, protocol.ErrInvalidPeerKey
	}
	defer wipe(shared)
	return deriveSetup(shared, peerInfo)
}

// Discard releases the ephemeral secret of an abandoned handshake.
func (h *Handshake) Discard() {
	h.secret.Store(nil)
}
