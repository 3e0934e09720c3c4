package authentication

import (
	"crypto/ecdh"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/m365ble/scooter-command/pkg/protocol"
)

const (
	labelSetupInfo = "mible-setup-info"
	labelLoginInfo = "mible-login-info"
	labelDeviceID  = "devID"

	scalarLength    = 32
	maxKeygenTries  = 8
	setupKeyLength  = 64
	deviceKeyOffset = 28
)

// deviceIDNonce is fixed by the scooter firmware; the device ID key is only ever used once.
var deviceIDNonce = []byte{0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18, 0x19, 0x1a, 0x1b}

// generateKey draws a private scalar from rng by rejection sampling. Reading the scalar ourselves
// (rather than calling ecdh.Curve.GenerateKey) means a failing rng is always reported as
// protocol.ErrEntropyUnavailable and test vectors can be reproduced with a fixed rng.
func generateKey(rng io.Reader) (*ecdh.PrivateKey, error) {
	scalar := make([]byte, scalarLength)
	defer wipe(scalar)
	for i := 0; i < maxKeygenTries; i++ {
		if _, err := io.ReadFull(rng, scalar); err != nil {
			return nil, protocol.NewError(protocol.CodeEntropyUnavailable, err.Error())
		}
		// NewPrivateKey rejects zero and values >= N.
		if private, err := ecdh.P256().NewPrivateKey(scalar); err == nil {
			return private, nil
		}
	}
	return nil, protocol.NewError(protocol.CodeEntropyUnavailable, "random source produced no valid scalar")
}

// parsePublicKey accepts either an uncompressed SEC1 point or the scooter's raw X||Y encoding.
func parsePublicKey(encoded []byte) (*ecdh.PublicKey, error) {
	switch len(encoded) {
	case RawPublicKeyLength:
		encoded = append([]byte{0x04}, encoded...)
	case PublicKeyLength:
	default:
		return nil, protocol.NewError(protocol.CodeInvalidPeerKey, fmt.Sprintf("public key is %d bytes", len(encoded)))
	}
	public, err := ecdh.P256().NewPublicKey(encoded)
	if err != nil {
		return nil, protocol.ErrInvalidPeerKey
	}
	return public, nil
}

// hkdfSHA256 derives length bytes of key material using HKDF-SHA256 (RFC 5869).
func hkdfSHA256(inputKey, salt []byte, info string, length int) ([]byte, error) {
	reader := hkdf.New(sha256.New, inputKey, salt, []byte(info))
	result := make([]byte, length)
	if _, err := io.ReadFull(reader, result); err != nil {
		return nil, err
	}
	return result, nil
}

// setupKeys splits the handshake key material. The bind key in the middle is not used by the
// command channel.
type setupKeys struct {
	token     [TokenLength]byte
	deviceKey []byte
}

func deriveSetupKeys(shared []byte) (*setupKeys, error) {
	derived, err := hkdfSHA256(shared, nil, labelSetupInfo, setupKeyLength)
	if err != nil {
		return nil, err
	}
	defer wipe(derived)
	keys := &setupKeys{deviceKey: make([]byte, KeyLength)}
	copy(keys.token[:], derived[:TokenLength])
	copy(keys.deviceKey, derived[deviceKeyOffset:deviceKeyOffset+KeyLength])
	return keys, nil
}

func deriveSetup(shared, peerInfo []byte) (*HandshakeResult, error) {
	keys, err := deriveSetupKeys(shared)
	if err != nil {
		return nil, err
	}
	defer wipe(keys.deviceKey)
	aead, err := newCCM(keys.deviceKey, len(deviceIDNonce))
	if err != nil {
		return nil, err
	}
	return &HandshakeResult{
		Token:    keys.token,
		DeviceID: aead.Seal(nil, deviceIDNonce, peerInfo, []byte(labelDeviceID)),
	}, nil
}

// wipe overwrites sensitive buffers once they are no longer needed.
func wipe(b []byte) {
	clear(b)
}
