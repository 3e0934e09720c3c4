package authentication

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"

	"github.com/m365ble/scooter-command/pkg/protocol"
)

// LoginResult holds the outputs of login key derivation.
type LoginResult struct {
	// Info is sent to the device to prove the controller holds the binding token.
	Info []byte
	// ExpectedPeerInfo is the confirmation the device must send to prove the same.
	ExpectedPeerInfo []byte
	Keys             SessionKeys
}

// Login derives the session keys from the binding token and the two login randoms. It copies its
// inputs and does not retain or modify them.
func Login(localRandom, peerRandom, token []byte) (*LoginResult, error) {
	if len(token) != TokenLength {
		return nil, protocol.NewError(protocol.CodeInvalidTokenLength, fmt.Sprintf("token is %d bytes, expected %d", len(token), TokenLength))
	}
	salt := concat(localRandom, peerRandom)
	saltInverse := concat(peerRandom, localRandom)

	derived, err := hkdfSHA256(token, salt, labelLoginInfo, setupKeyLength)
	if err != nil {
		return nil, err
	}
	defer wipe(derived)

	var result LoginResult
	keys := &result.Keys
	copy(keys.Dev.Key[:], derived[0:16])
	copy(keys.App.Key[:], derived[16:32])
	copy(keys.Dev.IV[:], derived[32:36])
	copy(keys.App.IV[:], derived[36:40])

	result.Info = mac(keys.App.Key[:], salt)
	result.ExpectedPeerInfo = mac(keys.Dev.Key[:], saltInverse)
	return &result, nil
}

// VerifyPeer checks the device's login confirmation in constant time.
func (r *LoginResult) VerifyPeer(peerInfo []byte) error {
	if !hmac.Equal(peerInfo, r.ExpectedPeerInfo) {
		return protocol.ErrPeerConfirmationFailed
	}
	return nil
}

func mac(key, message []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(message)
	return h.Sum(nil)
}

func concat(a, b []byte) []byte {
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
