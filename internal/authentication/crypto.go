package authentication

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pion/dtls/v3/pkg/crypto/ccm"

	"github.com/m365ble/scooter-command/pkg/protocol"
)

const (
	// KeyLength is the length of an AES-128 session key.
	KeyLength = 16
	// IVLength is the length of the per-direction nonce prefix.
	IVLength = 4
	// TagLength is the length of the CCM integrity tag appended to every ciphertext.
	TagLength = 4

	nonceLength   = 12
	paddingLength = 4
	magicLength   = 2
	counterLength = 2
	crcLength     = 2

	// Overhead is the number of bytes an encrypted frame adds to its plaintext.
	Overhead = magicLength + 1 + counterLength + paddingLength + TagLength + crcLength

	// MaxPlaintextLength is the largest plaintext that fits in the frame's length byte.
	MaxPlaintextLength = 0xFF
)

var frameMagic = [magicLength]byte{0x55, 0xAB}

// DirectionalKey is only ever used to encrypt traffic flowing in one direction.
type DirectionalKey struct {
	Key [KeyLength]byte
	IV  [IVLength]byte
}

// SessionKeys holds the directional key pair derived during login.
type SessionKeys struct {
	// App protects controller-to-device traffic.
	App DirectionalKey
	// Dev protects device-to-controller traffic.
	Dev DirectionalKey
}

// Wipe zeroes the key material in k.
func (k *SessionKeys) Wipe() {
	*k = SessionKeys{}
}

func newCCM(key []byte, nonceSize int) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return ccm.NewCCM(block, TagLength, nonceSize)
}

// nonce returns IV || 00 00 00 00 || counter (little endian).
func (k *DirectionalKey) nonce(counter uint32) []byte {
	n := make([]byte, nonceLength)
	copy(n, k.IV[:])
	binary.LittleEndian.PutUint32(n[8:], counter)
	return n
}

// checksum is the one's complement of the byte sum, as used by the scooter's serial protocol.
func checksum(b []byte) uint16 {
	var sum uint16
	for _, c := range b {
		sum += uint16(c)
	}
	return ^sum
}

// Seal encrypts plaintext under key using counter as the nonce. The result is
//
//	55 AB | n | counter[0:2] | CCM(plaintext || 00 00 00 00) | tag | checksum
//
// where n = len(plaintext). Seal is deterministic: the caller must never reuse a counter with the
// same key.
func Seal(key *DirectionalKey, plaintext []byte, counter uint32, associatedData []byte) ([]byte, error) {
	if len(plaintext) > MaxPlaintextLength {
		return nil, protocol.NewError(protocol.CodePayloadTooLarge, fmt.Sprintf("%d-byte plaintext exceeds %d bytes", len(plaintext), MaxPlaintextLength))
	}
	aead, err := newCCM(key.Key[:], nonceLength)
	if err != nil {
		return nil, err
	}
	body := make([]byte, len(plaintext)+paddingLength)
	copy(body, plaintext)

	out := make([]byte, 0, len(plaintext)+Overhead)
	out = append(out, frameMagic[:]...)
	out = append(out, byte(len(plaintext)), byte(counter), byte(counter>>8))
	out = aead.Seal(out, key.nonce(counter), body, associatedData)
	return binary.LittleEndian.AppendUint16(out, checksum(out[magicLength:])), nil
}

// Open authenticates and decrypts a frame produced by Seal.
//
// Only the low 16 bits of the counter are transmitted; Open reconstructs the full value as the
// counter closest to hint with matching low bits and returns it. Callers typically pass the
// highest counter they have accepted so far.
//
// Checksum and tag failures both return protocol.ErrAuthenticationFailed.
func Open(key *DirectionalKey, frame []byte, associatedData []byte, hint uint32) (plaintext []byte, counter uint32, err error) {
	if len(frame) < Overhead || frame[0] != frameMagic[0] || frame[1] != frameMagic[1] {
		return nil, 0, protocol.ErrMalformedCiphertext
	}
	length := int(frame[magicLength])
	if len(frame) != length+Overhead {
		return nil, 0, protocol.ErrMalformedCiphertext
	}
	end := len(frame) - crcLength
	crcOK := subtle.ConstantTimeEq(int32(binary.LittleEndian.Uint16(frame[end:])), int32(checksum(frame[magicLength:end])))

	aead, err := newCCM(key.Key[:], nonceLength)
	if err != nil {
		return nil, 0, err
	}
	low := binary.LittleEndian.Uint16(frame[magicLength+1:])
	counter = extendCounter(hint, low)
	// Both checks always run and fail with the same error.
	body, tagErr := aead.Open(nil, key.nonce(counter), frame[magicLength+1+counterLength:end], associatedData)
	if crcOK != 1 || tagErr != nil {
		return nil, 0, protocol.ErrAuthenticationFailed
	}
	return body[:length], counter, nil
}

// extendCounter returns the 32-bit counter nearest to hint whose low 16 bits equal low. The result
// never wraps around either end of the 32-bit range.
func extendCounter(hint uint32, low uint16) uint32 {
	const epoch = 1 << 16
	candidate := hint&^(epoch-1) | uint32(low)
	// The signed 16-bit difference is in [-32768, 32767].
	delta := int16(low - uint16(hint))
	if delta >= 0 && candidate < hint && candidate <= math.MaxUint32-epoch {
		candidate += epoch
	} else if delta < 0 && candidate > hint && candidate >= epoch {
		candidate -= epoch
	}
	return candidate
}
