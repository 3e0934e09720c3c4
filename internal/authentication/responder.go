package authentication

import (
	"crypto/ecdh"
	"crypto/hmac"
	"errors"
	"io"
	"sync"

	"github.com/m365ble/scooter-command/pkg/protocol"
)

// ErrNotRegistered indicates a Responder was asked to log in before any controller registered
// with it.
var ErrNotRegistered = errors.New("authentication: device is not registered")

// A Responder implements the scooter's side of the handshake and login. Controllers never need
// one; it exists so the protocol can be exercised without hardware.
type Responder struct {
	private *ecdh.PrivateKey
	info    []byte

	lock       sync.Mutex
	token      [TokenLength]byte
	registered bool
}

// NewResponder creates a Responder that identifies itself with info.
func NewResponder(rng io.Reader, info []byte) (*Responder, error) {
	private, err := generateKey(rng)
	if err != nil {
		return nil, err
	}
	return &Responder{private: private, info: append([]byte{}, info...)}, nil
}

// PublicBytes returns the responder's public key as raw X||Y, the encoding used by the scooter.
func (r *Responder) PublicBytes() []byte {
	return r.private.PublicKey().Bytes()[1:]
}

// Info returns the device info the scooter sends alongside its public key.
func (r *Responder) Info() []byte {
	return append([]byte{}, r.info...)
}

// Register completes the key exchange from the device side. The controller proves it derived the
// same secret by returning the device info encrypted under the device ID key.
func (r *Responder) Register(controllerPublic, deviceID []byte) ([TokenLength]byte, error) {
	var token [TokenLength]byte
	peer, err := parsePublicKey(controllerPublic)
	if err != nil {
		return token, err
	}
	shared, err := r.private.ECDH(peer)
	if err != nil {
		return token, protocol.ErrInvalidPeerKey
	}
	defer wipe(shared)
	keys, err := deriveSetupKeys(shared)
	if err != nil {
		return token, err
	}
	defer wipe(keys.deviceKey)
	aead, err := newCCM(keys.deviceKey, len(deviceIDNonce))
	if err != nil {
		return token, err
	}
	plaintext, err := aead.Open(nil, deviceIDNonce, deviceID, []byte(labelDeviceID))
	if err != nil || !hmac.Equal(plaintext, r.info) {
		return token, protocol.ErrPeerConfirmationFailed
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	r.token = keys.token
	r.registered = true
	return keys.token, nil
}

// DeviceLogin is a login that is waiting for the controller's confirmation.
type DeviceLogin struct {
	// Confirmation is sent to the controller, which checks it with LoginResult.VerifyPeer.
	Confirmation []byte
	result       *LoginResult
}

// Login starts a login using the token from the last successful Register.
func (r *Responder) Login(controllerRandom, deviceRandom []byte) (*DeviceLogin, error) {
	r.lock.Lock()
	token, registered := r.token, r.registered
	r.lock.Unlock()
	if !registered {
		return nil, ErrNotRegistered
	}
	result, err := Login(controllerRandom, deviceRandom, token[:])
	if err != nil {
		return nil, err
	}
	return &DeviceLogin{Confirmation: result.ExpectedPeerInfo, result: result}, nil
}

// Accept verifies the controller's login info and returns the device side of the session.
func (l *DeviceLogin) Accept(controllerInfo []byte) (*Session, error) {
	if !hmac.Equal(controllerInfo, l.result.Info) {
		return nil, protocol.ErrPeerConfirmationFailed
	}
	return NewSession(l.result.Keys, RoleDevice), nil
}
