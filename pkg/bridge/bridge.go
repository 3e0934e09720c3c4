// Package bridge exposes handshakes and sessions to a foreign host as opaque handles.
//
// A host that cannot hold Go values (for example a mobile runtime calling through the C bridge in
// cmd/scooter-capi) drives the protocol through a Bridge: each call names its state by Handle,
// and every failure is reported as a *protocol.Error rather than a crash.
package bridge

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"runtime/debug"
	"sync"

	"github.com/m365ble/scooter-command/internal/authentication"
	"github.com/m365ble/scooter-command/internal/log"
	"github.com/m365ble/scooter-command/pkg/protocol"
)

// Handle names a handshake or session owned by a Bridge. The zero Handle is never issued.
type Handle uint64

// maxHandleTries bounds the search for an unused handle value.
const maxHandleTries = 16

// Option configures a Bridge.
type Option func(*Bridge)

// WithRand sets the random source used for ephemeral keys. Defaults to crypto/rand.Reader.
func WithRand(rng io.Reader) Option {
	return func(b *Bridge) {
		b.rng = rng
	}
}

// WithReplayProtection makes sessions reject reused counters with protocol.ErrCounterReplay.
// Disabled by default, in which case the host is responsible for never reusing a counter.
func WithReplayProtection(enabled bool) Option {
	return func(b *Bridge) {
		b.replayProtection = enabled
	}
}

// A Bridge owns the handshake and session tables. It is safe for concurrent use.
type Bridge struct {
	rng              io.Reader
	replayProtection bool
	initOnce         sync.Once

	handshakeLock sync.Mutex
	handshakes    map[Handle]*authentication.Handshake
	// consumed holds handles of completed handshakes until they are freed.
	consumed map[Handle]struct{}

	sessionLock sync.Mutex
	sessions    map[Handle]*authentication.Session
}

// New returns a Bridge with empty tables.
func New(options ...Option) *Bridge {
	b := &Bridge{
		rng:        rand.Reader,
		handshakes: make(map[Handle]*authentication.Handshake),
		consumed:   make(map[Handle]struct{}),
		sessions:   make(map[Handle]*authentication.Session),
	}
	for _, option := range options {
		option(b)
	}
	return b
}

// Initialize performs one-time setup. It may be called any number of times.
func (b *Bridge) Initialize() {
	b.initOnce.Do(func() {
		log.Info("Bridge initialized (replay protection: %v)", b.replayProtection)
	})
}

// recoverFault converts a panic in op into a protocol.ErrInternal-class error.
func recoverFault(op string, err *error) {
	if r := recover(); r != nil {
		log.WithFields(log.LevelError, map[string]interface{}{
			"op":    op,
			"fault": fmt.Sprint(r),
		}, "Recovered from fault at bridge boundary")
		log.Debug("%s", debug.Stack())
		*err = protocol.NewError(protocol.CodeInternal, fmt.Sprintf("%s: %v", op, r))
	}
}

func newHandle() (Handle, error) {
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, protocol.NewError(protocol.CodeEntropyUnavailable, err.Error())
		}
		if h := Handle(binary.LittleEndian.Uint64(buf[:])); h != 0 {
			return h, nil
		}
	}
}

// allocate stores v under a fresh handle. The caller must hold the table's lock.
func allocate[T any](table map[Handle]T, v T) (Handle, error) {
	for i := 0; i < maxHandleTries; i++ {
		h, err := newHandle()
		if err != nil {
			return 0, err
		}
		if _, taken := table[h]; !taken {
			table[h] = v
			return h, nil
		}
	}
	return 0, protocol.NewError(protocol.CodeInternal, "handle space exhausted")
}

// BeginHandshake generates an ephemeral key pair and returns its handle and uncompressed public
// key.
func (b *Bridge) BeginHandshake() (handle Handle, publicKey []byte, err error) {
	defer recoverFault("begin_handshake", &err)
	handshake, err := authentication.BeginHandshake(b.rng)
	if err != nil {
		return 0, nil, err
	}

	b.handshakeLock.Lock()
	defer b.handshakeLock.Unlock()
	handle, err = allocate(b.handshakes, handshake)
	if err != nil {
		handshake.Discard()
		return 0, nil, err
	}
	log.Debug("Began handshake %016x", uint64(handle))
	return handle, handshake.PublicBytes(), nil
}

// take removes the handshake from the live table. It returns ErrHandshakeAlreadyConsumed if the
// handshake was already completed and ErrInvalidHandle if it was never issued or has been freed.
func (b *Bridge) take(h Handle) (*authentication.Handshake, error) {
	b.handshakeLock.Lock()
	defer b.handshakeLock.Unlock()
	if handshake, ok := b.handshakes[h]; ok {
		delete(b.handshakes, h)
		b.consumed[h] = struct{}{}
		return handshake, nil
	}
	if _, ok := b.consumed[h]; ok {
		return nil, protocol.ErrHandshakeAlreadyConsumed
	}
	return nil, protocol.ErrInvalidHandle
}

// CompleteHandshake consumes the handshake h and derives the binding token and encrypted device
// ID. The handshake is consumed even if the peer key is invalid.
func (b *Bridge) CompleteHandshake(h Handle, peerPublic, peerInfo []byte) (token, deviceID []byte, err error) {
	defer recoverFault("complete_handshake", &err)
	handshake, err := b.take(h)
	if err != nil {
		return nil, nil, err
	}
	result, err := handshake.Complete(peerPublic, peerInfo)
	if err != nil {
		log.Warning("Handshake %016x failed: %s", uint64(h), err)
		return nil, nil, err
	}
	log.Debug("Completed handshake %016x", uint64(h))
	return result.Token[:], result.DeviceID, nil
}

// FreeHandshake releases a handshake, completed or not. Unknown handles are ignored.
func (b *Bridge) FreeHandshake(h Handle) {
	defer recoverFault("free_handshake", new(error))
	b.handshakeLock.Lock()
	defer b.handshakeLock.Unlock()
	if handshake, ok := b.handshakes[h]; ok {
		handshake.Discard()
		delete(b.handshakes, h)
	}
	delete(b.consumed, h)
}

// Login derives session keys from token and the two randoms and returns the new session's handle
// along with the info the host relays to the device. If peerInfo is non-empty it must match the
// confirmation the device is expected to send.
func (b *Bridge) Login(token, localRandom, peerRandom, peerInfo []byte) (handle Handle, info []byte, err error) {
	defer recoverFault("login", &err)
	result, err := authentication.Login(localRandom, peerRandom, token)
	if err != nil {
		return 0, nil, err
	}
	defer result.Keys.Wipe()
	if len(peerInfo) > 0 {
		if err = result.VerifyPeer(peerInfo); err != nil {
			return 0, nil, err
		}
	}
	session := authentication.NewSession(result.Keys, authentication.RoleController)
	session.SetReplayProtection(b.replayProtection)

	b.sessionLock.Lock()
	defer b.sessionLock.Unlock()
	handle, err = allocate(b.sessions, session)
	if err != nil {
		session.Wipe()
		return 0, nil, err
	}
	log.Debug("Opened session %016x", uint64(handle))
	return handle, result.Info, nil
}

func (b *Bridge) session(h Handle) (*authentication.Session, error) {
	b.sessionLock.Lock()
	defer b.sessionLock.Unlock()
	session, ok := b.sessions[h]
	if !ok {
		return nil, protocol.ErrInvalidHandle
	}
	return session, nil
}

// Encrypt seals payload for the device using the session's controller-to-device key.
func (b *Bridge) Encrypt(h Handle, payload []byte, counter uint32) (ciphertext []byte, err error) {
	defer recoverFault("encrypt", &err)
	session, err := b.session(h)
	if err != nil {
		return nil, err
	}
	return session.Encrypt(payload, counter, nil)
}

// Decrypt opens a frame from the device using the session's device-to-controller key.
func (b *Bridge) Decrypt(h Handle, ciphertext []byte) (plaintext []byte, err error) {
	defer recoverFault("decrypt", &err)
	session, err := b.session(h)
	if err != nil {
		return nil, err
	}
	plaintext, _, err = session.Decrypt(ciphertext, nil)
	return plaintext, err
}

// FreeSession wipes and releases a session. Unknown handles are ignored.
func (b *Bridge) FreeSession(h Handle) {
	defer recoverFault("free_session", new(error))
	b.sessionLock.Lock()
	session, ok := b.sessions[h]
	delete(b.sessions, h)
	b.sessionLock.Unlock()
	if ok {
		session.Wipe()
		log.Debug("Freed session %016x", uint64(h))
	}
}

// Sessions returns the number of live sessions.
func (b *Bridge) Sessions() int {
	b.sessionLock.Lock()
	defer b.sessionLock.Unlock()
	return len(b.sessions)
}

// Handshakes returns the number of handshakes that have been started but not completed or freed.
func (b *Bridge) Handshakes() int {
	b.handshakeLock.Lock()
	defer b.handshakeLock.Unlock()
	return len(b.handshakes)
}
