package authentication

import (
	"sync"

	"github.com/m365ble/scooter-command/pkg/protocol"
)

// Role selects which directional key a Session encrypts with.
type Role int

const (
	// RoleController encrypts with the App key and decrypts with the Dev key.
	RoleController Role = iota
	// RoleDevice encrypts with the Dev key and decrypts with the App key.
	RoleDevice
)

// A Session encrypts outbound frames and decrypts inbound frames for one side of the command
// channel. It is safe for concurrent use.
type Session struct {
	lock sync.Mutex
	keys SessionKeys
	role Role

	wiped            bool
	replayProtection bool
	sent             bool
	lastSent         uint32
	received         SlidingWindow
}

// NewSession takes ownership of keys.
func NewSession(keys SessionKeys, role Role) *Session {
	return &Session{keys: keys, role: role}
}

// SetReplayProtection enables rejection of reused counters. When enabled, Encrypt requires each
// counter to be greater than the last one used and Decrypt rejects counters it has already
// accepted (or that are more than 32 behind the highest accepted counter).
func (s *Session) SetReplayProtection(enabled bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.replayProtection = enabled
}

func (s *Session) keyPair() (send, recv *DirectionalKey) {
	if s.role == RoleDevice {
		return &s.keys.Dev, &s.keys.App
	}
	return &s.keys.App, &s.keys.Dev
}

// Encrypt seals plaintext for the peer using counter as the nonce.
func (s *Session) Encrypt(plaintext []byte, counter uint32, associatedData []byte) ([]byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.wiped {
		return nil, protocol.ErrInvalidHandle
	}
	if s.replayProtection && s.sent && counter <= s.lastSent {
		return nil, protocol.ErrCounterReplay
	}
	send, _ := s.keyPair()
	out, err := Seal(send, plaintext, counter, associatedData)
	if err != nil {
		return nil, err
	}
	if !s.sent || counter > s.lastSent {
		s.lastSent = counter
	}
	s.sent = true
	return out, nil
}

// Decrypt opens a frame from the peer and returns its plaintext and full counter.
func (s *Session) Decrypt(frame []byte, associatedData []byte) ([]byte, uint32, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.wiped {
		return nil, 0, protocol.ErrInvalidHandle
	}
	_, recv := s.keyPair()
	plaintext, counter, err := Open(recv, frame, associatedData, s.received.Highest())
	if err != nil {
		return nil, 0, err
	}
	if fresh := s.received.Update(counter); !fresh && s.replayProtection {
		return nil, 0, protocol.ErrCounterReplay
	}
	return plaintext, counter, nil
}

// Wipe zeroes the session keys. Encrypt and Decrypt fail with protocol.ErrInvalidHandle
// afterwards.
func (s *Session) Wipe() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.keys.Wipe()
	s.wiped = true
}
