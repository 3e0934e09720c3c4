package emulator

import (
	"crypto/rand"
	"fmt"

	"github.com/m365ble/scooter-command/pkg/bridge"
)

// Pair runs the handshake and login between b and s the way a host relays them over the link, and
// returns the controller's end of the resulting session.
func (s *Scooter) Pair(b *bridge.Bridge) (*bridge.Channel, error) {
	h, public, err := b.BeginHandshake()
	if err != nil {
		return nil, fmt.Errorf("begin handshake: %w", err)
	}
	defer b.FreeHandshake(h)

	token, deviceID, err := b.CompleteHandshake(h, s.PublicKey(), s.Info())
	if err != nil {
		return nil, fmt.Errorf("complete handshake: %w", err)
	}
	if err := s.Register(public, deviceID); err != nil {
		return nil, err
	}

	localRandom := make([]byte, RandomLength)
	if _, err := rand.Read(localRandom); err != nil {
		return nil, err
	}
	peerRandom, confirmation, err := s.Login(localRandom)
	if err != nil {
		return nil, fmt.Errorf("device login: %w", err)
	}
	session, info, err := b.Login(token, localRandom, peerRandom, confirmation)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := s.Confirm(info); err != nil {
		b.FreeSession(session)
		return nil, fmt.Errorf("device confirm: %w", err)
	}
	return b.Channel(session), nil
}
