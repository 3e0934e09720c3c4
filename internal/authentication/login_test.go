package authentication

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"
	"testing"

	"golang.org/x/crypto/hkdf"

	"github.com/m365ble/scooter-command/pkg/protocol"
)

var (
	testToken = []byte{0x2b, 0x7d, 0x15, 0x16, 0x28, 0xae, 0xd2, 0xa6, 0xab, 0xf7, 0x15, 0x88}

	testLocalRandom = []byte{
		0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
	}
	testPeerRandom = []byte{
		0xf0, 0xe1, 0xd2, 0xc3, 0xb4, 0xa5, 0x96, 0x87, 0x78, 0x69, 0x5a, 0x4b, 0x3c, 0x2d, 0x1e, 0x0f,
	}
)

func TestLoginTokenLength(t *testing.T) {
	for _, n := range []int{0, 1, TokenLength - 1, TokenLength + 1, 32} {
		result, err := Login(testLocalRandom, testPeerRandom, make([]byte, n))
		if !errors.Is(err, protocol.ErrInvalidTokenLength) {
			t.Errorf("Token of length %d: expected ErrInvalidTokenLength, got %v", n, err)
		}
		if result != nil {
			t.Errorf("Token of length %d produced a result", n)
		}
	}
	// The length check comes before anything else looks at the randoms.
	if _, err := Login(nil, nil, nil); !errors.Is(err, protocol.ErrInvalidTokenLength) {
		t.Errorf("Expected ErrInvalidTokenLength, got %v", err)
	}
}

func TestLoginKnownKeys(t *testing.T) {
	result, err := Login(testLocalRandom, testPeerRandom, testToken)
	if err != nil {
		t.Fatalf("Login failed: %s", err)
	}
	salt := append(append([]byte{}, testLocalRandom...), testPeerRandom...)
	derived := make([]byte, 64)
	if _, err := io.ReadFull(hkdf.New(sha256.New, testToken, salt, []byte("mible-login-info")), derived); err != nil {
		t.Fatal(err)
	}
	keys := result.Keys
	if !bytes.Equal(keys.Dev.Key[:], derived[0:16]) || !bytes.Equal(keys.App.Key[:], derived[16:32]) ||
		!bytes.Equal(keys.Dev.IV[:], derived[32:36]) || !bytes.Equal(keys.App.IV[:], derived[36:40]) {
		t.Errorf("Session keys don't match key schedule")
	}
	if keys.App == keys.Dev {
		t.Errorf("Directional keys are identical")
	}

	h := hmac.New(sha256.New, derived[16:32])
	h.Write(salt)
	if !bytes.Equal(result.Info, h.Sum(nil)) {
		t.Errorf("Unexpected login info: %02x", result.Info)
	}
}

func TestLoginDoesNotModifyInputs(t *testing.T) {
	local := append([]byte{}, testLocalRandom...)
	peer := append([]byte{}, testPeerRandom...)
	token := append([]byte{}, testToken...)

	first, err := Login(local, peer, token)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(local, testLocalRandom) || !bytes.Equal(peer, testPeerRandom) || !bytes.Equal(token, testToken) {
		t.Fatalf("Login modified its inputs")
	}
	second, err := Login(local, peer, token)
	if err != nil {
		t.Fatal(err)
	}
	if first.Keys != second.Keys || !bytes.Equal(first.Info, second.Info) {
		t.Errorf("Login is not deterministic")
	}
}

func TestVerifyPeer(t *testing.T) {
	controller, err := Login(testLocalRandom, testPeerRandom, testToken)
	if err != nil {
		t.Fatal(err)
	}
	// The device derives the same keys and proves it with HMAC(Dev, peer || local).
	h := hmac.New(sha256.New, controller.Keys.Dev.Key[:])
	h.Write(testPeerRandom)
	h.Write(testLocalRandom)
	if err := controller.VerifyPeer(h.Sum(nil)); err != nil {
		t.Errorf("Rejected valid confirmation: %s", err)
	}
	if err := controller.VerifyPeer(controller.Info); !errors.Is(err, protocol.ErrPeerConfirmationFailed) {
		t.Errorf("Accepted controller's own info as device confirmation")
	}
	if err := controller.VerifyPeer(nil); !errors.Is(err, protocol.ErrPeerConfirmationFailed) {
		t.Errorf("Accepted empty confirmation")
	}
}

func TestResponderLogin(t *testing.T) {
	controller, device := newRegisteredPair(t)
	login, err := device.Login(testLocalRandom, testPeerRandom)
	if err != nil {
		t.Fatalf("Device login failed: %s", err)
	}
	result, err := Login(testLocalRandom, testPeerRandom, controller.Token[:])
	if err != nil {
		t.Fatal(err)
	}
	if err := result.VerifyPeer(login.Confirmation); err != nil {
		t.Fatalf("Controller rejected device confirmation: %s", err)
	}
	if _, err := login.Accept(result.ExpectedPeerInfo); !errors.Is(err, protocol.ErrPeerConfirmationFailed) {
		t.Errorf("Device accepted its own confirmation")
	}
	if _, err := login.Accept(result.Info); err != nil {
		t.Errorf("Device rejected controller info: %s", err)
	}
}

func TestResponderLoginBeforeRegister(t *testing.T) {
	device, err := NewResponder(rand.Reader, []byte("blt.4.19caqmgok0000"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = device.Login(testLocalRandom, testPeerRandom)
	if !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Expected ErrNotRegistered, got %v", err)
	}
	if errors.Is(err, protocol.ErrInvalidTokenLength) {
		t.Errorf("Unregistered device reported a token length error")
	}
}
