package main

import (
	"github.com/m365ble/scooter-command/internal/log"
	"github.com/m365ble/scooter-command/pkg/bridge"
	"github.com/m365ble/scooter-command/pkg/protocol"
)

func main() {} // Required for c-shared build mode

var instance = bridge.New()

// encode serializes r, falling back to an Internal failure Result.
func encode(r *bridge.Result) []byte {
	b, err := r.MarshalBinary()
	if err != nil {
		log.WithFields(log.LevelError, map[string]interface{}{
			"function": "encode",
			"error":    err.Error(),
		}, "Failed to encode result")
		b, _ = bridge.Failure(protocol.NewError(protocol.CodeInternal, err.Error())).MarshalBinary()
	}
	return b
}

func initialize() {
	instance.Initialize()
}

func beginHandshake() []byte {
	handle, publicKey, err := instance.BeginHandshake()
	if err != nil {
		return encode(bridge.Failure(err))
	}
	return encode(&bridge.Result{Handle: handle, PublicKey: publicKey})
}

func completeHandshake(handle bridge.Handle, peerPublic, peerInfo []byte) []byte {
	token, deviceID, err := instance.CompleteHandshake(handle, peerPublic, peerInfo)
	if err != nil {
		return encode(bridge.Failure(err))
	}
	return encode(&bridge.Result{Token: token, DeviceID: deviceID})
}

func freeHandshake(handle bridge.Handle) {
	instance.FreeHandshake(handle)
}

func login(token, localRandom, peerRandom, peerInfo []byte) []byte {
	handle, info, err := instance.Login(token, localRandom, peerRandom, peerInfo)
	if err != nil {
		return encode(bridge.Failure(err))
	}
	return encode(&bridge.Result{Handle: handle, Info: info})
}

func encrypt(handle bridge.Handle, payload []byte, counter uint32) []byte {
	ciphertext, err := instance.Encrypt(handle, payload, counter)
	if err != nil {
		return encode(bridge.Failure(err))
	}
	return encode(&bridge.Result{Data: ciphertext})
}

func decrypt(handle bridge.Handle, ciphertext []byte) []byte {
	plaintext, err := instance.Decrypt(handle, ciphertext)
	if err != nil {
		return encode(bridge.Failure(err))
	}
	return encode(&bridge.Result{Data: plaintext})
}

func freeSession(handle bridge.Handle) {
	instance.FreeSession(handle)
}
