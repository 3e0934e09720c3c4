package main

/*
#include <stdint.h>
#include <stdlib.h>
#include <string.h>
*/
import "C"

import (
	"unsafe"

	"github.com/m365ble/scooter-command/pkg/bridge"
)

func goBytes(p *C.uint8_t, n C.size_t) []byte {
	if p == nil || n == 0 {
		return nil
	}
	return C.GoBytes(unsafe.Pointer(p), C.int(n))
}

// cResult copies encoded into a malloc'd buffer. The buffer is at least one byte long so that an
// empty success Result is never returned as NULL.
func cResult(encoded []byte, outLen *C.size_t) *C.uint8_t {
	buf := C.malloc(C.size_t(len(encoded) + 1))
	if buf == nil {
		return nil
	}
	if len(encoded) > 0 {
		C.memcpy(buf, unsafe.Pointer(&encoded[0]), C.size_t(len(encoded)))
	}
	if outLen != nil {
		*outLen = C.size_t(len(encoded))
	}
	return (*C.uint8_t)(buf)
}

//export scooter_init
func scooter_init() {
	initialize()
}

//export scooter_begin_handshake
func scooter_begin_handshake(outLen *C.size_t) *C.uint8_t {
	return cResult(beginHandshake(), outLen)
}

//export scooter_complete_handshake
func scooter_complete_handshake(handle C.uint64_t, peerPublic *C.uint8_t, peerPublicLen C.size_t, peerInfo *C.uint8_t, peerInfoLen C.size_t, outLen *C.size_t) *C.uint8_t {
	return cResult(completeHandshake(bridge.Handle(handle), goBytes(peerPublic, peerPublicLen), goBytes(peerInfo, peerInfoLen)), outLen)
}

//export scooter_free_handshake
func scooter_free_handshake(handle C.uint64_t) {
	freeHandshake(bridge.Handle(handle))
}

//export scooter_login
func scooter_login(token *C.uint8_t, tokenLen C.size_t, localRandom *C.uint8_t, localRandomLen C.size_t, peerRandom *C.uint8_t, peerRandomLen C.size_t, peerInfo *C.uint8_t, peerInfoLen C.size_t, outLen *C.size_t) *C.uint8_t {
	return cResult(login(
		goBytes(token, tokenLen),
		goBytes(localRandom, localRandomLen),
		goBytes(peerRandom, peerRandomLen),
		goBytes(peerInfo, peerInfoLen),
	), outLen)
}

//export scooter_encrypt
func scooter_encrypt(handle C.uint64_t, payload *C.uint8_t, payloadLen C.size_t, counter C.uint32_t, outLen *C.size_t) *C.uint8_t {
	return cResult(encrypt(bridge.Handle(handle), goBytes(payload, payloadLen), uint32(counter)), outLen)
}

//export scooter_decrypt
func scooter_decrypt(handle C.uint64_t, ciphertext *C.uint8_t, ciphertextLen C.size_t, outLen *C.size_t) *C.uint8_t {
	return cResult(decrypt(bridge.Handle(handle), goBytes(ciphertext, ciphertextLen)), outLen)
}

//export scooter_free_session
func scooter_free_session(handle C.uint64_t) {
	freeSession(bridge.Handle(handle))
}

//export scooter_free_buffer
func scooter_free_buffer(buffer *C.uint8_t) {
	C.free(unsafe.Pointer(buffer))
}
