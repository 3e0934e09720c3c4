package protocol

import (
	"errors"
	"fmt"
)

// Code identifies the failure class of a protocol operation. Codes are stable and are transmitted
// to foreign hosts by the bridge, so new values must only be appended.
type Code uint32

const (
	CodeOk Code = iota
	CodeEntropyUnavailable
	CodeInvalidPeerKey
	CodeHandshakeAlreadyConsumed
	CodeInvalidTokenLength
	CodeAuthenticationFailed
	CodeMalformedCiphertext
	CodeMalformedFrame
	CodeInvalidHandle
	CodePeerConfirmationFailed
	CodeCounterReplay
	CodePayloadTooLarge
	CodeInternal
)

var codeNames = map[Code]string{
	CodeOk:                       "Ok",
	CodeEntropyUnavailable:       "EntropyUnavailable",
	CodeInvalidPeerKey:           "InvalidPeerKey",
	CodeHandshakeAlreadyConsumed: "HandshakeAlreadyConsumed",
	CodeInvalidTokenLength:       "InvalidTokenLength",
	CodeAuthenticationFailed:     "AuthenticationFailed",
	CodeMalformedCiphertext:      "MalformedCiphertext",
	CodeMalformedFrame:           "MalformedFrame",
	CodeInvalidHandle:            "InvalidHandle",
	CodePeerConfirmationFailed:   "PeerConfirmationFailed",
	CodeCounterReplay:            "CounterReplay",
	CodePayloadTooLarge:          "PayloadTooLarge",
	CodeInternal:                 "Internal",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", uint32(c))
}

// Fatal returns true if retrying the same call can never succeed. Every code except
// EntropyUnavailable and Internal describes a problem with the caller's inputs or state.
func (c Code) Fatal() bool {
	return c != CodeOk && c != CodeEntropyUnavailable && c != CodeInternal
}

// Error represents a protocol-layer error.
type Error struct {
	Code Code
	Info string
}

// NewError returns an Error with the given code. Info is optional human-readable context; it must
// never contain key material.
func NewError(code Code, info string) error {
	return &Error{Code: code, Info: info}
}

func (e *Error) Error() string {
	if e.Info == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Info)
}

// Is reports whether target is an *Error with the same Code, so that errors.Is(err,
// ErrMalformedFrame) matches regardless of Info.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

var (
	// ErrEntropyUnavailable indicates the random source failed while generating key material.
	ErrEntropyUnavailable = NewError(CodeEntropyUnavailable, "")
	// ErrInvalidPeerKey is raised when a peer provides a malformed public key or one that is not
	// on NIST P-256.
	ErrInvalidPeerKey = NewError(CodeInvalidPeerKey, "")
	// ErrHandshakeAlreadyConsumed indicates an attempt to complete a handshake whose ephemeral
	// secret has already been used.
	ErrHandshakeAlreadyConsumed = NewError(CodeHandshakeAlreadyConsumed, "")
	// ErrInvalidTokenLength indicates a binding token that is not exactly TokenLength bytes.
	ErrInvalidTokenLength = NewError(CodeInvalidTokenLength, "")
	// ErrAuthenticationFailed is returned for every integrity failure on decrypt. It carries no
	// detail on purpose; callers must not be able to tell a bad checksum from a bad tag.
	ErrAuthenticationFailed = NewError(CodeAuthenticationFailed, "")
	// ErrMalformedCiphertext indicates an encrypted frame that is too short or has a bad header.
	ErrMalformedCiphertext = NewError(CodeMalformedCiphertext, "")
	// ErrMalformedFrame indicates a command frame that does not parse.
	ErrMalformedFrame = NewError(CodeMalformedFrame, "")
	// ErrInvalidHandle indicates an unknown or already freed handle.
	ErrInvalidHandle = NewError(CodeInvalidHandle, "")
	// ErrPeerConfirmationFailed indicates the device's login confirmation did not match the
	// value derived locally.
	ErrPeerConfirmationFailed = NewError(CodePeerConfirmationFailed, "")
	// ErrCounterReplay indicates a counter value that has already been used with a session key.
	ErrCounterReplay = NewError(CodeCounterReplay, "")
	// ErrPayloadTooLarge indicates a payload that does not fit in a single-byte length field.
	ErrPayloadTooLarge = NewError(CodePayloadTooLarge, "")
	// ErrInternal indicates an unexpected fault, such as a recovered panic.
	ErrInternal = NewError(CodeInternal, "")
)

// CodeOf maps err to a Code. A nil error is CodeOk and errors that did not originate in this
// module are CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOk
	}
	var protoErr *Error
	if errors.As(err, &protoErr) {
		return protoErr.Code
	}
	return CodeInternal
}
