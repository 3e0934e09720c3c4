// Package main exports the session bridge as a C shared library, so that host applications
// written in other languages can drive the scooter handshake, login and channel.
//
// # Build Instructions
//
//	go build -buildmode=c-shared -o libscooter.so ./cmd/scooter-capi/
//
// This generates libscooter.so and libscooter.h with the function declarations.
//
// # Calling Convention
//
// Handles are opaque uint64_t values; zero is never a valid handle. Every call that returns data
// returns a buffer allocated with malloc holding a protobuf-encoded Result message and stores its
// length in *out_len:
//
//	message Result {
//	  uint32 code       = 1;
//	  fixed64 handle    = 2;
//	  bytes public_key  = 3;
//	  bytes token       = 4;
//	  bytes device_id   = 5;
//	  bytes info        = 6;
//	  bytes data        = 7;
//	  string message    = 8;
//	}
//
// A code of zero means success. The host releases the buffer with scooter_free_buffer:
//
//	size_t len;
//	uint8_t *result = scooter_begin_handshake(&len);
//	/* decode handle and public_key */
//	scooter_free_buffer(result);
//
// Input buffers are copied before the call returns and are never modified.
package main
