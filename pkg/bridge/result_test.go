package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/m365ble/scooter-command/pkg/protocol"
)

func TestResultEncoding(t *testing.T) {
	tests := []struct {
		name   string
		result Result
	}{
		{"empty success", Result{}},
		{"handshake", Result{Handle: 0x0123456789abcdef, PublicKey: []byte{0x04, 0x01, 0x02}}},
		{"complete", Result{Token: make([]byte, 12), DeviceID: []byte{0xaa, 0xbb}}},
		{"login", Result{Handle: 1, Info: []byte{0x11, 0x22}}},
		{"data", Result{Data: []byte{0x55, 0xab, 0x00}}},
		{"failure", Result{Code: protocol.CodeAuthenticationFailed, Message: "AuthenticationFailed"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			encoded, err := test.result.MarshalBinary()
			require.NoError(t, err)
			decoded, err := UnmarshalResult(encoded)
			require.NoError(t, err)
			assert.Equal(t, test.result.Code, decoded.Code)
			assert.Equal(t, test.result.Handle, decoded.Handle)
			assert.Equal(t, test.result.Message, decoded.Message)
			for _, pair := range [][2][]byte{
				{test.result.PublicKey, decoded.PublicKey},
				{test.result.Token, decoded.Token},
				{test.result.DeviceID, decoded.DeviceID},
				{test.result.Info, decoded.Info},
				{test.result.Data, decoded.Data},
			} {
				assert.Equal(t, len(pair[0]), len(pair[1]))
				if len(pair[0]) > 0 {
					assert.Equal(t, pair[0], pair[1])
				}
			}
		})
	}
}

func TestEmptySuccessIsNotFailure(t *testing.T) {
	success, err := Failure(nil).MarshalBinary()
	require.NoError(t, err)
	failure, err := Failure(protocol.ErrAuthenticationFailed).MarshalBinary()
	require.NoError(t, err)
	assert.NotEqual(t, success, failure)

	decoded, err := UnmarshalResult(success)
	require.NoError(t, err)
	assert.NoError(t, decoded.Err())
	assert.Empty(t, decoded.Data)

	decoded, err = UnmarshalResult(failure)
	require.NoError(t, err)
	assert.ErrorIs(t, decoded.Err(), protocol.ErrAuthenticationFailed)
}

func TestFailureForeignError(t *testing.T) {
	r := Failure(assert.AnError)
	assert.Equal(t, protocol.CodeInternal, r.Code)
	assert.Equal(t, assert.AnError.Error(), r.Message)
}

func TestUnmarshalResultSkipsUnknownFields(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 99, protowire.VarintType)
	b = protowire.AppendVarint(b, 12345)
	b = protowire.AppendTag(b, fieldData, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte{0x01})
	b = protowire.AppendTag(b, 100, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("ignored"))

	r, err := UnmarshalResult(b)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, r.Data)
}

func TestUnmarshalResultTruncated(t *testing.T) {
	encoded, err := (&Result{Data: []byte{1, 2, 3, 4}}).MarshalBinary()
	require.NoError(t, err)
	_, err = UnmarshalResult(encoded[:len(encoded)-1])
	assert.Error(t, err)
}
