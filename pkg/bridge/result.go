package bridge

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/m365ble/scooter-command/pkg/protocol"
)

// Field numbers of the Result wire encoding. Hosts decode Results with any protobuf runtime using
// the equivalent message definition:
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
const (
	fieldCode      protowire.Number = 1
	fieldHandle    protowire.Number = 2
	fieldPublicKey protowire.Number = 3
	fieldToken     protowire.Number = 4
	fieldDeviceID  protowire.Number = 5
	fieldInfo      protowire.Number = 6
	fieldData      protowire.Number = 7
	fieldMessage   protowire.Number = 8
)

// Result is the tagged outcome of a boundary call. Code is protocol.CodeOk on success, in which
// case the fields relevant to the call are set; Data may legitimately be empty. On failure only
// Code and Message are set.
type Result struct {
	Code      protocol.Code
	Handle    Handle
	PublicKey []byte
	Token     []byte
	DeviceID  []byte
	Info      []byte
	Data      []byte
	Message   string
}

// Failure returns the Result describing err, or an empty success Result if err is nil.
func Failure(err error) *Result {
	if err == nil {
		return &Result{}
	}
	return &Result{Code: protocol.CodeOf(err), Message: err.Error()}
}

// Err returns nil for a successful Result and a *protocol.Error otherwise.
func (r *Result) Err() error {
	if r.Code == protocol.CodeOk {
		return nil
	}
	return &protocol.Error{Code: r.Code, Info: r.Message}
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// MarshalBinary encodes r using the protobuf wire format. Empty fields are omitted.
func (r *Result) MarshalBinary() ([]byte, error) {
	var b []byte
	if r.Code != protocol.CodeOk {
		b = protowire.AppendTag(b, fieldCode, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(r.Code))
	}
	if r.Handle != 0 {
		b = protowire.AppendTag(b, fieldHandle, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, uint64(r.Handle))
	}
	b = appendBytes(b, fieldPublicKey, r.PublicKey)
	b = appendBytes(b, fieldToken, r.Token)
	b = appendBytes(b, fieldDeviceID, r.DeviceID)
	b = appendBytes(b, fieldInfo, r.Info)
	b = appendBytes(b, fieldData, r.Data)
	if r.Message != "" {
		b = protowire.AppendTag(b, fieldMessage, protowire.BytesType)
		b = protowire.AppendString(b, r.Message)
	}
	return b, nil
}

// UnmarshalResult decodes a Result produced by MarshalBinary. Unknown fields are skipped.
func UnmarshalResult(b []byte) (*Result, error) {
	var r Result
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("result tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldCode && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("result code: %w", protowire.ParseError(n))
			}
			r.Code = protocol.Code(v)
			b = b[n:]
		case num == fieldHandle && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return nil, fmt.Errorf("result handle: %w", protowire.ParseError(n))
			}
			r.Handle = Handle(v)
			b = b[n:]
		case typ == protowire.BytesType && num >= fieldPublicKey && num <= fieldMessage:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("result field %d: %w", num, protowire.ParseError(n))
			}
			r.setBytes(num, v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("result field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return &r, nil
}

func (r *Result) setBytes(num protowire.Number, v []byte) {
	v = append([]byte{}, v...)
	switch num {
	case fieldPublicKey:
		r.PublicKey = v
	case fieldToken:
		r.Token = v
	case fieldDeviceID:
		r.DeviceID = v
	case fieldInfo:
		r.Info = v
	case fieldData:
		r.Data = v
	case fieldMessage:
		r.Message = string(v)
	}
}
