// Package msgs defines the messages published by the tuning bridge.
package msgs

import (
	"github.com/golang/protobuf/proto"

	"github.com/blackmoon/servo.go/pkg/serial"
)

// ParamValue reports a tuning parameter of a board.
type ParamValue struct {
	ID    uint32 `protobuf:"varint,1,opt,name=id,proto3" json:"id,omitempty"`
	Name  string `protobuf:"bytes,2,opt,name=name,proto3" json:"name,omitempty"`
	Value uint32 `protobuf:"varint,3,opt,name=value,proto3" json:"value,omitempty"`
}

// NewParamValue creates ParamValue from a decoded frame.
func NewParamValue(p serial.Param) *ParamValue {
	return &ParamValue{ID: uint32(p.ID), Name: p.ID.String(), Value: uint32(p.Value)}
}

// Param converts back to a frame value.
func (m *ParamValue) Param() serial.Param {
	return serial.Param{ID: serial.ParamID(m.ID), Value: uint16(m.Value)}
}

// ProtoMessage implements proto.Message.
func (m *ParamValue) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ParamValue) Reset() { *m = ParamValue{} }

// String implements proto.Message.
func (m *ParamValue) String() string { return proto.CompactTextString(m) }

// Encode marshals a message.
func Encode(m proto.Message) ([]byte, error) {
	return proto.Marshal(m)
}

// DecodeParamValue unmarshals a ParamValue.
func DecodeParamValue(data []byte) (*ParamValue, error) {
	m := &ParamValue{}
	if err := proto.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}
