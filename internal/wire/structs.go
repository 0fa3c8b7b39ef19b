package wire

import "unsafe"

// DatagramHeader is the fixed 32-byte prefix of every outbound datagram:
//
//	offset  size  field
//	0x00    16    sender UUID
//	0x10     1    object record count (N)
//	0x11    15    reserved, zero
//
// It is never used for in-memory field access directly (the reserved
// padding has no meaning); EncodeHeader/DecodeHeader in marshal.go move it to and from the
// wire representation explicitly so the layout is independent of the
// compiler's own struct layout decisions.
type DatagramHeader struct {
	SenderUUID [16]byte
	RecordCount uint8
	reserved    [15]byte
}

var _ [32]byte = [unsafe.Sizeof(DatagramHeader{})]byte{}

// RecordHeader is the fixed 8-byte prefix of one object record:
//
//	+0  2  idx     (u16)
//	+2  2  type    (u16)
//	+4  2  offset  (u16) -- byte offset within the target object
//	+6  2  size    (u16) -- payload byte count
type RecordHeader struct {
	Idx    uint16
	Type   uint16
	Offset uint16
	Size   uint16
}

var _ [8]byte = [unsafe.Sizeof(RecordHeader{})]byte{}

// Record is one decoded object-delta: its header plus a payload slice
// aliasing the original datagram. Callers that retain a Record past the
// lifetime of the datagram buffer must copy Payload first.
type Record struct {
	Header  RecordHeader
	Payload []byte
}
