// Package wire implements the nn datagram codec: the fixed datagram
// header, the object-record stream that follows it, and the buffer-full /
// malformed-datagram handling spec'd for the transmit and receive paths.
//
// All multi-byte integers are little-endian. The source this protocol was
// distilled from left endianness host-dependent (i.e. undefined across
// architectures); this implementation picks little-endian and fixes it
// here so any two peers agree regardless of host byte order.
package wire

import (
	"encoding/binary"
	"errors"

	"github.com/ev3kit/nn/internal/constants"
)

// ErrTruncated is returned by Parse when a datagram is shorter than its
// header claims, or a record header or payload would run off the end.
// Per spec, a malformed datagram is discarded whole; Parse never returns a
// partial record set alongside this error.
var ErrTruncated = errors.New("wire: truncated or malformed datagram")

// ErrBufferFull is returned by AppendRecord when the record would not fit
// in the remaining space.
var ErrBufferFull = errors.New("wire: buffer full")

// EncodeHeader writes a 32-byte datagram header for the given sender and
// record count. The 15 reserved bytes are always zero.
func EncodeHeader(sender [16]byte, recordCount uint8) []byte {
	buf := make([]byte, constants.DatagramHeaderSize)
	copy(buf[0:16], sender[:])
	buf[16] = recordCount
	return buf
}

// DecodeHeader reads the sender UUID and record count from the front of
// data. It only requires len(data) >= DatagramHeaderSize; it does not
// validate that the claimed record count actually fits.
func DecodeHeader(data []byte) (sender [16]byte, recordCount uint8, err error) {
	if len(data) < constants.DatagramHeaderSize {
		return sender, 0, ErrTruncated
	}
	copy(sender[:], data[0:16])
	recordCount = data[16]
	return sender, recordCount, nil
}

// EncodeRecordHeader writes h's 8-byte wire form into dst[0:8].
func EncodeRecordHeader(dst []byte, h RecordHeader) {
	binary.LittleEndian.PutUint16(dst[0:2], h.Idx)
	binary.LittleEndian.PutUint16(dst[2:4], h.Type)
	binary.LittleEndian.PutUint16(dst[4:6], h.Offset)
	binary.LittleEndian.PutUint16(dst[6:8], h.Size)
}

// DecodeRecordHeader reads a record header from data[0:8]. Callers must
// ensure len(data) >= RecordHeaderSize.
func DecodeRecordHeader(data []byte) RecordHeader {
	return RecordHeader{
		Idx:    binary.LittleEndian.Uint16(data[0:2]),
		Type:   binary.LittleEndian.Uint16(data[2:4]),
		Offset: binary.LittleEndian.Uint16(data[4:6]),
		Size:   binary.LittleEndian.Uint16(data[6:8]),
	}
}

// AppendRecord writes one record (header + payload) at buf[used:] and
// returns the new used length. buf is the payload region of a transmit
// buffer (i.e. already excludes the 32-byte datagram header); the caller
// is responsible for keeping the 32-byte header in sync with the resulting
// record count. AppendRecord fails with ErrBufferFull, and leaves buf and
// used untouched, when the record would not fit.
func AppendRecord(buf []byte, used int, h RecordHeader, payload []byte) (int, error) {
	need := constants.RecordHeaderSize + len(payload)
	if used+need > len(buf) {
		return used, ErrBufferFull
	}
	EncodeRecordHeader(buf[used:used+constants.RecordHeaderSize], h)
	copy(buf[used+constants.RecordHeaderSize:used+need], payload)
	return used + need, nil
}

// Parse decodes a full datagram into its sender UUID and the sequence of
// object records it carries. Any inconsistency — fewer bytes than the
// header claims, a record header that would run past the end, or a
// record payload that would run past the end — discards the whole
// datagram: Parse returns ErrTruncated and a nil record slice, never a
// partial one.
func Parse(datagram []byte) (sender [16]byte, records []Record, err error) {
	sender, count, err := DecodeHeader(datagram)
	if err != nil {
		return sender, nil, err
	}

	offset := constants.DatagramHeaderSize
	out := make([]Record, 0, count)
	for i := 0; i < int(count); i++ {
		if offset+constants.RecordHeaderSize > len(datagram) {
			return sender, nil, ErrTruncated
		}
		h := DecodeRecordHeader(datagram[offset:])
		payloadStart := offset + constants.RecordHeaderSize
		payloadEnd := payloadStart + int(h.Size)
		if payloadEnd > len(datagram) {
			return sender, nil, ErrTruncated
		}
		out = append(out, Record{Header: h, Payload: datagram[payloadStart:payloadEnd]})
		offset = payloadEnd
	}
	return sender, out, nil
}
