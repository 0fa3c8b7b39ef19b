package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ev3kit/nn/internal/constants"
)

func TestHeaderRoundTrip(t *testing.T) {
	var uuid [16]byte
	copy(uuid[:], []byte("0123456789abcdef"))

	buf := EncodeHeader(uuid, 3)
	require.Len(t, buf, constants.DatagramHeaderSize)

	gotUUID, gotCount, err := DecodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, uuid, gotUUID)
	assert.Equal(t, uint8(3), gotCount)

	for _, b := range buf[17:32] {
		assert.Equal(t, byte(0), b, "reserved bytes must be zero")
	}
}

func TestDecodeHeaderTruncated(t *testing.T) {
	_, _, err := DecodeHeader(make([]byte, 10))
	assert.ErrorIs(t, err, ErrTruncated)
}

// P1: encoding then decoding a sequence of well-formed records yields the
// same sequence.
func TestAppendThenParseRoundTrip(t *testing.T) {
	var uuid [16]byte
	copy(uuid[:], []byte("node-uuid-000001"))

	recs := []struct {
		h       RecordHeader
		payload []byte
	}{
		{RecordHeader{Idx: 0, Type: uint16(ObjectTypeUltrasonic), Offset: 0, Size: 4}, []byte{1, 0, 0, 0}},
		{RecordHeader{Idx: 1, Type: uint16(ObjectTypeTouch), Offset: 0, Size: 1}, []byte{1}},
		{RecordHeader{Idx: 2, Type: uint16(ObjectTypeGyro), Offset: 4, Size: 2}, []byte{0xAA, 0xBB}},
	}

	payloadBuf := make([]byte, constants.MTU-constants.DatagramHeaderSize)
	used := 0
	for _, r := range recs {
		var err error
		used, err = AppendRecord(payloadBuf, used, r.h, r.payload)
		require.NoError(t, err)
	}

	datagram := make([]byte, constants.DatagramHeaderSize+used)
	copy(datagram[0:constants.DatagramHeaderSize], EncodeHeader(uuid, uint8(len(recs))))
	copy(datagram[constants.DatagramHeaderSize:], payloadBuf[:used])

	gotUUID, gotRecords, err := Parse(datagram)
	require.NoError(t, err)
	assert.Equal(t, uuid, gotUUID)
	require.Len(t, gotRecords, len(recs))

	for i, want := range recs {
		assert.Equal(t, want.h, gotRecords[i].Header)
		assert.Equal(t, want.payload, gotRecords[i].Payload)
	}
}

func TestAppendRecordBufferFull(t *testing.T) {
	buf := make([]byte, 16)
	_, err := AppendRecord(buf, 0, RecordHeader{Size: 20}, make([]byte, 20))
	assert.ErrorIs(t, err, ErrBufferFull)
}

func TestAppendRecordExactFit(t *testing.T) {
	buf := make([]byte, constants.RecordHeaderSize+4)
	used, err := AppendRecord(buf, 0, RecordHeader{Idx: 0, Type: 0, Offset: 0, Size: 4}, []byte{9, 9, 9, 9})
	require.NoError(t, err)
	assert.Equal(t, len(buf), used)
}

func TestParseRejectsTruncatedRecord(t *testing.T) {
	var uuid [16]byte
	header := EncodeHeader(uuid, 1)
	// Claims one record but supplies no record bytes at all.
	_, _, err := Parse(header)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestParseRejectsOverrunningPayload(t *testing.T) {
	var uuid [16]byte
	header := EncodeHeader(uuid, 1)
	recHeader := make([]byte, constants.RecordHeaderSize)
	EncodeRecordHeader(recHeader, RecordHeader{Idx: 0, Type: 0, Offset: 0, Size: 100})
	datagram := append(header, recHeader...)
	// No payload bytes follow, but the record header claims 100.
	_, _, err := Parse(datagram)
	assert.ErrorIs(t, err, ErrTruncated)
}
