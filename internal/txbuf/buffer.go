// Package txbuf implements the coalescing transmit buffer: the single
// in-progress datagram that accumulates a node's outbound object deltas
// until the next scheduler turn flushes it.
package txbuf

import (
	"github.com/ev3kit/nn/internal/constants"
	"github.com/ev3kit/nn/internal/wire"
)

// payloadCap is how much of one MTU-sized datagram is available for
// object records once the 32-byte header is accounted for.
const payloadCap = constants.MTU - constants.DatagramHeaderSize

// Buffer holds one in-flight datagram being composed. It never exceeds
// one MTU (I4): usedSize + DatagramHeaderSize <= MTU, and objectsCount
// always equals the number of records appended since the last Reset.
type Buffer struct {
	owner        [16]byte
	data         [payloadCap]byte
	usedSize     int
	objectsCount int

	// scheduled mirrors the spec's single pending-flush work-item handle:
	// the first UpdateObject after a Reset schedules a flush and sets
	// this true; subsequent updates before the flush runs just append.
	// The flush callback clears it just before calling Reset, so the
	// next update can schedule again.
	scheduled bool
}

// New returns a zeroed buffer. Reset must be called with the owning
// node's UUID before first use.
func New() *Buffer {
	return &Buffer{}
}

// Reset clears the header and payload state and records the owning
// node's UUID for the next Finalize.
func (b *Buffer) Reset(owner [16]byte) {
	b.owner = owner
	b.data = [payloadCap]byte{}
	b.usedSize = 0
	b.objectsCount = 0
}

// TryAppend appends one record to the buffer, returning false (without
// modifying the buffer) when the record does not fit in the remaining
// space. The caller is expected to flush, Reset, and retry once; a
// second failure against a fresh buffer means the record itself exceeds
// one datagram (oversize).
func (b *Buffer) TryAppend(h wire.RecordHeader, payload []byte) bool {
	newUsed, err := wire.AppendRecord(b.data[:], b.usedSize, h, payload)
	if err != nil {
		return false
	}
	b.usedSize = newUsed
	b.objectsCount++
	return true
}

// Finalize returns the encoded datagram bytes: the 32-byte header
// followed by usedSize bytes of record stream.
func (b *Buffer) Finalize() []byte {
	out := make([]byte, constants.DatagramHeaderSize+b.usedSize)
	copy(out[:constants.DatagramHeaderSize], wire.EncodeHeader(b.owner, uint8(b.objectsCount)))
	copy(out[constants.DatagramHeaderSize:], b.data[:b.usedSize])
	return out
}

// Empty reports whether any record has been appended since the last
// Reset.
func (b *Buffer) Empty() bool {
	return b.objectsCount == 0
}

// ObjectsCount returns the number of records appended since the last
// Reset.
func (b *Buffer) ObjectsCount() int {
	return b.objectsCount
}

// ScheduleFlush implements the self-rearming one-shot: it returns true
// exactly once per dirty period (the first call after Reset or after the
// previous flush's ClearSchedule), marking the start of a new batch. Later
// calls before the flush fires return false: the update simply rides
// along in the already-open batch. ScheduleFlush does not itself arrange
// for a flush to run.
func (b *Buffer) ScheduleFlush() bool {
	if b.scheduled {
		return false
	}
	b.scheduled = true
	return true
}

// ClearSchedule is called by the flush callback right before it hands
// the finalized bytes off and resets the buffer, so the next
// UpdateObject can schedule a fresh flush.
func (b *Buffer) ClearSchedule() {
	b.scheduled = false
}
