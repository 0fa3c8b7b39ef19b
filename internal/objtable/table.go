// Package objtable implements the fixed-capacity local object table: the
// 32-slot array of caller-owned object descriptors a node multicasts
// updates for.
package objtable

import (
	"errors"
	"math/bits"

	"github.com/ev3kit/nn/internal/constants"
	"github.com/ev3kit/nn/internal/wire"
)

// ErrFull is returned by Add when all MaxObjects slots are occupied.
var ErrFull = errors.New("objtable: table full")

// Descriptor describes one local object. Payload is owned by the caller;
// the table and the rest of the runtime hold a non-owning reference and
// only ever read from it during UpdateObject.
type Descriptor struct {
	Idx     int
	Type    wire.ObjectType
	Size    int
	Payload []byte
}

// Table is a fixed array of MaxObjects slots plus a used-slot bitmap.
// Slot i is non-empty iff bit i of the bitmap is set, and a populated
// slot's Descriptor.Idx always equals its slot index.
type Table struct {
	slots  [constants.MaxObjects]*Descriptor
	bitmap uint64
}

// New returns an empty table.
func New() *Table {
	return &Table{}
}

// Add scans for the lowest-numbered clear bit, assigns it to desc.Idx,
// stores desc in that slot, and sets the bit. It returns ErrFull when all
// MaxObjects slots are in use.
//
// P4: indices are assigned 0..k-1 in call order; there is no release path
// in the core API, so indices only ever increase across a table's
// lifetime.
func (t *Table) Add(desc *Descriptor) (int, error) {
	full := uint64(1)<<constants.MaxObjects - 1
	if t.bitmap == full {
		return 0, ErrFull
	}
	idx := bits.TrailingZeros64(^t.bitmap)
	desc.Idx = idx
	t.slots[idx] = desc
	t.bitmap |= 1 << uint(idx)
	return idx, nil
}

// At returns the descriptor in slot idx, or nil if the slot is empty or
// idx is out of range. The table does not own descriptors; callers keep
// them alive for the node's lifetime.
func (t *Table) At(idx int) *Descriptor {
	if idx < 0 || idx >= constants.MaxObjects {
		return nil
	}
	return t.slots[idx]
}

// Len returns the number of occupied slots.
func (t *Table) Len() int {
	return bits.OnesCount64(t.bitmap)
}
