package directory

import "github.com/ev3kit/nn/internal/wire"

// UUIDEntry is one remote node tracked in the directory: its identity, the
// 32 remote-object slots it owns, the two list links used for O(1)
// bucket/global removal (I1), and a reference count.
//
// refcount tracks outstanding handles, not existence: an entry stays
// linked into the directory (and reachable by UUID lookup) regardless of
// refcount reaching zero. Only an explicit RemoveUUID request actually
// unlinks and frees it, and even then only once refcount has drained to
// zero (the last drop may come from destroying its last object); removed
// marks that such a request is pending.
type UUIDEntry struct {
	UUID    [16]byte
	Objects [32]*ObjectEntry

	bucketNext, bucketPrev *UUIDEntry
	listNext, listPrev     *UUIDEntry

	refcount int
	removed  bool
}

// ObjectEntry is one object mirrored from a remote node. Size is the
// high-water mark across all applied records (P2); Payload grows lazily
// to cover the largest offset+size seen so far. refcount and removed
// follow the same deferred-destruction convention as UUIDEntry.
type ObjectEntry struct {
	Type    wire.ObjectType
	Idx     int
	Size    int
	Payload []byte

	owner    *UUIDEntry
	refcount int
	removed  bool
}
