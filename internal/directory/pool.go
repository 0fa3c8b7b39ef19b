package directory

import "sync"

// entryPool provides pooled UUIDEntry and ObjectEntry allocations,
// standing in for the fixed-size slab pools the spec describes. Unlike a
// buffer pool bucketed by size (see internal/socket), both element types
// here are fixed-size structs, so bucketing is by type instead: one pool
// per struct kind, recycled the way a slab allocator recycles same-sized
// blocks across create/destroy cycles.
var (
	uuidEntryPool   = sync.Pool{New: func() any { return &UUIDEntry{} }}
	objectEntryPool = sync.Pool{New: func() any { return &ObjectEntry{} }}
)

// allocUUIDEntry returns a zeroed entry from the pool.
func allocUUIDEntry() *UUIDEntry {
	e := uuidEntryPool.Get().(*UUIDEntry)
	*e = UUIDEntry{}
	return e
}

// freeUUIDEntry returns an entry to the pool. The caller must have
// already unlinked it from both the bucket and global lists.
func freeUUIDEntry(e *UUIDEntry) {
	uuidEntryPool.Put(e)
}

// allocObjectEntry returns a zeroed entry from the pool, reusing its
// payload backing array (truncated to zero length) if one is already
// attached.
func allocObjectEntry() *ObjectEntry {
	e := objectEntryPool.Get().(*ObjectEntry)
	payload := e.Payload[:0]
	*e = ObjectEntry{Payload: payload}
	return e
}

// freeObjectEntry returns an entry to the pool after clearing its owner
// back-pointer.
func freeObjectEntry(e *ObjectEntry) {
	e.owner = nil
	objectEntryPool.Put(e)
}
