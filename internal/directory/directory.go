// Package directory implements the process-wide (per spec) UUID-hashed
// mirror of every other node's objects, with explicit reference-count
// lifetime management over slab-pooled entries.
//
// Per the "global state" design note, this implementation does not keep
// a package-level singleton: every operation takes an explicit
// *Directory receiver so callers — and tests — can construct isolated
// instances.
package directory

import (
	"errors"

	"github.com/ev3kit/nn/internal/constants"
	"github.com/ev3kit/nn/internal/wire"
)

// ErrInvalidSlot is returned by GetOrCreateObject when idx is outside
// [0, MaxObjects).
var ErrInvalidSlot = errors.New("directory: object slot out of range")

// Directory is a UUID-keyed hash of remote nodes and their objects.
type Directory struct {
	hash [constants.UUIDBucketCount]*UUIDEntry
	head *UUIDEntry // global enumeration list, insertion order
	tail *UUIDEntry

	uuidCount   int
	objectCount int
}

// New returns an empty directory.
func New() *Directory {
	return &Directory{}
}

// foldUUID xors all 16 bytes of a UUID into one byte, used as the bucket
// index (I1).
func foldUUID(u [16]byte) byte {
	var key byte
	for _, b := range u {
		key ^= b
	}
	return key
}

// GetOrCreateUUID looks up uuid's bucket. A match bumps its refcount and
// is returned; otherwise a fresh entry is allocated, linked into both the
// bucket and the global list, with refcount 1 for the handle returned
// here. A freshly created entry stays in the directory indefinitely —
// reachable by every later lookup — until RemoveUUID is explicitly
// called.
func (d *Directory) GetOrCreateUUID(uuid [16]byte) *UUIDEntry {
	key := foldUUID(uuid)
	for e := d.hash[key]; e != nil; e = e.bucketNext {
		if e.UUID == uuid {
			e.refcount++
			return e
		}
	}

	e := allocUUIDEntry()
	e.UUID = uuid
	e.refcount = 1

	e.bucketNext = d.hash[key]
	if e.bucketNext != nil {
		e.bucketNext.bucketPrev = e
	}
	d.hash[key] = e

	if d.tail != nil {
		d.tail.listNext = e
		e.listPrev = d.tail
	} else {
		d.head = e
	}
	d.tail = e
	d.uuidCount++

	return e
}

// Lookup returns the entry for uuid without creating one and without
// touching its refcount, or nil if uuid is not tracked. Intended for
// read-only queries that must not have a side effect on directory
// state.
func (d *Directory) Lookup(uuid [16]byte) *UUIDEntry {
	key := foldUUID(uuid)
	for e := d.hash[key]; e != nil; e = e.bucketNext {
		if e.UUID == uuid {
			return e
		}
	}
	return nil
}

// ReleaseUUID drops one outstanding handle. It destroys the entry only
// if a removal is already pending and this was the last handle; a plain
// release with no pending removal leaves the entry installed at
// refcount 0, still reachable by a later GetOrCreateUUID.
func (d *Directory) ReleaseUUID(e *UUIDEntry) {
	e.refcount--
	if e.refcount <= 0 && e.removed {
		d.destroyUUID(e)
	}
}

// RemoveUUID requests that e be forgotten. If no handle is outstanding it
// is unlinked and freed immediately; otherwise destruction is deferred
// until the last outstanding ReleaseUUID.
func (d *Directory) RemoveUUID(e *UUIDEntry) {
	e.removed = true
	if e.refcount <= 0 {
		d.destroyUUID(e)
	}
}

func (d *Directory) destroyUUID(e *UUIDEntry) {
	key := foldUUID(e.UUID)
	if e.bucketPrev != nil {
		e.bucketPrev.bucketNext = e.bucketNext
	} else {
		d.hash[key] = e.bucketNext
	}
	if e.bucketNext != nil {
		e.bucketNext.bucketPrev = e.bucketPrev
	}

	if e.listPrev != nil {
		e.listPrev.listNext = e.listNext
	} else {
		d.head = e.listNext
	}
	if e.listNext != nil {
		e.listNext.listPrev = e.listPrev
	} else {
		d.tail = e.listPrev
	}

	d.uuidCount--
	freeUUIDEntry(e)
}

// GetOrCreateObject returns the object handle at u.Objects[idx], bumping
// its refcount, or allocates one. A freshly allocated object holds one
// reference on u for its whole lifetime — released when the object is
// eventually destroyed — and itself starts at refcount 1 for the handle
// returned here. Like UUIDEntry, a freshly created object stays mirrored
// indefinitely until RemoveObject is explicitly called.
func (d *Directory) GetOrCreateObject(u *UUIDEntry, idx int) (*ObjectEntry, error) {
	if idx < 0 || idx >= constants.MaxObjects {
		return nil, ErrInvalidSlot
	}

	if o := u.Objects[idx]; o != nil {
		o.refcount++
		return o, nil
	}

	o := allocObjectEntry()
	o.Idx = idx
	o.owner = u
	u.refcount++
	o.refcount = 1
	u.Objects[idx] = o
	d.objectCount++

	return o, nil
}

// ReleaseObject drops one outstanding handle, destroying the entry only
// if a removal is already pending and this was the last handle.
func (d *Directory) ReleaseObject(o *ObjectEntry) {
	o.refcount--
	if o.refcount <= 0 && o.removed {
		d.destroyObject(o)
	}
}

// RemoveObject requests that o be forgotten. If no handle is outstanding
// it is cleared from its slot and freed immediately, releasing the
// reference it held on its owning UUID entry (which may in turn cascade
// into destroying that entry); otherwise destruction is deferred until
// the last outstanding ReleaseObject.
func (d *Directory) RemoveObject(o *ObjectEntry) {
	o.removed = true
	if o.refcount <= 0 {
		d.destroyObject(o)
	}
}

func (d *Directory) destroyObject(o *ObjectEntry) {
	owner := o.owner
	owner.Objects[o.Idx] = nil
	d.objectCount--
	freeObjectEntry(o)
	d.ReleaseUUID(owner)
}

// UUIDCount returns the number of UUID entries currently installed in the
// directory.
func (d *Directory) UUIDCount() int {
	return d.uuidCount
}

// ObjectCount returns the number of object entries currently installed
// across every UUID in the directory.
func (d *Directory) ObjectCount() int {
	return d.objectCount
}

// FirstUUID returns the first entry in enumeration (insertion) order, or
// nil if the directory is empty.
func (d *Directory) FirstUUID() *UUIDEntry {
	return d.head
}

// NextUUID returns the entry following cur in enumeration order, or nil
// at the end. NextUUID(nil) is nil.
func (d *Directory) NextUUID(cur *UUIDEntry) *UUIDEntry {
	if cur == nil {
		return nil
	}
	return cur.listNext
}

// ObjectAt returns the object in slot idx of u, or nil if empty or idx is
// out of range. Enumeration never walks object-to-UUID back-pointers to
// discover siblings; it always goes through this slot array.
func (d *Directory) ObjectAt(u *UUIDEntry, idx int) *ObjectEntry {
	if idx < 0 || idx >= constants.MaxObjects {
		return nil
	}
	return u.Objects[idx]
}

// ApplyDatagram is the apply-update procedure: for each parsed record, it
// gets-or-creates the sender's UUID entry and the record's object slot,
// raises Size to the new high-water mark (P2), copies the record payload
// into place (P3, I3), and releases both handles. A record whose idx is
// outside [0, MaxObjects) is skipped individually — this is a distinct
// failure mode from a malformed datagram (which wire.Parse already
// rejected whole before this is ever called) and does not abort the rest
// of the batch.
func (d *Directory) ApplyDatagram(sender [16]byte, records []wire.Record) {
	u := d.GetOrCreateUUID(sender)
	for _, r := range records {
		o, err := d.GetOrCreateObject(u, int(r.Header.Idx))
		if err != nil {
			continue
		}

		o.Type = wire.ObjectType(r.Header.Type)

		need := int(r.Header.Offset) + int(r.Header.Size)
		if need > len(o.Payload) {
			grown := make([]byte, need)
			copy(grown, o.Payload)
			o.Payload = grown
		}
		if need > o.Size {
			o.Size = need
		}
		copy(o.Payload[r.Header.Offset:int(r.Header.Offset)+int(r.Header.Size)], r.Payload)

		d.ReleaseObject(o)
	}
	d.ReleaseUUID(u)
}
