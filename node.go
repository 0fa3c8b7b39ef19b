// Package nn is a lightweight node-network runtime: it replicates a
// small set of typed "objects" across peers on a LAN over IP multicast.
// Each node owns a UUID-identified namespace of up to 32 indexed
// objects; mutations are coalesced into one datagram per scheduler turn
// and multicast to the shared group. Every node also maintains a local,
// reference-counted, enumerable mirror of every other node's namespace.
package nn

import (
	"context"
	"errors"
	"time"

	"github.com/ev3kit/nn/internal/directory"
	"github.com/ev3kit/nn/internal/interfaces"
	"github.com/ev3kit/nn/internal/objtable"
	"github.com/ev3kit/nn/internal/socket"
	"github.com/ev3kit/nn/internal/txbuf"
	"github.com/ev3kit/nn/internal/wire"
)

// ErrClosed is returned by every public Node method once the node has
// been closed or its context cancelled.
var ErrClosed = errors.New("nn: node closed")

// pumpInterval is how often the event loop polls the socket for
// readiness between handling submitted work items.
const pumpInterval = 2 * time.Millisecond

// ObjectSnapshot is a point-in-time copy of one mirrored remote object,
// safe to read after the call that produced it returns.
type ObjectSnapshot struct {
	Idx     int
	Type    wire.ObjectType
	Size    int
	Payload []byte
}

// Node binds the local object table, the coalescing transmit buffer, the
// directory mirroring every other node's namespace, and the socket
// driver together, and owns the single goroutine that drives them all.
//
// Go has no single-threaded cooperative work-queue primitive in the
// standard library; Node.run realizes it the way the teacher realizes
// its own single-owner I/O loop: one goroutine owns every mutable field
// below and services a channel of submitted work items, so exactly one
// item executes at a time and nothing here needs its own lock.
type Node struct {
	uuid [16]byte
	cfg  Config

	logger   interfaces.Logger
	observer interfaces.Observer

	table *objtable.Table
	txb   *txbuf.Buffer
	dir   *directory.Directory
	sock  interfaces.Socket

	ownsSocket bool

	work   chan func()
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Initialize constructs a Node from cfg and opts. It opens the socket
// driver (unless opts.Socket overrides it) but does not yet start the
// event loop; call Start for that.
func Initialize(cfg Config, opts *Options) (*Node, error) {
	if opts == nil {
		opts = &Options{}
	}

	baseCtx := opts.Context
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(baseCtx)

	observer := opts.Observer
	if observer == nil {
		observer = NoOpObserver{}
	}

	sock := opts.Socket
	ownsSocket := false
	if sock == nil {
		d, err := socket.Open(socket.Config{
			Port:          cfg.Port,
			Group:         cfg.Group,
			InterfaceName: cfg.InterfaceName,
			Logger:        opts.Logger,
		})
		if err != nil {
			cancel()
			return nil, WrapError("Initialize", err)
		}
		sock = d
		ownsSocket = true
	}

	txb := txbuf.New()
	txb.Reset(cfg.UUID)

	depth := cfg.SendQueueDepth
	if depth <= 0 {
		depth = 64
	}

	n := &Node{
		uuid:       cfg.UUID,
		cfg:        cfg,
		logger:     opts.Logger,
		observer:   observer,
		table:      objtable.New(),
		txb:        txb,
		dir:        directory.New(),
		sock:       sock,
		ownsSocket: ownsSocket,
		work:       make(chan func(), depth+8),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	return n, nil
}

// Start launches the node's event-loop goroutine.
func (n *Node) Start() {
	go n.run()
}

func (n *Node) run() {
	defer close(n.done)

	ticker := time.NewTicker(pumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-n.ctx.Done():
			return
		case fn := <-n.work:
			fn()
		case <-ticker.C:
			if !n.txb.Empty() {
				n.flushLocked()
			}
			n.pumpOnce()
		}
	}
}

func (n *Node) pumpOnce() {
	err := n.sock.Pump(n.onRecv)
	if err != nil && n.logger != nil {
		n.logger.Printf("nn: pump failed: %v", err)
	}
}

func (n *Node) onRecv(datagram []byte) {
	start := time.Now()
	sender, records, err := wire.Parse(datagram)
	if err != nil {
		n.observer.ObserveDrop("malformed")
		if n.logger != nil {
			n.logger.Debugf("nn: dropping malformed datagram: %v", err)
		}
		return
	}

	n.dir.ApplyDatagram(sender, records)
	n.observer.ObserveRecv(len(datagram), len(records), time.Since(start).Nanoseconds(), true)
	n.observer.ObserveApply(time.Since(start).Nanoseconds())
	n.observer.ObserveDirectory(n.dir.UUIDCount(), n.dir.ObjectCount())
}

// submit posts fn to the event loop and blocks until it runs, returning
// ErrClosed if the node is shut down first.
func (n *Node) submit(fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		fn()
		close(done)
	}
	select {
	case n.work <- wrapped:
	case <-n.ctx.Done():
		return ErrClosed
	}
	select {
	case <-done:
		return nil
	case <-n.ctx.Done():
		return ErrClosed
	}
}

// AddObject registers a new local object of the given type with an
// initial payload, returning its index (0-31). It does not itself
// transmit anything; call UpdateObject to mutate and coalesce a send.
func (n *Node) AddObject(objType wire.ObjectType, payload []byte) (int, error) {
	var idx int
	var addErr error
	err := n.submit(func() {
		cp := make([]byte, len(payload))
		copy(cp, payload)
		idx, addErr = n.table.Add(&objtable.Descriptor{
			Type:    objType,
			Size:    len(cp),
			Payload: cp,
		})
	})
	if err != nil {
		return 0, err
	}
	if addErr != nil {
		return 0, WrapError("AddObject", addErr)
	}
	return idx, nil
}

// UpdateObject overwrites object idx's payload at the given byte offset
// and coalesces the change into the node's pending outbound datagram. It
// does not flush immediately: the event loop's ticker flushes whatever is
// pending on its next tick, so a burst of updates arriving within one
// tick interval merges into a single datagram (P5). If a record does not
// fit in the current datagram it flushes the pending one and retries on
// a fresh buffer; if it still does not fit (the record itself exceeds
// one datagram) it returns an oversize error.
func (n *Node) UpdateObject(idx int, offset int, payload []byte) error {
	var updateErr error
	err := n.submit(func() {
		desc := n.table.At(idx)
		if desc == nil {
			return
		}

		need := offset + len(payload)
		if need > len(desc.Payload) {
			grown := make([]byte, need)
			copy(grown, desc.Payload)
			desc.Payload = grown
		}
		if need > desc.Size {
			desc.Size = need
		}
		copy(desc.Payload[offset:need], payload)

		h := wire.RecordHeader{
			Idx:    uint16(idx),
			Type:   uint16(desc.Type),
			Offset: uint16(offset),
			Size:   uint16(len(payload)),
		}

		if !n.txb.TryAppend(h, payload) {
			n.flushLocked()
			if !n.txb.TryAppend(h, payload) {
				n.observer.ObserveDrop("oversize")
				updateErr = NewNodeError("UpdateObject", n.uuid, ErrCodeOversize, "record exceeds one datagram")
				return
			}
		}

		n.txb.ScheduleFlush()
	})
	if err != nil {
		return err
	}
	return updateErr
}

// flushLocked finalizes and sends the pending datagram. It must only run
// on the event-loop goroutine.
func (n *Node) flushLocked() {
	n.txb.ClearSchedule()
	if n.txb.Empty() {
		return
	}

	count := n.txb.ObjectsCount()
	datagram := n.txb.Finalize()
	n.txb.Reset(n.uuid)

	start := time.Now()
	err := n.sock.Send(datagram)
	n.observer.ObserveSend(len(datagram), count, time.Since(start).Nanoseconds(), err == nil)
	if err != nil && n.logger != nil {
		n.logger.Printf("nn: send failed: %v", err)
	}
}

// ReadUUIDs returns a snapshot of every remote node UUID currently
// mirrored in the directory, in enumeration (insertion) order.
func (n *Node) ReadUUIDs() ([][16]byte, error) {
	var out [][16]byte
	err := n.submit(func() {
		for e := n.dir.FirstUUID(); e != nil; e = n.dir.NextUUID(e) {
			out = append(out, e.UUID)
		}
	})
	return out, err
}

// ReadObjects returns a snapshot of every object mirrored for the given
// remote UUID. It returns an empty slice (not an error) if the UUID is
// not currently tracked.
func (n *Node) ReadObjects(uuid [16]byte) ([]ObjectSnapshot, error) {
	var out []ObjectSnapshot
	err := n.submit(func() {
		u := n.dir.Lookup(uuid)
		if u == nil {
			return
		}
		for i := 0; i < len(u.Objects); i++ {
			o := u.Objects[i]
			if o == nil {
				continue
			}
			cp := make([]byte, len(o.Payload))
			copy(cp, o.Payload)
			out = append(out, ObjectSnapshot{Idx: o.Idx, Type: o.Type, Size: o.Size, Payload: cp})
		}
	})
	return out, err
}

// Stop cancels the node's context, causing the event-loop goroutine to
// exit once it next reaches its select statement.
func (n *Node) Stop() {
	n.cancel()
}

// Close stops the event loop, waits for it to exit, and releases the
// socket if the node opened it itself.
func (n *Node) Close() error {
	n.cancel()
	<-n.done
	if n.ownsSocket {
		return n.sock.Close()
	}
	return nil
}
