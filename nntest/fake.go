// Package nntest provides in-memory test doubles for the nn runtime,
// adapted from the teacher's MockBackend pattern: isolate kernel I/O
// behind an interface and provide an in-process stand-in so transmit,
// coalescing, and directory logic can be exercised without opening real
// sockets.
package nntest

import (
	"errors"
	"sync"
)

// ErrFakeClosed is returned by FakeSocket once Close has been called.
var ErrFakeClosed = errors.New("nntest: fake socket closed")

// FakeSocket implements interfaces.Socket purely in memory. Wire reports
// sent by one FakeSocket are delivered to every peer it has been linked
// to via Link, standing in for the multicast wire. It is safe for the
// owning node's event loop to call Send/Pump; Link must be called before
// any traffic is exchanged.
type FakeSocket struct {
	mu     sync.Mutex
	peers  []*FakeSocket
	inbox  [][]byte
	closed bool

	// Sent records every datagram this socket has handed to Send, in
	// order, letting tests assert how many datagrams were transmitted and
	// inspect their contents.
	Sent [][]byte

	// SendErr, when non-nil, is returned by Send instead of delivering.
	SendErr error
}

// SentCount returns the number of datagrams this socket has sent so far.
func (f *FakeSocket) SentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sent)
}

// LastSent returns the most recently sent datagram, or nil if none has
// been sent yet.
func (f *FakeSocket) LastSent() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Sent) == 0 {
		return nil
	}
	return f.Sent[len(f.Sent)-1]
}

// NewFakeSocket returns an unlinked fake socket.
func NewFakeSocket() *FakeSocket {
	return &FakeSocket{}
}

// Link makes a and b deliver to each other's inbox. Linking is
// symmetric and idempotent.
func Link(a, b *FakeSocket) {
	a.mu.Lock()
	a.peers = append(a.peers, b)
	a.mu.Unlock()

	b.mu.Lock()
	b.peers = append(b.peers, a)
	b.mu.Unlock()
}

// Send hands datagram to every linked peer's inbox, copying it so the
// caller may reuse its buffer.
//
// The peer list is snapshotted and f's own lock released before any peer
// is locked, so two sockets sending to each other concurrently can never
// deadlock on each other's mutex.
func (f *FakeSocket) Send(b []byte) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrFakeClosed
	}
	if f.SendErr != nil {
		f.mu.Unlock()
		return f.SendErr
	}
	peers := make([]*FakeSocket, len(f.peers))
	copy(peers, f.peers)
	f.mu.Unlock()

	cp := make([]byte, len(b))
	copy(cp, b)

	f.mu.Lock()
	f.Sent = append(f.Sent, cp)
	f.mu.Unlock()

	for _, p := range peers {
		p.mu.Lock()
		p.inbox = append(p.inbox, cp)
		p.mu.Unlock()
	}
	return nil
}

// Pump delivers at most one buffered inbound datagram to onRecv.
func (f *FakeSocket) Pump(onRecv func(datagram []byte)) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrFakeClosed
	}
	var next []byte
	if len(f.inbox) > 0 {
		next = f.inbox[0]
		f.inbox = f.inbox[1:]
	}
	f.mu.Unlock()

	if next != nil {
		onRecv(next)
	}
	return nil
}

// Close marks the socket closed; further Send/Pump calls fail.
func (f *FakeSocket) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
