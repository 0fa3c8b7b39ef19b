package nn

import (
	"context"

	"github.com/ev3kit/nn/nntest"
)

// NewLinkedPair constructs two initialized, started nodes wired to each
// other through an in-memory nntest.FakeSocket pair instead of a real
// multicast socket, for tests that want real coalescing/directory
// behavior without opening sockets. Callers must Close both returned
// nodes.
func NewLinkedPair(uuidA, uuidB [16]byte) (*Node, *Node, error) {
	a, b, _, _, err := NewLinkedPairWithSockets(uuidA, uuidB)
	return a, b, err
}

// NewLinkedPairWithSockets is NewLinkedPair but also returns the two
// underlying fake sockets, for tests that need to inspect what was
// actually transmitted (e.g. counting datagrams to verify coalescing).
func NewLinkedPairWithSockets(uuidA, uuidB [16]byte) (*Node, *Node, *nntest.FakeSocket, *nntest.FakeSocket, error) {
	sockA := nntest.NewFakeSocket()
	sockB := nntest.NewFakeSocket()
	nntest.Link(sockA, sockB)

	ctx := context.Background()

	a, err := Initialize(Config{UUID: uuidA}, &Options{Context: ctx, Socket: sockA})
	if err != nil {
		return nil, nil, nil, nil, err
	}
	b, err := Initialize(Config{UUID: uuidB}, &Options{Context: ctx, Socket: sockB})
	if err != nil {
		a.Close()
		return nil, nil, nil, nil, err
	}

	a.Start()
	b.Start()
	return a, b, sockA, sockB, nil
}
