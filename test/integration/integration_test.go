//go:build integration

// Package integration holds tests that open real multicast UDP sockets,
// gated behind the "integration" build tag since they need a
// multicast-capable network namespace (CI sandboxes often lack one).
package integration

import (
	"net"
	"testing"
	"time"

	"github.com/ev3kit/nn"
	"github.com/ev3kit/nn/internal/wire"
)

func requireMulticast(t *testing.T) {
	ifaces, err := net.Interfaces()
	if err != nil {
		t.Skipf("cannot enumerate interfaces: %v", err)
	}
	for _, ifc := range ifaces {
		if ifc.Flags&net.FlagMulticast != 0 && ifc.Flags&net.FlagUp != 0 {
			return
		}
	}
	t.Skip("no multicast-capable interface available")
}

func uuidFrom(s string) [16]byte {
	var u [16]byte
	copy(u[:], []byte(s))
	return u
}

// TestRealMulticastRoundTrip runs the same scenario as the unit suite's
// local echo test, but over real internal/socket.Driver instances on the
// loopback multicast group instead of nntest.FakeSocket.
func TestRealMulticastRoundTrip(t *testing.T) {
	requireMulticast(t)

	cfgA := nn.DefaultConfig()
	cfgA.UUID = uuidFrom("integration-node-a")
	cfgA.InterfaceName = "lo"

	cfgB := nn.DefaultConfig()
	cfgB.UUID = uuidFrom("integration-node-b")
	cfgB.InterfaceName = "lo"

	nodeA, err := nn.Initialize(cfgA, nil)
	if err != nil {
		t.Skipf("opening real multicast socket A: %v", err)
	}
	defer nodeA.Close()

	nodeB, err := nn.Initialize(cfgB, nil)
	if err != nil {
		t.Skipf("opening real multicast socket B: %v", err)
	}
	defer nodeB.Close()

	nodeA.Start()
	nodeB.Start()

	idx, err := nodeA.AddObject(wire.ObjectTypeTouch, []byte{0})
	if err != nil {
		t.Fatalf("AddObject: %v", err)
	}
	if err := nodeA.UpdateObject(idx, 0, []byte{9}); err != nil {
		t.Fatalf("UpdateObject: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		objs, err := nodeB.ReadObjects(cfgA.UUID)
		if err == nil && len(objs) == 1 && objs[0].Payload[0] == 9 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("node B never observed node A's update over real multicast")
}
