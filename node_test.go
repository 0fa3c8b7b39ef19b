package nn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ev3kit/nn/internal/wire"
	"github.com/ev3kit/nn/nntest"
)

func testUUID(s string) [16]byte {
	var u [16]byte
	copy(u[:], []byte(s))
	return u
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.FailNow(t, "condition not met within timeout")
}

func TestAddAndReadLocalObject(t *testing.T) {
	sock := nntest.NewFakeSocket()
	n, err := Initialize(Config{UUID: testUUID("node-a")}, &Options{Socket: sock})
	require.NoError(t, err)
	n.Start()
	defer n.Close()

	idx, err := n.AddObject(wire.ObjectTypeTouch, []byte{0})
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx2, err := n.AddObject(wire.ObjectTypeGyro, []byte{0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, idx2)
}

// Scenario: two nodes, A updates an object, B's directory mirrors it.
func TestTwoNodeUpdatePropagates(t *testing.T) {
	uuidA := testUUID("node-aaaaaaaaaaaaa")
	uuidB := testUUID("node-bbbbbbbbbbbbb")

	a, b, err := NewLinkedPair(uuidA, uuidB)
	require.NoError(t, err)
	defer a.Close()
	defer b.Close()

	idx, err := a.AddObject(wire.ObjectTypeUltrasonic, []byte{0, 0, 0, 0})
	require.NoError(t, err)

	require.NoError(t, a.UpdateObject(idx, 0, []byte{42, 0, 0, 0}))

	waitFor(t, 2*time.Second, func() bool {
		uuids, _ := b.ReadUUIDs()
		return len(uuids) == 1
	})

	objs, err := b.ReadObjects(uuidA)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, wire.ObjectTypeUltrasonic, objs[0].Type)
	assert.Equal(t, []byte{42, 0, 0, 0}, objs[0].Payload)
}

// P2: a later update with a smaller reach never shrinks the mirrored
// object's high-water size.
func TestTwoNodeHighWaterSize(t *testing.T) {
	uuidA := testUUID("node-ccccccccccccc")
	uuidB := testUUID("node-ddddddddddddd")

	a, b, err := NewLinkedPair(uuidA, uuidB)
	require.NoError(t, err)
	defer a.Close()
	defer b.Close()

	idx, err := a.AddObject(wire.ObjectTypeRaw, make([]byte, 16))
	require.NoError(t, err)

	require.NoError(t, a.UpdateObject(idx, 8, []byte{1, 2}))
	waitFor(t, 2*time.Second, func() bool {
		objs, _ := b.ReadObjects(uuidA)
		return len(objs) == 1 && objs[0].Size == 10
	})

	require.NoError(t, a.UpdateObject(idx, 0, []byte{9}))
	waitFor(t, 2*time.Second, func() bool {
		objs, _ := b.ReadObjects(uuidA)
		return len(objs) == 1 && objs[0].Payload[0] == 9
	})

	objs, err := b.ReadObjects(uuidA)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, 10, objs[0].Size, "size must not shrink from the earlier, farther-reaching update")
}

func TestReadObjectsForUnknownUUIDIsEmpty(t *testing.T) {
	sock := nntest.NewFakeSocket()
	n, err := Initialize(Config{UUID: testUUID("node-e")}, &Options{Socket: sock})
	require.NoError(t, err)
	n.Start()
	defer n.Close()

	objs, err := n.ReadObjects(testUUID("nobody"))
	require.NoError(t, err)
	assert.Empty(t, objs)
}

func TestUpdateObjectOnMissingIndexIsNoOp(t *testing.T) {
	sock := nntest.NewFakeSocket()
	n, err := Initialize(Config{UUID: testUUID("node-f")}, &Options{Socket: sock})
	require.NoError(t, err)
	n.Start()
	defer n.Close()

	assert.NoError(t, n.UpdateObject(5, 0, []byte{1}))
}

// Scenario: a record that cannot possibly fit in one datagram, even
// against a freshly reset buffer, is reported to the caller as an
// oversize error rather than silently dropped.
func TestUpdateObjectOversizeReturnsError(t *testing.T) {
	sock := nntest.NewFakeSocket()
	n, err := Initialize(Config{UUID: testUUID("node-h")}, &Options{Socket: sock})
	require.NoError(t, err)
	n.Start()
	defer n.Close()

	idx, err := n.AddObject(wire.ObjectTypeRaw, nil)
	require.NoError(t, err)

	huge := make([]byte, 1465) // with its 8-byte record header, exceeds payloadCap (MTU - 32-byte datagram header = 1468)
	err = n.UpdateObject(idx, 0, huge)
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeOversize), "got %v", err)
}

func TestCloseStopsEventLoop(t *testing.T) {
	sock := nntest.NewFakeSocket()
	n, err := Initialize(Config{UUID: testUUID("node-g")}, &Options{Socket: sock})
	require.NoError(t, err)
	n.Start()

	require.NoError(t, n.Close())

	_, err = n.AddObject(wire.ObjectTypeRaw, []byte{1})
	assert.ErrorIs(t, err, ErrClosed)
}
