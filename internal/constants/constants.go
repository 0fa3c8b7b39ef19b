// Package constants holds the fixed sizes and defaults shared across the
// wire codec, transmit buffer, object table, and directory.
package constants

// Wire and buffer limits.
const (
	// MTU is the maximum size in bytes of one outbound datagram, including
	// the 32-byte header.
	MTU = 1500

	// DatagramHeaderSize is the size in bytes of the fixed datagram header
	// (16-byte UUID, 1-byte record count, 15 reserved bytes).
	DatagramHeaderSize = 32

	// RecordHeaderSize is the size in bytes of one object record's header
	// (idx, type, offset, size; all u16).
	RecordHeaderSize = 8

	// RecvBufferSize is the size of the buffer used to read one inbound
	// datagram off the socket.
	RecvBufferSize = 4096
)

// Per-node limits.
const (
	// MaxObjects is the number of local object slots a node owns, and the
	// number of remote-object slots tracked per directory entry.
	MaxObjects = 32

	// UUIDBucketCount is the number of directory hash buckets, keyed by
	// xor-folding all 16 UUID bytes into one byte.
	UUIDBucketCount = 256
)

// Multicast defaults.
const (
	// MulticastGroup is the fixed IPv4 multicast group all nodes join.
	MulticastGroup = "239.192.1.2"

	// DefaultPort is the UDP port all nodes share unless overridden.
	DefaultPort = 7713

	// DefaultInterfaceName, when empty, means "let the OS pick a
	// multicast-capable interface" (see internal/socket).
	DefaultInterfaceName = ""
)